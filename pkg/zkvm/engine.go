package zkvm

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/rs/zerolog"

	"github.com/yourorg/zkvc/circuits"
	"github.com/yourorg/zkvc/pkg/witness"
)

type image struct {
	id      ImageID
	program Program
	ccs     constraint.ConstraintSystem
	pk      groth16.ProvingKey
	vk      groth16.VerifyingKey
}

// Engine proves and verifies receipts for registered programs. Registration
// (Setup, Load) must finish before concurrent use; Prove and Verify are safe
// to call from many goroutines.
type Engine struct {
	mu     sync.RWMutex
	images map[ImageID]*image
	names  map[string]ImageID
	log    zerolog.Logger
}

func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{
		images: make(map[ImageID]*image),
		names:  make(map[string]ImageID),
		log:    log.With().Str("component", "zkvm").Logger(),
	}
}

// Setup compiles p and runs a fresh Groth16 setup in memory.
func (e *Engine) Setup(p Program) (ImageID, error) {
	ccs, digest, err := Compile(p)
	if err != nil {
		return ImageID{}, err
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return ImageID{}, fmt.Errorf("%s: setup: %w", p.Name(), err)
	}
	return e.register(p, ccs, digest, pk, vk)
}

// Load compiles p and takes its keys from store. When the store has no keys
// for p and create is set, a fresh setup is run and saved.
func (e *Engine) Load(p Program, store *KeyStore, create bool) (ImageID, error) {
	ccs, digest, err := Compile(p)
	if err != nil {
		return ImageID{}, err
	}
	pk, vk, err := store.Load(p.Name(), digest)
	switch {
	case err == nil:
		e.log.Debug().Str("program", p.Name()).Str("dir", store.Dir()).Msg("loaded cached keys")
	case errors.Is(err, ErrKeysNotFound) && create:
		start := time.Now()
		if pk, vk, err = groth16.Setup(ccs); err != nil {
			return ImageID{}, fmt.Errorf("%s: setup: %w", p.Name(), err)
		}
		if err := store.Save(p.Name(), digest, pk, vk); err != nil {
			return ImageID{}, fmt.Errorf("%s: save keys: %w", p.Name(), err)
		}
		e.log.Info().Str("program", p.Name()).Dur("took", time.Since(start)).Msg("ran trusted setup")
	default:
		return ImageID{}, fmt.Errorf("%s: %w", p.Name(), err)
	}
	return e.register(p, ccs, digest, pk, vk)
}

// LoadVerifying compiles p and registers it with only its verifying key.
// Receipts of p can be verified but not proven.
func (e *Engine) LoadVerifying(p Program, store *KeyStore) (ImageID, error) {
	ccs, digest, err := Compile(p)
	if err != nil {
		return ImageID{}, err
	}
	vk, err := store.LoadVerifying(p.Name(), digest)
	if err != nil {
		return ImageID{}, fmt.Errorf("%s: %w", p.Name(), err)
	}
	e.log.Debug().Str("program", p.Name()).Str("dir", store.Dir()).Msg("loaded cached verifying key")
	return e.register(p, ccs, digest, nil, vk)
}

// Compile builds the constraint system of p and returns it with the sha256
// of its serialization.
func Compile(p Program) (constraint.ConstraintSystem, [sha256.Size]byte, error) {
	ccs, err := frontend.Compile(circuits.Curve().ScalarField(), r1cs.NewBuilder, p.Circuit())
	if err != nil {
		return nil, [sha256.Size]byte{}, fmt.Errorf("%s: compile: %w", p.Name(), err)
	}
	var buf bytes.Buffer
	if _, err := ccs.WriteTo(&buf); err != nil {
		return nil, [sha256.Size]byte{}, fmt.Errorf("%s: serialize circuit: %w", p.Name(), err)
	}
	return ccs, sha256.Sum256(buf.Bytes()), nil
}

func (e *Engine) register(p Program, ccs constraint.ConstraintSystem, digest [sha256.Size]byte, pk groth16.ProvingKey, vk groth16.VerifyingKey) (ImageID, error) {
	var vkBuf bytes.Buffer
	if _, err := vk.WriteTo(&vkBuf); err != nil {
		return ImageID{}, fmt.Errorf("%s: serialize verifying key: %w", p.Name(), err)
	}
	id := DeriveImageID(p.Name(), digest, vkBuf.Bytes())

	e.mu.Lock()
	defer e.mu.Unlock()
	if prev, ok := e.names[p.Name()]; ok {
		delete(e.images, prev)
	}
	e.images[id] = &image{id: id, program: p, ccs: ccs, pk: pk, vk: vk}
	e.names[p.Name()] = id

	e.log.Info().
		Str("program", p.Name()).
		Str("image_id", id.String()).
		Int("constraints", ccs.GetNbConstraints()).
		Bool("can_prove", pk != nil).
		Msg("program registered")
	return id, nil
}

func (e *Engine) lookup(id ImageID) (*image, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	img, ok := e.images[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownImage, id)
	}
	return img, nil
}

// Identities returns the registered programs by name.
func (e *Engine) Identities() map[string]ImageID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]ImageID, len(e.names))
	for name, id := range e.names {
		out[name] = id
	}
	return out
}

// Names returns the registered program names in sorted order.
func (e *Engine) Names() []string {
	ids := e.Identities()
	names := make([]string, 0, len(ids))
	for n := range ids {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Prove runs the program registered under id on input and seals the result.
// Errors from the program itself are wrapped in ErrGuestAborted; everything
// that goes wrong afterwards is ErrProvingFailed.
func (e *Engine) Prove(ctx context.Context, id ImageID, input []byte) (*Receipt, error) {
	img, err := e.lookup(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProvingFailed, err)
	}
	if img.pk == nil {
		return nil, fmt.Errorf("%w: %w: %s", ErrProvingFailed, ErrNoProvingKey, img.program.Name())
	}

	exec, err := img.program.Execute(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGuestAborted, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bundle, err := witness.Build(exec.Assignment)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProvingFailed, err)
	}
	proof, err := groth16.Prove(img.ccs, img.pk, bundle.Full)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProvingFailed, err)
	}

	var seal bytes.Buffer
	if _, err := proof.WriteTo(&seal); err != nil {
		return nil, fmt.Errorf("%w: serialize seal: %w", ErrProvingFailed, err)
	}
	return &Receipt{ImageID: id, Journal: exec.Journal, Seal: seal.Bytes()}, nil
}

// Verify checks that r was produced by the program registered under
// expected and that its seal commits to exactly r.Journal.
func (e *Engine) Verify(r *Receipt, expected ImageID) error {
	if r == nil {
		return fmt.Errorf("%w: nil receipt", ErrSealInvalid)
	}
	if r.ImageID != expected {
		return fmt.Errorf("%w: got %s, want %s", ErrImageMismatch, r.ImageID, expected)
	}
	img, err := e.lookup(expected)
	if err != nil {
		return err
	}

	assignment, err := img.program.PublicAssignment(r.Journal)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSealInvalid, err)
	}
	pub, err := witness.PublicWitness(assignment)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSealInvalid, err)
	}

	proof := groth16.NewProof(circuits.Curve())
	n, err := proof.ReadFrom(bytes.NewReader(r.Seal))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSealInvalid, err)
	}
	if n != int64(len(r.Seal)) {
		return fmt.Errorf("%w: %d trailing bytes", ErrSealInvalid, int64(len(r.Seal))-n)
	}
	if err := groth16.Verify(proof, img.vk, pub); err != nil {
		return fmt.Errorf("%w: %w", ErrSealInvalid, err)
	}
	return nil
}
