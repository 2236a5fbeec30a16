package zkvm

import (
	"bufio"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/yourorg/zkvc/circuits"
)

// KeyStore caches Groth16 keys on disk, one pair per program:
// <dir>/<name>.pk, <dir>/<name>.vk and <dir>/<name>.ccs.sha256.
type KeyStore struct {
	dir string
}

func NewKeyStore(dir string) *KeyStore {
	return &KeyStore{dir: dir}
}

func (s *KeyStore) Dir() string { return s.dir }

func (s *KeyStore) path(name, ext string) string {
	return filepath.Join(s.dir, name+ext)
}

// Load reads the keys stored for name. It returns ErrKeysNotFound when any
// file is missing and ErrDigestMismatch when the keys belong to another
// circuit.
func (s *KeyStore) Load(name string, digest [sha256.Size]byte) (groth16.ProvingKey, groth16.VerifyingKey, error) {
	vk, err := s.LoadVerifying(name, digest)
	if err != nil {
		return nil, nil, err
	}
	pk := groth16.NewProvingKey(circuits.Curve())
	if err := readKey(s.path(name, ".pk"), pk); err != nil {
		return nil, nil, err
	}
	return pk, vk, nil
}

// LoadVerifying reads only the verifying key stored for name. The proving
// key file is neither read nor required.
func (s *KeyStore) LoadVerifying(name string, digest [sha256.Size]byte) (groth16.VerifyingKey, error) {
	recorded, err := os.ReadFile(s.path(name, ".ccs.sha256"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrKeysNotFound
		}
		return nil, err
	}
	if strings.TrimSpace(string(recorded)) != hexutil.Encode(digest[:]) {
		return nil, fmt.Errorf("%s: %w", name, ErrDigestMismatch)
	}

	vk := groth16.NewVerifyingKey(circuits.Curve())
	if err := readKey(s.path(name, ".vk"), vk); err != nil {
		return nil, err
	}
	return vk, nil
}

// Save writes the keys for name, replacing any previous ones.
func (s *KeyStore) Save(name string, digest [sha256.Size]byte, pk groth16.ProvingKey, vk groth16.VerifyingKey) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	// the digest is written last, so a partial save is never trusted by Load
	if err := os.Remove(s.path(name, ".ccs.sha256")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := writeKey(s.path(name, ".pk"), pk); err != nil {
		return err
	}
	if err := writeKey(s.path(name, ".vk"), vk); err != nil {
		return err
	}
	return os.WriteFile(s.path(name, ".ccs.sha256"), []byte(hexutil.Encode(digest[:])+"\n"), 0o644)
}

func readKey(path string, k io.ReaderFrom) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrKeysNotFound
		}
		return err
	}
	defer f.Close()
	if _, err := k.ReadFrom(bufio.NewReader(f)); err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeKey(path string, k io.WriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if _, err := k.WriteTo(w); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
