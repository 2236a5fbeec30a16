// Package identity pins the program identities a verifier accepts.
//
// Identities come from configuration, never from a request or a receipt.
package identity

import (
	"fmt"
	"sort"

	dErrors "github.com/yourorg/zkvc/pkg/domain-errors"
	"github.com/yourorg/zkvc/pkg/zkvm"
)

// Variant names a logic variant. Values equal the program names.
type Variant string

const (
	Predicate Variant = "predicate"
	Relation  Variant = "relation"
)

var variants = []Variant{Predicate, Relation}

func ParseVariant(s string) (Variant, error) {
	for _, v := range variants {
		if string(v) == s {
			return v, nil
		}
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown variant %q", s))
}

// Registry maps each variant to its pinned identity.
type Registry struct {
	ids map[Variant]zkvm.ImageID
}

// New pins predicate and relation. Zero identities are refused.
func New(predicate, relation zkvm.ImageID) (*Registry, error) {
	r := &Registry{ids: map[Variant]zkvm.ImageID{
		Predicate: predicate,
		Relation:  relation,
	}}
	for _, v := range variants {
		if r.ids[v].IsZero() {
			return nil, fmt.Errorf("no image id pinned for %s", v)
		}
	}
	return r, nil
}

// FromHex parses hex-encoded identities, as found in configuration.
func FromHex(predicate, relation string) (*Registry, error) {
	p, err := zkvm.ParseImageID(predicate)
	if err != nil {
		return nil, fmt.Errorf("predicate: %w", err)
	}
	rel, err := zkvm.ParseImageID(relation)
	if err != nil {
		return nil, fmt.Errorf("relation: %w", err)
	}
	return New(p, rel)
}

// FromLoaded pins whatever the engine loaded. Only for setups whose key
// directory is itself trusted.
func FromLoaded(loaded map[string]zkvm.ImageID) (*Registry, error) {
	return New(loaded[string(Predicate)], loaded[string(Relation)])
}

// Expected returns the identity pinned for v.
func (r *Registry) Expected(v Variant) (zkvm.ImageID, error) {
	id, ok := r.ids[v]
	if !ok {
		return zkvm.ImageID{}, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown variant %q", v))
	}
	return id, nil
}

// Pin checks that every pinned identity is among the loaded ones under the
// same program name.
func (r *Registry) Pin(loaded map[string]zkvm.ImageID) error {
	for _, v := range variants {
		got, ok := loaded[string(v)]
		if !ok {
			return fmt.Errorf("program %s is not loaded", v)
		}
		if got != r.ids[v] {
			return fmt.Errorf("program %s: loaded %s, pinned %s", v, got, r.ids[v])
		}
	}
	return nil
}

// Entry is one published identity.
type Entry struct {
	Variant Variant      `json:"variant"`
	ImageID zkvm.ImageID `json:"imageId"`
}

// All lists the pinned identities sorted by variant.
func (r *Registry) All() []Entry {
	out := make([]Entry, 0, len(r.ids))
	for v, id := range r.ids {
		out = append(out, Entry{Variant: v, ImageID: id})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Variant < out[j].Variant })
	return out
}
