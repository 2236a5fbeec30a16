// Package predicate evaluates predicates and cross-credential relations over
// trusted credential claims.
//
// A false predicate or relation is an error, not a result: the caller aborts
// and nothing about the attempt is disclosed.
package predicate

import (
	"errors"
	"fmt"

	"github.com/yourorg/zkvc/pkg/credential"
	dErrors "github.com/yourorg/zkvc/pkg/domain-errors"
)

// Kind tags the statement shapes. Each kind is proven by its own program.
type Kind uint8

const (
	KindPredicates Kind = iota + 1
	KindRelation
)

func (k Kind) String() string {
	switch k {
	case KindPredicates:
		return "predicate"
	case KindRelation:
		return "relation"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Statement declares what a proving run checks.
type Statement struct {
	Kind       Kind
	Predicates []credential.Predicate
	Relation   Relation
}

// Relation is "RequestedAmount <= approved", where approved is ApprovedField
// in the second credential's subject.
type Relation struct {
	RequestedAmount uint32
	ApprovedField   string
}

// Field returns the approved-amount field name, falling back to
// credential.DefaultApprovedField.
func (r Relation) Field() string {
	if r.ApprovedField == "" {
		return credential.DefaultApprovedField
	}
	return r.ApprovedField
}

// Outcome is the result of a successful evaluation. Values and Approved are
// hidden witness material and must never leave the proving run.
type Outcome struct {
	Disclosures []string
	Values      []uint32
	Approved    uint32
}

// Evaluate dispatches on the statement kind. Predicate statements take one
// claims set; relation statements take exactly two.
func Evaluate(stmt Statement, claims ...*credential.TrustedClaims) (*Outcome, error) {
	switch stmt.Kind {
	case KindPredicates:
		if len(claims) != 1 {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "predicate statement needs one credential")
		}
		return EvaluatePredicates(claims[0], stmt.Predicates)
	case KindRelation:
		if len(claims) != 2 {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "relation statement needs two credentials")
		}
		return EvaluateRelation(claims[1], stmt.Relation)
	default:
		return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown statement kind %d", stmt.Kind))
	}
}

// EvaluatePredicates checks every predicate in order and returns their
// disclosures in the same order. The first false predicate aborts.
func EvaluatePredicates(claims *credential.TrustedClaims, preds []credential.Predicate) (*Outcome, error) {
	if claims == nil {
		return nil, errors.New("nil claims")
	}
	out := &Outcome{
		Disclosures: make([]string, 0, len(preds)),
		Values:      make([]uint32, 0, len(preds)),
	}
	for i, p := range preds {
		if !p.Condition.Valid() {
			return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("predicate %d: invalid condition", i))
		}
		v, err := claims.ResolveField(p.Field)
		if err != nil {
			return nil, err
		}
		if !p.Condition.Holds(v, p.Value) {
			return nil, dErrors.New(dErrors.CodePredicateRejected, fmt.Sprintf("predicate %d does not hold", i))
		}
		out.Disclosures = append(out.Disclosures, p.Disclosure)
		out.Values = append(out.Values, v)
	}
	return out, nil
}

// EvaluateRelation checks rel against the approval credential's claims.
func EvaluateRelation(approval *credential.TrustedClaims, rel Relation) (*Outcome, error) {
	if approval == nil {
		return nil, errors.New("nil claims")
	}
	approved, err := approval.ResolveField(rel.Field())
	if err != nil {
		return nil, err
	}
	if rel.RequestedAmount > approved {
		return nil, dErrors.New(dErrors.CodePredicateRejected, "requested amount exceeds approved amount")
	}
	return &Outcome{Approved: approved}, nil
}
