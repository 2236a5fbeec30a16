// Package guest holds the programs run by the proving engine.
//
// Execute is the isolated computation: it only sees its CBOR input, verifies
// every token before reading a claim, and either aborts with a coded error or
// returns the journal and the circuit assignment. It performs no I/O and
// reads no clock. The circuits check every token signature again, so a seal
// cannot be produced without a credential from the committed issuer key.
package guest

import (
	"fmt"

	"github.com/consensys/gnark/frontend"

	"github.com/yourorg/zkvc/circuits"
	dErrors "github.com/yourorg/zkvc/pkg/domain-errors"
	"github.com/yourorg/zkvc/pkg/journal"
	"github.com/yourorg/zkvc/pkg/predicate"
	"github.com/yourorg/zkvc/pkg/vcjwt"
	"github.com/yourorg/zkvc/pkg/witness"
	"github.com/yourorg/zkvc/pkg/zkvm"
)

const (
	PredicateName = "predicate"
	RelationName  = "relation"
)

// Programs returns every program the service proves with.
func Programs() []zkvm.Program {
	return []zkvm.Program{PredicateProgram{}, RelationProgram{}}
}

// PredicateProgram proves that one signed credential satisfies a list of
// predicates and discloses their return values.
type PredicateProgram struct{}

func (PredicateProgram) Name() string              { return PredicateName }
func (PredicateProgram) Circuit() frontend.Circuit { return &circuits.PredicateCircuit{} }

func (PredicateProgram) Execute(input []byte) (*zkvm.Execution, error) {
	var in PredicateInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	if len(in.Predicates) > circuits.MaxPredicates {
		return nil, dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("at most %d predicates per proof", circuits.MaxPredicates))
	}

	signed, err := vcjwt.VerifySigned(in.Token, in.IssuerKey)
	if err != nil {
		return nil, err
	}
	claims := signed.Claims
	out, err := predicate.Evaluate(predicate.Statement{
		Kind:       predicate.KindPredicates,
		Predicates: in.Predicates,
	}, claims)
	if err != nil {
		return nil, err
	}

	j, err := journal.Encode(journal.NewPredicate(claims.Issuer, claims.Subject, out.Disclosures, signed.Key))
	if err != nil {
		return nil, err
	}
	slots := make([]witness.PredicateSlots, len(in.Predicates))
	for i, p := range in.Predicates {
		slots[i] = witness.PredicateSlots{
			Field:     p.Field,
			Threshold: p.Value,
			Condition: uint8(p.Condition),
		}
	}
	a, err := witness.Predicate(signed, out.Disclosures, slots)
	if err != nil {
		return nil, err
	}
	return &zkvm.Execution{Journal: j, Assignment: a}, nil
}

func (PredicateProgram) PublicAssignment(j []byte) (frontend.Circuit, error) {
	c, err := journal.Decode(j)
	if err != nil {
		return nil, err
	}
	if c.Kind != predicate.KindPredicates {
		return nil, fmt.Errorf("journal holds a %s commitment", c.Kind)
	}
	return witness.PredicatePublic(c.Predicate)
}

// RelationProgram proves requestedAmount <= approved amount across two
// credentials, each under its own issuer key.
type RelationProgram struct{}

func (RelationProgram) Name() string              { return RelationName }
func (RelationProgram) Circuit() frontend.Circuit { return &circuits.RelationCircuit{} }

func (RelationProgram) Execute(input []byte) (*zkvm.Execution, error) {
	var in RelationInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}

	subject, err := vcjwt.VerifySigned(in.SubjectToken, in.SubjectKey)
	if err != nil {
		return nil, err
	}
	approval, err := vcjwt.VerifySigned(in.ApprovalToken, in.ApprovalKey)
	if err != nil {
		return nil, err
	}
	rel := predicate.Relation{
		RequestedAmount: in.RequestedAmount,
		ApprovedField:   in.ApprovedField,
	}
	if _, err := predicate.Evaluate(predicate.Statement{
		Kind:     predicate.KindRelation,
		Relation: rel,
	}, subject.Claims, approval.Claims); err != nil {
		return nil, err
	}

	j, err := journal.Encode(journal.NewRelation(true, subject.Claims.Subject, in.RequestedAmount,
		rel.Field(), subject.Key, approval.Key))
	if err != nil {
		return nil, err
	}
	a, err := witness.Relation(subject, approval, in.RequestedAmount, rel.Field())
	if err != nil {
		return nil, err
	}
	return &zkvm.Execution{Journal: j, Assignment: a}, nil
}

func (RelationProgram) PublicAssignment(j []byte) (frontend.Circuit, error) {
	c, err := journal.Decode(j)
	if err != nil {
		return nil, err
	}
	if c.Kind != predicate.KindRelation {
		return nil, fmt.Errorf("journal holds a %s commitment", c.Kind)
	}
	return witness.RelationPublic(c.Relation)
}
