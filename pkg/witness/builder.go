// Package witness turns proving-run results and journals into circuit
// assignments.
//
// Full assignments are built inside a proving run from hidden material. Public
// assignments are rebuilt by verifiers from the journal alone and must agree
// with the full ones on every public variable.
package witness

import (
	"fmt"
	"math/big"

	nativeeddsa "github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	backendwitness "github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/native/twistededwards"
	"github.com/consensys/gnark/std/signature/eddsa"

	"github.com/yourorg/zkvc/circuits"
	"github.com/yourorg/zkvc/internal/keccak"
	"github.com/yourorg/zkvc/pkg/credential"
	dErrors "github.com/yourorg/zkvc/pkg/domain-errors"
	"github.com/yourorg/zkvc/pkg/journal"
	"github.com/yourorg/zkvc/pkg/vcjwt"
)

// Predicate builds the full assignment of a predicate proof over one signed
// credential.
func Predicate(signed *vcjwt.Signed, disclosures []string, slots []PredicateSlots) (*circuits.PredicateCircuit, error) {
	if signed == nil || signed.Claims == nil {
		return nil, fmt.Errorf("nil signed credential")
	}
	if len(disclosures) != len(slots) {
		return nil, fmt.Errorf("%d disclosures for %d predicates", len(disclosures), len(slots))
	}
	a, err := predicatePublic(signed.Claims.Issuer, signed.Claims.Subject, disclosures, signed.Key)
	if err != nil {
		return nil, err
	}
	if a.Credential, err = signedClaims(signed); err != nil {
		return nil, err
	}
	for i := range slots {
		a.Fields[i] = keccak.String(slots[i].Field)
		a.Thresholds[i] = slots[i].Threshold
		a.Conditions[i] = slots[i].Condition
	}
	return a, nil
}

// PredicatePublic rebuilds the public part of a predicate assignment from a
// decoded commitment.
func PredicatePublic(c *journal.PredicateCommitment) (*circuits.PredicateCircuit, error) {
	if c == nil {
		return nil, fmt.Errorf("nil predicate commitment")
	}
	return predicatePublic(c.Issuer, c.Subject, c.Disclosures, c.IssuerKey)
}

func predicatePublic(issuer, subject string, disclosures []string, key credential.PublicKey) (*circuits.PredicateCircuit, error) {
	if len(disclosures) > circuits.MaxPredicates {
		return nil, dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("at most %d predicates per proof, got %d", circuits.MaxPredicates, len(disclosures)))
	}
	pub, err := publicKey(key)
	if err != nil {
		return nil, err
	}
	a := &circuits.PredicateCircuit{
		Issuer:     keccak.String(issuer),
		Subject:    keccak.String(subject),
		IssuerKey:  pub,
		Count:      len(disclosures),
		Credential: emptyClaims(),
	}
	for i := 0; i < circuits.MaxPredicates; i++ {
		a.Disclosures[i] = 0
		a.Fields[i] = 0
		a.Thresholds[i] = 0
		a.Conditions[i] = 0
		if i < len(disclosures) {
			a.Disclosures[i] = keccak.String(disclosures[i])
		}
	}
	return a, nil
}

// Relation builds the full assignment of a relation proof. field is the
// approved-amount claim name of the approval credential.
func Relation(subject, approval *vcjwt.Signed, amount uint32, field string) (*circuits.RelationCircuit, error) {
	if subject == nil || subject.Claims == nil || approval == nil || approval.Claims == nil {
		return nil, fmt.Errorf("nil signed credential")
	}
	a, err := RelationPublic(&journal.RelationCommitment{
		IsValid:       true,
		SubjectID:     subject.Claims.Subject,
		Amount:        amount,
		ApprovedField: field,
		SubjectKey:    subject.Key,
		ApprovalKey:   approval.Key,
	})
	if err != nil {
		return nil, err
	}
	a.SubjectIssuer = keccak.String(subject.Claims.Issuer)
	a.ApprovalIssuer = keccak.String(approval.Claims.Issuer)
	a.ApprovalSubject = keccak.String(approval.Claims.Subject)
	if a.SubjectClaims, err = signedClaims(subject); err != nil {
		return nil, err
	}
	if a.ApprovalClaims, err = signedClaims(approval); err != nil {
		return nil, err
	}
	return a, nil
}

// RelationPublic rebuilds the public part of a relation assignment.
func RelationPublic(c *journal.RelationCommitment) (*circuits.RelationCircuit, error) {
	if c == nil {
		return nil, fmt.Errorf("nil relation commitment")
	}
	subjectKey, err := publicKey(c.SubjectKey)
	if err != nil {
		return nil, err
	}
	approvalKey, err := publicKey(c.ApprovalKey)
	if err != nil {
		return nil, err
	}
	valid := 0
	if c.IsValid {
		valid = 1
	}
	return &circuits.RelationCircuit{
		IsValid:         valid,
		SubjectID:       keccak.String(c.SubjectID),
		Amount:          c.Amount,
		ApprovedField:   keccak.String(c.ApprovedField),
		SubjectKey:      subjectKey,
		ApprovalKey:     approvalKey,
		SubjectIssuer:   0,
		SubjectClaims:   emptyClaims(),
		ApprovalIssuer:  0,
		ApprovalSubject: 0,
		ApprovalClaims:  emptyClaims(),
	}, nil
}

func publicKey(k credential.PublicKey) (eddsa.PublicKey, error) {
	pub, err := k.EdDSA()
	if err != nil {
		return eddsa.PublicKey{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid issuer key")
	}
	return eddsa.PublicKey{A: twistededwards.Point{
		X: pub.A.X.BigInt(new(big.Int)),
		Y: pub.A.Y.BigInt(new(big.Int)),
	}}, nil
}

func signedClaims(s *vcjwt.Signed) (circuits.SignedClaims, error) {
	if s.Message == nil {
		return circuits.SignedClaims{}, fmt.Errorf("signed credential has no message")
	}
	var sig nativeeddsa.Signature
	if _, err := sig.SetBytes(s.Signature); err != nil {
		return circuits.SignedClaims{}, dErrors.Wrap(err, dErrors.CodeSignatureInvalid, "invalid token signature")
	}
	c := circuits.SignedClaims{
		Signature: eddsa.Signature{
			R: twistededwards.Point{
				X: sig.R.X.BigInt(new(big.Int)),
				Y: sig.R.Y.BigInt(new(big.Int)),
			},
			S: new(big.Int).SetBytes(sig.S[:]),
		},
		Payload: s.Message.Payload,
	}
	for i := 0; i < circuits.MaxClaims; i++ {
		c.Names[i] = 0
		if s.Message.Names[i] != nil {
			c.Names[i] = s.Message.Names[i]
		}
		c.Values[i] = s.Message.Values[i]
	}
	return c, nil
}

func emptyClaims() circuits.SignedClaims {
	c := circuits.SignedClaims{
		Signature: eddsa.Signature{R: twistededwards.Point{X: 0, Y: 0}, S: 0},
		Payload:   0,
	}
	for i := 0; i < circuits.MaxClaims; i++ {
		c.Names[i] = 0
		c.Values[i] = 0
	}
	return c
}

// Build derives both witness views of assignment.
func Build(assignment frontend.Circuit) (*Bundle, error) {
	full, err := frontend.NewWitness(assignment, circuits.Curve().ScalarField())
	if err != nil {
		return nil, fmt.Errorf("full witness: %w", err)
	}
	pub, err := full.Public()
	if err != nil {
		return nil, fmt.Errorf("public witness: %w", err)
	}
	return &Bundle{Full: full, Public: pub, Assignment: assignment}, nil
}

// PublicWitness derives the public-only witness of assignment. Secret
// variables are not read.
func PublicWitness(assignment frontend.Circuit) (backendwitness.Witness, error) {
	pub, err := frontend.NewWitness(assignment, circuits.Curve().ScalarField(), frontend.PublicOnly())
	if err != nil {
		return nil, fmt.Errorf("public witness: %w", err)
	}
	return pub, nil
}
