// Package journal encodes the public commitment a proving run discloses.
//
// The encoding is deterministic CBOR. Decode accepts only byte strings that
// are exactly the canonical encoding of the value they decode to, so any
// mutation of a journal is either rejected here or changes the public inputs
// the seal is checked against.
package journal

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/fxamacker/cbor/v2"

	"github.com/yourorg/zkvc/pkg/credential"
	dErrors "github.com/yourorg/zkvc/pkg/domain-errors"
	"github.com/yourorg/zkvc/pkg/predicate"
)

// Commitment is a tagged union over the two commitment shapes.
type Commitment struct {
	Kind      predicate.Kind
	Predicate *PredicateCommitment
	Relation  *RelationCommitment
}

// PredicateCommitment is disclosed by single-credential predicate proofs.
type PredicateCommitment struct {
	_           struct{} `cbor:",toarray"`
	Issuer      string
	Subject     string
	Disclosures []string
	IssuerKey   credential.PublicKey
}

// RelationCommitment is disclosed by cross-credential relation proofs.
type RelationCommitment struct {
	_             struct{} `cbor:",toarray"`
	IsValid       bool
	SubjectID     string
	Amount        uint32
	ApprovedField string
	SubjectKey    credential.PublicKey
	ApprovalKey   credential.PublicKey
}

type envelope struct {
	_    struct{} `cbor:",toarray"`
	Kind predicate.Kind
	Body cbor.RawMessage
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// NewPredicate builds a predicate commitment for a credential signed by
// issuerKey.
func NewPredicate(issuer, subject string, disclosures []string, issuerKey credential.PublicKey) Commitment {
	return Commitment{
		Kind: predicate.KindPredicates,
		Predicate: &PredicateCommitment{
			Issuer:      issuer,
			Subject:     subject,
			Disclosures: disclosures,
			IssuerKey:   issuerKey,
		},
	}
}

// NewRelation builds a relation commitment. approvedField names the claim
// of the credential signed by approvalKey that amount was compared against.
func NewRelation(isValid bool, subjectID string, amount uint32, approvedField string, subjectKey, approvalKey credential.PublicKey) Commitment {
	return Commitment{
		Kind: predicate.KindRelation,
		Relation: &RelationCommitment{
			IsValid:       isValid,
			SubjectID:     subjectID,
			Amount:        amount,
			ApprovedField: approvedField,
			SubjectKey:    subjectKey,
			ApprovalKey:   approvalKey,
		},
	}
}

// Encode returns the canonical bytes of c.
func Encode(c Commitment) ([]byte, error) {
	var body any
	switch c.Kind {
	case predicate.KindPredicates:
		if c.Predicate == nil || c.Relation != nil {
			return nil, fmt.Errorf("predicate commitment: wrong variant set")
		}
		if err := checkUTF8(c.Predicate.Issuer, c.Predicate.Subject); err != nil {
			return nil, err
		}
		if err := checkUTF8(c.Predicate.Disclosures...); err != nil {
			return nil, err
		}
		if err := checkKeys(c.Predicate.IssuerKey); err != nil {
			return nil, err
		}
		body = c.Predicate
	case predicate.KindRelation:
		if c.Relation == nil || c.Predicate != nil {
			return nil, fmt.Errorf("relation commitment: wrong variant set")
		}
		if err := checkUTF8(c.Relation.SubjectID, c.Relation.ApprovedField); err != nil {
			return nil, err
		}
		if err := checkKeys(c.Relation.SubjectKey, c.Relation.ApprovalKey); err != nil {
			return nil, err
		}
		body = c.Relation
	default:
		return nil, fmt.Errorf("unknown commitment kind %d", c.Kind)
	}

	raw, err := encMode.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode commitment body: %w", err)
	}
	return encMode.Marshal(envelope{Kind: c.Kind, Body: raw})
}

// Decode parses a journal. Every failure carries CodeMalformedCommitment.
func Decode(b []byte) (Commitment, error) {
	var env envelope
	if err := decMode.Unmarshal(b, &env); err != nil {
		return Commitment{}, malformed(err)
	}

	c := Commitment{Kind: env.Kind}
	switch env.Kind {
	case predicate.KindPredicates:
		c.Predicate = new(PredicateCommitment)
		if err := decMode.Unmarshal(env.Body, c.Predicate); err != nil {
			return Commitment{}, malformed(err)
		}
	case predicate.KindRelation:
		c.Relation = new(RelationCommitment)
		if err := decMode.Unmarshal(env.Body, c.Relation); err != nil {
			return Commitment{}, malformed(err)
		}
	default:
		return Commitment{}, malformed(fmt.Errorf("unknown commitment kind %d", env.Kind))
	}

	canonical, err := Encode(c)
	if err != nil {
		return Commitment{}, malformed(err)
	}
	if !bytes.Equal(canonical, b) {
		return Commitment{}, malformed(fmt.Errorf("non-canonical encoding"))
	}
	return c, nil
}

func malformed(err error) error {
	return &dErrors.Error{
		Code:    dErrors.CodeMalformedCommitment,
		Message: "malformed commitment: " + err.Error(),
		Err:     err,
	}
}

func checkUTF8(ss ...string) error {
	for _, s := range ss {
		if !utf8.ValidString(s) {
			return dErrors.New(dErrors.CodeInvalidInput, "commitment strings must be valid UTF-8")
		}
	}
	return nil
}

func checkKeys(keys ...credential.PublicKey) error {
	for _, k := range keys {
		if _, err := k.EdDSA(); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInvalidInput, "commitment holds an invalid issuer key")
		}
	}
	return nil
}
