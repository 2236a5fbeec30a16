package guest

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/yourorg/zkvc/pkg/credential"
	dErrors "github.com/yourorg/zkvc/pkg/domain-errors"
)

// PredicateInput is the private input of the predicate program.
type PredicateInput struct {
	Token      string                 `cbor:"1,keyasint"`
	IssuerKey  credential.PublicKey   `cbor:"2,keyasint"`
	Predicates []credential.Predicate `cbor:"3,keyasint"`
}

// RelationInput is the private input of the relation program.
type RelationInput struct {
	RequestedAmount uint32               `cbor:"1,keyasint"`
	SubjectToken    string               `cbor:"2,keyasint"`
	SubjectKey      credential.PublicKey `cbor:"3,keyasint"`
	ApprovalToken   string               `cbor:"4,keyasint"`
	ApprovalKey     credential.PublicKey `cbor:"5,keyasint"`
	ApprovedField   string               `cbor:"6,keyasint,omitempty"`
}

// NewRelationInput copies a relation request into program input form.
func NewRelationInput(r credential.RelationRequest) RelationInput {
	return RelationInput{
		RequestedAmount: r.RequestedAmount,
		SubjectToken:    r.SubjectToken,
		SubjectKey:      r.SubjectKey,
		ApprovalToken:   r.ApprovalToken,
		ApprovalKey:     r.ApprovalKey,
		ApprovedField:   r.ApprovedField,
	}
}

var (
	inputEnc cbor.EncMode
	inputDec cbor.DecMode
)

func init() {
	var err error
	if inputEnc, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}
	if inputDec, err = (cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
	}).DecMode(); err != nil {
		panic(err)
	}
}

// EncodeInput serializes a program input.
func EncodeInput(v any) ([]byte, error) {
	b, err := inputEnc.Marshal(v)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "encode program input")
	}
	return b, nil
}

func decodeInput(b []byte, v any) error {
	if err := inputDec.Unmarshal(b, v); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed program input")
	}
	return nil
}
