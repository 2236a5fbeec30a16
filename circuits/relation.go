package circuits

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/signature/eddsa"
)

// RelationCircuit proves Amount <= approved, where approved is the
// ApprovedField claim of a credential signed by ApprovalKey, and SubjectID
// is the subject of a second credential signed by SubjectKey.
type RelationCircuit struct {
	IsValid       frontend.Variable `gnark:",public"`
	SubjectID     frontend.Variable `gnark:",public"`
	Amount        frontend.Variable `gnark:",public"`
	ApprovedField frontend.Variable `gnark:",public"`
	SubjectKey    eddsa.PublicKey   `gnark:",public"`
	ApprovalKey   eddsa.PublicKey   `gnark:",public"`

	SubjectIssuer   frontend.Variable
	SubjectClaims   SignedClaims
	ApprovalIssuer  frontend.Variable
	ApprovalSubject frontend.Variable
	ApprovalClaims  SignedClaims
}

func (c *RelationCircuit) Define(api frontend.API) error {
	api.AssertIsEqual(c.IsValid, 1)
	api.AssertIsDifferent(c.SubjectID, 0)

	if err := verifyCredential(api, c.SubjectKey, c.SubjectIssuer, c.SubjectID, &c.SubjectClaims); err != nil {
		return err
	}
	if err := verifyCredential(api, c.ApprovalKey, c.ApprovalIssuer, c.ApprovalSubject, &c.ApprovalClaims); err != nil {
		return err
	}

	approved := claimValue(api, &c.ApprovalClaims, c.ApprovedField, 1)
	api.ToBinary(c.Amount, 32)
	api.ToBinary(approved, 32)
	api.AssertIsLessOrEqual(c.Amount, approved)
	return nil
}
