package circuits

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/math/cmp"
	"github.com/consensys/gnark/std/signature/eddsa"
)

// MaxPredicates is the number of predicate slots in PredicateCircuit.
const MaxPredicates = 8

// Condition codes as assigned to PredicateCircuit.Conditions. They match
// credential.Condition.
const (
	CondLT  = 1
	CondGT  = 2
	CondEQ  = 3
	CondNEQ = 4
)

// PredicateCircuit proves that IssuerKey signed a credential for Issuer and
// Subject, and that Count of its numeric claims satisfy comparisons against
// hidden thresholds. Issuer, Subject and Disclosures are field digests of the
// journal strings, so the seal is bound to exactly one commitment.
type PredicateCircuit struct {
	Issuer      frontend.Variable                `gnark:",public"`
	Subject     frontend.Variable                `gnark:",public"`
	IssuerKey   eddsa.PublicKey                  `gnark:",public"`
	Count       frontend.Variable                `gnark:",public"`
	Disclosures [MaxPredicates]frontend.Variable `gnark:",public"`

	Credential SignedClaims
	Fields     [MaxPredicates]frontend.Variable
	Thresholds [MaxPredicates]frontend.Variable
	Conditions [MaxPredicates]frontend.Variable
}

func (c *PredicateCircuit) Define(api frontend.API) error {
	api.AssertIsDifferent(c.Issuer, 0)
	api.AssertIsDifferent(c.Subject, 0)
	api.AssertIsLessOrEqual(c.Count, MaxPredicates)

	if err := verifyCredential(api, c.IssuerKey, c.Issuer, c.Subject, &c.Credential); err != nil {
		return err
	}

	for i := 0; i < MaxPredicates; i++ {
		active := cmp.IsLess(api, i, c.Count)

		v := claimValue(api, &c.Credential, c.Fields[i], active)
		api.ToBinary(v, 32)
		api.ToBinary(c.Thresholds[i], 32)

		isLT := api.IsZero(api.Sub(c.Conditions[i], CondLT))
		isGT := api.IsZero(api.Sub(c.Conditions[i], CondGT))
		isEQ := api.IsZero(api.Sub(c.Conditions[i], CondEQ))
		isNEQ := api.IsZero(api.Sub(c.Conditions[i], CondNEQ))
		known := api.Add(isLT, isGT, isEQ, isNEQ)

		lt := cmp.IsLess(api, v, c.Thresholds[i])
		eq := api.IsZero(api.Sub(v, c.Thresholds[i]))
		gt := api.Sub(1, api.Or(lt, eq))
		neq := api.Sub(1, eq)

		holds := api.Add(
			api.Mul(isLT, lt),
			api.Mul(isGT, gt),
			api.Mul(isEQ, eq),
			api.Mul(isNEQ, neq),
		)

		api.AssertIsEqual(api.Select(active, known, 1), 1)
		api.AssertIsEqual(api.Select(active, holds, 1), 1)
		// inactive slots disclose nothing
		api.AssertIsEqual(api.Select(active, 0, c.Disclosures[i]), 0)
	}
	return nil
}
