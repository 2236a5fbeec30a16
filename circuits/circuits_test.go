package circuits_test

import (
	"bytes"
	"math/big"
	"testing"

	nativeeddsa "github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	tedwards "github.com/consensys/gnark-crypto/ecc/twistededwards"
	"github.com/consensys/gnark-crypto/hash"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/std/signature/eddsa"
	"github.com/consensys/gnark/test"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/zkvc/circuits"
)

func opts() []test.TestingOption {
	return []test.TestingOption{
		test.WithCurves(circuits.Curve()),
		test.WithBackends(backend.GROTH16),
		test.NoFuzzing(),
		test.NoSerializationChecks(),
	}
}

const (
	issuerID  = 11
	subjectID = 22

	dateOfBirth = 501
	level       = 502
)

type issuer struct {
	priv *nativeeddsa.PrivateKey
}

func newIssuer(t testing.TB, seed byte) *issuer {
	t.Helper()
	priv, err := nativeeddsa.GenerateKey(bytes.NewReader(bytes.Repeat([]byte{seed}, 32)))
	require.NoError(t, err)
	return &issuer{priv: priv}
}

func (i *issuer) key() eddsa.PublicKey {
	var k eddsa.PublicKey
	k.Assign(tedwards.BN254, i.priv.PublicKey.Bytes())
	return k
}

// claim is a (name digest, value) pair.
type claim struct {
	name  int64
	value uint32
}

// sign signs a credential message for iss and sub over claims and returns its
// circuit form.
func (i *issuer) sign(t testing.TB, iss, sub int64, claims ...claim) circuits.SignedClaims {
	t.Helper()
	m := &circuits.Message{
		Issuer:  big.NewInt(iss),
		Subject: big.NewInt(sub),
		Payload: big.NewInt(99),
	}
	for j, c := range claims {
		m.Names[j] = big.NewInt(c.name)
		m.Values[j] = c.value
	}
	digest, err := m.Digest()
	require.NoError(t, err)
	sig, err := i.priv.Sign(digest, hash.MIMC_BN254.New())
	require.NoError(t, err)

	s := circuits.SignedClaims{Payload: m.Payload}
	s.Signature.Assign(tedwards.BN254, sig)
	for j := 0; j < circuits.MaxClaims; j++ {
		s.Names[j], s.Values[j] = 0, 0
		if j < len(claims) {
			s.Names[j], s.Values[j] = claims[j].name, claims[j].value
		}
	}
	return s
}

/* ---------------- predicate ---------------- */

// predicateAssignment has one active slot per field; unused slots are zero.
func predicateAssignment(iss *issuer, cred circuits.SignedClaims, fields, thresholds, conds, disclosures []int) *circuits.PredicateCircuit {
	w := &circuits.PredicateCircuit{
		Issuer:     issuerID,
		Subject:    subjectID,
		IssuerKey:  iss.key(),
		Count:      len(fields),
		Credential: cred,
	}
	for i := 0; i < circuits.MaxPredicates; i++ {
		w.Fields[i], w.Thresholds[i], w.Conditions[i], w.Disclosures[i] = 0, 0, 0, 0
		if i < len(fields) {
			w.Fields[i] = fields[i]
			w.Thresholds[i] = thresholds[i]
			w.Conditions[i] = conds[i]
			w.Disclosures[i] = disclosures[i]
		}
	}
	return w
}

func person(t testing.TB, iss *issuer) circuits.SignedClaims {
	return iss.sign(t, issuerID, subjectID, claim{dateOfBirth, 19880105}, claim{level, 7})
}

func TestPredicateCircuitAllConditions(t *testing.T) {
	assert := test.NewAssert(t)
	iss := newIssuer(t, 1)

	w := predicateAssignment(iss, person(t, iss),
		[]int{dateOfBirth, dateOfBirth, level, level},
		[]int{19791001, 20000101, 7, 8},
		[]int{circuits.CondGT, circuits.CondLT, circuits.CondEQ, circuits.CondNEQ},
		[]int{101, 102, 103, 104},
	)
	assert.ProverSucceeded(&circuits.PredicateCircuit{}, w, opts()...)
}

func TestPredicateCircuitNoPredicates(t *testing.T) {
	assert := test.NewAssert(t)
	iss := newIssuer(t, 1)
	assert.ProverSucceeded(&circuits.PredicateCircuit{}, predicateAssignment(iss, person(t, iss), nil, nil, nil, nil), opts()...)
}

func TestPredicateCircuitFullSlots(t *testing.T) {
	assert := test.NewAssert(t)
	iss := newIssuer(t, 1)

	n := circuits.MaxPredicates
	claims := make([]claim, circuits.MaxClaims)
	for i := range claims {
		claims[i] = claim{name: int64(600 + i), value: uint32(i + 1)}
	}
	fields, thresholds, conds, disc := make([]int, n), make([]int, n), make([]int, n), make([]int, n)
	for i := range fields {
		fields[i], thresholds[i], conds[i], disc[i] = 600+i, i, circuits.CondGT, 1000+i
	}
	w := predicateAssignment(iss, iss.sign(t, issuerID, subjectID, claims...), fields, thresholds, conds, disc)
	assert.ProverSucceeded(&circuits.PredicateCircuit{}, w, opts()...)
}

func TestPredicateCircuitRejects(t *testing.T) {
	iss := newIssuer(t, 1)
	one := func(field, threshold, cond int) *circuits.PredicateCircuit {
		return predicateAssignment(iss, person(t, iss), []int{field}, []int{threshold}, []int{cond}, []int{1})
	}

	cases := map[string]*circuits.PredicateCircuit{
		"false GT":               one(level, 7, circuits.CondGT),
		"false LT":               one(level, 6, circuits.CondLT),
		"false EQ":               one(level, 6, circuits.CondEQ),
		"false NEQ":              one(level, 7, circuits.CondNEQ),
		"unknown condition":      one(level, 4, 9),
		"threshold over 32 bits": one(level, 1<<33, circuits.CondLT),
		"field not signed":       one(999, 0, circuits.CondGT),
		"empty field name":       one(0, 0, circuits.CondEQ),
	}

	tooMany := one(level, 0, circuits.CondGT)
	tooMany.Count = circuits.MaxPredicates + 1
	cases["count over capacity"] = tooMany

	stray := one(level, 0, circuits.CondGT)
	stray.Disclosures[3] = 77
	cases["disclosure in inactive slot"] = stray

	noIssuer := one(level, 0, circuits.CondGT)
	noIssuer.Issuer = 0
	cases["zero issuer"] = noIssuer

	raised := one(level, 10, circuits.CondGT)
	raised.Credential.Values[1] = 11
	cases["value changed after signing"] = raised

	otherSubject := one(level, 0, circuits.CondGT)
	otherSubject.Subject = subjectID + 1
	cases["subject not signed"] = otherSubject

	otherKey := one(level, 0, circuits.CondGT)
	otherKey.IssuerKey = newIssuer(t, 2).key()
	cases["signed by another key"] = otherKey

	for name, w := range cases {
		t.Run(name, func(t *testing.T) {
			assert := test.NewAssert(t)
			assert.ProverFailed(&circuits.PredicateCircuit{}, w, opts()...)
		})
	}
}

/* ---------------- relation ---------------- */

const (
	bankID         = 44
	holderID       = 33
	age            = 601
	approvedAmount = 701
)

func relationAssignment(t testing.TB, eid, bank *issuer, amount int, approved uint32) *circuits.RelationCircuit {
	return &circuits.RelationCircuit{
		IsValid:         1,
		SubjectID:       holderID,
		Amount:          amount,
		ApprovedField:   approvedAmount,
		SubjectKey:      eid.key(),
		ApprovalKey:     bank.key(),
		SubjectIssuer:   issuerID,
		SubjectClaims:   eid.sign(t, issuerID, holderID, claim{age, 36}),
		ApprovalIssuer:  bankID,
		ApprovalSubject: holderID,
		ApprovalClaims:  bank.sign(t, bankID, holderID, claim{approvedAmount, approved}),
	}
}

func TestRelationCircuit(t *testing.T) {
	assert := test.NewAssert(t)
	eid, bank := newIssuer(t, 1), newIssuer(t, 2)

	assert.ProverSucceeded(&circuits.RelationCircuit{}, relationAssignment(t, eid, bank, 500, 1000), opts()...)
	assert.ProverSucceeded(&circuits.RelationCircuit{}, relationAssignment(t, eid, bank, 1000, 1000), opts()...)
}

func TestRelationCircuitRejects(t *testing.T) {
	eid, bank := newIssuer(t, 1), newIssuer(t, 2)

	cases := map[string]*circuits.RelationCircuit{
		"over approved": relationAssignment(t, eid, bank, 1500, 1000),
	}

	invalid := relationAssignment(t, eid, bank, 500, 1000)
	invalid.IsValid = 0
	cases["not valid"] = invalid

	wrongField := relationAssignment(t, eid, bank, 500, 1000)
	wrongField.ApprovedField = age
	cases["approved field not signed"] = wrongField

	swapped := relationAssignment(t, eid, bank, 500, 1000)
	swapped.ApprovalKey = eid.key()
	cases["approval under subject key"] = swapped

	raised := relationAssignment(t, eid, bank, 5000, 1000)
	raised.ApprovalClaims.Values[0] = 10000
	cases["approved amount changed after signing"] = raised

	otherSubject := relationAssignment(t, eid, bank, 500, 1000)
	otherSubject.SubjectID = holderID + 1
	cases["subject not signed"] = otherSubject

	for name, w := range cases {
		t.Run(name, func(t *testing.T) {
			assert := test.NewAssert(t)
			assert.ProverFailed(&circuits.RelationCircuit{}, w, opts()...)
		})
	}
}
