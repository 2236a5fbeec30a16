package guest_test

import (
	"testing"

	"github.com/consensys/gnark/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/zkvc/circuits"
	"github.com/yourorg/zkvc/internal/guest"
	"github.com/yourorg/zkvc/internal/testutil"
	"github.com/yourorg/zkvc/pkg/credential"
	dErrors "github.com/yourorg/zkvc/pkg/domain-errors"
	"github.com/yourorg/zkvc/pkg/journal"
	"github.com/yourorg/zkvc/pkg/predicate"
)

func predicateInput(t *testing.T, token string, key credential.PublicKey, preds ...credential.Predicate) []byte {
	t.Helper()
	b, err := guest.EncodeInput(guest.PredicateInput{Token: token, IssuerKey: key, Predicates: preds})
	require.NoError(t, err)
	return b
}

func TestConditionCodesMatchCircuit(t *testing.T) {
	assert.EqualValues(t, circuits.CondLT, credential.LT)
	assert.EqualValues(t, circuits.CondGT, credential.GT)
	assert.EqualValues(t, circuits.CondEQ, credential.EQ)
	assert.EqualValues(t, circuits.CondNEQ, credential.NEQ)
}

func TestPredicateProgramExecute(t *testing.T) {
	token, iss := testutil.PersonToken(t)
	p := guest.PredicateProgram{}

	exec, err := p.Execute(predicateInput(t, token, iss.Key,
		credential.Predicate{Field: "date_of_birth", Condition: credential.GT, Value: 19791001, Disclosure: "older than 40"},
		credential.Predicate{Field: "age", Condition: credential.NEQ, Value: 17, Disclosure: "not 17"},
	))
	require.NoError(t, err)

	c, err := journal.Decode(exec.Journal)
	require.NoError(t, err)
	require.Equal(t, predicate.KindPredicates, c.Kind)
	assert.Equal(t, testutil.EIDIssuer, c.Predicate.Issuer)
	assert.Equal(t, testutil.Holder, c.Predicate.Subject)
	assert.Equal(t, []string{"older than 40", "not 17"}, c.Predicate.Disclosures)
	assert.Equal(t, iss.Key, c.Predicate.IssuerKey)

	require.NoError(t, test.IsSolved(p.Circuit(), exec.Assignment, circuits.Curve().ScalarField()))

	pub, err := p.PublicAssignment(exec.Journal)
	require.NoError(t, err)
	pc := pub.(*circuits.PredicateCircuit)
	full := exec.Assignment.(*circuits.PredicateCircuit)
	assert.Equal(t, full.Issuer, pc.Issuer)
	assert.Equal(t, full.Subject, pc.Subject)
	assert.Equal(t, full.Disclosures, pc.Disclosures)
	assert.Equal(t, full.IssuerKey, pc.IssuerKey)
}

func TestPredicateProgramAborts(t *testing.T) {
	token, iss := testutil.PersonToken(t)
	other := testutil.NewIssuer("did:example:other")
	gt := func(field string, v uint32) credential.Predicate {
		return credential.Predicate{Field: field, Condition: credential.GT, Value: v, Disclosure: "x"}
	}

	cases := []struct {
		name  string
		input []byte
		code  dErrors.Code
	}{
		{"wrong key", predicateInput(t, token, other.Key, gt("age", 18)), dErrors.CodeSignatureInvalid},
		{"invalid key", predicateInput(t, token, credential.PublicKey{}, gt("age", 18)), dErrors.CodeInvalidInput},
		{"garbage token", predicateInput(t, "a.b.c", iss.Key, gt("age", 18)), dErrors.CodeTokenMalformed},
		{"missing field", predicateInput(t, token, iss.Key, gt("income", 1)), dErrors.CodeFieldNotFound},
		{"non numeric field", predicateInput(t, token, iss.Key, gt("name", 1)), dErrors.CodeFieldNotNumeric},
		{"false predicate", predicateInput(t, token, iss.Key, gt("age", 18), gt("age", 40)), dErrors.CodePredicateRejected},
		{"too many predicates", predicateInput(t, token, iss.Key,
			gt("age", 1), gt("age", 1), gt("age", 1), gt("age", 1), gt("age", 1),
			gt("age", 1), gt("age", 1), gt("age", 1), gt("age", 1)), dErrors.CodeInvalidInput},
		{"undecodable input", []byte{0xff, 0x00}, dErrors.CodeInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			exec, err := guest.PredicateProgram{}.Execute(tc.input)
			require.Error(t, err)
			assert.Nil(t, exec)
			assert.Equal(t, tc.code, dErrors.CodeOf(err))
		})
	}
}

func TestPredicateProgramEmptyList(t *testing.T) {
	token, iss := testutil.PersonToken(t)
	p := guest.PredicateProgram{}
	exec, err := p.Execute(predicateInput(t, token, iss.Key))
	require.NoError(t, err)

	c, err := journal.Decode(exec.Journal)
	require.NoError(t, err)
	assert.Empty(t, c.Predicate.Disclosures)
	require.NoError(t, test.IsSolved(p.Circuit(), exec.Assignment, circuits.Curve().ScalarField()))
}

func relationInput(t *testing.T, requested, approved uint32) []byte {
	t.Helper()
	person, eid := testutil.PersonToken(t)
	loan, bank := testutil.LoanToken(t, approved)
	b, err := guest.EncodeInput(guest.NewRelationInput(credential.RelationRequest{
		RequestedAmount: requested,
		SubjectToken:    person,
		SubjectKey:      eid.Key,
		ApprovalToken:   loan,
		ApprovalKey:     bank.Key,
	}))
	require.NoError(t, err)
	return b
}

func TestRelationProgramExecute(t *testing.T) {
	p := guest.RelationProgram{}
	exec, err := p.Execute(relationInput(t, 500, 1000))
	require.NoError(t, err)

	c, err := journal.Decode(exec.Journal)
	require.NoError(t, err)
	require.Equal(t, predicate.KindRelation, c.Kind)
	assert.True(t, c.Relation.IsValid)
	assert.Equal(t, testutil.Holder, c.Relation.SubjectID)
	assert.EqualValues(t, 500, c.Relation.Amount)
	assert.Equal(t, credential.DefaultApprovedField, c.Relation.ApprovedField)
	assert.Equal(t, testutil.NewIssuer(testutil.EIDIssuer).Key, c.Relation.SubjectKey)
	assert.Equal(t, testutil.NewIssuer(testutil.Bank).Key, c.Relation.ApprovalKey)
	require.NoError(t, test.IsSolved(p.Circuit(), exec.Assignment, circuits.Curve().ScalarField()))

	_, err = guest.PredicateProgram{}.PublicAssignment(exec.Journal)
	assert.Error(t, err)
}

func TestRelationProgramAborts(t *testing.T) {
	_, err := guest.RelationProgram{}.Execute(relationInput(t, 1500, 1000))
	assert.Equal(t, dErrors.CodePredicateRejected, dErrors.CodeOf(err))

	person, eid := testutil.PersonToken(t)
	loan, _ := testutil.LoanToken(t, 1000)
	in, err := guest.EncodeInput(guest.NewRelationInput(credential.RelationRequest{
		RequestedAmount: 1,
		SubjectToken:    person,
		SubjectKey:      eid.Key,
		ApprovalToken:   loan,
		ApprovalKey:     eid.Key,
	}))
	require.NoError(t, err)
	_, err = guest.RelationProgram{}.Execute(in)
	assert.Equal(t, dErrors.CodeSignatureInvalid, dErrors.CodeOf(err))

	loan, bank := testutil.LoanToken(t, 1000)
	in, err = guest.EncodeInput(guest.NewRelationInput(credential.RelationRequest{
		RequestedAmount: 1,
		SubjectToken:    person,
		SubjectKey:      eid.Key,
		ApprovalToken:   loan,
		ApprovalKey:     bank.Key,
		ApprovedField:   "creditLimit",
	}))
	require.NoError(t, err)
	_, err = guest.RelationProgram{}.Execute(in)
	assert.Equal(t, dErrors.CodeFieldNotFound, dErrors.CodeOf(err))
}
