package predicate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/zkvc/pkg/credential"
	dErrors "github.com/yourorg/zkvc/pkg/domain-errors"
)

func person() *credential.TrustedClaims {
	return &credential.TrustedClaims{
		Issuer:  "did:example:eid",
		Subject: "did:example:alice",
		CredentialSubject: map[string]any{
			"date_of_birth": json.Number("19880105"),
			"name":          "Alice",
		},
	}
}

func loan(amount string) *credential.TrustedClaims {
	return &credential.TrustedClaims{
		Issuer:            "did:example:bank",
		Subject:           "did:example:alice",
		CredentialSubject: map[string]any{"approvedAmount": json.Number(amount)},
	}
}

func TestOlderThanForty(t *testing.T) {
	out, err := EvaluatePredicates(person(), []credential.Predicate{
		{Field: "date_of_birth", Condition: credential.GT, Value: 19791001, Disclosure: "older than 40"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"older than 40"}, out.Disclosures)
	assert.Equal(t, []uint32{19880105}, out.Values)
}

func TestDisclosuresKeepRequestOrder(t *testing.T) {
	out, err := EvaluatePredicates(person(), []credential.Predicate{
		{Field: "date_of_birth", Condition: credential.GT, Value: 19791001, Disclosure: "z: second threshold"},
		{Field: "date_of_birth", Condition: credential.GT, Value: 19781001, Disclosure: "a: first threshold"},
		{Field: "date_of_birth", Condition: credential.NEQ, Value: 0, Disclosure: "a: first threshold"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"z: second threshold", "a: first threshold", "a: first threshold"}, out.Disclosures)
}

func TestFalsePredicateAborts(t *testing.T) {
	out, err := EvaluatePredicates(person(), []credential.Predicate{
		{Field: "date_of_birth", Condition: credential.LT, Value: 20000101, Disclosure: "ok"},
		{Field: "date_of_birth", Condition: credential.GT, Value: 19880106, Disclosure: "nope"},
	})
	assert.Nil(t, out)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodePredicateRejected))
	assert.NotContains(t, err.Error(), "19880105")
}

func TestFieldErrorsAreHard(t *testing.T) {
	_, err := EvaluatePredicates(person(), []credential.Predicate{
		{Field: "height", Condition: credential.GT, Value: 1},
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeFieldNotFound))

	_, err = EvaluatePredicates(person(), []credential.Predicate{
		{Field: "name", Condition: credential.NEQ, Value: 1},
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeFieldNotNumeric))

	_, err = EvaluatePredicates(person(), []credential.Predicate{
		{Field: "date_of_birth", Value: 1},
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestEmptyPredicateList(t *testing.T) {
	out, err := EvaluatePredicates(person(), nil)
	require.NoError(t, err)
	assert.Empty(t, out.Disclosures)
}

func TestRelation(t *testing.T) {
	out, err := Evaluate(Statement{Kind: KindRelation, Relation: Relation{RequestedAmount: 500}}, person(), loan("1000"))
	require.NoError(t, err)
	assert.Equal(t, uint32(1000), out.Approved)

	_, err = Evaluate(Statement{Kind: KindRelation, Relation: Relation{RequestedAmount: 1000}}, person(), loan("1000"))
	assert.NoError(t, err)

	_, err = Evaluate(Statement{Kind: KindRelation, Relation: Relation{RequestedAmount: 1500}}, person(), loan("1000"))
	assert.True(t, dErrors.HasCode(err, dErrors.CodePredicateRejected))

	_, err = Evaluate(Statement{Kind: KindRelation, Relation: Relation{RequestedAmount: 1, ApprovedField: "limit"}}, person(), loan("1000"))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeFieldNotFound))
}

func TestRelationField(t *testing.T) {
	assert.Equal(t, credential.DefaultApprovedField, Relation{}.Field())
	assert.Equal(t, "loanAmount", Relation{ApprovedField: "loanAmount"}.Field())
}

func TestEvaluateArity(t *testing.T) {
	_, err := Evaluate(Statement{Kind: KindPredicates}, person(), person())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	_, err = Evaluate(Statement{Kind: KindRelation}, person())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	_, err = Evaluate(Statement{}, person())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
