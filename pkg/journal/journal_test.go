package journal

import (
	"bytes"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/zkvc/pkg/credential"
	dErrors "github.com/yourorg/zkvc/pkg/domain-errors"
	"github.com/yourorg/zkvc/pkg/predicate"
)

func testKey(t *testing.T, seed byte) credential.PublicKey {
	t.Helper()
	priv, err := eddsa.GenerateKey(bytes.NewReader(bytes.Repeat([]byte{seed}, 32)))
	require.NoError(t, err)
	return credential.KeyFromEdDSA(&priv.PublicKey)
}

func TestPredicateCommitment(t *testing.T) {
	key := testKey(t, 1)
	c := NewPredicate("did:example:eid", "did:example:alice", []string{"b", "a", "b"}, key)
	b, err := Encode(c)
	require.NoError(t, err)

	got, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, predicate.KindPredicates, got.Kind)
	require.NotNil(t, got.Predicate)
	assert.Nil(t, got.Relation)
	assert.Equal(t, "did:example:eid", got.Predicate.Issuer)
	assert.Equal(t, "did:example:alice", got.Predicate.Subject)
	assert.Equal(t, []string{"b", "a", "b"}, got.Predicate.Disclosures)
	assert.Equal(t, key, got.Predicate.IssuerKey)
}

func TestRelationCommitment(t *testing.T) {
	subjectKey, approvalKey := testKey(t, 1), testKey(t, 2)
	b, err := Encode(NewRelation(true, "did:example:alice", 500, "approvedAmount", subjectKey, approvalKey))
	require.NoError(t, err)

	got, err := Decode(b)
	require.NoError(t, err)
	require.NotNil(t, got.Relation)
	assert.True(t, got.Relation.IsValid)
	assert.Equal(t, "did:example:alice", got.Relation.SubjectID)
	assert.Equal(t, uint32(500), got.Relation.Amount)
	assert.Equal(t, "approvedAmount", got.Relation.ApprovedField)
	assert.Equal(t, subjectKey, got.Relation.SubjectKey)
	assert.Equal(t, approvalKey, got.Relation.ApprovalKey)
}

func TestEncodingIsDeterministic(t *testing.T) {
	key := testKey(t, 1)
	a, err := Encode(NewPredicate("i", "s", []string{"x"}, key))
	require.NoError(t, err)
	b, err := Encode(NewPredicate("i", "s", []string{"x"}, key))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEncodeRejectsInconsistentVariants(t *testing.T) {
	key := testKey(t, 1)
	_, err := Encode(Commitment{Kind: predicate.KindPredicates})
	assert.Error(t, err)

	c := NewRelation(true, "s", 1, "f", key, key)
	c.Predicate = &PredicateCommitment{}
	_, err = Encode(c)
	assert.Error(t, err)

	_, err = Encode(Commitment{Kind: 9})
	assert.Error(t, err)

	_, err = Encode(NewPredicate("i", "s", []string{"\xff"}, key))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = Encode(NewPredicate("i", "s", nil, credential.PublicKey{}))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

// Every single-byte mutation must either fail to decode or decode to a
// different commitment.
func TestEveryByteMutationIsDetected(t *testing.T) {
	orig := NewPredicate("did:example:eid", "did:example:alice", []string{"older than 40", "resident"}, testKey(t, 1))
	b, err := Encode(orig)
	require.NoError(t, err)

	for i := range b {
		for _, delta := range []byte{0x01, 0x20, 0x80, 0xff} {
			mutated := append([]byte(nil), b...)
			mutated[i] ^= delta

			got, err := Decode(mutated)
			if err != nil {
				assert.True(t, dErrors.HasCode(err, dErrors.CodeMalformedCommitment), "byte %d: %v", i, err)
				continue
			}
			reencoded, err := Encode(got)
			require.NoError(t, err)
			assert.NotEqual(t, b, reencoded, "byte %d mutation decoded to the original", i)
		}
	}
}

func TestDecodeRejectsNonCanonical(t *testing.T) {
	key := testKey(t, 1)
	b, err := Encode(NewRelation(true, "s", 7, "f", key, key))
	require.NoError(t, err)

	_, err = Decode(append(b, 0x00))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeMalformedCommitment))

	// Same value, non-minimal integer encoding of the amount.
	head, err := cbor.Marshal([]any{true, "s"})
	require.NoError(t, err)
	tail, err := cbor.Marshal([]any{"f", key[:], key[:]})
	require.NoError(t, err)
	long := []byte{0x86}
	long = append(long, head[1:]...)
	long = append(long, 0x18, 0x07)
	long = append(long, tail[1:]...)
	env, err := cbor.Marshal([]any{uint8(predicate.KindRelation), cbor.RawMessage(long)})
	require.NoError(t, err)
	_, err = Decode(env)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeMalformedCommitment))
}

func TestDecodeGarbage(t *testing.T) {
	for _, b := range [][]byte{nil, {0x00}, {0x82, 0x09, 0x80}, []byte("not cbor")} {
		_, err := Decode(b)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeMalformedCommitment))
	}
}
