package demo

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/zkvc/pkg/credential"
	"github.com/yourorg/zkvc/pkg/predicate"
	"github.com/yourorg/zkvc/pkg/vcjwt"
)

func TestGenerateRoundTrip(t *testing.T) {
	doc, err := Generate(Options{BidSize: 500, ApprovedAmount: 1000, IssuedAt: time.Unix(1699694047, 0)})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, doc.Write(path))
	back, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, doc.BidSize, back.BidSize)
	assert.Equal(t, doc.PersonCredential.Proof.JWT, back.PersonCredential.Proof.JWT)
	assert.Equal(t, eidIssuerDID, back.PersonCredential.Issuer.ID)

	req, err := back.RelationRequest("")
	require.NoError(t, err)
	subject, err := vcjwt.Verify(req.SubjectToken, req.SubjectKey)
	require.NoError(t, err)
	approval, err := vcjwt.Verify(req.ApprovalToken, req.ApprovalKey)
	require.NoError(t, err)
	assert.Equal(t, subject.Subject, approval.Subject)

	out, err := predicate.EvaluateRelation(approval, predicate.Relation{RequestedAmount: req.RequestedAmount})
	require.NoError(t, err)
	assert.EqualValues(t, 1000, out.Approved)

	person, err := vcjwt.VerifyCredential(back.PersonCredential, req.SubjectKey)
	require.NoError(t, err)
	res, err := predicate.EvaluatePredicates(person, AgePredicates())
	require.NoError(t, err)
	assert.Len(t, res.Disclosures, 2)
}

func TestGenerateIsDeterministicForAReader(t *testing.T) {
	opts := func() Options {
		return Options{IssuedAt: time.Unix(1699694047, 0), Rand: bytes.NewReader(bytes.Repeat([]byte{9}, 96))}
	}
	a, err := Generate(opts())
	require.NoError(t, err)
	b, err := Generate(opts())
	require.NoError(t, err)
	assert.Equal(t, a.EIDIssuer, b.EIDIssuer)
	assert.Equal(t, a.PersonCredential.Proof.JWT, b.PersonCredential.Proof.JWT)

	_, err = Generate(Options{Rand: bytes.NewReader(make([]byte, 10))})
	assert.Error(t, err)
}

func TestRelationRequestNeedsKeys(t *testing.T) {
	doc := &Document{Bank: credential.PublicKeyHolder{PublicKey: "00"}}
	_, err := doc.RelationRequest("")
	assert.Error(t, err)
}
