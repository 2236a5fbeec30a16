package verifier

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/yourorg/zkvc/internal/identity"
	"github.com/yourorg/zkvc/internal/metrics"
	"github.com/yourorg/zkvc/internal/testutil"
	"github.com/yourorg/zkvc/internal/verifier/mocks"
	dErrors "github.com/yourorg/zkvc/pkg/domain-errors"
	"github.com/yourorg/zkvc/pkg/journal"
	"github.com/yourorg/zkvc/pkg/zkvm"
)

var (
	predicateID = zkvm.ImageID{0x01}
	relationID  = zkvm.ImageID{0x02}

	issuerKey = testutil.NewIssuer(testutil.EIDIssuer).Key
	bankKey   = testutil.NewIssuer(testutil.Bank).Key
)

func setup(t *testing.T, opts ...Option) (*Verifier, *mocks.MockEngine, *metrics.Metrics) {
	t.Helper()
	engine := mocks.NewMockEngine(gomock.NewController(t))
	reg, err := identity.New(predicateID, relationID)
	require.NoError(t, err)
	m := metrics.New(prometheus.NewRegistry())
	return New(engine, reg, append(opts, WithMetrics(m))...), engine, m
}

func predicateReceipt(t *testing.T) *zkvm.Receipt {
	t.Helper()
	j, err := journal.Encode(journal.NewPredicate("iss", "sub", []string{"older than 40"}, issuerKey))
	require.NoError(t, err)
	return &zkvm.Receipt{ImageID: predicateID, Journal: j, Seal: []byte{1}}
}

func TestVerifyPredicateDecodes(t *testing.T) {
	v, engine, m := setup(t)
	r := predicateReceipt(t)
	engine.EXPECT().Verify(r, predicateID).Return(nil)

	c, err := v.VerifyPredicate(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "iss", c.Issuer)
	assert.Equal(t, "sub", c.Subject)
	assert.Equal(t, []string{"older than 40"}, c.Disclosures)
	assert.Equal(t, issuerKey, c.IssuerKey)
	assert.Equal(t, 1.0, promtest.ToFloat64(m.VerificationsTotal.WithLabelValues("predicate", metrics.OutcomeOK)))
}

func TestMalformedJournalStopsBeforeSealCheck(t *testing.T) {
	v, _, m := setup(t) // no Verify call expected
	r := predicateReceipt(t)
	r.Journal = append(r.Journal, 0x00)

	_, err := v.VerifyPredicate(context.Background(), r)
	assert.Equal(t, dErrors.CodeMalformedCommitment, dErrors.CodeOf(err))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.VerificationsTotal.WithLabelValues("predicate", metrics.OutcomeRejected)))
}

func TestSealFailureIsIdentityMismatch(t *testing.T) {
	v, engine, _ := setup(t)
	r := predicateReceipt(t)
	engine.EXPECT().Verify(r, predicateID).Return(zkvm.ErrSealInvalid)

	c, err := v.VerifyPredicate(context.Background(), r)
	assert.Nil(t, c)
	assert.Equal(t, dErrors.CodeIdentityMismatch, dErrors.CodeOf(err))
	assert.ErrorIs(t, err, zkvm.ErrSealInvalid)
}

func TestVariantSelectsExpectedIdentity(t *testing.T) {
	v, engine, _ := setup(t)
	r := predicateReceipt(t)
	engine.EXPECT().Verify(r, relationID).Return(zkvm.ErrImageMismatch)

	_, err := v.VerifyRelation(context.Background(), r)
	assert.Equal(t, dErrors.CodeIdentityMismatch, dErrors.CodeOf(err))
}

func TestCommitmentKindMustMatchVariant(t *testing.T) {
	v, engine, _ := setup(t)
	j, err := journal.Encode(journal.NewRelation(true, "sub", 5, "approvedAmount", issuerKey, bankKey))
	require.NoError(t, err)
	r := &zkvm.Receipt{ImageID: predicateID, Journal: j}
	engine.EXPECT().Verify(r, predicateID).Return(nil)

	_, err = v.VerifyPredicate(context.Background(), r)
	assert.Equal(t, dErrors.CodeIdentityMismatch, dErrors.CodeOf(err))
}

func TestNilReceipt(t *testing.T) {
	v, _, _ := setup(t)
	_, err := v.VerifyAndDecode(context.Background(), nil, predicateID)
	assert.Equal(t, dErrors.CodeInputMissing, dErrors.CodeOf(err))
}

func TestTrustedKeys(t *testing.T) {
	v, engine, m := setup(t, WithTrustedKeys(bankKey))
	r := predicateReceipt(t)
	engine.EXPECT().Verify(r, predicateID).Return(nil)

	c, err := v.VerifyPredicate(context.Background(), r)
	assert.Nil(t, c)
	assert.Equal(t, dErrors.CodeUntrustedIssuer, dErrors.CodeOf(err))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.VerificationsTotal.WithLabelValues("predicate", metrics.OutcomeRejected)))

	v, engine, _ = setup(t, WithTrustedKeys(issuerKey, bankKey))
	engine.EXPECT().Verify(r, predicateID).Return(nil)
	_, err = v.VerifyPredicate(context.Background(), r)
	require.NoError(t, err)
}

func TestTrustedKeysCoverBothRelationIssuers(t *testing.T) {
	j, err := journal.Encode(journal.NewRelation(true, "sub", 5, "approvedAmount", issuerKey, bankKey))
	require.NoError(t, err)
	r := &zkvm.Receipt{ImageID: relationID, Journal: j}

	v, engine, _ := setup(t, WithTrustedKeys(issuerKey))
	engine.EXPECT().Verify(r, relationID).Return(nil)
	_, err = v.VerifyRelation(context.Background(), r)
	assert.Equal(t, dErrors.CodeUntrustedIssuer, dErrors.CodeOf(err))

	v, engine, _ = setup(t, WithTrustedKeys(issuerKey, bankKey))
	engine.EXPECT().Verify(r, relationID).Return(nil)
	c, err := v.VerifyRelation(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, bankKey, c.ApprovalKey)
}
