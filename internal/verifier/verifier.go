// Package verifier checks receipts against pinned program identities and
// returns the commitments they carry.
package verifier

//go:generate mockgen -source=verifier.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yourorg/zkvc/internal/identity"
	"github.com/yourorg/zkvc/internal/metrics"
	"github.com/yourorg/zkvc/pkg/credential"
	dErrors "github.com/yourorg/zkvc/pkg/domain-errors"
	"github.com/yourorg/zkvc/pkg/journal"
	"github.com/yourorg/zkvc/pkg/predicate"
	"github.com/yourorg/zkvc/pkg/zkvm"
)

// Engine checks a seal under an expected identity.
type Engine interface {
	Verify(r *zkvm.Receipt, expected zkvm.ImageID) error
}

type Verifier struct {
	engine   Engine
	registry *identity.Registry
	trusted  map[credential.PublicKey]struct{}
	metrics  *metrics.Metrics
	log      zerolog.Logger
	tracer   trace.Tracer
}

type Option func(*Verifier)

func WithMetrics(m *metrics.Metrics) Option {
	return func(v *Verifier) { v.metrics = m }
}

func WithLogger(l zerolog.Logger) Option {
	return func(v *Verifier) { v.log = l }
}

// WithTrustedKeys restricts accepted commitments to credentials signed by
// one of keys. Without it every issuer key a seal commits to is accepted and
// callers must check the key themselves.
func WithTrustedKeys(keys ...credential.PublicKey) Option {
	return func(v *Verifier) {
		if len(keys) == 0 {
			return
		}
		v.trusted = make(map[credential.PublicKey]struct{}, len(keys))
		for _, k := range keys {
			v.trusted[k] = struct{}{}
		}
	}
}

func New(engine Engine, registry *identity.Registry, opts ...Option) *Verifier {
	v := &Verifier{
		engine:   engine,
		registry: registry,
		log:      zerolog.Nop(),
		tracer:   otel.Tracer("github.com/yourorg/zkvc/internal/verifier"),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// VerifyAndDecode decodes the journal of r, then checks that r was sealed
// by the program pinned as expected over exactly that journal. Nothing is
// returned unless both steps pass.
func (v *Verifier) VerifyAndDecode(ctx context.Context, r *zkvm.Receipt, expected zkvm.ImageID) (journal.Commitment, error) {
	_, span := v.tracer.Start(ctx, "verifier.verify", trace.WithAttributes(
		attribute.String("expected_image_id", expected.String()),
	))
	defer span.End()

	c, err := v.verifyAndDecode(r, expected)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	return c, err
}

func (v *Verifier) verifyAndDecode(r *zkvm.Receipt, expected zkvm.ImageID) (journal.Commitment, error) {
	if r == nil {
		return journal.Commitment{}, dErrors.New(dErrors.CodeInputMissing, "receipt is required")
	}
	c, err := journal.Decode(r.Journal)
	if err != nil {
		return journal.Commitment{}, err
	}
	if err := v.engine.Verify(r, expected); err != nil {
		v.log.Debug().Err(err).Str("image_id", r.ImageID.String()).Msg("receipt rejected")
		return journal.Commitment{}, &dErrors.Error{
			Code:    dErrors.CodeIdentityMismatch,
			Message: "receipt does not verify under the expected program identity",
			Err:     err,
		}
	}
	return c, nil
}

// Verify checks r against the identity pinned for variant and requires the
// commitment to have the matching shape.
func (v *Verifier) Verify(ctx context.Context, variant identity.Variant, r *zkvm.Receipt) (journal.Commitment, error) {
	expected, err := v.registry.Expected(variant)
	if err != nil {
		return journal.Commitment{}, err
	}
	c, err := v.VerifyAndDecode(ctx, r, expected)
	if err == nil && c.Kind != kindOf(variant) {
		err = dErrors.New(dErrors.CodeIdentityMismatch, fmt.Sprintf("%s receipt carries a %s commitment", variant, c.Kind))
	}
	if err == nil {
		err = v.checkIssuers(c)
	}
	v.metrics.RecordVerification(string(variant), outcome(err))
	if err != nil {
		return journal.Commitment{}, err
	}
	return c, nil
}

// VerifyPredicate verifies a predicate receipt.
func (v *Verifier) VerifyPredicate(ctx context.Context, r *zkvm.Receipt) (*journal.PredicateCommitment, error) {
	c, err := v.Verify(ctx, identity.Predicate, r)
	if err != nil {
		return nil, err
	}
	return c.Predicate, nil
}

// VerifyRelation verifies a relation receipt.
func (v *Verifier) VerifyRelation(ctx context.Context, r *zkvm.Receipt) (*journal.RelationCommitment, error) {
	c, err := v.Verify(ctx, identity.Relation, r)
	if err != nil {
		return nil, err
	}
	return c.Relation, nil
}

func (v *Verifier) checkIssuers(c journal.Commitment) error {
	if v.trusted == nil {
		return nil
	}
	var keys []credential.PublicKey
	switch {
	case c.Predicate != nil:
		keys = append(keys, c.Predicate.IssuerKey)
	case c.Relation != nil:
		keys = append(keys, c.Relation.SubjectKey, c.Relation.ApprovalKey)
	}
	for _, k := range keys {
		if _, ok := v.trusted[k]; !ok {
			return dErrors.New(dErrors.CodeUntrustedIssuer, fmt.Sprintf("credential signed by untrusted issuer key %s", k))
		}
	}
	return nil
}

func kindOf(v identity.Variant) predicate.Kind {
	if v == identity.Relation {
		return predicate.KindRelation
	}
	return predicate.KindPredicates
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case dErrors.HasCode(err, dErrors.CodeIdentityMismatch),
		dErrors.HasCode(err, dErrors.CodeMalformedCommitment),
		dErrors.HasCode(err, dErrors.CodeUntrustedIssuer):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeFailed
	}
}
