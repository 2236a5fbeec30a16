// Package prover orchestrates proving runs: it validates requests, encodes
// the private program input, bounds concurrency and maps engine errors onto
// domain codes.
package prover

//go:generate mockgen -source=prover.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/yourorg/zkvc/circuits"
	"github.com/yourorg/zkvc/internal/guest"
	"github.com/yourorg/zkvc/internal/identity"
	"github.com/yourorg/zkvc/internal/metrics"
	"github.com/yourorg/zkvc/pkg/credential"
	dErrors "github.com/yourorg/zkvc/pkg/domain-errors"
	"github.com/yourorg/zkvc/pkg/zkvm"
)

// Engine runs a program and seals its journal.
type Engine interface {
	Prove(ctx context.Context, id zkvm.ImageID, input []byte) (*zkvm.Receipt, error)
}

// PredicateRequest asks for a proof that the credential in Token, signed by
// IssuerKey, satisfies every predicate.
type PredicateRequest struct {
	Token      string
	IssuerKey  credential.PublicKey
	Predicates []credential.Predicate
}

type Service struct {
	engine   Engine
	registry *identity.Registry
	sem      *semaphore.Weighted
	metrics  *metrics.Metrics
	log      zerolog.Logger
	tracer   trace.Tracer
}

type Option func(*Service)

// WithMaxProvers bounds the number of proofs computed at once.
func WithMaxProvers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func New(engine Engine, registry *identity.Registry, opts ...Option) *Service {
	s := &Service{
		engine:   engine,
		registry: registry,
		sem:      semaphore.NewWeighted(int64(runtime.NumCPU())),
		log:      zerolog.Nop(),
		tracer:   otel.Tracer("github.com/yourorg/zkvc/internal/prover"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProvePredicates proves req with the predicate program.
func (s *Service) ProvePredicates(ctx context.Context, req PredicateRequest) (*zkvm.Receipt, error) {
	if req.Token == "" {
		return nil, dErrors.New(dErrors.CodeInputMissing, "credential token is required")
	}
	if len(req.Predicates) > circuits.MaxPredicates {
		return nil, dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("at most %d predicates per proof, got %d", circuits.MaxPredicates, len(req.Predicates)))
	}
	for i, p := range req.Predicates {
		if p.Field == "" {
			return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("predicate %d: field is required", i))
		}
		if !p.Condition.Valid() {
			return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("predicate %d: invalid condition", i))
		}
	}

	input, err := guest.EncodeInput(guest.PredicateInput{
		Token:      req.Token,
		IssuerKey:  req.IssuerKey,
		Predicates: req.Predicates,
	})
	if err != nil {
		return nil, err
	}
	return s.prove(ctx, identity.Predicate, input)
}

// ProveRelation proves req with the relation program.
func (s *Service) ProveRelation(ctx context.Context, req credential.RelationRequest) (*zkvm.Receipt, error) {
	if req.SubjectToken == "" || req.ApprovalToken == "" {
		return nil, dErrors.New(dErrors.CodeInputMissing, "both credential tokens are required")
	}
	input, err := guest.EncodeInput(guest.NewRelationInput(req))
	if err != nil {
		return nil, err
	}
	return s.prove(ctx, identity.Relation, input)
}

type result struct {
	receipt *zkvm.Receipt
	err     error
}

func (s *Service) prove(ctx context.Context, variant identity.Variant, input []byte) (*zkvm.Receipt, error) {
	proofID := uuid.NewString()
	log := s.log.With().Str("proof_id", proofID).Str("variant", string(variant)).Logger()

	ctx, span := s.tracer.Start(ctx, "prover.prove", trace.WithAttributes(
		attribute.String("proof_id", proofID),
		attribute.String("variant", string(variant)),
	))
	defer span.End()

	id, err := s.registry.Expected(variant)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, timeout(err)
	}
	if err := s.sem.Acquire(ctx, 1); err != nil {
		s.metrics.RecordProof(string(variant), metrics.OutcomeTimeout, 0)
		span.SetStatus(codes.Error, "timeout")
		log.Warn().Msg("gave up waiting for a prover slot")
		return nil, timeout(err)
	}

	start := time.Now()
	done := make(chan result, 1)
	s.metrics.ProverStarted()
	go func() {
		defer s.sem.Release(1)
		defer s.metrics.ProverDone()
		r, err := s.engine.Prove(context.WithoutCancel(ctx), id, input)
		done <- result{receipt: r, err: err}
	}()

	select {
	case <-ctx.Done():
		s.metrics.RecordProof(string(variant), metrics.OutcomeTimeout, 0)
		span.SetStatus(codes.Error, "timeout")
		log.Warn().Msg("proof abandoned, result will be discarded")
		return nil, timeout(ctx.Err())
	case res := <-done:
		elapsed := time.Since(start)
		if res.err != nil {
			err := classify(res.err)
			outcome := metrics.OutcomeFailed
			if IsRejection(err) {
				outcome = metrics.OutcomeRejected
			}
			s.metrics.RecordProof(string(variant), outcome, elapsed.Seconds())
			span.RecordError(err)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
			log.Info().Str("code", string(dErrors.CodeOf(err))).Dur("took", elapsed).Msg("proof not produced")
			return nil, err
		}
		s.metrics.RecordProof(string(variant), metrics.OutcomeOK, elapsed.Seconds())
		log.Info().Dur("took", elapsed).Int("journal_bytes", len(res.receipt.Journal)).Msg("proof produced")
		return res.receipt, nil
	}
}

// classify keeps the guest's own code for guest aborts and turns every other
// engine failure into ProvingFailed.
func classify(err error) error {
	if errors.Is(err, zkvm.ErrGuestAborted) {
		code := dErrors.CodeOf(err)
		if code == dErrors.CodeInternal {
			code = dErrors.CodeProvingFailed
		}
		return &dErrors.Error{Code: code, Message: guestMessage(err), Err: err}
	}
	return &dErrors.Error{Code: dErrors.CodeProvingFailed, Message: "proving failed", Err: err}
}

func guestMessage(err error) string {
	var de *dErrors.Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return "credential rejected"
}

// IsRejection reports whether err means the computation ran and rejected the
// credential, as opposed to failing to run.
func IsRejection(err error) bool {
	return errors.Is(err, zkvm.ErrGuestAborted)
}

func timeout(cause error) error {
	return &dErrors.Error{Code: dErrors.CodeTimeout, Message: "proving timed out", Err: cause}
}
