// Package api exposes proving and verification over HTTP.
package api

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/yourorg/zkvc/internal/identity"
	"github.com/yourorg/zkvc/internal/prover"
	"github.com/yourorg/zkvc/pkg/credential"
	dErrors "github.com/yourorg/zkvc/pkg/domain-errors"
	"github.com/yourorg/zkvc/pkg/journal"
	"github.com/yourorg/zkvc/pkg/zkvm"
)

const maxBodyBytes = 1 << 20

// Prover produces receipts.
type Prover interface {
	ProvePredicates(ctx context.Context, req prover.PredicateRequest) (*zkvm.Receipt, error)
	ProveRelation(ctx context.Context, req credential.RelationRequest) (*zkvm.Receipt, error)
}

// Verifier checks receipts against pinned identities.
type Verifier interface {
	Verify(ctx context.Context, variant identity.Variant, r *zkvm.Receipt) (journal.Commitment, error)
}

type Handler struct {
	prover   Prover
	verifier Verifier
	registry *identity.Registry
	timeout  time.Duration
	log      zerolog.Logger
}

// New wires the handler. A zero timeout leaves proving bounded only by the
// client's connection. A nil p serves verification only.
func New(p Prover, v Verifier, registry *identity.Registry, timeout time.Duration, log zerolog.Logger) *Handler {
	return &Handler{prover: p, verifier: v, registry: registry, timeout: timeout, log: log}
}

// Register mounts the endpoints on r. The proving endpoints are left out
// when the handler has no prover.
func (h *Handler) Register(r chi.Router) {
	if h.prover != nil {
		r.Post("/verify_predicate", h.HandleVerifyPredicate)
		r.Post("/verify_bid", h.HandleVerifyBid)
	}
	r.Post("/receipts/verify", h.HandleVerifyReceipt)
	r.Get("/identities", h.HandleIdentities)
}

func (h *Handler) proveContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.timeout)
}

// HandleVerifyPredicate proves predicates over one credential, verifies the
// receipt and returns the disclosed results with the receipt.
func (h *Handler) HandleVerifyPredicate(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAndValidate[PredicateRequest](w, r)
	if !ok {
		return
	}
	ctx, cancel := h.proveContext(r)
	defer cancel()

	receipt, err := h.prover.ProvePredicates(ctx, req.parsed)
	if err != nil {
		h.fail(w, r, "predicate proof not produced", err)
		return
	}
	c, raw, err := h.check(r.Context(), identity.Predicate, receipt)
	if err != nil {
		h.fail(w, r, "predicate receipt did not verify", err)
		return
	}
	writeJSON(w, http.StatusOK, predicateResponse(c.Predicate, receipt.ImageID, raw))
}

// HandleVerifyBid proves that the bid fits the approved loan amount.
func (h *Handler) HandleVerifyBid(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAndValidate[BidRequest](w, r)
	if !ok {
		return
	}
	ctx, cancel := h.proveContext(r)
	defer cancel()

	receipt, err := h.prover.ProveRelation(ctx, req.parsed)
	if err != nil {
		h.fail(w, r, "bid proof not produced", err)
		return
	}
	c, raw, err := h.check(r.Context(), identity.Relation, receipt)
	if err != nil {
		h.fail(w, r, "bid receipt did not verify", err)
		return
	}
	writeJSON(w, http.StatusOK, bidResponse(c.Relation, receipt.ImageID, raw))
}

// HandleVerifyReceipt verifies a receipt produced elsewhere.
func (h *Handler) HandleVerifyReceipt(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAndValidate[ReceiptRequest](w, r)
	if !ok {
		return
	}
	c, err := h.verifier.Verify(r.Context(), req.variant, req.receipt)
	if err != nil {
		status := StatusFor(dErrors.CodeOf(err))
		if dErrors.HasCode(err, dErrors.CodeMalformedCommitment) {
			// the journal came from the caller, not from us
			status = http.StatusBadRequest
		}
		h.log.Info().Str("request_id", middleware.GetReqID(r.Context())).Err(err).Msg("receipt rejected")
		writeErrorStatus(w, status, err)
		return
	}

	resp := ReceiptResponse{Variant: req.variant}
	switch req.variant {
	case identity.Predicate:
		resp.Predicate = predicateResponse(c.Predicate, req.receipt.ImageID, nil)
	case identity.Relation:
		resp.Bid = bidResponse(c.Relation, req.receipt.ImageID, nil)
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleIdentities publishes the pinned program identities.
func (h *Handler) HandleIdentities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.All())
}

// check verifies a freshly produced receipt before it leaves the service and
// returns it serialized.
func (h *Handler) check(ctx context.Context, v identity.Variant, receipt *zkvm.Receipt) (journal.Commitment, []byte, error) {
	c, err := h.verifier.Verify(ctx, v, receipt)
	if err != nil {
		return journal.Commitment{}, nil, err
	}
	raw, err := receipt.Marshal()
	if err != nil {
		return journal.Commitment{}, nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode receipt")
	}
	return c, raw, nil
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ev := h.log.Info()
	if StatusFor(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		ev = h.log.Error()
	}
	ev.Str("request_id", middleware.GetReqID(r.Context())).
		Str("code", string(dErrors.CodeOf(err))).
		Err(err).
		Msg(msg)
	writeError(w, err)
}

type validatable interface {
	Validate() error
}

// decodeAndValidate reads a JSON body into T and validates it, writing the
// error response itself when either step fails.
func decodeAndValidate[T any, PT interface {
	*T
	validatable
}](w http.ResponseWriter, r *http.Request) (PT, bool) {
	var zero PT
	req := PT(new(T))
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(req); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, dErrors.New(dErrors.CodeInputMissing, "request body is required"))
			return zero, false
		}
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid JSON body: "+err.Error()))
		return zero, false
	}
	if err := req.Validate(); err != nil {
		writeError(w, err)
		return zero, false
	}
	return req, true
}
