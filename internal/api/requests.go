package api

import (
	"fmt"

	"github.com/yourorg/zkvc/circuits"
	"github.com/yourorg/zkvc/internal/identity"
	"github.com/yourorg/zkvc/internal/prover"
	"github.com/yourorg/zkvc/pkg/credential"
	dErrors "github.com/yourorg/zkvc/pkg/domain-errors"
	"github.com/yourorg/zkvc/pkg/journal"
	"github.com/yourorg/zkvc/pkg/zkvm"
)

// PredicateRequest is the body of POST /verify_predicate. The indices pick
// which credential and which key are used; both default to the first.
type PredicateRequest struct {
	Credentials     []credential.Credential      `json:"credentials"`
	PublicKeys      []credential.PublicKeyHolder `json:"publicKeys"`
	Predicates      []credential.Predicate       `json:"predicates"`
	CredentialIndex int                          `json:"credentialIndex,omitempty"`
	PublicKeyIndex  int                          `json:"publicKeyIndex,omitempty"`

	parsed prover.PredicateRequest
}

func (r *PredicateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInputMissing, "request body is required")
	}

	// Phase 1: size
	if len(r.Predicates) > circuits.MaxPredicates {
		return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("at most %d predicates per request", circuits.MaxPredicates))
	}

	// Phase 2: required fields
	if len(r.Credentials) == 0 {
		return dErrors.New(dErrors.CodeInputMissing, "credentials is required")
	}
	if len(r.PublicKeys) == 0 {
		return dErrors.New(dErrors.CodeInputMissing, "publicKeys is required")
	}
	if r.CredentialIndex < 0 || r.CredentialIndex >= len(r.Credentials) {
		return dErrors.New(dErrors.CodeInvalidInput, "credentialIndex out of range")
	}
	if r.PublicKeyIndex < 0 || r.PublicKeyIndex >= len(r.PublicKeys) {
		return dErrors.New(dErrors.CodeInvalidInput, "publicKeyIndex out of range")
	}
	token := r.Credentials[r.CredentialIndex].Proof.JWT
	if token == "" {
		return dErrors.New(dErrors.CodeInputMissing, "credential proof.jwt is required")
	}
	for i, p := range r.Predicates {
		if p.Field == "" {
			return dErrors.New(dErrors.CodeInputMissing, fmt.Sprintf("predicates[%d].field is required", i))
		}
	}

	// Phase 3: syntax
	key, err := r.PublicKeys[r.PublicKeyIndex].Key()
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, err.Error())
	}

	r.parsed = prover.PredicateRequest{Token: token, IssuerKey: key, Predicates: r.Predicates}
	return nil
}

// BidRequest is the body of POST /verify_bid, shaped like the demo document.
type BidRequest struct {
	BidSize             *uint32                    `json:"bidSize"`
	EIDIssuer           credential.PublicKeyHolder `json:"eidIssuer"`
	Bank                credential.PublicKeyHolder `json:"bank"`
	PersonCredential    *credential.Credential     `json:"personCredential"`
	HouseLoanCredential *credential.Credential     `json:"houseLoanCredential"`
	ApprovedField       string                     `json:"approvedField,omitempty"`

	parsed credential.RelationRequest
}

func (r *BidRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInputMissing, "request body is required")
	}
	if r.BidSize == nil {
		return dErrors.New(dErrors.CodeInputMissing, "bidSize is required")
	}
	if r.PersonCredential == nil || r.PersonCredential.Proof.JWT == "" {
		return dErrors.New(dErrors.CodeInputMissing, "personCredential.proof.jwt is required")
	}
	if r.HouseLoanCredential == nil || r.HouseLoanCredential.Proof.JWT == "" {
		return dErrors.New(dErrors.CodeInputMissing, "houseLoanCredential.proof.jwt is required")
	}
	if r.EIDIssuer.PublicKey == "" || r.Bank.PublicKey == "" {
		return dErrors.New(dErrors.CodeInputMissing, "eidIssuer and bank public keys are required")
	}

	eid, err := r.EIDIssuer.Key()
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "eidIssuer: "+err.Error())
	}
	bank, err := r.Bank.Key()
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "bank: "+err.Error())
	}

	r.parsed = credential.RelationRequest{
		RequestedAmount: *r.BidSize,
		SubjectToken:    r.PersonCredential.Proof.JWT,
		SubjectKey:      eid,
		ApprovalToken:   r.HouseLoanCredential.Proof.JWT,
		ApprovalKey:     bank,
		ApprovedField:   r.ApprovedField,
	}
	return nil
}

// ReceiptRequest is the body of POST /receipts/verify. Receipt is base64 of
// the CBOR receipt.
type ReceiptRequest struct {
	Variant string `json:"variant"`
	Receipt []byte `json:"receipt"`

	variant identity.Variant
	receipt *zkvm.Receipt
}

func (r *ReceiptRequest) Validate() error {
	if r == nil || r.Variant == "" {
		return dErrors.New(dErrors.CodeInputMissing, "variant is required")
	}
	if len(r.Receipt) == 0 {
		return dErrors.New(dErrors.CodeInputMissing, "receipt is required")
	}
	v, err := identity.ParseVariant(r.Variant)
	if err != nil {
		return err
	}
	rec, err := zkvm.UnmarshalReceipt(r.Receipt)
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, err.Error())
	}
	r.variant, r.receipt = v, rec
	return nil
}

// PredicateResponse carries a verified predicate commitment.
type PredicateResponse struct {
	Issuer     string               `json:"issuer"`
	Subject    string               `json:"subject"`
	IssuerKey  credential.PublicKey `json:"issuerKey"`
	ResultList []string             `json:"resultList"`
	ImageID    zkvm.ImageID         `json:"imageId"`
	Receipt    []byte               `json:"receipt,omitempty"`
}

// BidResponse carries a verified relation commitment.
type BidResponse struct {
	IsValid       bool                 `json:"isValid"`
	SubjectID     string               `json:"subjectId"`
	Amount        uint32               `json:"amount"`
	ApprovedField string               `json:"approvedField"`
	EIDIssuerKey  credential.PublicKey `json:"eidIssuerKey"`
	BankKey       credential.PublicKey `json:"bankKey"`
	ImageID       zkvm.ImageID         `json:"imageId"`
	Receipt       []byte               `json:"receipt,omitempty"`
}

// ReceiptResponse is the answer to a third-party verification.
type ReceiptResponse struct {
	Variant   identity.Variant   `json:"variant"`
	Predicate *PredicateResponse `json:"predicate,omitempty"`
	Bid       *BidResponse       `json:"bid,omitempty"`
}

func predicateResponse(c *journal.PredicateCommitment, id zkvm.ImageID, receipt []byte) *PredicateResponse {
	results := c.Disclosures
	if results == nil {
		results = []string{}
	}
	return &PredicateResponse{
		Issuer:     c.Issuer,
		Subject:    c.Subject,
		IssuerKey:  c.IssuerKey,
		ResultList: results,
		ImageID:    id,
		Receipt:    receipt,
	}
}

func bidResponse(c *journal.RelationCommitment, id zkvm.ImageID, receipt []byte) *BidResponse {
	return &BidResponse{
		IsValid:       c.IsValid,
		SubjectID:     c.SubjectID,
		Amount:        c.Amount,
		ApprovedField: c.ApprovedField,
		EIDIssuerKey:  c.SubjectKey,
		BankKey:       c.ApprovalKey,
		ImageID:       id,
		Receipt:       receipt,
	}
}
