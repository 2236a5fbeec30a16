// Package demo holds the two-issuer demo document: an eID credential for a
// person and a house-loan approval from a bank, with the bid the person wants
// to place.
package demo

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"

	"github.com/yourorg/zkvc/pkg/credential"
	"github.com/yourorg/zkvc/pkg/vcjwt"
)

// Document is the demo input file.
type Document struct {
	BidSize             uint32                     `json:"bidSize"`
	EIDIssuer           credential.PublicKeyHolder `json:"eidIssuer"`
	Bank                credential.PublicKeyHolder `json:"bank"`
	Person              credential.PublicKeyHolder `json:"person"`
	PersonCredential    credential.Credential      `json:"personCredential"`
	HouseLoanCredential credential.Credential      `json:"houseLoanCredential"`
}

// Options tune Generate.
type Options struct {
	BidSize        uint32
	ApprovedAmount uint32
	DateOfBirth    string
	IssuedAt       time.Time
	Rand           io.Reader
}

func (o *Options) defaults() {
	if o.BidSize == 0 {
		o.BidSize = 500_000
	}
	if o.ApprovedAmount == 0 {
		o.ApprovedAmount = 750_000
	}
	if o.DateOfBirth == "" {
		o.DateOfBirth = "19880105"
	}
	if o.IssuedAt.IsZero() {
		o.IssuedAt = time.Now().UTC().Truncate(time.Second)
	}
	if o.Rand == nil {
		o.Rand = rand.Reader
	}
}

const (
	eidIssuerDID = "did:example:eid-issuer"
	bankDID      = "did:example:bank"
)

// Generate creates fresh issuer keys and signs both credentials.
func Generate(opts Options) (*Document, error) {
	opts.defaults()

	eid, err := eddsa.GenerateKey(opts.Rand)
	if err != nil {
		return nil, err
	}
	bank, err := eddsa.GenerateKey(opts.Rand)
	if err != nil {
		return nil, err
	}
	holder, err := eddsa.GenerateKey(opts.Rand)
	if err != nil {
		return nil, err
	}
	personKey := credential.KeyFromEdDSA(&holder.PublicKey)
	personDID := "did:key:z" + personKey.String()

	person, err := issue(eid, vcjwt.Params{
		Issuer:  eidIssuerDID,
		Subject: personDID,
		CredentialSubject: map[string]any{
			"id":            personDID,
			"given_name":    "Erika",
			"family_name":   "Mustermann",
			"date_of_birth": opts.DateOfBirth,
			"nationality":   "DE",
		},
		Types:    []string{"VerifiableCredential", "PersonIdentificationData"},
		Context:  []string{"https://www.w3.org/2018/credentials/v1"},
		IssuedAt: opts.IssuedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("person credential: %w", err)
	}
	loan, err := issue(bank, vcjwt.Params{
		Issuer:  bankDID,
		Subject: personDID,
		CredentialSubject: map[string]any{
			"id":                            personDID,
			credential.DefaultApprovedField: opts.ApprovedAmount,
			"currency":                      "EUR",
		},
		Types:    []string{"VerifiableCredential", "HouseLoanApproval"},
		Context:  []string{"https://www.w3.org/2018/credentials/v1"},
		IssuedAt: opts.IssuedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("house loan credential: %w", err)
	}

	return &Document{
		BidSize:             opts.BidSize,
		EIDIssuer:           credential.PublicKeyHolder{PublicKey: credential.KeyFromEdDSA(&eid.PublicKey).String()},
		Bank:                credential.PublicKeyHolder{PublicKey: credential.KeyFromEdDSA(&bank.PublicKey).String()},
		Person:              credential.PublicKeyHolder{PublicKey: personKey.String()},
		PersonCredential:    person,
		HouseLoanCredential: loan,
	}, nil
}

func issue(priv *eddsa.PrivateKey, p vcjwt.Params) (credential.Credential, error) {
	token, err := vcjwt.Issue(priv, p)
	if err != nil {
		return credential.Credential{}, err
	}
	return credential.Credential{
		CredentialSubject: p.CredentialSubject,
		Issuer:            credential.Issuer{ID: p.Issuer},
		Types:             p.Types,
		Context:           p.Context,
		IssuanceDate:      p.IssuedAt.Format(time.RFC3339),
		Proof:             credential.Proof{Type: "JwtProof2020", JWT: token},
	}, nil
}

// RelationRequest turns the document into a bid proof request.
func (d *Document) RelationRequest(approvedField string) (credential.RelationRequest, error) {
	eid, err := d.EIDIssuer.Key()
	if err != nil {
		return credential.RelationRequest{}, fmt.Errorf("eidIssuer: %w", err)
	}
	bank, err := d.Bank.Key()
	if err != nil {
		return credential.RelationRequest{}, fmt.Errorf("bank: %w", err)
	}
	return credential.RelationRequest{
		RequestedAmount: d.BidSize,
		SubjectToken:    d.PersonCredential.Proof.JWT,
		SubjectKey:      eid,
		ApprovalToken:   d.HouseLoanCredential.Proof.JWT,
		ApprovalKey:     bank,
		ApprovedField:   approvedField,
	}, nil
}

// AgePredicates are the predicates the demo proves over the person credential.
func AgePredicates() []credential.Predicate {
	return []credential.Predicate{
		{Field: "date_of_birth", Condition: credential.GT, Value: 19791001, Disclosure: "Subject is older than 40 years old"},
		{Field: "date_of_birth", Condition: credential.GT, Value: 19781001, Disclosure: "Subject is older than 40 years old"},
	}
}

// Read loads a document from path.
func Read(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var d Document
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &d, nil
}

// Write stores d at path as indented JSON.
func (d *Document) Write(path string) error {
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
