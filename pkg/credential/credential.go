package credential

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Credential is the W3C-style envelope a holder submits. Only Proof.JWT is
// trusted, and only after signature verification; the other fields are
// informational copies.
type Credential struct {
	CredentialSubject map[string]any `json:"credentialSubject"`
	Issuer            Issuer         `json:"issuer"`
	Types             []string       `json:"type"`
	Context           []string       `json:"@context"`
	IssuanceDate      string         `json:"issuanceDate"`
	Proof             Proof          `json:"proof"`
}

// Proof carries the compact signed token.
type Proof struct {
	Type string `json:"type"`
	JWT  string `json:"jwt"`
}

// Issuer accepts either a bare identifier or an object with an id.
type Issuer struct {
	ID string `json:"id"`
}

func (i *Issuer) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		return json.Unmarshal(b, &i.ID)
	}
	type plain Issuer
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return errors.New("issuer must be a string or an object with an id")
	}
	*i = Issuer(p)
	return nil
}

// PublicKeyHolder is the boundary representation of an issuer key. Both
// "publicKey" and "public_key" are accepted on input.
type PublicKeyHolder struct {
	PublicKey string `json:"publicKey"`
}

func (h *PublicKeyHolder) UnmarshalJSON(b []byte) error {
	var raw struct {
		Camel string `json:"publicKey"`
		Snake string `json:"public_key"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	h.PublicKey = raw.Camel
	if h.PublicKey == "" {
		h.PublicKey = raw.Snake
	}
	return nil
}

// Key parses the held key.
func (h PublicKeyHolder) Key() (PublicKey, error) {
	return ParsePublicKey(h.PublicKey)
}
