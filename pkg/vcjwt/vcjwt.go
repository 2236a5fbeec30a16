// Package vcjwt verifies and issues verifiable credentials carried as compact
// JWTs signed with EdDSA over the BN254 twisted Edwards curve.
package vcjwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yourorg/zkvc/circuits"
	"github.com/yourorg/zkvc/pkg/credential"
	dErrors "github.com/yourorg/zkvc/pkg/domain-errors"
)

// Claims is the JWT payload of a credential token.
type Claims struct {
	VC Body `json:"vc"`
	jwt.RegisteredClaims
}

// Body is the "vc" member of the payload.
type Body struct {
	Context           []string       `json:"@context"`
	Types             []string       `json:"type"`
	CredentialSubject map[string]any `json:"credentialSubject"`
}

// Signed is a verified token together with the material a circuit needs to
// check the same signature again.
type Signed struct {
	Claims    *credential.TrustedClaims
	Key       credential.PublicKey
	Message   *circuits.Message
	Signature []byte
}

// Verify checks token against the issuer key and returns its claims.
//
// Only the signature and the algorithm are validated. Time-based claims are
// ignored so that the same inputs always produce the same result.
func Verify(token string, key credential.PublicKey) (*credential.TrustedClaims, error) {
	s, err := VerifySigned(token, key)
	if err != nil {
		return nil, err
	}
	return s.Claims, nil
}

// VerifySigned is Verify that also returns the signed credential message and
// the raw signature.
func VerifySigned(token string, key credential.PublicKey) (*Signed, error) {
	if token == "" {
		return nil, dErrors.New(dErrors.CodeTokenMalformed, "empty token")
	}
	pub, err := key.EdDSA()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid issuer key")
	}

	parser := jwt.NewParser(
		jwt.WithoutClaimsValidation(),
		jwt.WithJSONNumber(),
	)
	claims := new(Claims)
	var msg *circuits.Message
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != Alg {
			return nil, fmt.Errorf("unexpected signing algorithm %q", t.Method.Alg())
		}
		var err error
		msg, err = messageFor(t.Raw[:strings.LastIndex(t.Raw, ".")])
		if err != nil {
			return nil, err
		}
		return pub, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, dErrors.Wrap(err, dErrors.CodeSignatureInvalid, "invalid token signature")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeTokenMalformed, "malformed token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeSignatureInvalid, "invalid token signature")
	}

	if claims.Subject == "" || claims.Issuer == "" {
		return nil, dErrors.New(dErrors.CodeTokenMalformed, "token is missing sub or iss")
	}

	trusted := &credential.TrustedClaims{
		Issuer:            claims.Issuer,
		Subject:           claims.Subject,
		CredentialSubject: claims.VC.CredentialSubject,
		Types:             claims.VC.Types,
		Context:           claims.VC.Context,
	}
	if trusted.CredentialSubject == nil {
		trusted.CredentialSubject = map[string]any{}
	}
	if claims.NotBefore != nil {
		trusted.IssuanceDate = claims.NotBefore.UTC()
	}
	return &Signed{
		Claims:    trusted,
		Key:       key,
		Message:   msg,
		Signature: parsed.Signature,
	}, nil
}

// VerifyCredential verifies the token embedded in a credential envelope.
func VerifyCredential(c credential.Credential, key credential.PublicKey) (*credential.TrustedClaims, error) {
	return Verify(c.Proof.JWT, key)
}

// Params describe a credential to issue.
type Params struct {
	Issuer            string
	Subject           string
	CredentialSubject map[string]any
	Types             []string
	Context           []string
	IssuedAt          time.Time
}

// Issue signs a credential token with the issuer's private key.
func Issue(priv *eddsa.PrivateKey, p Params) (string, error) {
	if priv == nil {
		return "", errors.New("nil issuer key")
	}
	claims := Claims{
		VC: Body{
			Context:           p.Context,
			Types:             p.Types,
			CredentialSubject: p.CredentialSubject,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: p.Subject,
			Issuer:  p.Issuer,
		},
	}
	if !p.IssuedAt.IsZero() {
		claims.NotBefore = jwt.NewNumericDate(p.IssuedAt)
	}
	return jwt.NewWithClaims(SigningMethodEdBN254, claims).SignedString(priv)
}
