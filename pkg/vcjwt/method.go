package vcjwt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	"github.com/consensys/gnark-crypto/hash"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yourorg/zkvc/circuits"
	"github.com/yourorg/zkvc/internal/keccak"
	"github.com/yourorg/zkvc/pkg/credential"
)

// Alg is the JOSE algorithm name of EdDSA over the BN254 twisted Edwards
// curve with MiMC as the challenge hash.
const Alg = "EdBN254"

// SigningMethodEdBN254 signs the credential message derived from a token's
// signing input rather than the raw bytes, so the same signature can be
// checked inside a circuit. The message binds the issuer, the subject, a
// digest of the whole signing input and every numeric subject claim.
var SigningMethodEdBN254 = &signingMethodEdBN254{}

var errTooManyClaims = fmt.Errorf("credential subject has more than %d numeric claims", circuits.MaxClaims)

func init() {
	jwt.RegisterSigningMethod(Alg, func() jwt.SigningMethod {
		return SigningMethodEdBN254
	})
}

type signingMethodEdBN254 struct{}

func (m *signingMethodEdBN254) Alg() string { return Alg }

func (m *signingMethodEdBN254) Verify(signingString string, sig []byte, key any) error {
	pub, ok := key.(*eddsa.PublicKey)
	if !ok {
		return jwt.ErrInvalidKeyType
	}
	digest, err := digestFor(signingString)
	if err != nil {
		return err
	}
	valid, err := pub.Verify(sig, digest, hash.MIMC_BN254.New())
	if err != nil {
		return err
	}
	if !valid {
		return errors.New("eddsa: verification error")
	}
	return nil
}

func (m *signingMethodEdBN254) Sign(signingString string, key any) ([]byte, error) {
	priv, ok := key.(*eddsa.PrivateKey)
	if !ok {
		return nil, jwt.ErrInvalidKeyType
	}
	digest, err := digestFor(signingString)
	if err != nil {
		return nil, err
	}
	return priv.Sign(digest, hash.MIMC_BN254.New())
}

func digestFor(signingString string) ([]byte, error) {
	msg, err := messageFor(signingString)
	if err != nil {
		return nil, err
	}
	return msg.Digest()
}

// messageFor decodes the payload segment of signingString and builds the
// credential message an issuer signs for it.
func messageFor(signingString string) (*circuits.Message, error) {
	_, payload, ok := strings.Cut(signingString, ".")
	if !ok {
		return nil, errors.New("signing input has no payload segment")
	}
	raw, err := jwt.NewParser().DecodeSegment(payload)
	if err != nil {
		return nil, err
	}
	var c Claims
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&c); err != nil {
		return nil, err
	}

	names, values := credential.NumericClaims(c.VC.CredentialSubject)
	if len(names) > circuits.MaxClaims {
		return nil, errTooManyClaims
	}
	msg := &circuits.Message{
		Issuer:  keccak.String(c.Issuer),
		Subject: keccak.String(c.Subject),
		Payload: keccak.ToField([]byte(signingString)),
	}
	for i := range names {
		msg.Names[i] = keccak.String(names[i])
		msg.Values[i] = values[i]
	}
	return msg, nil
}
