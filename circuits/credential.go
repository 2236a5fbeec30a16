package circuits

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	tedwards "github.com/consensys/gnark-crypto/ecc/twistededwards"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/native/twistededwards"
	stdmimc "github.com/consensys/gnark/std/hash/mimc"
	"github.com/consensys/gnark/std/signature/eddsa"
)

// MaxClaims is the number of numeric credential subject claims an issuer
// signature covers.
const MaxClaims = 16

// CredentialDomain separates credential messages from anything else the
// issuer key may sign.
const CredentialDomain = 0x7a6b7663

// SignedClaims is the hidden part of one issuer-signed credential: the
// signature, the field digest of the signed token bytes, and the numeric
// subject claims as (name digest, value) pairs. Unused pairs are zero.
type SignedClaims struct {
	Signature eddsa.Signature
	Payload   frontend.Variable
	Names     [MaxClaims]frontend.Variable
	Values    [MaxClaims]frontend.Variable
}

// verifyCredential asserts that key signed the credential message built from
// issuer, subject and s.
func verifyCredential(api frontend.API, key eddsa.PublicKey, issuer, subject frontend.Variable, s *SignedClaims) error {
	curve, err := twistededwards.NewEdCurve(api, tedwards.BN254)
	if err != nil {
		return err
	}
	curve.AssertIsOnCurve(key.A)

	h, err := stdmimc.New(api)
	if err != nil {
		return err
	}
	h.Write(CredentialDomain, issuer, subject, s.Payload)
	for i := 0; i < MaxClaims; i++ {
		h.Write(s.Names[i], s.Values[i])
	}
	msg := h.Sum()

	h.Reset()
	return eddsa.Verify(curve, s.Signature, msg, key, h)
}

// claimValue returns the signed value of the claim named name. When enabled
// is 1 the name must occur exactly once among the signed claims; when it is 0
// nothing is asserted and the result is meaningless.
func claimValue(api frontend.API, s *SignedClaims, name, enabled frontend.Variable) frontend.Variable {
	found := frontend.Variable(0)
	value := frontend.Variable(0)
	for i := 0; i < MaxClaims; i++ {
		match := api.IsZero(api.Sub(s.Names[i], name))
		found = api.Add(found, match)
		value = api.Add(value, api.Mul(match, s.Values[i]))
	}
	// empty slots have a zero name
	api.AssertIsEqual(api.Mul(enabled, api.IsZero(name)), 0)
	api.AssertIsEqual(api.Mul(enabled, api.Sub(found, 1)), 0)
	return value
}

// Message is the native form of the message an issuer signs for one
// credential. Every element must already be reduced into the scalar field.
type Message struct {
	Issuer  *big.Int
	Subject *big.Int
	Payload *big.Int
	Names   [MaxClaims]*big.Int
	Values  [MaxClaims]uint32
}

// Digest returns the MiMC hash of m as a 32-byte big-endian field element.
// This is the byte string the issuer key signs.
func (m *Message) Digest() ([]byte, error) {
	h := mimc.NewMiMC()
	write := func(x *big.Int) error {
		if x == nil {
			x = new(big.Int)
		}
		if x.Sign() < 0 || x.Cmp(fr.Modulus()) >= 0 {
			return fmt.Errorf("message element out of field range")
		}
		_, err := h.Write(x.FillBytes(make([]byte, fr.Bytes)))
		return err
	}

	head := []*big.Int{big.NewInt(CredentialDomain), m.Issuer, m.Subject, m.Payload}
	for _, x := range head {
		if err := write(x); err != nil {
			return nil, err
		}
	}
	for i := 0; i < MaxClaims; i++ {
		if err := write(m.Names[i]); err != nil {
			return nil, err
		}
		if err := write(new(big.Int).SetUint64(uint64(m.Values[i]))); err != nil {
			return nil, err
		}
	}
	return h.Sum(nil), nil
}
