package credential

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards"
	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
)

// PublicKeySize is the width of a compressed EdDSA key on the BN254
// twisted Edwards curve.
const PublicKeySize = 32

// PublicKey is an issuer verifying key: a compressed point on the BN254
// twisted Edwards curve.
type PublicKey [PublicKeySize]byte

// ParsePublicKey decodes a hex key, with or without a 0x prefix, and checks
// that it is a point on the curve.
func ParsePublicKey(s string) (PublicKey, error) {
	var pk PublicKey
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return pk, fmt.Errorf("public key is not hex: %w", err)
	}
	if len(raw) != PublicKeySize {
		return pk, fmt.Errorf("public key must be %d bytes, got %d", PublicKeySize, len(raw))
	}
	copy(pk[:], raw)
	if _, err := pk.EdDSA(); err != nil {
		return PublicKey{}, err
	}
	return pk, nil
}

// EdDSA decompresses k. Only the canonical encoding of a point of the prime
// order subgroup, other than the identity, is accepted.
func (k PublicKey) EdDSA() (*eddsa.PublicKey, error) {
	pub := new(eddsa.PublicKey)
	if _, err := pub.SetBytes(k[:]); err != nil {
		return nil, fmt.Errorf("public key is not a curve point: %w", err)
	}
	if !bytes.Equal(pub.Bytes(), k[:]) {
		return nil, errors.New("public key is not canonically encoded")
	}
	if pub.A.IsZero() {
		return nil, errors.New("public key is the identity point")
	}
	curve := twistededwards.GetEdwardsCurve()
	var q twistededwards.PointAffine
	if !q.ScalarMultiplication(&pub.A, &curve.Order).IsZero() {
		return nil, errors.New("public key is outside the prime order subgroup")
	}
	return pub, nil
}

func (k PublicKey) String() string {
	return hex.EncodeToString(k[:])
}

func (k PublicKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *PublicKey) UnmarshalText(b []byte) error {
	parsed, err := ParsePublicKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// KeyFromEdDSA compresses pub into a PublicKey.
func KeyFromEdDSA(pub *eddsa.PublicKey) PublicKey {
	var pk PublicKey
	copy(pk[:], pub.Bytes())
	return pk
}
