// Package keccak maps strings and byte strings into the BN254 scalar field.
//
// Circuits cannot carry variable-length strings, so every string that is
// bound by a seal enters the circuit as the keccak256 digest of its bytes,
// reduced modulo the scalar field order.
package keccak

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/ethereum/go-ethereum/crypto"
)

// Sum returns keccak256 over the concatenation of parts.
func Sum(parts ...[]byte) [32]byte {
	var out [32]byte
	copy(out[:], crypto.Keccak256(parts...))
	return out
}

// ToField hashes b and reduces the digest into the scalar field.
func ToField(b []byte) *big.Int {
	var e fr.Element
	e.SetBytes(crypto.Keccak256(b))
	return e.BigInt(new(big.Int))
}

// String is ToField over the UTF-8 bytes of s.
func String(s string) *big.Int {
	return ToField([]byte(s))
}

// Strings maps each element of ss with String, preserving order.
func Strings(ss []string) []*big.Int {
	out := make([]*big.Int, len(ss))
	for i, s := range ss {
		out[i] = String(s)
	}
	return out
}
