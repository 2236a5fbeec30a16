package keccak

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSumMatchesKeccak256(t *testing.T) {
	got := Sum([]byte("pred"), []byte("icate"))
	assert.Equal(t, crypto.Keccak256Hash([]byte("predicate")).Bytes(), got[:])
}

func TestStringIsDeterministicAndReduced(t *testing.T) {
	a := String("did:example:issuer")
	b := String("did:example:issuer")
	require.Equal(t, 0, a.Cmp(b))

	assert.Equal(t, -1, a.Cmp(fr.Modulus()))
	assert.NotEqual(t, 0, a.Sign())
}

func TestDistinctStringsDiffer(t *testing.T) {
	seen := map[string]string{}
	for _, s := range []string{"", "a", "b", "over18", "over 18", "did:example:ebfeb1f712ebc6f1c276e12ec21"} {
		k := String(s).String()
		if prev, ok := seen[k]; ok {
			t.Fatalf("%q and %q map to the same element", prev, s)
		}
		seen[k] = s
	}
}

func TestReductionOfLargeDigest(t *testing.T) {
	digest := new(big.Int).SetBytes(crypto.Keccak256([]byte("x")))
	want := new(big.Int).Mod(digest, fr.Modulus())
	assert.Equal(t, 0, want.Cmp(String("x")))
}

func TestStringsKeepsOrder(t *testing.T) {
	in := []string{"first", "second", "third"}
	out := Strings(in)
	require.Len(t, out, len(in))
	for i := range in {
		assert.Equal(t, 0, String(in[i]).Cmp(out[i]))
	}
	assert.Empty(t, Strings(nil))
}
