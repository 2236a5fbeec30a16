// Package testutil provides issuers, signed credentials and a shared proving
// engine for tests.
package testutil

import (
	"bytes"
	"crypto/sha256"
	"sync"
	"testing"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/zkvc/internal/guest"
	"github.com/yourorg/zkvc/internal/identity"
	"github.com/yourorg/zkvc/pkg/credential"
	"github.com/yourorg/zkvc/pkg/vcjwt"
	"github.com/yourorg/zkvc/pkg/zkvm"
)

// Issuer is a test issuer with a key derived from its identifier.
type Issuer struct {
	ID   string
	Priv *eddsa.PrivateKey
	Key  credential.PublicKey
}

func NewIssuer(id string) *Issuer {
	seed := sha256.Sum256([]byte(id))
	priv, err := eddsa.GenerateKey(bytes.NewReader(seed[:]))
	if err != nil {
		panic(err)
	}
	return &Issuer{
		ID:   id,
		Priv: priv,
		Key:  credential.KeyFromEdDSA(&priv.PublicKey),
	}
}

// Signed issues a token like Token and verifies it back.
func (i *Issuer) Signed(t testing.TB, subject string, fields map[string]any) *vcjwt.Signed {
	t.Helper()
	s, err := vcjwt.VerifySigned(i.Token(t, subject, fields), i.Key)
	require.NoError(t, err)
	return s
}

// Token issues a credential token for subject carrying fields.
func (i *Issuer) Token(t testing.TB, subject string, fields map[string]any) string {
	t.Helper()
	tok, err := vcjwt.Issue(i.Priv, vcjwt.Params{
		Issuer:            i.ID,
		Subject:           subject,
		CredentialSubject: fields,
		Types:             []string{"VerifiableCredential"},
		Context:           []string{"https://www.w3.org/2018/credentials/v1"},
		IssuedAt:          time.Unix(1699694047, 0),
	})
	require.NoError(t, err)
	return tok
}

const (
	EIDIssuer = "did:example:eid-issuer"
	Bank      = "did:example:bank"
	Holder    = "did:example:holder"
)

// PersonToken is the eID credential of Holder, born 1988-01-05.
func PersonToken(t testing.TB) (string, *Issuer) {
	iss := NewIssuer(EIDIssuer)
	return iss.Token(t, Holder, map[string]any{
		"name":          "Jane Doe",
		"date_of_birth": "19880105",
		"age":           36,
	}), iss
}

// LoanToken is a bank credential approving approved for Holder.
func LoanToken(t testing.TB, approved uint32) (string, *Issuer) {
	iss := NewIssuer(Bank)
	return iss.Token(t, Holder, map[string]any{
		"approvedAmount": approved,
		"currency":       "EUR",
	}), iss
}

var (
	engineOnce sync.Once
	engine     *zkvm.Engine
	engineErr  error
)

// Engine returns a process-wide engine with every guest program set up.
// The first call pays for the trusted setup.
func Engine(t testing.TB) *zkvm.Engine {
	t.Helper()
	engineOnce.Do(func() {
		e := zkvm.NewEngine(zerolog.Nop())
		for _, p := range guest.Programs() {
			if _, engineErr = e.Setup(p); engineErr != nil {
				return
			}
		}
		engine = e
	})
	require.NoError(t, engineErr)
	return engine
}

// Registry pins the identities of Engine.
func Registry(t testing.TB) *identity.Registry {
	t.Helper()
	r, err := identity.FromLoaded(Engine(t).Identities())
	require.NoError(t, err)
	return r
}
