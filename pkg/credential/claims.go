package credential

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"time"

	dErrors "github.com/yourorg/zkvc/pkg/domain-errors"
)

// TrustedClaims are the claims of a token whose signature has been checked.
// They are trusted only for the duration of a single proving run.
type TrustedClaims struct {
	Issuer            string
	Subject           string
	CredentialSubject map[string]any
	Types             []string
	Context           []string
	IssuanceDate      time.Time
}

// ResolveField returns the named credential subject field as an unsigned
// 32-bit integer. Integral JSON numbers and decimal digit strings (e.g.
// YYYYMMDD dates) in range are accepted; everything else is an error.
func (c *TrustedClaims) ResolveField(name string) (uint32, error) {
	raw, ok := c.CredentialSubject[name]
	if !ok {
		return 0, dErrors.New(dErrors.CodeFieldNotFound, fmt.Sprintf("field %q not found in credential subject", name))
	}
	v, ok := toUint32(raw)
	if !ok {
		return 0, dErrors.New(dErrors.CodeFieldNotNumeric, fmt.Sprintf("field %q is not an unsigned 32-bit number", name))
	}
	return v, nil
}

// NumericClaims returns the subject fields that ResolveField accepts, sorted
// by name, with their values. Issuer signatures cover exactly these pairs.
func NumericClaims(subject map[string]any) ([]string, []uint32) {
	names := make([]string, 0, len(subject))
	for name, raw := range subject {
		if _, ok := toUint32(raw); ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	values := make([]uint32, len(names))
	for i, name := range names {
		values[i], _ = toUint32(subject[name])
	}
	return names, values
}

func toUint32(raw any) (uint32, bool) {
	switch v := raw.(type) {
	case json.Number:
		return parseDigits(v.String())
	case string:
		return parseDigits(v)
	case float64:
		if v < 0 || v > math.MaxUint32 || math.Trunc(v) != v {
			return 0, false
		}
		return uint32(v), true
	case int:
		return intToUint32(int64(v))
	case int64:
		return intToUint32(v)
	case uint32:
		return v, true
	case uint64:
		if v > math.MaxUint32 {
			return 0, false
		}
		return uint32(v), true
	default:
		return 0, false
	}
}

func intToUint32(v int64) (uint32, bool) {
	if v < 0 || v > math.MaxUint32 {
		return 0, false
	}
	return uint32(v), true
}

func parseDigits(s string) (uint32, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}
