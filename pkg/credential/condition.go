package credential

import (
	"fmt"
	"strings"
)

// Condition is the comparison a predicate applies to a hidden field.
type Condition uint8

// The zero value is not a valid condition.
const (
	LT Condition = iota + 1
	GT
	EQ
	NEQ
)

var conditionNames = map[Condition]string{
	LT:  "LT",
	GT:  "GT",
	EQ:  "EQ",
	NEQ: "NEQ",
}

func ParseCondition(s string) (Condition, error) {
	for c, name := range conditionNames {
		if strings.EqualFold(s, name) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown condition %q", s)
}

func (c Condition) Valid() bool {
	_, ok := conditionNames[c]
	return ok
}

func (c Condition) String() string {
	if name, ok := conditionNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Condition(%d)", uint8(c))
}

func (c Condition) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid condition %d", uint8(c))
	}
	return []byte(c.String()), nil
}

func (c *Condition) UnmarshalText(b []byte) error {
	parsed, err := ParseCondition(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Holds reports whether "field <c> value" is true under unsigned semantics.
// An invalid condition never holds.
func (c Condition) Holds(field, value uint32) bool {
	switch c {
	case LT:
		return field < value
	case GT:
		return field > value
	case EQ:
		return field == value
	case NEQ:
		return field != value
	default:
		return false
	}
}
