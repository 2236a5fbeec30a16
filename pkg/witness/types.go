package witness

import (
	backendwitness "github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/frontend"
)

// Bundle holds both witness views of one assignment.
type Bundle struct {
	Full   backendwitness.Witness
	Public backendwitness.Witness

	Assignment frontend.Circuit
}

// PredicateSlots is the hidden material of one proven predicate. The value
// compared is the signed claim named Field.
type PredicateSlots struct {
	Field     string
	Threshold uint32
	Condition uint8
}
