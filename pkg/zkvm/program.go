package zkvm

import "github.com/consensys/gnark/frontend"

// Program is one logic variant. Execute runs the guest logic natively and
// returns the journal plus a full circuit assignment; the seal then proves
// that assignment satisfies Circuit. PublicAssignment must rebuild the same
// public variables from the journal alone.
type Program interface {
	Name() string
	Circuit() frontend.Circuit
	Execute(input []byte) (*Execution, error)
	PublicAssignment(journal []byte) (frontend.Circuit, error)
}

// Execution is the output of a successful guest run.
type Execution struct {
	Journal    []byte
	Assignment frontend.Circuit
}
