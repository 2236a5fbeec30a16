package zkvm

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Receipt is the proof artifact: a journal plus a seal, under an identity.
type Receipt struct {
	_       struct{} `cbor:",toarray"`
	ImageID ImageID
	Journal []byte
	Seal    []byte
}

var (
	receiptEnc cbor.EncMode
	receiptDec cbor.DecMode
)

func init() {
	var err error
	if receiptEnc, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}
	if receiptDec, err = (cbor.DecOptions{IndefLength: cbor.IndefLengthForbidden}).DecMode(); err != nil {
		panic(err)
	}
}

// Marshal encodes r as CBOR.
func (r *Receipt) Marshal() ([]byte, error) {
	return receiptEnc.Marshal(r)
}

// UnmarshalReceipt decodes a CBOR receipt.
func UnmarshalReceipt(b []byte) (*Receipt, error) {
	r := new(Receipt)
	if err := receiptDec.Unmarshal(b, r); err != nil {
		return nil, fmt.Errorf("decode receipt: %w", err)
	}
	return r, nil
}
