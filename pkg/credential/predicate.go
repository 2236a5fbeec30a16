package credential

// Predicate is a single-field numeric comparison with the string disclosed
// to the verifier when it holds.
type Predicate struct {
	Field      string    `json:"field"`
	Condition  Condition `json:"condition"`
	Value      uint32    `json:"value"`
	Disclosure string    `json:"returnValue"`
}

// DefaultApprovedField names the subject field holding the approved amount in
// the second credential of a relation request.
const DefaultApprovedField = "approvedAmount"

// RelationRequest asks for proof that RequestedAmount <= the approved amount
// stored in ApprovalToken's credential subject.
type RelationRequest struct {
	RequestedAmount uint32
	SubjectToken    string
	SubjectKey      PublicKey
	ApprovalToken   string
	ApprovalKey     PublicKey
	ApprovedField   string
}
