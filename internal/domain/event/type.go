package event

// Type identifies the type of domain event
type Type string

const (
	TypeRecordSubmitted Type = "record.submitted"
	TypeRecordEscalated Type = "record.escalated"
	TypeRecordApproved  Type = "record.approved"
	TypeRecordRejected  Type = "record.rejected"
	TypeRecordPaid      Type = "record.paid"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeRecordSubmitted,
		TypeRecordEscalated,
		TypeRecordApproved,
		TypeRecordRejected,
		TypeRecordPaid:
		return true
	default:
		return false
	}
}
