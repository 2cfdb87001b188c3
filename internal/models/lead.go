package models

import "time"

type LeadStatus string

const (
	LeadStatusProspect    LeadStatus = "prospect"
	LeadStatusQualified   LeadStatus = "qualified"
	LeadStatusProposal    LeadStatus = "proposal"
	LeadStatusNegotiation LeadStatus = "negotiation"
	LeadStatusClosedWon   LeadStatus = "closed-won"
	LeadStatusClosedLost  LeadStatus = "closed-lost"
)

var validLeadStatuses = map[LeadStatus]struct{}{
	LeadStatusProspect:    {},
	LeadStatusQualified:   {},
	LeadStatusProposal:    {},
	LeadStatusNegotiation: {},
	LeadStatusClosedWon:   {},
	LeadStatusClosedLost:  {},
}

// IsValid reports whether s is one of the known pipeline stages.
func (s LeadStatus) IsValid() bool {
	_, ok := validLeadStatuses[s]
	return ok
}

// IsClosed reports whether the lead has left the pipeline.
func (s LeadStatus) IsClosed() bool {
	return s == LeadStatusClosedWon || s == LeadStatusClosedLost
}

type CallStatus string

const (
	CallStatusNotCalled   CallStatus = "not_called"
	CallStatusAnswered    CallStatus = "answered"
	CallStatusNoResponse  CallStatus = "no_response"
	CallStatusVoicemail   CallStatus = "voicemail"
	CallStatusBusy        CallStatus = "busy"
	CallStatusWrongNumber CallStatus = "wrong_number"
)

var validCallStatuses = map[CallStatus]struct{}{
	CallStatusNotCalled:   {},
	CallStatusAnswered:    {},
	CallStatusNoResponse:  {},
	CallStatusVoicemail:   {},
	CallStatusBusy:        {},
	CallStatusWrongNumber: {},
}

func (s CallStatus) IsValid() bool {
	_, ok := validCallStatuses[s]
	return ok
}

type Lead struct {
	ID          string     `json:"id" db:"id"`
	SalesmanID  string     `json:"salesman_id" db:"salesman_id"`
	Name        string     `json:"name" db:"name"`
	Company     string     `json:"company" db:"company"`
	Email       string     `json:"email" db:"email"`
	Phone       string     `json:"phone" db:"phone"`
	Status      LeadStatus `json:"status" db:"status"`
	CallStatus  CallStatus `json:"call_status" db:"call_status"`
	LastContact *time.Time `json:"last_contact,omitempty" db:"last_contact"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}
