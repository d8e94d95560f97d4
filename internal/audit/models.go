package audit

import "time"

// Event is emitted from registry operations to capture who changed which
// record. Keep it transport-agnostic so sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	// Actor is the signing identity, Subject the record the action touched.
	Actor     string `json:"actor"`
	Subject   string `json:"subject"`
	TitleDeed string `json:"title_deed,omitempty"`
	Amount    uint64 `json:"amount,omitempty"`
	TxHash    string `json:"tx_hash,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type EventName string

const (
	EventProtocolInitialized EventName = "protocol_initialized"
	EventProtocolPaused      EventName = "protocol_paused"
	EventProtocolResumed     EventName = "protocol_resumed"
	EventAdminConfirmed      EventName = "admin_confirmed"
	EventRegistrarAdded      EventName = "registrar_added"
	EventRegistrarConfirmed  EventName = "registrar_confirmed"
	EventUserRegistered      EventName = "user_registered"
	EventTitleDeedAssigned   EventName = "title_deed_assigned"
	EventTitleDeedSearched   EventName = "title_deed_searched"
	EventTitleListed         EventName = "title_listed"
	EventAgreementDrafted    EventName = "agreement_drafted"
	EventAgreementSigned     EventName = "agreement_signed"
	EventAgreementCancelled  EventName = "agreement_cancelled"
	EventEscrowCreated       EventName = "escrow_created"
	EventPaymentDeposited    EventName = "payment_deposited"
	EventEscrowCompleted     EventName = "escrow_completed"
)
