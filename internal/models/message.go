package models

import (
	"time"
)

// Direction indicates whether an SMS record was sent from or received by
// the DID the credential authorizes.
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// LineCredential is the decrypted content of a credential envelope.
// It is request-scoped: the relay never persists it, and the password
// must never appear in logs.
type LineCredential struct {
	DID      string
	Username string
	Password string
}

// SMSRecord is a provider message normalized for relay consumers.
// IDs are provider-assigned and ordered lexically, not numerically.
type SMSRecord struct {
	ID           string
	Timestamp    time.Time
	Direction    Direction
	Counterparty string
	Text         string
}

// PushRegistration identifies one mobile device's push delivery
// coordinates. Equality is the exact triple; there is no partial match.
type PushRegistration struct {
	AppID     string `json:"app_id"`
	PushToken string `json:"push_token"`
	Selector  string `json:"selector"`
}

// FetchedSMS is the wire shape the fetch endpoint returns per message.
// Exactly one of Sender/Recipient is set, depending on direction.
type FetchedSMS struct {
	SMSID       string    `json:"sms_id"`
	SendingDate time.Time `json:"sending_date"`
	Sender      string    `json:"sender,omitempty"`
	Recipient   string    `json:"recipient,omitempty"`
	SMSText     string    `json:"sms_text"`
}

// FetchResponse is the body returned to the softphone fetch endpoint,
// partitioned the way the client expects.
type FetchResponse struct {
	Date         string       `json:"date"`
	ReceivedSMSs []FetchedSMS `json:"received_smss"`
	SentSMSs     []FetchedSMS `json:"sent_smss"`
}

// NewFetchResponse partitions normalized records into the sent/received
// halves of the fetch payload.
func NewFetchResponse(now time.Time, records []SMSRecord) FetchResponse {
	resp := FetchResponse{
		Date:         now.UTC().Format(time.RFC3339),
		ReceivedSMSs: []FetchedSMS{},
		SentSMSs:     []FetchedSMS{},
	}

	for _, rec := range records {
		out := FetchedSMS{
			SMSID:       rec.ID,
			SendingDate: rec.Timestamp,
			SMSText:     rec.Text,
		}
		if rec.Direction == DirectionSent {
			out.Recipient = rec.Counterparty
			resp.SentSMSs = append(resp.SentSMSs, out)
		} else {
			out.Sender = rec.Counterparty
			resp.ReceivedSMSs = append(resp.ReceivedSMSs, out)
		}
	}

	return resp
}
