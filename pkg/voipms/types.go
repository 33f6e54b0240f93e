package voipms

import (
	"encoding/json"
	"fmt"
	"time"

	"voipbits/internal/errors"
	"voipbits/internal/models"
)

const (
	providerTimeLayout = "2006-01-02 15:04:05"
	providerDateLayout = "2006-01-02"
)

// providerTime parses the provider's datetime strings, which carry no
// zone designator and are interpreted as UTC.
type providerTime struct {
	time.Time
}

func (t *providerTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("provider date is not a string: %w", err)
	}

	parsed, err := time.Parse(providerTimeLayout, s)
	if err != nil {
		return fmt.Errorf("failed to parse provider date %q: %w", s, err)
	}

	t.Time = parsed.UTC()
	return nil
}

type sendSMSResponse struct {
	Status string `json:"status"`
	SMS    int64  `json:"sms"`
}

// getSMSResponse keeps SMS as a pointer: the provider omits the field
// entirely for "nothing to report", which is distinct from an empty list.
type getSMSResponse struct {
	Status string         `json:"status"`
	SMS    *[]providerSMS `json:"sms"`
}

type providerSMS struct {
	ID      string       `json:"id"`
	Date    providerTime `json:"date"`
	Type    string       `json:"type"`
	DID     string       `json:"did"`
	Contact string       `json:"contact"`
	Message string       `json:"message"`
}

// normalize converts a raw provider record into the relay's SMSRecord.
// Type code "0" is a message sent from the DID, "1" one received by it.
// Anything else is a data-shape failure, never dropped silently.
func (s providerSMS) normalize() (models.SMSRecord, error) {
	record := models.SMSRecord{
		ID:           s.ID,
		Timestamp:    s.Date.Time,
		Counterparty: s.Contact,
		Text:         s.Message,
	}

	switch s.Type {
	case "0":
		record.Direction = models.DirectionSent
	case "1":
		record.Direction = models.DirectionReceived
	default:
		return models.SMSRecord{}, errors.New(errors.ErrCodeProviderAPI,
			fmt.Sprintf("unrecognized SMS type code %q for id %s", s.Type, s.ID))
	}

	return record, nil
}
