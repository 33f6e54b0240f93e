package voipms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"voipbits/internal/constants"
	"voipbits/internal/errors"
	"voipbits/internal/models"
	"voipbits/internal/privacy"
)

// Client talks to the telephony provider on behalf of one resolved line
// credential. Every operation issues authenticated synchronous requests
// and never retries; retry policy belongs to the caller.
type Client interface {
	SendSMS(ctx context.Context, destination, message string) ([]string, error)
	FetchAfterID(ctx context.Context, lastID string) ([]models.SMSRecord, error)
	FetchFromDate(ctx context.Context, from *time.Time) ([]models.SMSRecord, error)
	SetCallback(ctx context.Context, notifyURL string) error
}

type client struct {
	baseURL    string
	cred       models.LineCredential
	httpClient *http.Client
	logger     *logrus.Logger
	now        func() time.Time
}

// NewClient builds a provider client bound to cred. The credential is
// held only for the lifetime of the client, which callers construct per
// request.
func NewClient(baseURL string, cred models.LineCredential, httpClient *http.Client, logger *logrus.Logger) Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: constants.DefaultProviderTimeoutSec * time.Second}
	}

	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}

	return &client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		cred:       cred,
		httpClient: httpClient,
		logger:     logger,
		now:        time.Now,
	}
}

// request issues one authenticated GET against the provider REST
// endpoint and decodes the JSON payload into out. HTTP failures and
// undecodable payloads surface as provider errors carrying the status
// and raw body. The full query string is never logged: it carries the
// account password.
func (c *client) request(ctx context.Context, params map[string]string, out interface{}) error {
	q := url.Values{}
	q.Set("api_username", c.cred.Username)
	q.Set("api_password", c.cred.Password)
	q.Set("did", c.cred.DID)
	for k, v := range params {
		q.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return errors.NewProviderError(c.baseURL, 0, "", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return errors.NewTimeoutError("provider request", err)
		}
		return errors.NewProviderError(c.baseURL, 0, "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewProviderError(c.baseURL, resp.StatusCode, "", err)
	}

	entry := c.logger.WithFields(logrus.Fields{
		"did":    privacy.MaskPhoneNumber(c.cred.DID),
		"method": params["method"],
		"status": resp.StatusCode,
	})

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		entry.WithField("body", string(body)).Error("Provider request failed")
		return errors.NewProviderError(c.baseURL, resp.StatusCode, string(body),
			fmt.Errorf("provider returned status %d", resp.StatusCode))
	}

	entry.Debug("Provider request completed")

	if err := json.Unmarshal(body, out); err != nil {
		return errors.NewProviderError(c.baseURL, resp.StatusCode, string(body), err)
	}

	return nil
}

// SendSMS validates and normalizes the destination, splits the message
// into provider-sized chunks, and sends them strictly in order. A chunk
// failure aborts immediately: already-sent chunks are not retried or
// rolled back, and the returned ids cover exactly what went out.
func (c *client) SendSMS(ctx context.Context, destination, message string) ([]string, error) {
	dst, err := NormalizeDestination(destination)
	if err != nil {
		return nil, err
	}

	msg := strings.TrimSpace(message)
	if msg == "" {
		return nil, errors.NewEmptyMessageError()
	}

	chunks := chunkMessage(msg)
	ids := make([]string, 0, len(chunks))

	for i, chunk := range chunks {
		var resp sendSMSResponse
		if err := c.request(ctx, map[string]string{
			"method":  "sendSMS",
			"dst":     dst,
			"message": chunk,
		}, &resp); err != nil {
			return ids, fmt.Errorf("sending chunk %d of %d: %w", i+1, len(chunks), err)
		}

		if resp.Status != "success" {
			return ids, errors.New(errors.ErrCodeProviderAPI,
				fmt.Sprintf("provider rejected send: status %q", resp.Status)).
				WithContext("chunk", i+1).
				WithUserMessage("Telephony provider rejected the message")
		}

		ids = append(ids, strconv.FormatInt(resp.SMS, 10))

		c.logger.WithFields(logrus.Fields{
			"did":    privacy.MaskPhoneNumber(c.cred.DID),
			"dst":    privacy.MaskPhoneNumber(dst),
			"chunk":  i + 1,
			"chunks": len(chunks),
			"sms_id": resp.SMS,
		}).Info("Sent SMS chunk")
	}

	return ids, nil
}

// FetchAfterID recovers the timestamp of the marker message, re-fetches
// everything since, and keeps only inbound messages whose id is
// lexically greater than the marker. Lexical comparison is the
// provider's native id ordering and is preserved exactly.
func (c *client) FetchAfterID(ctx context.Context, lastID string) ([]models.SMSRecord, error) {
	var resp getSMSResponse
	if err := c.request(ctx, map[string]string{
		"method":   "getSMS",
		"sms":      lastID,
		"limit":    "1",
		"timezone": timezoneFlag(c.now()),
	}, &resp); err != nil {
		return nil, err
	}

	// Field absent entirely: the marker is no longer visible at the
	// provider and there is nothing to report.
	if resp.SMS == nil {
		return []models.SMSRecord{}, nil
	}

	list := *resp.SMS
	switch {
	case len(list) == 0:
		return nil, errors.NewNoSuchSMSError(lastID)
	case len(list) > 1:
		return nil, errors.New(errors.ErrCodeProviderAPI,
			fmt.Sprintf("provider returned %d messages for id %s", len(list), lastID))
	}

	markerDate := list[0].Date.Time
	c.logger.WithFields(logrus.Fields{
		"did":    privacy.MaskPhoneNumber(c.cred.DID),
		"sms_id": lastID,
		"date":   markerDate,
	}).Debug("Resolved marker SMS date")

	all, err := c.FetchFromDate(ctx, &markerDate)
	if err != nil {
		return nil, err
	}

	records := make([]models.SMSRecord, 0, len(all))
	for _, rec := range all {
		if rec.Direction != models.DirectionSent && rec.ID > lastID {
			records = append(records, rec)
		}
	}

	return records, nil
}

// FetchFromDate queries the provider over [from ?? now-90d, now+1d],
// truncated to calendar days, and normalizes every returned record. An
// absent message list means an empty result, not an error.
func (c *client) FetchFromDate(ctx context.Context, from *time.Time) ([]models.SMSRecord, error) {
	now := c.now()

	start := now.AddDate(0, 0, -constants.DefaultFetchWindowDays)
	if from != nil {
		start = *from
	}
	end := now.AddDate(0, 0, constants.DefaultFetchLookahead)

	c.logger.WithFields(logrus.Fields{
		"did":  privacy.MaskPhoneNumber(c.cred.DID),
		"from": start.UTC().Format(providerDateLayout),
		"to":   end.UTC().Format(providerDateLayout),
	}).Debug("Fetching SMS range")

	var resp getSMSResponse
	if err := c.request(ctx, map[string]string{
		"method":   "getSMS",
		"from":     start.UTC().Format(providerDateLayout),
		"to":       end.UTC().Format(providerDateLayout),
		"limit":    strconv.Itoa(constants.DefaultFetchResultLimit),
		"timezone": timezoneFlag(now),
	}, &resp); err != nil {
		return nil, err
	}

	if resp.SMS == nil {
		return []models.SMSRecord{}, nil
	}

	records := make([]models.SMSRecord, 0, len(*resp.SMS))
	for _, raw := range *resp.SMS {
		rec, err := raw.normalize()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

// SetCallback points the provider's inbound-message webhook at
// notifyURL. The call is idempotent on the provider side; no local
// state is kept.
func (c *client) SetCallback(ctx context.Context, notifyURL string) error {
	var resp json.RawMessage
	return c.request(ctx, map[string]string{
		"method":              "setSMS",
		"enable":              "1",
		"url_callback_enable": "1",
		"url_callback":        notifyURL,
		"url_callback_retry":  "1",
	}, &resp)
}
