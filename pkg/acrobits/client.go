package acrobits

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"voipbits/internal/constants"
	"voipbits/internal/errors"
	"voipbits/internal/privacy"
)

// DefaultBaseURL is the hosted push notification manager endpoint.
const DefaultBaseURL = "https://pnm.cloudsoftphone.com/pnm2"

// Client delivers one push notification to one device. A failure return
// is the signal the fan-out uses to prune the device's registration.
type Client interface {
	Notify(ctx context.Context, appID, deviceToken, selector, from, message string) error
}

type client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// notifyRequest is the push manager's fixed wire shape. The provider
// webhook does not carry the message id, so none is forwarded.
type notifyRequest struct {
	Verb        string `json:"verb"`
	Selector    string `json:"Selector"`
	Badge       string `json:"Badge"`
	UserName    string `json:"UserName"`
	Message     string `json:"Message"`
	AppID       string `json:"AppId"`
	DeviceToken string `json:"DeviceToken"`
}

func NewClient(baseURL string, httpClient *http.Client, logger *logrus.Logger) Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: constants.DefaultPushTimeoutSec * time.Second}
	}

	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}

	return &client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

func (c *client) Notify(ctx context.Context, appID, deviceToken, selector, from, message string) error {
	payload := notifyRequest{
		Verb:        "NotifyTextMessage",
		Selector:    selector,
		Badge:       "1",
		UserName:    from,
		Message:     message,
		AppID:       appID,
		DeviceToken: deviceToken,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodePushGateway, "failed to marshal notify request")
	}

	endpoint := c.baseURL + "/send"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodePushGateway, "failed to create notify request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return errors.NewTimeoutError("push delivery", err)
		}
		return errors.Wrap(err, errors.ErrCodePushGateway, "failed to send notify request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		c.logger.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"token":  privacy.MaskPushToken(deviceToken),
			"body":   string(body),
		}).Warn("Push gateway rejected notification")
		return errors.New(errors.ErrCodePushGateway,
			fmt.Sprintf("push gateway returned status %d", resp.StatusCode)).
			WithContext("status_code", resp.StatusCode).
			WithContext("body", string(body))
	}

	c.logger.WithFields(logrus.Fields{
		"token":    privacy.MaskPushToken(deviceToken),
		"selector": selector,
		"app_id":   appID,
	}).Debug("Push notification delivered")

	return nil
}
