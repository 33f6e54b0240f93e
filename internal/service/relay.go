package service

import (
	"context"
	"crypto/rsa"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"voipbits/internal/credentials"
	"voipbits/internal/errors"
	"voipbits/internal/metrics"
	"voipbits/internal/models"
	"voipbits/internal/privacy"
	"voipbits/internal/registry"
	"voipbits/pkg/voipms"
)

// ProviderClientFactory builds a provider client bound to one decoded
// credential. The relay constructs a fresh client per request since the
// credential exists only for that long.
type ProviderClientFactory func(cred models.LineCredential) voipms.Client

// RelayService implements the operations the HTTP layer exposes:
// sending, fetching, device registration and account provisioning.
type RelayService struct {
	privateKey *rsa.PrivateKey
	newClient  ProviderClientFactory
	registry   registry.Registry
	serverURL  string
	logger     *logrus.Logger
	now        func() time.Time
}

func NewRelayService(privateKey *rsa.PrivateKey, factory ProviderClientFactory, reg registry.Registry, serverURL string, logger *logrus.Logger) *RelayService {
	return &RelayService{
		privateKey: privateKey,
		newClient:  factory,
		registry:   reg,
		serverURL:  strings.TrimSuffix(serverURL, "/"),
		logger:     logger,
		now:        time.Now,
	}
}

func (s *RelayService) decode(envelope string) (models.LineCredential, error) {
	if strings.TrimSpace(envelope) == "" {
		return models.LineCredential{}, errors.NewMissingAccountInfoError()
	}
	return credentials.Decode(s.privateKey, envelope)
}

// Send relays one outbound message. The logical message id exposed to
// the caller is the id of the first chunk.
func (s *RelayService) Send(ctx context.Context, envelope, to, body string) (string, error) {
	cred, err := s.decode(envelope)
	if err != nil {
		return "", err
	}

	client := s.newClient(cred)
	ids, err := client.SendSMS(ctx, to, body)
	if err != nil {
		return "", err
	}

	metrics.IncrementCounter("sms_sent_total", nil, "Outbound messages sent")
	metrics.AddToCounter("sms_chunks_sent_total", float64(len(ids)), nil, "Outbound message chunks sent")

	s.logger.WithFields(logrus.Fields{
		LogFieldDID: privacy.MaskPhoneNumber(cred.DID),
		"to":        privacy.MaskPhoneNumber(to),
		"chunks":    len(ids),
	}).Info("Relayed outbound SMS")

	return ids[0], nil
}

// Fetch returns messages for the softphone. A caller-supplied last
// known id selects the incremental mode; without one the full default
// window is fetched.
func (s *RelayService) Fetch(ctx context.Context, envelope string, lastID *string) (models.FetchResponse, error) {
	cred, err := s.decode(envelope)
	if err != nil {
		return models.FetchResponse{}, err
	}

	client := s.newClient(cred)

	var records []models.SMSRecord
	if lastID != nil {
		records, err = client.FetchAfterID(ctx, *lastID)
	} else {
		records, err = client.FetchFromDate(ctx, nil)
	}
	if err != nil {
		return models.FetchResponse{}, err
	}

	metrics.IncrementCounter("sms_fetches_total", nil, "Fetch operations served")

	s.logger.WithFields(logrus.Fields{
		LogFieldDID:   privacy.MaskPhoneNumber(cred.DID),
		"incremental": lastID != nil,
		"records":     len(records),
	}).Info("Fetched SMS records")

	return models.NewFetchResponse(s.now(), records), nil
}

// Report registers a device for push delivery. The softphone sometimes
// reports an empty push token; that is ignored as a defined no-op
// rather than rejected.
func (s *RelayService) Report(ctx context.Context, envelope string, reg models.PushRegistration) error {
	if strings.TrimSpace(reg.PushToken) == "" {
		s.logger.Debug("Ignoring report with empty push token")
		return nil
	}

	cred, err := s.decode(envelope)
	if err != nil {
		return err
	}

	if err := s.registry.Add(ctx, cred.DID, reg); err != nil {
		return err
	}

	metrics.IncrementCounter("push_registrations_total", nil, "Device registrations accepted")

	s.logger.WithFields(logrus.Fields{
		LogFieldDID: privacy.MaskPhoneNumber(cred.DID),
		"token":     privacy.MaskPushToken(reg.PushToken),
		"app_id":    reg.AppID,
	}).Info("Registered push token")

	return nil
}

// Provision enables the provider's inbound callback for the line and
// renders the softphone account descriptor.
func (s *RelayService) Provision(ctx context.Context, envelope string) (string, error) {
	cred, err := s.decode(envelope)
	if err != nil {
		return "", err
	}

	client := s.newClient(cred)
	if err := client.SetCallback(ctx, s.NotifyURL()); err != nil {
		return "", err
	}

	s.logger.WithField(LogFieldDID, privacy.MaskPhoneNumber(cred.DID)).
		Info("Provisioned account")

	return renderAccountXML(envelope, s.ReportURL(), s.FetchURL(), s.SendURL(), s.NotifyURL()), nil
}
