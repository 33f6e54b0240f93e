package service

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"voipbits/internal/errors"
	"voipbits/internal/models"
	"voipbits/internal/privacy"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type mockRegistry struct {
	mu          sync.Mutex
	regs        map[string][]models.PushRegistration
	listErr     error
	removeErr   error
	addCalls    int
	removeCalls [][]models.PushRegistration
}

func newMockRegistry() *mockRegistry {
	return &mockRegistry{regs: make(map[string][]models.PushRegistration)}
}

func (m *mockRegistry) Add(ctx context.Context, did string, reg models.PushRegistration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addCalls++
	for _, existing := range m.regs[did] {
		if existing == reg {
			return nil
		}
	}
	m.regs[did] = append(m.regs[did], reg)
	return nil
}

func (m *mockRegistry) List(ctx context.Context, did string) ([]models.PushRegistration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	regs := m.regs[did]
	if len(regs) == 0 {
		return nil, errors.NewNoPushTokenError(privacy.MaskPhoneNumber(did))
	}
	out := make([]models.PushRegistration, len(regs))
	copy(out, regs)
	return out, nil
}

func (m *mockRegistry) Remove(ctx context.Context, did string, regs []models.PushRegistration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeCalls = append(m.removeCalls, regs)
	if m.removeErr != nil {
		return m.removeErr
	}
	if len(regs) == 0 {
		return nil
	}
	var kept []models.PushRegistration
	for _, existing := range m.regs[did] {
		doomed := false
		for _, reg := range regs {
			if existing == reg {
				doomed = true
				break
			}
		}
		if !doomed {
			kept = append(kept, existing)
		}
	}
	m.regs[did] = kept
	return nil
}

func (m *mockRegistry) Close() error { return nil }

type mockPushSender struct {
	mu       sync.Mutex
	failFor  map[string]error
	attempts []string
}

func newMockPushSender() *mockPushSender {
	return &mockPushSender{failFor: make(map[string]error)}
}

func (m *mockPushSender) Notify(ctx context.Context, appID, deviceToken, selector, from, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, deviceToken)
	if err, ok := m.failFor[deviceToken]; ok {
		return err
	}
	return nil
}

type mockProviderClient struct {
	cred models.LineCredential

	sendFunc          func(ctx context.Context, destination, message string) ([]string, error)
	fetchAfterFunc    func(ctx context.Context, lastID string) ([]models.SMSRecord, error)
	fetchFromDateFunc func(ctx context.Context, from *time.Time) ([]models.SMSRecord, error)
	setCallbackFunc   func(ctx context.Context, notifyURL string) error

	setCallbackURLs []string
}

func (m *mockProviderClient) SendSMS(ctx context.Context, destination, message string) ([]string, error) {
	if m.sendFunc != nil {
		return m.sendFunc(ctx, destination, message)
	}
	return []string{"1"}, nil
}

func (m *mockProviderClient) FetchAfterID(ctx context.Context, lastID string) ([]models.SMSRecord, error) {
	if m.fetchAfterFunc != nil {
		return m.fetchAfterFunc(ctx, lastID)
	}
	return nil, nil
}

func (m *mockProviderClient) FetchFromDate(ctx context.Context, from *time.Time) ([]models.SMSRecord, error) {
	if m.fetchFromDateFunc != nil {
		return m.fetchFromDateFunc(ctx, from)
	}
	return nil, nil
}

func (m *mockProviderClient) SetCallback(ctx context.Context, notifyURL string) error {
	m.setCallbackURLs = append(m.setCallbackURLs, notifyURL)
	if m.setCallbackFunc != nil {
		return m.setCallbackFunc(ctx, notifyURL)
	}
	return nil
}
