package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"voipbits/internal/errors"
	"voipbits/internal/models"
)

// Registry is the durable mapping from a DID to its set of device push
// registrations. Implementations must make Add idempotent and Remove an
// exact-triple set difference; a Remove with no input must not touch
// the store at all.
type Registry interface {
	Add(ctx context.Context, did string, reg models.PushRegistration) error
	List(ctx context.Context, did string) ([]models.PushRegistration, error)
	Remove(ctx context.Context, did string, regs []models.PushRegistration) error
	Close() error
}

// New selects the backend named by the configuration.
func New(cfg models.RegistryConfig, logger *logrus.Logger) (Registry, error) {
	switch cfg.Backend {
	case "redis":
		return NewRedis(cfg.Redis, logger)
	case "sqlite":
		return NewSQLite(cfg.SQLite, cfg.EncryptionEnabled, logger)
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("unknown registry backend %q", cfg.Backend))
	}
}

// recordDelimiter separates the three registration fields in their
// stored form. Field values must never contain it; Add enforces that at
// admission time instead of trusting callers.
const recordDelimiter = `\`

func encodeRegistration(reg models.PushRegistration) string {
	return reg.AppID + recordDelimiter + reg.PushToken + recordDelimiter + reg.Selector
}

func decodeRegistration(record string) (models.PushRegistration, error) {
	parts := strings.Split(record, recordDelimiter)
	if len(parts) != 3 {
		return models.PushRegistration{}, errors.NewStorageCorruptionError(
			fmt.Sprintf("token record has %d fields, want 3", len(parts)))
	}

	return models.PushRegistration{
		AppID:     parts[0],
		PushToken: parts[1],
		Selector:  parts[2],
	}, nil
}

func validateRegistration(reg models.PushRegistration) error {
	for _, field := range []string{reg.AppID, reg.PushToken, reg.Selector} {
		if strings.Contains(field, recordDelimiter) {
			return errors.New(errors.ErrCodeInvalidInput,
				"registration field contains the reserved delimiter")
		}
	}
	return nil
}

func decodeRegistrations(records []string) ([]models.PushRegistration, error) {
	regs := make([]models.PushRegistration, 0, len(records))
	for _, record := range records {
		reg, err := decodeRegistration(record)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, nil
}
