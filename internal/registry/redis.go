package registry

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"voipbits/internal/errors"
	"voipbits/internal/models"
	"voipbits/internal/privacy"
)

const redisKeyPrefix = "push-tokens:"

type redisRegistry struct {
	client *redis.Client
	logger *logrus.Logger
}

// NewRedis connects to the configured Redis instance. Registrations
// live in one string set per DID, so Add and Remove map directly onto
// the store's atomic set union and difference.
func NewRedis(cfg models.RedisConfig, logger *logrus.Logger) (Registry, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.NewStorageError("connect", err)
	}

	return &redisRegistry{client: client, logger: logger}, nil
}

func redisKey(did string) string {
	return redisKeyPrefix + did
}

func (r *redisRegistry) Add(ctx context.Context, did string, reg models.PushRegistration) error {
	if err := validateRegistration(reg); err != nil {
		return err
	}

	if err := r.client.SAdd(ctx, redisKey(did), encodeRegistration(reg)).Err(); err != nil {
		return errors.NewStorageError("add", err)
	}

	r.logger.WithFields(logrus.Fields{
		"did":   privacy.MaskPhoneNumber(did),
		"token": privacy.MaskPushToken(reg.PushToken),
	}).Debug("Stored push registration")

	return nil
}

func (r *redisRegistry) List(ctx context.Context, did string) ([]models.PushRegistration, error) {
	records, err := r.client.SMembers(ctx, redisKey(did)).Result()
	if err != nil {
		return nil, errors.NewStorageError("list", err)
	}

	if len(records) == 0 {
		return nil, errors.NewNoPushTokenError(privacy.MaskPhoneNumber(did))
	}

	return decodeRegistrations(records)
}

func (r *redisRegistry) Remove(ctx context.Context, did string, regs []models.PushRegistration) error {
	// An empty removal set must not reach the store.
	if len(regs) == 0 {
		return nil
	}

	members := make([]interface{}, 0, len(regs))
	for _, reg := range regs {
		members = append(members, encodeRegistration(reg))
	}

	if err := r.client.SRem(ctx, redisKey(did), members...).Err(); err != nil {
		return errors.NewStorageError("remove", err)
	}

	r.logger.WithFields(logrus.Fields{
		"did":     privacy.MaskPhoneNumber(did),
		"removed": len(regs),
	}).Debug("Removed push registrations")

	return nil
}

func (r *redisRegistry) Close() error {
	return r.client.Close()
}
