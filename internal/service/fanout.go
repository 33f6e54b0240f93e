package service

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"voipbits/internal/errors"
	"voipbits/internal/metrics"
	"voipbits/internal/models"
	"voipbits/internal/privacy"
	"voipbits/internal/registry"
	"voipbits/internal/tracing"
)

// PushSender delivers one notification to one device. A failure return
// marks the registration for pruning.
type PushSender interface {
	Notify(ctx context.Context, appID, deviceToken, selector, from, message string) error
}

// NotificationFanout delivers an inbound SMS notification to every
// device registered for a DID and prunes registrations the push
// gateway rejects.
type NotificationFanout struct {
	registry    registry.Registry
	push        PushSender
	pushTimeout time.Duration
	logger      *logrus.Logger
}

func NewNotificationFanout(reg registry.Registry, push PushSender, pushTimeout time.Duration, logger *logrus.Logger) *NotificationFanout {
	return &NotificationFanout{
		registry:    reg,
		push:        push,
		pushTimeout: pushTimeout,
		logger:      logger,
	}
}

type pushOutcome struct {
	reg models.PushRegistration
	err error
}

// Deliver pushes the message to every registered device. Attempts run
// concurrently and are isolated from each other; failures are folded
// into a single removal call after all attempts complete, so the store
// sees at most one mutation per fan-out.
//
// Pruning on any failure conflates a permanently dead token with a
// transient gateway outage. That tradeoff is deliberate: a live device
// that gets pruned re-registers the next time it reports in, while a
// dead token would otherwise be notified forever.
func (f *NotificationFanout) Deliver(ctx context.Context, did, from, message string) error {
	start := time.Now()

	ctx, span := tracing.StartSpan(ctx, "notification_fanout")
	defer span.End()

	regs, err := f.registry.List(ctx, did)
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeNoPushToken) {
			f.logger.WithField(LogFieldDID, privacy.MaskPhoneNumber(did)).
				Info("No registered devices, skipping fan-out")
			return nil
		}
		return err
	}

	results := make(chan pushOutcome, len(regs))
	var wg sync.WaitGroup
	for _, reg := range regs {
		wg.Add(1)
		go func(reg models.PushRegistration) {
			defer wg.Done()

			pushCtx, cancel := context.WithTimeout(ctx, f.pushTimeout)
			defer cancel()

			results <- pushOutcome{
				reg: reg,
				err: f.push.Notify(pushCtx, reg.AppID, reg.PushToken, reg.Selector, from, message),
			}
		}(reg)
	}
	wg.Wait()
	close(results)

	var failed []models.PushRegistration
	delivered := 0
	for outcome := range results {
		if outcome.err != nil {
			f.logger.WithError(outcome.err).WithFields(logrus.Fields{
				LogFieldDID: privacy.MaskPhoneNumber(did),
				"token":     privacy.MaskPushToken(outcome.reg.PushToken),
			}).Warn("Push delivery failed, pruning registration")
			failed = append(failed, outcome.reg)
			continue
		}
		delivered++
	}

	metrics.AddToCounter("push_deliveries_total", float64(delivered), nil, "Successful push deliveries")
	metrics.AddToCounter("push_tokens_pruned_total", float64(len(failed)), nil, "Push registrations pruned after delivery failure")
	metrics.RecordTimer("fanout_duration", time.Since(start))

	if err := f.registry.Remove(ctx, did, failed); err != nil {
		return err
	}

	f.logger.WithFields(logrus.Fields{
		LogFieldDID:     privacy.MaskPhoneNumber(did),
		LogFieldFrom:    privacy.MaskPhoneNumber(from),
		LogFieldDevices: len(regs),
		"delivered":     delivered,
		"pruned":        len(failed),
	}).Info("Fan-out complete")

	return nil
}
