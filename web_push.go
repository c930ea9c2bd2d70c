package pulso

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/nicolasparada/go-errs"
	"golang.org/x/sync/errgroup"

	"github.com/pulsoapp/pulso/db"
)

const (
	webPushSendTimeout    = time.Second * 30
	webPushContact        = "contact@pulso.app"
	webPushMaxConcurrency = 16
)

// PushSender delivers one push message to one subscription.
type PushSender interface {
	Send(ctx context.Context, sub webpush.Subscription, message []byte, topic string) error
}

// WebPush sends messages over the web push protocol signing them
// with the configured VAPID key pair.
type WebPush struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
}

func (wp *WebPush) Send(ctx context.Context, sub webpush.Subscription, message []byte, topic string) error {
	resp, err := webpush.SendNotificationWithContext(ctx, message, &sub, &webpush.Options{
		Subscriber:      webPushContact,
		Topic:           topic,
		VAPIDPrivateKey: wp.VAPIDPrivateKey,
		VAPIDPublicKey:  wp.VAPIDPublicKey,
		TTL:             int(webPushSendTimeout.Seconds()),
	})
	if err != nil {
		return fmt.Errorf("could not send web push: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		if b, err := io.ReadAll(resp.Body); err == nil {
			return fmt.Errorf("web push send failed with status code %d: %s", resp.StatusCode, string(b))
		}

		return fmt.Errorf("web push send failed with status code %d", resp.StatusCode)
	}

	return nil
}

// AddPushSubscription registers a browser push subscription for the
// authenticated user. Re-registering the same endpoint is a no-op.
func (svc *Service) AddPushSubscription(ctx context.Context, sub webpush.Subscription) error {
	usr, ok := UserFromContext(ctx)
	if !ok {
		return errs.Unauthenticated
	}

	if sub.Endpoint == "" {
		return errs.InvalidArgumentError("invalid push subscription")
	}

	const query = `
		INSERT INTO user_push_subscriptions (user_id, endpoint, sub)
		VALUES ($1, $2, $3)
	`
	_, err := svc.DB.ExecContext(ctx, query, usr.ID, sub.Endpoint, db.JSONValue{Dst: sub})
	if db.IsPqUniqueViolationError(err) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("sql insert push subscription: %w", err)
	}

	return nil
}

func (svc *Service) pushSubscriptions(ctx context.Context, userID string) ([]webpush.Subscription, error) {
	const query = `
		SELECT sub FROM user_push_subscriptions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := svc.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("sql select push subscriptions: %w", err)
	}

	return db.Collect(rows, scanPushSubscription)
}

func (svc *Service) pushSubscriptionsExcluding(ctx context.Context, userID string) ([]webpush.Subscription, error) {
	const query = `
		SELECT sub FROM user_push_subscriptions
		WHERE user_id != $1
		ORDER BY created_at DESC
	`
	rows, err := svc.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("sql select push subscriptions: %w", err)
	}

	return db.Collect(rows, scanPushSubscription)
}

func scanPushSubscription(scan db.ScanFunc) (webpush.Subscription, error) {
	var sub webpush.Subscription
	err := scan(&db.JSONValue{Dst: &sub})
	return sub, err
}

// sendPushes delivers the message to every subscription concurrently and
// reports how many sends succeeded and failed. Failures are logged and
// counted, never returned: push delivery is best effort.
func (svc *Service) sendPushes(ctx context.Context, subs []webpush.Subscription, message []byte, topic string) (sent, failed int) {
	if len(subs) == 0 || svc.Push == nil {
		return 0, 0
	}

	var failures atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(webPushMaxConcurrency)
	for _, sub := range subs {
		sub := sub
		g.Go(func() error {
			if err := svc.Push.Send(ctx, sub, message, topic); err != nil {
				failures.Add(1)
				metricPushFailures.Inc()
				_ = svc.Logger.Log("error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	failed = int(failures.Load())
	return len(subs) - failed, failed
}
