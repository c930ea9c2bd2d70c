package pulso

import (
	"context"
	"fmt"
	"time"

	"github.com/pulsoapp/pulso/db"
)

// notificationBroadcast is the audit row written after a fan-out,
// recording how far the broadcast actually reached.
type notificationBroadcast struct {
	ID                  string
	Type                string
	Title               string
	Body                string
	AuthorID            *string
	AuthorName          *string
	PostID              *string
	SentToSubscriptions int
	FailedSubscriptions int
	SentToUsers         int
	CreatedAt           time.Time
}

func (svc *Service) sqlInsertNotification(ctx context.Context, n Notification) error {
	const query = `
		INSERT INTO user_notifications (id, user_id, type, title, body, author_id, author_name, post_id, reaction_kind, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := svc.DB.ExecContext(ctx, query,
		n.ID, n.UserID, n.Type, n.Title, n.Body, n.AuthorID, n.AuthorName, n.PostID, n.ReactionKind, n.CreatedAt)
	if db.IsPqForeignKeyViolationError(err, "user_id") {
		return ErrUserNotFound
	}

	if err != nil {
		return fmt.Errorf("sql insert notification: %w", err)
	}

	return nil
}

// sqlInsertNewPostNotifications writes one notification per user holding
// a push subscription, except the post's author. The recipient list and
// the inserts run in one transaction so a concurrent unsubscribe cannot
// split them.
func (svc *Service) sqlInsertNewPostNotifications(ctx context.Context, p Post, author User, title, body string) ([]Notification, error) {
	var nn []Notification
	err := svc.DB.RunTx(ctx, func(ctx context.Context) error {
		rows, err := svc.DB.QueryContext(ctx, `
			SELECT DISTINCT user_id FROM user_push_subscriptions WHERE user_id != $1
		`, author.ID)
		if err != nil {
			return fmt.Errorf("sql select new post notification recipients: %w", err)
		}

		recipients, err := db.Collect(rows, func(scan db.ScanFunc) (string, error) {
			var userID string
			err := scan(&userID)
			return userID, err
		})
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		for _, userID := range recipients {
			n := Notification{
				ID:         genID(),
				UserID:     userID,
				Type:       notificationTypeNewPost,
				Title:      title,
				Body:       body,
				AuthorID:   ptr(author.ID),
				AuthorName: ptr(author.DisplayName),
				PostID:     ptr(p.ID),
				CreatedAt:  now,
			}
			if err := svc.sqlInsertNotification(ctx, n); err != nil {
				return err
			}

			nn = append(nn, n)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return nn, nil
}

func (svc *Service) sqlSelectNotifications(ctx context.Context, userID string) ([]Notification, error) {
	const query = `
		SELECT id, user_id, type, title, body, author_id, author_name, post_id, reaction_kind, read, created_at
		FROM user_notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := svc.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("sql select notifications: %w", err)
	}

	return db.Collect(rows, func(scan db.ScanFunc) (Notification, error) {
		var n Notification
		err := scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body,
			&n.AuthorID, &n.AuthorName, &n.PostID, &n.ReactionKind, &n.Read, &n.CreatedAt)
		return n, err
	})
}

func (svc *Service) sqlSelectHasUnreadNotifications(ctx context.Context, userID string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM user_notifications WHERE user_id = $1 AND NOT read
		)
	`
	var unread bool
	err := svc.DB.QueryRowContext(ctx, query, userID).Scan(&unread)
	if err != nil {
		return false, fmt.Errorf("sql select unread notifications existence: %w", err)
	}

	return unread, nil
}

func (svc *Service) sqlUpdateNotificationRead(ctx context.Context, notificationID, userID string) error {
	const query = `
		UPDATE user_notifications SET read = true
		WHERE id = $1 AND user_id = $2
	`
	_, err := svc.DB.ExecContext(ctx, query, notificationID, userID)
	if err != nil {
		return fmt.Errorf("sql update notification read: %w", err)
	}

	return nil
}

func (svc *Service) sqlUpdateNotificationsRead(ctx context.Context, userID string) error {
	const query = `
		UPDATE user_notifications SET read = true
		WHERE user_id = $1 AND NOT read
	`
	_, err := svc.DB.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("sql update notifications read: %w", err)
	}

	return nil
}

func (svc *Service) sqlInsertNotificationBroadcast(ctx context.Context, b notificationBroadcast) error {
	const query = `
		INSERT INTO notification_broadcasts (id, type, title, body, author_id, author_name, post_id, sent_to_subscriptions, failed_subscriptions, sent_to_users, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := svc.DB.ExecContext(ctx, query,
		b.ID, b.Type, b.Title, b.Body, b.AuthorID, b.AuthorName, b.PostID,
		b.SentToSubscriptions, b.FailedSubscriptions, b.SentToUsers, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("sql insert notification broadcast: %w", err)
	}

	return nil
}
