package pulso

import (
	"bytes"
	"context"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/kyokomi/emoji/v2"
	"github.com/nicolasparada/go-errs"
)

const (
	ErrInvalidNotificationID = errs.InvalidArgumentError("invalid notification ID")
	ErrNotificationNotFound  = errs.NotFoundError("notification not found")
)

const (
	notificationTypeReaction = "reaction"
	notificationTypeNewPost  = "new_post"
)

// Notification is an in-app notification record. Title and Body are
// pre-rendered at dispatch time so clients display them as-is.
type Notification struct {
	ID           string        `json:"id"`
	UserID       string        `json:"-"`
	Type         string        `json:"type"`
	Title        string        `json:"title"`
	Body         string        `json:"body"`
	AuthorID     *string       `json:"authorID,omitempty"`
	AuthorName   *string       `json:"authorName,omitempty"`
	PostID       *string       `json:"postID,omitempty"`
	ReactionKind *ReactionKind `json:"reactionKind,omitempty"`
	Read         bool          `json:"read"`
	CreatedAt    time.Time     `json:"createdAt"`
}

type pushPayload struct {
	Title  string  `json:"title"`
	Body   string  `json:"body"`
	PostID *string `json:"postID,omitempty"`
}

// Notifications of the authenticated user in descending order.
func (svc *Service) Notifications(ctx context.Context) ([]Notification, error) {
	usr, ok := UserFromContext(ctx)
	if !ok {
		return nil, errs.Unauthenticated
	}

	return svc.sqlSelectNotifications(ctx, usr.ID)
}

// NotificationStream delivers the authenticated user's notifications in
// realtime. The stream ends when ctx is done; the channel stays open
// because decoder goroutines may still be in flight after the
// unsubscribe.
func (svc *Service) NotificationStream(ctx context.Context) (<-chan Notification, error) {
	usr, ok := UserFromContext(ctx)
	if !ok {
		return nil, errs.Unauthenticated
	}

	nn := make(chan Notification)
	done := make(chan struct{})
	unsub, err := svc.PubSub.Sub(notificationTopic(usr.ID), func(data []byte) {
		go func(r io.Reader) {
			var n Notification
			err := gob.NewDecoder(r).Decode(&n)
			if err != nil {
				_ = svc.Logger.Log("error", fmt.Errorf("could not gob decode notification: %w", err))
				return
			}

			select {
			case nn <- n:
			case <-done:
			}
		}(bytes.NewReader(data))
	})
	if err != nil {
		return nil, fmt.Errorf("could not subscribe to notifications: %w", err)
	}

	go func() {
		<-ctx.Done()
		if err := unsub(); err != nil {
			_ = svc.Logger.Log("error", fmt.Errorf("could not unsubscribe from notifications: %w", err))
			// don't return
		}
		close(done)
	}()

	return nn, nil
}

// HasUnreadNotifications checks if the authenticated user has any unread notification.
func (svc *Service) HasUnreadNotifications(ctx context.Context) (bool, error) {
	usr, ok := UserFromContext(ctx)
	if !ok {
		return false, errs.Unauthenticated
	}

	return svc.sqlSelectHasUnreadNotifications(ctx, usr.ID)
}

// MarkNotificationAsRead sets a notification of the authenticated user as read.
func (svc *Service) MarkNotificationAsRead(ctx context.Context, notificationID string) error {
	if !validID(notificationID) {
		return ErrInvalidNotificationID
	}

	usr, ok := UserFromContext(ctx)
	if !ok {
		return errs.Unauthenticated
	}

	return svc.sqlUpdateNotificationRead(ctx, notificationID, usr.ID)
}

// MarkNotificationsAsRead sets all notifications of the authenticated user as read.
func (svc *Service) MarkNotificationsAsRead(ctx context.Context) error {
	usr, ok := UserFromContext(ctx)
	if !ok {
		return errs.Unauthenticated
	}

	return svc.sqlUpdateNotificationsRead(ctx, usr.ID)
}

// notifyReaction tells a post's author about a new or changed reaction.
// Retractions and same-kind changes notify nobody, and neither do users
// reacting to their own posts. The in-app record is written even when
// the author has no push subscriptions.
func (svc *Service) notifyReaction(ctx context.Context, before, after *Reaction) {
	if after == nil {
		return
	}

	if before != nil && before.Kind == after.Kind {
		return
	}

	if after.UserID == after.PostAuthorID {
		return
	}

	reactorName, err := svc.sqlSelectUserDisplayName(ctx, after.UserID)
	if err != nil {
		_ = svc.Logger.Log("error", fmt.Errorf("could not select reactor display name: %w", err))
		return
	}

	var title, body string
	if after.Kind == ReactionLike {
		title = emoji.Sprint(":+1: Te dieron like!")
		body = fmt.Sprintf("A %s le gustó tu publicación", reactorName)
	} else {
		title = emoji.Sprint(":-1: Te dieron dislike")
		body = fmt.Sprintf("A %s no le gustó tu publicación", reactorName)
	}

	n := Notification{
		ID:           genID(),
		UserID:       after.PostAuthorID,
		Type:         notificationTypeReaction,
		Title:        title,
		Body:         body,
		AuthorID:     ptr(after.UserID),
		AuthorName:   ptr(reactorName),
		PostID:       ptr(after.PostID),
		ReactionKind: ptr(after.Kind),
		CreatedAt:    time.Now().UTC(),
	}
	if err := svc.sqlInsertNotification(ctx, n); err != nil {
		_ = svc.Logger.Log("error", fmt.Errorf("could not insert reaction notification: %w", err))
		return
	}

	svc.broadcastNotification(n)

	payload, err := json.Marshal(pushPayload{Title: title, Body: body, PostID: ptr(after.PostID)})
	if err != nil {
		_ = svc.Logger.Log("error", fmt.Errorf("could not json encode reaction push payload: %w", err))
		return
	}

	subs, err := svc.pushSubscriptions(ctx, after.PostAuthorID)
	if err != nil {
		_ = svc.Logger.Log("error", fmt.Errorf("could not select reaction push subscriptions: %w", err))
		return
	}

	svc.sendPushes(ctx, subs, payload, notificationTypeReaction)
}

// NotifyNewPost fans a new post out to every subscribed user except the
// author: a push per subscription, an in-app record per user, and one
// broadcast summary row with the send counts. Per-subscription push
// failures are counted, not returned.
func (svc *Service) NotifyNewPost(ctx context.Context, p Post, author User) error {
	title := emoji.Sprint(":loudspeaker: ¡Nueva publicación!")
	body := fmt.Sprintf("%s ha publicado algo nuevo", author.DisplayName)

	nn, err := svc.sqlInsertNewPostNotifications(ctx, p, author, title, body)
	if err != nil {
		return fmt.Errorf("could not insert new post notifications: %w", err)
	}

	for _, n := range nn {
		svc.broadcastNotification(n)
	}

	payload, err := json.Marshal(pushPayload{Title: title, Body: body, PostID: ptr(p.ID)})
	if err != nil {
		return fmt.Errorf("could not json encode new post push payload: %w", err)
	}

	subs, err := svc.pushSubscriptionsExcluding(ctx, author.ID)
	if err != nil {
		return fmt.Errorf("could not select new post push subscriptions: %w", err)
	}

	sent, failed := svc.sendPushes(ctx, subs, payload, notificationTypeNewPost)

	summary := notificationBroadcast{
		ID:                  genID(),
		Type:                notificationTypeNewPost,
		Title:               title,
		Body:                body,
		AuthorID:            ptr(author.ID),
		AuthorName:          ptr(author.DisplayName),
		PostID:              ptr(p.ID),
		SentToSubscriptions: sent,
		FailedSubscriptions: failed,
		SentToUsers:         len(nn),
		CreatedAt:           time.Now().UTC(),
	}
	if err := svc.sqlInsertNotificationBroadcast(ctx, summary); err != nil {
		return fmt.Errorf("could not insert notification broadcast: %w", err)
	}

	return nil
}
