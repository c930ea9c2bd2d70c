package pulso

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"io"
)

const (
	topicReactionChanges = "reaction_changes"
	topicPosts           = "posts"
	topicPostCreated     = "post_created"
)

func notificationTopic(userID string) string {
	return "notification_" + userID
}

// ReactionChange is the event a reaction write publishes. A nil Before is
// a fresh reaction, a nil After a retraction, both set a kind change.
type ReactionChange struct {
	Before *Reaction
	After  *Reaction
}

func (svc *Service) publishReactionChange(before, after *Reaction) {
	var b bytes.Buffer
	err := gob.NewEncoder(&b).Encode(ReactionChange{Before: before, After: after})
	if err != nil {
		_ = svc.Logger.Log("error", fmt.Errorf("could not gob encode reaction change: %w", err))
		return
	}

	err = svc.PubSub.Pub(topicReactionChanges, b.Bytes())
	if err != nil {
		_ = svc.Logger.Log("error", fmt.Errorf("could not publish reaction change: %w", err))
		return
	}
}

func (svc *Service) broadcastPost(p Post) {
	var b bytes.Buffer
	err := gob.NewEncoder(&b).Encode(p)
	if err != nil {
		_ = svc.Logger.Log("error", fmt.Errorf("could not gob encode post: %w", err))
		return
	}

	err = svc.PubSub.Pub(topicPosts, b.Bytes())
	if err != nil {
		_ = svc.Logger.Log("error", fmt.Errorf("could not publish post: %w", err))
		return
	}
}

func (svc *Service) broadcastNotification(n Notification) {
	var b bytes.Buffer
	err := gob.NewEncoder(&b).Encode(n)
	if err != nil {
		_ = svc.Logger.Log("error", fmt.Errorf("could not gob encode notification: %w", err))
		return
	}

	err = svc.PubSub.Pub(notificationTopic(n.UserID), b.Bytes())
	if err != nil {
		_ = svc.Logger.Log("error", fmt.Errorf("could not publish notification: %w", err))
		return
	}
}

// postCreated runs the side effects of a new post: it broadcasts the post
// to stream subscribers and publishes the creation event that drives
// moderation and the new post notifications.
func (svc *Service) postCreated(p Post, author User) {
	svc.broadcastPost(p)

	var b bytes.Buffer
	err := gob.NewEncoder(&b).Encode(p)
	if err != nil {
		_ = svc.Logger.Log("error", fmt.Errorf("could not gob encode created post: %w", err))
		return
	}

	err = svc.PubSub.Pub(topicPostCreated, b.Bytes())
	if err != nil {
		_ = svc.Logger.Log("error", fmt.Errorf("could not publish created post: %w", err))
		return
	}

	go func() {
		if err := svc.NotifyNewPost(context.Background(), p, author); err != nil {
			_ = svc.Logger.Log("error", fmt.Errorf("could not notify new post: %w", err))
		}
	}()
}

// PostStream subscribes to the authoritative post broadcasts. Clients use
// it to reconcile their optimistic state with the server's. The stream
// ends when ctx is done; the channel stays open because decoder
// goroutines may still be in flight after the unsubscribe.
func (svc *Service) PostStream(ctx context.Context) (<-chan Post, error) {
	pp := make(chan Post)
	done := make(chan struct{})
	unsub, err := svc.PubSub.Sub(topicPosts, func(data []byte) {
		go func(r io.Reader) {
			var p Post
			err := gob.NewDecoder(r).Decode(&p)
			if err != nil {
				_ = svc.Logger.Log("error", fmt.Errorf("could not gob decode post: %w", err))
				return
			}

			select {
			case pp <- p:
			case <-done:
			}
		}(bytes.NewReader(data))
	})
	if err != nil {
		return nil, fmt.Errorf("could not subscribe to posts: %w", err)
	}

	go func() {
		<-ctx.Done()
		if err := unsub(); err != nil {
			_ = svc.Logger.Log("error", fmt.Errorf("could not unsubscribe from posts: %w", err))
			// don't return
		}
		close(done)
	}()

	return pp, nil
}

// RunBackgroundJobs wires the event consumers: counter aggregation for
// reaction changes, reaction notifications, and moderation plus fan-out
// notifications for new posts. It blocks until ctx is done.
func (svc *Service) RunBackgroundJobs(ctx context.Context) error {
	unsubReactions, err := svc.PubSub.Sub(topicReactionChanges, func(data []byte) {
		var change ReactionChange
		err := gob.NewDecoder(bytes.NewReader(data)).Decode(&change)
		if err != nil {
			_ = svc.Logger.Log("error", fmt.Errorf("could not gob decode reaction change: %w", err))
			return
		}

		if err := svc.ApplyReactionChange(ctx, change.Before, change.After); err != nil {
			_ = svc.Logger.Log("error", fmt.Errorf("could not apply reaction change: %w", err))
		}

		svc.notifyReaction(ctx, change.Before, change.After)
	})
	if err != nil {
		return fmt.Errorf("could not subscribe to reaction changes: %w", err)
	}

	unsubPosts, err := svc.PubSub.Sub(topicPostCreated, func(data []byte) {
		var p Post
		err := gob.NewDecoder(bytes.NewReader(data)).Decode(&p)
		if err != nil {
			_ = svc.Logger.Log("error", fmt.Errorf("could not gob decode created post: %w", err))
			return
		}

		if err := svc.moderatePost(ctx, p); err != nil {
			_ = svc.Logger.Log("error", fmt.Errorf("could not moderate post: %w", err))
		}
	})
	if err != nil {
		_ = unsubReactions()
		return fmt.Errorf("could not subscribe to created posts: %w", err)
	}

	<-ctx.Done()

	if err := unsubReactions(); err != nil {
		_ = svc.Logger.Log("error", fmt.Errorf("could not unsubscribe from reaction changes: %w", err))
	}
	if err := unsubPosts(); err != nil {
		_ = svc.Logger.Log("error", fmt.Errorf("could not unsubscribe from created posts: %w", err))
	}

	return nil
}
