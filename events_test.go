package pulso

import (
	"context"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/go-kit/log"

	"github.com/pulsoapp/pulso/pubsub"
)

func streamTestService() *Service {
	return &Service{
		Logger: log.NewNopLogger(),
		PubSub: &pubsub.Inmem{},
	}
}

func TestService_PostStream(t *testing.T) {
	t.Run("delivers", func(t *testing.T) {
		svc := streamTestService()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		pp, err := svc.PostStream(ctx)
		assert.NoError(t, err)

		svc.broadcastPost(Post{ID: "a1b2c3d4e5f6g7h8i9j0", LikesCount: 4})

		select {
		case p := <-pp:
			assert.Equal(t, "a1b2c3d4e5f6g7h8i9j0", p.ID)
			assert.Equal(t, 4, p.LikesCount)
		case <-time.After(time.Second * 5):
			t.Fatal("no post delivered")
		}
	})

	t.Run("stop_during_broadcasts", func(t *testing.T) {
		svc := streamTestService()

		ctx, cancel := context.WithCancel(context.Background())
		pp, err := svc.PostStream(ctx)
		assert.NoError(t, err)

		svc.broadcastPost(Post{ID: "a1b2c3d4e5f6g7h8i9j0"})
		select {
		case <-pp:
		case <-time.After(time.Second * 5):
			t.Fatal("no post delivered")
		}

		// Keep broadcasting while the subscription tears down. Undelivered
		// sends racing the cancellation must exit quietly rather than hit
		// the stream channel after it stopped being consumed.
		cancel()
		for i := 0; i < 50; i++ {
			svc.broadcastPost(Post{ID: "a1b2c3d4e5f6g7h8i9j0"})
			select {
			case <-pp:
			default:
			}
			time.Sleep(time.Millisecond)
		}
	})
}

func TestService_NotificationStream_StopDuringBroadcasts(t *testing.T) {
	svc := streamTestService()

	usr := User{ID: "a1b2c3d4e5f6g7h8i9j0"}
	ctx, cancel := context.WithCancel(ContextWithUser(context.Background(), usr))

	nn, err := svc.NotificationStream(ctx)
	assert.NoError(t, err)

	svc.broadcastNotification(Notification{ID: genID(), UserID: usr.ID, Title: "hola"})
	select {
	case n := <-nn:
		assert.Equal(t, "hola", n.Title)
	case <-time.After(time.Second * 5):
		t.Fatal("no notification delivered")
	}

	cancel()
	for i := 0; i < 50; i++ {
		svc.broadcastNotification(Notification{ID: genID(), UserID: usr.ID})
		select {
		case <-nn:
		default:
		}
		time.Sleep(time.Millisecond)
	}
}
