package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/go-kit/log"

	"github.com/pulsoapp/pulso"
)

type fakeBackend struct {
	PostsFunc              func(ctx context.Context) ([]pulso.Post, error)
	PostStreamFunc         func(ctx context.Context) (<-chan pulso.Post, error)
	UserReactionsFunc      func(ctx context.Context) ([]pulso.Reaction, error)
	CreateReactionFunc     func(ctx context.Context, in pulso.CreateReactionInput) (pulso.Reaction, error)
	UpdateReactionKindFunc func(ctx context.Context, postID string, kind pulso.ReactionKind) (pulso.Reaction, error)
	DeleteReactionFunc     func(ctx context.Context, postID string) error
}

func (f *fakeBackend) Posts(ctx context.Context) ([]pulso.Post, error) {
	return f.PostsFunc(ctx)
}

func (f *fakeBackend) PostStream(ctx context.Context) (<-chan pulso.Post, error) {
	return f.PostStreamFunc(ctx)
}

func (f *fakeBackend) UserReactions(ctx context.Context) ([]pulso.Reaction, error) {
	return f.UserReactionsFunc(ctx)
}

func (f *fakeBackend) CreateReaction(ctx context.Context, in pulso.CreateReactionInput) (pulso.Reaction, error) {
	return f.CreateReactionFunc(ctx, in)
}

func (f *fakeBackend) UpdateReactionKind(ctx context.Context, postID string, kind pulso.ReactionKind) (pulso.Reaction, error) {
	return f.UpdateReactionKindFunc(ctx, postID, kind)
}

func (f *fakeBackend) DeleteReaction(ctx context.Context, postID string) error {
	return f.DeleteReactionFunc(ctx, postID)
}

func testView(t *testing.T, backend *fakeBackend, posts []pulso.Post, reactions []pulso.Reaction) *View {
	t.Helper()

	if backend.PostsFunc == nil {
		backend.PostsFunc = func(context.Context) ([]pulso.Post, error) { return posts, nil }
	}
	if backend.UserReactionsFunc == nil {
		backend.UserReactionsFunc = func(context.Context) ([]pulso.Reaction, error) { return reactions, nil }
	}

	v := &View{Backend: backend, Logger: log.NewNopLogger(), UserID: "viewer"}
	assert.NoError(t, v.Load(context.Background()))
	return v
}

func TestView_React(t *testing.T) {
	ctx := context.Background()
	post := pulso.Post{ID: "p1", LikesCount: 2, DislikesCount: 1}

	t.Run("unauthenticated", func(t *testing.T) {
		v := testView(t, &fakeBackend{}, []pulso.Post{post}, nil)
		v.UserID = ""
		err := v.React(ctx, "p1", pulso.ReactionLike)
		assert.EqualError(t, err, "unauthenticated")
	})

	t.Run("invalid_kind", func(t *testing.T) {
		v := testView(t, &fakeBackend{}, []pulso.Post{post}, nil)
		err := v.React(ctx, "p1", "love")
		assert.EqualError(t, err, "invalid reaction kind")
	})

	t.Run("unknown_post", func(t *testing.T) {
		v := testView(t, &fakeBackend{}, []pulso.Post{post}, nil)
		err := v.React(ctx, "nope", pulso.ReactionLike)
		assert.EqualError(t, err, "post not found")
	})

	t.Run("first_reaction_creates", func(t *testing.T) {
		var created int
		backend := &fakeBackend{
			CreateReactionFunc: func(_ context.Context, in pulso.CreateReactionInput) (pulso.Reaction, error) {
				created++
				return pulso.Reaction{ID: "r1", PostID: in.PostID, Kind: in.Kind}, nil
			},
		}
		v := testView(t, backend, []pulso.Post{post}, nil)

		assert.NoError(t, v.React(ctx, "p1", pulso.ReactionLike))
		assert.Equal(t, 1, created)
		assert.Equal(t, pulso.ReactionLike, v.ReactionTo("p1"))

		got, _ := v.Post("p1")
		assert.Equal(t, 3, got.LikesCount)
		assert.Equal(t, 1, got.DislikesCount)
	})

	t.Run("same_kind_is_noop", func(t *testing.T) {
		var updates int
		backend := &fakeBackend{
			UpdateReactionKindFunc: func(context.Context, string, pulso.ReactionKind) (pulso.Reaction, error) {
				updates++
				return pulso.Reaction{}, nil
			},
		}
		v := testView(t, backend, []pulso.Post{post}, []pulso.Reaction{
			{ID: "r1", PostID: "p1", Kind: pulso.ReactionLike},
		})

		assert.NoError(t, v.React(ctx, "p1", pulso.ReactionLike))
		assert.Equal(t, 0, updates)

		got, _ := v.Post("p1")
		assert.Equal(t, 2, got.LikesCount)
	})

	t.Run("switch_kind_updates", func(t *testing.T) {
		backend := &fakeBackend{
			UpdateReactionKindFunc: func(_ context.Context, postID string, kind pulso.ReactionKind) (pulso.Reaction, error) {
				return pulso.Reaction{ID: "r1", PostID: postID, Kind: kind}, nil
			},
		}
		v := testView(t, backend, []pulso.Post{post}, []pulso.Reaction{
			{ID: "r1", PostID: "p1", Kind: pulso.ReactionLike},
		})

		assert.NoError(t, v.React(ctx, "p1", pulso.ReactionDislike))
		assert.Equal(t, pulso.ReactionDislike, v.ReactionTo("p1"))

		got, _ := v.Post("p1")
		assert.Equal(t, 1, got.LikesCount)
		assert.Equal(t, 2, got.DislikesCount)
	})

	t.Run("rollback_on_failed_create", func(t *testing.T) {
		backend := &fakeBackend{
			CreateReactionFunc: func(context.Context, pulso.CreateReactionInput) (pulso.Reaction, error) {
				return pulso.Reaction{}, errors.New("boom")
			},
		}
		v := testView(t, backend, []pulso.Post{post}, nil)

		err := v.React(ctx, "p1", pulso.ReactionLike)
		assert.Error(t, err)
		assert.Equal(t, pulso.ReactionNone, v.ReactionTo("p1"))

		got, _ := v.Post("p1")
		assert.Equal(t, 2, got.LikesCount)
		assert.Equal(t, 1, got.DislikesCount)
		assert.False(t, v.Reacting("p1"))
	})

	t.Run("rollback_on_failed_switch", func(t *testing.T) {
		backend := &fakeBackend{
			UpdateReactionKindFunc: func(context.Context, string, pulso.ReactionKind) (pulso.Reaction, error) {
				return pulso.Reaction{}, errors.New("boom")
			},
		}
		v := testView(t, backend, []pulso.Post{post}, []pulso.Reaction{
			{ID: "r1", PostID: "p1", Kind: pulso.ReactionLike},
		})

		err := v.React(ctx, "p1", pulso.ReactionDislike)
		assert.Error(t, err)
		assert.Equal(t, pulso.ReactionLike, v.ReactionTo("p1"))

		got, _ := v.Post("p1")
		assert.Equal(t, 2, got.LikesCount)
		assert.Equal(t, 1, got.DislikesCount)
	})

	t.Run("in_flight_guard", func(t *testing.T) {
		release := make(chan struct{})
		entered := make(chan struct{})
		var creates int
		backend := &fakeBackend{
			CreateReactionFunc: func(_ context.Context, in pulso.CreateReactionInput) (pulso.Reaction, error) {
				creates++
				close(entered)
				<-release
				return pulso.Reaction{ID: "r1", PostID: in.PostID, Kind: in.Kind}, nil
			},
		}
		v := testView(t, backend, []pulso.Post{post}, nil)

		done := make(chan error)
		go func() {
			done <- v.React(ctx, "p1", pulso.ReactionLike)
		}()

		<-entered
		assert.True(t, v.Reacting("p1"))

		// A second click while the first write is in flight does nothing.
		assert.NoError(t, v.React(ctx, "p1", pulso.ReactionDislike))
		assert.Equal(t, pulso.ReactionLike, v.ReactionTo("p1"))

		close(release)
		assert.NoError(t, <-done)
		assert.Equal(t, 1, creates)
		assert.False(t, v.Reacting("p1"))
	})
}

func TestView_Retract(t *testing.T) {
	ctx := context.Background()
	post := pulso.Post{ID: "p1", LikesCount: 2, DislikesCount: 1}

	t.Run("no_reaction_is_noop", func(t *testing.T) {
		var deletes int
		backend := &fakeBackend{
			DeleteReactionFunc: func(context.Context, string) error {
				deletes++
				return nil
			},
		}
		v := testView(t, backend, []pulso.Post{post}, nil)

		assert.NoError(t, v.Retract(ctx, "p1"))
		assert.Equal(t, 0, deletes)
	})

	t.Run("ok", func(t *testing.T) {
		backend := &fakeBackend{
			DeleteReactionFunc: func(context.Context, string) error { return nil },
		}
		v := testView(t, backend, []pulso.Post{post}, []pulso.Reaction{
			{ID: "r1", PostID: "p1", Kind: pulso.ReactionLike},
		})

		assert.NoError(t, v.Retract(ctx, "p1"))
		assert.Equal(t, pulso.ReactionNone, v.ReactionTo("p1"))

		got, _ := v.Post("p1")
		assert.Equal(t, 1, got.LikesCount)
	})

	t.Run("rollback_on_failure", func(t *testing.T) {
		backend := &fakeBackend{
			DeleteReactionFunc: func(context.Context, string) error { return errors.New("boom") },
		}
		v := testView(t, backend, []pulso.Post{post}, []pulso.Reaction{
			{ID: "r1", PostID: "p1", Kind: pulso.ReactionDislike},
		})

		err := v.Retract(ctx, "p1")
		assert.Error(t, err)
		assert.Equal(t, pulso.ReactionDislike, v.ReactionTo("p1"))

		got, _ := v.Post("p1")
		assert.Equal(t, 1, got.DislikesCount)
	})
}

func TestView_Apply(t *testing.T) {
	post := pulso.Post{ID: "p1", LikesCount: 2, DislikesCount: 1}
	v := testView(t, &fakeBackend{
		CreateReactionFunc: func(_ context.Context, in pulso.CreateReactionInput) (pulso.Reaction, error) {
			return pulso.Reaction{ID: "r1", PostID: in.PostID, Kind: in.Kind}, nil
		},
	}, []pulso.Post{post}, nil)

	assert.NoError(t, v.React(context.Background(), "p1", pulso.ReactionLike))
	got, _ := v.Post("p1")
	assert.Equal(t, 3, got.LikesCount)

	// The server's state wins over the optimistic counter.
	v.Apply(pulso.Post{ID: "p1", LikesCount: 7, DislikesCount: 0})
	got, _ = v.Post("p1")
	assert.Equal(t, 7, got.LikesCount)
	assert.Equal(t, 0, got.DislikesCount)
}

func TestView_Run(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	pp := make(chan pulso.Post)
	v := testView(t, &fakeBackend{
		PostStreamFunc: func(context.Context) (<-chan pulso.Post, error) { return pp, nil },
	}, nil, nil)

	done := make(chan error)
	go func() { done <- v.Run(ctx) }()

	pp <- pulso.Post{ID: "p9", LikesCount: 4}

	deadline := time.Now().Add(time.Second)
	for {
		if _, ok := v.Post("p9"); ok || time.Now().After(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}

	got, ok := v.Post("p9")
	assert.True(t, ok)
	assert.Equal(t, 4, got.LikesCount)

	cancel()
	close(pp)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("run did not stop")
	}
}

func TestView_PostsOrder(t *testing.T) {
	now := time.Now()
	older := pulso.Post{ID: "p1", CreatedAt: now.Add(-time.Hour)}
	newer := pulso.Post{ID: "p2", CreatedAt: now}

	v := testView(t, &fakeBackend{}, []pulso.Post{older, newer}, nil)

	got := v.Posts()
	assert.Equal(t, 2, len(got))
	assert.Equal(t, "p2", got[0].ID)
	assert.Equal(t, "p1", got[1].ID)
}
