package pulso

import (
	"context"
	"sync"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestReactionDelta(t *testing.T) {
	tt := []struct {
		name         string
		before       ReactionKind
		after        ReactionKind
		wantLikes    int
		wantDislikes int
	}{
		{"none_to_none", ReactionNone, ReactionNone, 0, 0},
		{"none_to_like", ReactionNone, ReactionLike, 1, 0},
		{"none_to_dislike", ReactionNone, ReactionDislike, 0, 1},
		{"like_to_none", ReactionLike, ReactionNone, -1, 0},
		{"like_to_like", ReactionLike, ReactionLike, 0, 0},
		{"like_to_dislike", ReactionLike, ReactionDislike, -1, 1},
		{"dislike_to_none", ReactionDislike, ReactionNone, 0, -1},
		{"dislike_to_like", ReactionDislike, ReactionLike, 1, -1},
		{"dislike_to_dislike", ReactionDislike, ReactionDislike, 0, 0},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			likes, dislikes := ReactionDelta(tc.before, tc.after)
			assert.Equal(t, tc.wantLikes, likes)
			assert.Equal(t, tc.wantDislikes, dislikes)
		})
	}
}

func TestReactionKind_Valid(t *testing.T) {
	assert.True(t, ReactionLike.Valid())
	assert.True(t, ReactionDislike.Valid())
	assert.False(t, ReactionNone.Valid())
	assert.False(t, ReactionKind("love").Valid())
}

func TestService_CreateReaction(t *testing.T) {
	requireDB(t)

	ctx := context.Background()

	t.Run("invalid_post_id", func(t *testing.T) {
		asUser := ContextWithUser(ctx, genUser(t))
		_, err := testService.CreateReaction(asUser, CreateReactionInput{PostID: "nope", Kind: ReactionLike})
		assert.EqualError(t, err, "invalid post ID")
	})

	t.Run("invalid_kind", func(t *testing.T) {
		asUser := ContextWithUser(ctx, genUser(t))
		_, err := testService.CreateReaction(asUser, CreateReactionInput{PostID: genID(), Kind: "love"})
		assert.EqualError(t, err, "invalid reaction kind")
	})

	t.Run("unauthenticated", func(t *testing.T) {
		_, err := testService.CreateReaction(ctx, CreateReactionInput{PostID: genID(), Kind: ReactionLike})
		assert.EqualError(t, err, "unauthenticated")
	})

	t.Run("post_not_found", func(t *testing.T) {
		asUser := ContextWithUser(ctx, genUser(t))
		_, err := testService.CreateReaction(asUser, CreateReactionInput{PostID: genID(), Kind: ReactionLike})
		assert.EqualError(t, err, "post not found")
	})

	t.Run("ok", func(t *testing.T) {
		author := genUser(t)
		post := genPost(t, author)
		asUser := ContextWithUser(ctx, genUser(t))

		got, err := testService.CreateReaction(asUser, CreateReactionInput{PostID: post.ID, Kind: ReactionLike})
		assert.NoError(t, err)
		assert.NotZero(t, got)
		assert.Equal(t, author.ID, got.PostAuthorID)

		_, err = testService.CreateReaction(asUser, CreateReactionInput{PostID: post.ID, Kind: ReactionDislike})
		assert.EqualError(t, err, "reaction already exists")
	})
}

func TestService_React_Scenario(t *testing.T) {
	requireDB(t)

	ctx := context.Background()
	post := genPost(t, genUser(t))
	alice := ContextWithUser(ctx, genUser(t))
	bob := ContextWithUser(ctx, genUser(t))

	apply := func(t *testing.T, before, after *Reaction) {
		t.Helper()
		assert.NoError(t, testService.ApplyReactionChange(ctx, before, after))
	}
	counts := func(t *testing.T) (int, int) {
		t.Helper()
		return postCountsOf(t, post.ID)
	}

	// Alice likes the post.
	aliceLike, err := testService.CreateReaction(alice, CreateReactionInput{PostID: post.ID, Kind: ReactionLike})
	assert.NoError(t, err)
	apply(t, nil, &aliceLike)
	likes, dislikes := counts(t)
	assert.Equal(t, 1, likes)
	assert.Equal(t, 0, dislikes)

	// Bob dislikes it.
	bobDislike, err := testService.CreateReaction(bob, CreateReactionInput{PostID: post.ID, Kind: ReactionDislike})
	assert.NoError(t, err)
	apply(t, nil, &bobDislike)
	likes, dislikes = counts(t)
	assert.Equal(t, 1, likes)
	assert.Equal(t, 1, dislikes)

	// Alice switches to dislike.
	aliceDislike, err := testService.UpdateReactionKind(alice, post.ID, ReactionDislike)
	assert.NoError(t, err)
	apply(t, &aliceLike, &aliceDislike)
	likes, dislikes = counts(t)
	assert.Equal(t, 0, likes)
	assert.Equal(t, 2, dislikes)

	// Alice retracts.
	assert.NoError(t, testService.DeleteReaction(alice, post.ID))
	apply(t, &aliceDislike, nil)
	likes, dislikes = counts(t)
	assert.Equal(t, 0, likes)
	assert.Equal(t, 1, dislikes)

	// Retracting twice stays a no-op.
	assert.NoError(t, testService.DeleteReaction(alice, post.ID))
}

func TestService_UpdateReactionKind(t *testing.T) {
	requireDB(t)

	ctx := context.Background()
	post := genPost(t, genUser(t))
	asUser := ContextWithUser(ctx, genUser(t))

	t.Run("not_found", func(t *testing.T) {
		_, err := testService.UpdateReactionKind(asUser, post.ID, ReactionLike)
		assert.EqualError(t, err, "reaction not found")
	})

	t.Run("same_kind_noop", func(t *testing.T) {
		created, err := testService.CreateReaction(asUser, CreateReactionInput{PostID: post.ID, Kind: ReactionLike})
		assert.NoError(t, err)

		got, err := testService.UpdateReactionKind(asUser, post.ID, ReactionLike)
		assert.NoError(t, err)
		assert.Equal(t, created.UpdatedAt.UTC(), got.UpdatedAt.UTC())
	})

	t.Run("flips", func(t *testing.T) {
		got, err := testService.UpdateReactionKind(asUser, post.ID, ReactionDislike)
		assert.NoError(t, err)
		assert.Equal(t, ReactionDislike, got.Kind)
	})
}

func TestService_React(t *testing.T) {
	requireDB(t)

	ctx := context.Background()
	post := genPost(t, genUser(t))
	asUser := ContextWithUser(ctx, genUser(t))

	_, err := testService.ReactionFor(asUser, post.ID)
	assert.EqualError(t, err, "reaction not found")

	assert.NoError(t, testService.React(asUser, post.ID, ReactionLike))

	re, err := testService.ReactionFor(asUser, post.ID)
	assert.NoError(t, err)
	assert.Equal(t, ReactionLike, re.Kind)

	// Same kind again leaves the record untouched.
	assert.NoError(t, testService.React(asUser, post.ID, ReactionLike))
	re2, err := testService.ReactionFor(asUser, post.ID)
	assert.NoError(t, err)
	assert.Equal(t, re.UpdatedAt.UTC(), re2.UpdatedAt.UTC())

	assert.NoError(t, testService.React(asUser, post.ID, ReactionDislike))
	re3, err := testService.ReactionFor(asUser, post.ID)
	assert.NoError(t, err)
	assert.Equal(t, ReactionDislike, re3.Kind)

	rr, err := testService.UserReactions(asUser)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(rr))
}

func TestService_ApplyReactionChange(t *testing.T) {
	requireDB(t)

	ctx := context.Background()

	t.Run("nil_change", func(t *testing.T) {
		assert.NoError(t, testService.ApplyReactionChange(ctx, nil, nil))
	})

	t.Run("orphan_post", func(t *testing.T) {
		r := Reaction{ID: genID(), PostID: genID(), UserID: genID(), Kind: ReactionLike}
		assert.NoError(t, testService.ApplyReactionChange(ctx, nil, &r))
	})

	t.Run("same_kind_zero_delta", func(t *testing.T) {
		post := genPost(t, genUser(t))
		r := Reaction{ID: genID(), PostID: post.ID, UserID: genID(), Kind: ReactionLike}
		assert.NoError(t, testService.ApplyReactionChange(ctx, &r, &r))

		likes, dislikes := postCountsOf(t, post.ID)
		assert.Equal(t, 0, likes)
		assert.Equal(t, 0, dislikes)
	})

	t.Run("clamps_at_zero", func(t *testing.T) {
		post := genPost(t, genUser(t))
		r := Reaction{ID: genID(), PostID: post.ID, UserID: genID(), Kind: ReactionLike}
		assert.NoError(t, testService.ApplyReactionChange(ctx, &r, nil))

		likes, dislikes := postCountsOf(t, post.ID)
		assert.Equal(t, 0, likes)
		assert.Equal(t, 0, dislikes)
	})

	t.Run("concurrent_changes_serialize", func(t *testing.T) {
		post := genPost(t, genUser(t))

		const n = 4
		var wg sync.WaitGroup
		errs := make([]error, n)
		for i := 0; i < n; i++ {
			i := i
			r := Reaction{ID: genID(), PostID: post.ID, UserID: genID(), Kind: ReactionLike}
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = testService.ApplyReactionChange(ctx, nil, &r)
			}()
		}
		wg.Wait()

		for _, err := range errs {
			assert.NoError(t, err)
		}

		likes, dislikes := postCountsOf(t, post.ID)
		assert.Equal(t, n, likes)
		assert.Equal(t, 0, dislikes)
	})
}
