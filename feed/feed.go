// Package feed keeps a client-side view of the post feed with optimistic
// reaction updates: reacting adjusts the local counters immediately, then
// persists, and rolls the adjustment back if the write fails. Authoritative
// post broadcasts from the server overwrite the local state wholesale.
package feed

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/go-kit/log"
	"github.com/nicolasparada/go-errs"

	"github.com/pulsoapp/pulso"
)

// Backend is the server surface the view talks to.
type Backend interface {
	Posts(ctx context.Context) ([]pulso.Post, error)
	PostStream(ctx context.Context) (<-chan pulso.Post, error)
	UserReactions(ctx context.Context) ([]pulso.Reaction, error)
	CreateReaction(ctx context.Context, in pulso.CreateReactionInput) (pulso.Reaction, error)
	UpdateReactionKind(ctx context.Context, postID string, kind pulso.ReactionKind) (pulso.Reaction, error)
	DeleteReaction(ctx context.Context, postID string) error
}

// View is a feed snapshot owned by one authenticated user. A zero UserID
// means the viewer is anonymous and reactions are rejected. All methods
// are safe for concurrent use.
type View struct {
	Backend Backend
	Logger  log.Logger
	UserID  string

	mu        sync.Mutex
	posts     map[string]pulso.Post
	reactions map[string]pulso.ReactionKind
	inflight  map[string]bool
}

// Load primes the view with the current posts and the user's reactions.
func (v *View) Load(ctx context.Context) error {
	pp, err := v.Backend.Posts(ctx)
	if err != nil {
		return fmt.Errorf("could not load posts: %w", err)
	}

	var rr []pulso.Reaction
	if v.UserID != "" {
		rr, err = v.Backend.UserReactions(ctx)
		if err != nil {
			return fmt.Errorf("could not load reactions: %w", err)
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.posts = make(map[string]pulso.Post, len(pp))
	for _, p := range pp {
		v.posts[p.ID] = p
	}

	v.reactions = make(map[string]pulso.ReactionKind, len(rr))
	for _, r := range rr {
		v.reactions[r.PostID] = r.Kind
	}

	v.inflight = make(map[string]bool)

	return nil
}

// Run applies authoritative post broadcasts until ctx is done
// or the stream channel is closed.
func (v *View) Run(ctx context.Context) error {
	pp, err := v.Backend.PostStream(ctx)
	if err != nil {
		return fmt.Errorf("could not stream posts: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case p, ok := <-pp:
			if !ok {
				return nil
			}

			v.Apply(p)
		}
	}
}

// Apply replaces the local copy of the post with the server's wholesale.
// The server's counters win over any optimistic adjustment.
func (v *View) Apply(p pulso.Post) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.posts == nil {
		v.posts = make(map[string]pulso.Post)
	}
	v.posts[p.ID] = p
}

// React records the user's reaction to a post optimistically and persists
// it. Reacting with the kind already on record is a no-op, and so is
// reacting while a previous reaction to the same post is still in flight,
// so a double click produces exactly one write. On a failed write the
// optimistic adjustment is rolled back exactly.
func (v *View) React(ctx context.Context, postID string, kind pulso.ReactionKind) error {
	if !kind.Valid() {
		return pulso.ErrInvalidReactionKind
	}

	if v.UserID == "" {
		return errs.Unauthenticated
	}

	v.mu.Lock()
	if _, ok := v.posts[postID]; !ok {
		v.mu.Unlock()
		return pulso.ErrPostNotFound
	}

	if v.inflight[postID] {
		v.mu.Unlock()
		return nil
	}

	prev := v.reactions[postID]
	if prev == kind {
		v.mu.Unlock()
		return nil
	}

	v.inflight[postID] = true
	v.applyDeltaLocked(postID, prev, kind)
	v.reactions[postID] = kind
	v.mu.Unlock()

	defer func() {
		v.mu.Lock()
		delete(v.inflight, postID)
		v.mu.Unlock()
	}()

	var err error
	if prev == pulso.ReactionNone {
		_, err = v.Backend.CreateReaction(ctx, pulso.CreateReactionInput{PostID: postID, Kind: kind})
	} else {
		_, err = v.Backend.UpdateReactionKind(ctx, postID, kind)
	}
	if err != nil {
		v.rollback(postID, prev, kind)
		return fmt.Errorf("could not persist reaction: %w", err)
	}

	return nil
}

// Retract removes the user's reaction from a post, optimistically and
// with the same rollback contract as React. Retracting with no reaction
// on record is a no-op.
func (v *View) Retract(ctx context.Context, postID string) error {
	if v.UserID == "" {
		return errs.Unauthenticated
	}

	v.mu.Lock()
	if _, ok := v.posts[postID]; !ok {
		v.mu.Unlock()
		return pulso.ErrPostNotFound
	}

	if v.inflight[postID] {
		v.mu.Unlock()
		return nil
	}

	prev := v.reactions[postID]
	if prev == pulso.ReactionNone {
		v.mu.Unlock()
		return nil
	}

	v.inflight[postID] = true
	v.applyDeltaLocked(postID, prev, pulso.ReactionNone)
	delete(v.reactions, postID)
	v.mu.Unlock()

	defer func() {
		v.mu.Lock()
		delete(v.inflight, postID)
		v.mu.Unlock()
	}()

	if err := v.Backend.DeleteReaction(ctx, postID); err != nil {
		v.rollback(postID, prev, pulso.ReactionNone)
		return fmt.Errorf("could not retract reaction: %w", err)
	}

	return nil
}

// rollback undoes the optimistic transition from prev to applied by
// replaying its exact inverse.
func (v *View) rollback(postID string, prev, applied pulso.ReactionKind) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.applyDeltaLocked(postID, applied, prev)
	if prev == pulso.ReactionNone {
		delete(v.reactions, postID)
	} else {
		v.reactions[postID] = prev
	}
}

func (v *View) applyDeltaLocked(postID string, before, after pulso.ReactionKind) {
	p, ok := v.posts[postID]
	if !ok {
		return
	}

	likes, dislikes := pulso.ReactionDelta(before, after)
	p.LikesCount = max(p.LikesCount+likes, 0)
	p.DislikesCount = max(p.DislikesCount+dislikes, 0)
	v.posts[postID] = p
}

// Posts returns the current feed, newest first.
func (v *View) Posts() []pulso.Post {
	v.mu.Lock()
	defer v.mu.Unlock()

	pp := make([]pulso.Post, 0, len(v.posts))
	for _, p := range v.posts {
		pp = append(pp, p)
	}

	sort.Slice(pp, func(i, j int) bool {
		if pp[i].CreatedAt.Equal(pp[j].CreatedAt) {
			return pp[i].ID > pp[j].ID
		}
		return pp[i].CreatedAt.After(pp[j].CreatedAt)
	})

	return pp
}

// Post returns the local copy of one post.
func (v *View) Post(postID string) (pulso.Post, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	p, ok := v.posts[postID]
	return p, ok
}

// ReactionTo returns the user's current reaction to the post, which may
// still be an optimistic one.
func (v *View) ReactionTo(postID string) pulso.ReactionKind {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.reactions[postID]
}

// Reacting reports whether a reaction write to the post is in flight.
func (v *View) Reacting(postID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.inflight[postID]
}
