package pulso

import (
	"context"
	"time"

	"github.com/nicolasparada/go-errs"
)

const (
	ErrInvalidReactionKind = errs.InvalidArgumentError("invalid reaction kind")
	ErrReactionNotFound    = errs.NotFoundError("reaction not found")
)

type ReactionKind string

const (
	// ReactionNone is the zero value: no reaction on record.
	ReactionNone    ReactionKind = ""
	ReactionLike    ReactionKind = "like"
	ReactionDislike ReactionKind = "dislike"
)

func (k ReactionKind) Valid() bool {
	return k == ReactionLike || k == ReactionDislike
}

// Reaction is a single user's like or dislike on one post.
// There is at most one per (post, user) pair: switching from like
// to dislike updates the record instead of creating a second one.
type Reaction struct {
	ID           string       `json:"id"`
	PostID       string       `json:"postID"`
	UserID       string       `json:"userID"`
	PostAuthorID string       `json:"postAuthorID"`
	Kind         ReactionKind `json:"kind"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// ReactionDelta maps a reaction transition onto the post counter deltas.
// ReactionNone on either side means the reaction is absent there.
// Derived per kind rather than per branch so all nine transitions,
// including same-kind updates (zero delta) and kind flips
// (an exact -1/+1 swap), come out of the one rule.
func ReactionDelta(before, after ReactionKind) (likes, dislikes int) {
	switch before {
	case ReactionLike:
		likes--
	case ReactionDislike:
		dislikes--
	}

	switch after {
	case ReactionLike:
		likes++
	case ReactionDislike:
		dislikes++
	}

	return likes, dislikes
}

func reactionKindOf(r *Reaction) ReactionKind {
	if r == nil {
		return ReactionNone
	}
	return r.Kind
}

type CreateReactionInput struct {
	PostID string
	Kind   ReactionKind
}

func (in CreateReactionInput) Validate() error {
	if !validID(in.PostID) {
		return ErrInvalidPostID
	}

	if !in.Kind.Valid() {
		return ErrInvalidReactionKind
	}

	return nil
}

// ReactionFor returns the authenticated user's reaction to the post, if any.
func (svc *Service) ReactionFor(ctx context.Context, postID string) (Reaction, error) {
	if !validID(postID) {
		return Reaction{}, ErrInvalidPostID
	}

	usr, ok := UserFromContext(ctx)
	if !ok {
		return Reaction{}, errs.Unauthenticated
	}

	return svc.sqlSelectReaction(ctx, postID, usr.ID)
}

// UserReactions returns all of the authenticated user's reactions,
// so a client can prime its local reaction state.
func (svc *Service) UserReactions(ctx context.Context) ([]Reaction, error) {
	usr, ok := UserFromContext(ctx)
	if !ok {
		return nil, errs.Unauthenticated
	}

	return svc.sqlSelectUserReactions(ctx, usr.ID)
}

// CreateReaction records a first reaction to a post and publishes the
// change event that drives the counter aggregation and notifications.
func (svc *Service) CreateReaction(ctx context.Context, in CreateReactionInput) (Reaction, error) {
	var out Reaction

	if err := in.Validate(); err != nil {
		return out, err
	}

	usr, ok := UserFromContext(ctx)
	if !ok {
		return out, errs.Unauthenticated
	}

	err := svc.DB.RunTx(ctx, func(ctx context.Context) error {
		authorID, err := svc.sqlSelectPostAuthorID(ctx, in.PostID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		out = Reaction{
			ID:           genID(),
			PostID:       in.PostID,
			UserID:       usr.ID,
			PostAuthorID: authorID,
			Kind:         in.Kind,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return svc.sqlInsertReaction(ctx, out)
	})
	if err != nil {
		return Reaction{}, err
	}

	svc.publishReactionChange(nil, &out)

	return out, nil
}

// UpdateReactionKind flips the authenticated user's existing reaction.
// A same-kind update is a no-op and publishes no event.
func (svc *Service) UpdateReactionKind(ctx context.Context, postID string, kind ReactionKind) (Reaction, error) {
	var before, after Reaction

	if !validID(postID) {
		return after, ErrInvalidPostID
	}

	if !kind.Valid() {
		return after, ErrInvalidReactionKind
	}

	usr, ok := UserFromContext(ctx)
	if !ok {
		return after, errs.Unauthenticated
	}

	var changed bool
	err := svc.DB.RunTx(ctx, func(ctx context.Context) error {
		var err error
		before, err = svc.sqlSelectReaction(ctx, postID, usr.ID)
		if err != nil {
			return err
		}

		if before.Kind == kind {
			after = before
			return nil
		}

		after = before
		after.Kind = kind
		after.UpdatedAt = time.Now().UTC()
		changed = true
		return svc.sqlUpdateReactionKind(ctx, after)
	})
	if err != nil {
		return Reaction{}, err
	}

	if changed {
		svc.publishReactionChange(&before, &after)
	}

	return after, nil
}

// DeleteReaction retracts the authenticated user's reaction to the post.
// Missing reactions are fine: retracting twice is a no-op.
func (svc *Service) DeleteReaction(ctx context.Context, postID string) error {
	if !validID(postID) {
		return ErrInvalidPostID
	}

	usr, ok := UserFromContext(ctx)
	if !ok {
		return errs.Unauthenticated
	}

	var before Reaction
	var deleted bool
	err := svc.DB.RunTx(ctx, func(ctx context.Context) error {
		var err error
		before, err = svc.sqlSelectReaction(ctx, postID, usr.ID)
		if err == ErrReactionNotFound {
			return nil
		}

		if err != nil {
			return err
		}

		deleted = true
		return svc.sqlDeleteReaction(ctx, before.ID)
	})
	if err != nil {
		return err
	}

	if deleted {
		svc.publishReactionChange(&before, nil)
	}

	return nil
}

// React is the toggle the transport exposes: it creates the reaction when
// missing, flips it when different and leaves it alone when already set,
// mirroring the query-then-write sequence the clients perform.
func (svc *Service) React(ctx context.Context, postID string, kind ReactionKind) error {
	if !validID(postID) {
		return ErrInvalidPostID
	}

	if !kind.Valid() {
		return ErrInvalidReactionKind
	}

	existing, err := svc.ReactionFor(ctx, postID)
	if err == ErrReactionNotFound {
		_, err := svc.CreateReaction(ctx, CreateReactionInput{PostID: postID, Kind: kind})
		return err
	}

	if err != nil {
		return err
	}

	if existing.Kind == kind {
		return nil
	}

	_, err = svc.UpdateReactionKind(ctx, postID, kind)
	return err
}
