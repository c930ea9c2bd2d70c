package pulso

import (
	"context"
	"errors"
)

// ApplyReactionChange folds a single reaction change into the post's
// denormalized counters. It consumes the reaction change events published
// by the reaction writes and runs the read-adjust-write inside one
// transaction, so concurrent changes to the same post serialize instead
// of losing updates.
//
// Deliveries are at least once and unordered, which the handler tolerates:
// a change whose post is gone is dropped, and a same-kind change nets out
// to a zero delta and writes nothing.
func (svc *Service) ApplyReactionChange(ctx context.Context, before, after *Reaction) error {
	if before == nil && after == nil {
		return nil
	}

	postID := ""
	if after != nil {
		postID = after.PostID
	} else {
		postID = before.PostID
	}
	if postID == "" {
		return nil
	}

	likesDelta, dislikesDelta := ReactionDelta(reactionKindOf(before), reactionKindOf(after))
	if likesDelta == 0 && dislikesDelta == 0 {
		return nil
	}

	var updated bool
	err := svc.DB.RunTx(ctx, func(ctx context.Context) error {
		counts, err := svc.sqlSelectPostCounts(ctx, postID)
		if errors.Is(err, ErrPostNotFound) {
			// The post was deleted between the reaction write and this
			// delivery. Orphan changes are dropped, never failed.
			metricOrphanReactions.Inc()
			return nil
		}

		if err != nil {
			return err
		}

		// Counters never go negative, even if a duplicated or reordered
		// delivery would decrement past zero.
		counts.Likes = max(counts.Likes+likesDelta, 0)
		counts.Dislikes = max(counts.Dislikes+dislikesDelta, 0)

		updated = true
		return svc.sqlUpdatePostCounts(ctx, sqlUpdatePostCounts{
			PostID:        postID,
			LikesCount:    counts.Likes,
			DislikesCount: counts.Dislikes,
		})
	})
	if err != nil {
		return err
	}

	if updated {
		metricCounterUpdates.Inc()
		if post, err := svc.Post(ctx, postID); err == nil {
			svc.broadcastPost(post)
		}
	}

	return nil
}
