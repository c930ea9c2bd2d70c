package pulso

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nicolasparada/go-errs"

	"github.com/pulsoapp/pulso/db"
)

func (svc *Service) sqlInsertReaction(ctx context.Context, r Reaction) error {
	const query = `
		INSERT INTO post_reactions (id, post_id, user_id, post_author_id, kind, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := svc.DB.ExecContext(ctx, query,
		r.ID, r.PostID, r.UserID, r.PostAuthorID, r.Kind, r.CreatedAt, r.UpdatedAt)
	if db.IsPqForeignKeyViolationError(err, "post_id") {
		return ErrPostNotFound
	}

	if db.IsPqUniqueViolationError(err) {
		return errs.ConflictError("reaction already exists")
	}

	if err != nil {
		return fmt.Errorf("sql insert reaction: %w", err)
	}

	return nil
}

func (svc *Service) sqlSelectReaction(ctx context.Context, postID, userID string) (Reaction, error) {
	const query = `
		SELECT id, post_id, user_id, post_author_id, kind, created_at, updated_at
		FROM post_reactions
		WHERE post_id = $1 AND user_id = $2
	`
	var r Reaction
	row := svc.DB.QueryRowContext(ctx, query, postID, userID)
	err := row.Scan(&r.ID, &r.PostID, &r.UserID, &r.PostAuthorID, &r.Kind, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return r, ErrReactionNotFound
	}

	if err != nil {
		return r, fmt.Errorf("sql select reaction: %w", err)
	}

	return r, nil
}

func (svc *Service) sqlSelectUserReactions(ctx context.Context, userID string) ([]Reaction, error) {
	const query = `
		SELECT id, post_id, user_id, post_author_id, kind, created_at, updated_at
		FROM post_reactions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := svc.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("sql select user reactions: %w", err)
	}

	return db.Collect(rows, func(scan db.ScanFunc) (Reaction, error) {
		var r Reaction
		err := scan(&r.ID, &r.PostID, &r.UserID, &r.PostAuthorID, &r.Kind, &r.CreatedAt, &r.UpdatedAt)
		return r, err
	})
}

func (svc *Service) sqlUpdateReactionKind(ctx context.Context, r Reaction) error {
	const query = `
		UPDATE post_reactions SET kind = $1, updated_at = $2
		WHERE id = $3
	`
	_, err := svc.DB.ExecContext(ctx, query, r.Kind, r.UpdatedAt, r.ID)
	if err != nil {
		return fmt.Errorf("sql update reaction kind: %w", err)
	}

	return nil
}

func (svc *Service) sqlDeleteReaction(ctx context.Context, reactionID string) error {
	_, err := svc.DB.ExecContext(ctx, `
		DELETE FROM post_reactions WHERE id = $1
	`, reactionID)
	if err != nil {
		return fmt.Errorf("sql delete reaction: %w", err)
	}

	return nil
}
