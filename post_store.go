package pulso

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pulsoapp/pulso/db"
)

type sqlInsertPost struct {
	PostID      string
	UserID      string
	Description string
	ImagePath   *string
	CreatedAt   time.Time
}

type sqlUpdatePostCounts struct {
	PostID        string
	LikesCount    int
	DislikesCount int
}

type sqlUpdatePostModeration struct {
	PostID              string
	Description         string
	OriginalDescription string
	ModeratedAt         time.Time
}

type postCounts struct {
	Likes    int
	Dislikes int
}

func (svc *Service) sqlInsertPost(ctx context.Context, in sqlInsertPost) error {
	const query = `
		INSERT INTO posts (id, user_id, description, image_path, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := svc.DB.ExecContext(ctx, query, in.PostID, in.UserID, in.Description, in.ImagePath, in.CreatedAt)
	if db.IsPqForeignKeyViolationError(err, "user_id") {
		return ErrUserNotFound
	}

	if err != nil {
		return fmt.Errorf("sql insert post: %w", err)
	}

	return nil
}

const sqlPostColumns = `
	posts.id
	, posts.user_id
	, posts.description
	, posts.image_path
	, posts.moderated
	, posts.moderated_at
	, posts.likes_count
	, posts.dislikes_count
	, posts.created_at
	, users.id
	, users.email
	, users.display_name
	, users.avatar_url
`

func (svc *Service) sqlScanPost(scan db.ScanFunc) (Post, error) {
	var p Post
	var usr User
	var imagePath *string
	err := scan(
		&p.ID,
		&p.UserID,
		&p.Description,
		&imagePath,
		&p.Moderated,
		&p.ModeratedAt,
		&p.LikesCount,
		&p.DislikesCount,
		&p.CreatedAt,
		&usr.ID,
		&usr.Email,
		&usr.DisplayName,
		&usr.AvatarURL,
	)
	if err != nil {
		return p, err
	}

	if imagePath != nil {
		p.ImageURL = ptr(svc.MediaURLPrefix + *imagePath)
	}
	p.User = &usr

	return p, nil
}

func (svc *Service) sqlSelectPosts(ctx context.Context) ([]Post, error) {
	const query = `
		SELECT ` + sqlPostColumns + `
		FROM posts
		INNER JOIN users ON posts.user_id = users.id
		ORDER BY posts.created_at DESC
	`

	rows, err := svc.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sql select posts: %w", err)
	}

	pp, err := db.Collect(rows, svc.sqlScanPost)
	if err != nil {
		return nil, fmt.Errorf("sql scan posts: %w", err)
	}

	return pp, nil
}

func (svc *Service) sqlSelectPost(ctx context.Context, postID string) (Post, error) {
	const query = `
		SELECT ` + sqlPostColumns + `
		FROM posts
		INNER JOIN users ON posts.user_id = users.id
		WHERE posts.id = $1
	`

	row := svc.DB.QueryRowContext(ctx, query, postID)
	p, err := svc.sqlScanPost(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrPostNotFound
	}

	if err != nil {
		return p, fmt.Errorf("sql select post: %w", err)
	}

	return p, nil
}

func (svc *Service) sqlSelectPostCounts(ctx context.Context, postID string) (postCounts, error) {
	const query = "SELECT likes_count, dislikes_count FROM posts WHERE id = $1"

	var out postCounts
	row := svc.DB.QueryRowContext(ctx, query, postID)
	err := row.Scan(&out.Likes, &out.Dislikes)
	if errors.Is(err, sql.ErrNoRows) {
		return out, ErrPostNotFound
	}

	if err != nil {
		return out, fmt.Errorf("sql select post counts: %w", err)
	}

	return out, nil
}

func (svc *Service) sqlUpdatePostCounts(ctx context.Context, in sqlUpdatePostCounts) error {
	const query = `
		UPDATE posts
		SET likes_count = $2, dislikes_count = $3
		WHERE id = $1
	`

	_, err := svc.DB.ExecContext(ctx, query, in.PostID, in.LikesCount, in.DislikesCount)
	if err != nil {
		return fmt.Errorf("sql update post counts: %w", err)
	}

	return nil
}

func (svc *Service) sqlUpdatePostModeration(ctx context.Context, in sqlUpdatePostModeration) error {
	const query = `
		UPDATE posts
		SET description = $2
			, moderated = true
			, original_description = $3
			, moderated_at = $4
		WHERE id = $1
	`

	_, err := svc.DB.ExecContext(ctx, query, in.PostID, in.Description, in.OriginalDescription, in.ModeratedAt)
	if err != nil {
		return fmt.Errorf("sql update post moderation: %w", err)
	}

	return nil
}

func (svc *Service) sqlSelectPostAuthorID(ctx context.Context, postID string) (string, error) {
	const query = "SELECT user_id FROM posts WHERE id = $1"

	var authorID string
	row := svc.DB.QueryRowContext(ctx, query, postID)
	err := row.Scan(&authorID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrPostNotFound
	}

	if err != nil {
		return "", fmt.Errorf("sql select post author: %w", err)
	}

	return authorID, nil
}
