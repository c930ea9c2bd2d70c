package pulso

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

func (svc *Service) sqlInsertUser(ctx context.Context, in User) error {
	const query = `
		INSERT INTO users (id, email, display_name, avatar_url)
		VALUES ($1, $2, $3, $4)
	`

	_, err := svc.DB.ExecContext(ctx, query, in.ID, in.Email, in.DisplayName, in.AvatarURL)
	if err != nil {
		return fmt.Errorf("sql insert user: %w", err)
	}

	return nil
}

func (svc *Service) sqlSelectUser(ctx context.Context, userID string) (User, error) {
	const query = `
		SELECT id, email, display_name, avatar_url
		FROM users
		WHERE id = $1
	`

	var usr User
	row := svc.DB.QueryRowContext(ctx, query, userID)
	err := row.Scan(&usr.ID, &usr.Email, &usr.DisplayName, &usr.AvatarURL)
	if errors.Is(err, sql.ErrNoRows) {
		return usr, ErrUserNotFound
	}

	if err != nil {
		return usr, fmt.Errorf("sql select user: %w", err)
	}

	return usr, nil
}

func (svc *Service) sqlSelectUserByEmail(ctx context.Context, email string) (User, error) {
	const query = `
		SELECT id, email, display_name, avatar_url
		FROM users
		WHERE email = $1
	`

	var usr User
	row := svc.DB.QueryRowContext(ctx, query, email)
	err := row.Scan(&usr.ID, &usr.Email, &usr.DisplayName, &usr.AvatarURL)
	if errors.Is(err, sql.ErrNoRows) {
		return usr, ErrUserNotFound
	}

	if err != nil {
		return usr, fmt.Errorf("sql select user by email: %w", err)
	}

	return usr, nil
}

func (svc *Service) sqlSelectUserDisplayName(ctx context.Context, userID string) (string, error) {
	const query = "SELECT display_name FROM users WHERE id = $1"

	var name string
	row := svc.DB.QueryRowContext(ctx, query, userID)
	err := row.Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrUserNotFound
	}

	if err != nil {
		return "", fmt.Errorf("sql select user display name: %w", err)
	}

	return name, nil
}
