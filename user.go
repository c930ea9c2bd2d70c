package pulso

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/nicolasparada/go-errs"
)

const (
	ErrInvalidEmail = errs.InvalidArgumentError("invalid email")
	ErrUserNotFound = errs.NotFoundError("user not found")
)

var reEmail = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type User struct {
	ID          string  `json:"id"`
	Email       string  `json:"email,omitempty"`
	DisplayName string  `json:"displayName"`
	AvatarURL   *string `json:"avatarURL,omitempty"`
}

func isEmail(s string) bool {
	return reEmail.MatchString(s)
}

// EnsureUser fetches the user for an identity asserted by an auth provider,
// provisioning it on first login.
func (svc *Service) EnsureUser(ctx context.Context, email, displayName string, avatarURL *string) (User, error) {
	var out User

	email = strings.ToLower(strings.TrimSpace(email))
	if !isEmail(email) {
		return out, ErrInvalidEmail
	}

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		// Mirror client behavior: fall back to the email
		// when the provider carries no display name.
		displayName = email
	}

	return out, svc.DB.RunTx(ctx, func(ctx context.Context) error {
		usr, err := svc.sqlSelectUserByEmail(ctx, email)
		if err == nil {
			out = usr
			return nil
		}

		if !errors.Is(err, ErrUserNotFound) {
			return err
		}

		out = User{
			ID:          genID(),
			Email:       email,
			DisplayName: displayName,
			AvatarURL:   avatarURL,
		}
		return svc.sqlInsertUser(ctx, out)
	})
}

// AuthUser from the context, re-read so identity changes show up.
func (svc *Service) AuthUser(ctx context.Context) (User, error) {
	usr, ok := UserFromContext(ctx)
	if !ok {
		return User{}, errs.Unauthenticated
	}

	return svc.sqlSelectUser(ctx, usr.ID)
}
