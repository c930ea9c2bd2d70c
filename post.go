package pulso

import (
	"bytes"
	"context"
	"time"
	"unicode/utf8"

	"github.com/nicolasparada/go-errs"
)

const (
	ErrInvalidPostID          = errs.InvalidArgumentError("invalid post ID")
	ErrInvalidPostDescription = errs.InvalidArgumentError("invalid post description")
	ErrPostNotFound           = errs.NotFoundError("post not found")
)

const maxPostDescriptionLength = 1000

// Post with its denormalized reaction counters.
// LikesCount and DislikesCount are derived from the post_reactions records
// and written only by ApplyReactionChange.
type Post struct {
	ID                  string     `json:"id"`
	UserID              string     `json:"userID"`
	Description         string     `json:"description"`
	ImageURL            *string    `json:"imageURL,omitempty"`
	Moderated           bool       `json:"moderated"`
	OriginalDescription *string    `json:"-"`
	ModeratedAt         *time.Time `json:"moderatedAt,omitempty"`
	LikesCount          int        `json:"likesCount"`
	DislikesCount       int        `json:"dislikesCount"`
	CreatedAt           time.Time  `json:"createdAt"`

	User *User `json:"user,omitempty"`
}

type CreatePostInput struct {
	Description string
	Image       []byte
}

func (in *CreatePostInput) Prepare() {
	in.Description = smartTrim(in.Description)
}

func (in CreatePostInput) Validate() error {
	if in.Description == "" ||
		!utf8.ValidString(in.Description) ||
		utf8.RuneCountInString(in.Description) > maxPostDescriptionLength {
		return ErrInvalidPostDescription
	}
	return nil
}

// CreatePost persists a new post and fans out its side effects:
// moderation through the post-created event and a best-effort
// new-post notification to everyone else.
func (svc *Service) CreatePost(ctx context.Context, in CreatePostInput) (Post, error) {
	var out Post

	in.Prepare()
	if err := in.Validate(); err != nil {
		return out, err
	}

	usr, ok := UserFromContext(ctx)
	if !ok {
		return out, errs.Unauthenticated
	}

	var imagePath *string
	if len(in.Image) != 0 {
		resized, err := normalizeImage(bytes.NewReader(in.Image))
		if err != nil {
			return out, err
		}

		name := genID() + ".jpg"
		err = svc.Store.Store(ctx, name, resized,
			storeWithJPEG(),
			storeWithImmutableCache(),
		)
		if err != nil {
			return out, err
		}

		imagePath = &name
	}

	out = Post{
		ID:          genID(),
		UserID:      usr.ID,
		Description: in.Description,
		CreatedAt:   time.Now().UTC(),
		User:        &usr,
	}
	if imagePath != nil {
		out.ImageURL = ptr(svc.MediaURLPrefix + *imagePath)
	}

	err := svc.sqlInsertPost(ctx, sqlInsertPost{
		PostID:      out.ID,
		UserID:      out.UserID,
		Description: out.Description,
		ImagePath:   imagePath,
		CreatedAt:   out.CreatedAt,
	})
	if err != nil {
		return Post{}, err
	}

	go svc.postCreated(out, usr)

	return out, nil
}

// Posts in reverse chronological order.
func (svc *Service) Posts(ctx context.Context) ([]Post, error) {
	return svc.sqlSelectPosts(ctx)
}

// Post by ID.
func (svc *Service) Post(ctx context.Context, postID string) (Post, error) {
	if !validID(postID) {
		return Post{}, ErrInvalidPostID
	}

	return svc.sqlSelectPost(ctx, postID)
}
