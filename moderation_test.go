package pulso

import (
	"context"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func Test_moderateContent(t *testing.T) {
	words := DefaultBannedWords

	tt := []struct {
		name      string
		in        string
		want      string
		wantDirty bool
	}{
		{"clean", "qué buen día", "qué buen día", false},
		{"spanish_word", "esto es una mierda", "esto es una [REDACTED]", true},
		{"english_word", "what the fuck", "what the [REDACTED]", true},
		{"case_insensitive", "MIERDA total", "[REDACTED] total", true},
		{"multiple", "shit y mierda", "[REDACTED] y [REDACTED]", true},
		{"empty", "", "", false},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got, dirty := moderateContent(tc.in, words)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.wantDirty, dirty)
		})
	}
}

func TestService_moderatePost(t *testing.T) {
	requireDB(t)

	ctx := context.Background()
	author := genUser(t)
	asAuthor := ContextWithUser(ctx, author)

	t.Run("redacts", func(t *testing.T) {
		p, err := testService.CreatePost(asAuthor, CreatePostInput{Description: "esto es una mierda"})
		assert.NoError(t, err)

		assert.NoError(t, testService.moderatePost(ctx, p))

		got, err := testService.Post(ctx, p.ID)
		assert.NoError(t, err)
		assert.Equal(t, "esto es una [REDACTED]", got.Description)
		assert.True(t, got.Moderated)
		assert.NotZero(t, got.ModeratedAt)
	})

	t.Run("clean_post_untouched", func(t *testing.T) {
		p, err := testService.CreatePost(asAuthor, CreatePostInput{Description: "qué buen día"})
		assert.NoError(t, err)

		assert.NoError(t, testService.moderatePost(ctx, p))

		got, err := testService.Post(ctx, p.ID)
		assert.NoError(t, err)
		assert.Equal(t, "qué buen día", got.Description)
		assert.False(t, got.Moderated)
	})
}
