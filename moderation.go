package pulso

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"
)

// DefaultBannedWords redacted from post descriptions,
// matching the word list the clients were shipped with.
var DefaultBannedWords = []string{
	"puto", "puta", "mierda", "carajo", "joder", "coño",
	"pendejo", "cabrón", "idiota", "estúpido", "imbécil",
	"shit", "fuck", "damn", "bitch", "asshole", "bastard",
}

const redactedMark = "[REDACTED]"

var bannedWordsCache sync.Map

func bannedWordRegexp(word string) *regexp.Regexp {
	if re, ok := bannedWordsCache.Load(word); ok {
		return re.(*regexp.Regexp)
	}

	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(word))
	bannedWordsCache.Store(word, re)
	return re
}

func (svc *Service) bannedWords() []string {
	if len(svc.BannedWords) != 0 {
		return svc.BannedWords
	}
	return DefaultBannedWords
}

// moderateContent redacts banned words.
// It reports whether anything was redacted.
func moderateContent(text string, words []string) (string, bool) {
	moderated := text
	for _, word := range words {
		moderated = bannedWordRegexp(word).ReplaceAllString(moderated, redactedMark)
	}
	return moderated, moderated != text
}

// moderatePost runs on every post-created event. When the description
// contains banned words it is redacted in place, keeping the original text
// and flagging the post, and the updated post is re-broadcast.
func (svc *Service) moderatePost(ctx context.Context, p Post) error {
	moderated, dirty := moderateContent(p.Description, svc.bannedWords())
	if !dirty {
		return nil
	}

	err := svc.sqlUpdatePostModeration(ctx, sqlUpdatePostModeration{
		PostID:              p.ID,
		Description:         moderated,
		OriginalDescription: p.Description,
		ModeratedAt:         time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("could not moderate post: %w", err)
	}

	metricModeratedPosts.Inc()
	_ = svc.Logger.Log("msg", "post moderated", "post_id", p.ID)

	updated, err := svc.sqlSelectPost(ctx, p.ID)
	if err == nil {
		svc.broadcastPost(updated)
	}

	return nil
}
