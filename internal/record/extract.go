package record

import (
	"strings"

	"github.com/JakeFAU/forum-corpus/internal/reddit"
)

// Extract converts a listing item into a Record. ok is false for items that
// are neither submissions nor comments.
func Extract(item reddit.Item) (rec Record, ok bool) {
	switch it := item.(type) {
	case *reddit.Submission:
		return FromSubmission(it), true
	case *reddit.Comment:
		return FromComment(it), true
	default:
		return Record{}, false
	}
}

// FromSubmission builds the record for a top-level post. Its text is the title
// and self text joined by a space.
func FromSubmission(s *reddit.Submission) Record {
	numComments := s.NumComments
	over18 := s.Over18
	return Record{
		Kind:         KindSubmission,
		Author:       cloneString(s.Author),
		IsSubmission: true,
		IsSubmitter:  true,
		NumComments:  &numComments,
		Over18:       &over18,
		Tag:          cloneString(s.LinkFlairText),
		Text:         stripCommas(s.Title + " " + s.Selftext),
		TimeCreated:  s.CreatedUTC,
		Score:        s.Score,
		Subreddit:    s.Subreddit,
	}
}

// FromComment builds the record for a comment.
func FromComment(c *reddit.Comment) Record {
	return Record{
		Kind:         KindComment,
		Author:       cloneString(c.Author),
		IsSubmission: false,
		IsSubmitter:  c.IsSubmitter,
		Text:         stripCommas(c.Body),
		TimeCreated:  c.CreatedUTC,
		Score:        c.Score,
		Subreddit:    c.Subreddit,
	}
}

// stripCommas keeps text safe for the comma-delimited dataset.
func stripCommas(s string) string {
	return strings.ReplaceAll(s, ",", "")
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
