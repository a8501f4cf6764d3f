package reddit

import (
	"encoding/json"
	"fmt"
)

// Thing kinds returned by the listing endpoints.
const (
	kindComment    = "t1"
	kindSubmission = "t3"
)

// deletedAuthor is what the API reports for removed accounts.
const deletedAuthor = "[deleted]"

// Item is one entry of a listing. Concrete values are *Submission, *Comment
// or *Other.
type Item interface {
	// Fullname is the kind-prefixed identifier, e.g. "t3_abc123".
	Fullname() string
	isItem()
}

// Submission is a top-level post.
type Submission struct {
	ID            string
	Author        *string
	Title         string
	Selftext      string
	NumComments   int
	Over18        bool
	LinkFlairText *string
	CreatedUTC    float64
	Score         int
	Subreddit     string
}

// Comment is a reply inside a submission's thread.
type Comment struct {
	ID          string
	Author      *string
	Body        string
	IsSubmitter bool
	CreatedUTC  float64
	Score       int
	Subreddit   string
}

// Other is any listing entry that is neither a submission nor a comment.
type Other struct {
	Kind string
	ID   string
}

// Fullname implements Item.
func (s *Submission) Fullname() string { return kindSubmission + "_" + s.ID }

// Fullname implements Item.
func (c *Comment) Fullname() string { return kindComment + "_" + c.ID }

// Fullname implements Item.
func (o *Other) Fullname() string { return o.Kind + "_" + o.ID }

func (*Submission) isItem() {}
func (*Comment) isItem()    {}
func (*Other) isItem()      {}

type listingResponse struct {
	Kind string `json:"kind"`
	Data struct {
		After    string  `json:"after"`
		Dist     int     `json:"dist"`
		Children []thing `json:"children"`
	} `json:"data"`
}

type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type thingData struct {
	ID            string  `json:"id"`
	Author        string  `json:"author"`
	Title         string  `json:"title"`
	Selftext      string  `json:"selftext"`
	Body          string  `json:"body"`
	NumComments   int     `json:"num_comments"`
	Over18        bool    `json:"over_18"`
	LinkFlairText *string `json:"link_flair_text"`
	IsSubmitter   bool    `json:"is_submitter"`
	CreatedUTC    float64 `json:"created_utc"`
	Score         int     `json:"score"`
	Subreddit     string  `json:"subreddit"`
}

func (t thing) item() (Item, error) {
	var d thingData
	if len(t.Data) > 0 {
		if err := json.Unmarshal(t.Data, &d); err != nil {
			return nil, fmt.Errorf("decode %s: %w", t.Kind, err)
		}
	}
	switch t.Kind {
	case kindSubmission:
		return &Submission{
			ID:            d.ID,
			Author:        author(d.Author),
			Title:         d.Title,
			Selftext:      d.Selftext,
			NumComments:   d.NumComments,
			Over18:        d.Over18,
			LinkFlairText: d.LinkFlairText,
			CreatedUTC:    d.CreatedUTC,
			Score:         d.Score,
			Subreddit:     d.Subreddit,
		}, nil
	case kindComment:
		return &Comment{
			ID:          d.ID,
			Author:      author(d.Author),
			Body:        d.Body,
			IsSubmitter: d.IsSubmitter,
			CreatedUTC:  d.CreatedUTC,
			Score:       d.Score,
			Subreddit:   d.Subreddit,
		}, nil
	default:
		return &Other{Kind: t.Kind, ID: d.ID}, nil
	}
}

func author(name string) *string {
	if name == "" || name == deletedAuthor {
		return nil
	}
	return &name
}
