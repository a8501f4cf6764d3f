// Package record defines the flat row shared by submissions and comments and
// the extraction of rows from listing items.
package record

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Column names of the raw dataset.
const (
	ColAuthor       = "author"
	ColIsSubmission = "is_submission"
	ColIsSubmitter  = "is_submitter"
	ColNumComments  = "num_comments"
	ColOver18       = "over_18"
	ColTag          = "tag"
	ColText         = "text"
	ColTimeCreated  = "time_created"
	ColScore        = "score"
	ColSubreddit    = "subreddit"
)

// ColTopic is added to the preprocessed corpus only.
const ColTopic = "topic"

// Columns is the default column order of the raw dataset.
var Columns = []string{
	ColAuthor,
	ColIsSubmission,
	ColIsSubmitter,
	ColNumComments,
	ColOver18,
	ColTag,
	ColText,
	ColTimeCreated,
	ColScore,
	ColSubreddit,
}

// ErrUnknownColumn is returned when a row is requested with a column the
// record does not carry.
var ErrUnknownColumn = errors.New("unknown column")

// Kind distinguishes the two record shapes.
type Kind int

// Record kinds.
const (
	KindSubmission Kind = iota + 1
	KindComment
)

func (k Kind) String() string {
	switch k {
	case KindSubmission:
		return "submission"
	case KindComment:
		return "comment"
	default:
		return "unknown"
	}
}

// Record is one row of the raw dataset. Pointer fields are null for records
// that do not carry them (comments have no reply count, adult flag or tag).
type Record struct {
	Kind         Kind
	Author       *string
	IsSubmission bool
	IsSubmitter  bool
	NumComments  *int
	Over18       *bool
	Tag          *string
	Text         string
	TimeCreated  float64
	Score        int
	Subreddit    string
}

// IsColumn reports whether name is a raw dataset column.
func IsColumn(name string) bool {
	for _, c := range Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Value renders the cell for column. Nulls render as the empty string,
// booleans as True/False.
func (r Record) Value(column string) (string, error) {
	switch column {
	case ColAuthor:
		return optString(r.Author), nil
	case ColIsSubmission:
		return formatBool(r.IsSubmission), nil
	case ColIsSubmitter:
		return formatBool(r.IsSubmitter), nil
	case ColNumComments:
		if r.NumComments == nil {
			return "", nil
		}
		return strconv.Itoa(*r.NumComments), nil
	case ColOver18:
		if r.Over18 == nil {
			return "", nil
		}
		return formatBool(*r.Over18), nil
	case ColTag:
		return optString(r.Tag), nil
	case ColText:
		return r.Text, nil
	case ColTimeCreated:
		return formatTimestamp(r.TimeCreated), nil
	case ColScore:
		return strconv.Itoa(r.Score), nil
	case ColSubreddit:
		return r.Subreddit, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}
}

// Row renders the record in the given column order.
func (r Record) Row(columns []string) ([]string, error) {
	row := make([]string, len(columns))
	for i, col := range columns {
		v, err := r.Value(col)
		if err != nil {
			return nil, err
		}
		row[i] = v
	}
	return row, nil
}

func optString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// formatTimestamp keeps epoch seconds in float form ("1700000000.0").
func formatTimestamp(ts float64) string {
	s := strconv.FormatFloat(ts, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
