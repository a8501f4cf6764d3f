// Package corpus turns the raw dataset into the normalized corpus used for
// topic modeling.
package corpus

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/JakeFAU/forum-corpus/internal/dataset"
	"github.com/JakeFAU/forum-corpus/internal/record"
	"github.com/JakeFAU/forum-corpus/internal/textnorm"
)

// nullTag is what a missing tag turns into when it is stringified before
// normalization.
const nullTag = "nan"

// Options controls a build.
type Options struct {
	RawPath string
	OutPath string
	// MinLength drops documents whose normalized text has this many
	// characters or fewer.
	MinLength int
	// Topics maps a subreddit to its topic label. Unmapped subreddits get an
	// empty topic.
	Topics map[string]string
}

// Result reports document counts around preprocessing.
type Result struct {
	Before int
	After  int
}

// Build reads the raw dataset, normalizes text and tag, drops short and
// duplicate documents, labels each with its topic and rewrites the corpus at
// OutPath.
func Build(opts Options, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	table, err := dataset.ReadTable(opts.RawPath)
	if err != nil {
		return Result{}, fmt.Errorf("read raw dataset: %w", err)
	}
	res := Result{Before: len(table.Rows)}
	logger.Info(fmt.Sprintf("Before preprocessing there are %d unique documents", res.Before))

	textIdx, err := table.Column(record.ColText)
	if err != nil {
		return res, err
	}
	subIdx, err := table.Column(record.ColSubreddit)
	if err != nil {
		return res, err
	}
	tagIdx := slices.Index(table.Header, record.ColTag)

	header := table.Header
	topicIdx := slices.Index(header, record.ColTopic)
	if topicIdx < 0 {
		header = append(slices.Clone(header), record.ColTopic)
		topicIdx = len(header) - 1
	}

	out := &dataset.Table{Header: header}
	seen := make(map[string]struct{}, len(table.Rows))
	for _, row := range table.Rows {
		text := textnorm.Normalize(row[textIdx])
		if len(text) <= opts.MinLength {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}

		doc := make([]string, len(header))
		copy(doc, row)
		doc[textIdx] = text
		if tagIdx >= 0 {
			doc[tagIdx] = normalizeTag(row[tagIdx])
		}
		doc[topicIdx] = opts.Topics[row[subIdx]]
		out.Rows = append(out.Rows, doc)
	}
	res.After = len(out.Rows)

	if err := dataset.WriteTable(opts.OutPath, out); err != nil {
		return res, fmt.Errorf("write corpus: %w", err)
	}
	logger.Info("preprocessed data stored", zap.String("path", opts.OutPath))
	logger.Info(fmt.Sprintf("After preprocessing there are %d unique documents", res.After))
	return res, nil
}

// missingTags are the cells read as a missing value: the empty cell written for
// a null flair plus the default missing-value markers of common dataframe
// readers, which earlier corpora were built with. Matching is exact.
var missingTags = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// normalizeTag normalizes a flair; a missing tag becomes nullTag.
func normalizeTag(tag string) string {
	if _, missing := missingTags[tag]; missing {
		tag = nullTag
	}
	return textnorm.Normalize(tag)
}
