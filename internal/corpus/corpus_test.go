package corpus_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/forum-corpus/internal/corpus"
	"github.com/JakeFAU/forum-corpus/internal/dataset"
)

const rawHeader = "author,is_submission,is_submitter,num_comments,over_18,tag,text,time_created,score,subreddit\n"

func writeRaw(t *testing.T, rows string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "raw.csv")
	require.NoError(t, os.WriteFile(path, []byte(rawHeader+rows), 0o600))
	return path
}

func TestBuild(t *testing.T) {
	t.Parallel()

	raw := writeRaw(t,
		"alice,True,True,4,False,Help Wanted!,Check http://x.com NOW please,1700000000.0,3,golang\n"+
			",False,False,,,,check NOW please!!,1700000001.0,1,golang\n"+
			"bob,False,True,,,,ok,1700000002.0,1,golang\n"+
			"carol,True,True,0,True,,\"It's John's book, really\",1700000003.0,9,rust\n"+
			"dan,False,False,,,,something about nothing,1700000004.0,2,unmapped\n")
	out := filepath.Join(t.TempDir(), "corpus", "preprocessed.csv")

	res, err := corpus.Build(corpus.Options{
		RawPath:   raw,
		OutPath:   out,
		MinLength: 3,
		Topics:    map[string]string{"golang": "programming", "rust": "programming"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, corpus.Result{Before: 5, After: 3}, res)

	table, err := dataset.ReadTable(out)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"author", "is_submission", "is_submitter", "num_comments", "over_18",
		"tag", "text", "time_created", "score", "subreddit", "topic",
	}, table.Header)
	assert.Equal(t, [][]string{
		{"alice", "True", "True", "4", "False", "help wanted", "check now please", "1700000000.0", "3", "golang", "programming"},
		{"carol", "True", "True", "0", "True", "nan", "its johns book really", "1700000003.0", "9", "rust", "programming"},
		{"dan", "False", "False", "", "", "nan", "something about nothing", "1700000004.0", "2", "unmapped", ""},
	}, table.Rows)
}

func TestBuildMissingTagMarkers(t *testing.T) {
	t.Parallel()

	tags := []struct{ raw, want string }{
		{"", "nan"},
		{"NA", "nan"},
		{"N/A", "nan"},
		{"null", "nan"},
		{"None", "nan"},
		{"NaN", "nan"},
		{"#N/A", "nan"},
		{"<NA>", "nan"},
		{"na", "na"},
		{" NA", "na"},
		{"Nonesuch", "nonesuch"},
	}
	var rows strings.Builder
	for i, tag := range tags {
		fmt.Fprintf(&rows, "a,True,True,1,False,%s,document number %d here,1700000000.0,1,golang\n", tag.raw, i)
	}
	raw := writeRaw(t, rows.String())
	out := filepath.Join(t.TempDir(), "out.csv")

	_, err := corpus.Build(corpus.Options{RawPath: raw, OutPath: out, MinLength: 3}, nil)
	require.NoError(t, err)

	table, err := dataset.ReadTable(out)
	require.NoError(t, err)
	tagIdx, err := table.Column("tag")
	require.NoError(t, err)
	require.Len(t, table.Rows, len(tags))
	for i, tag := range tags {
		assert.Equal(t, tag.want, table.Rows[i][tagIdx], "tag %q", tag.raw)
	}
}

func TestBuildEmptyDataset(t *testing.T) {
	t.Parallel()

	raw := writeRaw(t, "")
	out := filepath.Join(t.TempDir(), "preprocessed.csv")

	res, err := corpus.Build(corpus.Options{RawPath: raw, OutPath: out}, nil)
	require.NoError(t, err)
	assert.Equal(t, corpus.Result{}, res)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, rawHeader[:len(rawHeader)-1]+",topic\n", string(data))
}

func TestBuildMissingInput(t *testing.T) {
	t.Parallel()

	_, err := corpus.Build(corpus.Options{
		RawPath: filepath.Join(t.TempDir(), "absent.csv"),
		OutPath: filepath.Join(t.TempDir(), "out.csv"),
	}, nil)
	assert.Error(t, err)
}

func TestBuildRequiresTextColumn(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "raw.csv")
	require.NoError(t, os.WriteFile(path, []byte("subreddit\ngolang\n"), 0o600))
	_, err := corpus.Build(corpus.Options{RawPath: path, OutPath: filepath.Join(t.TempDir(), "o.csv")}, nil)
	assert.ErrorIs(t, err, dataset.ErrMissingColumn)
}
