// Package dataset persists records to a comma-delimited file with a header row.
// During collection the file only grows; preprocessing rewrites a whole table.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/JakeFAU/forum-corpus/internal/record"
)

// ErrMissingColumn is returned when a required column is absent from a header.
var ErrMissingColumn = errors.New("dataset: missing column")

// Summary describes the contents of an existing dataset.
type Summary struct {
	// Rows is the number of data rows (header excluded).
	Rows int
	// LastForum is the last distinct subreddit in order of first appearance,
	// or empty when the file holds no data rows.
	LastForum string
}

// File is an append-only dataset on disk.
type File struct {
	path    string
	columns []string
}

// New returns a File for path writing the given columns. Nil columns select
// record.Columns.
func New(path string, columns []string) (*File, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("dataset path is required")
	}
	if len(columns) == 0 {
		columns = record.Columns
	}
	for _, c := range columns {
		if !record.IsColumn(c) {
			return nil, fmt.Errorf("%w: %q", record.ErrUnknownColumn, c)
		}
	}
	if !slices.Contains(columns, record.ColSubreddit) {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, record.ColSubreddit)
	}
	if !slices.Contains(columns, record.ColText) {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, record.ColText)
	}
	return &File{path: path, columns: slices.Clone(columns)}, nil
}

// Path returns the location of the file.
func (f *File) Path() string { return f.path }

// Columns returns the header written by Init.
func (f *File) Columns() []string { return slices.Clone(f.columns) }

// Exists reports whether the dataset file is present.
func (f *File) Exists() (bool, error) {
	info, err := os.Stat(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat dataset: %w", err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("dataset path %s is a directory", f.path)
	}
	return true, nil
}

// Init creates (or truncates) the file with just the header row.
func (f *File) Init() error {
	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create dataset directory: %w", err)
		}
	}
	fh, err := os.OpenFile(f.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("create dataset: %w", err)
	}
	w := csv.NewWriter(fh)
	if err := w.Write(f.columns); err != nil {
		_ = fh.Close()
		return fmt.Errorf("write header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = fh.Close()
		return fmt.Errorf("write header: %w", err)
	}
	return fh.Close()
}

// Append writes records at the end of the file without a header.
func (f *File) Append(records []record.Record) error {
	if len(records) == 0 {
		return nil
	}
	fh, err := os.OpenFile(f.path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open dataset for append: %w", err)
	}
	w := csv.NewWriter(fh)
	for _, rec := range records {
		row, err := rec.Row(f.columns)
		if err != nil {
			_ = fh.Close()
			return err
		}
		if err := w.Write(row); err != nil {
			_ = fh.Close()
			return fmt.Errorf("append row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = fh.Close()
		return fmt.Errorf("append rows: %w", err)
	}
	if err := fh.Close(); err != nil {
		return fmt.Errorf("close dataset: %w", err)
	}
	return nil
}

// Scan reads the existing file and reports its row count and the forum the
// last batch came from.
func (f *File) Scan() (Summary, error) {
	fh, err := os.Open(f.path)
	if err != nil {
		return Summary{}, fmt.Errorf("open dataset: %w", err)
	}
	defer fh.Close()

	r := csv.NewReader(fh)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return Summary{}, nil
	}
	if err != nil {
		return Summary{}, fmt.Errorf("read header: %w", err)
	}
	idx := slices.Index(header, record.ColSubreddit)
	if idx < 0 {
		return Summary{}, fmt.Errorf("%w: %s", ErrMissingColumn, record.ColSubreddit)
	}

	var sum Summary
	seen := make(map[string]struct{})
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Summary{}, fmt.Errorf("read row %d: %w", sum.Rows+1, err)
		}
		sum.Rows++
		forum := row[idx]
		if _, ok := seen[forum]; !ok {
			seen[forum] = struct{}{}
			sum.LastForum = forum
		}
	}
	return sum, nil
}
