package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
)

// Table is a whole dataset held in memory as strings.
type Table struct {
	Header []string
	Rows   [][]string
}

// Column returns the index of name in the header.
func (t *Table) Column(name string) (int, error) {
	idx := slices.Index(t.Header, name)
	if idx < 0 {
		return -1, fmt.Errorf("%w: %s", ErrMissingColumn, name)
	}
	return idx, nil
}

// ReadTable loads every row of the file at path.
func ReadTable(path string) (*Table, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer fh.Close()

	r := csv.NewReader(fh)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("table %s has no header", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return &Table{Header: header, Rows: rows}, nil
}

// WriteTable replaces the file at path with t. The table is written to a
// temporary file in the same directory and renamed into place.
func WriteTable(path string, t *Table) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create table directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp table: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	if err := w.Write(t.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp table: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace table: %w", err)
	}
	return nil
}
