package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/forum-corpus/internal/collector"
)

func TestRecordBatchInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "")
	require.NoError(t, err)

	batch := collector.Batch{
		RunID:      "run-1",
		Subreddit:  "golang",
		Collected:  120,
		Duplicates: 4,
		Short:      30,
		Forbidden:  true,
		FinishedAt: time.Unix(1700000000, 0).UTC(),
	}
	mock.ExpectExec("INSERT INTO collection_batches").
		WithArgs(batch.RunID, batch.Subreddit, 120, 4, 30, true, batch.FinishedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.RecordBatch(context.Background(), batch))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordBatchPropagatesError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "batches")
	require.NoError(t, err)

	violation := errors.New("unique violation")
	batch := collector.Batch{RunID: "run-1", Subreddit: "golang", Collected: 3, FinishedAt: time.Unix(1700000000, 0).UTC()}
	mock.ExpectExec("INSERT INTO batches").
		WithArgs(batch.RunID, batch.Subreddit, 3, 0, 0, false, batch.FinishedAt).
		WillReturnError(violation)

	err = store.RecordBatch(context.Background(), batch)
	require.ErrorIs(t, err, violation)
	assert.Contains(t, err.Error(), "run-1/golang")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordBatchRequiresRunID(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "")
	require.NoError(t, err)
	assert.Error(t, store.RecordBatch(context.Background(), collector.Batch{Subreddit: "golang"}))
}

func TestEnsureSchema(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "")
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS collection_batches").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewWithPoolValidation(t *testing.T) {
	t.Parallel()

	_, err := NewWithPool(nil, "")
	assert.Error(t, err)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	_, err = NewWithPool(mock, "bad-name; DROP TABLE")
	assert.Error(t, err)
}

func TestNewRequiresDSN(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{})
	assert.Error(t, err)
	_, err = New(context.Background(), Config{DSN: "postgres://user@localhost:notaport/db"})
	assert.Error(t, err)
}

func TestCloseNil(t *testing.T) {
	t.Parallel()

	var s *Store
	s.Close()
}
