package runlog

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ynm-safety/crm-import-cli/internal/model"
)

func newMockLog(t *testing.T) (*Log, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return New(mock), mock
}

func TestLog_Start(t *testing.T) {
	l, mock := newMockLog(t)

	mock.ExpectQuery(`INSERT INTO import_log`).
		WithArgs("leads.xlsx").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := l.Start(context.Background(), "leads.xlsx")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLog_Complete(t *testing.T) {
	l, mock := newMockLog(t)

	mock.ExpectExec(`UPDATE import_log`).
		WithArgs(pgxmock.AnyArg(), int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := l.Complete(context.Background(), 7, &model.ImportResult{RowsRead: 12})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLog_Fail(t *testing.T) {
	l, mock := newMockLog(t)

	mock.ExpectExec(`SET status = 'failed'`).
		WithArgs("parse error", int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := l.Fail(context.Background(), 7, "parse error")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLog_List(t *testing.T) {
	l, mock := newMockLog(t)

	started := time.Now().Add(-time.Minute)
	completed := time.Now()
	resultJSON := []byte(`{"rows_read":12,"accounts_created":3}`)
	errMsg := "boom"

	mock.ExpectQuery(`SELECT id, source, status, started_at, completed_at, result, error`).
		WithArgs(50).
		WillReturnRows(pgxmock.
			NewRows([]string{"id", "source", "status", "started_at", "completed_at", "result", "error"}).
			AddRow(int64(2), "leads.xlsx", "complete", started, &completed, resultJSON, (*string)(nil)).
			AddRow(int64(1), "old.csv", "failed", started, &completed, []byte(nil), &errMsg))

	entries, err := l.List(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "complete", entries[0].Status)
	require.NotNil(t, entries[0].Result)
	assert.Equal(t, 12, entries[0].Result.RowsRead)
	assert.Equal(t, 3, entries[0].Result.AccountsCreated)

	assert.Equal(t, "failed", entries[1].Status)
	assert.Nil(t, entries[1].Result)
	assert.Equal(t, "boom", entries[1].Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLog_List_DefaultLimit(t *testing.T) {
	l, mock := newMockLog(t)

	mock.ExpectQuery(`FROM import_log ORDER BY started_at DESC LIMIT`).
		WithArgs(100).
		WillReturnRows(pgxmock.NewRows([]string{"id", "source", "status", "started_at", "completed_at", "result", "error"}))

	entries, err := l.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}
