package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return mock
}

func TestBulkUpsert_EmptyRows(t *testing.T) {
	mock := newMockPool(t)

	n, err := BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:        "reference_values",
		Columns:      []string{"id"},
		ConflictKeys: []string{"id"},
	}, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBulkUpsert_MissingColumns(t *testing.T) {
	mock := newMockPool(t)

	_, err := BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:        "reference_values",
		ConflictKeys: []string{"id"},
	}, [][]any{{1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns")
}

func TestBulkUpsert_MissingConflictKeys(t *testing.T) {
	mock := newMockPool(t)

	_, err := BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:   "reference_values",
		Columns: []string{"id"},
	}, [][]any{{1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no conflict keys")
}

func TestBulkUpsert_DoNothing(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_load_reference_values"`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_load_reference_values"}, []string{"id", "category", "name"}).
		WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "reference_values" .+ ON CONFLICT .+ DO NOTHING`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	n, err := BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:        "reference_values",
		Columns:      []string{"id", "category", "name"},
		ConflictKeys: []string{"category", "name"},
		DoNothing:    true,
	}, [][]any{
		{"ref-1", "state", "Telangana"},
		{"ref-2", "state", "Kerala"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsert_UpdateOnConflict(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_load_accounts"}, []string{"id", "name", "company_stage"}).
		WillReturnResult(1)
	mock.ExpectExec(`DO UPDATE SET "name" = EXCLUDED\."name", "company_stage" = EXCLUDED\."company_stage"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	n, err := BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:        "accounts",
		Columns:      []string{"id", "name", "company_stage"},
		ConflictKeys: []string{"id"},
	}, [][]any{{"acct-1", "Acme Corp", "Customer"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConflictAction_ExplicitUpdateCols(t *testing.T) {
	action := conflictAction(UpsertConfig{
		Columns:      []string{"id", "name", "stage"},
		ConflictKeys: []string{"id"},
		UpdateCols:   []string{"stage"},
	})
	assert.Equal(t, `DO UPDATE SET "stage" = EXCLUDED."stage"`, action)
}

func TestSanitizeTable_SchemaQualified(t *testing.T) {
	assert.Equal(t, `"crm"."accounts"`, sanitizeTable("crm.accounts"))
	assert.Equal(t, `"accounts"`, sanitizeTable("accounts"))
}
