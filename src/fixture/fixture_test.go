package fixture

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	insertSQL = `INSERT INTO "tr"."trades" ("quantity","price","commission_amount","commission_currency") VALUES ($1,$2,$3,$4) RETURNING "id"`
	selectSQL = `SELECT * FROM "tr"."trades" WHERE "trades"."id" = $1 ORDER BY "trades"."id" LIMIT $2`
)

func setupDBMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func expectInsertAndReadBack(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(insertSQL)).
		WithArgs("2", "3", "1", "USD").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	mock.ExpectQuery(regexp.QuoteMeta(selectSQL)).
		WithArgs(uint(1), 1).
		WillReturnRows(tradeRows("2", "3", "1", "USD"))
}

func tradeRows(quantity, price, amount, currency string) *sqlmock.Rows {
	return sqlmock.
		NewRows([]string{"id", "quantity", "price", "commission_amount", "commission_currency"}).
		AddRow(1, quantity, price, amount, currency)
}

// Replacing the commission wholesale drops the default-valued amount from
// the update, so the stored amount survives and the final read-back
// disagrees with what the scenario wrote in exactly that field.
func TestRunReplaceCommissionReportsAmountDivergence(t *testing.T) {
	db, mock := setupDBMock(t)

	expectInsertAndReadBack(mock)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "tr"."trades" SET "quantity"=$1,"price"=$2,"commission_currency"=$3 WHERE "id" = $4`)).
		WithArgs("4", "5", "EUR", uint(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// The row keeps the inserted amount of 1.
	mock.ExpectQuery(regexp.QuoteMeta(selectSQL)).
		WithArgs(uint(1), 1).
		WillReturnRows(tradeRows("4", "5", "1", "EUR"))

	report, err := Run(context.Background(), db, PathReplaceCommission)
	require.NoError(t, err)
	require.True(t, report.Diverged())
	require.Len(t, report.Mismatches, 1)
	require.Equal(t, "commission_amount", report.Mismatches[0].Field)
	require.Equal(t, "0", report.Mismatches[0].Expected)
	require.Equal(t, "1", report.Mismatches[0].Actual)

	require.NoError(t, mock.ExpectationsWereMet())
}

// Mutating the tracked commission in place commits every column, so the
// final read-back matches the written values field for field.
func TestRunMutateCommissionPersistsEveryField(t *testing.T) {
	db, mock := setupDBMock(t)

	expectInsertAndReadBack(mock)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "tr"."trades" SET "quantity"=$1,"price"=$2,"commission_amount"=$3,"commission_currency"=$4 WHERE "id" = $5`)).
		WithArgs("4", "5", "0", "EUR", uint(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectQuery(regexp.QuoteMeta(selectSQL)).
		WithArgs(uint(1), 1).
		WillReturnRows(tradeRows("4", "5", "0", "EUR"))

	report, err := Run(context.Background(), db, PathMutateCommission)
	require.NoError(t, err)
	require.False(t, report.Diverged(), "unexpected mismatches: %+v", report.Mismatches)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRejectsUnknownPath(t *testing.T) {
	db, _ := setupDBMock(t)

	_, err := Run(context.Background(), db, UpdatePath("upsert"))
	require.Error(t, err)
}
