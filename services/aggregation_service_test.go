package services

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePeriod(t *testing.T) {
	assert.NoError(t, ValidatePeriod("daily"))
	assert.NoError(t, ValidatePeriod("hourly"))
	assert.Error(t, ValidatePeriod("weekly"))
	assert.Error(t, ValidatePeriod(""))
}

func TestRunAggregationInvokesStoredFunction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sourceID := 4
	mock.ExpectExec(`SELECT aggregate_analytics\(\$1, \$2\)`).
		WithArgs("daily", sourceID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, RunAggregation(db, "daily", &sourceID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunAggregationAllSources(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`SELECT aggregate_analytics\(\$1, \$2\)`).
		WithArgs("hourly", nil).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, RunAggregation(db, "hourly", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunAggregationRejectsUnknownPeriod(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	err = RunAggregation(db, "monthly", nil)
	assert.Error(t, err)
	// the database is never reached for an invalid period
	assert.NoError(t, mock.ExpectationsWereMet())
}
