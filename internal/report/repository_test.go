package report

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reportCols = []string{
	"id", "reporter_id", "target_user_id", "manga_id", "target_type", "target_id",
	"chapter_number", "reason", "details", "status", "priority", "admin_note",
	"created_at", "updated_at",
}

func reportRow(id, reporterID, targetUserID int, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(reportCols).
		AddRow(id, reporterID, targetUserID, nil, TargetComment, 41,
			nil, "Spam", "", status, "medium", "", now, now)
}

func setupRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	db, mockDB, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(sqlx.NewDb(db, "sqlmock")), mockDB
}

func TestCreate(t *testing.T) {
	repo, mockDB := setupRepo(t)

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("SELECT EXISTS \\(SELECT 1 FROM comments").
		WithArgs(41).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mockDB.ExpectQuery("SELECT EXISTS \\(SELECT 1 FROM reports").
		WithArgs(10, TargetComment, 41).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mockDB.ExpectQuery("INSERT INTO reports").
		WithArgs(10, 20, nil, TargetComment, 41, nil, "Spam", "").
		WillReturnRows(reportRow(3, 10, 20, StatusPending))
	mockDB.ExpectExec("UPDATE users SET report_count = report_count \\+ 1").
		WithArgs(20).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	created, err := repo.Create(context.Background(), &Report{
		ReporterID:   10,
		TargetUserID: 20,
		TargetType:   TargetComment,
		TargetID:     41,
		Reason:       "Spam",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, created.ID)
	assert.Equal(t, StatusPending, created.Status)
	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestCreate_SelfReport(t *testing.T) {
	repo, _ := setupRepo(t)

	_, err := repo.Create(context.Background(), &Report{
		ReporterID:   10,
		TargetUserID: 10,
		TargetType:   TargetComment,
		TargetID:     41,
		Reason:       "Spam",
	})
	require.ErrorIs(t, err, ErrSelfReport)
}

func TestCreate_Duplicate(t *testing.T) {
	repo, mockDB := setupRepo(t)

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("SELECT EXISTS \\(SELECT 1 FROM comments").
		WithArgs(41).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mockDB.ExpectQuery("SELECT EXISTS \\(SELECT 1 FROM reports").
		WithArgs(10, TargetComment, 41).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mockDB.ExpectRollback()

	_, err := repo.Create(context.Background(), &Report{
		ReporterID:   10,
		TargetUserID: 20,
		TargetType:   TargetComment,
		TargetID:     41,
		Reason:       "Spam",
	})
	require.ErrorIs(t, err, ErrAlreadyFiled)
}

func TestCreate_TargetGone(t *testing.T) {
	repo, mockDB := setupRepo(t)

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("SELECT EXISTS \\(SELECT 1 FROM mangas").
		WithArgs(404).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mockDB.ExpectRollback()

	_, err := repo.Create(context.Background(), &Report{
		ReporterID:   10,
		TargetUserID: 20,
		TargetType:   TargetManga,
		TargetID:     404,
		Reason:       "Copyright Violation",
	})
	require.ErrorIs(t, err, ErrTargetNotFound)
}

func TestSetStatus_DismissReturnsStrike(t *testing.T) {
	repo, mockDB := setupRepo(t)

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("SELECT status FROM reports").
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(StatusPending))
	mockDB.ExpectQuery("UPDATE reports").
		WithArgs(StatusDismissed, "false positive", 3).
		WillReturnRows(reportRow(3, 10, 20, StatusDismissed))
	mockDB.ExpectExec("UPDATE users SET report_count = GREATEST").
		WithArgs(20).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	updated, err := repo.SetStatus(context.Background(), 3, StatusDismissed, "false positive")
	require.NoError(t, err)
	assert.Equal(t, StatusDismissed, updated.Status)
	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestSetStatus_RedismissKeepsCount(t *testing.T) {
	repo, mockDB := setupRepo(t)

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("SELECT status FROM reports").
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(StatusDismissed))
	mockDB.ExpectQuery("UPDATE reports").
		WithArgs(StatusDismissed, "", 3).
		WillReturnRows(reportRow(3, 10, 20, StatusDismissed))
	mockDB.ExpectCommit()

	_, err := repo.SetStatus(context.Background(), 3, StatusDismissed, "")
	require.NoError(t, err)
	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestSetStatus_NotFound(t *testing.T) {
	repo, mockDB := setupRepo(t)

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("SELECT status FROM reports").
		WithArgs(404).
		WillReturnRows(sqlmock.NewRows([]string{"status"}))
	mockDB.ExpectRollback()

	_, err := repo.SetStatus(context.Background(), 404, StatusResolved, "")
	require.ErrorIs(t, err, ErrReportNotFound)
}

func TestPurgeProcessed(t *testing.T) {
	repo, mockDB := setupRepo(t)

	mockDB.ExpectExec("DELETE FROM reports").
		WithArgs(StatusResolved, StatusDismissed).
		WillReturnResult(sqlmock.NewResult(0, 6))

	count, err := repo.PurgeProcessed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(6), count)
}
