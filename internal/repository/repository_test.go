package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stemsi/quizguard-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestRecordTabSwitch_CommitsCountUpdate(t *testing.T) {
	mock := newMock(t)
	repo := NewAttemptRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM quiz_attempts").
		WithArgs(int64(1), int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec("INSERT INTO quiz_tab_switches").
		WithArgs(int64(1), int64(2)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(1), int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(2)))
	mock.ExpectExec(`tab_switch_count = \$1, updated_at`).
		WithArgs(2, int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	out, err := repo.RecordTabSwitch(context.Background(), 1, 2, func(count int) bool { return count >= 4 })

	require.NoError(t, err)
	assert.Equal(t, &TabSwitchOutcome{AttemptID: 7, Count: 2, Submitted: false}, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordTabSwitch_SubmitsInSameTransaction(t *testing.T) {
	mock := newMock(t)
	repo := NewAttemptRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM quiz_attempts").
		WithArgs(int64(1), int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec("INSERT INTO quiz_tab_switches").
		WithArgs(int64(1), int64(2)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(1), int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(4)))
	mock.ExpectExec("status = 'submitted', submitted_at").
		WithArgs(4, int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	out, err := repo.RecordTabSwitch(context.Background(), 1, 2, func(count int) bool { return count >= 4 })

	require.NoError(t, err)
	assert.True(t, out.Submitted)
	assert.Equal(t, 4, out.Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordTabSwitch_NoActiveAttemptRollsBack(t *testing.T) {
	mock := newMock(t)
	repo := NewAttemptRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM quiz_attempts").
		WithArgs(int64(1), int64(2)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	out, err := repo.RecordTabSwitch(context.Background(), 1, 2, func(int) bool { return false })

	assert.Nil(t, out)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAttempt_MissingReference(t *testing.T) {
	mock := newMock(t)
	repo := NewAttemptRepository(mock)

	mock.ExpectQuery("INSERT INTO quiz_attempts").
		WithArgs(int64(1), int64(99), model.AttemptStatusInProgress).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	err := repo.Create(context.Background(), &model.Attempt{QuizID: 1, StudentID: 99})

	assert.ErrorIs(t, err, ErrReferenceMissing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprove_CommitsBothWrites(t *testing.T) {
	mock := newMock(t)
	repo := NewResumeRequestRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT quiz_id, student_id, attempt_id, status").
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"quiz_id", "student_id", "attempt_id", "status"}).
			AddRow(int64(1), int64(2), int64(9), "pending"))
	mock.ExpectExec("UPDATE resume_requests").
		WithArgs(int64(5)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE quiz_attempts").
		WithArgs(int64(9)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	res, err := repo.Approve(context.Background(), 5)

	require.NoError(t, err)
	assert.Equal(t, &ResolvedRequest{ID: 5, QuizID: 1, StudentID: 2, AttemptID: 9}, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprove_AttemptUpdateFailureRollsBack(t *testing.T) {
	mock := newMock(t)
	repo := NewResumeRequestRepository(mock)
	dbErr := errors.New("connection reset")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT quiz_id, student_id, attempt_id, status").
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"quiz_id", "student_id", "attempt_id", "status"}).
			AddRow(int64(1), int64(2), int64(9), "pending"))
	mock.ExpectExec("UPDATE resume_requests").
		WithArgs(int64(5)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE quiz_attempts").
		WithArgs(int64(9)).
		WillReturnError(dbErr)
	mock.ExpectRollback()

	res, err := repo.Approve(context.Background(), 5)

	assert.Nil(t, res)
	assert.ErrorIs(t, err, dbErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprove_AttemptNotSubmittedRollsBack(t *testing.T) {
	mock := newMock(t)
	repo := NewResumeRequestRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT quiz_id, student_id, attempt_id, status").
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"quiz_id", "student_id", "attempt_id", "status"}).
			AddRow(int64(1), int64(2), int64(9), "pending"))
	mock.ExpectExec("UPDATE resume_requests").
		WithArgs(int64(5)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE quiz_attempts").
		WithArgs(int64(9)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	_, err := repo.Approve(context.Background(), 5)

	assert.ErrorIs(t, err, ErrAttemptNotSubmitted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprove_AlreadyResolved(t *testing.T) {
	mock := newMock(t)
	repo := NewResumeRequestRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT quiz_id, student_id, attempt_id, status").
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"quiz_id", "student_id", "attempt_id", "status"}).
			AddRow(int64(1), int64(2), int64(9), "rejected"))
	mock.ExpectRollback()

	_, err := repo.Approve(context.Background(), 5)

	assert.ErrorIs(t, err, ErrRequestNotPending)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReject_LeavesAttemptAlone(t *testing.T) {
	mock := newMock(t)
	repo := NewResumeRequestRepository(mock)
	reason := "switched tabs deliberately"

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT quiz_id, student_id, attempt_id, status").
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"quiz_id", "student_id", "attempt_id", "status"}).
			AddRow(int64(1), int64(2), int64(9), "pending"))
	mock.ExpectExec("UPDATE resume_requests").
		WithArgs(int64(5), &reason).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	res, err := repo.Reject(context.Background(), 5, &reason)

	require.NoError(t, err)
	assert.Equal(t, int64(9), res.AttemptID)
	// Only the request row was written; no quiz_attempts expectation was registered.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReject_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewResumeRequestRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT quiz_id, student_id, attempt_id, status").
		WithArgs(int64(404)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Reject(context.Background(), 404, nil)

	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateResumeRequest_PendingRace(t *testing.T) {
	mock := newMock(t)
	repo := NewResumeRequestRepository(mock)

	mock.ExpectQuery("INSERT INTO resume_requests").
		WithArgs(int64(1), int64(2), int64(9), "late wifi", model.ResumeRequestPending).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), &model.ResumeRequest{
		QuizID: 1, StudentID: 2, AttemptID: 9, Reason: "late wifi",
	})

	assert.ErrorIs(t, err, ErrPendingRequestExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByStatus(t *testing.T) {
	mock := newMock(t)
	repo := NewResumeRequestRepository(mock)

	mock.ExpectQuery("SELECT status, COUNT").
		WillReturnRows(pgxmock.NewRows([]string{"status", "count"}).
			AddRow("pending", int64(2)).
			AddRow("approved", int64(1)))

	counts, err := repo.CountByStatus(context.Background())

	require.NoError(t, err)
	assert.Equal(t, map[model.ResumeRequestStatus]int64{
		model.ResumeRequestPending:  2,
		model.ResumeRequestApproved: 1,
	}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}
