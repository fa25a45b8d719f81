package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-proctor/internal/model"
	"github.com/stemsi/exstem-proctor/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, &model.User{Name: "Ana", Email: "ana@example.com", Role: model.RoleStudent}))
	err := s.CreateUser(ctx, &model.User{Name: "Ana 2", Email: "ANA@example.com", Role: model.RoleStudent})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestCreateResult_OnePerPair(t *testing.T) {
	s := New()
	ctx := context.Background()
	examID, studentID := uuid.New(), uuid.New()

	first := &model.Result{ExamID: examID, StudentID: studentID, Status: model.ResultStatusPending}
	require.NoError(t, s.CreateResult(ctx, first))

	err := s.CreateResult(ctx, &model.Result{ExamID: examID, StudentID: studentID, Status: model.ResultStatusPending})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	got, err := s.GetResultByExamAndStudent(ctx, examID, studentID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}

func TestMarkAttendance_ReturnsOriginal(t *testing.T) {
	s := New()
	ctx := context.Background()
	examID, studentID := uuid.New(), uuid.New()
	first := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	a := &model.Attendance{ExamID: examID, StudentID: studentID, Status: model.AttendancePresent, MarkedAt: first}
	created, err := s.MarkAttendance(ctx, a)
	require.NoError(t, err)
	assert.True(t, created)

	again := &model.Attendance{ExamID: examID, StudentID: studentID, Status: model.AttendancePresent, MarkedAt: first.Add(time.Minute)}
	created, err = s.MarkAttendance(ctx, again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, a.ID, again.ID)
	assert.True(t, again.MarkedAt.Equal(first))

	rows, err := s.ListAttendance(ctx, examID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestGetExam_ReturnsCopy(t *testing.T) {
	s := New()
	ctx := context.Background()

	e := &model.Exam{
		Title:     "Algebra",
		Questions: []model.Question{{ID: uuid.New(), Text: "1+1", Type: model.QuestionTypeShort}},
	}
	require.NoError(t, s.CreateExam(ctx, e))

	got, err := s.GetExam(ctx, e.ID)
	require.NoError(t, err)
	got.Questions[0].Text = "changed"
	got.AssignedTo = append(got.AssignedTo, uuid.New())

	again, err := s.GetExam(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "1+1", again.Questions[0].Text)
	assert.Empty(t, again.AssignedTo)
}

func TestSaveEvaluation_OnlyPending(t *testing.T) {
	s := New()
	ctx := context.Background()

	res := &model.Result{ExamID: uuid.New(), StudentID: uuid.New(), Status: model.ResultStatusPending}
	require.NoError(t, s.CreateResult(ctx, res))

	res.Status = model.ResultStatusEvaluated
	res.Score = 7
	require.NoError(t, s.SaveEvaluation(ctx, res, true))

	res.Score = 9
	assert.ErrorIs(t, s.SaveEvaluation(ctx, res, true), repository.ErrNotFound)
	require.NoError(t, s.SaveEvaluation(ctx, res, false))

	got, err := s.GetResult(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, 9.0, got.Score)
}

func TestAddAssignments_SkipsExisting(t *testing.T) {
	s := New()
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	e := &model.Exam{Title: "Physics", AssignedTo: []uuid.UUID{a}}
	require.NoError(t, s.CreateExam(ctx, e))

	added, err := s.AddAssignments(ctx, e.ID, []uuid.UUID{a, b, b})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	got, err := s.GetExam(ctx, e.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{a, b}, got.AssignedTo)
}

func TestGetUsersByIDs_CollapsesRepeats(t *testing.T) {
	s := New()
	ctx := context.Background()

	bo := &model.User{Name: "Bo", Email: "bo@example.com", Role: model.RoleStudent}
	ana := &model.User{Name: "Ana", Email: "ana@example.com", Role: model.RoleStudent}
	require.NoError(t, s.CreateUser(ctx, bo))
	require.NoError(t, s.CreateUser(ctx, ana))

	users, err := s.GetUsersByIDs(ctx, []uuid.UUID{bo.ID, uuid.New(), ana.ID, bo.ID})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Ana", users[0].Name)
	assert.Equal(t, "Bo", users[1].Name)
}

func TestListAttendance_MarkingOrder(t *testing.T) {
	s := New()
	ctx := context.Background()
	examID := uuid.New()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	zoe := &model.User{Name: "Zoe", Email: "zoe@example.com", Role: model.RoleStudent}
	ana := &model.User{Name: "Ana", Email: "ana@example.com", Role: model.RoleStudent}
	require.NoError(t, s.CreateUser(ctx, zoe))
	require.NoError(t, s.CreateUser(ctx, ana))

	for _, u := range []*model.User{zoe, ana} {
		_, err := s.MarkAttendance(ctx, &model.Attendance{ExamID: examID, StudentID: u.ID, Status: model.AttendancePresent, MarkedAt: at})
		require.NoError(t, err)
	}
	_, err := s.MarkAttendance(ctx, &model.Attendance{ExamID: uuid.New(), StudentID: ana.ID, Status: model.AttendancePresent, MarkedAt: at})
	require.NoError(t, err)

	rows, err := s.ListAttendance(ctx, examID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Zoe", rows[0].StudentName)
	assert.Equal(t, "zoe@example.com", rows[0].StudentEmail)
	assert.Equal(t, "Ana", rows[1].StudentName)
}
