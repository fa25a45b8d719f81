package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-proctor/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate_RejectsEndNotAfterStart(t *testing.T) {
	f := newFixture(t)

	for _, end := range []time.Time{examStart, examStart.Add(-time.Minute)} {
		_, err := f.exams.Create(f.ctx, f.admin, model.CreateExamRequest{
			Title:         "Broken",
			ExamStartTime: examStart,
			ExamEndTime:   end,
			Questions:     sampleQuestions(),
		})
		assert.ErrorIs(t, err, ErrInvalidTimeWindow)
	}

	exams, _, err := f.exams.List(f.ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, exams)
}

func TestCreate_DefaultsAndDerivedFields(t *testing.T) {
	f := newFixture(t)
	s := f.student("Ana")

	exam := f.exam("", s)

	assert.Equal(t, 60, exam.DurationMinutes)
	assert.Equal(t, f.admin.ID, exam.CreatedBy)
	assert.Equal(t, []uuid.UUID{s.ID}, exam.AssignedTo)
	require.Len(t, exam.Questions, 5)

	ids := map[uuid.UUID]bool{}
	for _, q := range exam.Questions {
		assert.NotEqual(t, uuid.Nil, q.ID)
		ids[q.ID] = true
	}
	assert.Len(t, ids, 5)

	mcq := exam.Questions[0]
	assert.Equal(t, float64(model.DefaultMaxMarks), mcq.MaxMarks)
	assert.True(t, mcq.AllowWrittenAnswer)
	assert.True(t, mcq.AllowFileUpload)
	assert.JSONEq(t, `1`, string(mcq.CorrectAnswer))

	assert.Equal(t, 5.0, exam.Questions[2].MaxMarks)
	assert.False(t, exam.Questions[3].AllowFileUpload)
}

func TestCreate_RejectsNonStudentAssignees(t *testing.T) {
	f := newFixture(t)
	evaluator := f.user(model.RoleEvaluator, "Eve")

	_, err := f.exams.Create(f.ctx, f.admin, model.CreateExamRequest{
		Title:         "Midterm",
		ExamStartTime: examStart,
		ExamEndTime:   examStart.Add(time.Hour),
		Questions:     sampleQuestions(),
		AssignedTo:    []uuid.UUID{evaluator.ID},
	})
	assert.ErrorIs(t, err, ErrInvalidStudents)

	_, err = f.exams.Create(f.ctx, f.admin, model.CreateExamRequest{
		Title:         "Midterm",
		ExamStartTime: examStart,
		ExamEndTime:   examStart.Add(time.Hour),
		Questions:     sampleQuestions(),
		AssignedTo:    []uuid.UUID{uuid.New()},
	})
	assert.ErrorIs(t, err, ErrInvalidStudents)
}

func TestUpdate_OwnerOnly(t *testing.T) {
	f := newFixture(t)
	exam := f.exam("")
	other := f.user(model.RoleAdmin, "Other admin")

	_, err := f.exams.Update(f.ctx, other, exam.ID, model.UpdateExamRequest{Title: ptr("Hijacked")})
	assert.ErrorIs(t, err, ErrNotExamOwner)

	_, err = f.exams.Update(f.ctx, f.admin, uuid.New(), model.UpdateExamRequest{Title: ptr("Nope")})
	assert.ErrorIs(t, err, ErrExamNotFound)

	updated, err := f.exams.Update(f.ctx, f.admin, exam.ID, model.UpdateExamRequest{Title: ptr("Final")})
	require.NoError(t, err)
	assert.Equal(t, "Final", updated.Title)
}

func TestUpdate_RevalidatesMergedWindow(t *testing.T) {
	f := newFixture(t)
	exam := f.exam("")

	_, err := f.exams.Update(f.ctx, f.admin, exam.ID, model.UpdateExamRequest{
		ExamStartTime: ptr(examStart.Add(2 * time.Hour)),
	})
	assert.ErrorIs(t, err, ErrInvalidTimeWindow)

	updated, err := f.exams.Update(f.ctx, f.admin, exam.ID, model.UpdateExamRequest{
		ExamEndTime: ptr(examStart.Add(90 * time.Minute)),
	})
	require.NoError(t, err)
	assert.Equal(t, 90, updated.DurationMinutes)
}

func TestUpdate_KeepsQuestionIDs(t *testing.T) {
	f := newFixture(t)
	exam := f.exam("")
	keptID := exam.Questions[0].ID

	updated, err := f.exams.Update(f.ctx, f.admin, exam.ID, model.UpdateExamRequest{
		Questions: []model.QuestionInput{
			{ID: &keptID, Text: "2+3?", Type: model.QuestionTypeMCQ, Options: []string{"5", "6"}, CorrectAnswer: json.RawMessage(`0`)},
			{Text: "New essay", Type: model.QuestionTypeLong},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Questions, 2)
	assert.Equal(t, keptID, updated.Questions[0].ID)
	assert.NotEqual(t, uuid.Nil, updated.Questions[1].ID)

	unknown := uuid.New()
	_, err = f.exams.Update(f.ctx, f.admin, exam.ID, model.UpdateExamRequest{
		Questions: []model.QuestionInput{{ID: &unknown, Text: "x", Type: model.QuestionTypeLong}},
	})
	assert.ErrorIs(t, err, ErrInvalidQuestions)
}

func TestAssignAndAddStudents(t *testing.T) {
	f := newFixture(t)
	a, b, c := f.student("Ana"), f.student("Budi"), f.student("Citra")
	exam := f.exam("", a)

	replaced, err := f.exams.Assign(f.ctx, exam.ID, []uuid.UUID{b.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b.ID}, replaced.AssignedTo)

	updated, added, err := f.exams.AddStudents(f.ctx, exam.ID, []uuid.UUID{b.ID, c.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.ElementsMatch(t, []uuid.UUID{b.ID, c.ID}, updated.AssignedTo)

	_, err = f.exams.Assign(f.ctx, uuid.New(), []uuid.UUID{a.ID})
	assert.ErrorIs(t, err, ErrExamNotFound)
}

func TestListForStudent(t *testing.T) {
	f := newFixture(t)
	s := f.student("Ana")
	mine := f.exam("", s)
	f.exam("") // not assigned

	f.clock.Set(examStart)
	list, err := f.exams.ListForStudent(f.ctx, s)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)
	assert.Equal(t, 5, list[0].QuestionCount)

	f.clock.Set(examStart.Add(time.Hour + time.Second))
	list, err = f.exams.ListForStudent(f.ctx, s)
	require.NoError(t, err)
	assert.Empty(t, list, "ended exams are not listed")
}

func TestList_Paginates(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		f.exam("")
	}

	page, pagination, err := f.exams.List(f.ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page, 1)
	assert.Equal(t, 3, pagination.TotalItems)
	assert.Equal(t, 2, pagination.TotalPages)
}
