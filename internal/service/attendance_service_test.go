package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-proctor/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport_PresentAndAbsent(t *testing.T) {
	f := newFixture(t)
	a, b, c := f.student("Ana"), f.student("Budi"), f.student("Citra")
	exam := f.exam("", a, b, c)
	f.clock.Set(examStart)

	_, err := f.attendance.MarkPresent(f.ctx, a, exam.ID)
	require.NoError(t, err)
	_, err = f.attendance.MarkPresent(f.ctx, c, exam.ID)
	require.NoError(t, err)

	report, err := f.attendance.Report(f.ctx, exam.ID)
	require.NoError(t, err)
	require.Len(t, report.Present, 2)
	require.Len(t, report.Absent, 1)
	assert.Equal(t, b.ID, report.Absent[0].StudentID)
	assert.Equal(t, "Budi", report.Absent[0].Name)
	assert.Nil(t, report.Absent[0].MarkedAt)

	present := []uuid.UUID{report.Present[0].StudentID, report.Present[1].StudentID}
	assert.ElementsMatch(t, []uuid.UUID{a.ID, c.ID}, present)
}

func TestMarkPresent_Idempotent(t *testing.T) {
	f := newFixture(t)
	s := f.student("Ana")
	exam := f.exam("", s)
	f.clock.Set(examStart.Add(time.Minute))

	first, err := f.attendance.MarkPresent(f.ctx, s, exam.ID)
	require.NoError(t, err)

	f.clock.Advance(10 * time.Minute)
	second, err := f.attendance.MarkPresent(f.ctx, s, exam.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, first.MarkedAt.Equal(second.MarkedAt))
	assert.Equal(t, model.AttendancePresent, second.Status)

	rows, err := f.attendance.List(f.ctx, exam.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestMarkPresent_AccessRules(t *testing.T) {
	f := newFixture(t)
	s := f.student("Ana")
	outsider := f.student("Budi")
	exam := f.exam("", s)

	f.clock.Set(examStart)
	_, err := f.attendance.MarkPresent(f.ctx, outsider, exam.ID)
	assert.ErrorIs(t, err, ErrExamNotFound)

	f.clock.Set(examStart.Add(-time.Second))
	_, err = f.attendance.MarkPresent(f.ctx, s, exam.ID)
	assert.ErrorIs(t, err, ErrExamNotStarted)

	f.clock.Set(examStart.Add(time.Hour + time.Second))
	_, err = f.attendance.MarkPresent(f.ctx, s, exam.ID)
	assert.ErrorIs(t, err, ErrExamExpired)
}

func TestReport_AssignmentOptionalWithoutList(t *testing.T) {
	f := newFixture(t, withAssignmentOptional())
	walkIn := f.student("Dewi")
	exam := f.exam("")
	f.clock.Set(examStart)

	_, err := f.attendance.MarkPresent(f.ctx, walkIn, exam.ID)
	require.NoError(t, err)

	report, err := f.attendance.Report(f.ctx, exam.ID)
	require.NoError(t, err)
	assert.Len(t, report.Present, 1)
	assert.Empty(t, report.Absent)
}

func TestReport_MissingExam(t *testing.T) {
	f := newFixture(t)
	_, err := f.attendance.Report(f.ctx, uuid.New())
	assert.ErrorIs(t, err, ErrExamNotFound)
}
