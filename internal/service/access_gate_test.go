package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_WindowBoundaries(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want error
	}{
		{"one second before start", examStart.Add(-time.Second), ErrExamNotStarted},
		{"exactly at start", examStart, nil},
		{"inside window", examStart.Add(30 * time.Minute), nil},
		{"exactly at end", examStart.Add(time.Hour), nil},
		{"one second after end", examStart.Add(time.Hour + time.Second), ErrExamExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			s := f.student("Ana")
			exam := f.exam("", s)
			f.clock.Set(tt.at)

			view, err := f.gate.Open(f.ctx, s, exam.ID, "")
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				assert.Nil(t, view)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, exam.ID, view.ID)
			assert.Len(t, view.Questions, len(exam.Questions))
		})
	}
}

func TestOpen_CheckOrder(t *testing.T) {
	f := newFixture(t)
	assigned := f.student("Ana")
	outsider := f.student("Budi")
	exam := f.exam("SECRET", assigned)
	f.clock.Set(examStart.Add(-time.Minute))

	_, err := f.gate.Open(f.ctx, assigned, uuid.New(), "wrong")
	assert.ErrorIs(t, err, ErrExamNotFound)

	_, err = f.gate.Open(f.ctx, outsider, exam.ID, "wrong")
	assert.ErrorIs(t, err, ErrNotAssigned, "assignment is checked before the code")

	_, err = f.gate.Open(f.ctx, assigned, exam.ID, "wrong")
	assert.ErrorIs(t, err, ErrInvalidProctorCode, "code is checked before the window")

	_, err = f.gate.Open(f.ctx, assigned, exam.ID, "SECRET")
	assert.ErrorIs(t, err, ErrExamNotStarted)
}

func TestOpen_ProctorCodeIsCaseSensitive(t *testing.T) {
	f := newFixture(t)
	s := f.student("Ana")
	exam := f.exam("Secret", s)
	f.clock.Set(examStart)

	_, err := f.gate.Open(f.ctx, s, exam.ID, "secret")
	assert.ErrorIs(t, err, ErrInvalidProctorCode)

	_, err = f.gate.Open(f.ctx, s, exam.ID, "")
	assert.ErrorIs(t, err, ErrInvalidProctorCode)

	_, err = f.gate.Open(f.ctx, s, exam.ID, "Secret")
	assert.NoError(t, err)
}

func TestOpen_AssignmentOptional(t *testing.T) {
	f := newFixture(t, withAssignmentOptional())
	outsider := f.student("Budi")
	exam := f.exam("")
	f.clock.Set(examStart)

	_, err := f.gate.Open(f.ctx, outsider, exam.ID, "")
	assert.NoError(t, err)
}

func TestOpen_ViewNeverContainsAnswerKey(t *testing.T) {
	f := newFixture(t)
	s := f.student("Ana")
	exam := f.exam("", s)
	f.clock.Set(examStart)

	view, err := f.gate.Open(f.ctx, s, exam.ID, "")
	require.NoError(t, err)

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "correct_answer")

	var decoded struct {
		Questions []map[string]any `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded.Questions, 5)
	types := map[string]bool{}
	for _, q := range decoded.Questions {
		assert.NotContains(t, q, "correct_answer")
		types[q["type"].(string)] = true
	}
	assert.Len(t, types, 5, "every question type is covered")
	assert.NotContains(t, string(raw), "Paris")
}

func TestOpen_MarksAttendance(t *testing.T) {
	f := newFixture(t)
	s := f.student("Ana")
	exam := f.exam("", s)
	f.clock.Set(examStart.Add(5 * time.Minute))

	_, err := f.gate.Open(f.ctx, s, exam.ID, "")
	require.NoError(t, err)

	rows, err := f.attendance.List(f.ctx, exam.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, s.ID, rows[0].StudentID)
	assert.True(t, rows[0].MarkedAt.Equal(examStart.Add(5*time.Minute)))
}

func TestVerifyProctorCode(t *testing.T) {
	f := newFixture(t)
	s := f.student("Ana")
	exam := f.exam("CODE", s)
	f.clock.Set(examStart)

	assert.NoError(t, f.gate.VerifyProctorCode(f.ctx, s, exam.ID, "CODE"))
	assert.ErrorIs(t, f.gate.VerifyProctorCode(f.ctx, s, exam.ID, "code"), ErrInvalidProctorCode)

	rows, err := f.attendance.List(f.ctx, exam.ID)
	require.NoError(t, err)
	assert.Empty(t, rows, "verification alone does not mark attendance")
}
