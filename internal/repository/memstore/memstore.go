// Package memstore is an in-process implementation of every storage port.
// It enforces the same uniqueness rules as the PostgreSQL schema and hands
// out copies so callers never share state with the store.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-proctor/internal/model"
	"github.com/stemsi/exstem-proctor/internal/repository"
)

type pairKey struct {
	examID    uuid.UUID
	studentID uuid.UUID
}

// Store holds users, exams, results and attendance in memory.
type Store struct {
	mu sync.RWMutex

	users       map[uuid.UUID]*model.User
	usersEmail  map[string]uuid.UUID
	exams       map[uuid.UUID]*model.Exam
	results     map[uuid.UUID]*model.Result
	resultPair  map[pairKey]uuid.UUID
	attendance  map[pairKey]*model.Attendance
	attendOrder []pairKey
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		users:      make(map[uuid.UUID]*model.User),
		usersEmail: make(map[string]uuid.UUID),
		exams:      make(map[uuid.UUID]*model.Exam),
		results:    make(map[uuid.UUID]*model.Result),
		resultPair: make(map[pairKey]uuid.UUID),
		attendance: make(map[pairKey]*model.Attendance),
	}
}

// ─── Users ──────────────────────────────────────────────────────────

// CreateUser stores u. Emails are unique case-insensitively.
func (s *Store) CreateUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(u.Email)
	if _, taken := s.usersEmail[key]; taken {
		return repository.ErrDuplicate
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	cp := *u
	s.users[u.ID] = &cp
	s.usersEmail[key] = u.ID
	return nil
}

// GetUserByID returns a copy of the user with id.
func (s *Store) GetUserByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// GetUserByEmail looks up a user by email, ignoring case.
func (s *Store) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersEmail[strings.ToLower(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s.users[id]
	return &cp, nil
}

// ListUsersByRole returns one page of users with role, ordered by name, and the total count.
func (s *Store) ListUsersByRole(_ context.Context, role model.Role, limit, offset int) ([]model.User, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := []model.User{}
	for _, u := range s.users {
		if u.Role == role {
			all = append(all, *u)
		}
	}
	sortUsers(all)
	return page(all, limit, offset), len(all), nil
}

// GetUsersByIDs returns the users among ids that exist. Repeated ids are collapsed.
func (s *Store) GetUsersByIDs(_ context.Context, ids []uuid.UUID) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[uuid.UUID]bool, len(ids))
	users := []model.User{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if u, ok := s.users[id]; ok {
			users = append(users, *u)
		}
	}
	sortUsers(users)
	return users, nil
}

// ─── Exams ──────────────────────────────────────────────────────────

// CreateExam stores e with its initial assignment list.
func (s *Store) CreateExam(_ context.Context, e *model.Exam) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}
	e.AssignedTo = dedupe(e.AssignedTo)
	s.exams[e.ID] = copyExam(e)
	return nil
}

// GetExam returns a copy of the exam with id.
func (s *Store) GetExam(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.exams[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyExam(e), nil
}

// UpdateExam overwrites the mutable fields. The assignment list is kept.
func (s *Store) UpdateExam(_ context.Context, e *model.Exam) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.exams[e.ID]
	if !ok {
		return repository.ErrNotFound
	}
	next := copyExam(e)
	next.AssignedTo = cur.AssignedTo
	next.CreatedBy = cur.CreatedBy
	next.CreatedAt = cur.CreatedAt
	s.exams[e.ID] = next
	return nil
}

// ListExams returns one page of exams, newest first, and the total count.
func (s *Store) ListExams(_ context.Context, limit, offset int) ([]model.Exam, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]model.Exam, 0, len(s.exams))
	for _, e := range s.exams {
		all = append(all, *copyExam(e))
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID.String() < all[j].ID.String()
	})
	return page(all, limit, offset), len(all), nil
}

// ListExamsForStudent returns exams ordered by start time. With assignedOnly
// set, only exams assigned to studentID are returned.
func (s *Store) ListExamsForStudent(_ context.Context, studentID uuid.UUID, assignedOnly bool) ([]model.Exam, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exams := []model.Exam{}
	for _, e := range s.exams {
		if assignedOnly && !e.IsAssigned(studentID) {
			continue
		}
		exams = append(exams, *copyExam(e))
	}
	sort.Slice(exams, func(i, j int) bool {
		if !exams[i].ExamStartTime.Equal(exams[j].ExamStartTime) {
			return exams[i].ExamStartTime.Before(exams[j].ExamStartTime)
		}
		return exams[i].ID.String() < exams[j].ID.String()
	})
	return exams, nil
}

// ReplaceAssignments sets the assignment list of an exam to exactly studentIDs.
func (s *Store) ReplaceAssignments(_ context.Context, examID uuid.UUID, studentIDs []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.exams[examID]
	if !ok {
		return repository.ErrNotFound
	}
	e.AssignedTo = dedupe(studentIDs)
	e.UpdatedAt = time.Now()
	return nil
}

// AddAssignments appends studentIDs not yet assigned and returns how many were added.
func (s *Store) AddAssignments(_ context.Context, examID uuid.UUID, studentIDs []uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.exams[examID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	added := 0
	for _, id := range dedupe(studentIDs) {
		if !e.IsAssigned(id) {
			e.AssignedTo = append(e.AssignedTo, id)
			added++
		}
	}
	return added, nil
}

// ─── Results ────────────────────────────────────────────────────────

// CreateResult stores res unless the (exam, student) pair already has one.
func (s *Store) CreateResult(_ context.Context, res *model.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{res.ExamID, res.StudentID}
	if _, exists := s.resultPair[key]; exists {
		return repository.ErrDuplicate
	}
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	s.results[res.ID] = copyResult(res)
	s.resultPair[key] = res.ID
	return nil
}

// GetResult returns a copy of the result with id.
func (s *Store) GetResult(_ context.Context, id uuid.UUID) (*model.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, ok := s.results[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyResult(res), nil
}

// GetResultByExamAndStudent returns the result a student submitted for an exam.
func (s *Store) GetResultByExamAndStudent(_ context.Context, examID, studentID uuid.UUID) (*model.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.resultPair[pairKey{examID, studentID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyResult(s.results[id]), nil
}

// ListPendingResults returns results awaiting evaluation, oldest submission first.
func (s *Store) ListPendingResults(_ context.Context) ([]model.PendingResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pending := []model.PendingResult{}
	for _, res := range s.results {
		if res.Status != model.ResultStatusPending {
			continue
		}
		p := model.PendingResult{
			ID:          res.ID,
			ExamID:      res.ExamID,
			StudentID:   res.StudentID,
			TotalMarks:  res.TotalMarks,
			SubmittedAt: res.SubmittedAt,
		}
		if e, ok := s.exams[res.ExamID]; ok {
			p.ExamTitle = e.Title
		}
		if u, ok := s.users[res.StudentID]; ok {
			p.StudentName = u.Name
			p.StudentEmail = u.Email
		}
		pending = append(pending, p)
	}
	sort.Slice(pending, func(i, j int) bool {
		if !pending[i].SubmittedAt.Equal(pending[j].SubmittedAt) {
			return pending[i].SubmittedAt.Before(pending[j].SubmittedAt)
		}
		return pending[i].ID.String() < pending[j].ID.String()
	})
	return pending, nil
}

// ListResultsByStudent returns a student's results, newest submission first.
func (s *Store) ListResultsByStudent(_ context.Context, studentID uuid.UUID) ([]model.StudentResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := []model.StudentResult{}
	for _, res := range s.results {
		if res.StudentID != studentID {
			continue
		}
		score := res.Score
		sr := model.StudentResult{
			ResultID:    res.ID,
			ExamID:      res.ExamID,
			Status:      res.Status,
			TotalMarks:  res.TotalMarks,
			Score:       &score,
			SubmittedAt: res.SubmittedAt,
			EvaluatedAt: copyTime(res.EvaluatedAt),
		}
		if e, ok := s.exams[res.ExamID]; ok {
			sr.ExamTitle = e.Title
		}
		results = append(results, sr)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].SubmittedAt.After(results[j].SubmittedAt)
	})
	return results, nil
}

// SaveEvaluation mirrors the conditional UPDATE of the SQL store.
func (s *Store) SaveEvaluation(_ context.Context, res *model.Result, onlyPending bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.results[res.ID]
	if !ok || (onlyPending && cur.Status != model.ResultStatusPending) {
		return repository.ErrNotFound
	}
	next := copyResult(cur)
	next.Answers = copyResult(res).Answers
	next.Score = res.Score
	next.Status = res.Status
	next.EvaluatedBy = copyID(res.EvaluatedBy)
	next.EvaluatedAt = copyTime(res.EvaluatedAt)
	s.results[res.ID] = next
	return nil
}

// ─── Attendance ─────────────────────────────────────────────────────

// MarkAttendance inserts a unless the pair is already marked, in which case
// the stored record is copied into a.
func (s *Store) MarkAttendance(_ context.Context, a *model.Attendance) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{a.ExamID, a.StudentID}
	if cur, ok := s.attendance[key]; ok {
		*a = *cur
		return false, nil
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	cp := *a
	s.attendance[key] = &cp
	s.attendOrder = append(s.attendOrder, key)
	return true, nil
}

// ListAttendance returns the attendance rows of an exam in marking order, with
// student name and email filled in.
func (s *Store) ListAttendance(_ context.Context, examID uuid.UUID) ([]model.AttendanceRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := []model.AttendanceRow{}
	for _, key := range s.attendOrder {
		if key.examID != examID {
			continue
		}
		row := model.AttendanceRow{Attendance: *s.attendance[key]}
		if u, ok := s.users[key.studentID]; ok {
			row.StudentName = u.Name
			row.StudentEmail = u.Email
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ─── Helpers ────────────────────────────────────────────────────────

func page[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return []T{}
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end]
}

func sortUsers(users []model.User) {
	sort.Slice(users, func(i, j int) bool {
		if users[i].Name != users[j].Name {
			return users[i].Name < users[j].Name
		}
		return users[i].ID.String() < users[j].ID.String()
	})
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func copyExam(e *model.Exam) *model.Exam {
	cp := *e
	cp.AssignedTo = append([]uuid.UUID(nil), e.AssignedTo...)
	if cp.AssignedTo == nil {
		cp.AssignedTo = []uuid.UUID{}
	}
	cp.Questions = make([]model.Question, len(e.Questions))
	for i, q := range e.Questions {
		q.Options = append([]string(nil), q.Options...)
		q.CorrectAnswer = append([]byte(nil), q.CorrectAnswer...)
		cp.Questions[i] = q
	}
	return &cp
}

func copyResult(r *model.Result) *model.Result {
	cp := *r
	cp.Answers = make([]model.Answer, len(r.Answers))
	for i, a := range r.Answers {
		a.FileUploads = append([]string(nil), a.FileUploads...)
		cp.Answers[i] = a
	}
	cp.EvaluatedBy = copyID(r.EvaluatedBy)
	cp.EvaluatedAt = copyTime(r.EvaluatedAt)
	return &cp
}

func copyID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
