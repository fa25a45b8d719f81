package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-proctor/internal/clock"
	"github.com/stemsi/exstem-proctor/internal/config"
	"github.com/stemsi/exstem-proctor/internal/model"
	"github.com/stemsi/exstem-proctor/internal/repository/memstore"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// examStart is the opening instant of every fixture exam; it closes an hour later.
var examStart = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

type fixture struct {
	t     *testing.T
	ctx   context.Context
	cfg   *config.Config
	store *memstore.Store
	clock *clock.FakeClock

	auth        *AuthService
	users       *UserService
	exams       *ExamService
	attendance  *AttendanceService
	gate        *AccessGate
	submissions *SubmissionService
	evaluations *EvaluationService
	media       *MediaService
	denylist    *fakeDenylist

	admin model.Principal
}

type fixtureOption func(*config.Config)

func withAssignmentOptional() fixtureOption {
	return func(c *config.Config) { c.AssignmentRequired = false }
}

func withoutReevaluation() fixtureOption {
	return func(c *config.Config) { c.AllowReevaluation = false }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:          testSecret,
		JWTExpiry:          time.Hour,
		BcryptCost:         bcrypt.MinCost,
		UploadDir:          t.TempDir(),
		MaxUploadBytes:     1024 * 1024,
		AssignmentRequired: true,
		AllowReevaluation:  true,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	log := zerolog.Nop()
	store := memstore.New()
	clk := clock.Fake(examStart.Add(-time.Hour))
	deny := newFakeDenylist()

	f := &fixture{t: t, ctx: context.Background(), cfg: cfg, store: store, clock: clk, denylist: deny}
	f.auth = NewAuthService(cfg, store, deny, clk, log)
	f.users = NewUserService(store, f.auth, clk, log)
	f.exams = NewExamService(store, f.users, cfg.AssignmentRequired, clk, log)
	f.attendance = NewAttendanceService(store, store, store, cfg.AssignmentRequired, clk, log)
	f.gate = NewAccessGate(store, f.attendance, cfg.AssignmentRequired, clk, log)
	f.submissions = NewSubmissionService(store, store, f.attendance, cfg.AssignmentRequired, clk, log)
	f.evaluations = NewEvaluationService(store, store, cfg.AllowReevaluation, clk, log)
	f.media = NewMediaService(cfg, f.submissions, clk, log)

	f.admin = f.user(model.RoleAdmin, "Admin")
	return f
}

// user stores an account directly and returns its principal.
func (f *fixture) user(role model.Role, name string) model.Principal {
	f.t.Helper()
	u := &model.User{
		Name:  name,
		Email: uuid.NewString() + "@example.com",
		Role:  role,
	}
	require.NoError(f.t, f.store.CreateUser(f.ctx, u))
	return model.Principal{ID: u.ID, Role: role}
}

func (f *fixture) student(name string) model.Principal {
	return f.user(model.RoleStudent, name)
}

func ptr[T any](v T) *T { return &v }

// sampleQuestions covers every question type.
func sampleQuestions() []model.QuestionInput {
	return []model.QuestionInput{
		{Text: "2+2?", Type: model.QuestionTypeMCQ, Options: []string{"3", "4"}, CorrectAnswer: json.RawMessage(`1`)},
		{Text: "Primes?", Type: model.QuestionTypeMultiple, Options: []string{"2", "4", "5"}, CorrectAnswer: json.RawMessage(`[0,2]`)},
		{Text: "Sky is blue", Type: model.QuestionTypeTrueFalse, CorrectAnswer: json.RawMessage(`true`), MaxMarks: ptr(5.0)},
		{Text: "Capital of France", Type: model.QuestionTypeShort, CorrectAnswer: json.RawMessage(`"Paris"`), AllowFileUpload: ptr(false)},
		{Text: "Explain gravity", Type: model.QuestionTypeLong, CorrectAnswer: json.RawMessage(`"Mass attracts mass"`)},
	}
}

// exam creates an exam open during [examStart, examStart+1h].
func (f *fixture) exam(code string, assigned ...model.Principal) *model.Exam {
	f.t.Helper()
	ids := make([]uuid.UUID, len(assigned))
	for i, p := range assigned {
		ids[i] = p.ID
	}
	exam, err := f.exams.Create(f.ctx, f.admin, model.CreateExamRequest{
		Title:         "Midterm",
		ExamStartTime: examStart,
		ExamEndTime:   examStart.Add(time.Hour),
		ProctorCode:   code,
		Questions:     sampleQuestions(),
		AssignedTo:    ids,
	})
	require.NoError(f.t, err)
	return exam
}

// answersFor answers every question with text, or a file when text is not accepted.
func answersFor(exam *model.Exam) []model.AnswerInput {
	answers := make([]model.AnswerInput, 0, len(exam.Questions))
	for _, q := range exam.Questions {
		in := model.AnswerInput{QuestionID: q.ID}
		if q.AllowWrittenAnswer {
			in.WrittenAnswer = "answer to " + q.Text
		} else {
			in.FileUploads = []string{AnswerUploadPrefix + "1-abcdef12.pdf"}
		}
		answers = append(answers, in)
	}
	return answers
}

type fakeDenylist struct {
	revoked map[string]time.Duration
}

func newFakeDenylist() *fakeDenylist {
	return &fakeDenylist{revoked: make(map[string]time.Duration)}
}

func (d *fakeDenylist) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	d.revoked[jti] = ttl
	return nil
}

func (d *fakeDenylist) IsRevoked(_ context.Context, jti string) (bool, error) {
	_, ok := d.revoked[jti]
	return ok, nil
}
