package service

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")
	pdfHeader = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n")
)

func TestSaveAnswerSheet_StoresFile(t *testing.T) {
	f := newFixture(t)
	s := f.student("Ana")
	exam := f.exam("", s)
	f.clock.Set(examStart)

	for _, content := range [][]byte{pngHeader, pdfHeader} {
		ref, err := f.media.SaveAnswerSheet(f.ctx, s, exam.ID, exam.Questions[4].ID, bytes.NewReader(content), int64(len(content)))
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(ref, AnswerUploadPrefix))
		assert.True(t, isAnswerUploadRef(ref))

		name := strings.TrimPrefix(ref, AnswerUploadPrefix)
		stored, err := os.ReadFile(filepath.Join(f.cfg.UploadDir, "answers", name))
		require.NoError(t, err)
		assert.Equal(t, content, stored)
	}
}

func TestSaveAnswerSheet_RefUsableInSubmission(t *testing.T) {
	f := newFixture(t)
	s := f.student("Ana")
	exam := f.exam("", s)
	f.clock.Set(examStart)

	q := exam.Questions[4]
	ref, err := f.media.SaveAnswerSheet(f.ctx, s, exam.ID, q.ID, bytes.NewReader(pdfHeader), int64(len(pdfHeader)))
	require.NoError(t, err)

	answers := answersFor(exam)
	answers[4].FileUploads = []string{ref}
	_, err = f.submissions.Submit(f.ctx, s, exam.ID, answers)
	assert.NoError(t, err)
}

func TestSaveAnswerSheet_Rejects(t *testing.T) {
	f := newFixture(t)
	s := f.student("Ana")
	exam := f.exam("", s)
	f.clock.Set(examStart)
	q := exam.Questions[4].ID

	text := []byte("just some text")
	_, err := f.media.SaveAnswerSheet(f.ctx, s, exam.ID, q, bytes.NewReader(text), int64(len(text)))
	assert.ErrorIs(t, err, ErrUnsupportedFileType)

	_, err = f.media.SaveAnswerSheet(f.ctx, s, exam.ID, q, bytes.NewReader(pngHeader), f.cfg.MaxUploadBytes+1)
	assert.ErrorIs(t, err, ErrFileTooLarge)

	big := append(append([]byte{}, pdfHeader...), make([]byte, f.cfg.MaxUploadBytes)...)
	_, err = f.media.SaveAnswerSheet(f.ctx, s, exam.ID, q, bytes.NewReader(big), 10)
	assert.ErrorIs(t, err, ErrFileTooLarge, "declared size is not trusted")

	_, err = f.media.SaveAnswerSheet(f.ctx, s, exam.ID, exam.Questions[3].ID, bytes.NewReader(pngHeader), int64(len(pngHeader)))
	assert.ErrorIs(t, err, ErrUploadNotAllowed)

	f.clock.Set(examStart.Add(time.Hour + time.Second))
	_, err = f.media.SaveAnswerSheet(f.ctx, s, exam.ID, q, bytes.NewReader(pngHeader), int64(len(pngHeader)))
	assert.ErrorIs(t, err, ErrExamExpired)

	entries, _ := os.ReadDir(filepath.Join(f.cfg.UploadDir, "answers"))
	assert.Empty(t, entries, "rejected uploads leave no files")
}
