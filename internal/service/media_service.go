package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-proctor/internal/clock"
	"github.com/stemsi/exstem-proctor/internal/config"
	"github.com/stemsi/exstem-proctor/internal/metrics"
	"github.com/stemsi/exstem-proctor/internal/model"
)

// Sentinel errors for media uploads.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
)

// Answer-sheet types by detected MIME type.
var allowedAnswerTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
}

// answerDir is the subdirectory of UPLOAD_DIR holding answer sheets.
const answerDir = "answers"

// MediaService stores uploaded answer sheets on local disk.
type MediaService struct {
	cfg         *config.Config
	submissions *SubmissionService
	clock       clock.Clock
	log         zerolog.Logger
}

// NewMediaService creates a new MediaService.
func NewMediaService(cfg *config.Config, submissions *SubmissionService, clk clock.Clock, log zerolog.Logger) *MediaService {
	return &MediaService{
		cfg:         cfg,
		submissions: submissions,
		clock:       clk,
		log:         log.With().Str("component", "media_service").Logger(),
	}
}

// SaveAnswerSheet authorizes the upload, sniffs the content type and writes
// the file. It returns the reference to put in an answer's file_uploads.
func (s *MediaService) SaveAnswerSheet(ctx context.Context, p model.Principal, examID, questionID uuid.UUID, file io.ReadSeeker, size int64) (string, error) {
	if err := s.submissions.AuthorizeUpload(ctx, p, examID, questionID); err != nil {
		return "", err
	}

	if size > s.cfg.MaxUploadBytes {
		return "", fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, size, s.cfg.MaxUploadBytes)
	}

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		return "", fmt.Errorf("detect file type: %w", err)
	}
	ext, ok := allowedAnswerTypes[strings.SplitN(mtype.String(), ";", 2)[0]]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFileType, mtype.String())
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	dir := filepath.Join(s.cfg.UploadDir, answerDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	filename := fmt.Sprintf("%d-%s%s", s.clock.Now().UnixNano(), random, ext)
	destPath := filepath.Join(dir, filename)

	dst, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	// The declared size is client-supplied; cap the copy independently.
	written, err := io.Copy(dst, io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err == nil && written > s.cfg.MaxUploadBytes {
		err = fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, s.cfg.MaxUploadBytes)
	}
	if err != nil {
		_ = os.Remove(destPath)
		if errors.Is(err, ErrFileTooLarge) {
			return "", err
		}
		return "", fmt.Errorf("write file: %w", err)
	}

	metrics.UploadBytes.Observe(float64(written))
	s.log.Info().
		Str("exam_id", examID.String()).
		Str("question_id", questionID.String()).
		Str("student_id", p.ID.String()).
		Str("file", filename).
		Int64("bytes", written).
		Msg("Answer sheet uploaded")

	return AnswerUploadPrefix + filename, nil
}

// MaxUploadBytes is the largest accepted answer sheet.
func (s *MediaService) MaxUploadBytes() int64 {
	return s.cfg.MaxUploadBytes
}
