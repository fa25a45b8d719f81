package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-proctor/internal/config"
	"github.com/stemsi/exstem-proctor/internal/database"
	"github.com/stemsi/exstem-proctor/internal/repository"
	"github.com/stemsi/exstem-proctor/internal/repository/memstore"
	"github.com/stemsi/exstem-proctor/internal/service"
)

// storage bundles the store ports the services depend on.
type storage struct {
	users      service.UserStore
	exams      service.ExamStore
	results    service.ResultStore
	attendance service.AttendanceStore
	close      func()
}

// openStorage connects the configured storage driver.
func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*storage, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		log.Warn().Msg("Using in-memory storage; data is lost on restart")
		store := memstore.New()
		return &storage{
			users:      store,
			exams:      store,
			results:    store,
			attendance: store,
			close:      func() {},
		}, nil

	case config.StorageDriverPostgres:
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return &storage{
			users:      repository.NewUserRepository(pool),
			exams:      repository.NewExamRepository(pool),
			results:    repository.NewResultRepository(pool),
			attendance: repository.NewAttendanceRepository(pool),
			close:      pool.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}
