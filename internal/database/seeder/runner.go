package seeder

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"jobscout/internal/database"
	"jobscout/internal/pkg/logger"
)

type Runner struct {
	Seeders []Seeder
	Logger  *zap.Logger
}

func (r Runner) Run(ctx context.Context, db database.DB) error {
	if db == nil {
		return fmt.Errorf("nil db")
	}
	log := logger.Component(r.Logger, "seeder")
	for _, s := range r.Seeders {
		if s == nil {
			continue
		}
		if err := s.Run(ctx, db); err != nil {
			return fmt.Errorf("seed %s: %w", s.Name(), err)
		}
		log.Info("seeded", zap.String("seeder", s.Name()), zap.String(logger.FieldStatus, "ok"))
	}
	return nil
}
