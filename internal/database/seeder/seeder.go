// Package seeder loads sample job postings for local runs and demos.
package seeder

import (
	"context"

	"jobscout/internal/database"
)

type Seeder interface {
	Name() string
	Run(ctx context.Context, db database.DB) error
}
