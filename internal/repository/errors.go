package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

var (
	// ErrPersistence wraps every storage failure; the affected record must be
	// treated as not durably written.
	ErrPersistence = errors.New("persistence error")
	ErrNotFound    = errors.New("record not found")
)

func persistenceErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %v", ErrPersistence, op, err)
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
