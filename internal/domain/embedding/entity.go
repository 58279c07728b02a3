package embedding

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type OwnerKind string

const (
	OwnerJob    OwnerKind = "job"
	OwnerResume OwnerKind = "resume"
)

var ErrUnknownOwnerKind = errors.New("unknown owner kind")

func ParseOwnerKind(s string) (OwnerKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "job", "jobs":
		return OwnerJob, nil
	case "resume", "resumes":
		return OwnerResume, nil
	default:
		return "", ErrUnknownOwnerKind
	}
}

// Opposite is the kind an owner is matched against.
func (k OwnerKind) Opposite() OwnerKind {
	if k == OwnerJob {
		return OwnerResume
	}
	return OwnerJob
}

func (k OwnerKind) Valid() bool {
	return k == OwnerJob || k == OwnerResume
}

// Record is the stored vector for one owner. Vector and ContentHash are always
// written together.
type Record struct {
	OwnerKind   OwnerKind
	OwnerID     uuid.UUID
	Vector      []float32
	ContentHash string
	UpdatedAt   time.Time
}
