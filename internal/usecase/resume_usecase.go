package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"jobscout/internal/domain/matching"
	"jobscout/internal/extraction"
	"jobscout/internal/pkg/logger"
	"jobscout/internal/repository"
)

type ResumeUsecase struct {
	resumes repository.ResumeSourceRepository
	cache   *expirable.LRU[string, extraction.Profile]
	logger  *zap.Logger
}

// NewResumeUsecase caches parsed profiles by content hash. A non-positive size
// or ttl disables the cache.
func NewResumeUsecase(resumes repository.ResumeSourceRepository, cacheSize int, cacheTTL time.Duration, log *zap.Logger) *ResumeUsecase {
	u := &ResumeUsecase{resumes: resumes, logger: logger.Component(log, "resume")}
	if cacheSize > 0 && cacheTTL > 0 {
		u.cache = expirable.NewLRU[string, extraction.Profile](cacheSize, nil, cacheTTL)
	}
	return u
}

// ParseResumeText extracts a structured profile. It never fails on content:
// missing fields, and every field of blank input, are left empty.
func (u *ResumeUsecase) ParseResumeText(text string) (extraction.Profile, error) {
	if strings.TrimSpace(text) == "" {
		return extraction.Parse(""), nil
	}

	key := matching.Hash(text)
	if u.cache != nil {
		if p, ok := u.cache.Get(key); ok {
			return cloneProfile(p), nil
		}
	}

	p := extraction.Parse(text)
	if u.cache != nil {
		u.cache.Add(key, cloneProfile(p))
	}
	u.logger.Debug("resume parsed",
		zap.String(logger.FieldStatus, "ok"),
		zap.Int("skills", len(p.Skills)),
		zap.Bool("has_email", p.Email != ""),
	)
	return p, nil
}

// StoreResume records the owner's latest plain resume text and returns its
// parsed profile. Blank text is rejected since it cannot be embedded.
func (u *ResumeUsecase) StoreResume(ctx context.Context, ownerID uuid.UUID, text string) (extraction.Profile, error) {
	if ownerID == uuid.Nil {
		return extraction.Profile{}, ErrInvalidInput
	}
	if strings.TrimSpace(text) == "" {
		return extraction.Profile{}, ErrEmptyContent
	}
	p, err := u.ParseResumeText(text)
	if err != nil {
		return extraction.Profile{}, err
	}
	if u.resumes != nil {
		if err := u.resumes.SaveResume(ctx, repository.ResumeContent{OwnerID: ownerID, RawText: ResumeText(text)}); err != nil {
			return extraction.Profile{}, err
		}
	}
	return p, nil
}

const previewLength = 200

// ResumeStatus tells an owner whether a resume is on file.
type ResumeStatus struct {
	HasResume   bool       `json:"hasResume"`
	Preview     string     `json:"rawTextPreview,omitempty"`
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
}

// Status reports the owner's stored resume with the first 200 characters of
// its text. An owner without a resume gets HasResume false, not an error.
func (u *ResumeUsecase) Status(ctx context.Context, ownerID uuid.UUID) (ResumeStatus, error) {
	if ownerID == uuid.Nil {
		return ResumeStatus{}, ErrInvalidInput
	}
	if u.resumes == nil {
		return ResumeStatus{}, nil
	}
	rec, err := u.resumes.FindResume(ctx, ownerID)
	if errors.Is(err, repository.ErrNotFound) {
		return ResumeStatus{}, nil
	}
	if err != nil {
		return ResumeStatus{}, err
	}
	parsedAt := rec.ParsedAt
	return ResumeStatus{HasResume: true, Preview: preview(rec.RawText, previewLength), LastUpdated: &parsedAt}, nil
}

// preview cuts text to n runes, marking the cut with an ellipsis.
func preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}

// JobText builds the embedding input for a job posting from its title,
// description, requirements and responsibilities.
func JobText(j repository.JobContent) string {
	parts := []string{
		j.Title,
		j.Description,
		strings.Join(j.Requirements, " "),
		strings.Join(j.Responsibilities, " "),
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// ResumeText is the embedding input for a resume: the plain text as uploaded,
// trimmed.
func ResumeText(raw string) string {
	return strings.TrimSpace(raw)
}

func cloneProfile(p extraction.Profile) extraction.Profile {
	skills := make([]string, len(p.Skills))
	copy(skills, p.Skills)
	p.Skills = skills
	return p
}
