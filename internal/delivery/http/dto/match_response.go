package dto

import (
	"time"

	"github.com/google/uuid"

	"jobscout/internal/domain/match"
	"jobscout/internal/usecase"
)

type MatchResponse struct {
	ID              uuid.UUID  `json:"id"`
	ResumeID        uuid.UUID  `json:"resumeId"`
	JobID           uuid.UUID  `json:"jobId"`
	MatchScore      int        `json:"matchScore"`
	SimilarityScore float64    `json:"similarityScore"`
	Notified        bool       `json:"notified"`
	NotifiedAt      *time.Time `json:"notifiedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`

	Job *MatchedJobResponse `json:"job,omitempty"`
}

// MatchedJobResponse describes the posting behind a match.
type MatchedJobResponse struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Company  string    `json:"company"`
	Location string    `json:"location"`
}

func NewMatchedJobResponse(jobID uuid.UUID, j *match.JobSummary) *MatchedJobResponse {
	if j == nil {
		return nil
	}
	return &MatchedJobResponse{ID: jobID, Title: j.Title, Company: j.Company, Location: j.Location}
}

func NewMatchResponse(r match.Record) MatchResponse {
	return MatchResponse{
		Job:             NewMatchedJobResponse(r.JobID, r.Job),
		ID:              r.ID,
		ResumeID:        r.ResumeID,
		JobID:           r.JobID,
		MatchScore:      r.MatchScore,
		SimilarityScore: r.SimilarityScore,
		Notified:        r.Notified,
		NotifiedAt:      r.NotifiedAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func NewMatchListResponse(records []match.Record) []MatchResponse {
	out := make([]MatchResponse, 0, len(records))
	for _, r := range records {
		out = append(out, NewMatchResponse(r))
	}
	return out
}

// ScanMatchResponse is one pair retained by a rescan.
type ScanMatchResponse struct {
	CounterpartID   uuid.UUID `json:"counterpartId"`
	ResumeID        uuid.UUID `json:"resumeId"`
	JobID           uuid.UUID `json:"jobId"`
	MatchScore      int       `json:"matchScore"`
	SimilarityScore float64   `json:"similarityScore"`
	Notified        bool      `json:"notified"`
}

func NewScanMatchResponses(matches []usecase.Match) []ScanMatchResponse {
	out := make([]ScanMatchResponse, 0, len(matches))
	for _, m := range matches {
		out = append(out, ScanMatchResponse{
			CounterpartID:   m.CounterpartID,
			ResumeID:        m.ResumeID,
			JobID:           m.JobID,
			MatchScore:      m.MatchScore,
			SimilarityScore: m.SimilarityScore,
			Notified:        m.Notified,
		})
	}
	return out
}
