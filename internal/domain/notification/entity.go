package notification

import (
	"time"

	"github.com/google/uuid"
)

const TypeNewJobMatch = "new_job_match"

// Payload is what the delivery side receives for one recipient.
type Payload struct {
	RecipientID uuid.UUID      `json:"recipientId"`
	SubjectID   uuid.UUID      `json:"subjectId"`
	Type        string         `json:"type"`
	Channel     string         `json:"channel"`
	Message     string         `json:"message"`
	Data        map[string]any `json:"data,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

type MatchSummary struct {
	JobID           uuid.UUID `json:"jobId"`
	ResumeID        uuid.UUID `json:"resumeId"`
	JobTitle        string    `json:"jobTitle,omitempty"`
	MatchScore      int       `json:"matchScore"`
	SimilarityScore float64   `json:"similarityScore"`
}
