package match

import (
	"time"

	"github.com/google/uuid"

	"jobscout/internal/domain/embedding"
)

// Record is one persisted resume/job pairing at or above the match threshold.
type Record struct {
	ID              uuid.UUID
	ResumeID        uuid.UUID
	JobID           uuid.UUID
	MatchScore      int
	SimilarityScore float64
	Notified        bool
	NotifiedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Job is set on reads that join the job posting; nil when the posting
	// is gone or was not requested.
	Job *JobSummary
}

// JobSummary is the displayable part of the matched posting.
type JobSummary struct {
	Title    string
	Company  string
	Location string
}

type Pair struct {
	ResumeID uuid.UUID
	JobID    uuid.UUID
}

// PairFor orients a subject/counterpart pair into resume/job order.
func PairFor(subjectKind embedding.OwnerKind, subjectID, counterpartID uuid.UUID) Pair {
	if subjectKind == embedding.OwnerJob {
		return Pair{ResumeID: counterpartID, JobID: subjectID}
	}
	return Pair{ResumeID: subjectID, JobID: counterpartID}
}

// Counterpart returns the id on the other side of the pair from an owner of kind k.
func (r Record) Counterpart(k embedding.OwnerKind) uuid.UUID {
	if k == embedding.OwnerJob {
		return r.ResumeID
	}
	return r.JobID
}

func (r Record) Pair() Pair {
	return Pair{ResumeID: r.ResumeID, JobID: r.JobID}
}
