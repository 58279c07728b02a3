package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobscout/internal/domain/embedding"
	"jobscout/internal/domain/match"
	"jobscout/internal/domain/notification"
	"jobscout/internal/metrics"
	"jobscout/internal/pkg/logger"
	"jobscout/internal/repository"
)

// Notifier hands a payload to the out-of-band delivery system.
type Notifier interface {
	Notify(ctx context.Context, p notification.Payload) error
}

// JobTitles resolves job titles for notification messages.
type JobTitles interface {
	FindJob(ctx context.Context, jobID uuid.UUID) (*repository.JobContent, error)
}

type DispatchSummary struct {
	Recipients int `json:"recipients"`
	Dispatched int `json:"dispatched"`
	Marked     int `json:"marked"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

func (s *DispatchSummary) add(o DispatchSummary) {
	s.Recipients += o.Recipients
	s.Dispatched += o.Dispatched
	s.Marked += o.Marked
	s.Skipped += o.Skipped
	s.Failed += o.Failed
}

type NotificationUsecase struct {
	matches  repository.MatchRepository
	notifier Notifier
	jobs     JobTitles
	cache    MatchCache
	channel  string
	claimTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewNotificationUsecase(
	matches repository.MatchRepository,
	notifier Notifier,
	jobs JobTitles,
	cache MatchCache,
	channel string,
	claimTTL time.Duration,
	log *zap.Logger,
) *NotificationUsecase {
	if channel == "" {
		channel = "email"
	}
	if claimTTL <= 0 {
		claimTTL = 2 * time.Minute
	}
	return &NotificationUsecase{
		matches:  matches,
		notifier: notifier,
		jobs:     jobs,
		cache:    cache,
		channel:  channel,
		claimTTL: claimTTL,
		logger:   logger.Component(log, "notification"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// TriggerNotifications sends one payload per resume owner for the matches
// that are not yet notified, and marks them notified after a successful
// hand-off. Pairs are leased in the database first so concurrent triggers
// never hand off the same pair twice. A failed recipient does not stop the
// others.
func (u *NotificationUsecase) TriggerNotifications(ctx context.Context, kind embedding.OwnerKind, ownerID uuid.UUID, matches []Match) (DispatchSummary, error) {
	if err := validateOwner(kind, ownerID); err != nil {
		return DispatchSummary{}, err
	}

	groups := map[uuid.UUID][]match.Pair{}
	var summary DispatchSummary
	for _, m := range matches {
		if m.Notified {
			summary.Skipped++
			continue
		}
		groups[m.ResumeID] = append(groups[m.ResumeID], m.Pair())
	}

	recipients := make([]uuid.UUID, 0, len(groups))
	for r := range groups {
		recipients = append(recipients, r)
	}
	sort.Slice(recipients, func(i, j int) bool { return recipients[i].String() < recipients[j].String() })

	titles := map[uuid.UUID]string{}
	for _, recipient := range recipients {
		summary.add(u.dispatch(ctx, kind, ownerID, recipient, groups[recipient], titles))
	}

	u.logger.Info("notifications triggered",
		zap.String(logger.FieldStatus, "ok"),
		zap.String(logger.FieldOwnerKind, string(kind)),
		zap.String(logger.FieldOwnerID, ownerID.String()),
		zap.Int("recipients", summary.Recipients),
		zap.Int("dispatched", summary.Dispatched),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

func (u *NotificationUsecase) dispatch(ctx context.Context, kind embedding.OwnerKind, subjectID, recipient uuid.UUID, pairs []match.Pair, titles map[uuid.UUID]string) DispatchSummary {
	log := u.logger.With(zap.String("recipient_id", recipient.String()))
	summary := DispatchSummary{Recipients: 1}
	claimID := uuid.New()

	claimed, err := u.matches.Claim(ctx, claimID, pairs, u.now(), u.claimTTL)
	if err != nil {
		summary.Failed++
		metrics.NotificationDispatches.WithLabelValues("failed").Inc()
		log.Error("claim failed", zap.String(logger.FieldStatus, "error"), zap.Error(err))
		return summary
	}
	summary.Skipped += len(pairs) - len(claimed)
	if len(claimed) == 0 {
		metrics.NotificationDispatches.WithLabelValues("skipped").Inc()
		return summary
	}

	claimedPairs := make([]match.Pair, 0, len(claimed))
	for _, rec := range claimed {
		claimedPairs = append(claimedPairs, rec.Pair())
	}

	payload := u.buildPayload(ctx, kind, subjectID, recipient, claimed, titles)
	if err := u.notifier.Notify(ctx, payload); err != nil {
		summary.Failed++
		metrics.NotificationDispatches.WithLabelValues("failed").Inc()
		log.Warn("notification hand-off failed", zap.String(logger.FieldStatus, "error"), zap.Error(err))
		if rerr := u.matches.ReleaseClaim(ctx, claimID, claimedPairs); rerr != nil {
			log.Error("claim release failed", zap.String(logger.FieldStatus, "error"), zap.Error(rerr))
		}
		return summary
	}

	summary.Dispatched++
	metrics.NotificationDispatches.WithLabelValues("sent").Inc()

	n, err := u.matches.MarkNotified(ctx, claimID, claimedPairs, u.now())
	if err != nil {
		// delivered but not marked; the lease expires and a sweep may resend
		summary.Failed++
		log.Error("mark notified failed", zap.String(logger.FieldStatus, "error"), zap.Error(err))
		return summary
	}
	summary.Marked += int(n)

	// cached listings still carry notified=false for these pairs
	invalidateMatchCache(ctx, u.cache, u.logger, embedding.OwnerResume, recipient)
	for _, p := range claimedPairs {
		invalidateMatchCache(ctx, u.cache, u.logger, embedding.OwnerJob, p.JobID)
	}
	return summary
}

func (u *NotificationUsecase) buildPayload(ctx context.Context, kind embedding.OwnerKind, subjectID, recipient uuid.UUID, claimed []match.Record, titles map[uuid.UUID]string) notification.Payload {
	sort.SliceStable(claimed, func(i, j int) bool { return claimed[i].MatchScore > claimed[j].MatchScore })

	items := make([]notification.MatchSummary, 0, len(claimed))
	for _, rec := range claimed {
		items = append(items, notification.MatchSummary{
			JobID:           rec.JobID,
			ResumeID:        rec.ResumeID,
			JobTitle:        u.jobTitle(ctx, rec.JobID, titles),
			MatchScore:      rec.MatchScore,
			SimilarityScore: rec.SimilarityScore,
		})
	}

	best := items[0]
	title := best.JobTitle
	if title == "" {
		title = "a new job"
	}
	msg := fmt.Sprintf("New job match found: %s (Match Score: %d%%)", title, best.MatchScore)
	if len(items) > 1 {
		msg = fmt.Sprintf("%d new job matches found, best: %s (Match Score: %d%%)", len(items), title, best.MatchScore)
	}

	return notification.Payload{
		RecipientID: recipient,
		SubjectID:   subjectID,
		Type:        notification.TypeNewJobMatch,
		Channel:     u.channel,
		Message:     msg,
		Data: map[string]any{
			"triggeredBy": string(kind),
			"matches":     items,
		},
		CreatedAt: u.now(),
	}
}

func (u *NotificationUsecase) jobTitle(ctx context.Context, jobID uuid.UUID, titles map[uuid.UUID]string) string {
	if t, ok := titles[jobID]; ok {
		return t
	}
	if u.jobs == nil {
		return ""
	}
	job, err := u.jobs.FindJob(ctx, jobID)
	if err != nil || job == nil {
		titles[jobID] = ""
		return ""
	}
	titles[jobID] = job.Title
	return job.Title
}

// SweepPending retries the hand-off for matches still marked unnotified, such
// as those whose earlier hand-off failed or whose lease expired.
func (u *NotificationUsecase) SweepPending(ctx context.Context, limit int) (DispatchSummary, error) {
	pending, err := u.matches.ListUnnotified(ctx, limit)
	if err != nil {
		return DispatchSummary{}, err
	}

	byJob := map[uuid.UUID][]Match{}
	order := make([]uuid.UUID, 0)
	for _, rec := range pending {
		if _, ok := byJob[rec.JobID]; !ok {
			order = append(order, rec.JobID)
		}
		byJob[rec.JobID] = append(byJob[rec.JobID], Match{
			CounterpartID:   rec.ResumeID,
			ResumeID:        rec.ResumeID,
			JobID:           rec.JobID,
			MatchScore:      rec.MatchScore,
			SimilarityScore: rec.SimilarityScore,
			Notified:        rec.Notified,
		})
	}

	var total DispatchSummary
	for _, jobID := range order {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		s, err := u.TriggerNotifications(ctx, embedding.OwnerJob, jobID, byJob[jobID])
		if err != nil {
			return total, err
		}
		total.add(s)
	}

	u.logger.Info("pending sweep finished",
		zap.String(logger.FieldStatus, "ok"),
		zap.Int("pending", len(pending)),
		zap.Int("dispatched", total.Dispatched),
		zap.Int("failed", total.Failed),
	)
	return total, nil
}
