package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobscout/internal/domain/embedding"
	"jobscout/internal/domain/match"
	"jobscout/internal/domain/notification"
)

func seedMatches(repo *fakeMatchRepo, jobID uuid.UUID, scores map[uuid.UUID]int) []Match {
	out := make([]Match, 0, len(scores))
	for resumeID, score := range scores {
		repo.seed(match.Record{ResumeID: resumeID, JobID: jobID, MatchScore: score, SimilarityScore: float64(score) / 100})
		out = append(out, Match{
			CounterpartID:   resumeID,
			ResumeID:        resumeID,
			JobID:           jobID,
			MatchScore:      score,
			SimilarityScore: float64(score) / 100,
		})
	}
	return out
}

func TestNotificationUsecase_TriggerTwiceDispatchesOnce(t *testing.T) {
	repo := newFakeMatchRepo()
	notifier := &fakeNotifier{}
	jobID := uuid.New()
	uc := NewNotificationUsecase(repo, notifier, fakeJobs{titles: map[uuid.UUID]string{jobID: "Backend Engineer"}}, nil, "", 0, nil)

	r1, r2 := uuid.New(), uuid.New()
	found := seedMatches(repo, jobID, map[uuid.UUID]int{r1: 90, r2: 71})

	first, err := uc.TriggerNotifications(context.Background(), embedding.OwnerJob, jobID, found)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Recipients)
	assert.Equal(t, 2, first.Dispatched)
	assert.Equal(t, 2, first.Marked)

	second, err := uc.TriggerNotifications(context.Background(), embedding.OwnerJob, jobID, found)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Dispatched)
	assert.Equal(t, 2, second.Skipped)

	sent := notifier.sent()
	require.Len(t, sent, 2)
	for _, rec := range repo.all() {
		assert.True(t, rec.Notified)
		assert.NotNil(t, rec.NotifiedAt)
	}

	byRecipient := map[uuid.UUID]notification.Payload{}
	for _, p := range sent {
		byRecipient[p.RecipientID] = p
	}
	assert.Equal(t, "New job match found: Backend Engineer (Match Score: 90%)", byRecipient[r1].Message)
	assert.Equal(t, notification.TypeNewJobMatch, byRecipient[r1].Type)
	assert.Equal(t, "email", byRecipient[r1].Channel)
	assert.Equal(t, jobID, byRecipient[r1].SubjectID)
	assert.Equal(t, "job", byRecipient[r1].Data["triggeredBy"])
}

func TestNotificationUsecase_SkipsAlreadyNotifiedInput(t *testing.T) {
	repo := newFakeMatchRepo()
	notifier := &fakeNotifier{}
	uc := NewNotificationUsecase(repo, notifier, nil, nil, "push", 0, nil)

	jobID, resumeID := uuid.New(), uuid.New()
	summary, err := uc.TriggerNotifications(context.Background(), embedding.OwnerJob, jobID, []Match{
		{CounterpartID: resumeID, ResumeID: resumeID, JobID: jobID, MatchScore: 80, Notified: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Recipients)
	assert.Empty(t, notifier.sent())
}

func TestNotificationUsecase_FailedRecipientIsIsolated(t *testing.T) {
	repo := newFakeMatchRepo()
	jobID, good, failing := uuid.New(), uuid.New(), uuid.New()
	notifier := &fakeNotifier{failFor: map[uuid.UUID]bool{failing: true}}
	uc := NewNotificationUsecase(repo, notifier, nil, nil, "", time.Minute, nil)

	found := seedMatches(repo, jobID, map[uuid.UUID]int{good: 85, failing: 77})

	summary, err := uc.TriggerNotifications(context.Background(), embedding.OwnerJob, jobID, found)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Dispatched)
	assert.Equal(t, 1, summary.Failed)

	delivered, ok := repo.get(match.Pair{ResumeID: good, JobID: jobID})
	require.True(t, ok)
	assert.True(t, delivered.Notified)

	pending, ok := repo.get(match.Pair{ResumeID: failing, JobID: jobID})
	require.True(t, ok)
	assert.False(t, pending.Notified)

	// the claim was released, so the sweep can pick it up right away
	notifier.mu.Lock()
	notifier.failFor = nil
	notifier.mu.Unlock()

	swept, err := uc.SweepPending(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 1, swept.Dispatched)

	recovered, _ := repo.get(match.Pair{ResumeID: failing, JobID: jobID})
	assert.True(t, recovered.Notified)
	assert.Len(t, notifier.sent(), 2)
}

func TestNotificationUsecase_ConcurrentTriggersDispatchOncePerRecipient(t *testing.T) {
	repo := newFakeMatchRepo()
	notifier := &fakeNotifier{delay: 5 * time.Millisecond}
	uc := NewNotificationUsecase(repo, notifier, nil, nil, "", time.Minute, nil)

	jobID := uuid.New()
	scores := map[uuid.UUID]int{}
	for i := 0; i < 5; i++ {
		scores[uuid.New()] = 70 + i*5
	}
	found := seedMatches(repo, jobID, scores)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.TriggerNotifications(context.Background(), embedding.OwnerJob, jobID, found)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	sent := notifier.sent()
	require.Len(t, sent, len(scores))
	seen := map[uuid.UUID]int{}
	for _, p := range sent {
		seen[p.RecipientID]++
	}
	for id := range scores {
		assert.Equal(t, 1, seen[id], "recipient %s", id)
	}
}

func TestNotificationUsecase_ResumeSubjectGroupsJobs(t *testing.T) {
	repo := newFakeMatchRepo()
	notifier := &fakeNotifier{}
	resumeID, j1, j2 := uuid.New(), uuid.New(), uuid.New()
	uc := NewNotificationUsecase(repo, notifier, fakeJobs{titles: map[uuid.UUID]string{
		j1: "Data Engineer",
		j2: "Platform Engineer",
	}}, nil, "", 0, nil)

	repo.seed(match.Record{ResumeID: resumeID, JobID: j1, MatchScore: 74, SimilarityScore: 0.74})
	repo.seed(match.Record{ResumeID: resumeID, JobID: j2, MatchScore: 92, SimilarityScore: 0.92})

	summary, err := uc.TriggerNotifications(context.Background(), embedding.OwnerResume, resumeID, []Match{
		{CounterpartID: j1, ResumeID: resumeID, JobID: j1, MatchScore: 74, SimilarityScore: 0.74},
		{CounterpartID: j2, ResumeID: resumeID, JobID: j2, MatchScore: 92, SimilarityScore: 0.92},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Recipients)
	assert.Equal(t, 2, summary.Marked)

	sent := notifier.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, resumeID, sent[0].RecipientID)
	assert.Equal(t, "2 new job matches found, best: Platform Engineer (Match Score: 92%)", sent[0].Message)

	items, ok := sent[0].Data["matches"].([]notification.MatchSummary)
	require.True(t, ok)
	require.Len(t, items, 2)
	assert.Equal(t, j2, items[0].JobID)
	assert.Equal(t, "Data Engineer", items[1].JobTitle)
}

func TestNotificationUsecase_InvalidOwner(t *testing.T) {
	uc := NewNotificationUsecase(newFakeMatchRepo(), &fakeNotifier{}, nil, nil, "", 0, nil)

	_, err := uc.TriggerNotifications(context.Background(), embedding.OwnerJob, uuid.Nil, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNotificationUsecase_DispatchRefreshesCachedListings(t *testing.T) {
	ctx := context.Background()
	repo := newFakeMatchRepo()
	cache := newFakeCache()
	matching := NewMatchingUsecase(nil, repo, cache, time.Hour, nil)
	notify := NewNotificationUsecase(repo, &fakeNotifier{}, nil, cache, "", time.Minute, nil)

	jobID, resumeID := uuid.New(), uuid.New()
	vec := []float32{0.6, 0.8}
	found, err := matching.MatchOneAgainstMany(ctx,
		Subject{Kind: embedding.OwnerJob, OwnerID: jobID, Vector: vec},
		[]Counterpart{{OwnerID: resumeID, Vector: vec}},
	)
	require.NoError(t, err)
	require.Len(t, found, 1)

	// warm both sides
	mine, err := matching.GetMatchesForOwner(ctx, embedding.OwnerResume, resumeID, 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.False(t, mine[0].Notified)
	forJob, err := matching.GetMatchesForOwner(ctx, embedding.OwnerJob, jobID, 0)
	require.NoError(t, err)
	require.False(t, forJob[0].Notified)

	summary, err := notify.TriggerNotifications(ctx, embedding.OwnerJob, jobID, found)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Marked)

	mine, err = matching.GetMatchesForOwner(ctx, embedding.OwnerResume, resumeID, 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.True(t, mine[0].Notified)

	forJob, err = matching.GetMatchesForOwner(ctx, embedding.OwnerJob, jobID, 0)
	require.NoError(t, err)
	require.Len(t, forJob, 1)
	assert.True(t, forJob[0].Notified)
}

func TestNotificationUsecase_SweepReclaimsExpiredLeaseOnly(t *testing.T) {
	ctx := context.Background()
	repo := newFakeMatchRepo()
	notifier := &fakeNotifier{}
	ttl := time.Minute
	uc := NewNotificationUsecase(repo, notifier, nil, nil, "", ttl, nil)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	uc.now = func() time.Time { return now }

	jobID, stale, fresh := uuid.New(), uuid.New(), uuid.New()
	seedMatches(repo, jobID, map[uuid.UUID]int{stale: 88, fresh: 81})
	repo.claimAt(match.Pair{ResumeID: stale, JobID: jobID}, now.Add(-2*ttl))
	repo.claimAt(match.Pair{ResumeID: fresh, JobID: jobID}, now)

	first, err := uc.SweepPending(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Dispatched)
	assert.Equal(t, 1, first.Skipped)
	sent := notifier.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, stale, sent[0].RecipientID)

	again, err := uc.SweepPending(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Dispatched)
	assert.Len(t, notifier.sent(), 1)

	now = now.Add(2 * ttl)
	later, err := uc.SweepPending(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, later.Dispatched)
	sent = notifier.sent()
	require.Len(t, sent, 2)
	assert.Equal(t, fresh, sent[1].RecipientID)

	for _, rec := range repo.all() {
		assert.True(t, rec.Notified)
	}
}
