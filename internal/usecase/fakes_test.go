package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"jobscout/internal/domain/embedding"
	"jobscout/internal/domain/match"
	"jobscout/internal/domain/notification"
	"jobscout/internal/repository"
)

type ownerKey struct {
	kind embedding.OwnerKind
	id   uuid.UUID
}

type fakeEmbeddingRepo struct {
	mu      sync.Mutex
	records map[ownerKey]embedding.Record
	err     error
	upserts int
}

func newFakeEmbeddingRepo() *fakeEmbeddingRepo {
	return &fakeEmbeddingRepo{records: map[ownerKey]embedding.Record{}}
}

func (f *fakeEmbeddingRepo) put(kind embedding.OwnerKind, id uuid.UUID, vec []float32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[ownerKey{kind, id}] = embedding.Record{OwnerKind: kind, OwnerID: id, Vector: vec, ContentHash: "seed"}
}

func (f *fakeEmbeddingRepo) FindByOwner(_ context.Context, kind embedding.OwnerKind, id uuid.UUID) (*embedding.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	rec, ok := f.records[ownerKey{kind, id}]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (f *fakeEmbeddingRepo) ListByKind(_ context.Context, kind embedding.OwnerKind) ([]embedding.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]embedding.Record, 0)
	for k, r := range f.records {
		if k.kind == kind {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OwnerID.String() < out[j].OwnerID.String() })
	return out, nil
}

func (f *fakeEmbeddingRepo) Upsert(_ context.Context, rec embedding.Record, _ string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	f.upserts++
	k := ownerKey{rec.OwnerKind, rec.OwnerID}
	if prev, ok := f.records[k]; ok && prev.ContentHash == rec.ContentHash {
		return false, nil
	}
	f.records[k] = rec
	return true, nil
}

func (f *fakeEmbeddingRepo) DeleteByOwner(_ context.Context, kind embedding.OwnerKind, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := ownerKey{kind, id}
	_, ok := f.records[k]
	delete(f.records, k)
	return ok, nil
}

type matchEntry struct {
	rec       match.Record
	claimID   uuid.UUID
	claimedAt *time.Time
}

type fakeMatchRepo struct {
	mu        sync.Mutex
	entries   map[match.Pair]*matchEntry
	upsertErr error
	claimErr  error
	markErr   error
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{entries: map[match.Pair]*matchEntry{}}
}

func (f *fakeMatchRepo) seed(rec match.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	f.entries[rec.Pair()] = &matchEntry{rec: rec}
}

// claimAt leaves p leased by another dispatcher since at.
func (f *fakeMatchRepo) claimAt(p match.Pair, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.entries[p]; ok {
		e.claimID = uuid.New()
		e.claimedAt = &at
	}
}

func (f *fakeMatchRepo) get(p match.Pair) (match.Record, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[p]
	if !ok {
		return match.Record{}, false
	}
	return e.rec, true
}

func (f *fakeMatchRepo) all() []match.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]match.Record, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.rec)
	}
	return out
}

func (f *fakeMatchRepo) Upsert(_ context.Context, m repository.MatchUpsert) (match.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return match.Record{}, f.upsertErr
	}
	p := match.Pair{ResumeID: m.ResumeID, JobID: m.JobID}
	e, ok := f.entries[p]
	if !ok {
		e = &matchEntry{rec: match.Record{ID: uuid.New(), ResumeID: m.ResumeID, JobID: m.JobID, CreatedAt: m.At}}
		f.entries[p] = e
	}
	e.rec.MatchScore = m.MatchScore
	e.rec.SimilarityScore = m.SimilarityScore
	e.rec.UpdatedAt = m.At
	return e.rec, nil
}

func (f *fakeMatchRepo) FindForOwner(_ context.Context, q repository.MatchQuery) ([]match.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]match.Record, 0)
	for _, e := range f.entries {
		owner := e.rec.ResumeID
		if q.OwnerKind == embedding.OwnerJob {
			owner = e.rec.JobID
		}
		if owner != q.OwnerID || e.rec.MatchScore < q.MinScore {
			continue
		}
		out = append(out, e.rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchScore > out[j].MatchScore })
	return out, nil
}

func (f *fakeMatchRepo) FindPair(_ context.Context, p match.Pair) (*match.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[p]
	if !ok {
		return nil, nil
	}
	rec := e.rec
	return &rec, nil
}

func (f *fakeMatchRepo) Claim(_ context.Context, claimID uuid.UUID, pairs []match.Pair, now time.Time, ttl time.Duration) ([]match.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claimErr != nil {
		return nil, f.claimErr
	}
	out := make([]match.Record, 0)
	for _, p := range pairs {
		e, ok := f.entries[p]
		if !ok || e.rec.Notified {
			continue
		}
		if e.claimedAt != nil && !e.claimedAt.Before(now.Add(-ttl)) {
			continue
		}
		at := now
		e.claimID = claimID
		e.claimedAt = &at
		out = append(out, e.rec)
	}
	return out, nil
}

func (f *fakeMatchRepo) MarkNotified(_ context.Context, claimID uuid.UUID, pairs []match.Pair, at time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return 0, f.markErr
	}
	var n int64
	for _, p := range pairs {
		e, ok := f.entries[p]
		if !ok || e.rec.Notified || e.claimID != claimID {
			continue
		}
		t := at
		e.rec.Notified = true
		e.rec.NotifiedAt = &t
		e.claimID = uuid.Nil
		e.claimedAt = nil
		n++
	}
	return n, nil
}

func (f *fakeMatchRepo) ReleaseClaim(_ context.Context, claimID uuid.UUID, pairs []match.Pair) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range pairs {
		e, ok := f.entries[p]
		if !ok || e.rec.Notified || e.claimID != claimID {
			continue
		}
		e.claimID = uuid.Nil
		e.claimedAt = nil
	}
	return nil
}

func (f *fakeMatchRepo) ListUnnotified(_ context.Context, limit int) ([]match.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]match.Record, 0)
	for _, e := range f.entries {
		if !e.rec.Notified {
			out = append(out, e.rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeMatchRepo) DeleteByOwner(_ context.Context, kind embedding.OwnerKind, id uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for p, e := range f.entries {
		owner := e.rec.ResumeID
		if kind == embedding.OwnerJob {
			owner = e.rec.JobID
		}
		if owner == id {
			delete(f.entries, p)
			n++
		}
	}
	return n, nil
}

type fakeGateway struct {
	mu          sync.Mutex
	calls       int
	vectors     map[string][]float32
	fallback    []float32
	err         error
	sawDeadline bool
}

func (g *fakeGateway) Embed(ctx context.Context, text string) ([]float32, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	_, g.sawDeadline = ctx.Deadline()
	if g.err != nil {
		return nil, g.err
	}
	if v, ok := g.vectors[text]; ok {
		return v, nil
	}
	if g.fallback != nil {
		return g.fallback, nil
	}
	return []float32{1, 0, 0}, nil
}

func (g *fakeGateway) Model() string { return "fake-model" }

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type fakeNotifier struct {
	mu       sync.Mutex
	payloads []notification.Payload
	failFor  map[uuid.UUID]bool
	delay    time.Duration
}

func (n *fakeNotifier) Notify(_ context.Context, p notification.Payload) error {
	if n.delay > 0 {
		time.Sleep(n.delay)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failFor[p.RecipientID] {
		return errors.New("queue unavailable")
	}
	n.payloads = append(n.payloads, p)
	return nil
}

func (n *fakeNotifier) sent() []notification.Payload {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notification.Payload, len(n.payloads))
	copy(out, n.payloads)
	return out
}

type fakeJobs struct {
	titles map[uuid.UUID]string
}

func (f fakeJobs) FindJob(_ context.Context, id uuid.UUID) (*repository.JobContent, error) {
	t, ok := f.titles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &repository.JobContent{ID: id, Title: t}, nil
}

type fakeCache struct {
	mu      sync.Mutex
	items   map[string][]byte
	deletes []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{items: map[string][]byte{}}
}

func (c *fakeCache) GetJSON(_ context.Context, key string, out any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.items[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, out)
}

func (c *fakeCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.items[key] = b
	return nil
}

func (c *fakeCache) DeleteByPattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes = append(c.deletes, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
		}
	}
	return nil
}
