package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobscout/internal/repository"
)

type fakeResumes struct {
	mu    sync.Mutex
	saved map[uuid.UUID]repository.ResumeContent
	err   error
}

func (f *fakeResumes) FindResume(_ context.Context, id uuid.UUID) (*repository.ResumeContent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.saved[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (f *fakeResumes) SaveResume(_ context.Context, r repository.ResumeContent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.saved == nil {
		f.saved = map[uuid.UUID]repository.ResumeContent{}
	}
	f.saved[r.OwnerID] = r
	return nil
}

func (f *fakeResumes) DeleteResume(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.saved, id)
	return nil
}

func (f *fakeResumes) ListResumeOwnerIDs(_ context.Context, _, _ int) ([]uuid.UUID, error) {
	return nil, nil
}

const sampleResume = `John Smith
john.smith@example.com
Backend developer with six years building Go services and APIs.
Skills: Go, PostgreSQL, Docker, Kubernetes`

func TestResumeUsecase_ParseResumeText(t *testing.T) {
	uc := NewResumeUsecase(nil, 8, time.Minute, nil)

	p, err := uc.ParseResumeText(sampleResume)
	require.NoError(t, err)
	assert.Equal(t, "john.smith@example.com", p.Email)
	assert.Equal(t, "John Smith", p.Name)
	assert.Subset(t, p.Skills, []string{"Go", "PostgreSQL", "Docker", "Kubernetes"})
}

func TestResumeUsecase_ParseResumeText_CachedCopyIsIndependent(t *testing.T) {
	uc := NewResumeUsecase(nil, 8, time.Minute, nil)

	first, err := uc.ParseResumeText(sampleResume)
	require.NoError(t, err)
	require.NotEmpty(t, first.Skills)
	first.Skills[0] = "mutated"

	second, err := uc.ParseResumeText(sampleResume)
	require.NoError(t, err)
	assert.NotContains(t, second.Skills, "mutated")
}

func TestResumeUsecase_ParseResumeText_BlankGivesEmptyProfile(t *testing.T) {
	uc := NewResumeUsecase(nil, 0, 0, nil)

	p, err := uc.ParseResumeText(" \n ")
	require.NoError(t, err)
	assert.NotNil(t, p.Skills)
	assert.Empty(t, p.Skills)
	assert.Empty(t, p.Email)
	assert.Empty(t, p.Name)

	// blank text still cannot be stored for embedding
	_, err = uc.StoreResume(context.Background(), uuid.New(), " \n ")
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestResumeUsecase_Status(t *testing.T) {
	store := &fakeResumes{}
	uc := NewResumeUsecase(store, 0, 0, nil)
	owner := uuid.New()
	ctx := context.Background()

	st, err := uc.Status(ctx, owner)
	require.NoError(t, err)
	assert.False(t, st.HasResume)
	assert.Nil(t, st.LastUpdated)

	at := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	long := strings.Repeat("é", 250)
	require.NoError(t, store.SaveResume(ctx, repository.ResumeContent{OwnerID: owner, RawText: long, ParsedAt: at}))

	st, err = uc.Status(ctx, owner)
	require.NoError(t, err)
	assert.True(t, st.HasResume)
	assert.Equal(t, strings.Repeat("é", 200)+"...", st.Preview)
	require.NotNil(t, st.LastUpdated)
	assert.Equal(t, at, *st.LastUpdated)

	require.NoError(t, store.SaveResume(ctx, repository.ResumeContent{OwnerID: owner, RawText: "short", ParsedAt: at}))
	st, err = uc.Status(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "short", st.Preview)

	_, err = uc.Status(ctx, uuid.Nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestResumeUsecase_StoreResume(t *testing.T) {
	store := &fakeResumes{}
	uc := NewResumeUsecase(store, 8, time.Minute, nil)
	owner := uuid.New()

	p, err := uc.StoreResume(context.Background(), owner, "  "+sampleResume+"\n\n")
	require.NoError(t, err)
	assert.Equal(t, "john.smith@example.com", p.Email)

	saved, err := store.FindResume(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, sampleResume, saved.RawText)

	_, err = uc.StoreResume(context.Background(), uuid.Nil, sampleResume)
	assert.ErrorIs(t, err, ErrInvalidInput)

	store.err = errors.New("disk full")
	_, err = uc.StoreResume(context.Background(), owner, sampleResume)
	assert.Error(t, err)
}

func TestJobText(t *testing.T) {
	got := JobText(repository.JobContent{
		Title:            "Go Engineer",
		Description:      " Build services ",
		Requirements:     []string{"Go", "SQL"},
		Responsibilities: nil,
	})
	assert.Equal(t, "Go Engineer Build services Go SQL", got)
	assert.Empty(t, JobText(repository.JobContent{}))
}
