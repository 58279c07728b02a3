package seeder

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"jobscout/internal/database"
)

type SampleJob struct {
	ID               uuid.UUID
	Title            string
	Company          string
	Location         string
	Description      string
	Requirements     []string
	Responsibilities []string
}

// SampleJobs use fixed ids so reseeding never duplicates a posting.
var SampleJobs = []SampleJob{
	{
		ID:               uuid.MustParse("6f1c2a10-3b7e-4c55-9d2a-1e0f5a6b7c01"),
		Title:            "Backend Engineer (Go)",
		Company:          "Northwind Labs",
		Location:         "Remote",
		Description:      "Build and maintain Go services, REST APIs and PostgreSQL-backed systems.",
		Requirements:     []string{"3+ years of Go", "PostgreSQL", "Docker"},
		Responsibilities: []string{"Own service reliability", "Review pull requests"},
	},
	{
		ID:               uuid.MustParse("6f1c2a10-3b7e-4c55-9d2a-1e0f5a6b7c02"),
		Title:            "Fullstack Engineer (React + Go)",
		Company:          "Northwind Labs",
		Location:         "Austin, TX",
		Description:      "Develop web apps with React and TypeScript on top of Go backend services.",
		Requirements:     []string{"React", "TypeScript", "Go"},
		Responsibilities: []string{"Ship features end to end"},
	},
	{
		ID:               uuid.MustParse("6f1c2a10-3b7e-4c55-9d2a-1e0f5a6b7c03"),
		Title:            "DevOps Engineer",
		Company:          "Cloudline",
		Location:         "Remote",
		Description:      "Operate CI/CD, Docker, Kubernetes and cloud infrastructure for production workloads.",
		Requirements:     []string{"Kubernetes", "Terraform", "AWS"},
		Responsibilities: []string{"Run the deploy pipeline", "Be on call"},
	},
	{
		ID:               uuid.MustParse("6f1c2a10-3b7e-4c55-9d2a-1e0f5a6b7c04"),
		Title:            "Data Engineer",
		Company:          "Insightworks",
		Location:         "Chicago, IL",
		Description:      "Build data pipelines, manage warehouses and tune PostgreSQL for analytics.",
		Requirements:     []string{"Python", "SQL", "Airflow"},
		Responsibilities: []string{"Maintain ingestion jobs"},
	},
}

type JobsSeeder struct {
	Jobs []SampleJob
}

func (JobsSeeder) Name() string { return "jobs" }

func (s JobsSeeder) Run(ctx context.Context, db database.DB) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(context.Background())
	}()

	for _, j := range s.Jobs {
		_, err := tx.Exec(ctx,
			`INSERT INTO jobs (id, title, company, location, description, requirements, responsibilities)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (id) DO NOTHING`,
			j.ID, j.Title, j.Company, j.Location, j.Description, j.Requirements, j.Responsibilities,
		)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
