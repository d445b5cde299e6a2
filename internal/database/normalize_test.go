package database

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-jobsearch-automation/internal/models"
)

func TestNormalizeJobAliases(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		raw   models.RawRecord
		check func(t *testing.T, job models.JobPosting)
	}{
		{
			name: "first present alias wins",
			raw:  models.RawRecord{"job_title": "", "title": "Go Dev", "position_title": "Ignored", "company": "Acme"},
			check: func(t *testing.T, job models.JobPosting) {
				assert.Equal(t, "Go Dev", job.JobTitle)
				assert.Equal(t, "Acme", job.CompanyName)
			},
		},
		{
			name: "url aliases",
			raw:  models.RawRecord{"title": "A", "company": "B", "job_url": "https://example.com/1"},
			check: func(t *testing.T, job models.JobPosting) {
				require.NotNil(t, job.SourceURL)
				assert.Equal(t, "https://example.com/1", *job.SourceURL)
				assert.Equal(t, models.JobKey{SourceURL: "https://example.com/1", Title: "A", Company: "B"}, job.Key())
			},
		},
		{
			name: "defaults",
			raw:  models.RawRecord{"title": "A", "company": "B"},
			check: func(t *testing.T, job models.JobPosting) {
				assert.Equal(t, "linkedin", job.Source)
				assert.Equal(t, "2026-03-01T12:00:00Z", job.ScrapedAt)
				assert.Nil(t, job.SourceURL)
				assert.Nil(t, job.JobDescription)
				assert.Nil(t, job.ApplyInfo)
				assert.Nil(t, job.CompanyInfo)
				assert.Nil(t, job.EasyApply)
			},
		},
		{
			name: "single description wins over parts",
			raw: models.RawRecord{
				"title": "A", "company": "B",
				"about_job":            "Full text",
				"job_responsibilities": []any{"ignored"},
			},
			check: func(t *testing.T, job models.JobPosting) {
				require.NotNil(t, job.JobDescription)
				assert.Equal(t, "Full text", *job.JobDescription)
			},
		},
		{
			name: "string requirements are prefixed inline",
			raw: models.RawRecord{
				"title": "A", "company": "B",
				"job_responsibilities": "Build things",
				"job_requirements":     "3 years of Go",
			},
			check: func(t *testing.T, job models.JobPosting) {
				require.NotNil(t, job.JobDescription)
				assert.Equal(t, "Build things\nRequirements: 3 years of Go", *job.JobDescription)
			},
		},
		{
			name: "apply info constituents",
			raw: models.RawRecord{
				"title": "A", "company": "B",
				"contact_person":            "Jane",
				"contact_email_or_linkedin": "jane@example.com",
			},
			check: func(t *testing.T, job models.JobPosting) {
				assert.Equal(t, map[string]any{"contact_person": "Jane", "contact_email": "jane@example.com"}, job.ApplyInfo)
			},
		},
		{
			name: "easy apply from text",
			raw:  models.RawRecord{"title": "A", "company": "B", "easy_apply": "true"},
			check: func(t *testing.T, job models.JobPosting) {
				require.NotNil(t, job.EasyApply)
				assert.True(t, *job.EasyApply)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, err := NormalizeJob(tt.raw, now)
			require.NoError(t, err)
			tt.check(t, job)
		})
	}
}

func TestDecodeJSONFallsBackToText(t *testing.T) {
	legacy := "Python, SQL"
	assert.Equal(t, "Python, SQL", decodeJSON(&legacy))

	encoded := `{"a":1}`
	assert.Equal(t, map[string]any{"a": float64(1)}, decodeJSON(&encoded))
	assert.Nil(t, decodeJSON(nil))
}

func TestRebind(t *testing.T) {
	q := `SELECT id FROM jobs WHERE job_title = ? AND company_name = ?`
	assert.Equal(t, q, sqliteDialect.rebind(q))
	assert.Equal(t, `SELECT id FROM jobs WHERE job_title = $1 AND company_name = $2`, postgresDialect.rebind(q))

	many := `INSERT INTO t VALUES (` + strings.TrimSuffix(strings.Repeat("?, ", 11), ", ") + `)`
	assert.True(t, strings.HasSuffix(postgresDialect.rebind(many), "$9, $10, $11)"))
}

func TestSplitStatements(t *testing.T) {
	body := `-- header comment
CREATE TABLE a (id INTEGER);

-- trailing comment only
CREATE INDEX i ON a(id);
-- done
`
	stmts := splitStatements(body)
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], "CREATE TABLE a")
	assert.Contains(t, stmts[1], "CREATE INDEX i")
}

func TestPostgresDataSource(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@db:5432/jobs":                  "postgres://u:p@db:5432/jobs?default_query_exec_mode=exec",
		"postgres://db/jobs?sslmode=disable":           "postgres://db/jobs?sslmode=disable&default_query_exec_mode=exec",
		"host=db dbname=jobs":                          "host=db dbname=jobs default_query_exec_mode=exec",
		"postgres://db/jobs?default_query_exec_mode=x": "postgres://db/jobs?default_query_exec_mode=x",
	}
	for in, want := range tests {
		assert.Equal(t, want, postgresDataSource(in), in)
	}
}
