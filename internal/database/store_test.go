package database

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "go-jobsearch-automation/internal/errors"
	"go-jobsearch-automation/internal/models"
)

var testEpoch = time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*Store, *FixedClock) {
	t.Helper()
	clock := NewFixedClock(testEpoch)
	s, err := Open(context.Background(), Options{
		Driver:       DriverSQLite,
		DSN:          filepath.Join(t.TempDir(), "jobs", "test.db"),
		RetryBackoff: -1,
		Clock:        clock,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, clock
}

func countJobs(t *testing.T, s *Store) int {
	t.Helper()
	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM jobs`).Scan(&n))
	return n
}

func TestOpenCreatesSchemaIdempotently(t *testing.T) {
	dir := t.TempDir()
	dsn := filepath.Join(dir, "nested", "jobs.db")
	ctx := context.Background()

	s, err := Open(ctx, Options{DSN: dsn})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = os.Stat(dsn)
	require.NoError(t, err)

	s, err = Open(ctx, Options{DSN: dsn})
	require.NoError(t, err)
	defer s.Close()

	var versions int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&versions))
	assert.Equal(t, 2, versions)
	assert.Equal(t, DriverSQLite, s.Driver())
}

func TestOpenConcurrentlyOnFreshDatabase(t *testing.T) {
	ctx := context.Background()
	for round := 0; round < 5; round++ {
		dsn := filepath.Join(t.TempDir(), "jobs.db")
		var wg sync.WaitGroup
		errs := make([]error, 4)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				s, err := Open(ctx, Options{DSN: dsn, RetryBackoff: -1})
				if err == nil {
					err = s.Close()
				}
				errs[i] = err
			}(i)
		}
		wg.Wait()
		for i, err := range errs {
			require.NoError(t, err, "round %d opener %d", round, i)
		}

		s, err := Open(ctx, Options{DSN: dsn})
		require.NoError(t, err)
		var versions int
		require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&versions))
		assert.Equal(t, 2, versions)
		require.NoError(t, s.Close())
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "oracle", DSN: "x"})
	require.Error(t, err)
}

func TestAddJobIdempotent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	raw := models.RawRecord{
		"job_title":    "Backend Engineer",
		"company_name": "Acme",
		"source_url":   "https://www.linkedin.com/jobs/view/1",
	}

	first, err := s.AddJob(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAdded, first.Status)
	assert.NotZero(t, first.ID)

	second, err := s.AddJob(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAlreadyExists, second.Status)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, countJobs(t, s))
}

func TestAddJobAliasesShareIdentity(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	first, err := s.AddJob(ctx, models.RawRecord{"title": "X", "company": "Y"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusAdded, first.Status)

	second, err := s.AddJob(ctx, models.RawRecord{"job_title": "X", "company_name": "Y"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusAlreadyExists, second.Status)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, countJobs(t, s))
}

func TestAddJobValidation(t *testing.T) {
	tests := []struct {
		name  string
		raw   models.RawRecord
		field string
	}{
		{name: "missing title", raw: models.RawRecord{"company_name": "Y"}, field: "job_title"},
		{name: "missing company", raw: models.RawRecord{"title": "X"}, field: "company_name"},
		{name: "blank both", raw: models.RawRecord{"title": "  ", "company": nil}, field: "job_title,company_name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStore(t)
			_, err := s.AddJob(context.Background(), tt.raw)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			assert.Equal(t, tt.field, apperrors.GetField(err))
			assert.Equal(t, 0, countJobs(t, s))
		})
	}
}

func TestAddJobAssemblesDescription(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	out, err := s.AddJob(ctx, models.RawRecord{
		"job_title":            "Engineer",
		"company_name":         "Acme",
		"job_responsibilities": []any{"A", "B"},
		"job_requirements":     []any{"C"},
	})
	require.NoError(t, err)

	job, err := s.GetJob(ctx, out.ID)
	require.NoError(t, err)
	require.NotNil(t, job.JobDescription)
	desc := *job.JobDescription

	a := strings.Index(desc, "A")
	b := strings.Index(desc, "B")
	marker := strings.Index(desc, "Requirements:")
	c := strings.LastIndex(desc, "C")
	require.True(t, a >= 0 && b >= 0 && marker >= 0 && c >= 0, desc)
	assert.Less(t, a, b)
	assert.Less(t, b, marker)
	assert.Less(t, marker, c)
}

func TestAddJobRoundTripsStructuredFields(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	out, err := s.AddJob(ctx, models.RawRecord{
		"title":           "Data Engineer",
		"company":         "Globex",
		"url":             "https://example.com/jobs/42",
		"skills_required": []any{"go", "sql"},
		"hiring_team":     []any{map[string]any{"name": "Jane"}},
		"salary_info":     "$100k",
		"company_website": "https://globex.example",
		"easy_apply":      true,
		"location":        "Remote",
	})
	require.NoError(t, err)

	job, err := s.GetJob(ctx, out.ID)
	require.NoError(t, err)
	assert.Equal(t, []any{"go", "sql"}, job.JobInsights)
	assert.Equal(t, []any{map[string]any{"name": "Jane"}}, job.HiringTeam)
	assert.Equal(t, map[string]any{"salary_info": "$100k"}, job.ApplyInfo)
	assert.Equal(t, map[string]any{"website": "https://globex.example"}, job.CompanyInfo)
	assert.Nil(t, job.RelatedJobs)
	require.NotNil(t, job.EasyApply)
	assert.True(t, *job.EasyApply)
	require.NotNil(t, job.JobLocation)
	assert.Equal(t, "Remote", *job.JobLocation)
	assert.Equal(t, "linkedin", job.Source)
	assert.True(t, testEpoch.Equal(job.CreatedAt), job.CreatedAt)

	var related any
	require.NoError(t, s.db.QueryRow(`SELECT related_jobs FROM jobs WHERE id = ?`, out.ID).Scan(&related))
	assert.Nil(t, related, "absent complex fields are stored as NULL")
}

func TestAddJobConcurrentDuplicates(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	raw := models.RawRecord{"title": "SRE", "company": "Initech", "url": "https://example.com/sre"}

	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		added    int
		failures []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := s.AddJob(ctx, raw)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				return
			}
			if out.Status == models.StatusAdded {
				added++
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, failures)
	assert.Equal(t, 1, added)
	assert.Equal(t, 1, countJobs(t, s))
}

func TestConflictingJobID(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	out, err := s.AddJob(ctx, models.RawRecord{"title": "Go Developer", "company": "Acme", "url": "https://example.com/jobs/1"})
	require.NoError(t, err)

	id, err := s.conflictingJobID(ctx, out.Job.Key())
	require.NoError(t, err)
	assert.Equal(t, out.ID, id)

	_, err = s.conflictingJobID(ctx, models.JobKey{SourceURL: "https://example.com/jobs/404"})
	assert.True(t, apperrors.IsStorage(err))

	require.NoError(t, s.Close())
	_, err = s.conflictingJobID(ctx, out.Job.Key())
	require.Error(t, err)
	assert.True(t, apperrors.IsStorage(err))
}

func TestJobExists(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	_, err := s.AddJob(ctx, models.RawRecord{"title": "A", "company": "B", "url": "https://example.com/a"})
	require.NoError(t, err)
	_, err = s.AddJob(ctx, models.RawRecord{"title": "C", "company": "D"})
	require.NoError(t, err)

	tests := []struct {
		name                string
		url, title, company string
		want                bool
	}{
		{name: "by url", url: "https://example.com/a", want: true},
		{name: "url takes priority", url: "https://example.com/missing", title: "C", company: "D", want: false},
		{name: "by title and company", title: "C", company: "D", want: true},
		{name: "title only", title: "C", want: false},
		{name: "nothing", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.JobExists(ctx, tt.url, tt.title, tt.company)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetJobsNewestFirst(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	for _, title := range []string{"first", "second", "third"} {
		_, err := s.AddJob(ctx, models.RawRecord{"title": title, "company": "Acme"})
		require.NoError(t, err)
		clock.Advance(time.Minute)
	}

	jobs, err := s.GetJobs(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "third", jobs[0].JobTitle)
	assert.Equal(t, "second", jobs[1].JobTitle)

	jobs, err = s.GetJobs(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "first", jobs[0].JobTitle)
}

func TestSearchJobs(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	records := []models.RawRecord{
		{"title": "Golang Developer", "company": "Acme", "location": "Ho Chi Minh City"},
		{"title": "Backend Engineer", "company": "Globex", "description": "We use GOLANG and Postgres", "location": "Remote"},
		{"title": "Frontend Engineer", "company": "Acme Labs", "location": "Remote"},
		{"title": "100% Remote Tester", "company": "Initech"},
	}
	for _, r := range records {
		_, err := s.AddJob(ctx, r)
		require.NoError(t, err)
		clock.Advance(time.Second)
	}

	titles := func(jobs []models.JobPosting) []string {
		var out []string
		for _, j := range jobs {
			out = append(out, j.JobTitle)
		}
		return out
	}

	tests := []struct {
		name   string
		filter JobFilter
		want   []string
	}{
		{name: "no predicates", filter: JobFilter{}, want: []string{"100% Remote Tester", "Frontend Engineer", "Backend Engineer", "Golang Developer"}},
		{name: "keyword in title or description", filter: JobFilter{Keyword: "golang"}, want: []string{"Backend Engineer", "Golang Developer"}},
		{name: "company substring", filter: JobFilter{Company: "acme"}, want: []string{"Frontend Engineer", "Golang Developer"}},
		{name: "anded predicates", filter: JobFilter{Company: "Acme", Location: "remote"}, want: []string{"Frontend Engineer"}},
		{name: "wildcards are literal", filter: JobFilter{Keyword: "100%"}, want: []string{"100% Remote Tester"}},
		{name: "no match", filter: JobFilter{Keyword: "rust"}, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobs, err := s.SearchJobs(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(jobs))
		})
	}
}

func TestGetStats(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	for i, company := range []string{"Acme", "Acme", "Globex", "Acme", "Globex", "Initech"} {
		source := "linkedin"
		if i%2 == 1 {
			source = "topcv"
		}
		_, err := s.AddJob(ctx, models.RawRecord{
			"title":   "Role " + string(rune('A'+i)),
			"company": company,
			"source":  source,
		})
		require.NoError(t, err)
	}

	stats, err := s.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, stats.TotalJobs)
	assert.Equal(t, []models.CompanyCount{
		{Company: "Acme", Count: 3},
		{Company: "Globex", Count: 2},
		{Company: "Initech", Count: 1},
	}, stats.TopCompanies)
	assert.Equal(t, []models.SourceCount{
		{Source: "linkedin", Count: 3},
		{Source: "topcv", Count: 3},
	}, stats.BySource)
}

func TestDeleteJobCascadesToDocuments(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	out, err := s.AddJob(ctx, models.RawRecord{"title": "Engineer", "company": "Acme"})
	require.NoError(t, err)
	docID, err := s.AddDocument(ctx, models.NewDocument{Type: models.DocumentCV, Content: "cv", JobID: &out.ID})
	require.NoError(t, err)
	_, err = s.UpdateDocumentContent(ctx, docID, "cv v2", "")
	require.NoError(t, err)

	deleted, err := s.DeleteJob(ctx, out.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = s.GetDocument(ctx, docID)
	assert.True(t, apperrors.IsNotFound(err))
	versions, err := s.GetDocumentVersions(ctx, docID)
	require.NoError(t, err)
	assert.Empty(t, versions)

	deleted, err = s.DeleteJob(ctx, out.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestGetJobNotFound(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.GetJob(context.Background(), 999)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestWithRetryGivesUpOnContention(t *testing.T) {
	s, _ := newTestStore(t)
	attempts := 0
	busy := apperrors.Wrap(assert.AnError, apperrors.ErrCodeContention, "database is locked")

	err := s.withRetry(context.Background(), "test_op", func(*sql.Tx) error {
		attempts++
		return busy
	})
	require.Error(t, err)
	assert.Equal(t, defaultMaxAttempts, attempts)
	assert.True(t, apperrors.IsStorage(err))
	assert.False(t, apperrors.IsContention(err))
	assert.Contains(t, err.Error(), "gave up after 3 attempts")
}

func TestWithRetryDoesNotRetryValidation(t *testing.T) {
	s, _ := newTestStore(t)
	attempts := 0
	err := s.withRetry(context.Background(), "test_op", func(*sql.Tx) error {
		attempts++
		return apperrors.Validation("bad input")
	})
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, 1, attempts)
}

func TestWithRetryStopsWhenCanceled(t *testing.T) {
	s, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := s.withRetry(ctx, "test_op", func(*sql.Tx) error {
		attempts++
		cancel()
		return apperrors.Wrap(assert.AnError, apperrors.ErrCodeContention, "database is locked")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.True(t, apperrors.IsCanceled(err))
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" || testing.Short() {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, Options{Driver: DriverPostgres, DSN: url, RetryBackoff: -1})
	require.NoError(t, err)
	defer s.Close()

	raw := models.RawRecord{
		"title":   "Platform Engineer",
		"company": "Acme",
		"url":     "https://example.com/jobs/" + uuid.NewString(),
	}
	first, err := s.AddJob(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAdded, first.Status)
	t.Cleanup(func() { _, _ = s.DeleteJob(context.Background(), first.ID) })

	second, err := s.AddJob(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAlreadyExists, second.Status)

	docID, err := s.AddDocument(ctx, models.NewDocument{Type: models.DocumentCoverLetter, Content: "v1", JobID: &first.ID})
	require.NoError(t, err)
	ok, err := s.UpdateDocumentContent(ctx, docID, "v2", "")
	require.NoError(t, err)
	assert.True(t, ok)

	versions, err := s.GetDocumentVersions(ctx, docID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[1].VersionNumber)
}
