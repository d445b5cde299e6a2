package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	apperrors "go-jobsearch-automation/internal/errors"
	"go-jobsearch-automation/internal/models"
)

const jobColumns = `id, source_url, source, scraped_at, job_title, company_name, job_description,
	job_location, date_posted, job_insights, easy_apply, apply_info, company_info, hiring_team,
	related_jobs, created_at`

const topCompaniesLimit = 10

// AddJob normalizes raw and stores it unless a posting with the same natural key exists.
// A duplicate is reported as StatusAlreadyExists, never as an error.
func (s *Store) AddJob(ctx context.Context, raw models.RawRecord) (models.AddOutcome, error) {
	job, err := NormalizeJob(raw, s.clock.Now())
	if err != nil {
		s.logger.Info("rejected job record", slog.String("field", apperrors.GetField(err)), slog.Any("error", err))
		return models.AddOutcome{}, err
	}

	args, err := jobInsertArgs(job, formatTime(job.CreatedAt))
	if err != nil {
		return models.AddOutcome{}, apperrors.Validationf("encode job fields: %v", err)
	}

	var (
		id     int64
		exists bool
	)
	err = s.withRetry(ctx, "add_job", func(tx *sql.Tx) error {
		existing, found, err := s.findJobID(ctx, tx, job.Key())
		if err != nil {
			return err
		}
		if found {
			id, exists = existing, true
			return nil
		}
		exists = false
		return tx.QueryRowContext(ctx, s.q(`
			INSERT INTO jobs (source_url, source, scraped_at, job_title, company_name, job_description,
				job_location, date_posted, job_insights, easy_apply, apply_info, company_info,
				hiring_team, related_jobs, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`), args...).Scan(&id)
	})

	switch {
	case err == nil:
	case apperrors.IsConflict(err):
		// Lost a race with a concurrent identical insert.
		exists = true
		if id, err = s.conflictingJobID(ctx, job.Key()); err != nil {
			return models.AddOutcome{}, err
		}
	default:
		return models.AddOutcome{}, err
	}

	job.ID = id
	if exists {
		s.logger.Debug("job already stored",
			slog.Int64("id", id),
			slog.String("title", job.JobTitle),
			slog.String("company", job.CompanyName),
		)
		return models.AddOutcome{Status: models.StatusAlreadyExists, ID: id, Job: job}, nil
	}
	return models.AddOutcome{Status: models.StatusAdded, ID: id, Job: job}, nil
}

func jobInsertArgs(job models.JobPosting, createdAt string) ([]any, error) {
	var encoded [5]any
	for i, v := range []any{job.JobInsights, job.ApplyInfo, job.CompanyInfo, job.HiringTeam, job.RelatedJobs} {
		e, err := encodeJSON(v)
		if err != nil {
			return nil, err
		}
		encoded[i] = e
	}
	var easyApply any
	if job.EasyApply != nil {
		easyApply = *job.EasyApply
	}
	return []any{
		nullArg(job.SourceURL), job.Source, job.ScrapedAt, job.JobTitle, job.CompanyName,
		nullArg(job.JobDescription), nullArg(job.JobLocation), nullArg(job.DatePosted), encoded[0],
		easyApply, encoded[1], encoded[2], encoded[3], encoded[4], createdAt,
	}, nil
}

// conflictingJobID resolves the row that won a unique-constraint race for key.
func (s *Store) conflictingJobID(ctx context.Context, key models.JobKey) (int64, error) {
	id, found, err := s.findJobID(ctx, s.db, key)
	if err != nil {
		return 0, readErr("add_job: look up conflicting job", err)
	}
	if !found {
		return 0, apperrors.Storage(sql.ErrNoRows, "add_job: conflicting job vanished")
	}
	return id, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// findJobID looks up a posting by URL when the key has one, else by title and company.
func (s *Store) findJobID(ctx context.Context, q queryer, key models.JobKey) (int64, bool, error) {
	var (
		query string
		args  []any
	)
	if key.SourceURL != "" {
		query, args = `SELECT id FROM jobs WHERE source_url = ? LIMIT 1`, []any{key.SourceURL}
	} else {
		query = `SELECT id FROM jobs WHERE job_title = ? AND company_name = ? LIMIT 1`
		args = []any{key.Title, key.Company}
	}
	var id int64
	err := q.QueryRowContext(ctx, s.q(query), args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// JobExists reports whether a posting is stored under the given key. The URL takes
// priority; without one both title and company are required, otherwise false.
func (s *Store) JobExists(ctx context.Context, sourceURL, title, company string) (bool, error) {
	key := models.JobKey{
		SourceURL: strings.TrimSpace(sourceURL),
		Title:     strings.TrimSpace(title),
		Company:   strings.TrimSpace(company),
	}
	if key.SourceURL == "" && (key.Title == "" || key.Company == "") {
		return false, nil
	}
	_, found, err := s.findJobID(ctx, s.db, key)
	if err != nil {
		return false, readErr("job_exists", err)
	}
	return found, nil
}

// GetJob returns the posting with the given id or a not_found error.
func (s *Store) GetJob(ctx context.Context, id int64) (models.JobPosting, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT `+jobColumns+` FROM jobs WHERE id = ?`), id)
	if err != nil {
		return models.JobPosting{}, readErr("get_job", err)
	}
	jobs, err := scanJobs(rows)
	if err != nil {
		return models.JobPosting{}, readErr("get_job", err)
	}
	if len(jobs) == 0 {
		return models.JobPosting{}, apperrors.NotFoundf("job %d not found", id)
	}
	return jobs[0], nil
}

// GetJobs returns a page of postings, newest first. A non-positive limit uses the default page size.
func (s *Store) GetJobs(ctx context.Context, limit, offset int) ([]models.JobPosting, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT `+jobColumns+` FROM jobs
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`), limit, offset)
	if err != nil {
		return nil, readErr("get_jobs", err)
	}
	jobs, err := scanJobs(rows)
	if err != nil {
		return nil, readErr("get_jobs", err)
	}
	return jobs, nil
}

// JobFilter holds the optional predicates of SearchJobs. Empty fields match everything.
type JobFilter struct {
	Keyword  string
	Company  string
	Location string
}

// SearchJobs matches case-insensitive substrings: Keyword against title or description,
// Company against company name and Location against location. Predicates are ANDed.
func (s *Store) SearchJobs(ctx context.Context, f JobFilter) ([]models.JobPosting, error) {
	var (
		where []string
		args  []any
	)
	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		p := likePattern(kw)
		where = append(where, `(`+likeClause("job_title")+` OR `+likeClause("job_description")+`)`)
		args = append(args, p, p)
	}
	if c := strings.TrimSpace(f.Company); c != "" {
		where = append(where, likeClause("company_name"))
		args = append(args, likePattern(c))
	}
	if l := strings.TrimSpace(f.Location); l != "" {
		where = append(where, likeClause("job_location"))
		args = append(args, likePattern(l))
	}

	query := `SELECT ` + jobColumns + ` FROM jobs`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, readErr("search_jobs", err)
	}
	jobs, err := scanJobs(rows)
	if err != nil {
		return nil, readErr("search_jobs", err)
	}
	return jobs, nil
}

// GetStats returns the total count, the ten most frequent companies and counts per source.
func (s *Store) GetStats(ctx context.Context) (models.JobStats, error) {
	var stats models.JobStats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&stats.TotalJobs); err != nil {
		return stats, readErr("get_stats", err)
	}

	rows, err := s.db.QueryContext(ctx, s.q(`SELECT company_name, COUNT(*) AS n FROM jobs
		GROUP BY company_name ORDER BY n DESC, company_name ASC LIMIT ?`), topCompaniesLimit)
	if err != nil {
		return stats, readErr("get_stats", err)
	}
	stats.TopCompanies, err = scanCompanyCounts(rows)
	if err != nil {
		return stats, readErr("get_stats", err)
	}

	rows, err = s.db.QueryContext(ctx, `SELECT COALESCE(source, 'unknown') AS src, COUNT(*) AS n FROM jobs
		GROUP BY COALESCE(source, 'unknown') ORDER BY n DESC, src ASC`)
	if err != nil {
		return stats, readErr("get_stats", err)
	}
	defer rows.Close()
	stats.BySource = []models.SourceCount{}
	for rows.Next() {
		var sc models.SourceCount
		if err := rows.Scan(&sc.Source, &sc.Count); err != nil {
			return stats, readErr("get_stats", err)
		}
		stats.BySource = append(stats.BySource, sc)
	}
	if err := rows.Err(); err != nil {
		return stats, readErr("get_stats", err)
	}
	return stats, nil
}

// DeleteJob removes a posting and, through the foreign key cascade, its documents and
// their versions. It reports whether a row was deleted.
func (s *Store) DeleteJob(ctx context.Context, id int64) (bool, error) {
	var n int64
	err := s.withRetry(ctx, "delete_job", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.q(`DELETE FROM jobs WHERE id = ?`), id)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func scanCompanyCounts(rows *sql.Rows) ([]models.CompanyCount, error) {
	defer rows.Close()
	out := []models.CompanyCount{}
	for rows.Next() {
		var cc models.CompanyCount
		var name sql.NullString
		if err := rows.Scan(&name, &cc.Count); err != nil {
			return nil, err
		}
		cc.Company = name.String
		out = append(out, cc)
	}
	return out, rows.Err()
}

func scanJobs(rows *sql.Rows) ([]models.JobPosting, error) {
	defer rows.Close()
	var jobs []models.JobPosting
	for rows.Next() {
		var j models.JobPosting
		var sourceURL, source, scrapedAt, desc, location, posted sql.NullString
		var insights, applyInfo, companyInfo, hiring, related, createdAt sql.NullString
		var easyApply sql.NullBool
		if err := rows.Scan(&j.ID, &sourceURL, &source, &scrapedAt, &j.JobTitle, &j.CompanyName,
			&desc, &location, &posted, &insights, &easyApply, &applyInfo, &companyInfo, &hiring,
			&related, &createdAt); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		j.SourceURL = nullableString(sourceURL)
		j.Source = source.String
		j.ScrapedAt = scrapedAt.String
		j.JobDescription = nullableString(desc)
		j.JobLocation = nullableString(location)
		j.DatePosted = nullableString(posted)
		j.JobInsights = decodeJSON(nullableString(insights))
		j.ApplyInfo = decodeJSON(nullableString(applyInfo))
		j.CompanyInfo = decodeJSON(nullableString(companyInfo))
		j.HiringTeam = decodeJSON(nullableString(hiring))
		j.RelatedJobs = decodeJSON(nullableString(related))
		if easyApply.Valid {
			b := easyApply.Bool
			j.EasyApply = &b
		}
		j.CreatedAt = parseTime(createdAt)
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// nullArg turns a nil pointer into a NULL argument and dereferences the rest.
func nullArg[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

// likeClause is a case-insensitive substring predicate on col; the pattern comes from likePattern.
func likeClause(col string) string {
	return `LOWER(` + col + `) LIKE ? ESCAPE '\'`
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}
