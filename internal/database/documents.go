package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	apperrors "go-jobsearch-automation/internal/errors"
	"go-jobsearch-automation/internal/models"
)

const (
	documentColumns = `id, job_id, document_type, content, state_json, metadata, process_id,
	company_name, job_title, template_used, generation_method, created_at, updated_at`

	generationMethodAgent = "AI_AGENT"
	initialChangeSummary  = "Initial generation"
	recentActivityDays    = 7
	defaultRecentLimit    = 10
)

// AddDocument stores a generated document together with its first version and returns
// the new document id. Company and title are copied from the referenced job when JobID is
// set, else from the supplied raw posting.
func (s *Store) AddDocument(ctx context.Context, doc models.NewDocument) (int64, error) {
	if !doc.Type.Valid() {
		return 0, apperrors.ValidationField("document_type", fmt.Sprintf("unrecognized document type %q", doc.Type))
	}

	var metadata any
	if len(doc.Metadata) > 0 {
		b, err := json.Marshal(doc.Metadata)
		if err != nil {
			return 0, apperrors.ValidationField("metadata", "metadata is not JSON-serializable")
		}
		metadata = string(b)
	}

	var company, title *string
	if doc.JobID == nil && doc.JobPosting != nil {
		company = optionalText(doc.JobPosting, fieldCompany)
		title = optionalText(doc.JobPosting, fieldTitle)
	}

	var id int64
	err := s.withRetry(ctx, "add_document", func(tx *sql.Tx) error {
		if doc.JobID != nil {
			var c, t sql.NullString
			err := tx.QueryRowContext(ctx, s.q(`SELECT company_name, job_title FROM jobs WHERE id = ?`), *doc.JobID).Scan(&c, &t)
			if errors.Is(err, sql.ErrNoRows) {
				return apperrors.ValidationField("job_id", fmt.Sprintf("job %d does not exist", *doc.JobID))
			}
			if err != nil {
				return err
			}
			company, title = nullableString(c), nullableString(t)
		}

		now := s.now()
		err := tx.QueryRowContext(ctx, s.q(`
			INSERT INTO documents (job_id, document_type, content, state_json, metadata, process_id,
				company_name, job_title, template_used, generation_method, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`),
			nullArg(doc.JobID), string(doc.Type), doc.Content, emptyAsNull(doc.StateJSON), metadata,
			emptyAsNull(doc.ProcessID), nullArg(company), nullArg(title), emptyAsNull(doc.TemplateUsed),
			generationMethodAgent, now, now,
		).Scan(&id)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, s.q(`
			INSERT INTO document_versions (document_id, version_number, content, changes_summary, created_at)
			VALUES (?, 1, ?, ?, ?)`), id, doc.Content, initialChangeSummary, now)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.logger.Debug("stored document",
		slog.Int64("id", id),
		slog.String("type", string(doc.Type)),
		slog.String("process_id", doc.ProcessID),
	)
	return id, nil
}

// UpdateDocumentContent records newContent as the next version of the document and
// mirrors it onto the document row. It reports false when the document does not exist.
func (s *Store) UpdateDocumentContent(ctx context.Context, id int64, newContent, changesSummary string) (bool, error) {
	updated := false
	err := s.withRetry(ctx, "update_document_content", func(tx *sql.Tx) error {
		updated = false
		var exists int
		if err := tx.QueryRowContext(ctx, s.q(`SELECT COUNT(*) FROM documents WHERE id = ?`), id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return nil
		}

		var current sql.NullInt64
		if err := tx.QueryRowContext(ctx, s.q(`SELECT MAX(version_number) FROM document_versions
			WHERE document_id = ?`), id).Scan(&current); err != nil {
			return err
		}
		next := current.Int64 + 1

		summary := strings.TrimSpace(changesSummary)
		if summary == "" {
			summary = fmt.Sprintf("Updated to version %d", next)
		}

		now := s.now()
		if _, err := tx.ExecContext(ctx, s.q(`UPDATE documents SET content = ?, updated_at = ? WHERE id = ?`),
			newContent, now, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO document_versions (document_id, version_number, content, changes_summary, created_at)
			VALUES (?, ?, ?, ?, ?)`), id, next, newContent, summary, now); err != nil {
			return err
		}
		updated = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return updated, nil
}

// GetDocument returns the document with the given id or a not_found error.
func (s *Store) GetDocument(ctx context.Context, id int64) (models.GeneratedDocument, error) {
	docs, err := s.queryDocuments(ctx, "get_document", `WHERE id = ?`, id)
	if err != nil {
		return models.GeneratedDocument{}, err
	}
	if len(docs) == 0 {
		return models.GeneratedDocument{}, apperrors.NotFoundf("document %d not found", id)
	}
	return docs[0], nil
}

// GetDocumentsByProcess returns the documents of one generation run, newest first.
func (s *Store) GetDocumentsByProcess(ctx context.Context, processID string) ([]models.GeneratedDocument, error) {
	return s.queryDocuments(ctx, "get_documents_by_process",
		`WHERE process_id = ? ORDER BY created_at DESC, id DESC`, processID)
}

// GetDocumentsByJob returns the documents generated for a job, newest first.
func (s *Store) GetDocumentsByJob(ctx context.Context, jobID int64) ([]models.GeneratedDocument, error) {
	return s.queryDocuments(ctx, "get_documents_by_job",
		`WHERE job_id = ? ORDER BY created_at DESC, id DESC`, jobID)
}

// GetRecentDocuments returns the newest documents, optionally of one type only.
func (s *Store) GetRecentDocuments(ctx context.Context, docType models.DocumentType, limit int) ([]models.GeneratedDocument, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if docType == "" {
		return s.queryDocuments(ctx, "get_recent_documents",
			`ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	}
	return s.queryDocuments(ctx, "get_recent_documents",
		`WHERE document_type = ? ORDER BY created_at DESC, id DESC LIMIT ?`, string(docType), limit)
}

// DocumentFilter holds the optional predicates of SearchDocuments.
type DocumentFilter struct {
	Keyword string
	Company string
	Type    models.DocumentType
}

// SearchDocuments matches Keyword against title, company and content, Company against
// the company name, and filters by Type. Predicates are ANDed; results are newest first.
func (s *Store) SearchDocuments(ctx context.Context, f DocumentFilter) ([]models.GeneratedDocument, error) {
	var (
		where []string
		args  []any
	)
	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		p := likePattern(kw)
		where = append(where, `(`+likeClause("job_title")+` OR `+likeClause("company_name")+` OR `+likeClause("content")+`)`)
		args = append(args, p, p, p)
	}
	if c := strings.TrimSpace(f.Company); c != "" {
		where = append(where, likeClause("company_name"))
		args = append(args, likePattern(c))
	}
	if f.Type != "" {
		where = append(where, `document_type = ?`)
		args = append(args, string(f.Type))
	}

	var clause string
	if len(where) > 0 {
		clause = `WHERE ` + strings.Join(where, " AND ") + ` `
	}
	return s.queryDocuments(ctx, "search_documents", clause+`ORDER BY created_at DESC, id DESC`, args...)
}

// GetDocumentVersions returns the version history of a document, oldest first.
func (s *Store) GetDocumentVersions(ctx context.Context, documentID int64) ([]models.DocumentVersion, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT id, document_id, version_number, content, changes_summary, created_at
		FROM document_versions WHERE document_id = ? ORDER BY version_number ASC`), documentID)
	if err != nil {
		return nil, readErr("get_document_versions", err)
	}
	defer rows.Close()

	versions := []models.DocumentVersion{}
	for rows.Next() {
		var v models.DocumentVersion
		var summary, createdAt sql.NullString
		if err := rows.Scan(&v.ID, &v.DocumentID, &v.VersionNumber, &v.Content, &summary, &createdAt); err != nil {
			return nil, readErr("get_document_versions", err)
		}
		v.ChangesSummary = nullableString(summary)
		v.CreatedAt = parseTime(createdAt)
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, readErr("get_document_versions", err)
	}
	return versions, nil
}

// DeleteDocument removes a document and its versions. It reports whether a row was deleted.
func (s *Store) DeleteDocument(ctx context.Context, id int64) (bool, error) {
	var n int64
	err := s.withRetry(ctx, "delete_document", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.q(`DELETE FROM documents WHERE id = ?`), id)
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

// GetDocumentStats aggregates documents by type, company (top ten) and day over the last week.
func (s *Store) GetDocumentStats(ctx context.Context) (models.DocumentStats, error) {
	stats := models.DocumentStats{
		ByType:         map[models.DocumentType]int{},
		ByCompany:      []models.CompanyCount{},
		RecentActivity: []models.DailyCount{},
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), COUNT(DISTINCT process_id) FROM documents`).
		Scan(&stats.TotalDocuments, &stats.TotalProcesses); err != nil {
		return stats, readErr("get_document_stats", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT document_type, COUNT(*) FROM documents GROUP BY document_type`)
	if err != nil {
		return stats, readErr("get_document_stats", err)
	}
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			rows.Close()
			return stats, readErr("get_document_stats", err)
		}
		stats.ByType[models.DocumentType(t)] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return stats, readErr("get_document_stats", err)
	}

	rows, err = s.db.QueryContext(ctx, s.q(`SELECT company_name, COUNT(*) AS n FROM documents
		WHERE company_name IS NOT NULL GROUP BY company_name ORDER BY n DESC, company_name ASC LIMIT ?`), topCompaniesLimit)
	if err != nil {
		return stats, readErr("get_document_stats", err)
	}
	if stats.ByCompany, err = scanCompanyCounts(rows); err != nil {
		return stats, readErr("get_document_stats", err)
	}

	cutoff := s.clock.Now().UTC().AddDate(0, 0, -recentActivityDays).Format(time.DateOnly)
	rows, err = s.db.QueryContext(ctx, s.q(`SELECT SUBSTR(created_at, 1, 10) AS day, COUNT(*) FROM documents
		WHERE SUBSTR(created_at, 1, 10) >= ? GROUP BY SUBSTR(created_at, 1, 10) ORDER BY day DESC`), cutoff)
	if err != nil {
		return stats, readErr("get_document_stats", err)
	}
	defer rows.Close()
	for rows.Next() {
		var dc models.DailyCount
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return stats, readErr("get_document_stats", err)
		}
		stats.RecentActivity = append(stats.RecentActivity, dc)
	}
	if err := rows.Err(); err != nil {
		return stats, readErr("get_document_stats", err)
	}
	return stats, nil
}

func (s *Store) queryDocuments(ctx context.Context, op, clause string, args ...any) ([]models.GeneratedDocument, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT `+documentColumns+` FROM documents `+clause), args...)
	if err != nil {
		return nil, readErr(op, err)
	}
	defer rows.Close()

	docs := []models.GeneratedDocument{}
	for rows.Next() {
		var d models.GeneratedDocument
		var jobID sql.NullInt64
		var docType string
		var stateJSON, metadata, processID, company, title, template, method sql.NullString
		var createdAt, updatedAt sql.NullString
		if err := rows.Scan(&d.ID, &jobID, &docType, &d.Content, &stateJSON, &metadata, &processID,
			&company, &title, &template, &method, &createdAt, &updatedAt); err != nil {
			return nil, readErr(op, fmt.Errorf("scan document: %w", err))
		}
		if jobID.Valid {
			v := jobID.Int64
			d.JobID = &v
		}
		d.DocumentType = models.DocumentType(docType)
		d.StateJSON = nullableString(stateJSON)
		if metadata.Valid && metadata.String != "" {
			var m map[string]any
			if err := json.Unmarshal([]byte(metadata.String), &m); err == nil {
				d.Metadata = m
			}
		}
		d.ProcessID = nullableString(processID)
		d.CompanyName = nullableString(company)
		d.JobTitle = nullableString(title)
		d.TemplateUsed = nullableString(template)
		d.GenerationMethod = method.String
		d.CreatedAt = parseTime(createdAt)
		d.UpdatedAt = parseTime(updatedAt)
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, readErr(op, err)
	}
	return docs, nil
}

func emptyAsNull(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
