package database

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "go-jobsearch-automation/internal/errors"
	"go-jobsearch-automation/internal/models"
)

func TestDocumentVersionsAreContiguous(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	id, err := s.AddDocument(ctx, models.NewDocument{Type: models.DocumentCV, Content: "v1", ProcessID: "run-1"})
	require.NoError(t, err)

	for _, content := range []string{"v2", "v3"} {
		clock.Advance(time.Minute)
		ok, err := s.UpdateDocumentContent(ctx, id, content, "")
		require.NoError(t, err)
		require.True(t, ok)
	}

	versions, err := s.GetDocumentVersions(ctx, id)
	require.NoError(t, err)
	require.Len(t, versions, 3)
	for i, v := range versions {
		assert.Equal(t, i+1, v.VersionNumber)
	}
	require.NotNil(t, versions[0].ChangesSummary)
	assert.Equal(t, "Initial generation", *versions[0].ChangesSummary)
	require.NotNil(t, versions[2].ChangesSummary)
	assert.Equal(t, "Updated to version 3", *versions[2].ChangesSummary)

	doc, err := s.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, versions[2].Content, doc.Content)
	assert.Equal(t, "v3", doc.Content)
	assert.True(t, doc.UpdatedAt.After(doc.CreatedAt))
	assert.Equal(t, "AI_AGENT", doc.GenerationMethod)
}

func TestUpdateDocumentContentMissing(t *testing.T) {
	s, _ := newTestStore(t)
	ok, err := s.UpdateDocumentContent(context.Background(), 42, "content", "summary")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddDocumentValidation(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.AddDocument(ctx, models.NewDocument{Type: "RESUME", Content: "x"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "document_type", apperrors.GetField(err))

	missing := int64(404)
	_, err = s.AddDocument(ctx, models.NewDocument{Type: models.DocumentCV, Content: "x", JobID: &missing})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "job_id", apperrors.GetField(err))

	docs, err := s.GetRecentDocuments(ctx, "", 10)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestAddDocumentDenormalizesJob(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	job, err := s.AddJob(ctx, models.RawRecord{"title": "Go Developer", "company": "Acme"})
	require.NoError(t, err)

	fromJob, err := s.AddDocument(ctx, models.NewDocument{
		Type:         models.DocumentCoverLetter,
		Content:      "Dear Acme",
		JobID:        &job.ID,
		TemplateUsed: "classic",
		Metadata:     map[string]any{"model": "gpt", "tokens": float64(512)},
	})
	require.NoError(t, err)

	fromPosting, err := s.AddDocument(ctx, models.NewDocument{
		Type:       models.DocumentCV,
		Content:    "CV",
		JobPosting: models.RawRecord{"position_title": "SRE", "company_title": "Globex"},
		StateJSON:  `{"step":3}`,
	})
	require.NoError(t, err)

	doc, err := s.GetDocument(ctx, fromJob)
	require.NoError(t, err)
	require.NotNil(t, doc.JobID)
	assert.Equal(t, job.ID, *doc.JobID)
	assert.Equal(t, "Acme", *doc.CompanyName)
	assert.Equal(t, "Go Developer", *doc.JobTitle)
	assert.Equal(t, "classic", *doc.TemplateUsed)
	assert.Equal(t, map[string]any{"model": "gpt", "tokens": float64(512)}, doc.Metadata)
	assert.Nil(t, doc.StateJSON)

	doc, err = s.GetDocument(ctx, fromPosting)
	require.NoError(t, err)
	assert.Nil(t, doc.JobID)
	assert.Equal(t, "Globex", *doc.CompanyName)
	assert.Equal(t, "SRE", *doc.JobTitle)
	assert.Equal(t, `{"step":3}`, *doc.StateJSON)

	byJob, err := s.GetDocumentsByJob(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, byJob, 1)
	assert.Equal(t, fromJob, byJob[0].ID)
}

func TestDocumentQueries(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	add := func(typ models.DocumentType, content, process string, posting models.RawRecord) int64 {
		t.Helper()
		id, err := s.AddDocument(ctx, models.NewDocument{Type: typ, Content: content, ProcessID: process, JobPosting: posting})
		require.NoError(t, err)
		clock.Advance(time.Second)
		return id
	}
	cv1 := add(models.DocumentCV, "Experienced in Kubernetes", "run-1", models.RawRecord{"title": "DevOps", "company": "Acme"})
	cl1 := add(models.DocumentCoverLetter, "I admire your mission", "run-1", models.RawRecord{"title": "DevOps", "company": "Acme"})
	cv2 := add(models.DocumentCV, "Golang and gRPC", "run-2", models.RawRecord{"title": "Backend", "company": "Globex"})

	byProcess, err := s.GetDocumentsByProcess(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, byProcess, 2)
	assert.Equal(t, cl1, byProcess[0].ID)
	assert.Equal(t, cv1, byProcess[1].ID)

	recentCVs, err := s.GetRecentDocuments(ctx, models.DocumentCV, 1)
	require.NoError(t, err)
	require.Len(t, recentCVs, 1)
	assert.Equal(t, cv2, recentCVs[0].ID)

	ids := func(docs []models.GeneratedDocument) []int64 {
		var out []int64
		for _, d := range docs {
			out = append(out, d.ID)
		}
		return out
	}
	tests := []struct {
		name   string
		filter DocumentFilter
		want   []int64
	}{
		{name: "all", filter: DocumentFilter{}, want: []int64{cv2, cl1, cv1}},
		{name: "keyword in content", filter: DocumentFilter{Keyword: "kubernetes"}, want: []int64{cv1}},
		{name: "keyword in title", filter: DocumentFilter{Keyword: "backend"}, want: []int64{cv2}},
		{name: "keyword in company", filter: DocumentFilter{Keyword: "acme"}, want: []int64{cl1, cv1}},
		{name: "company and type", filter: DocumentFilter{Company: "ACME", Type: models.DocumentCV}, want: []int64{cv1}},
		{name: "type only", filter: DocumentFilter{Type: models.DocumentCoverLetter}, want: []int64{cl1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := s.SearchDocuments(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(docs))
		})
	}
}

func TestDocumentStats(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	old := models.NewDocument{Type: models.DocumentCV, Content: "old", ProcessID: "run-0",
		JobPosting: models.RawRecord{"title": "T", "company": "Initech"}}
	_, err := s.AddDocument(ctx, old)
	require.NoError(t, err)

	clock.Advance(10 * 24 * time.Hour)
	for i, typ := range []models.DocumentType{models.DocumentCV, models.DocumentCoverLetter, models.DocumentCV} {
		_, err := s.AddDocument(ctx, models.NewDocument{
			Type:       typ,
			Content:    "content",
			ProcessID:  "run-1",
			JobPosting: models.RawRecord{"title": "T", "company": []string{"Acme", "Acme", "Globex"}[i]},
		})
		require.NoError(t, err)
	}

	stats, err := s.GetDocumentStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalDocuments)
	assert.Equal(t, 2, stats.TotalProcesses)
	assert.Equal(t, map[models.DocumentType]int{models.DocumentCV: 3, models.DocumentCoverLetter: 1}, stats.ByType)
	assert.Equal(t, []models.CompanyCount{
		{Company: "Acme", Count: 2},
		{Company: "Globex", Count: 1},
		{Company: "Initech", Count: 1},
	}, stats.ByCompany)
	assert.Equal(t, []models.DailyCount{{Date: "2026-01-25", Count: 3}}, stats.RecentActivity)
}

func TestDeleteDocumentRemovesVersions(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	id, err := s.AddDocument(ctx, models.NewDocument{Type: models.DocumentCV, Content: "v1"})
	require.NoError(t, err)

	deleted, err := s.DeleteDocument(ctx, id)
	require.NoError(t, err)
	assert.True(t, deleted)

	versions, err := s.GetDocumentVersions(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestExportDocument(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	id, err := s.AddDocument(ctx, models.NewDocument{
		Type:       models.DocumentCoverLetter,
		Content:    "Dear hiring team",
		JobPosting: models.RawRecord{"title": "Senior Go Developer", "company": "Acme / Labs"},
	})
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "out")
	path, err := s.ExportDocument(ctx, id, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Acme__Labs_Senior_Go_Developer_cover_letter_20260115_093000.txt"), path)

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Dear hiring team", string(body))

	_, err = s.ExportDocument(ctx, 999, dir)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestFileComponent(t *testing.T) {
	tests := map[string]string{
		"Acme Corp":    "Acme_Corp",
		"  ../etc  ":   "etc",
		"Công ty ABC":  "Công_ty_ABC",
		"":             "fallback",
		"***":          "fallback",
		"Go/Rust Eng.": "GoRust_Eng",
	}
	for in, want := range tests {
		t.Run(strings.TrimSpace(in), func(t *testing.T) {
			assert.Equal(t, want, fileComponent(in, "fallback"))
		})
	}
}
