package models

import (
	"time"
)

// RawRecord is a loosely structured job posting as produced by a scraper or parser.
// Keys vary by source (title vs job_title, url vs source_url, ...).
type RawRecord map[string]any

type DocumentType string

const (
	DocumentCV          DocumentType = "CV"
	DocumentCoverLetter DocumentType = "COVER_LETTER"
)

// Valid reports whether t is one of the recognized document kinds.
func (t DocumentType) Valid() bool {
	return t == DocumentCV || t == DocumentCoverLetter
}

type AddStatus string

const (
	StatusAdded         AddStatus = "added"
	StatusAlreadyExists AddStatus = "already_exists"
)

// JobKey is the natural key of a posting: SourceURL when set, else Title + Company.
type JobKey struct {
	SourceURL string
	Title     string
	Company   string
}

type JobPosting struct {
	ID             int64     `json:"id"`
	SourceURL      *string   `json:"source_url,omitempty"`
	Source         string    `json:"source"`
	ScrapedAt      string    `json:"scraped_at,omitempty"`
	JobTitle       string    `json:"job_title"`
	CompanyName    string    `json:"company_name"`
	JobDescription *string   `json:"job_description,omitempty"`
	JobLocation    *string   `json:"job_location,omitempty"`
	DatePosted     *string   `json:"date_posted,omitempty"`
	JobInsights    any       `json:"job_insights,omitempty"`
	EasyApply      *bool     `json:"easy_apply,omitempty"`
	ApplyInfo      any       `json:"apply_info,omitempty"`
	CompanyInfo    any       `json:"company_info,omitempty"`
	HiringTeam     any       `json:"hiring_team,omitempty"`
	RelatedJobs    any       `json:"related_jobs,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Key returns the natural key used for deduplication.
func (j JobPosting) Key() JobKey {
	k := JobKey{Title: j.JobTitle, Company: j.CompanyName}
	if j.SourceURL != nil {
		k.SourceURL = *j.SourceURL
	}
	return k
}

// AddOutcome is the successful result of adding a job. ID is zero when the existing row
// could not be resolved after a uniqueness race.
type AddOutcome struct {
	Status AddStatus
	ID     int64
	Job    JobPosting
}

type CompanyCount struct {
	Company string `json:"company"`
	Count   int    `json:"count"`
}

type SourceCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

type JobStats struct {
	TotalJobs    int            `json:"total_jobs"`
	TopCompanies []CompanyCount `json:"top_companies"`
	BySource     []SourceCount  `json:"by_source"`
}

type GeneratedDocument struct {
	ID               int64          `json:"id"`
	JobID            *int64         `json:"job_id,omitempty"`
	DocumentType     DocumentType   `json:"document_type"`
	Content          string         `json:"content"`
	StateJSON        *string        `json:"state_json,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	ProcessID        *string        `json:"process_id,omitempty"`
	CompanyName      *string        `json:"company_name,omitempty"`
	JobTitle         *string        `json:"job_title,omitempty"`
	TemplateUsed     *string        `json:"template_used,omitempty"`
	GenerationMethod string         `json:"generation_method"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

type DocumentVersion struct {
	ID             int64     `json:"id"`
	DocumentID     int64     `json:"document_id"`
	VersionNumber  int       `json:"version_number"`
	Content        string    `json:"content"`
	ChangesSummary *string   `json:"changes_summary,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewDocument carries the inputs of add_document. JobID references a stored posting;
// JobPosting is only used to denormalize company and title when JobID is nil.
type NewDocument struct {
	Type         DocumentType
	Content      string
	JobID        *int64
	JobPosting   RawRecord
	ProcessID    string
	StateJSON    string
	TemplateUsed string
	Metadata     map[string]any
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type DocumentStats struct {
	TotalDocuments int                  `json:"total_documents"`
	TotalProcesses int                  `json:"total_processes"`
	ByType         map[DocumentType]int `json:"by_type"`
	ByCompany      []CompanyCount       `json:"by_company"`
	RecentActivity []DailyCount         `json:"recent_activity"`
}
