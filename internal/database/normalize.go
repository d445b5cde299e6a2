package database

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "go-jobsearch-automation/internal/errors"
	"go-jobsearch-automation/internal/models"
)

// Semantic fields of a raw job record.
const (
	fieldTitle            = "job_title"
	fieldCompany          = "company_name"
	fieldSourceURL        = "source_url"
	fieldDescription      = "job_description"
	fieldResponsibilities = "job_responsibilities"
	fieldRequirements     = "job_requirements"
	fieldLocation         = "job_location"
	fieldDatePosted       = "date_posted"
	fieldInsights         = "job_insights"
	fieldApplyInfo        = "apply_info"
	fieldCompanyInfo      = "company_info"
	fieldHiringTeam       = "hiring_team"
	fieldRelatedJobs      = "related_jobs"
	fieldEasyApply        = "easy_apply"
	fieldSource           = "source"
	fieldScrapedAt        = "scraped_at"
)

// aliases lists, per semantic field, the keys sources use for it. The first present,
// non-empty key wins.
var aliases = map[string][]string{
	fieldTitle:            {"job_title", "title", "position_title"},
	fieldCompany:          {"company_name", "company", "company_title"},
	fieldSourceURL:        {"source_url", "url", "job_url", "link"},
	fieldDescription:      {"job_description", "description", "about_job"},
	fieldResponsibilities: {"job_responsibilities", "responsibilities"},
	fieldRequirements:     {"job_requirements", "requirements"},
	fieldLocation:         {"job_location", "location", "work_location"},
	fieldDatePosted:       {"date_posted", "posted_date", "posting_date", "date"},
	fieldInsights:         {"job_insights", "skills_required"},
	fieldApplyInfo:        {"apply_info"},
	fieldCompanyInfo:      {"company_info", "about_company"},
	fieldHiringTeam:       {"hiring_team"},
	fieldRelatedJobs:      {"related_jobs"},
	fieldEasyApply:        {"easy_apply"},
	fieldSource:           {"source"},
	fieldScrapedAt:        {"scraped_at"},
}

// apply_info constituents, used when no apply_info object is present.
var applyInfoParts = []struct {
	key  string
	keys []string
}{
	{key: "contact_person", keys: []string{"contact_person"}},
	{key: "contact_email", keys: []string{"contact_email_or_linkedin", "contact_email"}},
	{key: "salary_info", keys: []string{"salary_info", "salary"}},
	{key: "apply_url", keys: []string{"apply_url", "external_apply_url"}},
}

const defaultSource = "linkedin"

// resolve returns the first present value among the aliases of field.
func resolve(raw models.RawRecord, field string) (any, bool) {
	keys, ok := aliases[field]
	if !ok {
		keys = []string{field}
	}
	return firstPresent(raw, keys)
}

func firstPresent(raw models.RawRecord, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok && present(v) {
			return v, true
		}
	}
	return nil, false
}

func present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case []any:
		return len(t) > 0
	case []string:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

func textValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func resolveText(raw models.RawRecord, field string) string {
	v, ok := resolve(raw, field)
	if !ok {
		return ""
	}
	return textValue(v)
}

func optionalText(raw models.RawRecord, field string) *string {
	s := resolveText(raw, field)
	if s == "" {
		return nil
	}
	return &s
}

// textLines flattens a string or list value into non-empty lines.
func textLines(v any) (lines []string, isList bool) {
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s := textValue(item); s != "" {
				lines = append(lines, s)
			}
		}
		return lines, true
	case []string:
		for _, item := range t {
			if s := strings.TrimSpace(item); s != "" {
				lines = append(lines, s)
			}
		}
		return lines, true
	default:
		if s := textValue(t); s != "" {
			lines = append(lines, s)
		}
		return lines, false
	}
}

// assembleDescription uses a single description field when one exists, otherwise
// joins responsibilities and requirements (after a "Requirements:" marker).
func assembleDescription(raw models.RawRecord) *string {
	if v, ok := resolve(raw, fieldDescription); ok {
		lines, _ := textLines(v)
		if len(lines) > 0 {
			s := strings.Join(lines, "\n")
			return &s
		}
	}

	var parts []string
	if v, ok := resolve(raw, fieldResponsibilities); ok {
		lines, _ := textLines(v)
		parts = append(parts, lines...)
	}
	if v, ok := resolve(raw, fieldRequirements); ok {
		lines, isList := textLines(v)
		switch {
		case len(lines) == 0:
		case isList:
			parts = append(parts, "Requirements:")
			parts = append(parts, lines...)
		default:
			parts = append(parts, "Requirements: "+lines[0])
		}
	}
	if len(parts) == 0 {
		return nil
	}
	s := strings.Join(parts, "\n")
	return &s
}

func resolveApplyInfo(raw models.RawRecord) any {
	if v, ok := resolve(raw, fieldApplyInfo); ok {
		return v
	}
	info := map[string]any{}
	for _, part := range applyInfoParts {
		if v, ok := firstPresent(raw, part.keys); ok {
			info[part.key] = v
		}
	}
	if len(info) == 0 {
		return nil
	}
	return info
}

func resolveCompanyInfo(raw models.RawRecord) any {
	if v, ok := resolve(raw, fieldCompanyInfo); ok {
		return v
	}
	if v, ok := firstPresent(raw, []string{"company_website"}); ok {
		return map[string]any{"website": v}
	}
	return nil
}

func resolveComplex(raw models.RawRecord, field string) any {
	v, _ := resolve(raw, field)
	return v
}

func resolveEasyApply(raw models.RawRecord) *bool {
	v, ok := resolve(raw, fieldEasyApply)
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case bool:
		return &t
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(t)); err == nil {
			return &b
		}
	case float64:
		b := t != 0
		return &b
	}
	return nil
}

// NormalizeJob resolves aliases, assembles the description and validates the required
// fields. now is used for the scraped_at default and created_at.
func NormalizeJob(raw models.RawRecord, now time.Time) (models.JobPosting, error) {
	job := models.JobPosting{
		JobTitle:       resolveText(raw, fieldTitle),
		CompanyName:    resolveText(raw, fieldCompany),
		SourceURL:      optionalText(raw, fieldSourceURL),
		Source:         resolveText(raw, fieldSource),
		ScrapedAt:      resolveText(raw, fieldScrapedAt),
		JobDescription: assembleDescription(raw),
		JobLocation:    optionalText(raw, fieldLocation),
		DatePosted:     optionalText(raw, fieldDatePosted),
		JobInsights:    resolveComplex(raw, fieldInsights),
		EasyApply:      resolveEasyApply(raw),
		ApplyInfo:      resolveApplyInfo(raw),
		CompanyInfo:    resolveCompanyInfo(raw),
		HiringTeam:     resolveComplex(raw, fieldHiringTeam),
		RelatedJobs:    resolveComplex(raw, fieldRelatedJobs),
		CreatedAt:      now.UTC(),
	}

	var missing []string
	if job.JobTitle == "" {
		missing = append(missing, fieldTitle)
	}
	if job.CompanyName == "" {
		missing = append(missing, fieldCompany)
	}
	if len(missing) > 0 {
		return job, apperrors.ValidationField(strings.Join(missing, ","),
			"missing required field(s): "+strings.Join(missing, ", "))
	}

	if job.Source == "" {
		job.Source = defaultSource
	}
	if job.ScrapedAt == "" {
		job.ScrapedAt = now.UTC().Format(time.RFC3339)
	}
	return job, nil
}

// encodeJSON serializes a complex field for a TEXT column; nil stays NULL.
func encodeJSON(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// decodeJSON reverses encodeJSON. Values written by older tooling as plain text are
// returned as strings.
func decodeJSON(s *string) any {
	if s == nil {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(*s), &v); err != nil {
		return *s
	}
	return v
}
