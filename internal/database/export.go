package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// ExportDocument writes a document's content to
// <dir>/<company>_<title>_<type>_<timestamp>.txt and returns the file path.
func (s *Store) ExportDocument(ctx context.Context, id int64, dir string) (string, error) {
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = "output"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	company, title := "unknown", "job"
	if doc.CompanyName != nil {
		company = *doc.CompanyName
	}
	if doc.JobTitle != nil {
		title = *doc.JobTitle
	}
	name := fmt.Sprintf("%s_%s_%s_%s.txt",
		fileComponent(company, "unknown"),
		fileComponent(title, "job"),
		strings.ToLower(string(doc.DocumentType)),
		s.clock.Now().Format("20060102_150405"),
	)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(doc.Content), 0o644); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}
	s.logger.Info("exported document", "id", id, "path", path)
	return path, nil
}

// fileComponent replaces spaces with underscores and drops characters that are unsafe in
// file names.
func fileComponent(s, fallback string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r == ' ':
			b.WriteByte('_')
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_', r == '.':
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return fallback
	}
	return out
}
