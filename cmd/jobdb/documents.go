package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"

	"go-jobsearch-automation/internal/database"
	"go-jobsearch-automation/internal/models"
)

// readContent returns inline content, or the contents of file when inline is empty.
func readContent(inline, file string) (string, error) {
	if inline != "" {
		return inline, nil
	}
	if file == "" {
		return "", errors.New("either -content or -content-file is required")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func parseDocType(s string) (models.DocumentType, error) {
	t := models.DocumentType(strings.ToUpper(strings.TrimSpace(s)))
	if t == "" || t.Valid() {
		return t, nil
	}
	return "", fmt.Errorf("unknown document type %q (CV or COVER_LETTER)", s)
}

func runAddDoc(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("add-doc")
	docType := fs.String("type", "", "CV or COVER_LETTER")
	content := fs.String("content", "", "document content")
	contentFile := fs.String("content-file", "", "read content from file")
	jobID := fs.Int64("job-id", 0, "stored job the document was generated for")
	jobFile := fs.String("job-file", "", "JSON job posting to take company and title from")
	processID := fs.String("process-id", "", "generation run id; a new one is created when empty")
	template := fs.String("template", "", "template used")
	state := fs.String("state", "", "generator state as JSON")
	metadata := fs.String("metadata", "", "metadata as a JSON object")
	if err := fs.Parse(args); err != nil {
		return err
	}

	t, err := parseDocType(*docType)
	if err != nil {
		return err
	}
	body, err := readContent(*content, *contentFile)
	if err != nil {
		return err
	}
	doc := models.NewDocument{
		Type:         t,
		Content:      body,
		ProcessID:    *processID,
		StateJSON:    *state,
		TemplateUsed: *template,
	}
	if doc.ProcessID == "" {
		doc.ProcessID = uuid.NewString()
	}
	if *jobID > 0 {
		doc.JobID = jobID
	}
	if *jobFile != "" {
		data, err := os.ReadFile(*jobFile)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, &doc.JobPosting); err != nil {
			return fmt.Errorf("parse %s: %w", *jobFile, err)
		}
	}
	if *metadata != "" {
		if err := json.Unmarshal([]byte(*metadata), &doc.Metadata); err != nil {
			return fmt.Errorf("parse -metadata: %w", err)
		}
	}

	id, err := cmdCtx.Store.AddDocument(cmdCtx.Ctx, doc)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmdCtx.Out, "stored document %d (process %s)\n", id, doc.ProcessID)
	return nil
}

func runUpdateDoc(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("update-doc")
	content := fs.String("content", "", "new content")
	contentFile := fs.String("content-file", "", "read new content from file")
	summary := fs.String("summary", "", "changes summary")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(fs.Args(), "document")
	if err != nil {
		return err
	}
	body, err := readContent(*content, *contentFile)
	if err != nil {
		return err
	}
	updated, err := cmdCtx.Store.UpdateDocumentContent(cmdCtx.Ctx, id, body, *summary)
	if err != nil {
		return err
	}
	if !updated {
		return fmt.Errorf("document %d not found", id)
	}
	fmt.Fprintf(cmdCtx.Out, "updated document %d\n", id)
	return nil
}

func runDocs(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("docs")
	processID := fs.String("process", "", "documents of one generation run")
	jobID := fs.Int64("job", 0, "documents of one job")
	docType := fs.String("type", "", "recent documents of one type")
	limit := fs.Int("limit", 10, "maximum recent documents")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var docs []models.GeneratedDocument
	var err error
	switch {
	case *processID != "":
		docs, err = cmdCtx.Store.GetDocumentsByProcess(cmdCtx.Ctx, *processID)
	case *jobID > 0:
		docs, err = cmdCtx.Store.GetDocumentsByJob(cmdCtx.Ctx, *jobID)
	default:
		var t models.DocumentType
		if t, err = parseDocType(*docType); err != nil {
			return err
		}
		docs, err = cmdCtx.Store.GetRecentDocuments(cmdCtx.Ctx, t, *limit)
	}
	if err != nil {
		return err
	}
	return printDocs(cmdCtx, docs, *asJSON)
}

func runSearchDocs(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("search-docs")
	var f database.DocumentFilter
	fs.StringVar(&f.Keyword, "keyword", "", "match title, company or content")
	fs.StringVar(&f.Company, "company", "", "match company name")
	docType := fs.String("type", "", "CV or COVER_LETTER")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	t, err := parseDocType(*docType)
	if err != nil {
		return err
	}
	f.Type = t
	docs, err := cmdCtx.Store.SearchDocuments(cmdCtx.Ctx, f)
	if err != nil {
		return err
	}
	return printDocs(cmdCtx, docs, *asJSON)
}

func printDocs(cmdCtx *commandContext, docs []models.GeneratedDocument, asJSON bool) error {
	if asJSON {
		return printJSON(cmdCtx.Out, docs)
	}
	tw := tabwriter.NewWriter(cmdCtx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tCOMPANY\tTITLE\tPROCESS\tUPDATED")
	for _, d := range docs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", d.ID, d.DocumentType, deref(d.CompanyName), deref(d.JobTitle),
			deref(d.ProcessID), d.UpdatedAt.Format("2006-01-02 15:04"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmdCtx.Out, "%d documents\n", len(docs))
	return nil
}

func runVersions(cmdCtx *commandContext, args []string) error {
	id, err := parseID(args, "document")
	if err != nil {
		return err
	}
	versions, err := cmdCtx.Store.GetDocumentVersions(cmdCtx.Ctx, id)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmdCtx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tCREATED\tSUMMARY\tLENGTH")
	for _, v := range versions {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", v.VersionNumber, v.CreatedAt.Format("2006-01-02 15:04:05"), deref(v.ChangesSummary), len(v.Content))
	}
	return tw.Flush()
}

func runDocStats(cmdCtx *commandContext, _ []string) error {
	stats, err := cmdCtx.Store.GetDocumentStats(cmdCtx.Ctx)
	if err != nil {
		return err
	}
	return printJSON(cmdCtx.Out, stats)
}

func runExportDoc(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("export-doc")
	dir := fs.String("dir", cmdCtx.Config.ExportDir, "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(fs.Args(), "document")
	if err != nil {
		return err
	}
	path, err := cmdCtx.Store.ExportDocument(cmdCtx.Ctx, id, *dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmdCtx.Out, "exported document %d to %s\n", id, path)
	return nil
}

func runDeleteDoc(cmdCtx *commandContext, args []string) error {
	id, err := parseID(args, "document")
	if err != nil {
		return err
	}
	deleted, err := cmdCtx.Store.DeleteDocument(cmdCtx.Ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("document %d not found", id)
	}
	fmt.Fprintf(cmdCtx.Out, "deleted document %d\n", id)
	return nil
}
