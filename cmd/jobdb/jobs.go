package main

import (
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"go-jobsearch-automation/internal/database"
	"go-jobsearch-automation/internal/ingest"
	"go-jobsearch-automation/internal/models"
)

func parseID(args []string, what string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected exactly one %s id", what)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, args[0])
	}
	return id, nil
}

func runMigrate(cmdCtx *commandContext, _ []string) error {
	// Open already applied pending migrations.
	cmdCtx.Logger.Info("schema up to date", "driver", cmdCtx.Store.Driver())
	return nil
}

func runImport(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("import")
	concurrency := fs.Int("concurrency", 4, "files imported in parallel")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("usage: jobdb import [-concurrency N] <file.json|dir>...")
	}
	paths, err := ingest.ExpandPaths(fs.Args())
	if err != nil {
		return err
	}
	results, err := ingest.ImportFiles(cmdCtx.Ctx, cmdCtx.Store, paths, *concurrency, cmdCtx.Logger)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmdCtx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tRECORDS\tADDED\tDUPLICATES\tREJECTED\tERROR")
	var failed int
	for _, r := range results {
		msg := ""
		if r.Err != nil {
			failed++
			msg = r.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s\n", r.Path, r.Records, r.Added, r.Duplicates, r.Rejected, msg)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

func runJobs(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("jobs")
	limit := fs.Int("limit", 20, "maximum jobs to list")
	offset := fs.Int("offset", 0, "jobs to skip")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	jobs, err := cmdCtx.Store.GetJobs(cmdCtx.Ctx, *limit, *offset)
	if err != nil {
		return err
	}
	return printJobs(cmdCtx, jobs, *asJSON)
}

func runSearch(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("search")
	var f database.JobFilter
	fs.StringVar(&f.Keyword, "keyword", "", "match title or description")
	fs.StringVar(&f.Company, "company", "", "match company name")
	fs.StringVar(&f.Location, "location", "", "match location")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	jobs, err := cmdCtx.Store.SearchJobs(cmdCtx.Ctx, f)
	if err != nil {
		return err
	}
	return printJobs(cmdCtx, jobs, *asJSON)
}

func printJobs(cmdCtx *commandContext, jobs []models.JobPosting, asJSON bool) error {
	if asJSON {
		return printJSON(cmdCtx.Out, jobs)
	}
	tw := tabwriter.NewWriter(cmdCtx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCOMPANY\tLOCATION\tURL")
	for _, j := range jobs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", j.ID, j.JobTitle, j.CompanyName, deref(j.JobLocation), deref(j.SourceURL))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmdCtx.Out, "%d jobs\n", len(jobs))
	return nil
}

func runStats(cmdCtx *commandContext, _ []string) error {
	stats, err := cmdCtx.Store.GetStats(cmdCtx.Ctx)
	if err != nil {
		return err
	}
	return printJSON(cmdCtx.Out, stats)
}

func runGetJob(cmdCtx *commandContext, args []string) error {
	id, err := parseID(args, "job")
	if err != nil {
		return err
	}
	job, err := cmdCtx.Store.GetJob(cmdCtx.Ctx, id)
	if err != nil {
		return err
	}
	return printJSON(cmdCtx.Out, job)
}

func runDeleteJob(cmdCtx *commandContext, args []string) error {
	id, err := parseID(args, "job")
	if err != nil {
		return err
	}
	deleted, err := cmdCtx.Store.DeleteJob(cmdCtx.Ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("job %d not found", id)
	}
	fmt.Fprintf(cmdCtx.Out, "deleted job %d\n", id)
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
