// Command jobdb administers the job record store: imports, queries, generated
// documents and their versions.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"go-jobsearch-automation/internal/config"
	"go-jobsearch-automation/internal/database"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config *config.Config
	Store  *database.Store
	Out    io.Writer
}

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(2)
	}
	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmdName)
		printUsage(os.Stderr)
		os.Exit(2)
	}

	cfg, err := config.Load(os.Getenv("JOBSEARCH_CONFIG"))
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := config.NewLogger(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, cmd, cfg, logger, os.Stdout, os.Args[2:]); err != nil {
		logger.Error("command failed", slog.String("command", cmdName), slog.Any("error", err))
		stop()
		os.Exit(1)
	}
}

func execute(ctx context.Context, cmd command, cfg *config.Config, logger *slog.Logger, out io.Writer, args []string) error {
	store, err := database.Open(ctx, database.Options{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN(),
		MaxAttempts:  cfg.Database.MaxAttempts,
		RetryBackoff: cfg.Database.RetryBackoff,
		BusyTimeout:  cfg.Database.BusyTimeout,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	return cmd.run(&commandContext{Ctx: ctx, Logger: logger, Config: cfg, Store: store, Out: out}, args)
}

func commands() map[string]command {
	return map[string]command{
		"migrate":     {name: "migrate", description: "Apply schema migrations", run: runMigrate},
		"import":      {name: "import", description: "Import job postings from JSON files or directories", run: runImport},
		"jobs":        {name: "jobs", description: "List stored jobs, newest first", run: runJobs},
		"search":      {name: "search", description: "Search jobs by keyword, company or location", run: runSearch},
		"stats":       {name: "stats", description: "Show job statistics", run: runStats},
		"get-job":     {name: "get-job", description: "Show one job by id", run: runGetJob},
		"delete-job":  {name: "delete-job", description: "Delete a job and its documents", run: runDeleteJob},
		"add-doc":     {name: "add-doc", description: "Store a generated CV or cover letter", run: runAddDoc},
		"update-doc":  {name: "update-doc", description: "Replace document content, recording a new version", run: runUpdateDoc},
		"docs":        {name: "docs", description: "List documents by process, job or recency", run: runDocs},
		"versions":    {name: "versions", description: "Show the version history of a document", run: runVersions},
		"search-docs": {name: "search-docs", description: "Search documents by keyword, company or type", run: runSearchDocs},
		"doc-stats":   {name: "doc-stats", description: "Show document statistics", run: runDocStats},
		"export-doc":  {name: "export-doc", description: "Write a document to a text file", run: runExportDoc},
		"delete-doc":  {name: "delete-doc", description: "Delete a document and its versions", run: runDeleteDoc},
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "Usage: jobdb <command> [flags]\n\nAvailable commands:\n")
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-14s %s\n", name, cmds[name].description)
	}
}

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
