package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/usfinancemoves/finwire/internal/cli"
	"github.com/usfinancemoves/finwire/internal/db"
	"github.com/usfinancemoves/finwire/internal/globaltime"
	"github.com/usfinancemoves/finwire/internal/selection"
)

func runSelect(args []string) int {
	fs := flag.NewFlagSet("select", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid flags: %v\n", err)
		return 2
	}

	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cfg, _, pool, err := bootstrap(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Select failed: %v\n", err)
		return 1
	}
	defer pool.Close()

	sections, err := pool.ListSections(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Select failed: %v\n", err)
		return 1
	}
	posts, err := pool.ListPublishedPosts(ctx, cfg.SelectionFetchSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Select failed: %v\n", err)
		return 1
	}

	result := selection.Select(posts, sections, selectionPolicy(cfg), globaltime.Now())

	if outputFormat == outputFormatJSON {
		if err := printJSON(selectOutput(result, sections)); err != nil {
			fmt.Fprintf(os.Stderr, "Select failed: %v\n", err)
			return 1
		}
		return 0
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SECTION\tPOST\tSOURCE\tCREATED")
	for _, post := range result.Homepage {
		printSelectRow(w, "homepage", &post)
	}
	for _, section := range sections {
		for _, post := range result.Sections[section.Slug] {
			printSelectRow(w, section.Slug, &post)
		}
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Select failed: %v\n", err)
		return 1
	}
	return 0
}

func printSelectRow(w *tabwriter.Writer, bucket string, post *db.Post) {
	title := post.Title
	if len(title) > 70 {
		title = title[:67] + "..."
	}
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", bucket, title, post.SourceName, post.CreatedAt.UTC().Format(time.RFC3339))
}

func selectOutput(result selection.Result, sections []db.Section) map[string]any {
	out := map[string]any{
		"homepage": selectTitles(result.Homepage),
	}
	sectionOut := make(map[string][]string, len(sections))
	for _, section := range sections {
		sectionOut[section.Slug] = selectTitles(result.Sections[section.Slug])
	}
	out["sections"] = sectionOut
	return out
}

func selectTitles(posts []db.Post) []string {
	titles := make([]string, 0, len(posts))
	for _, post := range posts {
		titles = append(titles, post.Title)
	}
	return titles
}
