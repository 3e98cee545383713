package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/notesync/internal"
	"github.com/starford/notesync/internal/index"
	"github.com/starford/notesync/internal/models"
	pkgconfig "github.com/starford/notesync/pkg/config"
)

func loadOptions(cmd *cli.Command) ([]internal.Option, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return []internal.Option{
		internal.WithConfig(cfg),
	}, nil
}

func runSync(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	sum, err := internal.RunSync(ctx, opts...)
	if err != nil {
		return fmt.Errorf("sync error: %w", err)
	}
	printSummary(os.Stdout, sum)
	return nil
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunWatch(ctx, opts...); err != nil {
		return fmt.Errorf("watch error: %w", err)
	}
	return nil
}

func runStatus(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	rep, err := internal.RunStatus(ctx, opts...)
	if err != nil {
		return fmt.Errorf("status error: %w", err)
	}
	printReport(os.Stdout, rep)
	return nil
}

func printSummary(w io.Writer, sum models.Summary) {
	fmt.Fprintf(w, "Synced %d posts to %s (%d skipped, %d failed) in %s\n",
		sum.Processed, sum.PostsDir, sum.Skipped, sum.Failed, sum.Duration.Round(time.Millisecond))
	if len(sum.Warnings) > 0 {
		fmt.Fprintf(w, "%d warnings:\n", len(sum.Warnings))
		for _, warn := range sum.Warnings {
			fmt.Fprintf(w, "  %s\n", warn)
		}
	}
}

func printReport(w io.Writer, rep *index.Report) {
	fmt.Fprintf(w, "%d posts\n", len(rep.Posts))
	for _, p := range rep.Posts {
		fmt.Fprintf(w, "  %s  %-30s  %s\n", p.PubDatetime.Format("2006-01-02"), p.Slug, p.File)
	}
	if len(rep.Dangling) > 0 {
		fmt.Fprintf(w, "%d dangling links:\n", len(rep.Dangling))
		for _, d := range rep.Dangling {
			fmt.Fprintf(w, "  %s -> %s\n", d.Source, d.Target)
		}
	}
	if len(rep.Collisions) > 0 {
		fmt.Fprintf(w, "%d slug collisions:\n", len(rep.Collisions))
		for _, c := range rep.Collisions {
			fmt.Fprintf(w, "  %s: %v\n", c.Slug, c.Files)
		}
	}
}

func main() {
	cmd := &cli.Command{
		Name:   "notesync",
		Usage:  "Publish tagged Markdown notes from a vault into a static site's content directories",
		Action: runSync,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "notesync.yaml",
				Value:       "notesync.yaml",
				Sources:     cli.EnvVars("NOTESYNC_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "sync",
				Usage:  "Rebuild the posts directory from the source notes (default)",
				Action: runSync,
			},
			{
				Name:   "watch",
				Usage:  "Sync, then re-sync on every change to the notes or attachments",
				Action: runWatch,
			},
			{
				Name:   "status",
				Usage:  "Show the posts, dangling links and slug collisions from the last sync",
				Action: runStatus,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
