package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Biswanathdas1996/modern-sdlc-tool/internal/app"
	"github.com/Biswanathdas1996/modern-sdlc-tool/internal/config"
	"github.com/Biswanathdas1996/modern-sdlc-tool/internal/ingest"
	"github.com/Biswanathdas1996/modern-sdlc-tool/internal/log"
)

var ingestProjectID string

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Ingest a document from the command line",
	Long: `Ingest reads a file, runs the full ingestion pipeline (parse, chunk,
embed, store), and prints progress to stdout. Useful for seeding a project
without going through the HTTP API.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(args[0])
	},
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestProjectID, "project", "p", "", "project id (required)")
	_ = ingestCmd.MarkFlagRequired("project")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(path string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := log.New(log.Config{Level: slog.LevelWarn})
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	data, err := os.ReadFile(path) // #nosec G304 -- user-supplied CLI argument
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	filename := filepath.Base(path)
	mimeType := mime.TypeByExtension(filepath.Ext(filename))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	events := a.Pipeline.Ingest(ctx, ingest.Upload{
		ProjectID: ingestProjectID,
		Filename:  filename,
		MimeType:  mimeType,
		Data:      data,
	})

	for e := range events {
		switch {
		case e.Step == ingest.StepError:
			return fmt.Errorf("ingestion failed: %s", e.Err)
		case e.Warning:
			fmt.Printf("  warning: %s\n", e.Detail)
		case e.Step == ingest.StepDone:
			fmt.Printf("done: %d chunks stored (document %s)\n", e.ChunkCount, e.DocumentID)
		case e.Detail != "":
			fmt.Printf("%s: %s\n", e.Step, e.Detail)
		default:
			fmt.Printf("%s\n", e.Step)
		}
	}

	return nil
}
