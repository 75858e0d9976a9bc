package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/attendance-tracker/internal/config"
	"github.com/kozaktomas/attendance-tracker/internal/database/postgres"
	"github.com/kozaktomas/attendance-tracker/internal/facematch"
	"github.com/kozaktomas/attendance-tracker/internal/fingerprint"
	"github.com/kozaktomas/attendance-tracker/internal/library"
)

// addLibraryFlags registers the flags that select the reference library.
func addLibraryFlags(cmd *cobra.Command, withDatabase bool) {
	cmd.Flags().String("faces-dir", "", "Reference library directory (<dir>/<person>/<image>)")
	cmd.Flags().Int("limit", 0, "Reference images encoded per person, 0 for all (default from config: 1)")
	if withDatabase {
		cmd.Flags().Bool("from-database", false, "Load cached descriptors from PostgreSQL instead of encoding the directory")
	}
}

func applyLibraryFlags(cmd *cobra.Command, cfg *config.Config) {
	if changed(cmd, "faces-dir") {
		cfg.Library.Dir = mustGetString(cmd, "faces-dir")
	}
	if changed(cmd, "limit") {
		cfg.Library.MaxImagesPerIdentity = mustGetInt(cmd, "limit")
	}
}

// loadKnown returns the reference library, either encoded from the configured
// directory or read from the database cache. A missing directory yields an
// empty library: every face is then reported as Unknown.
func loadKnown(
	ctx context.Context, cfg *config.Config, analyzer fingerprint.Analyzer, fromDatabase bool,
) ([]facematch.KnownIdentity, error) {
	if fromDatabase {
		pool, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		defer pool.Close()

		known, err := postgres.NewIdentityRepository(pool).LoadAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load cached library: %w", err)
		}
		fmt.Printf("Loaded %d cached reference faces from PostgreSQL\n", len(known))
		return known, nil
	}

	known, err := library.LoadReferenceLibrary(ctx, cfg.Library.Dir, analyzer, libraryOptions(cfg))
	if errors.Is(err, library.ErrDirectoryNotFound) {
		fmt.Printf("Warning: %v, continuing with an empty library\n", err)
		return known, nil
	}
	if err != nil {
		return nil, err
	}
	fmt.Printf("Loaded %d reference faces for %d people\n", len(known), len(library.Summarize(known)))
	return known, nil
}

func libraryOptions(cfg *config.Config) library.Options {
	return library.Options{
		MaxImagesPerIdentity: cfg.Library.MaxImagesPerIdentity,
		ShowProgress:         isTerminal(os.Stderr),
	}
}

func newAnalyzer(cfg *config.Config) *fingerprint.FaceClient {
	return fingerprint.NewFaceClient(cfg.Embedding.URL, cfg.Embedding.MaxImageSize)
}
