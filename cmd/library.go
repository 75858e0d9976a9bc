package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/attendance-tracker/internal/database/postgres"
	"github.com/kozaktomas/attendance-tracker/internal/library"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Reference library commands",
	Long:  `Commands for inspecting the reference library and caching it in PostgreSQL.`,
}

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the identities of the reference library",
	RunE:  runLibraryList,
}

var libraryCacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Encode the reference directory and store the descriptors in PostgreSQL",
	Long: `Encode every reference image and replace the PostgreSQL descriptor cache.
A later "run --from-database" then starts without contacting the embedding
server for the library. Requires DATABASE_URL.

A missing directory is an error, and an empty result leaves the cache
untouched unless --allow-empty is given.`,
	RunE: runLibraryCache,
}

func init() {
	rootCmd.AddCommand(libraryCmd)
	libraryCmd.AddCommand(libraryListCmd, libraryCacheCmd)

	addLibraryFlags(libraryListCmd, true)
	addLibraryFlags(libraryCacheCmd, false)
	libraryCacheCmd.Flags().Bool("allow-empty", false, "Replace the cache even when no reference face was loaded")
}

// errEmptyLibrary stops "library cache" from wiping the cache when nothing loaded.
var errEmptyLibrary = errors.New("no usable reference faces")

func runLibraryList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyLibraryFlags(cmd, cfg)

	ctx := cmd.Context()
	known, err := loadKnown(ctx, cfg, newAnalyzer(cfg), mustGetBool(cmd, "from-database"))
	if err != nil {
		return err
	}

	summaries := library.Summarize(known)
	if len(summaries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Library is empty")
		return nil
	}

	rows := make([][]string, len(summaries))
	for i, s := range summaries {
		rows[i] = []string{s.Name, strconv.Itoa(s.References), strings.Join(s.Sources, ", ")}
	}
	fmt.Fprint(cmd.OutOrStdout(), renderTable(
		[]string{"Name", "References", "Sources"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft},
	))
	return nil
}

func runLibraryCache(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyLibraryFlags(cmd, cfg)

	ctx := cmd.Context()
	known, err := library.LoadReferenceLibrary(ctx, cfg.Library.Dir, newAnalyzer(cfg), libraryOptions(cfg))
	if err != nil {
		return err
	}
	if len(known) == 0 && !mustGetBool(cmd, "allow-empty") {
		return fmt.Errorf("%w in %s, refusing to replace the cache (use --allow-empty to clear it)",
			errEmptyLibrary, cfg.Library.Dir)
	}

	fmt.Printf("Connecting to PostgreSQL database...\n")
	pool, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer pool.Close()

	if err := postgres.NewIdentityRepository(pool).ReplaceAll(ctx, known); err != nil {
		return fmt.Errorf("failed to cache library: %w", err)
	}

	fmt.Printf("Cached %d descriptors for %d people\n", len(known), len(library.Summarize(known)))
	return nil
}
