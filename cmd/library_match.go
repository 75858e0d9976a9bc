package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/attendance-tracker/internal/attendance"
	"github.com/kozaktomas/attendance-tracker/internal/database/postgres"
	"github.com/kozaktomas/attendance-tracker/internal/facematch"
	"github.com/kozaktomas/attendance-tracker/internal/render"
)

var libraryMatchCmd = &cobra.Command{
	Use:   "match <image>",
	Short: "Show the closest reference identities for every face in an image",
	Long: `Detect the faces of a single image and print the nearest reference
identities with their distances, together with the recognition decision.
With --from-database the candidates come from a pgvector nearest-neighbour
query against the PostgreSQL cache.`,
	Args: cobra.ExactArgs(1),
	RunE: runLibraryMatch,
}

func init() {
	libraryCmd.AddCommand(libraryMatchCmd)

	addLibraryFlags(libraryMatchCmd, true)
	libraryMatchCmd.Flags().Int("top", 3, "Number of candidates shown per face")
}

func runLibraryMatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyLibraryFlags(cmd, cfg)
	top := mustGetInt(cmd, "top")
	fromDatabase := mustGetBool(cmd, "from-database")

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	ctx := cmd.Context()
	analyzer := newAnalyzer(cfg)
	faces, err := analyzer.Analyze(ctx, data)
	if err != nil {
		return fmt.Errorf("failed to analyze image: %w", err)
	}
	if len(faces) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No faces detected")
		return nil
	}

	var rank func(facematch.Descriptor) ([]facematch.Candidate, error)
	if fromDatabase {
		pool, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		defer pool.Close()
		repo := postgres.NewIdentityRepository(pool)
		rank = func(d facematch.Descriptor) ([]facematch.Candidate, error) {
			return repo.Nearest(ctx, d, top)
		}
	} else {
		known, err := loadKnown(ctx, cfg, analyzer, false)
		if err != nil {
			return err
		}
		rank = func(d facematch.Descriptor) ([]facematch.Candidate, error) {
			return facematch.Rank(d, known, top), nil
		}
	}

	var rows [][]string
	for _, f := range faces {
		if f.Err != nil {
			rows = append(rows, []string{strconv.Itoa(f.Index), "", "", "Error: " + f.Err.Error()})
			continue
		}
		candidates, err := rank(f.Descriptor)
		if err != nil {
			return fmt.Errorf("failed to rank face %d: %w", f.Index, err)
		}
		decision, err := facematch.Evaluate(f.Descriptor, identities(candidates))
		if err != nil {
			decision = facematch.Unknown()
		}
		rows = append(rows, candidateRows(f.Index, candidates, decision)...)
	}

	fmt.Fprint(cmd.OutOrStdout(), renderTable(
		[]string{"Face", "Candidate", "Distance", "Decision"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
	))
	return nil
}

// identities keeps the ranked order, so ties resolve to the earlier library entry.
func identities(candidates []facematch.Candidate) []facematch.KnownIdentity {
	out := make([]facematch.KnownIdentity, len(candidates))
	for i, c := range candidates {
		out[i] = c.Identity
	}
	return out
}

// candidateRows turns ranked candidates of one face into table rows; the
// decision is shown on the first row.
func candidateRows(face int, candidates []facematch.Candidate, decision facematch.MatchResult) [][]string {
	if len(candidates) == 0 {
		return [][]string{{strconv.Itoa(face), "", "", render.Label(decision)}}
	}
	rows := make([][]string, len(candidates))
	for j, c := range candidates {
		verdict := ""
		if j == 0 {
			verdict = render.Label(decision)
		}
		distance := fmt.Sprintf("%.4f (%s)", c.Distance, attendance.FormatConfidence(1-c.Distance))
		rows[j] = []string{strconv.Itoa(face), c.Identity.Name, distance, verdict}
	}
	return rows
}
