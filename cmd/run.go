package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/attendance-tracker/internal/attendance"
	"github.com/kozaktomas/attendance-tracker/internal/capture"
	"github.com/kozaktomas/attendance-tracker/internal/config"
	"github.com/kozaktomas/attendance-tracker/internal/notify"
	"github.com/kozaktomas/attendance-tracker/internal/pipeline"
	"github.com/kozaktomas/attendance-tracker/internal/render"
	"github.com/kozaktomas/attendance-tracker/internal/web"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Recognize faces and record attendance",
	Long: `Load the reference library, then read frames from the capture source,
recognize every face and log the first sighting of each person per day.

The source is either a directory of frames (processed in lexical order,
optionally watched for new files) or a camera snapshot URL polled at the
given interval. Each run writes a new YYYY-MM-DD_HH-MM-SS_attendance.csv in
the output directory. Stop with Ctrl+C.`,
	RunE: runAttendance,
}

func init() {
	rootCmd.AddCommand(runCmd)

	addLibraryFlags(runCmd, true)
	runCmd.Flags().String("source", "", "Frame directory or camera snapshot URL")
	runCmd.Flags().Bool("watch", false, "Keep waiting for new frames in a directory source")
	runCmd.Flags().Duration("interval", 0, "Minimum time between camera snapshots (default from config: 250ms)")
	runCmd.Flags().String("output-dir", "", "Directory for attendance logs")
	runCmd.Flags().String("annotate-dir", "", "Write annotated frames to this directory")
	runCmd.Flags().String("listen", "", "Serve the status API on this address (e.g. :8080)")
}

func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	applyLibraryFlags(cmd, cfg)
	if changed(cmd, "source") {
		cfg.Capture.Source = mustGetString(cmd, "source")
	}
	if changed(cmd, "watch") {
		cfg.Capture.Watch = mustGetBool(cmd, "watch")
	}
	if changed(cmd, "interval") {
		cfg.Capture.Interval = mustGetDuration(cmd, "interval")
	}
	if changed(cmd, "output-dir") {
		cfg.Ledger.OutputDir = mustGetString(cmd, "output-dir")
	}
	if changed(cmd, "annotate-dir") {
		cfg.Render.AnnotateDir = mustGetString(cmd, "annotate-dir")
	}
	if changed(cmd, "listen") {
		cfg.Web.Listen = mustGetString(cmd, "listen")
	}
}

func runAttendance(cmd *cobra.Command, args []string) error {
	startedAt := time.Now()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg)

	if cfg.Capture.Source == "" {
		return errors.New("capture source is required (--source or CAPTURE_SOURCE)")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	analyzer := newAnalyzer(cfg)
	known, err := loadKnown(ctx, cfg, analyzer, mustGetBool(cmd, "from-database"))
	if err != nil {
		return err
	}

	source, err := capture.Open(ctx, cfg.Capture.Source, cfg.Capture.Watch, cfg.Capture.Interval)
	if err != nil {
		return err
	}
	defer source.Close()

	store, err := attendance.OpenCSVStore(attendance.LogFilePath(cfg.Ledger.OutputDir, startedAt))
	if err != nil {
		return err
	}
	defer store.Close()
	fmt.Printf("Logging attendance to %s\n", store.Path())

	ledger := attendance.NewLedger(store)
	processor := &pipeline.Processor{
		Analyzer: analyzer,
		Known:    known,
		Ledger:   ledger,
		Notifier: buildNotifier(cfg),
	}
	if cfg.Render.AnnotateDir != "" {
		annotator, err := render.NewAnnotator(cfg.Render.AnnotateDir)
		if err != nil {
			return fmt.Errorf("annotate dir: %w", err)
		}
		processor.Annotator = annotator
	}

	if cfg.Web.Listen != "" {
		server := web.NewServer(cfg.Web.Listen, ledger, known)
		go func() {
			if err := server.Start(); err != nil {
				fmt.Printf("Warning: status server stopped: %v\n", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				fmt.Printf("Error during shutdown: %v\n", err)
			}
		}()
	}

	fmt.Println("Processing frames, press Ctrl+C to stop")
	runErr := processor.Run(ctx, source, time.Now)

	fmt.Printf("Recorded %d attendance entries in %s\n", ledger.Count(), time.Since(startedAt).Round(time.Second))
	return runErr
}

func buildNotifier(cfg *config.Config) notify.Notifier {
	notifiers := notify.Multi{notify.LogNotifier{}}
	if cfg.Notify.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(cfg.Notify.WebhookURL))
	}
	return notifiers
}
