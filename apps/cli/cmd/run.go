package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/salvo/packages/batchfile"
	"github.com/abdul-hamid-achik/salvo/packages/dispatch"
	"github.com/abdul-hamid-achik/salvo/packages/expect"
	"github.com/abdul-hamid-achik/salvo/packages/history"
	"github.com/abdul-hamid-achik/salvo/packages/report"
	"github.com/abdul-hamid-achik/salvo/packages/settings"
)

var runCmd = &cobra.Command{
	Use:   "run <file|directory>...",
	Short: "Fire batches from YAML files",
	Long: `Fire the request batches defined in one or more YAML files.

Examples:
  salvo run smoke.yaml
  salvo run ./batches/ --sequential
  salvo run smoke.yaml --base-url https://staging.example.com
  salvo run smoke.yaml --watch
  salvo run smoke.yaml --record runs.db`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCommand,
}

// watchDebounce collapses bursts of write events into one re-run.
const watchDebounce = 300 * time.Millisecond

var (
	baseURLFlag     string
	timeoutFlag     string
	retriesFlag     int
	sequentialFlag  bool
	concurrencyFlag int
	verboseFlag     bool
	noColorFlag     bool
	watchFlag       bool
	recordFlag      string
)

func init() {
	runCmd.Flags().StringVar(&baseURLFlag, "base-url", getEnvString("SALVO_BASE_URL", ""), "Override the batch file's base URL (env: SALVO_BASE_URL)")
	runCmd.Flags().StringVar(&timeoutFlag, "timeout", getEnvString("SALVO_TIMEOUT", ""), "Per-request timeout, e.g. 30s (env: SALVO_TIMEOUT)")
	runCmd.Flags().IntVar(&retriesFlag, "retries", getEnvInt("SALVO_RETRIES", -1), "Retry limit for transient failures (env: SALVO_RETRIES)")
	runCmd.Flags().BoolVar(&sequentialFlag, "sequential", false, "Fire requests one at a time, in order")
	runCmd.Flags().IntVar(&concurrencyFlag, "concurrency", getEnvInt("SALVO_CONCURRENCY", 0), "Max simultaneous requests (env: SALVO_CONCURRENCY)")
	runCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Show request lines for each result")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("SALVO_NO_COLOR", false), "Disable colored output (env: SALVO_NO_COLOR)")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch batch files for changes and re-fire")
	runCmd.Flags().StringVar(&recordFlag, "record", getEnvString("SALVO_RECORD", ""), "Record results into a SQLite file at this path (env: SALVO_RECORD)")
}

func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func runCommand(cmd *cobra.Command, args []string) error {
	console := report.NewConsole(
		report.WithWriter(cmd.OutOrStdout()),
		report.WithVerbose(verboseFlag),
		report.WithNoColor(noColorFlag),
	)

	overrides, err := flagOverrides()
	if err != nil {
		return err
	}

	files, err := collectFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .yaml or .yml batch files found")
	}

	var recorder *history.Recorder
	if recordFlag != "" {
		recorder, err = history.Open(recordFlag)
		if err != nil {
			return err
		}
		defer recorder.Close()
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\ninterrupted, stopping...")
		cancel()
	}()

	fireAll := func() bool {
		failed := false
		for _, file := range files {
			if !fireFile(ctx, console, recorder, file, overrides) {
				failed = true
			}
		}
		return !failed
	}

	ok := fireAll()

	if !watchFlag {
		if !ok {
			os.Exit(1)
		}
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	watched := make(map[string]bool)
	for _, file := range files {
		dir := filepath.Dir(file)
		if !watched[dir] {
			if err := watcher.Add(dir); err != nil {
				console.Error("failed to watch %s: %v", dir, err)
			}
			watched[dir] = true
		}
	}

	console.Info("\nWatching for changes... (press Ctrl+C to stop)")

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, open := <-watcher.Events:
			if !open {
				return nil
			}
			if event.Has(fsnotify.Write) && isBatchFile(event.Name) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(watchDebounce, func() {
					console.Info("\nFile changed: %s\nRe-firing...\n", event.Name)
					fireAll()
					console.Info("\nWatching for changes... (press Ctrl+C to stop)")
				})
			}
		case err, open := <-watcher.Errors:
			if !open {
				return nil
			}
			console.Error("watcher error: %v", err)
		}
	}
}

// fireFile loads, fires and reports one batch file, returning whether the
// batch passed.
func fireFile(ctx context.Context, console *report.Console, recorder *history.Recorder, file string, overrides []settings.Setting) bool {
	batch, err := batchfile.Load(file)
	if err != nil {
		console.Error("%s: %v", file, err)
		return false
	}

	baseURL := batch.BaseURL
	if baseURLFlag != "" {
		baseURL = baseURLFlag
	}

	title := batch.Name
	if title == "" {
		title = filepath.Base(file)
	}
	console.Info("\n%s (%d requests)", title, len(batch.Specs))

	comments := make([]string, 0)
	for _, c := range settings.All[settings.Comment](batch.Settings) {
		comments = append(comments, c.Text)
	}
	console.Comments(comments)

	// CLI overrides come after the file's settings so they win ties.
	cfg := dispatch.NewConfig(baseURL,
		dispatch.WithSettings(batch.Settings...)).
		With(overrides...)

	start := time.Now()
	results, fireErr := cfg.Fire(ctx, batch.Specs...)
	elapsed := time.Since(start)

	console.Results(results, fireErr)

	summary := report.NewSummary()
	for _, r := range results {
		if r == nil {
			summary.AddFailure()
			continue
		}
		summary.Add(r)
	}
	console.Summary(summary)
	console.Info("  elapsed: %v", elapsed.Round(time.Millisecond))

	if recorder != nil {
		if err := recorder.RecordBatch(results, fireErr); err != nil {
			console.Error("failed to record results: %v", err)
		}
	}

	if fireErr != nil {
		if expect.IsAssertion(fireErr) {
			console.Error("expectation failed: %v", fireErr)
		}
		return false
	}
	return true
}

func flagOverrides() ([]settings.Setting, error) {
	var overrides []settings.Setting

	if sequentialFlag {
		overrides = append(overrides, settings.WithFireMode(settings.Sequential))
	}
	if concurrencyFlag > 0 {
		overrides = append(overrides, settings.WithConcurrencyLimit(concurrencyFlag))
	}
	if retriesFlag >= 0 {
		overrides = append(overrides, settings.WithRetryLimit(retriesFlag))
	}
	if timeoutFlag != "" {
		d, err := time.ParseDuration(timeoutFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout value %q: %w (use format like 30s, 1m, 500ms)", timeoutFlag, err)
		}
		overrides = append(overrides, settings.WithTimeout(d))
	}

	return overrides, nil
}

func collectFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			err := filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if !info.IsDir() && isBatchFile(path) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		} else if isBatchFile(arg) {
			files = append(files, arg)
		}
	}

	return files, nil
}

func isBatchFile(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".yaml" || ext == ".yml"
}
