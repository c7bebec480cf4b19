package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/dothttp/packages/core/config"
	"github.com/abdul-hamid-achik/dothttp/packages/core/env"
	"github.com/abdul-hamid-achik/dothttp/packages/core/runner"
	"github.com/abdul-hamid-achik/dothttp/packages/core/source"
	"github.com/abdul-hamid-achik/dothttp/packages/history"
	"github.com/abdul-hamid-achik/dothttp/packages/http"
	"github.com/abdul-hamid-achik/dothttp/packages/metrics"
	"github.com/abdul-hamid-achik/dothttp/packages/output"
)

var runCmd = &cobra.Command{
	Use:   "run <file|directory>...",
	Short: "Execute .http scripts",
	Long: `Execute requests from .http files.

A file argument may carry a request selection: "api.http#2" runs only
the second request of the file. Directory arguments run every .http
file they contain.

Examples:
  dothttp run api.http
  dothttp run api.http#2 --env staging
  dothttp run ./requests/ --format ci
  dothttp run api.http --watch`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCommand,
}

// WatchDebounceDelay is the debounce delay for file watch events
const WatchDebounceDelay = 300 * time.Millisecond

var (
	envFlag            string
	envFileFlag        string
	snapshotFlag       string
	configFlag         string
	requestFormatFlag  string
	responseFormatFlag string
	formatFlag         string
	noColorFlag        bool
	timeoutFlag        string
	insecureFlag       bool
	proxyFlag          string
	rpsFlag            int
	statsFlag          bool
	noHistoryFlag      bool
	historyFileFlag    string
	watchFlag          bool
)

func init() {
	runCmd.Flags().StringVarP(&envFlag, "env", "e", getEnvString("DOTHTTP_ENV", ""), "Environment to select from the environment file (env: DOTHTTP_ENV)")
	runCmd.Flags().StringVar(&envFileFlag, "env-file", getEnvString("DOTHTTP_ENV_FILE", ""), "Path to the environment file (env: DOTHTTP_ENV_FILE)")
	runCmd.Flags().StringVar(&snapshotFlag, "snapshot", getEnvString("DOTHTTP_SNAPSHOT", ""), "Path to the snapshot file (env: DOTHTTP_SNAPSHOT)")
	runCmd.Flags().StringVar(&configFlag, "config", getEnvString("DOTHTTP_CONFIG", ""), "Path to config file (env: DOTHTTP_CONFIG)")

	runCmd.Flags().StringVar(&requestFormatFlag, "request-format", "", "Format of the request output (%R line, %H headers, %B body, %N name)")
	runCmd.Flags().StringVar(&responseFormatFlag, "response-format", "", "Format of the response output (%R line, %H headers, %B body, %T tests)")
	runCmd.Flags().StringVar(&formatFlag, "format", "standard", "Output style: standard, ci")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("DOTHTTP_NO_COLOR", false), "Disable colored output (env: DOTHTTP_NO_COLOR)")

	runCmd.Flags().StringVar(&timeoutFlag, "timeout", getEnvString("DOTHTTP_TIMEOUT", ""), "Request timeout, e.g. 30s, 1m (env: DOTHTTP_TIMEOUT)")
	runCmd.Flags().BoolVarP(&insecureFlag, "insecure", "k", getEnvBool("DOTHTTP_INSECURE", false), "Accept invalid TLS certificates (env: DOTHTTP_INSECURE)")
	runCmd.Flags().StringVar(&proxyFlag, "proxy", getEnvString("DOTHTTP_PROXY", ""), "Proxy URL for requests (env: DOTHTTP_PROXY)")
	runCmd.Flags().IntVar(&rpsFlag, "rps", getEnvInt("DOTHTTP_RPS", 0), "Throttle request starts to this many per second, 0 = unlimited (env: DOTHTTP_RPS)")

	runCmd.Flags().BoolVar(&statsFlag, "stats", false, "Print a latency summary after the run")
	runCmd.Flags().BoolVar(&noHistoryFlag, "no-history", false, "Do not record requests in the history database")
	runCmd.Flags().StringVar(&historyFileFlag, "history-file", getEnvString("DOTHTTP_HISTORY", ""), "Path to the history database (env: DOTHTTP_HISTORY)")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch scripts for changes and re-run")
}

// Environment variable helpers
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

// runSettings is everything resolved from config and flags.
type runSettings struct {
	provider     env.Provider
	timeout      time.Duration
	followRedir  bool
	maxRedirects int
	validateSSL  bool
	proxy        string
	noColor      bool
	reqFormat    output.Format
	resFormat    output.Format
	ci           bool
}

func resolveSettings() (*runSettings, error) {
	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, err
	}

	envName := cfg.Environment
	if envFlag != "" {
		envName = envFlag
	}
	envFile := cfg.EnvFile
	if envFileFlag != "" {
		envFile = envFileFlag
	}
	snapshotFile := cfg.SnapshotFile
	if snapshotFlag != "" {
		snapshotFile = snapshotFlag
	}

	timeout := time.Duration(cfg.Timeout) * time.Millisecond
	if timeoutFlag != "" {
		timeout, err = time.ParseDuration(timeoutFlag)
		if err != nil {
			return nil, &usageError{err: fmt.Errorf("invalid timeout value %q: %w (use format like 30s, 1m, 500ms)", timeoutFlag, err)}
		}
	}

	requestFormat := cfg.RequestFormat
	if requestFormatFlag != "" {
		requestFormat = requestFormatFlag
	}
	responseFormat := cfg.ResponseFormat
	if responseFormatFlag != "" {
		responseFormat = responseFormatFlag
	}
	reqFormat, err := output.ParseFormat(requestFormat)
	if err != nil {
		return nil, &usageError{err: fmt.Errorf("invalid request format: %w", err)}
	}
	resFormat, err := output.ParseFormat(responseFormat)
	if err != nil {
		return nil, &usageError{err: fmt.Errorf("invalid response format: %w", err)}
	}

	ci := false
	switch strings.ToLower(formatFlag) {
	case "standard":
	case "ci":
		ci = true
	default:
		return nil, &usageError{err: fmt.Errorf("unknown format %q: expected standard or ci", formatFlag)}
	}

	validateSSL := cfg.GetValidateSSL()
	if insecureFlag {
		validateSSL = false
	}
	proxy := cfg.Proxy
	if proxyFlag != "" {
		proxy = proxyFlag
	}

	return &runSettings{
		provider:     env.NewFileProvider(envName, envFile, snapshotFile),
		timeout:      timeout,
		followRedir:  cfg.GetFollowRedirects(),
		maxRedirects: cfg.MaxRedirects,
		validateSSL:  validateSSL,
		proxy:        proxy,
		noColor:      noColorFlag || cfg.GetNoColor(),
		reqFormat:    reqFormat,
		resFormat:    resFormat,
		ci:           ci,
	}, nil
}

func (s *runSettings) newOutput() output.Output {
	if s.ci {
		return output.NewCiOutput()
	}
	return output.NewFormattedOutput(s.reqFormat, s.resFormat, output.WithNoColor(s.noColor))
}

func (s *runSettings) newClient() http.Client {
	opts := []http.ClientOption{
		http.WithTimeout(s.timeout),
		http.WithFollowRedirects(s.followRedir),
		http.WithMaxRedirects(s.maxRedirects),
		http.WithValidateSSL(s.validateSSL),
	}
	if s.proxy != "" {
		opts = append(opts, http.WithProxy(s.proxy))
	}
	return http.NewClient(opts...)
}

func runCommand(cmd *cobra.Command, args []string) error {
	settings, err := resolveSettings()
	if err != nil {
		return err
	}

	var store *history.Store
	if !noHistoryFlag {
		path := historyFileFlag
		if path == "" {
			if path, err = history.DefaultPath(); err != nil {
				return err
			}
		}
		if store, err = history.Open(path); err != nil {
			fmt.Fprintf(os.Stderr, "warning: history disabled: %v\n", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runErr := runOnce(ctx, cmd, settings, store, args)

	if !watchFlag {
		return runErr
	}
	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr)
	}
	return watch(ctx, cmd, settings, store, args)
}

// runOnce collects the sources and executes them against a fresh
// runtime, so every run starts from the files on disk.
func runOnce(ctx context.Context, cmd *cobra.Command, settings *runSettings, store *history.Store, args []string) error {
	items, err := source.Collect(args)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return &usageError{err: fmt.Errorf("no .http files found")}
	}

	out := settings.newOutput()
	recorder := metrics.NewRecorder()

	observer := func(record runner.Record) {
		recorder.Record(record.Duration, record.Failed)
		if store != nil {
			entry := history.Entry{
				ExecutedAt: time.Now(),
				File:       record.File,
				Request:    record.Request,
				Method:     record.Method,
				Target:     record.Target,
				StatusCode: record.StatusCode,
				Duration:   record.Duration,
				Failed:     record.Failed,
			}
			if err := store.Record(ctx, entry); err != nil {
				fmt.Fprintf(os.Stderr, "warning: recording history: %v\n", err)
			}
		}
	}

	runtime, err := runner.NewRuntime(settings.provider, out,
		runner.WithClient(settings.newClient()),
		runner.WithRequestsPerSecond(rpsFlag),
		runner.WithObserver(observer),
	)
	if err != nil {
		return err
	}

	runErr := runtime.Run(ctx, items)
	if statsFlag {
		recorder.Summary().Print(cmd.OutOrStdout())
	}
	return runErr
}

// watch re-runs the scripts whenever one of them changes. Events are
// debounced so editors that write in bursts trigger a single run.
func watch(ctx context.Context, cmd *cobra.Command, settings *runSettings, store *history.Store, args []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	watched := make(map[string]bool)
	watchDir := func(dir string) {
		if watched[dir] {
			return
		}
		if err := watcher.Add(dir); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to watch %s: %v\n", dir, err)
			return
		}
		watched[dir] = true
	}

	for _, arg := range args {
		path, _, _ := strings.Cut(arg, "#")
		info, err := os.Stat(path)
		if err != nil {
			path = arg
			if info, err = os.Stat(path); err != nil {
				continue
			}
		}
		if info.IsDir() {
			watchDir(path)
		} else {
			watchDir(filepath.Dir(path))
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	var debounceTimer *time.Timer
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) || filepath.Ext(event.Name) != ".http" {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "\nFile changed: %s\nRe-running...\n\n", event.Name)
				if err := runOnce(ctx, cmd, settings, store, args); err != nil {
					fmt.Fprintln(os.Stderr, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "warning: watcher error: %v\n", err)
		}
	}
}
