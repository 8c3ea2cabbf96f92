// Package main provides the sitescan CLI: point it at a URL and it loads
// the page in a headless browser, asks a language model to classify it and
// enumerate its interactive elements, and — when a search form is detected —
// runs one end-to-end test of the search flow. The aggregate report is
// written to results.json and the exit code signals whether any step failed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/entrhq/sitescan/pkg/analyzer"
	"github.com/entrhq/sitescan/pkg/browser"
	"github.com/entrhq/sitescan/pkg/config"
	"github.com/entrhq/sitescan/pkg/llm/openai"
	"github.com/entrhq/sitescan/pkg/logging"
	"github.com/entrhq/sitescan/pkg/report"
	"github.com/entrhq/sitescan/pkg/runner"
)

const version = "0.1.0"

// errRunFlagged signals that the run finished but recorded faults.
var errRunFlagged = errors.New("run completed with errors")

// cliFlags holds the raw command-line values before merging into the config.
type cliFlags struct {
	configFile  string
	model       string
	apiKey      string
	baseURL     string
	output      string
	timeout     time.Duration
	headful     bool
	showVersion bool
}

func main() {
	flags, targetURL := parseFlags()

	if flags.showVersion {
		fmt.Printf("sitescan v%s\n", version)
		return
	}

	cfg, err := buildConfig(flags, targetURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sitescan: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nShutting down...")
		cancel()
	}()

	if err := run(ctx, cfg); err != nil {
		if !errors.Is(err, errRunFlagged) {
			fmt.Fprintf(os.Stderr, "sitescan: %v\n", err)
		}
		os.Exit(1)
	}
}

// parseFlags parses the command line and returns the flags plus the
// positional target URL.
func parseFlags() (*cliFlags, string) {
	flags := &cliFlags{}

	flag.StringVar(&flags.configFile, "config", "", "Path to configuration file (YAML)")
	flag.StringVar(&flags.model, "model", "", "LLM model to use")
	flag.StringVar(&flags.apiKey, "api-key", "", "API key (defaults to OPENAI_API_KEY)")
	flag.StringVar(&flags.baseURL, "base-url", "", "OpenAI-compatible API base URL")
	flag.StringVar(&flags.output, "output", "", "Output file for the run report")
	flag.DurationVar(&flags.timeout, "timeout", 0, "Navigation timeout")
	flag.BoolVar(&flags.headful, "headful", false, "Run the browser with a visible window")
	flag.BoolVar(&flags.showVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "sitescan - LLM-assisted single-page site analysis\n\n")
		fmt.Fprintf(os.Stderr, "Usage: sitescan [options] <url>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  sitescan https://example.com\n")
		fmt.Fprintf(os.Stderr, "  sitescan -model gpt-4o-mini -output scan.json https://example.com\n")
	}

	flag.Parse()
	return flags, flag.Arg(0)
}

// buildConfig merges defaults, the optional config file, the environment,
// and the command line — in that order of precedence.
func buildConfig(flags *cliFlags, targetURL string) (*config.Config, error) {
	cfg := config.Default()

	if flags.configFile != "" {
		if err := cfg.LoadFile(flags.configFile); err != nil {
			return nil, err
		}
	}

	cfg.ApplyEnv()

	if flags.model != "" {
		cfg.Model = flags.model
	}
	if flags.apiKey != "" {
		cfg.APIKey = flags.apiKey
	}
	if flags.baseURL != "" {
		cfg.BaseURL = flags.baseURL
	}
	if flags.output != "" {
		cfg.OutputFile = flags.output
	}
	if flags.timeout > 0 {
		cfg.NavigationTimeout = config.Duration(flags.timeout)
	}
	if flags.headful {
		cfg.Headless = false
	}

	cfg.TargetURL = targetURL

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// run executes one scan and returns errRunFlagged when any step recorded a
// fault, so main can translate it into the exit code.
func run(ctx context.Context, cfg *config.Config) error {
	log, logErr := logging.NewLogger("sitescan")
	if logErr != nil {
		log.Warnf("File logging unavailable: %v", logErr)
	}
	defer log.Close()

	provider, err := openai.NewProvider(cfg.APIKey,
		openai.WithModel(cfg.Model),
		openai.WithBaseURL(cfg.BaseURL),
	)
	if err != nil {
		return err
	}

	log.Infof("Starting scan of %s with model %s", cfg.TargetURL, provider.GetModel())

	session, err := browser.Launch(browser.Options{
		Headless: cfg.Headless,
		Timeout:  cfg.NavigationTimeout.Std(),
	})
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warnf("Browser shutdown: %v", err)
		}
	}()

	analyzerLog, _ := logging.NewLogger("analyzer")
	defer analyzerLog.Close()
	runnerLog, _ := logging.NewLogger("runner")
	defer runnerLog.Close()

	a := analyzer.New(provider, analyzerLog, cfg.HTMLWindow)
	r := runner.New(session, a, cfg, runnerLog)

	rep, faults := r.Run(ctx)

	if err := writeReport(rep, cfg.OutputFile, log); err != nil {
		faults.Record(err)
	}

	if faults.HasAny() {
		log.Errorf("Scan completed with errors")
		for _, ferr := range faults.All() {
			log.Debugf("fault: %v", ferr)
		}
		return errRunFlagged
	}

	log.Infof("Scan completed successfully")
	return nil
}

func writeReport(rep *report.RunReport, path string, log *logging.Logger) error {
	if err := rep.Write(path); err != nil {
		log.Errorf("Failed to write report: %v", err)
		return err
	}
	log.Infof("Report written to %s", path)
	return nil
}
