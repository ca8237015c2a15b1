package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"probs/internal/advisor"
	_ "probs/internal/engines/cdpengine"
	_ "probs/internal/engines/rodengine"
	"probs/internal/fetcher"
	"probs/internal/formatter"
	"probs/internal/probs"
	"probs/internal/squad"
)

var version = "dev"

// defaultURL is the player page probabilities were first read from
const defaultURL = "https://www.futbolfantasy.com/jugadores/jan-oblak"

var (
	selector     string
	timeout      time.Duration
	navTimeout   time.Duration
	engine       string
	outputFormat string
	outputFile   string
	showUI       bool
	noSandbox    bool
	userAgent    string
	proxyURL     string
	browserBin   string
	verbose      bool

	dataFile     string
	calendarFile string
	round        int
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "probs [URL]",
		Short:   "Print the rendered text of one element of a web page",
		Version: version,
		Long: `probs loads a page in a headless browser, waits for a CSS selector to
appear and prints the element's rendered text. By default it reads the start
probability (div.pct) of a futbolfantasy player page.`,
		Example: `  # Start probability of the default player
  probs

  # Another page and selector, as JSON
  probs -s "h1" -f json https://example.com/

  # Use chromedp instead of rod
  probs --engine chromedp https://www.futbolfantasy.com/jugadores/kubo

  # Recommend market players against their next fixtures
  probs market --data data.json --calendar calendar.json "Kubo" "Iñaki Peña"

  # Suggest a lineup for round 1
  probs lineup --round 1 --data data.json --calendar calendar.json "Courtois" "Isak"`,
		Args:              cobra.MaximumNArgs(1),
		RunE:              runFetch,
		PersistentPreRunE: setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&selector, "selector", "s", fetcher.DefaultSelector, "CSS selector of the element to read")
	pf.DurationVarP(&timeout, "timeout", "t", fetcher.DefaultTimeout, "How long to wait for the selector")
	pf.DurationVar(&navTimeout, "nav-timeout", fetcher.DefaultNavigationTimeout, "How long to wait for navigation and page load")
	pf.StringVar(&engine, "engine", fetcher.DefaultEngine, "Browser engine ("+strings.Join(fetcher.Engines(), ", ")+")")
	pf.StringVarP(&outputFormat, "format", "f", "text", "Output format ("+strings.Join(formatter.Formats, ", ")+")")
	pf.StringVarP(&outputFile, "output", "o", "", "Output file path (format inferred from extension if -f not specified)")
	pf.BoolVar(&showUI, "showui", false, "Show browser UI (disable headless mode)")
	pf.BoolVar(&noSandbox, "no-sandbox", false, "Disable the browser sandbox (needed when running as root in containers)")
	pf.StringVar(&userAgent, "user-agent", "", "Override the browser user agent")
	pf.StringVarP(&proxyURL, "proxy", "p", os.Getenv("PROBS_PROXY"), "Proxy URL (e.g. http://127.0.0.1:7890), defaults to PROBS_PROXY env var")
	pf.StringVar(&browserBin, "bin", os.Getenv("PROBS_BROWSER_BIN"), "Browser executable, defaults to PROBS_BROWSER_BIN env var")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newMarketCmd(), newLineupCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", describe(err))
		os.Exit(1)
	}
}

func newMarketCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "market PLAYER...",
		Short: "Recommend market players by start probability and fixture",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newAdvisor()
			if err != nil {
				return err
			}
			report, err := a.Market(cmd.Context(), args)
			if err != nil {
				return fmt.Errorf("failed to evaluate market: %w", err)
			}
			return write(report)
		},
	}
	addDataFlags(cmd)
	return cmd
}

func newLineupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lineup PLAYER...",
		Short: "Suggest an eleven for one round from your players",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newAdvisor()
			if err != nil {
				return err
			}
			report, err := a.Lineup(cmd.Context(), args, round)
			if err != nil {
				return fmt.Errorf("failed to build lineup: %w", err)
			}
			return write(report)
		},
	}
	addDataFlags(cmd)
	cmd.Flags().IntVar(&round, "round", 1, "Round (jornada) to build the lineup for")
	return cmd
}

func addDataFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&dataFile, "data", "data.json", "Roster file (JSON or YAML)")
	cmd.Flags().StringVar(&calendarFile, "calendar", "calendar.json", "Calendar file (JSON or YAML)")
}

// setup validates shared flags and attaches the logger to the command context
func setup(cmd *cobra.Command, args []string) error {
	// If output file is specified but format is not, infer format from file extension
	if outputFile != "" && !cmd.Flags().Changed("format") {
		if inferred := formatter.InferFromExtension(outputFile); inferred != "" {
			outputFormat = inferred
		}
	}
	if !formatter.Valid(outputFormat) {
		return fmt.Errorf("invalid output format: %s", outputFormat)
	}
	if _, ok := fetcher.Get(engine); !ok {
		return fmt.Errorf("unknown engine: %s", engine)
	}

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().Logger()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(log.WithContext(ctx))
	return nil
}

func newFetcher() (*fetcher.Fetcher, error) {
	return fetcher.New(engine, fetcher.LaunchOptions{
		Headless:  !showUI,
		NoSandbox: noSandbox,
		ProxyURL:  proxyURL,
		UserAgent: userAgent,
		Bin:       browserBin,
		Width:     1280,
		Height:    800,
	})
}

func runFetch(cmd *cobra.Command, args []string) error {
	target := defaultURL
	if len(args) == 1 {
		target = normalizeURL(args[0])
	}

	f, err := newFetcher()
	if err != nil {
		return err
	}

	result, err := f.Fetch(cmd.Context(), fetcher.Request{
		URL:               target,
		Selector:          selector,
		Timeout:           timeout,
		NavigationTimeout: navTimeout,
	})
	if err != nil {
		return err
	}
	return write(result)
}

func newAdvisor() (*advisor.Advisor, error) {
	roster, err := squad.LoadRoster(dataFile)
	if err != nil {
		return nil, err
	}
	calendar, err := squad.LoadCalendar(calendarFile)
	if err != nil {
		return nil, err
	}
	f, err := newFetcher()
	if err != nil {
		return nil, err
	}
	return advisor.New(roster, calendar, probs.NewSource(f, selector, timeout)), nil
}

// write formats content and prints it or saves it to --output
func write(content formatter.Content) error {
	out, err := formatter.Format(content, outputFormat)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(out), 0644); err != nil {
			return fmt.Errorf("failed to write to file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Output written to: %s\n", outputFile)
		return nil
	}
	fmt.Println(strings.TrimRight(out, "\n"))
	return nil
}

// describe prefixes fetch errors with their kind so "site down" and "page
// changed" are told apart
func describe(err error) string {
	switch kind := fetcher.Kind(err); kind {
	case "", "unknown":
		return err.Error()
	default:
		return kind + ": " + err.Error()
	}
}

// normalizeURL adds http:// when the URL has no scheme
func normalizeURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return rawURL
	}
	lower := strings.ToLower(rawURL)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") && !strings.HasPrefix(lower, "file://") {
		return "http://" + rawURL
	}
	return rawURL
}
