package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/lotscan/lotscan"
	"github.com/lotscan/lotscan/gemini"
	"github.com/lotscan/lotscan/gjson"
	"github.com/lotscan/lotscan/goquery"
	"github.com/lotscan/lotscan/htmltomarkdown"
	lotscanhttp "github.com/lotscan/lotscan/http"
	"github.com/lotscan/lotscan/rod"
	"github.com/lotscan/lotscan/scrape"
	lotscanslog "github.com/lotscan/lotscan/slog"
	"github.com/lotscan/lotscan/sqlite"
	"google.golang.org/genai"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path override. Takes precedence over the config file
	// when set; used by end-to-end tests.
	DBPath string

	// SQLite database used by the pattern cache.
	DB *sqlite.DB

	// Browser is set when the command needs Chrome.
	Browser lotscan.Browser
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.Browser != nil {
		if err := m.Browser.Close(); err != nil {
			return err
		}
	}
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("lotscan"),
		kong.Description("Turns dealership websites into normalized vehicle records."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'lotscan --help' to see available commands")
	}
	if cmd := args[0]; cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	cmd := kongCtx.Command()

	cfg, err := LoadConfig(cli.Config)
	if err != nil {
		return err
	}
	if m.DBPath != "" {
		cfg.DBPath = m.DBPath
	}
	deps.Config = cfg

	level, err := cfg.slogLevel()
	if err != nil {
		return err
	}
	deps.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	// Open database
	m.DB = sqlite.NewDB(cfg.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set db_path in %s to use a different database path\n", DefaultConfigFile)
		return fmt.Errorf("failed to open database at %q: %w", cfg.DBPath, err)
	}
	defer m.Close()

	patterns := sqlite.NewPatternService(m.DB, sqlite.WithAlpha(cfg.SuccessAlpha))
	deps.Patterns = lotscanslog.NewLoggingPatternService(patterns, deps.Logger)
	deps.Lister = patterns

	// The browser and model client are only started for commands that
	// actually scrape.
	if cmd == "serve" || strings.HasPrefix(cmd, "scrape") {
		browser, err := rod.NewBrowser(rod.WithMaxPages(cfg.BrowserMaxPages))
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed")
			return fmt.Errorf("failed to start browser: %w", err)
		}
		m.Browser = browser
		deps.Browser = browser
		deps.Scraper = buildScraper(ctx, cfg, deps.Logger, browser, deps.Patterns, stderr)
	}

	return kongCtx.Run(deps)
}

// buildScraper wires the tier ladder and the multi-page runner. The
// vision tier is skipped when no Gemini API key is configured.
func buildScraper(
	ctx context.Context,
	cfg *Config,
	logger *slog.Logger,
	browser lotscan.Browser,
	patterns lotscan.PatternService,
	stderr io.Writer,
) lotscan.Scraper {
	var vision lotscan.VisionExtractor
	if key := cfg.APIKey(); key != "" {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			fmt.Fprintf(stderr, "Gemini client unavailable, vision tier disabled: %s\n", err)
		} else {
			vision = gemini.NewVisionExtractor(client, htmltomarkdown.NewConverter())
		}
	} else {
		logger.Warn("no Gemini API key configured, vision tier disabled")
	}

	extractor := scrape.NewExtractor(
		browser,
		patterns,
		gjson.NewExtractor(),
		goquery.NewStructuredExtractor(),
		goquery.NewSelectorDiscovery(),
		vision,
		scrape.WithCatalogProbe(lotscanhttp.NewCatalogProbe(nil)),
	)

	runner := scrape.NewRunner(extractor,
		scrape.WithLocator(lotscanhttp.NewInventoryService(nil)),
		scrape.WithLimiter(scrape.NewDomainLimiter(cfg.RequestsPerSecond)),
		scrape.WithConcurrency(cfg.PageConcurrency),
	)

	return lotscanslog.NewLoggingScraper(runner, logger)
}

func defaultDBPath() string {
	if path := os.Getenv("LOTSCAN_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "lotscan.db"
	}
	dir := filepath.Join(home, ".lotscan")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "lotscan.db")
}
