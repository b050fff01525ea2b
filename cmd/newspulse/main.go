// NewsPulse: comparative sentiment analysis of company news coverage.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/newspulse/api"
	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/internal/dashboard"
	"github.com/seenimoa/newspulse/internal/logging"
	"github.com/seenimoa/newspulse/internal/pipeline"
	"github.com/seenimoa/newspulse/internal/report"
	"github.com/seenimoa/newspulse/internal/scheduler"
	"github.com/seenimoa/newspulse/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger, populated by the root command.
var (
	cfg    *config.Config
	logger *slog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "newspulse",
	Short: "NewsPulse: comparative sentiment analysis of company news",
	Long: `NewsPulse fetches recent news articles about a company, summarises
and scores each one, compares the coverage across articles and
produces a verdict with an optional spoken narration.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Logging.Level = level
		}
		logger = logging.Setup(cfg.Logging)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("NewsPulse %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [company]",
	Short: "Analyse recent news coverage of a company",
	Long: `Fetch up to --articles recent articles about the company, annotate
each one, compare them and print the report. Use --json for the
reference payload, --html or --pdf to write a report file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		company := strings.Join(args, " ")
		articles, _ := cmd.Flags().GetInt("articles")
		asJSON, _ := cmd.Flags().GetBool("json")
		htmlOut, _ := cmd.Flags().GetString("html")
		pdfOut, _ := cmd.Flags().GetString("pdf")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, err := pipeline.NewFromConfig(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer svc.Close()

		if !asJSON {
			fmt.Printf("🔍 Analyzing %s (%s, %s)\n", utils.NormalizeCompany(company), svc.SourceName(), svc.AnnotatorName())
		}
		res, err := svc.RunDetailed(ctx, pipeline.Request{
			Company:  company,
			Articles: articles,
			OnProgress: func(ev pipeline.Progress) {
				if !asJSON {
					fmt.Printf("   [%3d%%] %s\n", ev.Percent, ev.Message)
				}
			},
		})
		if err != nil {
			return err
		}
		rep := res.Report

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report.NewPayload(rep)); err != nil {
				return fmt.Errorf("encoding payload: %w", err)
			}
		} else {
			text, err := report.GenerateText(rep, report.DefaultConfig())
			if err != nil {
				return err
			}
			fmt.Print(text)
			fmt.Printf("   %d fetched, %d dropped, %s\n", res.Fetched, res.Dropped, utils.FormatElapsed(res.Timings.Total))
		}

		if htmlOut == "" && pdfOut == "" {
			return nil
		}
		page, err := report.GenerateHTML(rep, report.DefaultConfig())
		if err != nil {
			return err
		}
		if htmlOut != "" {
			if err := os.WriteFile(htmlOut, []byte(page), 0o644); err != nil {
				return fmt.Errorf("writing html report: %w", err)
			}
			fmt.Fprintf(os.Stderr, "📄 HTML report written to %s\n", htmlOut)
		}
		if pdfOut != "" {
			written, err := report.ExportPDF(ctx, page, report.DefaultPDFConfig(pdfOut))
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "📄 Report written to %s\n", written)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().IntP("articles", "n", 0, "number of articles to analyse (0 = configured default)")
	analyzeCmd.Flags().Bool("json", false, "print the report payload as JSON")
	analyzeCmd.Flags().String("html", "", "write an HTML report to this path")
	analyzeCmd.Flags().String("pdf", "", "write a PDF report to this path (falls back to HTML)")
}

// --- Batch Command ---

var batchCmd = &cobra.Command{
	Use:   "batch [company...]",
	Short: "Analyse several companies, or the configured watchlist",
	RunE: func(cmd *cobra.Command, args []string) error {
		articles, _ := cmd.Flags().GetInt("articles")
		workers, _ := cmd.Flags().GetInt("workers")
		companies := args
		if len(companies) == 0 {
			companies = cfg.Watchlist.Companies
		}
		if len(companies) == 0 {
			return scheduler.ErrEmptyWatchlist
		}
		if articles == 0 {
			articles = cfg.Watchlist.Articles
		}
		if workers == 0 {
			workers = cfg.Analysis.BatchWorkers
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, err := pipeline.NewFromConfig(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer svc.Close()

		start := time.Now()
		results := svc.RunBatch(ctx, companies, articles, workers)
		failed := 0
		for company, r := range results {
			if r.Err != nil {
				failed++
				fmt.Printf("  ❌ %-24s %v\n", company, r.Err)
				continue
			}
			fmt.Printf("  ✅ %-24s %s\n", company, r.Report.Verdict)
		}
		fmt.Printf("\n%d companies, %d failed, %s\n", len(results), failed, utils.FormatElapsed(time.Since(start)))
		if failed == len(results) {
			return fmt.Errorf("all %d analyses failed", failed)
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().IntP("articles", "n", 0, "articles per company (0 = watchlist default)")
	batchCmd.Flags().IntP("workers", "w", 0, "concurrent companies (0 = configured default)")
}

// --- Dashboard Command ---

var dashboardCmd = &cobra.Command{
	Use:   "dashboard [company]",
	Short: "Open the interactive terminal dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		articles, _ := cmd.Flags().GetInt("articles")
		company := strings.Join(args, " ")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Log lines would corrupt the alternate screen.
		quiet := logging.Discard()
		svc, err := pipeline.NewFromConfig(ctx, cfg, quiet)
		if err != nil {
			return err
		}
		defer svc.Close()

		return dashboard.Run(ctx, svc, company, articles)
	},
}

func init() {
	dashboardCmd.Flags().IntP("articles", "n", dashboard.DefaultArticles, "initial article count")
}

// --- Serve Command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server and web dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		noUI, _ := cmd.Flags().GetBool("no-ui")
		noWatch, _ := cmd.Flags().GetBool("no-watchlist")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, err := pipeline.NewFromConfig(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer svc.Close()

		srv := api.NewServer(cfg, svc, logger)
		srv.SetServeUI(!noUI)

		if len(cfg.Watchlist.Companies) > 0 && !noWatch {
			sch, err := scheduler.New(svc, cfg.Watchlist, cfg.Analysis.BatchWorkers, logger)
			if err != nil {
				return err
			}
			sch.Start()
			defer sch.Stop()
			srv.SetScheduler(sch)
		}

		addr := api.Addr(cfg.API)
		fmt.Printf("🌐 Starting NewsPulse API server on %s\n", addr)
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().Bool("no-ui", false, "serve the API only, without the web dashboard")
	serveCmd.Flags().Bool("no-watchlist", false, "do not schedule watchlist analyses")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  NewsPulse: System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Printf("  Time (IST):    %s\n", utils.FormatDateTimeIST(utils.NowIST()))
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    Source:        %s\n", cfg.Source.Provider)
		fmt.Printf("    Annotator:     %s\n", cfg.Annotation.Provider)
		fmt.Printf("    LLM Provider:  %s (model: %s)\n", cfg.LLM.Primary, cfg.LLM.Model)
		narr := "disabled"
		if cfg.Narration.Enabled {
			narr = fmt.Sprintf("%s (%s store)", cfg.Narration.Locale, cfg.Narration.Store)
		}
		fmt.Printf("    Narration:     %s\n", narr)
		fmt.Printf("    Storage:       %s\n", cfg.Storage.Backend)
		fmt.Printf("    Articles:      default %d, max %d\n", cfg.Analysis.DefaultArticles, cfg.Analysis.MaxArticles)
		if len(cfg.Watchlist.Companies) > 0 {
			fmt.Printf("    Watchlist:     %s (%s)\n", strings.Join(cfg.Watchlist.Companies, ", "), cfg.Watchlist.Schedule)
		} else {
			fmt.Println("    Watchlist:     empty")
		}
		fmt.Printf("    API Server:    %s\n", api.Addr(cfg.API))
		fmt.Printf("    PDF Engine:    %s\n", report.DetectPDFEngine())
		fmt.Println()

		fmt.Println("  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}

		if ping, _ := cmd.Flags().GetBool("ping"); ping {
			fmt.Println()
			fmt.Println("  LLM Providers:")
			pingLLM(cmd.Context())
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

func init() {
	statusCmd.Flags().Bool("ping", false, "check that configured LLM providers respond")
}

func pingLLM(ctx context.Context) {
	svc, err := pipeline.NewFromConfig(ctx, cfg, logging.Discard())
	if err != nil {
		fmt.Printf("    ❌ %v\n", err)
		return
	}
	defer svc.Close()
	if svc.Router == nil {
		fmt.Println("    none configured")
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	for name, err := range svc.Router.HealthCheck(ctx) {
		if err != nil {
			fmt.Printf("    %-12s ❌ %v\n", name, err)
			continue
		}
		fmt.Printf("    %-12s ✅ ok\n", name)
	}
}
