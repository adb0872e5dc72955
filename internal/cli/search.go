package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/linkaudit/internal/audit"
	"github.com/MrSnakeDoc/linkaudit/internal/domain"
	"github.com/MrSnakeDoc/linkaudit/internal/export"
	"github.com/MrSnakeDoc/linkaudit/internal/logger"
	"github.com/MrSnakeDoc/linkaudit/internal/probe"
	"github.com/MrSnakeDoc/linkaudit/internal/search"
	"github.com/MrSnakeDoc/linkaudit/internal/session"
	"github.com/MrSnakeDoc/linkaudit/internal/sources/secrets"
)

type searchOptions struct {
	domain       string
	mode         string
	query        string
	count        int
	probe        bool
	output       string
	secretsFile  string
	baseURL      string
	pageDelay    time.Duration
	probeTimeout time.Duration
}

func newSearchCommand(logLevel *string) *cobra.Command {
	opts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find pages referencing a domain",
		Example: `  linkaudit-cli search --domain example.com
  linkaudit-cli search --domain example.com --mode link --count 30 --probe --output refs.csv
  linkaudit-cli search --mode custom --query '"example.com" -site:example.com' --output refs.ndjson`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSearch(cmd, opts, logger.NewCLI(*logLevel))
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.domain, "domain", "d", "", "domain to audit")
	f.StringVarP(&opts.mode, "mode", "m", string(domain.ModeExact), "query mode: exact, link or custom")
	f.StringVarP(&opts.query, "query", "q", "", "query text sent verbatim (custom mode)")
	f.IntVarP(&opts.count, "count", "n", audit.DefaultCount, "target number of results (10-100, rounded up to a multiple of 10)")
	f.BoolVar(&opts.probe, "probe", false, "probe every result and record its HTTP status")
	f.StringVarP(&opts.output, "output", "o", "", "export file, format taken from the extension (.csv, .ndjson)")
	f.StringVar(&opts.secretsFile, "secrets", os.Getenv("LINKAUDIT_SECRETS_FILE"), "YAML secrets file overriding the environment credentials")
	f.StringVar(&opts.baseURL, "base-url", envOr("LINKAUDIT_SEARCH_BASE_URL", "https://www.googleapis.com"), "search API base URL")
	f.DurationVar(&opts.pageDelay, "page-delay", search.DefaultPageDelay, "pause before each provider call (negative disables)")
	f.DurationVar(&opts.probeTimeout, "probe-timeout", probe.DefaultTimeout, "timeout for each probe request")
	_ = f.MarkHidden("base-url")

	return cmd
}

func runSearch(cmd *cobra.Command, opts *searchOptions, log logger.Logger) error {
	defer func() { _ = log.Sync() }()
	ctx := cmd.Context()
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	mode, err := domain.ParseSearchMode(opts.mode)
	if err != nil {
		return err
	}

	// Fail on a bad output path before spending any quota.
	var format export.Format
	if opts.output != "" {
		if format, err = export.FormatFromPath(opts.output); err != nil {
			return err
		}
	}

	holder, err := loadCredentials(opts.secretsFile)
	if err != nil {
		return err
	}

	svc := audit.New(audit.Config{
		Store:         session.NewMemoryStore(),
		Credentials:   holder,
		Prober:        probe.New(probe.WithTimeout(opts.probeTimeout)),
		Logger:        log,
		SearchBaseURL: opts.baseURL,
		PageDelay:     opts.pageDelay,
	})

	res, err := svc.Search(ctx, audit.SearchRequest{
		Domain: opts.domain,
		Mode:   mode,
		Query:  opts.query,
		Count:  opts.count,
	}, newProgressPrinter(errOut))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if res.Session == nil {
		fmt.Fprintf(errOut, "⚠️  no results found for %s (%s)\n", res.Query, res.Termination)
		return nil
	}
	sess := res.Session

	var probeErr error
	if opts.probe {
		var probed *domain.Session
		probed, probeErr = svc.Probe(ctx, sess.ID, printProbe(errOut))
		if probed != nil {
			sess = probed
		}
	}

	renderRecords(out, sess.Records)
	printSummary(out, sess, res.Termination)

	if opts.output != "" {
		if err := writeExport(opts.output, format, sess.Records); err != nil {
			return err
		}
		fmt.Fprintf(errOut, "📄 exported %d records to %s\n", len(sess.Records), opts.output)
	}

	if probeErr != nil {
		return fmt.Errorf("probe interrupted: %w", probeErr)
	}
	return nil
}

// loadCredentials reads the environment and lets the secrets file, when
// given, override it.
func loadCredentials(secretsFile string) (*secrets.Holder, error) {
	holder := secrets.NewHolder(domain.Credentials{
		APIKey:   os.Getenv("LINKAUDIT_GOOGLE_API_KEY"),
		EngineID: os.Getenv("LINKAUDIT_SEARCH_ENGINE_ID"),
	})
	if secretsFile == "" {
		return holder, nil
	}

	creds, err := secrets.NewLoader(secretsFile).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load secrets: %w", err)
	}
	holder.SetFromFile(creds)
	return holder, nil
}

func writeExport(path string, format export.Format, records []domain.ResultRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := export.Write(f, format, records); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write export: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
