package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"solhype/internal/domain"
	"solhype/internal/history"
	"solhype/internal/provider"
	"solhype/internal/ranking"
	"solhype/internal/scoring"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
)

type tokenSource interface {
	FetchRecent(ctx context.Context, limit int) ([]domain.TokenRecord, error)
	FetchByMint(ctx context.Context, mint string) (domain.TokenRecord, error)
}

var newSourceFunc = func(baseURL string, timeout time.Duration) tokenSource {
	return provider.NewJupiterProvider(trace.NewNoopTracerProvider().Tracer("scan"), provider.JupiterOptions{
		BaseURL: baseURL,
		Timeout: timeout,
	})
}

type rootOptions struct {
	baseURL string
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "scan",
		Short:         "Score Solana tokens from the command line",
		Long:          "scan fetches recent Jupiter listings, scores them with the same rules as the server, and inspects persisted history.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.baseURL, "base-url", provider.DefaultJupiterBaseURL, "Jupiter API base URL")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", provider.DefaultTimeout, "Provider request timeout")

	root.AddCommand(newRankCmd(opts), newAnalyzeCmd(opts), newHistoryCmd())
	return root
}

func newRankCmd(opts *rootOptions) *cobra.Command {
	var limit, top int
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank the most recent listings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			src := newSourceFunc(opts.baseURL, opts.timeout)
			records, err := src.FetchRecent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			ranked := ranking.Top(ranking.Rank(records), top)
			if len(ranked) == 0 {
				return fmt.Errorf("rank %d records: %w", len(records), domain.ErrNoResults)
			}
			printRanked(cmd.OutOrStdout(), ranked)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Number of recent listings to fetch")
	cmd.Flags().IntVar(&top, "top", 10, "Number of ranked tokens to print")
	return cmd
}

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <mint>",
		Short: "Score one token by mint address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mint := args[0]
			if !provider.IsMintAddress(mint) {
				return fmt.Errorf("invalid mint address: %s", mint)
			}
			rec, err := newSourceFunc(opts.baseURL, opts.timeout).FetchByMint(cmd.Context(), mint)
			if err != nil {
				return err
			}
			if err := ranking.Validate(rec); err != nil {
				return err
			}
			printAnalysis(cmd.OutOrStdout(), scoring.Score(rec))
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	var backend, path, sqlitePath, key string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show a persisted best-token record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var b history.Backend
			switch backend {
			case "file":
				b = history.NewFileBackend(path)
			case "sqlite":
				sb, err := history.NewSQLiteBackend(sqlitePath)
				if err != nil {
					return err
				}
				defer sb.Close()
				b = sb
			default:
				return fmt.Errorf("unsupported backend %q (file, sqlite)", backend)
			}

			store := history.NewStore(b, key, trace.NewNoopTracerProvider().Tracer("scan"))
			h, err := store.Load(cmd.Context())
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), h)
			return nil
		},
	}
	cmd.Flags().StringVar(&backend, "backend", "file", "History backend (file, sqlite)")
	cmd.Flags().StringVar(&path, "path", "data", "Directory of the file backend")
	cmd.Flags().StringVar(&sqlitePath, "sqlite-path", "data/solhype.db", "Database of the sqlite backend")
	cmd.Flags().StringVar(&key, "key", "discovery", "Record key")
	return cmd
}

func printRanked(out io.Writer, tokens []domain.ScoredToken) {
	table := tablewriter.NewWriter(out)
	table.Header("#", "Symbol", "Name", "Score", "Sentiment", "Risk", "Mcap", "Volume 24h", "Mint")
	for i, t := range tokens {
		table.Append(
			strconv.Itoa(i+1),
			t.Symbol,
			t.Name,
			strconv.Itoa(t.Score),
			string(t.Sentiment),
			string(t.Risk),
			"$"+scoring.FormatUSD(t.MarketCap),
			"$"+scoring.FormatUSD(t.Volume24h),
			t.Mint,
		)
	}
	table.Render()
}

func printAnalysis(out io.Writer, t domain.ScoredToken) {
	fmt.Fprintf(out, "%s ($%s) %d/100 %s, risk %s\n", t.Name, t.Symbol, t.Score, t.Sentiment, t.Risk)
	table := tablewriter.NewWriter(out)
	table.Header("#", "Factor")
	for i, f := range t.Factors {
		table.Append(strconv.Itoa(i+1), f)
	}
	table.Render()
	fmt.Fprintln(out, t.Analysis)
}

func printHistory(out io.Writer, h domain.AnalysisHistory) {
	if h.BestToken == nil {
		fmt.Fprintln(out, "No analysis recorded yet.")
		return
	}
	fmt.Fprintf(out, "Last analysis: %s (%s)\n", h.LastAnalysis.UTC().Format(time.RFC3339), humanize.Time(h.LastAnalysis))

	table := tablewriter.NewWriter(out)
	table.Header("", "Symbol", "Name", "Score", "Analyzed", "Mint")
	rows := append([]domain.AnalysisEntry{*h.BestToken}, h.PreviousAnalyses...)
	for i, e := range rows {
		marker := ""
		if i == 0 {
			marker = "best"
		}
		table.Append(marker, e.Symbol, e.Name, strconv.Itoa(e.Score), humanize.Time(e.AnalyzedAt), e.Mint)
	}
	table.Render()
}
