package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/upb/rag-service/app"
	"github.com/upb/rag-service/config"
	"github.com/upb/rag-service/internal/rag"
)

type retrieveOptions struct {
	query    string
	topK     int
	dataPath string
	maxDocs  int
	asJSON   bool
	quiet    bool
}

func newRetrieveCommand() *cobra.Command {
	opts := &retrieveOptions{}

	cmd := &cobra.Command{
		Use:   "retrieve",
		Short: "Build the index locally and show what a query retrieves",
		Long: `Loads the dataset and embedding backend from the same environment the
service uses, embeds every passage and prints the top-k contexts for a query
together with their dot-product scores.

Examples:
  ragctl retrieve -q "Who is Einstein?"
  ragctl retrieve -q "relativity" -k 5 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRetrieve(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "query text (required)")
	cmd.Flags().IntVarP(&opts.topK, "top-k", "k", 3, "number of contexts")
	cmd.Flags().StringVar(&opts.dataPath, "data", "", "dataset path (default DATA_PATH)")
	cmd.Flags().IntVar(&opts.maxDocs, "max-docs", -1, "passages to index, 0 for all (default INDEX_MAX_DOCUMENTS)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "output as JSON")
	cmd.Flags().BoolVar(&opts.quiet, "quiet", false, "hide the progress bar")
	_ = cmd.MarkFlagRequired("query")
	return cmd
}

type retrieveResult struct {
	Rank  int     `json:"rank"`
	ID    int     `json:"id"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}

func runRetrieve(ctx context.Context, out, progressOut io.Writer, opts *retrieveOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.New(ctx)
	if err != nil {
		return err
	}
	if opts.dataPath != "" {
		cfg.Index.DataPath = opts.dataPath
	}
	if opts.maxDocs >= 0 {
		cfg.Index.MaxDocuments = opts.maxDocs
	}

	embedder, err := app.NewEmbedder(cfg.Embedding)
	if err != nil {
		return err
	}

	docs, err := rag.LoadSQuAD(cfg.Index.DataPath, cfg.Index.MaxDocuments)
	if err != nil {
		return err
	}

	var bar *progressbar.ProgressBar
	buildOpts := rag.BuildOptions{BatchSize: cfg.Index.BatchSize}
	if !opts.quiet {
		buildOpts.Progress = func(done, total int) {
			if bar == nil {
				bar = newProgressBar(progressOut, total)
			}
			_ = bar.Set(done)
		}
	}

	idx, err := rag.Build(ctx, docs, embedder, buildOpts)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if bar != nil {
		_ = bar.Finish()
	}

	hits, err := idx.Search(ctx, opts.query, opts.topK)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	results := make([]retrieveResult, len(hits))
	for i, h := range hits {
		results[i] = retrieveResult{Rank: i + 1, ID: h.ID, Title: h.Title, Score: h.Score, Text: h.Text}
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	fmt.Fprintf(out, "Query: %s (%d of %d passages)\n", opts.query, len(results), idx.Len())
	for _, r := range results {
		fmt.Fprintf(out, "%d. [%.4f] %s\n", r.Rank, r.Score, r.Title)
		fmt.Fprintf(out, "   %s\n", oneLine(r.Text))
	}
	return nil
}

func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
