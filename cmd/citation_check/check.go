package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AI-Template-SDK/story-citations/internal/citation"
	"github.com/AI-Template-SDK/story-citations/internal/config"
	"github.com/AI-Template-SDK/story-citations/internal/logging"
	"github.com/AI-Template-SDK/story-citations/internal/providers"
)

type checkOptions struct {
	title        string
	contentFile  string
	responseFile string
	query        string
	websites     []string
	live         bool
}

// checkOutput is what the command prints.
type checkOutput struct {
	Input    citation.Input    `json:"input"`
	Model    string            `json:"model,omitempty"`
	Result   citation.Result   `json:"result"`
	Sources  []citation.Source `json:"sources"`
	CostUSD  float64           `json:"cost_usd,omitempty"`
	Response string            `json:"-"`
}

// searchFunc answers a query with a live model response.
type searchFunc func(ctx context.Context, query string) (*providers.AIResponse, string, error)

func newRootCmd() *cobra.Command {
	return newCheckCmd(liveSearch)
}

func newCheckCmd(search searchFunc) *cobra.Command {
	opts := &checkOptions{}
	cmd := &cobra.Command{
		Use:   "citation_check",
		Short: "Detect whether an LLM response cites a story",
		Long:  "Runs story citation detection on a response read from a file, or fetched live from the configured LLM with --live, and prints the result and classified sources as JSON.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := runCheck(cmd.Context(), opts, search)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVarP(&opts.title, "title", "t", "", "Story title (required)")
	cmd.Flags().StringVarP(&opts.contentFile, "content-file", "c", "", "Path to the story content")
	cmd.Flags().StringVarP(&opts.responseFile, "response-file", "r", "", "Path to the LLM response to check")
	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "Query that produced the response")
	cmd.Flags().StringSliceVarP(&opts.websites, "website", "w", nil, "Story website used to mark primary sources (repeatable)")
	cmd.Flags().BoolVar(&opts.live, "live", false, "Send --query to the configured LLM instead of reading --response-file")

	if err := cmd.MarkFlagRequired("title"); err != nil {
		panic(fmt.Sprintf("failed to mark title flag as required: %v", err))
	}
	return cmd
}

func runCheck(ctx context.Context, opts *checkOptions, search searchFunc) (*checkOutput, error) {
	var content string
	if opts.contentFile != "" {
		b, err := os.ReadFile(opts.contentFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read content file %s: %w", opts.contentFile, err)
		}
		content = string(b)
	}

	out := &checkOutput{}
	switch {
	case opts.live:
		if strings.TrimSpace(opts.query) == "" {
			return nil, fmt.Errorf("--live requires --query")
		}
		resp, model, err := search(ctx, opts.query)
		if err != nil {
			return nil, fmt.Errorf("live search failed: %w", err)
		}
		out.Response = resp.Response
		out.Model = model
		out.CostUSD = resp.Cost
	case opts.responseFile != "":
		b, err := os.ReadFile(opts.responseFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read response file %s: %w", opts.responseFile, err)
		}
		out.Response = string(b)
	default:
		return nil, fmt.Errorf("either --response-file or --live is required")
	}

	out.Input = citation.Input{Title: opts.title, Content: content, Query: opts.query}
	out.Result = citation.NewDetector().Detect(citation.Input{
		Title:    opts.title,
		Content:  content,
		Query:    opts.query,
		Response: out.Response,
	})
	out.Sources = citation.ClassifySources(out.Result.SourceURLs, opts.websites)
	if out.Sources == nil {
		out.Sources = []citation.Source{}
	}
	return out, nil
}

func liveSearch(ctx context.Context, query string) (*providers.AIResponse, string, error) {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.Environment)

	inner, err := providers.NewProvider(cfg.LLM.Model, cfg, providers.NewCostService())
	if err != nil {
		return nil, "", err
	}
	provider := providers.NewResilientProvider(inner, providers.ResilienceOptions{
		Timeout:         cfg.LLM.Timeout,
		MaxRetries:      cfg.LLM.MaxRetries,
		RateLimitRPS:    cfg.LLM.RateLimitRPS,
		BreakerFailures: cfg.LLM.BreakerFailures,
		Logger:          logger,
	})

	resp, err := provider.Search(ctx, query)
	if err != nil {
		return nil, "", err
	}
	return resp, provider.GetProviderName() + "/" + provider.GetModelName(), nil
}
