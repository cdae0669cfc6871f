package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/deusflow/headlines/internal/app"
	"github.com/deusflow/headlines/internal/news"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch and cluster headlines for a category",
	Long:  "Fetch headlines for a category, merge duplicate stories and print the result as JSON.",
	RunE:  runPipeline,
}

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Cluster articles from a JSON file",
	Long:  "Read a JSON array of articles (title, source, description, url) and print the merged stories.",
	RunE:  runCluster,
}

// Flags
var (
	runCategory string
	runPublish  bool
	clusterFile string
)

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(clusterCmd)

	runCmd.Flags().StringVar(&runCategory, "category", "", "News category (default from NEWS_CATEGORY)")
	runCmd.Flags().BoolVar(&runPublish, "publish", false, "Send the digest to Telegram")

	clusterCmd.Flags().StringVar(&clusterFile, "file", "-", "Path to the articles JSON file, - for stdin")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	category := runCategory
	if category == "" {
		category = globalConfig.DefaultCategory
	}

	p := globalServices.pipeline
	res := p.Run(cmd.Context(), category)

	if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
		return err
	}
	if res.Error != "" {
		return errors.New(res.Error)
	}

	if runPublish {
		if err := p.Publish(cmd.Context(), res); err != nil {
			return fmt.Errorf("failed to publish: %w", err)
		}
	}
	return nil
}

func runCluster(cmd *cobra.Command, args []string) error {
	var r io.Reader = cmd.InOrStdin()
	if clusterFile != "-" {
		f, err := os.Open(clusterFile)
		if err != nil {
			return fmt.Errorf("failed to open articles: %w", err)
		}
		defer f.Close()
		r = f
	}

	var articles []news.RawArticle
	if err := json.NewDecoder(r).Decode(&articles); err != nil {
		return fmt.Errorf("failed to decode articles: %w", err)
	}

	return clusterArticles(cmd.Context(), globalServices.clusterer, articles, cmd.OutOrStdout())
}

// clusterArticles prints the result envelope. A clustering failure is printed
// in the envelope and also returned so the process exits non-zero.
func clusterArticles(ctx context.Context, c app.Clusterer, articles []news.RawArticle, w io.Writer) error {
	merged, err := c.Cluster(ctx, news.FilterValid(articles))
	if err != nil {
		res := news.Result{
			NewsArticles: []news.MergedArticle{},
			Error:        fmt.Sprintf("Failed to fetch news: %v", err),
		}
		if werr := writeJSON(w, res); werr != nil {
			return werr
		}
		return errors.New(res.Error)
	}
	return writeJSON(w, news.Result{NewsArticles: merged})
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
