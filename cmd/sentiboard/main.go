package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	datasetPath string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sentiboard",
		Short:         "Explore airline tweet sentiment results in a web dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	root.PersistentFlags().StringVar(&datasetPath, "dataset", "", "results document (.json) or archive (.db)")

	root.AddCommand(serveCmd())
	root.AddCommand(tweetsCmd())
	root.AddCommand(summaryCmd())
	root.AddCommand(importCmd())
	root.AddCommand(checkCmd())

	return root
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func tweetsCmd() *cobra.Command {
	var (
		sentiment  string
		start      string
		end        string
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "tweets",
		Short: "List tweets matching a sentiment and date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTweets(cmd.Context(), cmd.OutOrStdout(), tweetsOptions{
				Sentiment: sentiment,
				Start:     start,
				End:       end,
				Limit:     limit,
				JSON:      jsonOutput,
			})
		},
	}

	cmd.Flags().StringVar(&sentiment, "sentiment", "all", "sentiment label or all")
	cmd.Flags().StringVar(&start, "start", "", "first date, YYYY-MM-DD (default: earliest tweet)")
	cmd.Flags().StringVar(&end, "end", "", "last date, YYYY-MM-DD (default: latest tweet)")
	cmd.Flags().IntVar(&limit, "limit", 0, "max tweets to show (default: from config)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func summaryCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show the summary statistics and per-label counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(cmd.Context(), cmd.OutOrStdout(), jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func importCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy the results document into the SQLite archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), cmd.OutOrStdout(), dbPath)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "archive path (default: from config)")
	return cmd
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the dataset and its images",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), cmd.OutOrStdout())
		},
	}
}
