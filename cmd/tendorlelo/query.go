package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Dev7-web/tendorlelo/internal/domain/search/filter"
	"github.com/Dev7-web/tendorlelo/internal/domain/search/request"
)

var searchCmd = &cobra.Command{
	Use:   "search <company-id>",
	Short: "Rank eligible tenders for a company",
	Long:  "Scores every eligible tender against the company profile and prints the ranked results as JSON. The search is recorded in the company's history.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var matchCmd = &cobra.Command{
	Use:   "match <tender-id>",
	Short: "Rank companies for a tender",
	Args:  cobra.ExactArgs(1),
	RunE:  runMatch,
}

var expireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Mark tenders past their end date as expired",
	Args:  cobra.NoArgs,
	RunE:  runExpire,
}

var (
	searchQuery    string
	searchDomains  []string
	searchCerts    []string
	searchMinValue float64
	searchMaxValue float64
	searchLimit    int
	matchLimit     int
)

func init() {
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "Free-text query to embed instead of the profile summary")
	searchCmd.Flags().StringSliceVar(&searchDomains, "domain", nil, "Only tenders in these domains (repeatable)")
	searchCmd.Flags().StringSliceVar(&searchCerts, "cert", nil, "Only tenders requiring these certifications (repeatable)")
	searchCmd.Flags().Float64Var(&searchMinValue, "min-value", 0, "Minimum estimated tender value")
	searchCmd.Flags().Float64Var(&searchMaxValue, "max-value", 0, "Maximum estimated tender value")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", request.DefaultLimit, "Maximum number of results")

	matchCmd.Flags().IntVarP(&matchLimit, "limit", "n", request.DefaultMatchLimit, "Maximum number of companies")

	rootCmd.AddCommand(searchCmd, matchCmd, expireCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	f := filter.Filters{Domains: searchDomains, RequiredCertifications: searchCerts}
	if cmd.Flags().Changed("min-value") {
		f.MinValue = &searchMinValue
	}
	if cmd.Flags().Changed("max-value") {
		f.MaxValue = &searchMaxValue
	}
	req, err := request.New(args[0], searchQuery, f, searchLimit)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), envName)
	if err != nil {
		return err
	}
	defer a.close()

	resp, err := a.search.SearchTenders(a.context(cmd.Context()), req)
	if err != nil {
		return fmt.Errorf("search tenders: %w", err)
	}
	return printJSON(cmd.OutOrStdout(), resp)
}

func runMatch(cmd *cobra.Command, args []string) error {
	req, err := request.NewMatch(args[0], matchLimit)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), envName)
	if err != nil {
		return err
	}
	defer a.close()

	matches, err := a.search.MatchCompanies(a.context(cmd.Context()), req)
	if err != nil {
		return fmt.Errorf("match companies: %w", err)
	}
	return printJSON(cmd.OutOrStdout(), map[string]any{
		"tender_id": req.TenderID(),
		"matches":   matches,
		"total":     len(matches),
	})
}

func runExpire(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context(), envName)
	if err != nil {
		return err
	}
	defer a.close()

	n, err := a.catalog.ExpireOverdue(a.context(cmd.Context()), time.Now())
	if err != nil {
		return fmt.Errorf("expire tenders: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "expired %d tender(s)\n", n)
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
