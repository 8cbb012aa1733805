package main

import (
	"github.com/spf13/cobra"
)

var companyCmd = &cobra.Command{
	Use:   "company <symbol>",
	Short: "Show the company overview for a symbol",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompany,
}

func init() {
	rootCmd.AddCommand(companyCmd)
}

func runCompany(cmd *cobra.Command, args []string) error {
	a, log, err := bootstrap(cmd.Context())
	if log != nil {
		defer log.Sync()
	}
	if err != nil {
		return err
	}

	ctx, cancel := a.WithTimeout(cmd.Context())
	defer cancel()

	overview, err := a.Dashboard().CompanyOverview(ctx, args[0])
	if err != nil {
		return explain(err)
	}
	renderCompany(cmd.OutOrStdout(), overview)
	return nil
}
