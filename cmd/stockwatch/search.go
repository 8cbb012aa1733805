package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Resolve a company name or ticker to a symbol",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

var searchNameOnly bool

func init() {
	searchCmd.Flags().BoolVarP(&searchNameOnly, "name", "n", false, "print only the provider's best-match company name")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, log, err := bootstrap(cmd.Context())
	if log != nil {
		defer log.Sync()
	}
	if err != nil {
		return err
	}

	query := strings.Join(args, " ")
	ctx, cancel := a.WithTimeout(cmd.Context())
	defer cancel()

	if searchNameOnly {
		name, err := a.Resolver().ResolveCompanyName(ctx, query)
		if err != nil {
			return explain(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), name)
		return nil
	}

	match, err := a.Resolver().Resolve(ctx, query)
	if err != nil {
		return explain(err)
	}

	if match.Name == "" {
		fmt.Fprintln(cmd.OutOrStdout(), match.Symbol)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", match.Symbol, match.Name)
	return nil
}
