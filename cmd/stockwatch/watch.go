package main

import (
	"fmt"
	"strings"

	"github.com/newthinker/stockwatch/internal/watchlist"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Manage the watchlist",
}

var watchListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show watched symbols with current prices",
	RunE:  runWatchList,
}

var watchAddCmd = &cobra.Command{
	Use:   "add <query>",
	Short: "Resolve a query and watch the symbol",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runWatchAdd,
}

var watchRemoveCmd = &cobra.Command{
	Use:     "remove <symbol>",
	Aliases: []string{"rm"},
	Short:   "Stop watching a symbol",
	Args:    cobra.ExactArgs(1),
	RunE:    runWatchRemove,
}

var watchToggleCmd = &cobra.Command{
	Use:   "toggle <symbol>",
	Short: "Watch a symbol if it is not watched, otherwise stop watching it",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatchToggle,
}

var watchSortCmd = &cobra.Command{
	Use:   "sort",
	Short: "Sort the watchlist by current price and persist the order",
	RunE:  runWatchSort,
}

var watchClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Stop watching every symbol and delete the saved watchlist",
	Args:  cobra.NoArgs,
	RunE:  runWatchClear,
}

var (
	watchOffline bool
	sortOrder    string
)

func init() {
	watchListCmd.Flags().BoolVar(&watchOffline, "offline", false, "list symbols without fetching quotes")
	watchSortCmd.Flags().StringVarP(&sortOrder, "order", "o", "desc", "sort order: asc or desc")

	watchCmd.AddCommand(watchListCmd, watchAddCmd, watchRemoveCmd, watchToggleCmd, watchSortCmd, watchClearCmd)
	rootCmd.AddCommand(watchCmd)
}

func runWatchList(cmd *cobra.Command, args []string) error {
	a, log, err := bootstrap(cmd.Context())
	if log != nil {
		defer log.Sync()
	}
	if err != nil {
		return err
	}

	if watchOffline {
		renderSymbols(cmd.OutOrStdout(), a.Store().Symbols())
		return nil
	}

	ctx, cancel := a.WithTimeout(cmd.Context())
	defer cancel()

	rows, err := a.Dashboard().WatchRows(ctx)
	if err != nil {
		return err
	}
	renderRows(cmd.OutOrStdout(), rows)
	return nil
}

func runWatchAdd(cmd *cobra.Command, args []string) error {
	a, log, err := bootstrap(cmd.Context())
	if log != nil {
		defer log.Sync()
	}
	if err != nil {
		return err
	}

	ctx, cancel := a.WithTimeout(cmd.Context())
	defer cancel()

	symbol, err := a.Dashboard().AddByQuery(ctx, strings.Join(args, " "))
	if err != nil {
		return explain(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "watching %s\n", symbol)
	return nil
}

func runWatchRemove(cmd *cobra.Command, args []string) error {
	a, log, err := bootstrap(cmd.Context())
	if log != nil {
		defer log.Sync()
	}
	if err != nil {
		return err
	}

	removed, err := a.Dashboard().Remove(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if !removed {
		fmt.Fprintf(cmd.OutOrStdout(), "%s was not watched\n", strings.ToUpper(args[0]))
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "stopped watching %s\n", strings.ToUpper(args[0]))
	return nil
}

func runWatchToggle(cmd *cobra.Command, args []string) error {
	a, log, err := bootstrap(cmd.Context())
	if log != nil {
		defer log.Sync()
	}
	if err != nil {
		return err
	}

	watched, err := a.Dashboard().Toggle(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	state := "no longer watched"
	if watched {
		state = "watched"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", strings.ToUpper(args[0]), state)
	return nil
}

func runWatchSort(cmd *cobra.Command, args []string) error {
	order, err := watchlist.ParseOrder(sortOrder)
	if err != nil {
		return err
	}

	a, log, err := bootstrap(cmd.Context())
	if log != nil {
		defer log.Sync()
	}
	if err != nil {
		return err
	}

	ctx, cancel := a.WithTimeout(cmd.Context())
	defer cancel()

	rows, err := a.Dashboard().SortByPrice(ctx, order)
	if err != nil {
		return explain(err)
	}
	renderRows(cmd.OutOrStdout(), rows)
	return nil
}

func runWatchClear(cmd *cobra.Command, args []string) error {
	a, log, err := bootstrap(cmd.Context())
	if log != nil {
		defer log.Sync()
	}
	if err != nil {
		return err
	}

	n := a.Store().Len()
	if err := a.Dashboard().Clear(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "cleared %d symbols\n", n)
	return nil
}
