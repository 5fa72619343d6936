package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var databaseURL string
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "ternakctl",
		Short:         "Operational commands for the livestock API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&databaseURL, "database", "d", "", "Database URL (defaults to TERNAK_DATABASE_URL)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log progress to stderr")

	opts := func() runOptions {
		return runOptions{databaseURL: databaseURL, verbose: verbose}
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd.Context(), opts(), cmd.OutOrStdout())
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "birthdays",
		Short: "Append birthday activities for animals born on today's date",
		Long:  "Safe to run more than once a day: an animal receives at most one birthday activity per calendar year.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBirthdays(cmd.Context(), opts(), cmd.OutOrStdout())
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "next-id CATEGORY",
		Short: "Preview the next internal id for a category without reserving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNextID(cmd.Context(), opts(), args[0], cmd.OutOrStdout())
		},
	})

	return rootCmd
}
