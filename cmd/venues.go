package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/eventparse/internal/venues"
)

var venuesPath string

var venuesCmd = &cobra.Command{
	Use:   "venues",
	Short: "Manage the known-venues list",
}

var venuesSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Load the venues YAML file into the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := venuesPath
		if path == "" {
			path = cfg.Venues.Path
		}
		list, err := venues.Load(path)
		if err != nil {
			return err
		}

		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(cmd.Context()); err != nil {
			return err
		}

		n, err := st.UpsertKnownVenues(cmd.Context(), list)
		if err != nil {
			return err
		}
		zap.L().Info("venues synced", zap.Int("count", n), zap.String("path", path))
		return nil
	},
}

var venuesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the known venues from the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(cmd.Context()); err != nil {
			return err
		}

		list, err := st.ListKnownVenues(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), list)
	},
}

func init() {
	venuesSyncCmd.Flags().StringVar(&venuesPath, "file", "", "venues YAML file (default from config)")
	venuesCmd.AddCommand(venuesSyncCmd, venuesListCmd)
	rootCmd.AddCommand(venuesCmd)
}
