package main

import (
	"context"
	"fmt"

	"github.com/Comcast/treetags/storage/bolt"

	"github.com/spf13/cobra"
)

// viewsCmd inspects the view state kept in a bbolt file.
func (a *app) viewsCmd() *cobra.Command {
	var dbFile string

	open := func(ctx context.Context) (*bolt.Storage, error) {
		if dbFile == "" {
			dbFile = a.cfg.StorageFile
		}
		if dbFile == "" {
			return nil, fmt.Errorf("need --db or storageFile")
		}
		s, err := bolt.NewStorage(dbFile)
		if err != nil {
			return nil, err
		}
		s.Logger = a.logger
		return s, s.Open(ctx)
	}

	cmd := &cobra.Command{
		Use:   "views",
		Short: "List, show or remove saved views",
	}
	cmd.PersistentFlags().StringVar(&dbFile, "db", "", "bbolt file for view state")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the saved view ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s, err := open(ctx)
			if err != nil {
				return err
			}
			defer s.Close(ctx)
			ids, err := s.Views(ctx)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show ID",
		Short: "Write a view's state as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s, err := open(ctx)
			if err != nil {
				return err
			}
			defer s.Close(ctx)
			state, err := s.Load(ctx, args[0])
			if err != nil {
				return err
			}
			if state == nil {
				return fmt.Errorf("no view %s", args[0])
			}
			return writeJSON(cmd.OutOrStdout(), state, true)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm ID...",
		Short: "Remove views",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s, err := open(ctx)
			if err != nil {
				return err
			}
			defer s.Close(ctx)
			for _, id := range args {
				if err = s.Remove(ctx, id); err != nil {
					return err
				}
			}
			return nil
		},
	})

	return cmd
}
