package main

import (
	"context"
	"fmt"

	commonredis "github.com/djval79/caresync1/common/redis"
	"github.com/djval79/caresync1/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute staff hours from confirmed shifts and save them",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := context.Background()
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			roster := service.NewRosterService(a.state, service.NewShiftGenerator(cfg.Location()), a.publishers(ctx), a.logger)
			changed, err := roster.ReconcileHours(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reconciled %d staff record(s)\n", len(changed))
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Write the current collections (seed data when empty) to the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := context.Background()
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.state.Flush(ctx); err != nil {
				return err
			}
			keys, err := a.coll.Keys(ctx)
			if err != nil {
				return err
			}
			a.logger.Info("collections written", zap.Strings("keys", keys))
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}

func eventsCmd() *cobra.Command {
	var count int64
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print the oldest entries of the audit event stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := context.Background()
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			client, err := a.redisClient(ctx)
			if err != nil {
				return err
			}
			msgs, err := commonredis.ReadRange(ctx, client, cfg.Events.Stream, count)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", cfg.Events.Stream, err)
			}
			for _, m := range msgs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%v\t%v\n", m.ID, m.Values["type"], m.Values["data"])
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&count, "count", 50, "Maximum entries to print")
	return cmd
}
