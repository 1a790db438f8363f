package main

import (
	"context"
	"fmt"

	"venueslots/internal/calendar"

	"github.com/spf13/cobra"
)

func blockCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "block YYYY-MM-DD",
		Short: "Block a date for a venue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := calendar.Parse(args[0])
			if err != nil {
				return err
			}
			ctx := context.Background()
			engine, closeFn, err := openEngine()
			if err != nil {
				return err
			}
			defer closeFn()

			bd, err := engine.BlockDate(ctx, venueID, day, reason)
			if err != nil {
				return err
			}
			if outputJSON {
				return printJSON(bd)
			}
			fmt.Printf("blocked %s for venue %d\n", day, venueID)
			return nil
		},
	}
	addVenueFlag(cmd)
	cmd.Flags().StringVar(&reason, "reason", "", "Reason shown to the host")
	return cmd
}

func unblockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unblock YYYY-MM-DD",
		Short: "Unblock a date for a venue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := calendar.Parse(args[0])
			if err != nil {
				return err
			}
			ctx := context.Background()
			engine, closeFn, err := openEngine()
			if err != nil {
				return err
			}
			defer closeFn()

			if err := engine.UnblockDate(ctx, venueID, day); err != nil {
				return err
			}
			fmt.Printf("%s is open for venue %d\n", day, venueID)
			return nil
		},
	}
	addVenueFlag(cmd)
	return cmd
}

func toggleCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "toggle YYYY-MM-DD",
		Short: "Flip the blocked state of a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := calendar.Parse(args[0])
			if err != nil {
				return err
			}
			ctx := context.Background()
			engine, closeFn, err := openEngine()
			if err != nil {
				return err
			}
			defer closeFn()

			blocked, err := engine.ToggleBlock(ctx, venueID, day, reason)
			if err != nil {
				return err
			}
			if outputJSON {
				return printJSON(map[string]any{"date": day, "blocked": blocked})
			}
			state := "open"
			if blocked {
				state = "blocked"
			}
			fmt.Printf("%s is now %s for venue %d\n", day, state, venueID)
			return nil
		},
	}
	addVenueFlag(cmd)
	cmd.Flags().StringVar(&reason, "reason", "", "Reason used when the date becomes blocked")
	return cmd
}
