package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Complete finished bookings once",
		Long:  "Marks CONFIRMED bookings whose end has passed as COMPLETED and, when PENDING_HOLD is set, cancels stale PENDING bookings. Safe to run repeatedly.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			engine, closeFn, err := openEngine()
			if err != nil {
				return err
			}
			defer closeFn()

			res, err := engine.Sweep(ctx)
			if err != nil {
				return err
			}
			if outputJSON {
				return printJSON(res)
			}
			fmt.Printf("completed %d, expired %d\n", res.Completed, res.Expired)
			return nil
		},
	}
}
