package main

import (
	"fmt"
	"os"
	"time"

	"venueslots/internal/auth"

	"github.com/spf13/cobra"
)

func tokenCmd() *cobra.Command {
	var userID int64
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for a user (local testing)",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("AUTH_TOKEN_SECRET")
			if secret == "" {
				return fmt.Errorf("AUTH_TOKEN_SECRET is not set")
			}
			iss := os.Getenv("AUTH_TOKEN_ISS")
			if iss == "" {
				iss = "venueslots"
			}

			tok, err := auth.NewJWTAuthenticator(secret, iss, iss, ttl).GenerateToken(userID)
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "User ID to put in the token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
