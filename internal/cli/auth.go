package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication commands",
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthMeCmd())

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var accessToken string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Exchange a Network access token for a gateway session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if accessToken == "" {
				return fmt.Errorf("--access-token is required")
			}

			req := map[string]string{"access_token": accessToken}
			var result AuthResult

			if err := client.Post("/api/v1/auth/login", req, &result); err != nil {
				return err
			}

			// Save token
			if err := cfg.SaveToken(result.SessionToken); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&accessToken, "access-token", "", "Network access token (required)")
	_ = cmd.MarkFlagRequired("access-token")

	return cmd
}

func newAuthMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the current player",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Player

			if err := client.Get("/api/v1/players/me", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
