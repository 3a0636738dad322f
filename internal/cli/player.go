package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/gameroom/internal/api/request"
	"github.com/mcoot/gameroom/internal/api/response"
)

func newPlayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Player and session commands",
	}

	cmd.AddCommand(newPlayerGuestCmd())
	cmd.AddCommand(newPlayerRegisterCmd())
	cmd.AddCommand(newPlayerLoginCmd())
	cmd.AddCommand(newPlayerMeCmd())
	cmd.AddCommand(newPlayerLogoutCmd())

	return cmd
}

// startSession posts to one of the session endpoints, keeps the returned
// token for later invocations and prints the player
func startSession(ctx context.Context, path string, req any) error {
	var result response.AuthResponse
	if err := api.Post(ctx, path, req, &result); err != nil {
		return err
	}
	if err := cfg.SaveToken(result.SessionToken); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	api.SetToken(result.SessionToken)

	NewOutput(cfg.Output).Print(result)
	return nil
}

func newPlayerGuestCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "guest",
		Short: "Start a session as a new guest player",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startSession(cmd.Context(), "/api/v1/players/guest",
				request.CreateGuestRequest{DisplayName: name})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name shown in rooms (required)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newPlayerRegisterCmd() *cobra.Command {
	var req request.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a player account and start a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startSession(cmd.Context(), "/api/v1/players/register", req)
		},
	}

	cmd.Flags().StringVar(&req.DisplayName, "name", "", "Display name shown in rooms (required)")
	cmd.Flags().StringVar(&req.Username, "user", "", "Username (required)")
	cmd.Flags().StringVar(&req.Password, "pass", "", "Password (required)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newPlayerLoginCmd() *cobra.Command {
	var req request.LoginRequest

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to a registered account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startSession(cmd.Context(), "/api/v1/players/login", req)
		},
	}

	cmd.Flags().StringVar(&req.Username, "user", "", "Username (required)")
	cmd.Flags().StringVar(&req.Password, "pass", "", "Password (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newPlayerMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the session's player",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Player
			if err := api.Get(cmd.Context(), "/api/v1/players/me", &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newPlayerLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session and forget the saved token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := api.Post(cmd.Context(), "/api/v1/players/logout", nil, nil); err != nil {
				return err
			}
			if err := cfg.ClearToken(); err != nil {
				return fmt.Errorf("failed to remove token: %w", err)
			}
			NewOutput(cfg.Output).PrintMessage("Logged out")
			return nil
		},
	}
}
