package cmd

import (
	"fmt"

	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/infrastructure/auth"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token signed with the configured secret",
	RunE:  runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().String("user", "", "username the token is issued to")
	tokenCmd.Flags().Bool("superuser", false, "grant superuser rights")
	tokenCmd.Flags().Duration("ttl", 0, "token lifetime (defaults to auth.token_ttl)")
	tokenCmd.MarkFlagRequired("user")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cfg.Auth.Secret == "" {
		return fmt.Errorf("no auth secret configured (set TAGDATA_AUTH_SECRET environment variable)")
	}

	user, _ := cmd.Flags().GetString("user")
	superuser, _ := cmd.Flags().GetBool("superuser")
	ttl, _ := cmd.Flags().GetDuration("ttl")
	if ttl <= 0 {
		ttl = cfg.Auth.TokenTTL
	}

	token, err := auth.GenerateToken(user, superuser, cfg.Auth.Secret, ttl)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)

	return nil
}
