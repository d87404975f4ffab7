package cli

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-psy/internal/auth"
)

var (
	tokenSecret string
	tokenRole   string
	tokenTTL    time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token [subject]",
	Short: "Mint an operator bearer token for the gateway",
	Long: `Signs a token the gateway accepts when AUTH_JWT_SECRET is set.
Roles: viewer (read bank and event trail), author (bank writes and reload),
operator (everything).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := tokenSecret
		if secret == "" {
			secret = os.Getenv("AUTH_JWT_SECRET")
		}
		if secret == "" {
			return errors.New("no signing secret: pass --secret or set AUTH_JWT_SECRET")
		}
		tok, err := auth.NewService(secret, tokenTTL).Issue(args[0], tokenRole)
		if err != nil {
			return err
		}
		cmd.Println(tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSecret, "secret", "", "HS256 signing secret (default $AUTH_JWT_SECRET)")
	tokenCmd.Flags().StringVar(&tokenRole, "role", "operator", "viewer, author or operator")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 8*time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}
