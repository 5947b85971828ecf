package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/tabauth/pkg/cryptox"
)

// NewSecretCmd creates the secret subcommand.
func NewSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "secret",
		Short: "Print a random value for AUTH_JWT_SECRET",
		Long:  `Print a 512 bit base64url secret sized for HS512 signing.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := cryptox.GenerateSecret(cryptox.SecretSize512)
			if err != nil {
				return oops.Code("SECRET_FAILED").Wrap(err)
			}
			cmd.Println(secret)
			return nil
		},
	}
}
