package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"lawnorm/internal/app"
	"lawnorm/internal/auth"
)

var (
	tokenSubject string
	tokenRole    string
)

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "operator", "Token subject")
	tokenCmd.Flags().StringVar(&tokenRole, "role", auth.RoleAdmin, "Token role: admin or viewer")
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for the API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(func(_ context.Context, a *app.App) error {
			issuer, err := a.Tokens()
			if err != nil {
				return err
			}
			tok, err := issuer.Mint(tokenSubject, tokenRole)
			if err != nil {
				return err
			}
			if outputJSON {
				return printJSON(tok)
			}
			fmt.Println(tok.Token)
			return nil
		})
	},
}
