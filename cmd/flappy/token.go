package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var flagTokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage delegated session tokens",
	Long: `A session token lets another signer act on your record until it expires.

Examples:
  flappy token issue relay --ttl 30m
  flappy --player alice --signer relay --token <token> flap
  flappy token revoke <token>`,
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue <signer>",
	Short: "Issue a token letting signer act on your record",
	Args:  cobra.ExactArgs(1),
	Run:   runTokenIssue,
}

var tokenRevokeCmd = &cobra.Command{
	Use:   "revoke <token>",
	Short: "Revoke a token",
	Args:  cobra.ExactArgs(1),
	Run:   runTokenRevoke,
}

var tokenPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired tokens",
	Args:  cobra.NoArgs,
	Run:   runTokenPurge,
}

func init() {
	tokenIssueCmd.Flags().DurationVar(&flagTokenTTL, "ttl", 0, "Token lifetime (default: session.token_ttl from config)")
	tokenCmd.AddCommand(tokenIssueCmd, tokenRevokeCmd, tokenPurgeCmd)
}

func runTokenIssue(_ *cobra.Command, args []string) {
	a, err := openApp("flappy")
	if err != nil {
		fail("%v", err)
	}
	defer a.Close()

	// Only the authority itself may delegate.
	c := caller()
	if c.Token != "" || c.Signer != player() {
		a.Close()
		fail("only %s may issue tokens for their record", player())
	}

	ttl := flagTokenTTL
	if ttl == 0 {
		ttl = a.cfg.Session.TokenTTL
	}

	tok, err := a.authn.Issue(context.Background(), player(), args[0], ttl)
	if err != nil {
		a.Close()
		fail("%v", err)
	}
	a.logger.Info("Token issued", "authority", tok.Authority, "signer", tok.Signer, "expires", tok.ExpiresAt)
	fmt.Println(tok.Token)
}

func runTokenRevoke(_ *cobra.Command, args []string) {
	a, err := openApp("flappy")
	if err != nil {
		fail("%v", err)
	}
	defer a.Close()

	if err := a.authn.Revoke(context.Background(), args[0]); err != nil {
		a.Close()
		fail("%v", err)
	}
	fmt.Println("Token revoked.")
}

func runTokenPurge(_ *cobra.Command, _ []string) {
	a, err := openApp("flappy")
	if err != nil {
		fail("%v", err)
	}
	defer a.Close()

	n, err := a.store.PurgeTokens(context.Background(), time.Now())
	if err != nil {
		a.Close()
		fail("%v", err)
	}
	fmt.Printf("Removed %d expired token(s).\n", n)
}
