package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	serve := newServeCmd()

	root := &cobra.Command{
		Use:   "oauth-gateway",
		Short: "OAuth2 authorization code gateway",
		Long: `oauth-gateway drives the OAuth2 Authorization Code flow against Google
(or any compatible provider), validates the CSRF state on the callback and
gates a protected endpoint behind the resulting session.

Running without a subcommand starts the HTTP server.`,
		Version:      version,
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	root.SetVersionTemplate(`{{printf "oauth-gateway version %s\n" .Version}}`)

	root.AddCommand(serve)
	root.AddCommand(newVersionCmd())
	return root
}
