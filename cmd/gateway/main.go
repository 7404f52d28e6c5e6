package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/m2mgate/internal/gateway/app"
	"github.com/aussiebroadwan/m2mgate/pkg/cryptox"
	"github.com/aussiebroadwan/m2mgate/pkg/m2msdk"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gateway",
		Short:         "OAuth2 client-credentials gateway for M2M customer access",
		Version:       app.BuildVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the gateway HTTP server (default)",
			Args:  cobra.NoArgs,
			RunE:  runServe,
		},
		newHashSecretCmd(),
		newGenSecretCmd(),
		newTokenCmd(),
	)
	return root
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return application.Run()
}

func newHashSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-secret [secret]",
		Short: "Print an Argon2id hash for a registry secret_hash entry",
		Long:  "Hashes the given secret, or the first line of stdin when no argument is passed.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var secret string
			if len(args) == 1 {
				secret = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("reading secret from stdin: %w", err)
				}
				secret = strings.TrimRight(line, "\r\n")
			}
			if secret == "" {
				return errors.New("secret must not be empty")
			}

			hash, err := cryptox.HashSecret(secret)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func newGenSecretCmd() *cobra.Command {
	var withHash bool
	cmd := &cobra.Command{
		Use:   "gen-secret",
		Short: "Generate a random client secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := cryptox.GenerateSecret(cryptox.SecretSize)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), secret)

			if withHash {
				hash, err := cryptox.HashSecret(secret)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), hash)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withHash, "hash", false, "also print the Argon2id hash of the secret")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var (
		baseURL      string
		clientID     string
		clientSecret string
		scope        string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Fetch an access token from a running gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if clientSecret == "" {
				clientSecret = os.Getenv("M2M_CLIENT_SECRET")
			}
			if clientID == "" || clientSecret == "" {
				return errors.New("--client-id and --client-secret (or M2M_CLIENT_SECRET) are required")
			}

			client := m2msdk.NewClient(baseURL)
			resp, err := client.ClientCredentialsGrant(cmd.Context(), clientID, clientSecret, strings.Fields(scope))
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:8080", "gateway base URL")
	cmd.Flags().StringVar(&clientID, "client-id", "", "OAuth2 client id")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "OAuth2 client secret")
	cmd.Flags().StringVar(&scope, "scope", "", "space-delimited scopes to request")
	return cmd
}
