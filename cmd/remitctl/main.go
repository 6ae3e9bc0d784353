// Command remitctl is an operator CLI for the remittance platform API.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"remitdesk/internal/apiclient"
)

var (
	apiURL    string
	tokenPath string
	verbose   bool
)

const reloginHint = "Session expired or not signed in, run `remitctl login --email <email>`"

func main() {
	if err := execute(newRootCmd(), os.Stderr); err != nil {
		os.Exit(1)
	}
}

// execute runs the command tree and prints its error, with a re-login hint
// when the platform rejected the stored token.
func execute(root *cobra.Command, errOut io.Writer) error {
	err := root.Execute()
	if err == nil {
		return nil
	}
	fmt.Fprintf(errOut, "Error: %v\n", err)
	if errors.Is(err, apiclient.ErrUnauthorized) {
		fmt.Fprintln(errOut, reloginHint)
	}
	return err
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "remitctl",
		Short: "Operate remittance orders from the terminal",
		Long: `remitctl signs in to the platform API, lists and advances orders,
and computes terms breakdowns locally.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultURL := os.Getenv("PLATFORM_API_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:9000/api"
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api", defaultURL, "Platform API base URL")
	rootCmd.PersistentFlags().StringVar(&tokenPath, "token-file", "", "Token file (default ~/.remitctl/token)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log API calls")

	rootCmd.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newOrdersCmd(),
		newTermsCmd(),
	)
	return rootCmd
}

// newClient builds a platform client carrying the stored token, if any.
func newClient() (*apiclient.Client, error) {
	logger := zap.NewNop()
	if verbose {
		logger, _ = zap.NewDevelopment()
	}

	token, err := loadToken(tokenPath)
	if err != nil {
		return nil, err
	}

	return apiclient.New(apiclient.Options{
		BaseURL: apiURL,
		Tokens:  apiclient.StaticToken(token),
		Logger:  logger,
	})
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

func newLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("REMITCTL_PASSWORD")
			}
			if password == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}

			api, err := apiclient.New(apiclient.Options{BaseURL: apiURL})
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			res, err := api.Login(ctx, email, password)
			if errors.Is(err, apiclient.ErrUnauthorized) {
				return errors.New("login: invalid email or password")
			}
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}

			path, err := saveToken(tokenPath, res.AccessToken)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", res.User.Email, res.User.Role)
			fmt.Fprintf(cmd.OutOrStdout(), "Token stored in %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (or REMITCTL_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := removeToken(tokenPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}
