package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dom/codementor/internal/config"
	"github.com/dom/codementor/internal/logging"
	"github.com/dom/codementor/internal/repository/postgres"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	apiURL string
	token  string
}

func defaultAPIURL() string {
	if url := os.Getenv("API_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "mentorctl",
		Short:         "Development tool for the codementor API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", defaultAPIURL(), "backend base URL (env API_URL)")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("MENTOR_TOKEN"), "session token (env MENTOR_TOKEN)")

	rootCmd.AddCommand(
		newRegisterCommand(opts),
		newLoginCommand(opts),
		newMeCommand(opts),
		newVerifyCommand(opts),
		newProfileCommand(opts),
		newExplainCommand(opts),
		newMigrateCommand(),
	)

	return rootCmd
}

func (o *rootOptions) client() *APIClient {
	return NewAPIClient(o.apiURL)
}

func (o *rootOptions) requireToken() (string, error) {
	if o.token == "" {
		return "", errors.New("a session token is required: pass --token or set MENTOR_TOKEN")
	}
	return o.token, nil
}

func newRegisterCommand(opts *rootOptions) *cobra.Command {
	var email, username, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := opts.client().Register(email, username, password)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), user)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&username, "username", "", "account username")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("username")
	cmd.MarkFlagRequired("password")

	return cmd
}

func newLoginCommand(opts *rootOptions) *cobra.Command {
	var email, password string
	var tokenOnly bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print a session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := opts.client().Login(email, password)
			if err != nil {
				return err
			}
			if tokenOnly {
				fmt.Fprintln(cmd.OutOrStdout(), result.Token)
				return nil
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().BoolVar(&tokenOnly, "token-only", false, "print only the token, for use with MENTOR_TOKEN")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")

	return cmd
}

func newMeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the current user and progress summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := opts.requireToken()
			if err != nil {
				return err
			}
			user, err := opts.client().Me(token)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), user)
		},
	}
}

func newVerifyCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check whether the session token is still valid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := opts.requireToken()
			if err != nil {
				return err
			}
			result, err := opts.client().Verify(token)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
}

func newProfileCommand(opts *rootOptions) *cobra.Command {
	var firstName, lastName, picture string

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update profile fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := opts.requireToken()
			if err != nil {
				return err
			}

			fields := map[string]string{}
			if cmd.Flags().Changed("first-name") {
				fields["firstName"] = firstName
			}
			if cmd.Flags().Changed("last-name") {
				fields["lastName"] = lastName
			}
			if cmd.Flags().Changed("picture") {
				fields["profilePicture"] = picture
			}

			user, err := opts.client().UpdateProfile(token, fields)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), user)
		},
	}
	cmd.Flags().StringVar(&firstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&picture, "picture", "", "profile picture URL")

	return cmd
}

func newExplainCommand(opts *rootOptions) *cobra.Command {
	var language string

	cmd := &cobra.Command{
		Use:   "explain [file]",
		Short: "Ask the code assistant to explain a file (stdin when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var src io.Reader = cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				src = f
			}

			code, err := io.ReadAll(src)
			if err != nil {
				return err
			}

			result, err := opts.client().Explain(opts.token, string(code), language)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Explanation)
			return nil
		},
	}
	cmd.Flags().StringVar(&language, "language", "", "source language")

	return cmd
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations using the server configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Storage != config.StoragePostgres {
				return fmt.Errorf("migrate needs STORAGE=%s, got %q", config.StoragePostgres, cfg.Storage)
			}

			logger, err := logging.New(cfg.Environment, cfg.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync()

			db, err := postgres.NewConnection(cfg.DatabaseURL, logger)
			if err != nil {
				return err
			}
			return postgres.Migrate(db, logger)
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
