package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/patric-chuzhbe/arsipsurat/internal/app"
	"github.com/patric-chuzhbe/arsipsurat/internal/config"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

// seeder creates or resets the admin account and reports whether it was created.
type seeder func(ctx context.Context, username, password string) (bool, error)

// seedAdmin runs against the storage the server would use.
func seedAdmin(ctx context.Context, username, password string) (bool, error) {
	cfg, err := config.New(config.WithDisableFlagsParsing(true))
	if err != nil {
		return false, err
	}

	return app.SeedAdmin(ctx, cfg, username, password)
}

type seedAdminOptions struct {
	username string
	password string
}

func newRootCommand(seed seeder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "arsipctl",
		Short: "Operator tasks of the letter archive",
		Long: `Operator tasks of the letter archive.

The storage is chosen from the same environment as the server:
DATABASE_DSN for PostgreSQL, SQLITE_PATH otherwise.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(newSeedAdminCommand(seed))

	return cmd
}

func newSeedAdminCommand(seed seeder) *cobra.Command {
	opts := &seedAdminOptions{}

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the admin account or reset its password",
		Long: `Create the admin account, or reset the password of an existing user
and give it the admin role. Without --password the password is read
from the terminal, or from the first line of stdin when it is not a terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeedAdmin(cmd, opts, seed)
		},
	}

	cmd.Flags().StringVarP(&opts.username, "username", "u", "admin", "admin username")
	cmd.Flags().StringVarP(&opts.password, "password", "p", "", "admin password (prompted when empty)")

	return cmd
}

func runSeedAdmin(cmd *cobra.Command, opts *seedAdminOptions, seed seeder) error {
	password := opts.password
	if password == "" {
		var err error
		password, err = promptPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
	}
	if password == "" {
		return errors.New("password must not be empty")
	}

	created, err := seed(cmd.Context(), opts.username, password)
	if err != nil {
		return err
	}

	if created {
		fmt.Fprintf(cmd.OutOrStdout(), "User admin %q berhasil dibuat!\n", opts.username)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Password admin %q berhasil diupdate!\n", opts.username)
	}

	return nil
}

// promptPassword reads the password without echo from a terminal, or as one
// line from any other input.
func promptPassword(in io.Reader, prompt io.Writer) (string, error) {
	if file, ok := in.(*os.File); ok && isTerminal(int(file.Fd())) {
		fmt.Fprint(prompt, "Password: ")
		password, err := readPassword(int(file.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", err
		}
		return string(password), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading password: %w", err)
	}

	return strings.TrimRight(line, "\r\n"), nil
}
