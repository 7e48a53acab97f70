package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"admin_panel/internal/config"
	"admin_panel/internal/repository"
	"admin_panel/internal/service"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

// readPassword is swapped in tests to avoid touching the terminal
var readPassword = term.ReadPassword

func migrateAction(c *cli.Context) error {
	dbCfg, err := config.LoadDBConfig()
	if err != nil {
		return err
	}

	dbPool, err := config.ConnectDB(c.Context, dbCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbPool.Close()

	if err := config.Migrate(c.Context, dbPool); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func createAdminAction(c *cli.Context) error {
	username := c.Args().First()
	if username == "" {
		username = os.Getenv("ADMIN_USERNAME")
	}
	if username == "" {
		return cli.Exit("usage: create-admin <username>", 2)
	}

	password := c.String("password")
	if password == "" {
		var err error
		password, err = promptPassword(c.App.Writer, int(os.Stdin.Fd()))
		if err != nil {
			return err
		}
	}

	dbCfg, err := config.LoadDBConfig()
	if err != nil {
		return err
	}
	dbPool, err := config.ConnectDB(c.Context, dbCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbPool.Close()

	if err := config.Migrate(c.Context, dbPool); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Only the admin repository is needed to store the account.
	authService := service.NewAuthService(nil, nil, repository.NewAdminRepository(dbPool), nil, nil)
	admin, err := authService.EnsureAdmin(c.Context, username, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Admin %q (id %d) is ready\n", admin.Username, admin.ID)
	return nil
}

// promptPassword asks twice without echo and requires both entries to match
func promptPassword(w io.Writer, fd int) (string, error) {
	fmt.Fprint(w, "Enter password: ")
	first, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	fmt.Fprint(w, "Repeat password: ")
	second, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	if len(first) == 0 {
		return "", errors.New("password must not be empty")
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}
