package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/volunqueer/volunqueer/internal/app"
	"github.com/volunqueer/volunqueer/internal/auth"
	"github.com/volunqueer/volunqueer/internal/config"
	"github.com/volunqueer/volunqueer/internal/docstore"
	"github.com/volunqueer/volunqueer/internal/seed"
)

func runAdmin(args []string) int {
	if len(args) == 0 {
		printAdminUsage()
		return 2
	}

	switch args[0] {
	case "set-password":
		return runSetPassword(args[1:])
	case "seed":
		return runSeed(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown admin command: %s\n", args[0])
		printAdminUsage()
		return 2
	}
}

func printAdminUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  volunqueer admin set-password --email user@example.com [--password <new>]")
	fmt.Fprintln(os.Stderr, "  volunqueer admin seed [--force]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Notes:")
	fmt.Fprintln(os.Stderr, "  - Both commands use VQ_DATA_SOURCE and need a persistent store.")
	fmt.Fprintln(os.Stderr, "  - If --password is omitted, a random password is generated and printed.")
	fmt.Fprintln(os.Stderr, "  - seed only writes into an empty events collection unless --force is set.")
}

func runSetPassword(args []string) int {
	fs := flag.NewFlagSet("set-password", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var email string
	var password string

	fs.StringVar(&email, "email", "", "User email")
	fs.StringVar(&password, "password", "", "New password (if empty, generates one)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	email = strings.TrimSpace(email)
	if email == "" {
		fmt.Fprintln(os.Stderr, "--email is required")
		return 2
	}

	generated := false
	if password == "" {
		pw, err := gonanoid.New(24)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate password: %v\n", err)
			return 1
		}
		password = pw
		generated = true
	}

	if len(password) < 8 || len(password) > auth.MaxPasswordBytes {
		fmt.Fprintf(os.Stderr, "Password must be between 8 and %d bytes\n", auth.MaxPasswordBytes)
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	docs, closeDocs, code := openAdminStore(ctx)
	if docs == nil {
		return code
	}
	defer closeDocs(ctx)

	_, err := auth.NewCredentials(docs).SetPassword(ctx, email, password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		fmt.Fprintf(os.Stderr, "No login found for email %q\n", email)
		return 1
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to update password: %v\n", err)
		return 1
	}

	fmt.Fprintln(os.Stdout, "Password updated.")
	if generated {
		fmt.Fprintln(os.Stdout, password)
	}
	return 0
}

func runSeed(args []string) int {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var force bool
	fs.BoolVar(&force, "force", false, "Write the mock data even if events already exist")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	docs, closeDocs, code := openAdminStore(ctx)
	if docs == nil {
		return code
	}
	defer closeDocs(ctx)

	bundle := seed.Build(time.Now().UTC())
	if force {
		if err := seed.Write(ctx, docs, bundle); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to seed: %v\n", err)
			return 1
		}
		fmt.Fprintln(os.Stdout, "Mock data written.")
		return 0
	}

	wrote, err := seed.IfEmpty(ctx, docs, bundle)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to seed: %v\n", err)
		return 1
	}
	if !wrote {
		fmt.Fprintln(os.Stdout, "Events already exist, nothing written. Use --force to overwrite.")
		return 0
	}
	fmt.Fprintln(os.Stdout, "Mock data written.")
	return 0
}

// openAdminStore returns a nil store and an exit code when the command
// cannot run.
func openAdminStore(ctx context.Context) (docstore.Store, func(context.Context), int) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return nil, nil, 1
	}
	if cfg.DataSource == config.DataSourceMock {
		fmt.Fprintln(os.Stderr, "VQ_DATA_SOURCE is mock; admin commands need postgres, mongo or firestore")
		return nil, nil, 2
	}

	docs, closeDocs, err := app.OpenStore(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open data source: %v\n", err)
		return nil, nil, 1
	}
	return docs, closeDocs, 0
}
