package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"shelf-go/internal/app"
	"shelf-go/internal/config"
	"shelf-go/internal/encryption"
	"shelf-go/internal/vault"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// readConfig loads the config file from its default location.
func readConfig() (*config.Config, error) {
	paths, err := app.ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(paths.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// newApp reads the config and creates a ShelfApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "add", "start").
func newApp(cmd *cobra.Command, operation string, parameters ...string) (*app.ShelfApp, error) {
	cfg, err := readConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewShelfApp(cfg, operation, strings.Join(parameters, " "), logOptions(cmd))
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

func logOptions(cmd *cobra.Command) app.Options {
	opts := app.Options{Level: slog.LevelInfo, Echo: os.Stderr, EchoLevel: slog.LevelWarn}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		opts.Level = slog.LevelDebug
		opts.EchoLevel = slog.LevelDebug
	}
	return opts
}

// readPassphrase prompts on the terminal without echoing input.
func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}

var rootCmd = &cobra.Command{
	Use:          "shelf",
	Short:        "Personal book tracker",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		encrypt, _ := cmd.Flags().GetBool("encrypt")

		paths, err := app.ResolvePaths()
		if err != nil {
			return fmt.Errorf("resolving paths: %w", err)
		}

		libraryID := uuid.New().String()
		cfg := config.NewConfig(libraryID, paths.BaseDir)

		if encrypt {
			cfg.Encryption.Type = "age"
			if err := setupKeys(cfg.Encryption); err != nil {
				return err
			}
		}

		for _, vc := range cfg.Vaults {
			v, err := vault.NewVaultFromConfig(vc)
			if err != nil {
				return fmt.Errorf("creating vault %q: %w", vc.Name, err)
			}
			if err := v.ValidateSetup(); err != nil {
				return fmt.Errorf("vault %q: %w", vc.Name, err)
			}
		}

		if err := config.Init(paths.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", paths.ConfigPath)
		fmt.Printf("Library ID: %s\n", libraryID)
		fmt.Printf("Base Dir:   %s\n", paths.BaseDir)
		fmt.Printf("Encryption: %s\n", cfg.Encryption.Type)
		return nil
	},
}

func setupKeys(cfg config.EncryptionConfig) error {
	enc, err := encryption.NewEncryptorFromConfig(cfg)
	if err != nil {
		return err
	}
	pass, err := readPassphrase("Snapshot passphrase: ")
	if err != nil {
		return err
	}
	confirm, err := readPassphrase("Repeat passphrase: ")
	if err != nil {
		return err
	}
	if pass != confirm {
		return fmt.Errorf("passphrases do not match")
	}
	if err := enc.Setup(pass); err != nil {
		return fmt.Errorf("generating keys: %w", err)
	}
	return nil
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := app.ResolvePaths()
		if err != nil {
			return fmt.Errorf("resolving paths: %w", err)
		}

		cfg, err := config.ReadFromFile(paths.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", paths.ConfigPath)
		fmt.Printf("Library ID:  %s\n", cfg.LibraryID)
		fmt.Printf("Base Dir:    %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Database:    %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		baseURL := cfg.Catalog.BaseURL
		if baseURL == "" {
			baseURL = "(default)"
		}
		timeout := "transport default"
		if d := cfg.CatalogTimeout(); d > 0 {
			timeout = d.String()
		}
		fmt.Printf("Catalog:     %s (timeout %s)\n", baseURL, timeout)
		for _, v := range cfg.Vaults {
			fmt.Printf("Vault:       %s %s %s\n", v.Name, v.Type, v.FSVaultRoot)
		}
		fmt.Printf("Encryption:  %s\n", cfg.Encryption.Type)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug output to stderr")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().Bool("encrypt", false, "Encrypt snapshots with a passphrase-protected age key")
	configCmd.AddCommand(configListCmd)
	rootCmd.AddCommand(configCmd)

	// book commands
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().String("isbn", "", "Look up the book by ISBN first")
	addCmd.Flags().String("title", "", "Title (overrides the lookup)")
	addCmd.Flags().String("subtitle", "", "Subtitle (overrides the lookup)")
	addCmd.Flags().String("author", "", "Author (overrides the lookup)")
	addCmd.Flags().String("pages", "", "Page count (overrides the lookup)")
	addCmd.Flags().String("cover-url", "", "Cover image URL (overrides the lookup)")
	addCmd.Flags().String("cover-file", "", "Attach a cover image from a file")
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(finishCmd)
	rootCmd.AddCommand(notesCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(coverCmd)
	coverCmd.Flags().String("url", "", "Cover image URL")
	coverCmd.Flags().String("file", "", "Cover image file")
	coverCmd.MarkFlagsMutuallyExclusive("url", "file")
	coverCmd.MarkFlagsOneRequired("url", "file")

	// library commands
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("format", "f", "yaml", "Export format (yaml or json)")
	exportCmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout")
	rootCmd.AddCommand(restoreCmd)
	restoreCmd.Flags().Bool("force", false, "Overwrite local changes newer than the snapshot")
	rootCmd.AddCommand(uiCmd)
}
