package main

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"shelf-go/internal/app"
	"shelf-go/internal/encryption"
	"shelf-go/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View the history of changes to the library",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd, "history")
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.GetHistory(limit)
		if err != nil {
			return err
		}

		if len(ops) == 0 {
			fmt.Println("No changes recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if op.FinishedAt != nil {
				d := op.FinishedAt.Sub(op.StartedAt)
				duration = d.Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-8s  %s  %-8s  %-10s  %s\n",
				op.ID,
				op.Operation,
				op.StartedAt.Local().Format("2006-01-02 15:04:05"),
				op.Status,
				duration,
				op.Parameters,
			)
		}
		return nil
	},
}

// export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the library as YAML or JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")

		a, err := newApp(cmd, "export")
		if err != nil {
			return err
		}
		defer a.Close()

		if output == "" {
			w := bufio.NewWriter(os.Stdout)
			if err := a.Export(w, format); err != nil {
				return err
			}
			return w.Flush()
		}

		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating export file: %w", err)
		}
		if err := a.Export(f, format); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("writing export file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Exported library to %s\n", output)
		return nil
	},
}

// restore command
var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Replace the local library with the newest vault snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		cfg, err := readConfig()
		if err != nil {
			return err
		}

		var passphrase string
		if encryption.RequiresPassphrase(cfg.Encryption) {
			passphrase, err = readPassphrase("Snapshot passphrase: ")
			if err != nil {
				return err
			}
		}

		version, err := app.Restore(cfg, passphrase, force)
		if err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}

		fmt.Printf("Restored library from snapshot version %d\n", version)
		return nil
	},
}

// ui command
var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Browse and edit the library interactively",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		cfg, err := readConfig()
		if err != nil {
			return err
		}

		// Log output would draw over the screen, so it goes to the file only.
		opts := logOptions(cmd)
		opts.Echo = nil
		a, err := app.NewShelfApp(cfg, "ui", "", opts)
		if err != nil {
			return fmt.Errorf("initializing app: %w", err)
		}
		defer func() {
			if cerr := a.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()

		p := tea.NewProgram(tui.New(a), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("running ui: %w", err)
		}
		return nil
	},
}
