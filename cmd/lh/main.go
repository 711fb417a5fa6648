package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"lh-go/internal/app"
	"lh-go/internal/config"
	"lh-go/internal/lh"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp loads the config and creates an LHApp. The caller must defer app.Close().
// command identifies the CLI command being run (e.g. "save", "watch").
func newApp(cmd *cobra.Command, command string) (*app.LHApp, error) {
	defaults, err := app.LoadDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.LoadOrDefault(defaults.ConfigPath, "", defaults.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("determining working directory: %w", err)
	}
	flag, _ := cmd.Flags().GetString("workspace")
	ws := app.ResolveWorkspace(flag, cfg.WorkspaceRoot, wd)

	a, err := app.NewLHApp(cfg, command, app.WithWorkspace(ws))
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

var rootCmd = &cobra.Command{
	Use:          "lh",
	Short:        "Local per-file version history",
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
		defaults, err := app.LoadDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		ws, _ := cmd.Flags().GetString("workspace")
		cfg := config.NewConfig(ws, defaults.BaseDir)

		if err := config.Init(defaults.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Printf("Base Dir: %s\n", defaults.BaseDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.LoadDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.LoadOrDefault(defaults.ConfigPath, "", defaults.BaseDir)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("determining working directory: %w", err)
		}
		flag, _ := cmd.Flags().GetString("workspace")

		fmt.Printf("Configuration from %s:\n\n", defaults.ConfigPath)
		fmt.Printf("Workspace: %s\n", app.ResolveWorkspace(flag, cfg.WorkspaceRoot, wd))
		fmt.Printf("Base Dir:  %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:   %s\n", cfg.LogDir)
		fmt.Printf("Log Level: %s\n", cfg.LogLevel)
		fmt.Printf("Journal:   %s %s\n", cfg.Journal.Type, cfg.Journal.DataDir)
		fmt.Printf("Debounce:  %dms\n", cfg.Watch.DebounceMS)
		return nil
	},
}

// save command
var saveCmd = &cobra.Command{
	Use:   "save PATH...",
	Short: "Archive the current content of files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "save")
		if err != nil {
			return err
		}
		defer a.Close()

		failed := 0
		for _, p := range args {
			node, err := a.SaveRevision(cmd.Context(), p)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				failed++
				continue
			}
			fmt.Printf("%s  %s\n", node.DisplayTimestamp(), node.OriginalFullPath())
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d file(s) not saved", failed, len(args))
		}
		return nil
	},
}

// log command
var logCmd = &cobra.Command{
	Use:   "log PATH",
	Short: "List the revisions of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "log")
		if err != nil {
			return err
		}
		defer a.Close()

		revisions := a.Revisions(args[0])
		if len(revisions) == 0 {
			fmt.Println("No revisions.")
			return nil
		}

		showPaths, _ := cmd.Flags().GetBool("paths")
		width := terminalWidth()
		for _, r := range revisions {
			line := fmt.Sprintf("%s  %s", r.UnixTime(), r.DisplayTimestampAndLabel())
			if showPaths {
				line += "  " + r.ArchiveFullPath()
			}
			fmt.Println(truncate(line, width))
		}
		return nil
	},
}

// label command
var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "Manage revision labels",
}

var labelAddCmd = &cobra.Command{
	Use:   "add PATH WHEN LABEL",
	Short: "Label a revision (WHEN is unix seconds or \"YYYY-MM-DD HH:MM:SS\")",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "label add")
		if err != nil {
			return err
		}
		defer a.Close()

		node, err := a.AddLabel(args[0], args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Printf("Labelled %s\n", node.DisplayTimestampAndLabel())
		return nil
	},
}

var labelRemoveCmd = &cobra.Command{
	Use:     "rm PATH WHEN",
	Aliases: []string{"remove"},
	Short:   "Remove the label of a revision",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "label rm")
		if err != nil {
			return err
		}
		defer a.Close()

		node, err := a.RemoveLabel(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Unlabelled %s\n", node.DisplayTimestamp())
		return nil
	},
}

// watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Archive files in the workspace whenever they are written",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "watch")
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Watching %s (Ctrl-C to stop)\n", a.Workspace())
		return a.Watch(ctx)
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history [PATH]",
	Short: "View recorded revisions and label changes",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd, "history")
		if err != nil {
			return err
		}
		defer a.Close()

		path := ""
		if len(args) > 0 {
			path = args[0]
		}
		events, err := a.History(cmd.Context(), path, limit)
		if err != nil {
			return err
		}

		if len(events) == 0 {
			fmt.Println("No activity recorded.")
			return nil
		}

		width := terminalWidth()
		for _, e := range events {
			line := fmt.Sprintf("%s  %-16s  %s",
				e.CreatedAt.Format(lh.DisplayLayout),
				e.Kind,
				e.OriginalPath,
			)
			if e.Label != "" {
				line += "  [" + e.Label + "]"
			}
			fmt.Println(truncate(line, width))
		}
		return nil
	},
}

// terminalWidth returns the width of stdout, or 0 when it is not a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return w
}

// truncate shortens s to width runes, marking the cut with "...". width 0 means unlimited.
func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 3 || len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

func init() {
	rootCmd.PersistentFlags().StringP("workspace", "w", "", "Workspace root (default: config workspace_root or current directory)")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// label subcommands
	labelCmd.AddCommand(labelAddCmd)
	labelCmd.AddCommand(labelRemoveCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(logCmd)
	logCmd.Flags().BoolP("paths", "p", false, "Show archive file paths")
	rootCmd.AddCommand(labelCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of events to show")
}
