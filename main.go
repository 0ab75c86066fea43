// Command tempo is a terminal focus timer with session history, stats and
// achievements.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sadopc/tempo/internal/app"
	"github.com/sadopc/tempo/internal/config"
	"github.com/sadopc/tempo/internal/tui"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "tempo",
		Short:        "Focus timer with stats and achievements",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd)
		},
	}
	root.PersistentFlags().String("config", "", "config file (default: <user config dir>/tempo/tempo.toml)")
	root.PersistentFlags().String("db", "", "database file, overrides storage.path")

	root.AddCommand(
		statsCmd(),
		historyCmd(),
		achievementsCmd(),
		exportCmd(),
		clearCmd(),
		initCmd(),
	)
	return root
}

// loadConfig reads the config named by --config and applies --db.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Storage.Path = db
	}
	return cfg, nil
}

// setupLogging sends the standard logger to cfg.Log.File, or discards it so
// log lines never draw over the terminal. The returned func closes the file.
func setupLogging(cfg *config.Config) (func(), error) {
	if cfg.Log.File == "" {
		log.SetOutput(io.Discard)
		return func() {}, nil
	}
	f, err := tea.LogToFile(cfg.Log.File, "tempo")
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return func() { f.Close() }, nil
}

// openCore loads the config, sets up logging and opens the core. The
// returned func releases everything.
func openCore(cmd *cobra.Command) (*app.Core, *config.Config, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	closeLog, err := setupLogging(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	c, err := app.New(cfg)
	if err != nil {
		closeLog()
		return nil, nil, nil, fmt.Errorf("open tempo: %w", err)
	}
	return c, cfg, func() {
		c.Close()
		closeLog()
	}, nil
}

func runTUI(cmd *cobra.Command) error {
	c, cfg, done, err := openCore(cmd)
	if err != nil {
		return err
	}
	defer done()

	p := tea.NewProgram(tui.NewApp(c, cfg), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
