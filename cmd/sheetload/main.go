package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/hpungsan/sheetload/internal/config"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion(args []string) bool {
	if len(args) < 2 {
		return true
	}
	arg := args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// newLogger returns a logger writing to stderr so stdout stays JSON.
func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if lvl, err := logrus.ParseLevel(level); err == nil {
		log.SetLevel(lvl)
	}
	return log
}

// defaultDatabase points the CLI at a file store under globalDir when no
// database was configured. An explicit ":memory:" is kept.
func defaultDatabase(cfg *config.Config, globalDir string) {
	if cfg.Database == "" {
		cfg.Database = filepath.Join(globalDir, "sheetload.db")
	}
}

func main() {
	// Handle --help/--version before loading config (nothing to open)
	if isHelpOrVersion(os.Args) {
		app := newCLIApp(config.DefaultConfig(), newLogger("info"))
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}
	globalDir := filepath.Join(homeDir, ".sheetload")

	cwd, _ := os.Getwd()
	cfg, err := config.LoadWithRepo(globalDir, cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	defaultDatabase(cfg, globalDir)

	app := newCLIApp(cfg, newLogger(cfg.LogLevel))
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
