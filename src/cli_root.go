package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// commandContext carries the state shared by every subcommand
type commandContext struct {
	configFlag   string
	logLevelFlag string
	noCache      bool

	fs              afero.Fs
	stdinIsTerminal func() bool

	settings      Settings
	settingsPath  string
	settingsFound bool
	logger        *log.Logger
}

func newCommandContext() *commandContext {
	return &commandContext{
		fs:              afero.NewOsFs(),
		stdinIsTerminal: func() bool { return isTerminal(os.Stdin) },
	}
}

// load reads the settings file and applies the persistent flags
func (c *commandContext) load(stderr io.Writer) error {
	settings, path, found, err := LoadSettings(strings.TrimSpace(c.configFlag))
	if err != nil {
		return err
	}
	if c.logLevelFlag != "" {
		if _, err := parseLogLevel(c.logLevelFlag); err != nil {
			return err
		}
		settings.LogLevel = strings.ToLower(c.logLevelFlag)
	}
	c.settings = settings
	c.settingsPath = path
	c.settingsFound = found
	c.logger = newLogger(stderr, settings.LogLevel)
	return nil
}

// openResolver builds the date resolver, backed by the cache unless
// disabled. A cache that cannot be opened is logged and skipped.
func (c *commandContext) openResolver(logger *log.Logger) (*DateResolver, func()) {
	if c.noCache {
		return NewDateResolver(c.fs, nil, logger), func() {}
	}
	cache, err := OpenDateCache(c.settings.CachePath, logger)
	if err != nil {
		logger.Warn("Date cache disabled", "err", err)
		return NewDateResolver(c.fs, nil, logger), func() {}
	}
	return NewDateResolver(c.fs, cache, logger), func() { cache.Close() }
}

func newRootCommand() *cobra.Command {
	return buildRootCommand(newCommandContext())
}

func buildRootCommand(ctx *commandContext) *cobra.Command {
	var source, dest string

	rootCmd := &cobra.Command{
		Use:           "photo-organizer",
		Short:         "Sort photos into dated folders by capture date",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.load(cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(os.Stdout) || !isTerminal(os.Stdin) {
				return cmd.Help()
			}
			return runTUI(ctx, source, dest)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configFlag, "config", "c", "", "Settings file path (default ~/.photo-organizer.yaml)")
	rootCmd.PersistentFlags().StringVar(&ctx.logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&ctx.noCache, "no-cache", false, "Do not read or write the capture date cache")
	rootCmd.Flags().StringVarP(&source, "source", "s", "", "Source folder to prefill")
	rootCmd.Flags().StringVarP(&dest, "dest", "d", "", "Destination folder to prefill")

	rootCmd.AddCommand(newPreviewCommand(ctx))
	rootCmd.AddCommand(newOrganizeCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newCacheCommand(ctx))

	return rootCmd
}

func runTUI(ctx *commandContext, source, dest string) error {
	logger, closeLog, err := openFileLogger(ctx.settings.LogFile, ctx.settings.LogLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	resolver, closeResolver := ctx.openResolver(logger)
	defer closeResolver()

	m := initialModel(ctx.fs, resolver, logger, ctx.settings, expandHome(source), expandHome(dest))
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
