package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit the settings file",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Answer a few questions and write the settings file",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, saved, err := runSetupWizard(cmd.InOrStdin(), cmd.OutOrStdout(), ctx.settings, ctx.settingsPath)
			if err != nil {
				return err
			}
			if !saved {
				fmt.Fprintln(cmd.OutOrStdout(), "Settings not saved")
				return nil
			}
			if err := SaveSettings(ctx.settingsPath, settings); err != nil {
				return fmt.Errorf("save settings: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Saved", ctx.settingsPath)
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the resolved settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			source := ctx.settingsPath
			if !ctx.settingsFound {
				source += " (not found, using defaults)"
			}
			s := ctx.settings
			fmt.Fprintf(out, "Settings file:  %s\n", source)
			fmt.Fprintf(out, "Suffix:         %s\n", s.Suffix)
			fmt.Fprintf(out, "Action:         %s\n", s.Action)
			fmt.Fprintf(out, "Layout:         %s\n", s.Layout)
			fmt.Fprintf(out, "Collision:      %s\n", s.Collision)
			fmt.Fprintf(out, "Extensions:     %s\n", strings.Join(s.Extensions, " "))
			if len(s.Exclude) > 0 {
				fmt.Fprintf(out, "Exclude:        %s\n", strings.Join(s.Exclude, " "))
			}
			fmt.Fprintf(out, "Skip identical: %t\n", s.SkipIdentical)
			fmt.Fprintf(out, "Cache:          %s\n", s.CachePath)
			fmt.Fprintf(out, "Log level:      %s\n", s.LogLevel)
			fmt.Fprintf(out, "Log file:       %s\n", s.LogFile)
			return nil
		},
	})

	return configCmd
}

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the capture date cache",
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show capture date cache usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := OpenDateCache(ctx.settings.CachePath, ctx.logger)
			if err != nil {
				return err
			}
			defer cache.Close()

			total, embedded := cache.Stats()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Cache:    %s\n", ctx.settings.CachePath)
			if info, err := os.Stat(ctx.settings.CachePath); err == nil {
				fmt.Fprintf(out, "Size:     %s\n", humanize.Bytes(uint64(info.Size())))
			}
			fmt.Fprintf(out, "Entries:  %s\n", humanize.Comma(total))
			fmt.Fprintf(out, "Embedded: %s\n", humanize.Comma(embedded))
			fmt.Fprintf(out, "Mod time: %s\n", humanize.Comma(total-embedded))
			return nil
		},
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Remove cache entries for files that no longer exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := OpenDateCache(ctx.settings.CachePath, ctx.logger)
			if err != nil {
				return err
			}
			defer cache.Close()

			pruned, err := cache.Prune(func(path string) bool {
				_, err := ctx.fs.Stat(path)
				return !isNotExist(err)
			})
			if err != nil {
				return fmt.Errorf("prune cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d entries\n", pruned)
			return nil
		},
	})

	return cacheCmd
}
