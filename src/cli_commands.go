package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// runFlags are the flags shared by preview and organize
type runFlags struct {
	source        string
	dest          string
	suffix        string
	layout        string
	from          string
	to            string
	exts          []string
	action        string
	collision     string
	only          []string
	skipIdentical bool
	yes           bool
}

func (f *runFlags) register(cmd *cobra.Command, organize bool) {
	flags := cmd.Flags()
	flags.StringVarP(&f.source, "source", "s", "", "Folder to read photos from")
	flags.StringVarP(&f.dest, "dest", "d", "", "Folder to organize photos into")
	flags.StringVar(&f.suffix, "suffix", "", "Suffix for month folders")
	flags.StringVar(&f.layout, "layout", "", "Folder layout: month-suffix or year-month")
	flags.StringVar(&f.from, "from", "", "Only photos taken on or after this day (YYYY-MM-DD)")
	flags.StringVar(&f.to, "to", "", "Only photos taken on or before this day (YYYY-MM-DD)")
	flags.StringSliceVar(&f.exts, "ext", nil, "File extensions to include (repeatable)")
	cmd.MarkFlagRequired("source")
	cmd.MarkFlagRequired("dest")

	if !organize {
		return
	}
	flags.StringVar(&f.action, "action", "", "copy or move")
	flags.StringVar(&f.collision, "collision", "", "When the destination file exists: overwrite or rename")
	flags.StringArrayVar(&f.only, "only", nil, "Only organize this month, YYYY/MM (repeatable)")
	flags.BoolVar(&f.skipIdentical, "skip-identical", false, "Skip files whose destination already has the same content")
	flags.BoolVarP(&f.yes, "yes", "y", false, "Do not ask for confirmation before moving")
}

// buildConfig layers the flags over the settings file
func (f *runFlags) buildConfig(cmd *cobra.Command, settings Settings) (*OrganizerConfig, error) {
	cfg := &OrganizerConfig{}
	settings.Apply(cfg)
	cfg.SourceDir = expandHome(f.source)
	cfg.DestDir = expandHome(f.dest)

	changed := cmd.Flags().Changed
	if changed("suffix") {
		cfg.Suffix = f.suffix
	}
	if changed("layout") {
		cfg.Layout = Layout(strings.ToLower(f.layout))
	}
	if changed("ext") {
		cfg.Extensions = normalizeExtensions(f.exts)
	}
	if changed("action") {
		cfg.Action = Action(strings.ToLower(f.action))
	}
	if changed("collision") {
		cfg.Collision = Collision(strings.ToLower(f.collision))
	}
	if changed("skip-identical") {
		cfg.SkipIdentical = f.skipIdentical
	}

	var err error
	if cfg.From, err = ParseDate(f.from); err != nil {
		return nil, err
	}
	if cfg.To, err = ParseDate(f.to); err != nil {
		return nil, err
	}

	if len(f.only) > 0 {
		cfg.Included = make(map[Bucket]bool, len(f.only))
		for _, s := range f.only {
			b, err := ParseBucket(s)
			if err != nil {
				return nil, err
			}
			cfg.Included[b] = true
		}
	}
	return cfg, nil
}

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show what organizing would do, per month folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.buildConfig(cmd, ctx.settings)
			if err != nil {
				return err
			}

			resolver, closeResolver := ctx.openResolver(ctx.logger)
			defer closeResolver()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			preview, err := NewOrganizer(ctx.fs, resolver, ctx.logger).Preview(runCtx, cfg)
			if err != nil {
				return err
			}
			printPreview(cmd.OutOrStdout(), cfg, preview)
			return nil
		},
	}
	flags.register(cmd, false)
	return cmd
}

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "organize",
		Short: "Copy or move photos into dated folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.buildConfig(cmd, ctx.settings)
			if err != nil {
				return err
			}
			if err := cfg.Validate(ctx.fs); err != nil {
				return err
			}

			if cfg.Action == ActionMove && !flags.yes {
				if !ctx.stdinIsTerminal() {
					return fmt.Errorf("refusing to move files without --yes when stdin is not a terminal")
				}
				ok, err := confirmMove(cmd.InOrStdin(), cmd.OutOrStdout(), cfg)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Move canceled")
					return nil
				}
			}

			resolver, closeResolver := ctx.openResolver(ctx.logger)
			defer closeResolver()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			org := NewOrganizer(ctx.fs, resolver, ctx.logger)
			org.LockDestination = true

			var report ProgressFunc
			var bar *progressbar.ProgressBar
			if isTerminal(os.Stderr) {
				bar = newProgressBar(cmd.ErrOrStderr(), cfg.Action)
				report = func(p Progress) {
					if bar.GetMax() != p.Total {
						bar.ChangeMax(p.Total)
					}
					bar.Set(p.Processed)
				}
			}

			result, err := org.Organize(runCtx, cfg, report)
			if bar != nil {
				bar.Finish()
			}
			if err != nil {
				return err
			}

			printResult(cmd.OutOrStdout(), result)
			switch {
			case result.Canceled:
				return context.Canceled
			case result.Failed > 0:
				return fmt.Errorf("%d of %d files failed", result.Failed, result.Total)
			}
			return nil
		},
	}
	flags.register(cmd, true)
	return cmd
}

func newProgressBar(w io.Writer, action Action) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(actionVerb(action, true)),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionClearOnFinish(),
	)
}

func confirmMove(in io.Reader, out io.Writer, cfg *OrganizerConfig) (bool, error) {
	fmt.Fprintf(out, "Move photos from %s into %s? Originals will be removed. [y/N]: ", cfg.SourceDir, cfg.DestDir)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}
