package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/erraggy/apigraph/internal/cliutil"
	"github.com/erraggy/apigraph/internal/options"
	"github.com/erraggy/apigraph/internal/source"
	"github.com/erraggy/apigraph/parser"
	"github.com/erraggy/apigraph/workspace"
)

// WatchFlags contains flags for the watch command
type WatchFlags struct {
	Mode           string
	Debounce       time.Duration
	MaxConcurrency int
}

// watchedExtensions are the file types whose changes trigger a reload.
var watchedExtensions = []string{".yaml", ".yml", ".json"}

func newWatchCommand(g *globalFlags) *cobra.Command {
	flags := &WatchFlags{}
	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-resolve a document whenever its directory changes",
		Long: `Parse and resolve a document, then do it again each time a YAML or JSON
file in its directory is written, created, renamed or removed. Bursts of
changes are coalesced into one reload.

Examples:
  apigraph watch asyncapi.yaml
  apigraph watch --debounce 500ms --mode local asyncapi.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, g, flags, args[0])
		},
	}
	cmd.Flags().StringVar(&flags.Mode, "mode", "full", "resolution mode: none, local or full")
	cmd.Flags().DurationVar(&flags.Debounce, "debounce", 100*time.Millisecond, "quiet period before reloading")
	cmd.Flags().IntVar(&flags.MaxConcurrency, "max-concurrency", workspace.DefaultMaxConcurrency, "maximum concurrent fetches of external resources")
	return cmd
}

func runWatch(cmd *cobra.Command, g *globalFlags, flags *WatchFlags, path string) error {
	mode, err := parseModeFlag(flags.Mode)
	if err != nil {
		return err
	}
	if flags.Debounce <= 0 {
		return fmt.Errorf("debounce must be positive, got %v", flags.Debounce)
	}
	if err := options.ValidatePositive("max-concurrency", flags.MaxConcurrency); err != nil {
		return err
	}
	logger, err := g.logger(cmd)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(path)
	// editors often replace files, so the directory is watched rather than the file
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	logger.Info("watching", "dir", dir, "debounce", flags.Debounce)

	ctx := cmd.Context()
	opts := source.Options{Mode: mode, MaxConcurrency: flags.MaxConcurrency, Logger: logger}
	w := cmd.OutOrStdout()
	reload := func() {
		cliutil.Writef(w, "[%s] %s\n", time.Now().Format(time.TimeOnly), path)
		loaded, err := source.File(ctx, path, opts)
		if err != nil {
			cliutil.Writef(w, "  %v\n", err)
			return
		}
		if loaded.Diagnostics.Len() == 0 {
			cliutil.Writef(w, "  no diagnostics\n")
			return
		}
		cliutil.WriteDiagnostics(w, loaded.Diagnostics)
	}

	reload()
	return watchLoop(ctx, watcher.Events, watcher.Errors, flags.Debounce, logger, reload)
}

// watchLoop calls reload once a burst of relevant events has been quiet for
// debounce. It returns nil when ctx is done.
func watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, debounce time.Duration, logger parser.Logger, reload func()) error {
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if !relevant(ev) {
				continue
			}
			logger.Debug("file event", "path", ev.Name, "op", ev.Op.String())
			timer.Reset(debounce)
			fire = timer.C

		case <-fire:
			fire = nil
			reload()

		case err, ok := <-errs:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}

// relevant reports whether ev changes the content of a watched file type.
func relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return false
	}
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(base))
	for _, want := range watchedExtensions {
		if ext == want {
			return true
		}
	}
	return false
}
