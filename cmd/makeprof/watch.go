package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/aledsdavies/makeprof/pkgs/formatter"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Re-analyse the makefile whenever it changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.File == "-" {
				return usageError("watch needs a file, not stdin", "pass --file <path>")
			}
			return a.watch(cmd.Context())
		},
	}
}

// watch prints a summary line now and again each time the file's analysis
// changes. Parse failures are reported and watching continues. It returns
// when ctx is cancelled.
func (a *app) watch(ctx context.Context) error {
	path, err := filepath.Abs(a.cfg.File)
	if err != nil {
		return ioError("error resolving makefile path", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return ioError("error starting file watcher", err)
	}
	defer func() { _ = w.Close() }()

	// Editors often replace the file rather than write it in place, so the
	// directory is watched and events are filtered by name.
	if err := w.Add(filepath.Dir(path)); err != nil {
		return ioError("error watching "+filepath.Dir(path), err)
	}
	a.logger.Info("watching", "file", path)

	var last [32]byte
	seen := false
	report := func() {
		result, _, err := a.load()
		if err != nil {
			FormatError(a.stderr, err, a.useColor())
			return
		}
		if seen && result.Digest == last {
			a.logger.Debug("analysis unchanged")
			return
		}
		seen, last = true, result.Digest

		hits, misses := a.cache.Stats()
		a.logger.Debug("cache", "hits", hits, "misses", misses, "entries", a.cache.Len())
		_, _ = fmt.Fprintf(a.stdout, "%s %s\n", hex.EncodeToString(last[:6]), formatter.FormatSummary(result.Graph))
	}

	report()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(ev.Name)
			if err != nil || name != path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				a.logger.Debug("file event", "op", ev.Op.String())
				report()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			a.logger.Warn("watch error", "error", err)
		}
	}
}
