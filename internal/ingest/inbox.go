// Package ingest publishes item files dropped into an inbox directory by the
// item generation collaborator.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/fsnotify/fsnotify"

	"github.com/mind-engage/mindengage-psy/internal/bank"
	"github.com/mind-engage/mindengage-psy/internal/formats"
)

const (
	processedDir = "processed"
	rejectedDir  = "rejected"
)

// Inbox watches a directory for bank files. Every file is ingested once: on
// success it moves to processed/, on failure to rejected/.
type Inbox struct {
	dir  string
	bank *bank.Bank
}

func NewInbox(dir string, b *bank.Bank) *Inbox {
	return &Inbox{dir: dir, bank: b}
}

// Start scans files already present, then follows new ones until ctx ends.
func (in *Inbox) Start(ctx context.Context) error {
	if err := in.ensureDirs(); err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(in.dir); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", in.dir, err)
	}
	if err := in.Scan(ctx); err != nil {
		slog.Warn("initial inbox scan failed", "dir", in.dir, "error", err)
	}
	go in.run(ctx, w)
	return nil
}

func (in *Inbox) run(ctx context.Context, w *fsnotify.Watcher) {
	defer w.Close()
	slog.Info("inbox watcher started", "dir", in.dir)
	for {
		select {
		case <-ctx.Done():
			slog.Info("inbox watcher stopped")
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			// Producers rename finished files in; Write events would see
			// partial content.
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				in.handle(ctx, ev.Name)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			slog.Error("inbox watcher error", "error", err)
		}
	}
}

// Scan ingests every supported file currently in the inbox, in name order.
func (in *Inbox) Scan(ctx context.Context) error {
	if err := in.ensureDirs(); err != nil {
		return err
	}
	entries, err := os.ReadDir(in.dir)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, n := range names {
		in.handle(ctx, filepath.Join(in.dir, n))
	}
	return nil
}

func (in *Inbox) ensureDirs() error {
	for _, sub := range []string{processedDir, rejectedDir} {
		if err := os.MkdirAll(filepath.Join(in.dir, sub), 0o755); err != nil {
			return err
		}
	}
	return nil
}

func (in *Inbox) handle(ctx context.Context, path string) {
	if !formats.Supported(path) {
		return
	}
	fi, err := os.Stat(path)
	if err != nil {
		// Already moved, or the rename event was for the old name.
		return
	}
	if fi.Size() == 0 {
		// Still being written in place; the next Scan picks it up.
		return
	}
	n, err := in.Ingest(ctx, path)
	dest := processedDir
	if err != nil {
		dest = rejectedDir
		slog.Warn("inbox file rejected", "file", path, "error", err)
	} else {
		slog.Info("inbox file ingested", "file", path, "items", n)
	}
	if err := os.Rename(path, filepath.Join(in.dir, dest, filepath.Base(path))); err != nil {
		slog.Error("failed to move inbox file", "file", path, "error", err)
	}
}

// Ingest decodes one file and appends its items to the bank as a batch.
func (in *Inbox) Ingest(ctx context.Context, path string) (int, error) {
	bf, err := formats.ReadFile(path)
	if err != nil {
		return 0, err
	}
	items, err := bf.ItemList()
	if err != nil {
		return 0, err
	}
	if err := in.bank.Add(ctx, items...); err != nil {
		return 0, err
	}
	return len(items), nil
}
