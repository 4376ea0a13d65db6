package viz

import (
	"context"
	"log/slog"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"

	"github.com/san-kum/mpmsim/internal/config"
)

// Watch re-reads the config at path each time it is written and hands a
// ReloadMsg to send, until ctx is done. The parent directory is watched so
// editors that replace the file on save are still seen.
func Watch(ctx context.Context, path string, send func(tea.Msg)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, _ := filepath.Abs(event.Name)
			if name != target {
				continue
			}
			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create {
				cfg, err := config.Load(target)
				slog.Debug("config changed", "path", target, "op", event.Op.String())
				send(ReloadMsg{Config: cfg, Err: err})
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "path", target, "err", err)
		}
	}
}
