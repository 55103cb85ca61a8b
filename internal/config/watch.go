package config

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watch re-reads the profile at path every time the file is written and
// hands the freshly validated Profile to onChange. It blocks until ctx
// is cancelled, so operators can retune chart parameters (λ, k/h, spec
// limits) without restarting the monitor.
//
// A reload that fails validation — broken YAML, an out-of-domain chart
// parameter — is logged and discarded; onChange only ever sees profiles
// the engines will accept.
func Watch(ctx context.Context, path string, onChange func(*Profile)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	slog.Info("config: watching profile", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Writes and creates both count: editors typically save via
			// rename, which shows up as a create of the watched path.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			profile, err := Load(path)
			if err != nil {
				slog.Error("config: rejecting profile edit, previous profile stays active",
					"path", path, "err", err)
				continue
			}

			slog.Info("config: profile reloaded", "path", path, "variables", len(profile.Variables))
			onChange(profile)

			// A rename-style save replaced the inode; watch the new one.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}
