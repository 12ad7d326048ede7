package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	zlog "github.com/rs/zerolog/log"
)

const watchDebounce = 200 * time.Millisecond

// Watch reloads the configuration file whenever it changes and hands the new
// configuration to onChange. Invalid edits are logged and skipped.
// The parent directory is watched so that editors replacing the file are seen.
// Watching stops when ctx is done.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(err, "failed to resolve config path")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create watcher")
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return errors.Wrapf(err, "failed to watch %s", filepath.Dir(abs))
	}

	go func() {
		defer watcher.Close()

		var debounce <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
					debounce = time.After(watchDebounce)
				}

			case <-debounce:
				debounce = nil
				cfg, err := Load(abs)
				if err != nil {
					zlog.Warn().Err(err).Msgf("config: reload failed, keeping current config: path=%s", abs)
					continue
				}
				zlog.Info().Msgf("config: reloaded: path=%s", abs)
				onChange(cfg)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				zlog.Error().Err(err).Msg("config: watcher error")
			}
		}
	}()

	return nil
}
