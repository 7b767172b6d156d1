// Package api contains file helpers shared by the configuration kinds, and
// the versioned API types in its subpackages.
package api

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rdecheck/rdecheck/pkg/yaml"
)

// appName is the directory name used below the user's config directory.
const appName = "rdecheck"

var (
	ErrIsDir      = errors.New("path is a directory")
	ErrNotRegular = errors.New("not a regular file")
)

// ConfigDir returns the rdecheck directory below $XDG_CONFIG_HOME, falling
// back to ~/.config and then to the temp directory.
func ConfigDir() string {
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		return filepath.Join(xdgHome, appName)
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".config", appName)
	}

	dir := filepath.Join(os.TempDir(), appName)

	slog.Warn("could not determine user config directory, using temp path",
		slog.String("path", dir),
		slog.Any("error", err),
	)

	return dir
}

// GetConfigPath returns the path of filename in [ConfigDir].
func GetConfigPath(filename string) string {
	return filepath.Join(ConfigDir(), filename)
}

// stat reports whether path is an existing file that can be read. Missing
// paths are not an error; directories and devices are.
func stat(path string) (bool, error) {
	info, err := os.Stat(path)

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("stat file: %w", err)
	case info.IsDir():
		return false, fmt.Errorf("%s: %w", path, ErrIsDir)
	case !info.Mode().IsRegular() && info.Mode()&fs.ModeNamedPipe == 0:
		return false, fmt.Errorf("%s: %w", path, ErrNotRegular)
	}

	return true, nil
}

// ReadFile reads a regular file or named pipe. A missing file yields an
// error wrapping [fs.ErrNotExist].
func ReadFile(path string) ([]byte, error) {
	ok, err := stat(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, fs.ErrNotExist)
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: Paths come from the user.
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// MarshalYAML serializes an object to YAML bytes.
func MarshalYAML(obj any) ([]byte, error) {
	var b bytes.Buffer

	enc := yaml.NewEncoder(&b)

	err := enc.Encode(obj)
	if err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}

	err = enc.Close()
	if err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}

	return b.Bytes(), nil
}

// WriteIfNotExists writes data to path, creating parent directories. An
// existing file is left untouched.
func WriteIfNotExists(path string, data []byte) error {
	return WriteDefaultFile(path, data, false, "file")
}

// WriteDefaultFile writes data to path unless a file is already there. With
// force, an existing file is first renamed to a timestamped ".old" backup.
func WriteDefaultFile(path string, data []byte, force bool, kind string) error {
	exists, err := stat(path)
	if err != nil {
		return err
	}

	if exists && !force {
		slog.Debug("file already exists, skipping write",
			slog.String("type", kind),
			slog.String("path", path),
		)

		return nil
	}

	err = os.MkdirAll(filepath.Dir(path), 0o700)
	if err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	if exists {
		backup := backupPath(path, time.Now())
		slog.Info("backing up existing file",
			slog.String("type", kind),
			slog.String("path", backup),
		)

		err = os.Rename(path, backup)
		if err != nil {
			return fmt.Errorf("back up %s file: %w", kind, err)
		}
	}

	slog.Info("write default file",
		slog.String("type", kind),
		slog.String("path", path),
	)

	err = os.WriteFile(path, data, 0o600)
	if err != nil {
		return fmt.Errorf("write %s file: %w", kind, err)
	}

	return nil
}

func backupPath(path string, now time.Time) string {
	return fmt.Sprintf("%s.%d.old", path, now.UnixNano())
}

// FindUp looks for the first of names in dir and then in each parent
// directory. If dir is a file, the search starts in its directory. It
// returns an empty path when nothing is found.
func FindUp(dir string, names ...string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("get absolute path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("stat path: %w", err)
	}

	if !info.IsDir() {
		abs = filepath.Dir(abs)
	}

	for {
		for _, name := range names {
			candidate := filepath.Join(abs, name)

			ok, err := stat(candidate)
			if err == nil && ok {
				return candidate, nil
			}
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", nil
		}

		abs = parent
	}
}
