package cleanup

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	camera "github.com/mpoegel/hikgrab/pkg/camera"
	imaging "github.com/mpoegel/hikgrab/pkg/imaging"
)

type Options struct {
	SaveDir   string
	Prefix    string
	OlderThan time.Duration
	DryRun    bool
}

func Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cleanup", flag.ExitOnError)
	opt := Options{}

	fs.StringVar(&opt.SaveDir, "d", ".", "directory in which to delete saved pictures")
	fs.StringVar(&opt.Prefix, "prefix", camera.DefaultPrefix, "only consider pictures with this file name prefix")
	fs.DurationVar(&opt.OlderThan, "s", 24*7*time.Hour, "delete pictures older than this duration from now")
	fs.BoolVar(&opt.DryRun, "n", false, "only log what would be removed")

	if err := fs.Parse(args); err != nil {
		return err
	}

	_, err := cleanup(opt, time.Now())
	return err
}

// cleanup removes pictures captured before now-OlderThan. The capture time
// comes from the EXIF DateTime; files without one fall back to mtime.
func cleanup(opt Options, now time.Time) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(opt.SaveDir, opt.Prefix+"*.jpg"))
	if err != nil {
		return nil, err
	}

	cutoffTime := now.Add(-1 * opt.OlderThan)
	var removed []string
	for _, match := range matches {
		slog.Debug("found file", "file", match)
		ts, err := captureTime(match)
		if err != nil {
			slog.Error("failed to stat file", "file", match, "err", err)
			continue
		}
		if !cutoffTime.After(ts) {
			continue
		}
		if opt.DryRun {
			slog.Info("would remove file", "file", match, "captured", ts)
			removed = append(removed, match)
			continue
		}
		if err := os.Remove(match); err != nil {
			slog.Error("failed to remove file", "file", match, "err", err)
		} else {
			slog.Info("file removed", "file", match)
			removed = append(removed, match)
		}
	}

	return removed, nil
}

func captureTime(path string) (time.Time, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return time.Time{}, err
	}
	ts, err := imaging.ReadDateTime(data)
	if err == nil {
		return ts, nil
	}
	slog.Warn("no capture timestamp, using modification time", "file", path, "err", err)

	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}
