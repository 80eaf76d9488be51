package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

// Sharer opens the external share flow for a delivered file reference.
// The default implementation only logs; the OS chooser is a platform
// collaborator outside this module.
type Sharer interface {
	Share(ref string) error
}

// LogSharer logs the share request instead of opening a chooser.
type LogSharer struct{}

func (LogSharer) Share(ref string) error {
	log.WithPrefix("export").Info("share requested", "file", ref)
	return nil
}

// SharedIndex registers entries in a platform-managed shared index
// (the modern storage-API era). CreateEntry returns a write sink for the
// registered entry's content.
type SharedIndex interface {
	CreateEntry(name, contentType, directory string) (io.WriteCloser, error)
}

// writeDocument writes doc to path, fsyncs, and closes before returning,
// so later readers (promotion copy, share action) never observe a
// partial file. An existing file at path is replaced.
func writeDocument(path, doc string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if _, err := f.WriteString(doc); err != nil {
		f.Close()
		return fmt.Errorf("failed to write export file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush export file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close export file: %w", err)
	}
	return nil
}

// promotedName builds the downloads-visible filename. The timestamp
// suffix avoids collisions across repeated exports.
func promotedName(format Format, now time.Time) string {
	return fmt.Sprintf("favorites-%s.%s", now.Format("20060102-150405"), format.Ext())
}

// promote copies the delivered file into the shared downloads location,
// branching on the storage-API era. Best-effort: any failure is logged
// and swallowed, never surfaced to the export outcome.
func (o *Orchestrator) promote(path string, format Format) {
	name := promotedName(format, time.Now())

	var err error
	if o.index != nil && !o.cfg.LegacyDownloads {
		err = o.promoteModern(path, name, format)
	} else {
		err = o.promoteLegacy(path, name)
	}
	if err != nil {
		o.logger.Warn("downloads promotion failed", "file", path, "err", err)
		return
	}
	o.logger.Debug("promoted export to downloads", "name", name)
}

// promoteModern registers a new entry in the shared index and streams the
// file's bytes into its write sink.
func (o *Orchestrator) promoteModern(path, name string, format Format) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	w, err := o.index.CreateEntry(name, format.ContentType(), "Downloads")
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, src); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// promoteLegacy resolves the public downloads directory directly and
// stream-copies the file into it.
func (o *Orchestrator) promoteLegacy(path, name string) error {
	dir := o.cfg.DownloadsDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		dir = filepath.Join(home, "Downloads")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
