// Package export serializes the saved-item collection into one of five
// document formats and delivers the result, either to an app-private file
// followed by a share flow, or directly to a caller-supplied destination.
package export

import (
	"database/sql"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/hnreader/hnfav/internal/config"
	"github.com/hnreader/hnfav/internal/db"
	"github.com/hnreader/hnfav/internal/errors"
	"github.com/hnreader/hnfav/internal/item"
)

// exportFileBase is the fixed per-run filename in the export directory;
// a repeated export of the same format replaces the previous file.
const exportFileBase = "favorites"

// Orchestrator runs the acquire -> serialize -> deliver -> notify export
// pipelines. It performs its own ad-hoc store queries and is independent
// of the cache manager's cursor.
type Orchestrator struct {
	db        *sql.DB
	cfg       *config.Config
	exportDir string
	notifier  Notifier
	sharer    Sharer
	index     SharedIndex
	logger    *log.Logger

	wg sync.WaitGroup
}

// New creates an Orchestrator delivering ephemeral files into exportDir.
// A nil notifier logs progress; a nil sharer logs share requests; a nil
// index forces the legacy promotion branch.
func New(database *sql.DB, cfg *config.Config, exportDir string, notifier Notifier, sharer Sharer, index SharedIndex) *Orchestrator {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := log.WithPrefix("export")
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	if sharer == nil {
		sharer = LogSharer{}
	}
	return &Orchestrator{
		db:        database,
		cfg:       cfg,
		exportDir: exportDir,
		notifier:  notifier,
		sharer:    sharer,
		index:     index,
		logger:    logger,
	}
}

// ExportToShare asynchronously exports items matching filter into format,
// delivers the document to the app-private export directory, and reports
// the outcome through the notifier. On success only, it independently
// attempts downloads promotion and, after a short delay, the share action;
// neither side effect can retract the already-delivered success.
func (o *Orchestrator) ExportToShare(filter string, format Format) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.runShare(filter, format)
	}()
}

// ExportToDestination asynchronously exports items matching filter into
// format and writes the document to dst, an already-resolved writable
// sink. Outcome is reported through the notifier only; there is no
// promotion or share side effect.
func (o *Orchestrator) ExportToDestination(filter string, format Format, dst io.Writer) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.runDestination(filter, format, dst)
	}()
}

// ExportAll exports items matching filter into every format concurrently,
// delivering each document to the export directory. Each pipeline holds
// its own format value, so concurrent serializations cannot interfere.
// Returns the delivered file references in AllFormats order.
func (o *Orchestrator) ExportAll(filter string) ([]string, error) {
	items, err := o.acquire(filter)
	if err != nil {
		return nil, err
	}

	formats := AllFormats()
	refs := make([]string, len(formats))
	var g errgroup.Group
	for i, format := range formats {
		g.Go(func() error {
			doc, err := Serialize(format, items, time.Now())
			if err != nil {
				return errors.NewInternal(err)
			}
			ref := o.exportPath(format)
			if err := writeDocument(ref, doc); err != nil {
				return errors.NewDeliveryFailed(err)
			}
			refs[i] = ref
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return refs, nil
}

// ExportNow runs the share pipeline synchronously and returns the
// delivered file reference. Notifier events and the post-success side
// effects fire exactly as with ExportToShare; only the completion of the
// delivery itself is awaited. Intended for command-line and tool callers
// that need the outcome as a return value.
func (o *Orchestrator) ExportNow(filter string, format Format) (string, error) {
	return o.runShare(filter, format)
}

// ExportNowTo runs the destination pipeline synchronously, writing the
// document to dst, and returns the pipeline error.
func (o *Orchestrator) ExportNowTo(filter string, format Format, dst io.Writer) error {
	return o.runDestination(filter, format, dst)
}

// Wait blocks until all in-flight pipelines and their side effects have
// finished. Intended for command-line callers and tests.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) runShare(filter string, format Format) (string, error) {
	o.notifier.Started()

	items, err := o.acquire(filter)
	if err != nil {
		o.logger.Warn("export aborted", "err", err)
		o.notifier.Failed()
		return "", err
	}

	doc, err := Serialize(format, items, time.Now())
	if err != nil {
		o.logger.Error("serialization failed", "format", format, "err", err)
		o.notifier.Failed()
		return "", errors.NewInternal(err)
	}

	ref := o.exportPath(format)
	if err := writeDocument(ref, doc); err != nil {
		deliveryErr := errors.NewDeliveryFailed(err)
		o.logger.Error("delivery failed", "err", deliveryErr)
		o.notifier.Failed()
		return "", deliveryErr
	}

	o.notifier.Succeeded(ref)

	// Side effects run only after the write is flushed and the success
	// notification is out; they are independent of each other.
	o.wg.Add(2)
	go func() {
		defer o.wg.Done()
		o.promote(ref, format)
	}()
	go func() {
		defer o.wg.Done()
		time.Sleep(o.shareDelay())
		if err := o.sharer.Share(ref); err != nil {
			o.logger.Warn("share action failed", "file", ref, "err", err)
		}
	}()

	return ref, nil
}

func (o *Orchestrator) runDestination(filter string, format Format, dst io.Writer) error {
	o.notifier.Started()

	items, err := o.acquire(filter)
	if err != nil {
		o.logger.Warn("export aborted", "err", err)
		o.notifier.Failed()
		return err
	}

	doc, err := Serialize(format, items, time.Now())
	if err != nil {
		o.logger.Error("serialization failed", "format", format, "err", err)
		o.notifier.Failed()
		return errors.NewInternal(err)
	}

	if _, err := io.WriteString(dst, doc); err != nil {
		deliveryErr := errors.NewDeliveryFailed(err)
		o.logger.Error("delivery failed", "err", deliveryErr)
		o.notifier.Failed()
		return deliveryErr
	}

	o.notifier.Succeeded("")
	return nil
}

// acquire queries the store for filter and collects the ordered snapshot.
// A query failure and an empty result both collapse into AcquireFailed;
// the reason distinguishes them for logs and tests.
func (o *Orchestrator) acquire(filter string) ([]item.Item, error) {
	rs, err := db.QueryByTitle(o.db, filter)
	if err != nil {
		return nil, errors.NewAcquireFailed(fmt.Sprintf("query failed: %v", err))
	}
	defer rs.Close()

	items, err := rs.Items()
	if err != nil {
		return nil, errors.NewAcquireFailed(fmt.Sprintf("row extraction failed: %v", err))
	}
	if len(items) == 0 {
		return nil, errors.NewAcquireFailed("no items matched filter")
	}
	return items, nil
}

func (o *Orchestrator) exportPath(format Format) string {
	return filepath.Join(o.exportDir, exportFileBase+"."+format.Ext())
}

func (o *Orchestrator) shareDelay() time.Duration {
	ms := o.cfg.ShareDelayMS
	if ms <= 0 {
		ms = config.DefaultShareDelayMS
	}
	return time.Duration(ms) * time.Millisecond
}
