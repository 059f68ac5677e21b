package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ogameasure/ogameasure-go/pkg/catalog"
	"github.com/ogameasure/ogameasure-go/pkg/instrument"
	"github.com/ogameasure/ogameasure-go/pkg/log"
	"github.com/ogameasure/ogameasure-go/pkg/store"
)

// PruneInterval is how often Run applies the retention.
const PruneInterval = time.Hour

// Options carries the bridge's runtime dependencies.
type Options struct {
	// Catalog resolves model keys (default: catalog.Default merged with
	// Config.Catalog).
	Catalog *catalog.Catalog

	// Logger receives operational messages (optional).
	Logger *slog.Logger

	// Capture receives protocol capture events (optional).
	Capture log.Logger
}

// Bridge owns the instruments, the history and the broker connection.
type Bridge struct {
	config    Config
	logger    *slog.Logger
	drivers   map[string]instrument.Driver
	store     *store.Store
	publisher *Publisher
	poller    *Poller
}

// Open opens every configured instrument, the store and the broker. On
// failure everything opened so far is closed again.
func Open(ctx context.Context, config Config, opts Options) (_ *Bridge, err error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	cat := opts.Catalog
	if cat == nil {
		cat = catalog.Default()
		if config.Catalog != "" {
			extra, err := catalog.LoadFile(config.Catalog)
			if err != nil {
				return nil, err
			}
			cat = cat.Merge(extra)
		}
	}

	b := &Bridge{config: config, logger: opts.Logger, drivers: make(map[string]instrument.Driver)}
	defer func() {
		if err != nil {
			b.Close()
		}
	}()

	callers := make(map[string]Caller, len(config.Instruments))
	var jobs []*Job
	for _, ic := range config.Instruments {
		model, ok := cat.Lookup(ic.Model)
		if !ok {
			return nil, fmt.Errorf("instrument %s: unknown model %q", ic.Name, ic.Model)
		}
		d, err := instrument.Open(ctx, ic.Resource, model, instrument.Config{Logger: opts.Capture})
		if err != nil {
			return nil, fmt.Errorf("instrument %s: %w", ic.Name, err)
		}
		b.drivers[ic.Name] = d
		callers[ic.Name] = d
		for _, pc := range ic.Polls {
			job, err := NewJob(ic.Name, pc)
			if err != nil {
				return nil, err
			}
			jobs = append(jobs, job)
		}
		b.info("instrument open", "name", ic.Name, "model", model.Key, "resource", d.Transport().Resource())
	}

	var sinks []Sink
	if config.Store != "" {
		if b.store, err = store.Open(config.Store, store.DefaultConfig()); err != nil {
			return nil, err
		}
		sinks = append(sinks, b.store)
	}
	if config.Broker.URL != "" {
		if b.publisher, err = Connect(config.Broker); err != nil {
			return nil, err
		}
		sinks = append(sinks, b.publisher)
		b.info("broker connected", "url", config.Broker.URL)
	}

	if b.poller, err = NewPoller(jobs, callers, sinks, opts.Logger); err != nil {
		return nil, err
	}
	return b, nil
}

// Driver returns the driver of the named instrument.
func (b *Bridge) Driver(name string) (instrument.Driver, bool) {
	d, ok := b.drivers[name]
	return d, ok
}

// Store returns the reading history, nil when disabled.
func (b *Bridge) Store() *store.Store { return b.store }

// Poller returns the job scheduler.
func (b *Bridge) Poller() *Poller { return b.poller }

// Run polls on schedule until ctx is done, pruning the history when a
// retention is set.
func (b *Bridge) Run(ctx context.Context) error {
	if b.store != nil && b.config.Retention > 0 {
		go b.pruneLoop(ctx)
	}
	err := b.poller.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (b *Bridge) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(PruneInterval)
	defer ticker.Stop()
	for {
		b.prune(time.Now())
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (b *Bridge) prune(now time.Time) {
	n, err := b.store.Prune(now.Add(-b.config.Retention))
	if err != nil {
		b.warn("prune failed", "error", err)
		return
	}
	if n > 0 {
		b.info("pruned readings", "count", n)
	}
}

// Close closes the instruments, the broker connection and the store.
func (b *Bridge) Close() error {
	var errs []error
	for name, d := range b.drivers {
		if err := d.Close(); err != nil {
			errs = append(errs, fmt.Errorf("instrument %s: %w", name, err))
		}
	}
	if b.publisher != nil {
		errs = append(errs, b.publisher.Close())
	}
	if b.store != nil {
		errs = append(errs, b.store.Close())
	}
	return errors.Join(errs...)
}

func (b *Bridge) info(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Info(msg, args...)
	}
}

func (b *Bridge) warn(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Warn(msg, args...)
	}
}
