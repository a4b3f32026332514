// Package catalog holds the purchasable items for the running storefront.
//
// The catalog is filled once from a Source before the first render. A failed
// load leaves the previous contents in place (initially empty) and is reported
// through the logger and metrics; it never stops the process.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"sweetshop/internal/models"
	"sweetshop/internal/util"

	"go.uber.org/zap"
)

var (
	// ErrDataSourceUnavailable wraps every failed load
	ErrDataSourceUnavailable = errors.New("catalog data source unavailable")
	// ErrMalformedSource is returned when the source answered with unusable data
	ErrMalformedSource = errors.New("malformed catalog data")
)

// Source provides the ordered list of items
type Source interface {
	Fetch(ctx context.Context) ([]models.Item, error)
	Name() string
}

// Catalog is the ordered, id-keyed set of items
type Catalog struct {
	mu     sync.RWMutex
	items  []models.Item
	byID   map[int64]int
	source Source
	logger *zap.Logger
}

// New creates an empty catalog backed by source
func New(source Source) *Catalog {
	return &Catalog{
		byID:   make(map[int64]int),
		source: source,
		logger: util.GetLogger(),
	}
}

// Load fetches the items from the source and replaces the catalog contents.
// On failure the catalog keeps what it had and the returned error matches
// ErrDataSourceUnavailable.
func (c *Catalog) Load(ctx context.Context) error {
	ctx, span := util.StartSpan(ctx, "Catalog.Load")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CatalogLoadLatency.Observe(time.Since(start).Seconds())
	}()

	items, err := c.source.Fetch(ctx)
	if err == nil {
		err = validate(items)
	}
	if err != nil {
		reason := "unavailable"
		if errors.Is(err, ErrMalformedSource) {
			reason = "malformed"
		}
		util.CatalogLoadFailuresTotal.WithLabelValues(reason).Inc()
		span.RecordError(err)

		c.logger.Error("Failed to load catalog",
			zap.String("source", c.source.Name()),
			zap.String("reason", reason),
			zap.Error(err))

		return fmt.Errorf("%w: %w", ErrDataSourceUnavailable, err)
	}

	byID := make(map[int64]int, len(items))
	for i, item := range items {
		byID[item.ID] = i
	}

	c.mu.Lock()
	c.items = items
	c.byID = byID
	c.mu.Unlock()

	util.CatalogItems.Set(float64(len(items)))
	c.logger.Info("Catalog loaded",
		zap.String("source", c.source.Name()),
		zap.Int("count", len(items)))

	return nil
}

// FindByID looks up an item by its identifier
func (c *Catalog) FindByID(id int64) (models.Item, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.byID[id]
	if !ok {
		return models.Item{}, false
	}
	return c.items[i], true
}

// Items returns a copy of the items in source order
func (c *Catalog) Items() []models.Item {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Item, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of loaded items
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func validate(items []models.Item) error {
	seen := make(map[int64]struct{}, len(items))
	for _, item := range items {
		if _, dup := seen[item.ID]; dup {
			return fmt.Errorf("%w: duplicate item id %d", ErrMalformedSource, item.ID)
		}
		seen[item.ID] = struct{}{}

		if item.Price < 0 {
			return fmt.Errorf("%w: negative price for item %d", ErrMalformedSource, item.ID)
		}
	}
	return nil
}
