// Package cart implements the shopping cart state machine.
//
// A cart moves between Empty and NonEmpty through AddItem and RemoveItem;
// Checkout takes a NonEmpty cart back to Empty. A line exists for an item
// exactly when its quantity is at least one.
package cart

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"sweetshop/internal/models"
	"sweetshop/internal/util"

	"go.uber.org/zap"
)

var (
	// ErrUnknownItem means the caller passed an id the catalog never surfaced
	ErrUnknownItem = errors.New("unknown item")
	// ErrEmptyCart is returned by Checkout when there is nothing to purchase
	ErrEmptyCart = errors.New("cart is empty")
)

// ItemFinder resolves catalog items; satisfied by *catalog.Catalog
type ItemFinder interface {
	FindByID(id int64) (models.Item, bool)
}

// Refresher is called after every mutation with the lines in insertion order
// and the cart total. It runs inside the manager's critical section and must
// not call back into the manager.
type Refresher interface {
	RenderCart(lines []models.CartLine, total int64)
}

// Manager owns a single cart
type Manager struct {
	mu     sync.Mutex
	finder ItemFinder
	view   Refresher
	lines  map[int64]*models.CartLine
	order  []int64
	logger *zap.Logger
	now    func() time.Time
}

// NewManager creates an empty cart. view may be nil.
func NewManager(finder ItemFinder, view Refresher) *Manager {
	return &Manager{
		finder: finder,
		view:   view,
		lines:  make(map[int64]*models.CartLine),
		logger: util.GetLogger(),
		now:    time.Now,
	}
}

// AddItem adds one unit of the item. The first unit copies the item's current
// name and price into a new line; later units only bump the quantity.
func (m *Manager) AddItem(id int64) error {
	item, ok := m.finder.FindByID(id)
	if !ok {
		m.logger.Error("Add to cart with unknown item id", zap.Int64("item_id", id))
		return fmt.Errorf("%w: %d", ErrUnknownItem, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if line, exists := m.lines[id]; exists {
		line.Quantity++
	} else {
		m.lines[id] = &models.CartLine{
			ItemID:    item.ID,
			Name:      item.Name,
			UnitPrice: item.Price,
			Quantity:  1,
		}
		m.order = append(m.order, id)
	}

	util.CartItemsAddedTotal.Inc()
	m.refreshLocked()
	return nil
}

// RemoveItem takes one unit of the item out of the cart, dropping the line
// when its quantity reaches zero. Removing an absent item is a no-op.
func (m *Manager) RemoveItem(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if line, exists := m.lines[id]; exists {
		line.Quantity--
		if line.Quantity <= 0 {
			m.deleteLocked(id)
		}
		util.CartItemsRemovedTotal.Inc()
	}

	m.refreshLocked()
}

// Total returns the sum of quantity times unit price over all lines
func (m *Manager) Total() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalLocked()
}

// Lines returns a copy of the cart lines in insertion order
func (m *Manager) Lines() []models.CartLine {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.linesLocked()
}

// Quantity returns the quantity held for id, zero when absent
func (m *Manager) Quantity(id int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if line, ok := m.lines[id]; ok {
		return line.Quantity
	}
	return 0
}

// Len returns the number of distinct lines
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}

// IsEmpty reports whether the cart has no lines
func (m *Manager) IsEmpty() bool {
	return m.Len() == 0
}

// Checkout clears a non-empty cart in one step and returns what was bought.
// An empty cart yields ErrEmptyCart and stays as it is. The view is refreshed
// either way.
func (m *Manager) Checkout() (models.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.order) == 0 {
		util.CheckoutsTotal.WithLabelValues("empty").Inc()
		m.refreshLocked()
		return models.Receipt{}, ErrEmptyCart
	}

	receipt := models.Receipt{
		Lines:      m.linesLocked(),
		Total:      m.totalLocked(),
		CheckedOut: m.now(),
	}

	m.lines = make(map[int64]*models.CartLine)
	m.order = nil

	util.CheckoutsTotal.WithLabelValues("success").Inc()
	util.CheckoutAmount.Observe(float64(receipt.Total))

	m.refreshLocked()
	return receipt, nil
}

func (m *Manager) deleteLocked(id int64) {
	delete(m.lines, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

func (m *Manager) linesLocked() []models.CartLine {
	out := make([]models.CartLine, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.lines[id])
	}
	return out
}

func (m *Manager) totalLocked() int64 {
	var total int64
	for _, line := range m.lines {
		total += line.Subtotal()
	}
	return total
}

func (m *Manager) refreshLocked() {
	if m.view == nil {
		return
	}
	m.view.RenderCart(m.linesLocked(), m.totalLocked())
}
