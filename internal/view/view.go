// Package view holds rendering collaborators for the storefront. None of them
// feed anything back into cart state.
package view

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"sweetshop/internal/models"
	"sweetshop/internal/util"

	"go.uber.org/zap"
)

// Renderer receives the catalog once after loading and the cart after every
// mutation
type Renderer interface {
	RenderCatalog(items []models.Item)
	RenderCart(lines []models.CartLine, total int64)
}

// CartView is the last cart state a Recorder saw
type CartView struct {
	Lines []models.CartLine `json:"lines"`
	Total int64             `json:"total"`
}

// Recorder keeps the most recent catalog and cart it was asked to render
type Recorder struct {
	mu      sync.RWMutex
	catalog []models.Item
	cart    CartView
	renders int
}

// NewRecorder creates a recorder showing an empty cart
func NewRecorder() *Recorder {
	return &Recorder{cart: CartView{Lines: []models.CartLine{}}}
}

func (r *Recorder) RenderCatalog(items []models.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.catalog = items
}

func (r *Recorder) RenderCart(lines []models.CartLine, total int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cart = CartView{Lines: lines, Total: total}
	r.renders++
}

// Catalog returns the last rendered catalog
func (r *Recorder) Catalog() []models.Item {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.catalog
}

// Cart returns the last rendered cart
func (r *Recorder) Cart() CartView {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cart
}

// Renders returns how many times the cart was rendered
func (r *Recorder) Renders() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.renders
}

// TextRenderer writes a plain text listing to w
type TextRenderer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTextRenderer creates a renderer writing to w
func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{w: w}
}

func (t *TextRenderer) RenderCatalog(items []models.Item) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = io.WriteString(t.w, FormatCatalog(items))
}

func (t *TextRenderer) RenderCart(lines []models.CartLine, total int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = io.WriteString(t.w, FormatCart(lines, total))
}

// FormatCatalog renders one "<id>) <name> - $<price>" line per item
func FormatCatalog(items []models.Item) string {
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "%d) %s - $%d\n", item.ID, item.Name, item.Price)
	}
	return b.String()
}

// FormatCart renders one "<name> x<qty> - $<subtotal>" line per cart line
// followed by the total
func FormatCart(lines []models.CartLine, total int64) string {
	var b strings.Builder
	for _, line := range lines {
		fmt.Fprintf(&b, "%s x%d - $%d\n", line.Name, line.Quantity, line.Subtotal())
	}
	fmt.Fprintf(&b, "Total: $%d\n", total)
	return b.String()
}

// LogRenderer writes renders to the debug log
type LogRenderer struct {
	logger *zap.Logger
}

// NewLogRenderer creates a renderer tagged with the browsing session id
func NewLogRenderer(sessionID string) *LogRenderer {
	return &LogRenderer{logger: util.GetLogger().With(zap.String("session_id", sessionID))}
}

func (l *LogRenderer) RenderCatalog(items []models.Item) {
	l.logger.Debug("Catalog rendered", zap.Int("items", len(items)))
}

func (l *LogRenderer) RenderCart(lines []models.CartLine, total int64) {
	l.logger.Debug("Cart rendered", zap.Int("lines", len(lines)), zap.Int64("total", total))
}

// Multi fans renders out to every renderer in order
type Multi []Renderer

func (m Multi) RenderCatalog(items []models.Item) {
	for _, r := range m {
		r.RenderCatalog(items)
	}
}

func (m Multi) RenderCart(lines []models.CartLine, total int64) {
	for _, r := range m {
		r.RenderCart(lines, total)
	}
}
