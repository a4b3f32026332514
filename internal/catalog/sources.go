package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"sweetshop/internal/models"
)

// record is the wire shape of one catalog entry. The Spanish keys come from
// the original productos.json and are accepted as aliases.
type record struct {
	ID     *int64       `json:"id"`
	Name   string       `json:"name"`
	Nombre string       `json:"nombre"`
	Price  *json.Number `json:"price"`
	Precio *json.Number `json:"precio"`
}

// DecodeItems parses a JSON array of {id, name, price} records
func DecodeItems(r io.Reader) ([]models.Item, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var records []record
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSource, err)
	}

	items := make([]models.Item, 0, len(records))
	for i, rec := range records {
		if rec.ID == nil {
			return nil, fmt.Errorf("%w: record %d has no id", ErrMalformedSource, i)
		}

		name := rec.Name
		if name == "" {
			name = rec.Nombre
		}
		if name == "" {
			return nil, fmt.Errorf("%w: record %d has no name", ErrMalformedSource, i)
		}

		price := rec.Price
		if price == nil {
			price = rec.Precio
		}
		if price == nil {
			return nil, fmt.Errorf("%w: record %d has no price", ErrMalformedSource, i)
		}

		amount, err := price.Int64()
		if err != nil {
			return nil, fmt.Errorf("%w: record %d price %q is not a whole amount", ErrMalformedSource, i, price.String())
		}

		items = append(items, models.Item{ID: *rec.ID, Name: name, Price: amount})
	}

	return items, nil
}

// FileSource reads items from a JSON file on disk
type FileSource struct {
	Path string
}

func (s *FileSource) Name() string { return "file:" + s.Path }

// Fetch reads and decodes the file
func (s *FileSource) Fetch(ctx context.Context) ([]models.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	return DecodeItems(bytes.NewReader(data))
}

// HTTPSource fetches items from a JSON endpoint
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s *HTTPSource) Name() string { return "http:" + s.URL }

// Fetch performs a single GET; there is no retry
func (s *HTTPSource) Fetch(ctx context.Context) ([]models.Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog endpoint returned status %d", resp.StatusCode)
	}

	return DecodeItems(resp.Body)
}

// SimulatedSource answers with a fixed list after a delay, standing in for a
// slow remote server
type SimulatedSource struct {
	Delay time.Duration
	Items []models.Item
}

func (s *SimulatedSource) Name() string { return "simulated" }

// Fetch waits for Delay, or until ctx is done
func (s *SimulatedSource) Fetch(ctx context.Context) ([]models.Item, error) {
	timer := time.NewTimer(s.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	items := s.Items
	if items == nil {
		items = DefaultItems()
	}

	out := make([]models.Item, len(items))
	copy(out, items)
	return out, nil
}

// DefaultItems is the built-in sweet shop assortment
func DefaultItems() []models.Item {
	return []models.Item{
		{ID: 1, Name: "Dulce de leche", Price: 1000},
		{ID: 2, Name: "Alfajor", Price: 500},
		{ID: 3, Name: "Chupetín", Price: 150},
		{ID: 4, Name: "Turrón", Price: 100},
		{ID: 5, Name: "Bon o Bon", Price: 300},
		{ID: 6, Name: "Caramelos Ácidos", Price: 60},
		{ID: 7, Name: "Rocklets", Price: 600},
	}
}

// ItemLister is satisfied by store.Store
type ItemLister interface {
	ListItems(ctx context.Context) ([]models.Item, error)
}

// StoreSource reads items from the products table
type StoreSource struct {
	Lister ItemLister
}

func (s *StoreSource) Name() string { return "db" }

// Fetch lists the products
func (s *StoreSource) Fetch(ctx context.Context) ([]models.Item, error) {
	return s.Lister.ListItems(ctx)
}
