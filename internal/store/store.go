package store

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"inv/internal/model"
)

// Column identifies a sortable table column.
type Column int

const (
	ByID Column = iota
	ByName
	ByDescription
	ByQuantity
	ByPrice

	columnCount
)

func (c Column) String() string {
	switch c {
	case ByID:
		return "id"
	case ByName:
		return "name"
	case ByDescription:
		return "description"
	case ByQuantity:
		return "quantity"
	case ByPrice:
		return "price"
	}
	return "unknown"
}

// Next returns the following column, wrapping around. Used to cycle the
// sort column from a single key binding.
func (c Column) Next() Column {
	return (c + 1) % columnCount
}

// Query describes a derived view. Application order is fixed:
// filter, then sort, then paginate.
type Query struct {
	Filter   string
	Sort     Column
	Desc     bool
	Page     int // zero-based; clamped into range by View
	PageSize int // <= 0 disables pagination
}

// Page is one screenful of the derived view.
type Page struct {
	Items      []model.Item
	TotalItems int // item count after filtering
	TotalPages int
	Page       int // clamped page index actually shown
}

// Lister is the slice of the remote client the store needs to refresh.
type Lister interface {
	ListItems(ctx context.Context) ([]model.Item, error)
}

// Store caches the last successful fetch of the item list. Replace is the
// only write path; derived views are computed on copies and never touch
// the cached slice.
type Store struct {
	items []model.Item
}

func New() *Store { return &Store{} }

// Replace swaps the cached list wholesale.
func (s *Store) Replace(items []model.Item) {
	s.items = append([]model.Item(nil), items...)
}

// Items returns a copy of the cached list.
func (s *Store) Items() []model.Item {
	return append([]model.Item(nil), s.items...)
}

func (s *Store) Len() int { return len(s.items) }

// Refresh re-fetches the whole list and replaces the cache. On error the
// cache keeps its last-known-good contents.
func (s *Store) Refresh(ctx context.Context, l Lister) error {
	items, err := l.ListItems(ctx)
	if err != nil {
		return err
	}
	s.Replace(items)
	return nil
}

// View derives one page from the current cache contents.
func (s *Store) View(q Query) Page {
	items := Filter(s.Items(), q.Filter)
	Sort(items, q.Sort, q.Desc)
	return Paginate(items, q.Page, q.PageSize)
}

// Filter keeps items whose id, name or description contains the text,
// case-insensitively. It always allocates a fresh slice.
func Filter(items []model.Item, text string) []model.Item {
	text = strings.ToLower(strings.TrimSpace(text))
	out := make([]model.Item, 0, len(items))
	for _, it := range items {
		if text == "" || matches(it, text) {
			out = append(out, it)
		}
	}
	return out
}

func matches(it model.Item, text string) bool {
	return strings.Contains(strings.ToLower(it.Name), text) ||
		strings.Contains(strings.ToLower(it.Description), text) ||
		strings.Contains(strconv.FormatInt(it.ItemID, 10), text)
}

// Sort orders items by the given column, in place and stable, so equal keys
// keep their fetch order.
func Sort(items []model.Item, col Column, desc bool) {
	less := func(a, b model.Item) bool {
		switch col {
		case ByName:
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		case ByDescription:
			return strings.ToLower(a.Description) < strings.ToLower(b.Description)
		case ByQuantity:
			return a.Quantity < b.Quantity
		case ByPrice:
			return a.Price < b.Price
		default:
			return a.ItemID < b.ItemID
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

// Paginate clamps the page index into range and slices out one page.
func Paginate(items []model.Item, page, size int) Page {
	total := len(items)
	if size <= 0 {
		return Page{Items: items, TotalItems: total, TotalPages: 1}
	}
	pages := (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	if page >= pages {
		page = pages - 1
	}
	if page < 0 {
		page = 0
	}
	start := page * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return Page{Items: items[start:end], TotalItems: total, TotalPages: pages, Page: page}
}
