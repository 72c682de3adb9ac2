package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inv/internal/model"
)

func sampleItems() []model.Item {
	return []model.Item{
		{ItemID: 1, Name: "MacBook Pro", Description: "Laptop", Quantity: 3, Price: 1999.99},
		{ItemID: 2, Name: "PixelBook Go", Description: "Chromebook", Quantity: 5, Price: 649},
		{ItemID: 3, Name: "ThinkPad X1", Description: "Laptop", Quantity: 2, Price: 1400},
	}
}

func ids(items []model.Item) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.ItemID
	}
	return out
}

func TestFilter_MatchesNameCaseInsensitive(t *testing.T) {
	items := []model.Item{
		{ItemID: 1, Name: "MacBook Pro"},
		{ItemID: 2, Name: "PixelBook Go"},
	}

	got := Filter(items, "mac")

	require.Len(t, got, 1)
	assert.Equal(t, "MacBook Pro", got[0].Name)
}

func TestFilter_MatchesDescriptionAndID(t *testing.T) {
	items := sampleItems()

	assert.Equal(t, []int64{1, 3}, ids(Filter(items, "laptop")))
	assert.Equal(t, []int64{2}, ids(Filter(items, "2")))
}

func TestFilter_EmptyTextKeepsEverything(t *testing.T) {
	items := sampleItems()

	got := Filter(items, "  ")

	assert.Equal(t, ids(items), ids(got))
}

func TestSort_PriceDesc(t *testing.T) {
	items := []model.Item{
		{ItemID: 1, Name: "A", Quantity: 1, Price: 5},
		{ItemID: 2, Name: "B", Quantity: 2, Price: 10},
	}

	Sort(items, ByPrice, true)

	assert.Equal(t, []int64{2, 1}, ids(items))
}

func TestSort_NameAscCaseInsensitive(t *testing.T) {
	items := []model.Item{
		{ItemID: 1, Name: "pixelbook"},
		{ItemID: 2, Name: "MacBook"},
	}

	Sort(items, ByName, false)

	assert.Equal(t, []int64{2, 1}, ids(items))
}

func TestSort_StableOnEqualKeys(t *testing.T) {
	items := []model.Item{
		{ItemID: 1, Price: 10},
		{ItemID: 2, Price: 10},
		{ItemID: 3, Price: 5},
	}

	Sort(items, ByPrice, false)

	assert.Equal(t, []int64{3, 1, 2}, ids(items))
}

func TestPaginate(t *testing.T) {
	items := sampleItems()

	first := Paginate(items, 0, 2)
	assert.Equal(t, []int64{1, 2}, ids(first.Items))
	assert.Equal(t, 3, first.TotalItems)
	assert.Equal(t, 2, first.TotalPages)
	assert.Equal(t, 0, first.Page)

	second := Paginate(items, 1, 2)
	assert.Equal(t, []int64{3}, ids(second.Items))
	assert.Equal(t, 1, second.Page)
}

func TestPaginate_ClampsPageIndex(t *testing.T) {
	items := sampleItems()

	beyond := Paginate(items, 9, 2)
	assert.Equal(t, 1, beyond.Page)
	assert.Equal(t, []int64{3}, ids(beyond.Items))

	negative := Paginate(items, -1, 2)
	assert.Equal(t, 0, negative.Page)
}

func TestPaginate_ZeroSizeDisablesPaging(t *testing.T) {
	items := sampleItems()

	page := Paginate(items, 5, 0)

	assert.Equal(t, len(items), len(page.Items))
	assert.Equal(t, 1, page.TotalPages)
}

func TestPaginate_EmptyList(t *testing.T) {
	page := Paginate(nil, 0, 4)

	assert.Empty(t, page.Items)
	assert.Equal(t, 0, page.TotalItems)
	assert.Equal(t, 1, page.TotalPages)
}

func TestView_FilterSortPaginateOrder(t *testing.T) {
	s := New()
	s.Replace(sampleItems())

	page := s.View(Query{Filter: "laptop", Sort: ByPrice, Desc: true, Page: 0, PageSize: 1})

	// Two laptops match; the pricier one sorts first and fills page one.
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(1), page.Items[0].ItemID)
	assert.Equal(t, 2, page.TotalItems)
	assert.Equal(t, 2, page.TotalPages)
}

func TestView_DoesNotMutateStore(t *testing.T) {
	s := New()
	s.Replace(sampleItems())

	_ = s.View(Query{Sort: ByPrice, Desc: true})

	assert.Equal(t, []int64{1, 2, 3}, ids(s.Items()), "cache order must survive a sorted view")
}

func TestItems_ReturnsCopy(t *testing.T) {
	s := New()
	s.Replace(sampleItems())

	got := s.Items()
	got[0].Name = "mutated"

	assert.Equal(t, "MacBook Pro", s.Items()[0].Name)
}

type fakeLister struct {
	items []model.Item
	err   error
}

func (f *fakeLister) ListItems(context.Context) ([]model.Item, error) {
	return f.items, f.err
}

func TestRefresh_ReplacesWholesale(t *testing.T) {
	s := New()
	s.Replace(sampleItems())

	lister := &fakeLister{items: []model.Item{{ItemID: 9, Name: "New"}}}
	require.NoError(t, s.Refresh(context.Background(), lister))

	assert.Equal(t, []int64{9}, ids(s.Items()))
}

func TestRefresh_KeepsCacheOnError(t *testing.T) {
	s := New()
	s.Replace(sampleItems())

	lister := &fakeLister{err: errors.New("connection refused")}
	require.Error(t, s.Refresh(context.Background(), lister))

	assert.Equal(t, []int64{1, 2, 3}, ids(s.Items()))
}
