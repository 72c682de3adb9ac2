package devserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inv/internal/model"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(NewMemoryRepository(), nil).Router())
	t.Cleanup(srv.Close)
	return srv
}

func postItem(t *testing.T, srv *httptest.Server, p model.Payload) model.Item {
	t.Helper()
	b, err := json.Marshal(p)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+"/api/items/", "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var item model.Item
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&item))
	return item
}

func TestCreateAssignsIncreasingIDs(t *testing.T) {
	srv := newTestServer(t)

	first := postItem(t, srv, model.Payload{Name: "MacBook Pro", Description: "Laptop", Quantity: 3, Price: 1999.99})
	second := postItem(t, srv, model.Payload{Name: "PixelBook Go", Description: "Chromebook", Quantity: 5, Price: 649})

	assert.Equal(t, int64(1), first.ItemID)
	assert.Equal(t, int64(2), second.ItemID)
}

func TestListReturnsAllItems(t *testing.T) {
	srv := newTestServer(t)
	postItem(t, srv, model.Payload{Name: "A", Description: "a", Quantity: 1, Price: 1})
	postItem(t, srv, model.Payload{Name: "B", Description: "b", Quantity: 2, Price: 2})

	resp, err := http.Get(srv.URL + "/api/items/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var items []model.Item
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
	require.Len(t, items, 2)
	assert.Equal(t, "A", items[0].Name)
	assert.Equal(t, "B", items[1].Name)
}

func TestGetUnknownIDIs404(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/items/99/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Item not Found", body["detail"])
}

func TestUpdateReplacesWritableFields(t *testing.T) {
	srv := newTestServer(t)
	item := postItem(t, srv, model.Payload{Name: "A", Description: "a", Quantity: 1, Price: 1})

	b, _ := json.Marshal(model.Payload{Name: "A2", Description: "a2", Quantity: 9, Price: 3.5})
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/items/1/update/", bytes.NewReader(b))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated model.Item
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	assert.Equal(t, item.ItemID, updated.ItemID)
	assert.Equal(t, "A2", updated.Name)
	assert.Equal(t, int64(9), updated.Quantity)
}

func TestDeleteThenIDNotReused(t *testing.T) {
	srv := newTestServer(t)
	postItem(t, srv, model.Payload{Name: "A", Description: "a", Quantity: 1, Price: 1})

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/items/1/delete/", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// gone
	resp, err = http.Get(srv.URL + "/api/items/1/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// the counter keeps counting
	next := postItem(t, srv, model.Payload{Name: "B", Description: "b", Quantity: 2, Price: 2})
	assert.Equal(t, int64(2), next.ItemID)
}

func TestCreateValidation(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/items/",
		"application/json", strings.NewReader(`{"description":"x","quantity":1,"price":1}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string][]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Contains(t, body, "name")
	assert.Equal(t, "This field is required.", body["name"][0])
}

func TestCreateRejectsOverlongField(t *testing.T) {
	srv := newTestServer(t)
	long := strings.Repeat("x", 101)

	b, _ := json.Marshal(model.Payload{Name: long, Description: "ok", Quantity: 1, Price: 1})
	resp, err := http.Post(srv.URL+"/api/items/", "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string][]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body["name"][0], "no more than 100 characters")
}

func TestCreateRejectsMalformedJSON(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/items/", "application/json", strings.NewReader("{nope"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFileRepositoryPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")

	repo := NewFileRepository(path)
	created, err := repo.Create(model.Payload{Name: "A", Description: "a", Quantity: 1, Price: 1})
	require.NoError(t, err)
	_, err = repo.Create(model.Payload{Name: "B", Description: "b", Quantity: 2, Price: 2})
	require.NoError(t, err)
	ok, err := repo.Delete(created.ItemID)
	require.NoError(t, err)
	require.True(t, ok)

	// A fresh instance on the same file sees the same state.
	reopened := NewFileRepository(path)
	items, err := reopened.List()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "B", items[0].Name)

	// The id counter survives too.
	third, err := reopened.Create(model.Payload{Name: "C", Description: "c", Quantity: 3, Price: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(3), third.ItemID)
}

func TestFileRepositoryMissingFileIsEmpty(t *testing.T) {
	repo := NewFileRepository(filepath.Join(t.TempDir(), "absent.json"))

	items, err := repo.List()
	require.NoError(t, err)
	assert.Empty(t, items)

	_, found, err := repo.Get(1)
	require.NoError(t, err)
	assert.False(t, found)
}
