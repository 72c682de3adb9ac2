package devserver

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/pkg/errors"

	"inv/internal/model"
)

// fileState is the on-disk shape. NextID is a counter that only ever
// increases, so ids are never reused after a delete.
type fileState struct {
	NextID int64        `json:"next_id"`
	Items  []model.Item `json:"items"`
}

// FileRepository persists items to a JSON file, reloading and rewriting it
// around every operation.
type FileRepository struct {
	mu   sync.Mutex
	path string
}

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

func (r *FileRepository) load() (fileState, error) {
	b, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileState{NextID: 1}, nil
		}
		return fileState{}, errors.Wrap(err, "read file")
	}
	var st fileState
	if err := json.Unmarshal(b, &st); err != nil {
		return fileState{}, errors.Wrap(err, "json unmarshal")
	}
	if st.NextID < 1 {
		st.NextID = 1
	}
	return st, nil
}

func (r *FileRepository) save(st fileState) error {
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return errors.Wrap(err, "json marshal")
	}
	if err := os.WriteFile(r.path, b, 0o644); err != nil {
		return errors.Wrap(err, "write file")
	}
	return nil
}

func (r *FileRepository) List() ([]model.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, err := r.load()
	if err != nil {
		return nil, err
	}
	if st.Items == nil {
		st.Items = []model.Item{}
	}
	return st.Items, nil
}

func (r *FileRepository) Get(id int64) (model.Item, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, err := r.load()
	if err != nil {
		return model.Item{}, false, err
	}
	for _, it := range st.Items {
		if it.ItemID == id {
			return it, true, nil
		}
	}
	return model.Item{}, false, nil
}

func (r *FileRepository) Create(p model.Payload) (model.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, err := r.load()
	if err != nil {
		return model.Item{}, err
	}
	item := model.Item{
		ItemID:      st.NextID,
		Name:        p.Name,
		Description: p.Description,
		Quantity:    p.Quantity,
		Price:       p.Price,
	}
	st.NextID++
	st.Items = append(st.Items, item)
	if err := r.save(st); err != nil {
		return model.Item{}, err
	}
	return item, nil
}

func (r *FileRepository) Update(id int64, p model.Payload) (model.Item, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, err := r.load()
	if err != nil {
		return model.Item{}, false, err
	}
	for i, it := range st.Items {
		if it.ItemID != id {
			continue
		}
		it.Name = p.Name
		it.Description = p.Description
		it.Quantity = p.Quantity
		it.Price = p.Price
		st.Items[i] = it
		if err := r.save(st); err != nil {
			return model.Item{}, false, err
		}
		return it, true, nil
	}
	return model.Item{}, false, nil
}

func (r *FileRepository) Delete(id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, err := r.load()
	if err != nil {
		return false, err
	}
	for i, it := range st.Items {
		if it.ItemID != id {
			continue
		}
		st.Items = append(st.Items[:i], st.Items[i+1:]...)
		if err := r.save(st); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// MemoryRepository keeps items in memory. Used by tests and as an
// ephemeral backend.
type MemoryRepository struct {
	mu     sync.Mutex
	nextID int64
	items  []model.Item
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{nextID: 1}
}

func (r *MemoryRepository) List() ([]model.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Item{}, r.items...), nil
}

func (r *MemoryRepository) Get(id int64) (model.Item, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.items {
		if it.ItemID == id {
			return it, true, nil
		}
	}
	return model.Item{}, false, nil
}

func (r *MemoryRepository) Create(p model.Payload) (model.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item := model.Item{
		ItemID:      r.nextID,
		Name:        p.Name,
		Description: p.Description,
		Quantity:    p.Quantity,
		Price:       p.Price,
	}
	r.nextID++
	r.items = append(r.items, item)
	return item, nil
}

func (r *MemoryRepository) Update(id int64, p model.Payload) (model.Item, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, it := range r.items {
		if it.ItemID != id {
			continue
		}
		it.Name = p.Name
		it.Description = p.Description
		it.Quantity = p.Quantity
		it.Price = p.Price
		r.items[i] = it
		return it, true, nil
	}
	return model.Item{}, false, nil
}

func (r *MemoryRepository) Delete(id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, it := range r.items {
		if it.ItemID != id {
			continue
		}
		r.items = append(r.items[:i], r.items[i+1:]...)
		return true, nil
	}
	return false, nil
}
