// Package devserver is a local stand-in for the remote item service, good
// enough to run and test the client against without the real backend. It
// speaks the same five routes and the same error body shapes.
package devserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"inv/internal/model"
)

const maxFieldLen = 100

// Repository is the storage behind the development item service.
type Repository interface {
	List() ([]model.Item, error)
	Get(id int64) (model.Item, bool, error)
	Create(p model.Payload) (model.Item, error)
	Update(id int64, p model.Payload) (model.Item, bool, error)
	Delete(id int64) (bool, error)
}

type Server struct {
	repo Repository
	log  *zap.Logger
}

func New(repo Repository, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{repo: repo, log: log}
}

// Router wires the item routes with permissive CORS; the original web
// client reached the service cross-origin.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/api/items/", s.handleList)
	r.Post("/api/items/", s.handleCreate)
	r.Get("/api/items/{id}/", s.handleGet)
	r.Put("/api/items/{id}/update/", s.handleUpdate)
	r.Delete("/api/items/{id}/delete/", s.handleDelete)

	return r
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := s.repo.List()
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	payload, ok := s.decodePayload(w, r)
	if !ok {
		return
	}
	item, err := s.repo.Create(payload)
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.log.Info("item created", zap.Int64("item_id", item.ItemID), zap.String("name", item.Name))
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	item, found, err := s.repo.Get(id)
	if err != nil {
		s.internalError(w, err)
		return
	}
	if !found {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	payload, ok := s.decodePayload(w, r)
	if !ok {
		return
	}
	item, found, err := s.repo.Update(id, payload)
	if err != nil {
		s.internalError(w, err)
		return
	}
	if !found {
		notFound(w)
		return
	}
	s.log.Info("item updated", zap.Int64("item_id", id))
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	found, err := s.repo.Delete(id)
	if err != nil {
		s.internalError(w, err)
		return
	}
	if !found {
		notFound(w)
		return
	}
	s.log.Info("item deleted", zap.Int64("item_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// decodePayload parses and validates the request body. Validation mirrors
// the service serializer: name and description are required, at most 100
// characters each. On failure it writes the field->messages body and
// reports false.
func (s *Server) decodePayload(w http.ResponseWriter, r *http.Request) (model.Payload, bool) {
	var payload model.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid JSON body"})
		return model.Payload{}, false
	}

	fieldErrs := map[string][]string{}
	checkField(fieldErrs, "name", payload.Name)
	checkField(fieldErrs, "description", payload.Description)
	if len(fieldErrs) > 0 {
		writeJSON(w, http.StatusBadRequest, fieldErrs)
		return model.Payload{}, false
	}
	return payload, true
}

func checkField(errs map[string][]string, field, value string) {
	if value == "" {
		errs[field] = append(errs[field], "This field is required.")
		return
	}
	if len(value) > maxFieldLen {
		errs[field] = append(errs[field], "Ensure this field has no more than 100 characters.")
	}
}

func itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		notFound(w)
		return 0, false
	}
	return id, true
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Item not Found"})
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.log.Error("storage failure", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
