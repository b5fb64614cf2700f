// internal/handler/client_handler.go
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/maisonlabs/pulse-backend/internal/errors"
	"github.com/maisonlabs/pulse-backend/internal/repository"
)

// ClientHandler holds the dependencies for client browsing endpoints
type ClientHandler struct {
	ClientRepo     repository.ClientRepositoryInterface
	TagRepo        repository.TagRepositoryInterface
	HistoryRepo    repository.HistoryRepositoryInterface
	ActivationRepo repository.ActivationRepositoryInterface
}

// ListClientsHandler returns a paginated list of clients
func (h *ClientHandler) ListClientsHandler(w http.ResponseWriter, r *http.Request) {
	page := 1
	pageSize := 20

	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if ps, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil && ps > 0 {
		pageSize = ps
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	location := r.URL.Query().Get("location")
	search := r.URL.Query().Get("q")

	clients, total, err := h.ClientRepo.List(offset, pageSize, location, search)
	if err != nil {
		http.Error(w, "failed to fetch clients: "+err.Error(), http.StatusInternalServerError)
		return
	}

	totalPages := (total + pageSize - 1) / pageSize
	response := map[string]interface{}{
		"data": clients,
		"pagination": map[string]int{
			"page":        page,
			"page_size":   pageSize,
			"total_count": total,
			"total_pages": totalPages,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// GetClientHandler returns one client profile with its DNA facts and campaign log
func (h *ClientHandler) GetClientHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	client, err := h.ClientRepo.GetByID(id)
	if err != nil {
		var notFound *appErrors.ErrClientNotFound
		if errors.As(err, &notFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, "failed to fetch client: "+err.Error(), http.StatusInternalServerError)
		return
	}

	tags, err := h.TagRepo.ListByClient(id)
	if err != nil {
		http.Error(w, "failed to fetch tags: "+err.Error(), http.StatusInternalServerError)
		return
	}

	history, err := h.HistoryRepo.ListByClient(id)
	if err != nil {
		http.Error(w, "failed to fetch campaign history: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"client":  client,
		"dna":     tags,
		"history": history,
	})
}

// ListActivationsHandler is the seller task list, pending first by default
func (h *ClientHandler) ListActivationsHandler(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = "Pending"
	}

	activations, err := h.ActivationRepo.ListByStatus(status)
	if err != nil {
		http.Error(w, "failed to fetch activations: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data": activations,
	})
}

// MarkActivationDoneHandler closes a seller task
func (h *ClientHandler) MarkActivationDoneHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid activation id", http.StatusBadRequest)
		return
	}

	if err := h.ActivationRepo.MarkDone(id); err != nil {
		http.Error(w, "failed to update activation: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"status": "Done", "id": id})
}
