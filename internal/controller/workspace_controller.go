// internal/controller/workspace_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/maisonlabs/pulse-backend/internal/audience"
	appErrors "github.com/maisonlabs/pulse-backend/internal/errors"
	"github.com/maisonlabs/pulse-backend/internal/launch"
	"github.com/maisonlabs/pulse-backend/internal/strategy"
)

// WorkspaceController backs the campaign workspace: audience search, the
// strategy dashboard and campaign launches.
type WorkspaceController struct {
	Resolver    *audience.Resolver
	Coordinator *launch.Coordinator
	Counts      *strategy.CountService
}

func (c *WorkspaceController) SearchAudience(w http.ResponseWriter, r *http.Request) {
	var q audience.Query
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	candidates, err := c.Resolver.Resolve(r.Context(), q)
	if err != nil {
		var stale *appErrors.ErrStaleQuery
		if errors.As(err, &stale) {
			// superseded by a newer query, nothing to render
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": "query_superseded",
			})
			return
		}

		var search *appErrors.ErrAudienceSearch
		if errors.As(err, &search) {
			log.Println("⚠️ audience search failed:", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":      "audience_search_failed",
				"candidates": candidates, // empty, caller may retry the query
			})
			return
		}

		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"candidates": candidates,
		"total":      len(candidates),
	})
}

func (c *WorkspaceController) ListStrategies(w http.ResponseWriter, r *http.Request) {
	summaries := c.Counts.Summaries(r.Context())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"strategies": summaries,
	})
}

// LaunchCampaign maps the coordinator's error kinds onto distinct responses:
// step-1 failure is a blocking 500, step-2 failure is a 202 with the history
// already committed and the affected clients named for manual follow-up.
func (c *WorkspaceController) LaunchCampaign(w http.ResponseWriter, r *http.Request) {
	var req launch.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	result, err := c.Coordinator.Launch(r.Context(), req)
	w.Header().Set("Content-Type", "application/json")

	if err != nil {
		var empty *appErrors.ErrEmptySelection
		if errors.As(err, &empty) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]interface{}{"error": "empty_selection"})
			return
		}

		var dup *appErrors.ErrDuplicateLaunch
		if errors.As(err, &dup) {
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":      "launch_in_flight",
				"request_id": dup.RequestID,
			})
			return
		}

		var history *appErrors.ErrHistoryWrite
		if errors.As(err, &history) {
			log.Println("❌ history write failed:", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":  "history_write_failed",
				"result": result,
			})
			return
		}

		var tasks *appErrors.ErrTaskCreation
		if errors.As(err, &tasks) {
			log.Println("⚠️ task creation failed:", err)
			w.WriteHeader(http.StatusAccepted)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"warning":         "task_creation_failed",
				"pending_clients": tasks.ClientIDs,
				"result":          result,
			})
			return
		}

		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	c.Counts.Invalidate(r.Context(), req.CampaignTag)

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"result": result,
	})
}

// RetryTasks re-runs activation creation alone after a partial launch failure.
func (c *WorkspaceController) RetryTasks(w http.ResponseWriter, r *http.Request) {
	var req launch.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	created, err := c.Coordinator.RetryTasks(r.Context(), req)
	w.Header().Set("Content-Type", "application/json")

	if err != nil {
		var empty *appErrors.ErrEmptySelection
		if errors.As(err, &empty) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]interface{}{"error": "empty_selection"})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]interface{}{"error": "task_creation_failed"})
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"activations_created": created,
	})
}
