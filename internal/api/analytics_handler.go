package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/taskhive/taskhive/internal/api/shared"
	"github.com/taskhive/taskhive/internal/service/policy"
	"github.com/taskhive/taskhive/internal/store"
)

// SummaryResponse aggregates the team dashboard counters.
type SummaryResponse struct {
	ByStatus   []store.StatusCount   `json:"by_status"`
	ByPriority []store.PriorityCount `json:"by_priority"`
	Overdue    int                   `json:"overdue"`
}

// AnalyticsHandler handles reporting and activity feed API requests.
type AnalyticsHandler struct {
	stats      store.StatsStore
	activities store.ActivityStore
}

// NewAnalyticsHandler creates a new AnalyticsHandler with the given
// dependencies.
func NewAnalyticsHandler(stats store.StatsStore, activities store.ActivityStore) *AnalyticsHandler {
	return &AnalyticsHandler{
		stats:      stats,
		activities: activities,
	}
}

// Summary handles GET /analytics/summary requests.
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAction(w, r, policy.ActionViewAnalytics); !ok {
		return
	}

	byStatus, err := h.stats.CountByStatus(r.Context())
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	byPriority, err := h.stats.CountByPriority(r.Context())
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	overdue, err := h.stats.CountOverdue(r.Context(), time.Now().UTC())
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, SummaryResponse{
		ByStatus:   byStatus,
		ByPriority: byPriority,
		Overdue:    overdue,
	})
}

// Completions handles GET /analytics/completions requests. The period is
// given by the days query parameter, defaulting to 7.
func (h *AnalyticsHandler) Completions(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAction(w, r, policy.ActionViewAnalytics); !ok {
		return
	}

	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 365 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "days must be between 1 and 365")
			return
		}
		days = parsed
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	completions, err := h.stats.CompletionsSince(r.Context(), since)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, completions)
}

// Leaderboard handles GET /analytics/leaderboard requests. Unlike the other
// analytics endpoints the leaderboard is visible to every authenticated user.
func (h *AnalyticsHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 100 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	entries, err := h.stats.Leaderboard(r.Context(), limit)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, entries)
}

// RecentActivity handles GET /activity requests, the team-wide feed.
func (h *AnalyticsHandler) RecentActivity(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAction(w, r, policy.ActionViewAnalytics); !ok {
		return
	}

	entries, err := h.activities.FindRecent(r.Context(), 50)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, activitiesToResponse(entries))
}
