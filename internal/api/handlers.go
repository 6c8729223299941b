package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/zero-day-ai/lakelore/internal/observability"
	"github.com/zero-day-ai/lakelore/internal/store"
	"github.com/zero-day-ai/lakelore/internal/types"
)

// useCache reads the optional ?cache= flag. Absent means true.
func useCache(r *http.Request) (bool, error) {
	raw := r.URL.Query().Get("cache")
	if raw == "" {
		return true, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid cache parameter %q", raw)
	}
	return v, nil
}

func badRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: codeBadRequest})
}

// serveCached adapts a cache-aware retrieval to a GET handler.
func serveCached[T any](get func(context.Context, bool) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cached, err := useCache(r)
		if err != nil {
			badRequest(w, err)
			return
		}
		v, err := get(r.Context(), cached)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func (s *Server) handleLakeDetails(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.PathValue("name"))
	if name == "" {
		badRequest(w, fmt.Errorf("lake name is required"))
		return
	}
	cached, err := useCache(r)
	if err != nil {
		badRequest(w, err)
		return
	}

	detail, err := s.store.GetLakeDetails(r.Context(), name, cached)
	if err != nil {
		writeError(w, err)
		return
	}
	if detail == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error: fmt.Sprintf("lake %q not found", name),
			Code:  codeNotFound,
		})
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

type cacheInfoResponse struct {
	store.CacheInfo
	Expired *bool `json:"expired,omitempty"`
}

func (s *Server) handleCacheInfo(w http.ResponseWriter, r *http.Request) {
	resp := cacheInfoResponse{CacheInfo: s.store.GetCacheInfo()}

	if raw := r.URL.Query().Get("max_age"); raw != "" {
		maxAge, err := time.ParseDuration(raw)
		if err != nil || maxAge < 0 {
			badRequest(w, fmt.Errorf("invalid max_age %q", raw))
			return
		}
		expired := s.store.IsCacheExpired(maxAge)
		resp.Expired = &expired
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCacheRefresh(w http.ResponseWriter, r *http.Request) {
	ok, err := s.store.RefreshData(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"refreshed": ok,
		"cache":     s.store.GetCacheInfo(),
	})
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	s.store.ClearCache()
	w.WriteHeader(http.StatusNoContent)
}

type healthResponse struct {
	Status     types.HealthState             `json:"status"`
	Components map[string]types.HealthStatus `json:"components"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := s.health.CheckAll(r.Context())
	overall := observability.Overall(components)

	status := http.StatusOK
	if overall == types.HealthStateUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{Status: overall, Components: components})
}
