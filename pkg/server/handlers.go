package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/orgchart/pkg/buildinfo"
	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/graph"
	"github.com/matzehuels/orgchart/pkg/pipeline"
	"github.com/matzehuels/orgchart/pkg/store"
)

// ChartResponse is the data of GET /api/chart.
type ChartResponse struct {
	Query      string       `json:"query,omitempty"`
	Empty      bool         `json:"empty"`
	Layout     graph.Layout `json:"layout"`
	Crossings  int          `json:"crossings"`
	CacheHit   bool         `json:"cache_hit"`
	SnapshotID string       `json:"snapshot_id,omitempty"`
}

// DepartmentRequest is the body of the department routes. On PUT, absent
// fields keep the department's current value.
type DepartmentRequest struct {
	Name     *string       `json:"name,omitempty"`
	ParentID *string       `json:"parent_id,omitempty"`
	Status   *graph.Status `json:"status,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	version, commit, _ := buildinfo.Resolved()
	writeData(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": version,
		"commit":  commit,
		"time":    time.Now().UTC(),
	})
}

// build fetches and lays out the hierarchy for query. A search with no
// results yields an empty chart.
func (s *Server) build(ctx context.Context, query string, refresh bool) (*pipeline.Result, error) {
	forest, err := s.cfg.Source.Fetch(ctx, query)
	if err != nil {
		if query == "" || !errors.Is(err, errors.ErrCodeNotFound) {
			return nil, err
		}
		forest = nil
	}
	return s.cfg.Runner.Build(ctx, forest, s.cfg.Actions, pipeline.Options{
		Layout:  s.cfg.Layout,
		Refresh: refresh,
		Logger:  s.logger,
	})
}

func (s *Server) chart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("name")
	if err := errors.ValidateSearchQuery(query); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.build(r.Context(), query, boolParam(q.Get("refresh")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := ChartResponse{
		Query:     query,
		Empty:     res.Layout.Empty,
		Layout:    res.Layout,
		Crossings: res.Crossings,
		CacheHit:  res.CacheHit,
	}
	if boolParam(q.Get("save")) && s.cfg.Store != nil {
		snap := store.NewSnapshot(query, s.cfg.Backend, res.Layout)
		if err := s.cfg.Store.Save(r.Context(), snap); err != nil {
			s.writeError(w, r, err)
			return
		}
		resp.SnapshotID = snap.ID
	}
	writeData(w, http.StatusOK, resp)
}

func (s *Server) chartSVG(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("name")
	if err := errors.ValidateSearchQuery(query); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.build(r.Context(), query, boolParam(q.Get("refresh")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	artifacts, _, err := s.cfg.Runner.Render(r.Context(), res.Layout, pipeline.Options{
		Formats:  []string{pipeline.FormatSVG},
		Legend:   boolParam(q.Get("legend")),
		Detailed: boolParam(q.Get("detailed")),
		Logger:   s.logger,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[pipeline.FormatSVG])
}

func (s *Server) createRoot(w http.ResponseWriter, r *http.Request) {
	var req DepartmentRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	add := graph.AddChildRequest{
		Name:   deref(req.Name, ""),
		Status: deref(req.Status, graph.Status{Active: true}),
	}
	if req.ParentID != nil && *req.ParentID != "" {
		node, err := s.node(r.Context(), *req.ParentID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		add.ParentID = node.ID
	}
	if err := s.cfg.Actions.OnAddChild(r.Context(), add); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, add)
}

func (s *Server) createChild(w http.ResponseWriter, r *http.Request) {
	var req DepartmentRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	parent, err := s.node(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	add := graph.AddChildRequest{
		ParentID: parent.ID,
		Name:     deref(req.Name, ""),
		Status:   deref(req.Status, graph.Status{Active: true}),
	}
	if err := parent.Actions.OnAddChild(r.Context(), add); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, add)
}

func (s *Server) updateDepartment(w http.ResponseWriter, r *http.Request) {
	var req DepartmentRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	node, err := s.node(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	edit := graph.EditRequest{
		ID:       node.ID,
		ParentID: deref(req.ParentID, node.ParentID),
		Name:     deref(req.Name, node.Label),
		Status:   deref(req.Status, node.Status),
	}
	if edit.ParentID == edit.ID {
		s.writeError(w, r, errors.New(errors.ErrCodeStructural, "department %s cannot be its own parent", edit.ID))
		return
	}
	if err := node.Actions.OnEdit(r.Context(), edit); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, edit)
}

func (s *Server) deleteDepartment(w http.ResponseWriter, r *http.Request) {
	node, err := s.node(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := node.Actions.OnDelete(r.Context(), node.ID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// node finds id in a fresh chart of the whole hierarchy.
func (s *Server) node(ctx context.Context, id string) (graph.Node, error) {
	res, err := s.build(ctx, "", true)
	if err != nil {
		return graph.Node{}, err
	}
	n, ok := res.Layout.Node(id)
	if !ok {
		return graph.Node{}, errors.New(errors.ErrCodeNotFound, "department %q not found", id)
	}
	return *n, nil
}

func (s *Server) listSnapshots(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	list, err := s.cfg.Store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, list)
}

func (s *Server) getSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.cfg.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, snap)
}

func boolParam(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}

func deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
