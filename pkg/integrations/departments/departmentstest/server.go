// Package departmentstest provides an in-memory departments backend for
// tests, in the spirit of net/http/httptest.
package departmentstest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/orgchart/pkg/hierarchy"
)

// Credentials accepted by the fake login endpoint.
const (
	Username = "admin"
	Password = "secret"
)

type dept struct {
	ID       string
	ParentID string
	Name     string
	Flags    hierarchy.Flags
}

// Server is a running fake backend. Departments are kept in insertion
// order, so the hierarchy it serves is deterministic.
type Server struct {
	*httptest.Server
	Token string

	mu       sync.Mutex
	depts    []*dept
	nextID   int
	failNext int
	requests []string
}

// NewServer starts a backend seeded with forest that accepts token.
func NewServer(token string, forest hierarchy.Forest) *Server {
	s := &Server{Token: token, nextID: 1}
	var walk func(r hierarchy.Record, parent string)
	walk = func(r hierarchy.Record, parent string) {
		if n, err := strconv.Atoi(r.ID.String()); err == nil && n >= s.nextID {
			s.nextID = n + 1
		}
		s.depts = append(s.depts, &dept{
			ID:       r.ID.String(),
			ParentID: parent,
			Name:     r.Name,
			Flags:    hierarchy.FlagsFromStatus(r.Status()),
		})
		for _, c := range r.Children {
			walk(c, r.ID.String())
		}
	}
	for _, r := range forest {
		walk(r, "")
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

// FailNext makes the next n requests answer 503.
func (s *Server) FailNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
}

// Requests returns "METHOD /path" for every request served so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// Forest returns the current hierarchy.
func (s *Server) Forest() hierarchy.Forest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subtrees(func(d *dept) bool { return d.ParentID == "" })
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)
	r.Post("/api/login", s.login)
	r.Route("/api/departments", func(r chi.Router) {
		r.Use(s.auth)
		r.Get("/hierarchy/all", s.all)
		r.Get("/hierarchy", s.search)
		r.Post("/create", s.create)
		r.Put("/{id}/update", s.update)
		r.Delete("/{id}/delete", s.delete)
	})
	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.URL.Path)
		fail := s.failNext > 0
		if fail {
			s.failNext--
		}
		s.mu.Unlock()
		if fail {
			writeError(w, http.StatusServiceUnavailable, "backend unavailable")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.Token {
			writeError(w, http.StatusUnauthorized, "invalid or missing token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	if body.Username != Username || body.Password != Password {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	writeData(w, http.StatusOK, map[string]string{"token": s.Token})
}

func (s *Server) all(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, s.Forest())
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("name"))
	s.mu.Lock()
	match := func(d *dept) bool { return strings.Contains(strings.ToLower(d.Name), q) }
	forest := s.subtrees(func(d *dept) bool {
		if !match(d) {
			return false
		}
		for p := s.find(d.ParentID); p != nil; p = s.find(p.ParentID) {
			if match(p) {
				return false
			}
		}
		return true
	})
	s.mu.Unlock()
	if len(forest) == 0 {
		writeError(w, http.StatusNotFound, "no departments match "+strconv.Quote(q))
		return
	}
	writeData(w, http.StatusOK, forest)
}

type mutation struct {
	ID       hierarchy.ID    `json:"id"`
	ParentID hierarchy.ID    `json:"parent_id"`
	Name     string          `json:"name"`
	Flags    hierarchy.Flags `json:"flags"`
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var m mutation
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil || m.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ParentID != "" && s.find(m.ParentID.String()) == nil {
		writeError(w, http.StatusBadRequest, "unknown parent "+m.ParentID.String())
		return
	}
	d := &dept{ID: strconv.Itoa(s.nextID), ParentID: m.ParentID.String(), Name: m.Name, Flags: m.Flags}
	s.nextID++
	s.depts = append(s.depts, d)
	writeData(w, http.StatusCreated, map[string]any{"id": hierarchy.ID(d.ID)})
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	var m mutation
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.find(chi.URLParam(r, "id"))
	if d == nil {
		writeError(w, http.StatusNotFound, "department not found")
		return
	}
	if m.ParentID.String() == d.ID {
		writeError(w, http.StatusBadRequest, "department cannot be its own parent")
		return
	}
	d.Name, d.Flags, d.ParentID = m.Name, m.Flags, m.ParentID.String()
	writeData(w, http.StatusOK, nil)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	if s.find(id) == nil {
		writeError(w, http.StatusNotFound, "department not found")
		return
	}
	doomed := map[string]bool{id: true}
	for changed := true; changed; {
		changed = false
		for _, d := range s.depts {
			if doomed[d.ParentID] && !doomed[d.ID] {
				doomed[d.ID] = true
				changed = true
			}
		}
	}
	s.depts = slices.DeleteFunc(s.depts, func(d *dept) bool { return doomed[d.ID] })
	writeData(w, http.StatusOK, nil)
}

func (s *Server) find(id string) *dept {
	for _, d := range s.depts {
		if d.ID == id {
			return d
		}
	}
	return nil
}

// subtrees builds a forest rooted at every department matching root.
// Callers hold s.mu.
func (s *Server) subtrees(root func(*dept) bool) hierarchy.Forest {
	var build func(d *dept) hierarchy.Record
	build = func(d *dept) hierarchy.Record {
		st := d.Flags.Status()
		rec := hierarchy.Record{
			ID: hierarchy.ID(d.ID), Name: d.Name,
			IsActive: st.Active, IsDeleted: st.Deleted, IsApproved: st.Approved,
		}
		for _, c := range s.depts {
			if c.ParentID == d.ID {
				rec.Children = append(rec.Children, build(c))
			}
		}
		return rec
	}
	forest := hierarchy.Forest{}
	for _, d := range s.depts {
		if root(d) {
			forest = append(forest, build(d))
		}
	}
	return forest
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"message": msg}})
}
