// Package mockapi is a small deterministic HTTP API used as a target for
// bundles in tests and by cmd/apimock for local demos.
package mockapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
)

// Server serves the demo endpoints and counts every request it sees.
type Server struct {
	hits atomic.Int64

	mu    sync.Mutex
	users []User
	paths []string
}

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func New() *Server {
	return &Server{
		users: []User{{ID: "u-1", Email: "ada@example.com", Name: "Ada"}},
	}
}

// Hits returns the number of requests served so far.
func (s *Server) Hits() int64 { return s.hits.Load() }

// Paths returns "METHOD /path" for every request in arrival order.
func (s *Server) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paths...)
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /ping", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("pong"))
	})

	mux.HandleFunc("GET /users", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		users := append([]User(nil), s.users...)
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, users)
	})

	mux.HandleFunc("POST /users", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		u := User{ID: "u-" + strconv.Itoa(len(s.users)+1), Email: "new@example.com", Name: "New"}
		s.users = append(s.users, u)
		s.mu.Unlock()
		writeJSON(w, http.StatusCreated, u)
	})

	mux.HandleFunc("GET /fail", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	mux.HandleFunc("/teapot", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		s.mu.Lock()
		s.paths = append(s.paths, r.Method+" "+r.URL.RequestURI())
		s.mu.Unlock()
		mux.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
