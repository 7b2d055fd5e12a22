package mockapi_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"hervor/internal/mockapi"
)

func TestServer_Endpoints(t *testing.T) {
	api := mockapi.New()
	srv := httptest.NewServer(api.Handler())
	defer srv.Close()

	tests := []struct {
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{http.MethodGet, "/ping", http.StatusOK, "pong"},
		{http.MethodGet, "/fail", http.StatusOK, `{"ok":true}`},
		{http.MethodDelete, "/teapot", http.StatusTeapot, ""},
		{http.MethodGet, "/nope", http.StatusNotFound, "404 page not found\n"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, _ := http.NewRequest(tt.method, srv.URL+tt.path, nil)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("do: %v", err)
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if string(body) != tt.wantBody {
				t.Fatalf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}

	if got := api.Hits(); got != int64(len(tests)) {
		t.Fatalf("Hits = %d, want %d", got, len(tests))
	}
}

func TestServer_CreateThenList(t *testing.T) {
	api := mockapi.New()
	srv := httptest.NewServer(api.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/users", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/users")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var users []mockapi.User
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []mockapi.User{
		{ID: "u-1", Email: "ada@example.com", Name: "Ada"},
		{ID: "u-2", Email: "new@example.com", Name: "New"},
	}
	if diff := cmp.Diff(want, users); diff != "" {
		t.Fatalf("users mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"POST /users", "GET /users"}, api.Paths()); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
}
