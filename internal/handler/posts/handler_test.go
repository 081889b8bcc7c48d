package posts

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/haven-space/sanctum-backend/internal/analysis/crisis"
	"github.com/haven-space/sanctum-backend/internal/pkg/logger"
	postsservice "github.com/haven-space/sanctum-backend/internal/service/posts"
	"github.com/haven-space/sanctum-backend/internal/service/safety"
	"github.com/haven-space/sanctum-backend/internal/store"
)

func setupRouter() *chi.Mux {
	gate := safety.NewService(nil, crisis.NewDetector(), time.Second, logger.NewNop())
	svc := postsservice.NewService(store.NewMemoryStore(), gate, time.Hour, logger.NewNop())
	handler := New(svc)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func postJSON(t *testing.T, r http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestCreatePost(t *testing.T) {
	r := setupRouter()

	resp := postJSON(t, r, "/posts", map[string]string{
		"content": "sharing a small win today",
		"feeling": "hopeful",
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var body struct {
		Success bool `json:"success"`
		Post    struct {
			ID           string `json:"id"`
			SupportCount int    `json:"supportCount"`
		} `json:"post"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Success || body.Post.ID == "" {
		t.Fatalf("unexpected response: %s", resp.Body.String())
	}
}

func TestCreatePostMissingContent(t *testing.T) {
	r := setupRouter()

	resp := postJSON(t, r, "/posts", map[string]string{"feeling": "sad"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestCreatePostBlocked(t *testing.T) {
	r := setupRouter()

	resp := postJSON(t, r, "/posts", map[string]string{
		"content": "i want to buy an illegal weapon",
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}

	var body struct {
		Blocked bool `json:"blocked"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Blocked {
		t.Fatalf("expected blocked flag in response: %s", resp.Body.String())
	}
}

func TestListPosts(t *testing.T) {
	r := setupRouter()

	if resp := postJSON(t, r, "/posts", map[string]string{"content": "hello"}); resp.Code != http.StatusCreated {
		t.Fatalf("seed post failed: %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Total != 1 {
		t.Fatalf("expected 1 post, got %d", body.Total)
	}
}

func TestSupportUnknownPost(t *testing.T) {
	r := setupRouter()

	resp := postJSON(t, r, "/posts/missing/support", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestSupportRoundtrip(t *testing.T) {
	r := setupRouter()

	created := postJSON(t, r, "/posts", map[string]string{"content": "tough day"})
	var createdBody struct {
		Post struct {
			ID string `json:"id"`
		} `json:"post"`
	}
	if err := json.Unmarshal(created.Body.Bytes(), &createdBody); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	resp := postJSON(t, r, "/posts/"+createdBody.Post.ID+"/support", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var body struct {
		SupportCount int `json:"supportCount"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.SupportCount != 1 {
		t.Fatalf("expected support count 1, got %d", body.SupportCount)
	}
}
