package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/geocoder89/univault/internal/config"
	"github.com/geocoder89/univault/internal/db"
	apphttp "github.com/geocoder89/univault/internal/http"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

func testConfig(t *testing.T) config.Config {
	return config.Config{
		Env:          "test",
		JWTSecret:    "test-secret-key",
		TokenTTL:     time.Hour,
		UploadDir:    t.TempDir(),
		MaxBodyBytes: 5 << 20,
	}
}

func setupTestRouter(t *testing.T) (*gin.Engine, *pgxpool.Pool) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := os.Getenv("TEST_DB_DSN")

	if dsn == "" {
		t.Skip("TEST_DB_DSN not set; skipping integration test")
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)

	if err != nil {
		t.Fatalf("failed to create pgx pool: %v", err)
	}

	t.Cleanup(pool.Close)

	if err := db.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("failed to ensure schema: %v", err)
	}

	_, err = pool.Exec(ctx, `TRUNCATE resources, users CASCADE`)

	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

	router, err := apphttp.NewRouter(logger, pool, testConfig(t))

	if err != nil {
		t.Fatalf("failed to build router: %v", err)
	}

	return router, pool
}

// helpers

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func register(t *testing.T, r *gin.Engine, name, email string) {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/api/auth/register",
		`{"name":"`+name+`","email":"`+email+`","password":"hunter22","branch":"CSE"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: got status %d, body=%s", email, w.Code, w.Body.String())
	}
}

func login(t *testing.T, r *gin.Engine, email string) string {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/api/auth/login",
		`{"email":"`+email+`","password":"hunter22"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("login %s: got status %d, body=%s", email, w.Code, w.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}

	if resp.Token == "" {
		t.Fatal("login returned an empty token")
	}

	return resp.Token
}

func upload(t *testing.T, r *gin.Engine, token string) string {
	t.Helper()

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)

	fields := map[string]string{
		"title":    "OS Notes",
		"branch":   "CSE",
		"semester": "3",
		"subject":  "Operating Systems",
		"year":     "2024",
	}

	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}

	part, err := mw.CreateFormFile("file", "notes.pdf")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("%PDF-1.4 fake")); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/resources/upload", buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("upload: got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		ResourceID string `json:"resourceId"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}

	return resp.ResourceID
}

func deleteResource(t *testing.T, r *gin.Engine, id, token string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodDelete, "/api/resources/"+id, nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestRegisterLoginUploadDeleteFlow(t *testing.T) {
	router, _ := setupTestRouter(t)

	register(t, router, "Alice", "a@x.com")
	tokenA := login(t, router, "a@x.com")

	resourceID := upload(t, router, tokenA)

	// duplicate registration must fail regardless of other fields
	w := doJSON(t, router, http.MethodPost, "/api/auth/register",
		`{"name":"Imposter","email":"a@x.com","password":"different","branch":"ME"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate register: got status %d, body=%s", w.Code, w.Body.String())
	}

	// filtered list contains the upload
	w = doJSON(t, router, http.MethodGet, "/api/resources?branch=CSE", "")

	if w.Code != http.StatusOK {
		t.Fatalf("list: got status %d, body=%s", w.Code, w.Body.String())
	}

	var views []struct {
		ID           string `json:"id"`
		UploaderName string `json:"uploaderName"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &views); err != nil {
		t.Fatalf("decode list: %v", err)
	}

	found := false
	for _, v := range views {
		if v.ID == resourceID {
			found = true
			if v.UploaderName != "Alice" {
				t.Fatalf("uploaderName = %q, want Alice", v.UploaderName)
			}
		}
	}

	if !found {
		t.Fatalf("uploaded resource %s not in filtered list", resourceID)
	}

	// a different user may not delete it
	register(t, router, "Bob", "b@x.com")
	tokenB := login(t, router, "b@x.com")

	if w := deleteResource(t, router, resourceID, tokenB); w.Code != http.StatusForbidden {
		t.Fatalf("delete as non-owner: got status %d, body=%s", w.Code, w.Body.String())
	}

	// still present
	if w := doJSON(t, router, http.MethodGet, "/api/resources/"+resourceID, ""); w.Code != http.StatusOK {
		t.Fatalf("get after forbidden delete: got status %d", w.Code)
	}

	// the owner may
	if w := deleteResource(t, router, resourceID, tokenA); w.Code != http.StatusOK {
		t.Fatalf("delete as owner: got status %d, body=%s", w.Code, w.Body.String())
	}

	if w := doJSON(t, router, http.MethodGet, "/api/resources/"+resourceID, ""); w.Code != http.StatusNotFound {
		t.Fatalf("get after delete: got status %d", w.Code)
	}
}

func TestUploadRequiresToken(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/resources/upload", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want 401", w.Code)
	}
}
