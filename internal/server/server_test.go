package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewisedginton/shopping_assistant/internal/catalog"
	appconfig "github.com/lewisedginton/shopping_assistant/internal/config"
	"github.com/lewisedginton/shopping_assistant/internal/extractor"
	"github.com/lewisedginton/shopping_assistant/internal/generation"
	"github.com/lewisedginton/shopping_assistant/internal/intent"
	"github.com/lewisedginton/shopping_assistant/internal/issues"
	"github.com/lewisedginton/shopping_assistant/internal/memory_service"
	"github.com/lewisedginton/shopping_assistant/internal/orchestrator"
	"github.com/lewisedginton/shopping_assistant/pkg/logger"
)

type cannedProvider struct{}

func (cannedProvider) Name() string { return "canned" }

func (cannedProvider) Complete(_ context.Context, messages []generation.Message, _ float64, _ int) (string, error) {
	prompt := messages[len(messages)-1].Content
	switch {
	case strings.Contains(prompt, "Classify the user message"):
		return "intent: general_chat\nneeds_memory: false\nconfidence: high", nil
	case strings.Contains(prompt, "min_price"), strings.Contains(prompt, "product phrase"):
		return "none", nil
	default:
		return "Happy to help you browse the store.", nil
	}
}

func newTestServer(t *testing.T) (*Server, *issues.MemoryStore) {
	t.Helper()
	log := logger.NewLogger(logger.Config{Level: logger.ErrorLevel, Output: io.Discard})

	idx, err := catalog.New(catalog.Config{
		Embedder: catalog.NewHashingEmbedder(256),
		Products: []catalog.Product{
			{ID: 1, Name: "Gaming Laptop", Description: "High performance laptop", Price: 1299, Category: "Electronics"},
			{ID: 2, Name: "Budget Laptop", Description: "Affordable laptop", Price: 399, Category: "Electronics"},
			{ID: 3, Name: "Wireless Mouse", Description: "Ergonomic mouse", Price: 25, Category: "Electronics"},
			{ID: 4, Name: "Leather Wallet", Description: "Handmade wallet", Price: 45, Category: "Accessories"},
		},
	})
	require.NoError(t, err)

	chain, err := generation.New(generation.Config{Logger: log, Providers: []generation.Provider{cannedProvider{}}})
	require.NoError(t, err)

	issueStore := issues.NewMemoryStore()
	orc, err := orchestrator.New(orchestrator.Config{
		Logger:     log,
		Catalog:    idx,
		Memory:     memory_service.NewInProcessStore(50),
		Issues:     issueStore,
		Classifier: intent.New(intent.Config{Logger: log, Generator: chain}),
		Extractor:  extractor.New(extractor.Config{Logger: log, Generator: chain}),
		Chain:      chain,
	})
	require.NoError(t, err)

	cfg := &appconfig.AppConfig{
		ServiceName: "shopping-assistant",
		Health:      appconfig.HealthConfig{Enabled: false, Timeout: 5 * time.Second, FailureThreshold: 3},
	}
	srv, err := New(Config{
		AppConfig:    cfg,
		Logger:       log,
		Orchestrator: orc,
		Catalog:      idx,
		Issues:       issueStore,
	})
	require.NoError(t, err)
	return srv, issueStore
}

func doRequest(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestChatEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/chat", `{"message":"hello","user_id":"u1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "general_chat", body["intent"])
	assert.NotEmpty(t, body["response"])
}

func TestChatEndpointRequiresMessage(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/chat", `{"message":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Message is required", decodeBody(t, rec)["error"])

	rec = doRequest(t, srv, http.MethodPost, "/api/chat", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClearMemoryEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodDelete, "/api/chat/memory?user_id=u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Memory cleared successfully", decodeBody(t, rec)["message"])

	rec = doRequest(t, srv, http.MethodDelete, "/api/chat/memory", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(4), body["total"])
	assert.Len(t, body["products"], 4)
	assert.Equal(t, []any{"Accessories", "Electronics"}, body["categories"])
}

func TestProductsEndpointCategoryFilter(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/products?category=Accessories", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["total"])
}

func TestProductsEndpointCaches(t *testing.T) {
	srv, _ := newTestServer(t)

	first := doRequest(t, srv, http.MethodGet, "/api/products?limit=2", "")
	require.Equal(t, http.StatusOK, first.Code)

	_, cached := srv.productCache.Get("products___2")
	assert.True(t, cached)

	second := doRequest(t, srv, http.MethodGet, "/api/products?limit=2", "")
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestProductsEndpointRejectsBadLimit(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/products?limit=nope", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductDetailEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/products/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	product := body["product"].(map[string]any)
	assert.Equal(t, float64(1), product["id"])

	similar := body["similar_products"].([]any)
	for _, raw := range similar {
		p := raw.(map[string]any)
		assert.NotEqual(t, float64(1), p["id"])
		assert.Equal(t, "Electronics", p["category"])
	}
}

func TestProductDetailNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/products/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Product not found", decodeBody(t, rec)["error"])
}

func TestCategoriesEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"Accessories", "Electronics"}, decodeBody(t, rec)["categories"])
}

func TestIssuesLifecycle(t *testing.T) {
	srv, issueStore := newTestServer(t)
	ctx := context.Background()

	issue := &issues.Issue{Username: "alice", Message: "broken item"}
	require.NoError(t, issueStore.Create(ctx, issue))

	rec := doRequest(t, srv, http.MethodGet, "/api/issues", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decodeBody(t, rec)["total"])

	target := fmt.Sprintf("/api/issues/%d", issue.ID)
	rec = doRequest(t, srv, http.MethodPatch, target, `{"status":"in_progress"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeBody(t, rec)["issue"].(map[string]any)
	assert.Equal(t, "in_progress", updated["status"])

	rec = doRequest(t, srv, http.MethodPatch, target, `{"status":"shipped"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid status", decodeBody(t, rec)["error"])

	rec = doRequest(t, srv, http.MethodDelete, target, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodDelete, target, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, srv, http.MethodPatch, "/api/issues/424242", `{"status":"resolved"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
