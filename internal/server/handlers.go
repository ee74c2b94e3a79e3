package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lewisedginton/shopping_assistant/internal/catalog"
	"github.com/lewisedginton/shopping_assistant/internal/issues"
	"github.com/lewisedginton/shopping_assistant/internal/orchestrator"
	"github.com/lewisedginton/shopping_assistant/pkg/logger"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("Failed to encode response", logger.ErrorField(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.writeError(w, http.StatusBadRequest, "Message is required")
		return
	}

	reply, err := s.orchestrator.Process(r.Context(), req)
	if err != nil {
		s.log.Error("Chat processing failed", logger.ErrorField(err))
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"response": "I apologize, but I encountered an error. Please try again.",
			"intent":   "error",
		})
		return
	}
	s.writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleClearMemory(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		s.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if err := s.orchestrator.ClearMemory(r.Context(), userID); err != nil {
		s.log.Error("Failed to clear memory", logger.ErrorField(err))
		s.writeError(w, http.StatusInternalServerError, "Failed to clear memory")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Memory cleared successfully"})
}

type productsResponse struct {
	Products   []catalog.Product `json:"products"`
	Categories []string          `json:"categories"`
	Total      int               `json:"total"`
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	category := r.URL.Query().Get("category")
	limit := defaultProductLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	cacheKey := fmt.Sprintf("products_%s_%s_%d", search, category, limit)
	if cached, ok := s.productCache.Get(cacheKey); ok {
		s.writeJSON(w, http.StatusOK, cached)
		return
	}

	ctx := r.Context()
	var products []catalog.Product
	var err error
	switch {
	case search != "":
		products, err = s.catalog.Search(ctx, search, limit, category)
	case category != "":
		products, err = s.catalog.ByCategory(ctx, category, limit)
	default:
		products, err = s.catalog.All(ctx, limit)
	}
	if err != nil {
		s.log.Error("Failed to fetch products", logger.ErrorField(err))
		s.writeError(w, http.StatusInternalServerError, "Failed to fetch products")
		return
	}

	categories, err := s.catalog.Categories(ctx)
	if err != nil {
		s.log.Error("Failed to fetch categories", logger.ErrorField(err))
		s.writeError(w, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	if products == nil {
		products = []catalog.Product{}
	}

	result := productsResponse{Products: products, Categories: categories, Total: len(products)}
	s.productCache.SetDefault(cacheKey, result)
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleProductDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	ctx := r.Context()
	product, err := s.catalog.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		s.log.Error("Failed to fetch product", logger.ErrorField(err))
		s.writeError(w, http.StatusInternalServerError, "Failed to fetch product details")
		return
	}

	similar, err := s.catalog.Search(ctx, product.SearchText(), similarProductCount+1, product.Category)
	if err != nil {
		s.log.Error("Failed to fetch similar products", logger.ErrorField(err))
		similar = nil
	}
	filtered := make([]catalog.Product, 0, similarProductCount)
	for _, p := range similar {
		if p.ID == product.ID {
			continue
		}
		filtered = append(filtered, p)
		if len(filtered) == similarProductCount {
			break
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"product":          product,
		"similar_products": filtered,
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.catalog.Categories(r.Context())
	if err != nil {
		s.log.Error("Failed to fetch categories", logger.ErrorField(err))
		s.writeError(w, http.StatusInternalServerError, "Failed to fetch categories")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"categories": categories})
}

func (s *Server) handleListIssues(w http.ResponseWriter, r *http.Request) {
	listed, err := s.issues.List(r.Context())
	if err != nil {
		s.log.Error("Failed to list issues", logger.ErrorField(err))
		s.writeError(w, http.StatusInternalServerError, "Failed to fetch issues")
		return
	}
	if listed == nil {
		listed = []issues.Issue{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"issues": listed,
		"total":  len(listed),
	})
}

func (s *Server) handleUpdateIssue(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid issue id")
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !issues.ValidStatus(body.Status) {
		s.writeError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	updated, err := s.issues.UpdateStatus(r.Context(), id, body.Status)
	if err != nil {
		if errors.Is(err, issues.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "Issue not found")
			return
		}
		s.log.Error("Failed to update issue", logger.ErrorField(err))
		s.writeError(w, http.StatusInternalServerError, "Failed to update issue")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "Issue status updated successfully",
		"issue": map[string]any{
			"id":     updated.ID,
			"status": updated.Status,
		},
	})
}

func (s *Server) handleDeleteIssue(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid issue id")
		return
	}

	if err := s.issues.Delete(r.Context(), id); err != nil {
		if errors.Is(err, issues.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "Issue not found")
			return
		}
		s.log.Error("Failed to delete issue", logger.ErrorField(err))
		s.writeError(w, http.StatusInternalServerError, "Failed to delete issue")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Issue deleted successfully"})
}
