package catalog

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/brewline/cafe-kiosk/internal/domain"
)

type Handler struct {
	repo   *CatalogRepository
	logger *slog.Logger
}

func NewHandler(repo *CatalogRepository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

func (h *Handler) HandleListMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.ListMenu(r.Context())
	if err != nil {
		h.logger.Error("failed to list menu", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.writeJSON(w, http.StatusOK, items)
}

type createMenuItemRequest struct {
	Name      string          `json:"name"`
	Price     json.RawMessage `json:"price"`
	Category  string          `json:"category"`
	Sizes     []string        `json:"sizes"`
	Available *bool           `json:"available"`
}

func (h *Handler) HandleCreateMenuItem(w http.ResponseWriter, r *http.Request) {
	var req createMenuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	price := domain.CoerceDecimal(req.Price)
	if !price.IsPositive() {
		h.writeError(w, http.StatusBadRequest, "price must be positive")
		return
	}

	item := domain.MenuItem{
		Name:      req.Name,
		Price:     price,
		Category:  req.Category,
		Available: req.Available == nil || *req.Available,
	}
	for _, s := range req.Sizes {
		item.Sizes = append(item.Sizes, domain.ItemSize(s))
	}

	if err := h.repo.CreateMenuItem(r.Context(), &item); err != nil {
		h.logger.Error("failed to create menu item", "error", err, "name", req.Name)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("menu item created", "id", item.ID, "name", item.Name)
	h.writeJSON(w, http.StatusCreated, item)
}

type updateMenuItemRequest struct {
	Name      *string         `json:"name"`
	Price     json.RawMessage `json:"price"`
	Category  *string         `json:"category"`
	Available *bool           `json:"available"`
}

func (h *Handler) HandleUpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing item id")
		return
	}

	var req updateMenuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	update := MenuItemUpdate{
		Name:      req.Name,
		Category:  req.Category,
		Available: req.Available,
	}
	if len(req.Price) > 0 {
		price := domain.CoerceDecimal(req.Price)
		if !price.IsPositive() {
			h.writeError(w, http.StatusBadRequest, "price must be positive")
			return
		}
		update.Price = &price
	}

	if err := h.repo.UpdateMenuItem(r.Context(), id, update); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			h.writeError(w, http.StatusNotFound, "menu item not found")
			return
		}
		h.logger.Error("failed to update menu item", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("menu item updated", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleDeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing item id")
		return
	}

	if err := h.repo.DeleteMenuItem(r.Context(), id); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			h.writeError(w, http.StatusNotFound, "menu item not found")
			return
		}
		h.logger.Error("failed to delete menu item", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("menu item deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleListInventory(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.ListInventory(r.Context())
	if err != nil {
		h.logger.Error("failed to list inventory", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.writeJSON(w, http.StatusOK, items)
}

type createInventoryItemRequest struct {
	ProductName string `json:"product_name"`
	Category    string `json:"category"`
	Quantity    int    `json:"quantity"`
}

func (h *Handler) HandleCreateInventoryItem(w http.ResponseWriter, r *http.Request) {
	var req createInventoryItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ProductName == "" {
		h.writeError(w, http.StatusBadRequest, "product_name is required")
		return
	}
	if req.Quantity < 0 {
		h.writeError(w, http.StatusBadRequest, "quantity cannot be negative")
		return
	}

	item := domain.InventoryItem{
		ProductName: req.ProductName,
		Category:    req.Category,
		Quantity:    req.Quantity,
	}

	if err := h.repo.CreateInventoryItem(r.Context(), &item); err != nil {
		h.logger.Error("failed to create inventory item", "error", err, "product", req.ProductName)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("inventory item created", "id", item.ID, "product", item.ProductName)
	h.writeJSON(w, http.StatusCreated, item)
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) HandleSetQuantity(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing item id")
		return
	}

	var req setQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity < 0 {
		h.writeError(w, http.StatusBadRequest, "quantity cannot be negative")
		return
	}

	if err := h.repo.SetQuantity(r.Context(), id, req.Quantity); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			h.writeError(w, http.StatusNotFound, "inventory item not found")
			return
		}
		h.logger.Error("failed to set quantity", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("inventory quantity set", "id", id, "quantity", req.Quantity)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleToggleAvailability(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing item id")
		return
	}

	item, err := h.repo.ToggleAvailability(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			h.writeError(w, http.StatusNotFound, "inventory item not found")
			return
		}
		h.logger.Error("failed to toggle availability", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("inventory availability toggled", "id", id, "available", item.IsAvailable)
	h.writeJSON(w, http.StatusOK, item)
}

func (h *Handler) HandleRestockAll(w http.ResponseWriter, r *http.Request) {
	count, err := h.repo.RestockAll(r.Context())
	if err != nil {
		h.logger.Error("failed to restock inventory", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("inventory restocked", "items", count)
	h.writeJSON(w, http.StatusOK, map[string]int{"restocked": count})
}

func (h *Handler) HandleListFAQs(w http.ResponseWriter, r *http.Request) {
	faqs, err := h.repo.ListFAQs(r.Context())
	if err != nil {
		h.logger.Error("failed to list faqs", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.writeJSON(w, http.StatusOK, faqs)
}

func (h *Handler) HandleListRatingSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.repo.ListRatingSources(r.Context())
	if err != nil {
		h.logger.Error("failed to list rating sources", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.writeJSON(w, http.StatusOK, sources)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
