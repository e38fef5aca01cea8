package adaptor

import (
	"encoding/json"
	"net/http"

	"ticket-booking/internal/dto/request"
	"ticket-booking/internal/dto/response"
	"ticket-booking/internal/usecase"
	"ticket-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	catalog   usecase.CatalogService
	inventory usecase.InventoryService
	log       *zap.Logger
}

func NewCatalogHandler(catalog usecase.CatalogService, inventory usecase.InventoryService, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog:   catalog,
		inventory: inventory,
		log:       log.With(zap.String("handler", "catalog")),
	}
}

// ListShowings handles GET /api/showings (public)
func (h *CatalogHandler) ListShowings(w http.ResponseWriter, r *http.Request) {
	req := &request.PaginatedRequest{Page: 1, PerPage: 10}

	query := r.URL.Query()
	req.Page = utils.ParseInt(query.Get("page"), 1)
	req.PerPage = utils.ParseInt(query.Get("per_page"), 10)

	showings, err := h.catalog.ListUpcoming(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.log, err, "list showings")
		return
	}

	utils.ResponseSuccess(w, "success", showings)
}

// GetShowing handles GET /api/showings/{id} (public)
func (h *CatalogHandler) GetShowing(w http.ResponseWriter, r *http.Request) {
	showingID := chi.URLParam(r, "id")
	if showingID == "" {
		utils.ResponseBadRequest(w, "Showing ID is required", nil)
		return
	}

	showing, err := h.catalog.GetShowing(r.Context(), showingID)
	if err != nil {
		writeServiceError(w, h.log, err, "get showing")
		return
	}

	resp := response.ShowingToResponse(showing)
	utils.ResponseSuccess(w, "success", resp)
}

// GetAvailability handles GET /api/showings/{id}/seats (public)
//
// The returned snapshot may be stale by the time a reservation is attempted;
// the reserve operation performs its own authoritative check.
func (h *CatalogHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	showingID := chi.URLParam(r, "id")
	if showingID == "" {
		utils.ResponseBadRequest(w, "Showing ID is required", nil)
		return
	}

	showing, err := h.catalog.GetShowing(r.Context(), showingID)
	if err != nil {
		writeServiceError(w, h.log, err, "get availability")
		return
	}

	states, err := h.inventory.GetAvailability(r.Context(), showing.ID)
	if err != nil {
		writeServiceError(w, h.log, err, "get availability")
		return
	}

	resp := response.AvailabilityToResponse(showing, states)
	utils.ResponseSuccess(w, "success", resp)
}

// ==================== ADMIN METHODS ====================

// CreateShowing handles POST /api/admin/showings (admin only)
func (h *CatalogHandler) CreateShowing(w http.ResponseWriter, r *http.Request) {
	var req request.CreateShowingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	showing, err := h.catalog.CreateShowing(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "create showing")
		return
	}

	utils.ResponseCreated(w, "success", showing)
}
