package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/norfield-as/fieldops-api/internal/domain"
	"github.com/norfield-as/fieldops-api/internal/service"
	"go.uber.org/zap"
)

// VisitHandler handles HTTP requests for visits
type VisitHandler struct {
	visitService *service.VisitService
	logger       *zap.Logger
}

// NewVisitHandler creates a new VisitHandler instance
func NewVisitHandler(visitService *service.VisitService, logger *zap.Logger) *VisitHandler {
	return &VisitHandler{
		visitService: visitService,
		logger:       logger,
	}
}

// List godoc
// @Summary List visits
// @Description Get paginated list of visits
// @Tags Visits
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param customerId query string false "Filter by customer ID" format(uuid)
// @Param status query string false "Filter by status" Enums(planned, completed, cancelled)
// @Param search query string false "Search in number and customer name"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.VisitDTO}
// @Failure 400 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /visits [get]
func (h *VisitHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	search := r.URL.Query().Get("search")

	var customerID *uuid.UUID
	if raw := r.URL.Query().Get("customerId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid customer ID format")
			return
		}
		customerID = &id
	}

	var status *domain.VisitStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := domain.VisitStatus(raw)
		if !s.IsValid() {
			respondWithError(w, http.StatusBadRequest, "Invalid visit status")
			return
		}
		status = &s
	}

	result, err := h.visitService.List(r.Context(), page, pageSize, customerID, status, search)
	if err != nil {
		h.logger.Error("failed to list visits", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list visits")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Create godoc
// @Summary Create visit
// @Description Create a new visit with line items for materials
// @Tags Visits
// @Accept json
// @Produce json
// @Param visit body domain.CreateVisitRequest true "Visit data"
// @Success 201 {object} domain.VisitSaveResponse
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /visits [post]
func (h *VisitHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateVisitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	result, err := h.visitService.Create(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err, "failed to create visit")
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

// GetByID godoc
// @Summary Get visit by ID
// @Description Get a single visit with its line items
// @Tags Visits
// @Accept json
// @Produce json
// @Param id path string true "Visit ID" format(uuid)
// @Success 200 {object} domain.VisitDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /visits/{id} [get]
func (h *VisitHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid visit ID format")
		return
	}

	visit, err := h.visitService.GetByID(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err, "failed to get visit")
		return
	}

	respondJSON(w, http.StatusOK, visit)
}

// Update godoc
// @Summary Update visit
// @Description Save a visit, replacing its line items wholesale
// @Tags Visits
// @Accept json
// @Produce json
// @Param id path string true "Visit ID" format(uuid)
// @Param visit body domain.UpdateVisitRequest true "Visit data"
// @Success 200 {object} domain.VisitSaveResponse
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /visits/{id} [put]
func (h *VisitHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid visit ID format")
		return
	}

	var req domain.UpdateVisitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	result, err := h.visitService.Update(r.Context(), id, &req)
	if err != nil {
		h.handleServiceError(w, err, "failed to update visit")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// UpdateStatus godoc
// @Summary Transition visit status
// @Description Change a visit's status without touching its line items
// @Tags Visits
// @Accept json
// @Produce json
// @Param id path string true "Visit ID" format(uuid)
// @Param status body domain.UpdateStatusRequest true "New status"
// @Success 200 {object} domain.VisitSaveResponse
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /visits/{id}/status [post]
func (h *VisitHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid visit ID format")
		return
	}

	var req domain.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	result, err := h.visitService.UpdateStatus(r.Context(), id, domain.VisitStatus(req.Status))
	if err != nil {
		h.handleServiceError(w, err, "failed to update visit status")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Delete godoc
// @Summary Delete visit
// @Description Delete a visit. Reserved stock is released first; if the release fails the visit is kept and 409 is returned.
// @Tags Visits
// @Accept json
// @Produce json
// @Param id path string true "Visit ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /visits/{id} [delete]
func (h *VisitHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid visit ID format")
		return
	}

	if err := h.visitService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrStockReconciliation) {
			respondWithError(w, http.StatusConflict, "Could not release reserved stock; visit was not deleted")
			return
		}
		h.handleServiceError(w, err, "failed to delete visit")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *VisitHandler) handleServiceError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, service.ErrUserContextRequired):
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, service.ErrVisitNotFound):
		respondWithError(w, http.StatusNotFound, "Visit not found")
	case errors.Is(err, service.ErrCustomerNotFound):
		respondWithError(w, http.StatusNotFound, "Customer not found")
	case errors.Is(err, service.ErrInvalidStatus), errors.Is(err, service.ErrInvalidInput):
		respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(logMsg, zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
