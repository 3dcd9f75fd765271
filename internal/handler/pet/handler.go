package pet

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pawtrail/petcare-api/internal/handler"
	"github.com/pawtrail/petcare-api/internal/model"
	"github.com/pawtrail/petcare-api/internal/service/pet"
	"github.com/pawtrail/petcare-api/pkg/httputil"
)

type Handler struct {
	service *pet.Service
}

func NewHandler(service *pet.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	pets := r.Group("/pets")
	{
		pets.POST("", h.CreatePet)
		pets.GET("", h.ListPets)
		pets.GET("/:id", h.GetPet)
		pets.PUT("/:id", h.UpdatePet)
		pets.DELETE("/:id", h.DeletePet)

		pets.GET("/:id/caregivers", h.ListCaregivers)
		pets.POST("/:id/caregivers", h.AssignCaregiver)
		pets.PUT("/:id/caregivers/:caregiverId", h.UpdateCaregiverRole)
		pets.DELETE("/:id/caregivers/:caregiverId", h.RemoveCaregiver)
	}
}

func (h *Handler) CreatePet(c *gin.Context) {
	userID, ok := handler.CurrentUser(c)
	if !ok {
		return
	}

	var req model.CreatePetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.Response{Success: false, Message: err.Error()})
		return
	}

	created, err := h.service.CreatePet(c.Request.Context(), userID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, created)
}

func (h *Handler) ListPets(c *gin.Context) {
	userID, ok := handler.CurrentUser(c)
	if !ok {
		return
	}

	pets, err := h.service.ListPets(c.Request.Context(), userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, pets)
}

func (h *Handler) GetPet(c *gin.Context) {
	userID, ok := handler.CurrentUser(c)
	if !ok {
		return
	}
	petID, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	found, err := h.service.GetPet(c.Request.Context(), userID, petID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, found)
}

func (h *Handler) UpdatePet(c *gin.Context) {
	userID, ok := handler.CurrentUser(c)
	if !ok {
		return
	}
	petID, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.UpdatePetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.Response{Success: false, Message: err.Error()})
		return
	}

	updated, err := h.service.UpdatePet(c.Request.Context(), userID, petID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, updated)
}

func (h *Handler) DeletePet(c *gin.Context) {
	userID, ok := handler.CurrentUser(c)
	if !ok {
		return
	}
	petID, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeletePet(c.Request.Context(), userID, petID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "pet deactivated")
}

func (h *Handler) ListCaregivers(c *gin.Context) {
	userID, ok := handler.CurrentUser(c)
	if !ok {
		return
	}
	petID, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	caregivers, err := h.service.ListCaregivers(c.Request.Context(), userID, petID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, caregivers)
}

func (h *Handler) AssignCaregiver(c *gin.Context) {
	userID, ok := handler.CurrentUser(c)
	if !ok {
		return
	}
	petID, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.AssignCaregiverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.Response{Success: false, Message: err.Error()})
		return
	}

	assignment, err := h.service.AssignCaregiver(c.Request.Context(), userID, petID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, assignment)
}

func (h *Handler) UpdateCaregiverRole(c *gin.Context) {
	userID, ok := handler.CurrentUser(c)
	if !ok {
		return
	}
	petID, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	caregiverID, ok := handler.ParseUUIDParam(c, "caregiverId")
	if !ok {
		return
	}

	var req model.UpdateCaregiverRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.Response{Success: false, Message: err.Error()})
		return
	}

	assignment, err := h.service.UpdateCaregiverRole(c.Request.Context(), userID, petID, caregiverID, req.Role)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, assignment)
}

func (h *Handler) RemoveCaregiver(c *gin.Context) {
	userID, ok := handler.CurrentUser(c)
	if !ok {
		return
	}
	petID, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	caregiverID, ok := handler.ParseUUIDParam(c, "caregiverId")
	if !ok {
		return
	}

	if err := h.service.RemoveCaregiver(c.Request.Context(), userID, petID, caregiverID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "caregiver removed")
}
