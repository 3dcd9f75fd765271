package medical

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pawtrail/petcare-api/internal/handler"
	"github.com/pawtrail/petcare-api/internal/model"
	"github.com/pawtrail/petcare-api/internal/service/medical"
	"github.com/pawtrail/petcare-api/pkg/httputil"
)

type Handler struct {
	service *medical.Service
}

func NewHandler(service *medical.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	pets := r.Group("/pets/:id")
	{
		pets.POST("/records", h.CreateRecord)
		pets.GET("/records", h.ListRecords)

		pets.POST("/vaccinations", h.CreateVaccination)
		pets.GET("/vaccinations", h.ListVaccinations)

		pets.POST("/prescriptions", h.CreatePrescription)
		pets.GET("/prescriptions", h.ListPrescriptions)

		pets.POST("/allergies", h.CreateAllergy)
		pets.GET("/allergies", h.ListAllergies)

		pets.POST("/vitals", h.CreateVitalSigns)
		pets.GET("/vitals", h.ListVitalSigns)
	}

	records := r.Group("/records")
	{
		records.GET("/:id", h.GetRecord)
		records.GET("/:id/download", h.DownloadRecord)
		records.PUT("/:id", h.UpdateRecord)
		records.DELETE("/:id", h.DeleteRecord)
		records.GET("/:id/access-logs", h.AccessTrail)
	}
}

func (h *Handler) CreateRecord(c *gin.Context) {
	userID, ok := handler.CurrentUser(c)
	if !ok {
		return
	}
	petID, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.CreateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.Response{Success: false, Message: err.Error()})
		return
	}

	record, err := h.service.CreateRecord(c.Request.Context(), userID, petID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, record)
}

func (h *Handler) ListRecords(c *gin.Context) {
	userID, ok := handler.CurrentUser(c)
	if !ok {
		return
	}
	petID, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var filters model.RecordFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, httputil.Response{Success: false, Message: err.Error()})
		return
	}

	records, err := h.service.ListRecords(c.Request.Context(), userID, petID, &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, records)
}

func (h *Handler) GetRecord(c *gin.Context) {
	userID, ok := handler.CurrentUser(c)
	if !ok {
		return
	}
	recordID, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	record, err := h.service.GetRecord(c.Request.Context(), userID, recordID, handler.Meta(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, record)
}

// DownloadRecord returns the record with its attachment URLs; the trail
// distinguishes downloads from plain views.
func (h *Handler) DownloadRecord(c *gin.Context) {
	userID, ok := handler.CurrentUser(c)
	if !ok {
		return
	}
	recordID, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	record, err := h.service.DownloadRecord(c.Request.Context(), userID, recordID, handler.Meta(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, record)
}

func (h *Handler) UpdateRecord(c *gin.Context) {
	userID, ok := handler.CurrentUser(c)
	if !ok {
		return
	}
	recordID, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.UpdateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.Response{Success: false, Message: err.Error()})
		return
	}

	record, err := h.service.UpdateRecord(c.Request.Context(), userID, recordID, &req, handler.Meta(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, record)
}

func (h *Handler) DeleteRecord(c *gin.Context) {
	userID, ok := handler.CurrentUser(c)
	if !ok {
		return
	}
	recordID, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteRecord(c.Request.Context(), userID, recordID, handler.Meta(c)); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "record deleted")
}

func (h *Handler) AccessTrail(c *gin.Context) {
	userID, ok := handler.CurrentUser(c)
	if !ok {
		return
	}
	recordID, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	entries, err := h.service.AccessTrail(c.Request.Context(), userID, recordID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, entries)
}

func (h *Handler) CreateVaccination(c *gin.Context) {
	userID, ok := handler.CurrentUser(c)
	if !ok {
		return
	}
	petID, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.CreateVaccinationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.Response{Success: false, Message: err.Error()})
		return
	}

	v, err := h.service.CreateVaccination(c.Request.Context(), userID, petID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, v)
}

func (h *Handler) ListVaccinations(c *gin.Context) {
	userID, ok := handler.CurrentUser(c)
	if !ok {
		return
	}
	petID, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	vs, err := h.service.ListVaccinations(c.Request.Context(), userID, petID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, vs)
}

func (h *Handler) CreatePrescription(c *gin.Context) {
	userID, ok := handler.CurrentUser(c)
	if !ok {
		return
	}
	petID, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.CreatePrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.Response{Success: false, Message: err.Error()})
		return
	}

	p, err := h.service.CreatePrescription(c.Request.Context(), userID, petID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, p)
}

func (h *Handler) ListPrescriptions(c *gin.Context) {
	userID, ok := handler.CurrentUser(c)
	if !ok {
		return
	}
	petID, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	ps, err := h.service.ListPrescriptions(c.Request.Context(), userID, petID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, ps)
}

func (h *Handler) CreateAllergy(c *gin.Context) {
	userID, ok := handler.CurrentUser(c)
	if !ok {
		return
	}
	petID, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.CreateAllergyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.Response{Success: false, Message: err.Error()})
		return
	}

	a, err := h.service.CreateAllergy(c.Request.Context(), userID, petID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, a)
}

func (h *Handler) ListAllergies(c *gin.Context) {
	userID, ok := handler.CurrentUser(c)
	if !ok {
		return
	}
	petID, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	as, err := h.service.ListAllergies(c.Request.Context(), userID, petID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, as)
}

func (h *Handler) CreateVitalSigns(c *gin.Context) {
	userID, ok := handler.CurrentUser(c)
	if !ok {
		return
	}
	petID, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.CreateVitalSignsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.Response{Success: false, Message: err.Error()})
		return
	}

	v, err := h.service.CreateVitalSigns(c.Request.Context(), userID, petID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, v)
}

func (h *Handler) ListVitalSigns(c *gin.Context) {
	userID, ok := handler.CurrentUser(c)
	if !ok {
		return
	}
	petID, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	vs, err := h.service.ListVitalSigns(c.Request.Context(), userID, petID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, vs)
}
