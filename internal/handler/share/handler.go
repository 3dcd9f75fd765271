package share

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pawtrail/petcare-api/internal/handler"
	"github.com/pawtrail/petcare-api/internal/model"
	"github.com/pawtrail/petcare-api/internal/service/share"
	"github.com/pawtrail/petcare-api/pkg/httputil"
)

type Handler struct {
	service *share.Service
}

func NewHandler(service *share.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires the authenticated share management surface.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	records := r.Group("/records/:id/shares")
	{
		records.POST("", h.CreateShare)
		records.GET("", h.ListShares)
	}
	r.DELETE("/shares/:id", h.RevokeShare)
}

// RegisterPublicRoutes wires the bearer-less redemption surface: the
// share ID is the credential, no account is required.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	shares := r.Group("/shares/:id")
	{
		shares.GET("/redeem", h.RedeemShare)
		shares.PUT("/record", h.UpdateViaShare)
	}
}

func (h *Handler) CreateShare(c *gin.Context) {
	userID, ok := handler.CurrentUser(c)
	if !ok {
		return
	}
	recordID, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.CreateShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.Response{Success: false, Message: err.Error()})
		return
	}

	created, err := h.service.CreateShare(c.Request.Context(), userID, recordID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, created)
}

func (h *Handler) ListShares(c *gin.Context) {
	userID, ok := handler.CurrentUser(c)
	if !ok {
		return
	}
	recordID, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	shares, err := h.service.ListShares(c.Request.Context(), userID, recordID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, shares)
}

func (h *Handler) RevokeShare(c *gin.Context) {
	userID, ok := handler.CurrentUser(c)
	if !ok {
		return
	}
	shareID, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.RevokeShare(c.Request.Context(), userID, shareID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "share revoked")
}

func (h *Handler) RedeemShare(c *gin.Context) {
	shareID, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	redeemed, err := h.service.RedeemShare(c.Request.Context(), shareID, handler.Meta(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, redeemed)
}

func (h *Handler) UpdateViaShare(c *gin.Context) {
	shareID, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.UpdateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.Response{Success: false, Message: err.Error()})
		return
	}

	record, err := h.service.UpdateViaShare(c.Request.Context(), shareID, &req, handler.Meta(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, record)
}
