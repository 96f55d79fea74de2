package dailyprompt

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/storyseed/core/internal/middleware"
	"github.com/storyseed/core/internal/pkg/pagination"
	"github.com/storyseed/core/internal/pkg/response"
)

// Handler exposes daily prompt preferences, history, and delivery actions.
type Handler struct {
	svc   *Service
	cycle *Cycle
}

func NewHandler(svc *Service, cycle *Cycle) *Handler {
	return &Handler{svc: svc, cycle: cycle}
}

// transparent 1x1 PNG for open tracking.
var trackingPixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x62, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func (h *Handler) RegisterRoutes(api *gin.RouterGroup, auth gin.HandlerFunc) {
	group := api.Group("/daily-prompts")

	// Open tracking must work from email clients with no auth.
	group.GET("/open/:id", h.openPixel)

	group.Use(auth)
	group.GET("/preferences", h.getPreferences)
	group.PUT("/preferences", h.updatePreferences)
	group.GET("/history", h.history)
	group.POST("/test", h.sendTest)
	group.POST("/skip/:id", h.skip)
}

func (h *Handler) getPreferences(c *gin.Context) {
	prefs, err := h.svc.GetPreferences(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, prefs)
}

func (h *Handler) updatePreferences(c *gin.Context) {
	var req UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	prefs, err := h.svc.UpdatePreferences(c.Request.Context(), middleware.CurrentUserID(c), &req)
	if err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	response.OK(c, prefs)
}

func (h *Handler) history(c *gin.Context) {
	q := pagination.FromContext(c)
	logs, page, err := h.svc.History(c.Request.Context(), middleware.CurrentUserID(c), q)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, logs, page)
}

func (h *Handler) sendTest(c *gin.Context) {
	log, err := h.cycle.SendTest(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		if errors.Is(err, ErrProvider) {
			response.BadGateway(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	if log == nil {
		response.NotFoundMsg(c, "nothing to prompt about yet; add a book with story elements first")
		return
	}
	response.OK(c, log)
}

func (h *Handler) skip(c *gin.Context) {
	var req SkipRequest
	_ = c.ShouldBindJSON(&req)

	paused, err := h.svc.RecordSkip(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), req.Reason)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"skipped": true, "paused": paused})
}

func (h *Handler) openPixel(c *gin.Context) {
	id := strings.TrimSuffix(c.Param("id"), ".png")
	if id != "" {
		h.svc.MarkOpened(c.Request.Context(), id)
	}
	c.Data(200, "image/png", trackingPixel)
}
