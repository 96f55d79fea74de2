package resp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/storyseed/core/internal/middleware"
	"github.com/storyseed/core/internal/models"
	"github.com/storyseed/core/internal/modules/dailyprompt"
	"github.com/storyseed/core/internal/pkg/pagination"
	"github.com/storyseed/core/internal/pkg/response"
)

type CreateResponseDTO struct {
	PromptID     string `json:"prompt_id"     binding:"required"`
	ResponseText string `json:"response_text" binding:"required"`
}

type UpdateResponseDTO struct {
	ResponseText string `json:"response_text" binding:"required"`
}

type Service struct {
	db     *gorm.DB
	daily  *dailyprompt.Service
	logger *zap.Logger
}

func NewService(db *gorm.DB, daily *dailyprompt.Service, logger *zap.Logger) *Service {
	return &Service{db: db, daily: daily, logger: logger}
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

func (s *Service) List(userID, promptID string, q pagination.Query) ([]models.ResponseModel, response.Pagination, error) {
	query := s.db.Model(&models.ResponseModel{}).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if promptID != "" {
		query = query.Where("prompt_id = ?", promptID)
	}

	var responses []models.ResponseModel
	page, err := pagination.Paginate(query, q, &responses)
	return responses, page, err
}

func (s *Service) GetByID(userID, id string) (*models.ResponseModel, error) {
	var r models.ResponseModel
	if err := s.db.First(&r, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

func (s *Service) Create(ctx context.Context, userID string, dto *CreateResponseDTO) (*models.ResponseModel, error) {
	var count int64
	s.db.Model(&models.PromptModel{}).Where("id = ? AND user_id = ?", dto.PromptID, userID).Count(&count)
	if count == 0 {
		return nil, fmt.Errorf("prompt not found")
	}

	r := models.ResponseModel{
		PromptID:     dto.PromptID,
		UserID:       userID,
		ResponseText: dto.ResponseText,
		WordCount:    WordCount(dto.ResponseText),
	}
	if err := s.db.WithContext(ctx).Create(&r).Error; err != nil {
		return nil, err
	}

	// Answering a prompt marks its delivery as responded and resets the
	// skip streak.
	if err := s.daily.NotifyResponse(ctx, userID, dto.PromptID, r.CreatedAt); err != nil {
		s.logger.Warn("response bookkeeping failed",
			zap.String("user_id", userID),
			zap.String("prompt_id", dto.PromptID),
			zap.Error(err))
	}
	return &r, nil
}

func (s *Service) Update(userID, id string, dto *UpdateResponseDTO) (*models.ResponseModel, error) {
	r, err := s.GetByID(userID, id)
	if err != nil || r == nil {
		return r, err
	}

	updates := map[string]interface{}{
		"response_text": dto.ResponseText,
		"word_count":    WordCount(dto.ResponseText),
	}
	return r, s.db.Model(r).Updates(updates).Error
}

func (s *Service) Delete(userID, id string) error {
	r, err := s.GetByID(userID, id)
	if err != nil {
		return err
	}
	if r == nil {
		return gorm.ErrRecordNotFound
	}
	return s.db.Delete(&models.ResponseModel{}, "id = ?", id).Error
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/responses", authMW)
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)

	p := rg.Group("/prompts", authMW)
	p.GET("/:id/responses", h.listForPrompt)
	p.POST("/:id/responses", h.createForPrompt)
}

func (h *Handler) listForPrompt(c *gin.Context) {
	q := pagination.FromContext(c)
	responses, page, err := h.svc.List(middleware.CurrentUserID(c), c.Param("id"), q)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, responses, page)
}

func (h *Handler) createForPrompt(c *gin.Context) {
	var dto UpdateResponseDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	r, err := h.svc.Create(c.Request.Context(), middleware.CurrentUserID(c), &CreateResponseDTO{
		PromptID:     c.Param("id"),
		ResponseText: dto.ResponseText,
	})
	if err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	response.Created(c, r)
}

func (h *Handler) list(c *gin.Context) {
	q := pagination.FromContext(c)
	responses, page, err := h.svc.List(middleware.CurrentUserID(c), c.Query("prompt_id"), q)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, responses, page)
}

func (h *Handler) get(c *gin.Context) {
	r, err := h.svc.GetByID(middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if r == nil {
		response.NotFoundMsg(c, "response not found")
		return
	}
	response.OK(c, r)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateResponseDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	r, err := h.svc.Create(c.Request.Context(), middleware.CurrentUserID(c), &dto)
	if err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	response.Created(c, r)
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateResponseDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	r, err := h.svc.Update(middleware.CurrentUserID(c), c.Param("id"), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if r == nil {
		response.NotFoundMsg(c, "response not found")
		return
	}
	response.OK(c, r)
}

func (h *Handler) delete(c *gin.Context) {
	err := h.svc.Delete(middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFoundMsg(c, "response not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}
