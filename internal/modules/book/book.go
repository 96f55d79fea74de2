package book

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/storyseed/core/internal/middleware"
	"github.com/storyseed/core/internal/models"
	"github.com/storyseed/core/internal/pkg/pagination"
	"github.com/storyseed/core/internal/pkg/response"
)

type CreateBookDTO struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description"`
}

type UpdateBookDTO struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// BookStats summarizes one book's content and activity.
type BookStats struct {
	ElementCounts map[models.ElementType]int64 `json:"element_counts"`
	PromptCount   int64                        `json:"prompt_count"`
	ResponseCount int64                        `json:"response_count"`
	TotalWords    int64                        `json:"total_words"`
}

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) List(userID string, q pagination.Query) ([]models.BookModel, response.Pagination, error) {
	query := s.db.Model(&models.BookModel{}).
		Where("user_id = ?", userID).
		Order("created_at DESC")

	var books []models.BookModel
	page, err := pagination.Paginate(query, q, &books)
	return books, page, err
}

func (s *Service) GetByID(userID, id string) (*models.BookModel, error) {
	var b models.BookModel
	if err := s.db.First(&b, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (s *Service) Create(userID string, dto *CreateBookDTO) (*models.BookModel, error) {
	b := models.BookModel{
		UserID:      userID,
		Title:       dto.Title,
		Description: dto.Description,
	}
	return &b, s.db.Create(&b).Error
}

func (s *Service) Update(userID, id string, dto *UpdateBookDTO) (*models.BookModel, error) {
	b, err := s.GetByID(userID, id)
	if err != nil || b == nil {
		return b, err
	}

	updates := map[string]interface{}{}
	if dto.Title != nil {
		updates["title"] = *dto.Title
	}
	if dto.Description != nil {
		updates["description"] = *dto.Description
	}
	return b, s.db.Model(b).Updates(updates).Error
}

// Delete removes the book and everything hanging off it.
func (s *Service) Delete(userID, id string) error {
	b, err := s.GetByID(userID, id)
	if err != nil {
		return err
	}
	if b == nil {
		return gorm.ErrRecordNotFound
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var promptIDs []string
		if err := tx.Model(&models.PromptModel{}).Where("book_id = ?", id).Pluck("id", &promptIDs).Error; err != nil {
			return err
		}
		if len(promptIDs) > 0 {
			if err := tx.Delete(&models.ResponseModel{}, "prompt_id IN ?", promptIDs).Error; err != nil {
				return err
			}
		}
		if err := tx.Delete(&models.PromptModel{}, "book_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.StoryElementModel{}, "book_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.BookModel{}, "id = ?", id).Error
	})
}

func (s *Service) Stats(userID, id string) (*BookStats, error) {
	b, err := s.GetByID(userID, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, nil
	}

	stats := &BookStats{ElementCounts: map[models.ElementType]int64{}}

	type countRow struct {
		ElementType models.ElementType
		N           int64
	}
	var rows []countRow
	err = s.db.Model(&models.StoryElementModel{}).
		Select("element_type, COUNT(*) AS n").
		Where("book_id = ?", id).
		Group("element_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		stats.ElementCounts[r.ElementType] = r.N
	}

	if err := s.db.Model(&models.PromptModel{}).Where("book_id = ?", id).Count(&stats.PromptCount).Error; err != nil {
		return nil, err
	}

	err = s.db.Model(&models.ResponseModel{}).
		Joins("JOIN prompts ON prompts.id = responses.prompt_id").
		Where("prompts.book_id = ? AND prompts.deleted_at IS NULL", id).
		Count(&stats.ResponseCount).Error
	if err != nil {
		return nil, err
	}

	err = s.db.Model(&models.ResponseModel{}).
		Joins("JOIN prompts ON prompts.id = responses.prompt_id").
		Where("prompts.book_id = ? AND prompts.deleted_at IS NULL", id).
		Select("COALESCE(SUM(responses.word_count), 0)").
		Scan(&stats.TotalWords).Error
	return stats, err
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/books", authMW)
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
	g.GET("/:id/stats", h.stats)
}

func (h *Handler) list(c *gin.Context) {
	q := pagination.FromContext(c)
	books, page, err := h.svc.List(middleware.CurrentUserID(c), q)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, books, page)
}

func (h *Handler) get(c *gin.Context) {
	b, err := h.svc.GetByID(middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if b == nil {
		response.NotFoundMsg(c, "book not found")
		return
	}
	response.OK(c, b)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateBookDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	b, err := h.svc.Create(middleware.CurrentUserID(c), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, b)
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateBookDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	b, err := h.svc.Update(middleware.CurrentUserID(c), c.Param("id"), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if b == nil {
		response.NotFoundMsg(c, "book not found")
		return
	}
	response.OK(c, b)
}

func (h *Handler) delete(c *gin.Context) {
	err := h.svc.Delete(middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFoundMsg(c, "book not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.svc.Stats(middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if stats == nil {
		response.NotFoundMsg(c, "book not found")
		return
	}
	response.OK(c, stats)
}
