package element

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/storyseed/core/internal/middleware"
	"github.com/storyseed/core/internal/models"
	"github.com/storyseed/core/internal/pkg/pagination"
	"github.com/storyseed/core/internal/pkg/response"
)

type CreateElementDTO struct {
	BookID      string `json:"book_id"      binding:"required"`
	ElementType string `json:"element_type" binding:"required"`
	Name        string `json:"name"         binding:"required,max=200"`
	Description string `json:"description"`
	Notes       string `json:"notes"`
}

type UpdateElementDTO struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Notes       *string `json:"notes"`
}

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) List(userID string, bookID string, elementType string, q pagination.Query) ([]models.StoryElementModel, response.Pagination, error) {
	query := s.db.Model(&models.StoryElementModel{}).
		Where("user_id = ?", userID).
		Order("created_at ASC")
	if bookID != "" {
		query = query.Where("book_id = ?", bookID)
	}
	if elementType != "" {
		query = query.Where("element_type = ?", elementType)
	}

	var elements []models.StoryElementModel
	page, err := pagination.Paginate(query, q, &elements)
	return elements, page, err
}

func (s *Service) GetByID(userID, id string) (*models.StoryElementModel, error) {
	var el models.StoryElementModel
	if err := s.db.First(&el, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &el, nil
}

func (s *Service) Create(userID string, dto *CreateElementDTO) (*models.StoryElementModel, error) {
	t := models.ElementType(dto.ElementType)
	if !t.Valid() {
		return nil, fmt.Errorf("unknown element type %q", dto.ElementType)
	}

	var count int64
	s.db.Model(&models.BookModel{}).Where("id = ? AND user_id = ?", dto.BookID, userID).Count(&count)
	if count == 0 {
		return nil, fmt.Errorf("book not found")
	}

	el := models.StoryElementModel{
		BookID:      dto.BookID,
		UserID:      userID,
		ElementType: t,
		Name:        dto.Name,
		Description: dto.Description,
		Notes:       dto.Notes,
	}
	return &el, s.db.Create(&el).Error
}

func (s *Service) Update(userID, id string, dto *UpdateElementDTO) (*models.StoryElementModel, error) {
	el, err := s.GetByID(userID, id)
	if err != nil || el == nil {
		return el, err
	}

	updates := map[string]interface{}{}
	if dto.Name != nil {
		updates["name"] = *dto.Name
	}
	if dto.Description != nil {
		updates["description"] = *dto.Description
	}
	if dto.Notes != nil {
		updates["notes"] = *dto.Notes
	}
	return el, s.db.Model(el).Updates(updates).Error
}

func (s *Service) Delete(userID, id string) error {
	el, err := s.GetByID(userID, id)
	if err != nil {
		return err
	}
	if el == nil {
		return gorm.ErrRecordNotFound
	}
	return s.db.Delete(&models.StoryElementModel{}, "id = ?", id).Error
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/elements", authMW)
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	q := pagination.FromContext(c)
	elements, page, err := h.svc.List(middleware.CurrentUserID(c),
		c.Query("book_id"), c.Query("type"), q)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, elements, page)
}

func (h *Handler) get(c *gin.Context) {
	el, err := h.svc.GetByID(middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if el == nil {
		response.NotFoundMsg(c, "story element not found")
		return
	}
	response.OK(c, el)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateElementDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	el, err := h.svc.Create(middleware.CurrentUserID(c), &dto)
	if err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	response.Created(c, el)
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateElementDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	el, err := h.svc.Update(middleware.CurrentUserID(c), c.Param("id"), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if el == nil {
		response.NotFoundMsg(c, "story element not found")
		return
	}
	response.OK(c, el)
}

func (h *Handler) delete(c *gin.Context) {
	err := h.svc.Delete(middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFoundMsg(c, "story element not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}
