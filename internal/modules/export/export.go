package export

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/storyseed/core/internal/middleware"
	"github.com/storyseed/core/internal/models"
	"github.com/storyseed/core/internal/pkg/response"
)

// Bundle is the full JSON export of one user's writing data.
type Bundle struct {
	ExportedAt time.Time                  `json:"exported_at"`
	Books      []models.BookModel         `json:"books"`
	Elements   []models.StoryElementModel `json:"elements"`
	Prompts    []models.PromptModel       `json:"prompts"`
	Responses  []models.ResponseModel     `json:"responses"`
}

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) Export(userID string) (*Bundle, error) {
	b := &Bundle{ExportedAt: time.Now()}

	if err := s.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&b.Books).Error; err != nil {
		return nil, err
	}
	if err := s.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&b.Elements).Error; err != nil {
		return nil, err
	}
	if err := s.db.Where("user_id = ?", userID).Order("generated_at ASC").Find(&b.Prompts).Error; err != nil {
		return nil, err
	}
	if err := s.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&b.Responses).Error; err != nil {
		return nil, err
	}
	return b, nil
}

// ExportBook returns the bundle scoped to one book the user owns.
func (s *Service) ExportBook(userID, bookID string) (*Bundle, error) {
	b := &Bundle{ExportedAt: time.Now()}

	if err := s.db.Where("id = ? AND user_id = ?", bookID, userID).Find(&b.Books).Error; err != nil {
		return nil, err
	}
	if len(b.Books) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	if err := s.db.Where("book_id = ?", bookID).Order("created_at ASC").Find(&b.Elements).Error; err != nil {
		return nil, err
	}
	if err := s.db.Where("book_id = ?", bookID).Order("generated_at ASC").Find(&b.Prompts).Error; err != nil {
		return nil, err
	}
	promptIDs := s.db.Model(&models.PromptModel{}).Select("id").Where("book_id = ?", bookID)
	if err := s.db.Where("prompt_id IN (?)", promptIDs).Order("created_at ASC").Find(&b.Responses).Error; err != nil {
		return nil, err
	}
	return b, nil
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/export", authMW)
	g.GET("", h.export)

	b := rg.Group("/books", authMW)
	b.GET("/:id/export", h.exportBook)
}

func (h *Handler) export(c *gin.Context) {
	bundle, err := h.svc.Export(middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	h.send(c, bundle, "storyseed-export")
}

func (h *Handler) exportBook(c *gin.Context) {
	bundle, err := h.svc.ExportBook(middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFoundMsg(c, "book not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	h.send(c, bundle, "storyseed-book-export")
}

func (h *Handler) send(c *gin.Context, bundle *Bundle, prefix string) {
	if c.Query("download") != "" {
		filename := fmt.Sprintf("%s-%s.json", prefix, time.Now().Format("2006-01-02"))
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	}
	c.JSON(http.StatusOK, bundle)
}
