package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/storyseed/core/internal/middleware"
	"github.com/storyseed/core/internal/models"
	"github.com/storyseed/core/internal/modules/dailyprompt"
	"github.com/storyseed/core/internal/pkg/pagination"
	"github.com/storyseed/core/internal/pkg/response"
)

type GenerateDTO struct {
	BookID     string `json:"book_id"`
	ElementID  string `json:"element_id"`
	PromptType string `json:"prompt_type"`
}

// PromptDetail is a prompt with its responses attached.
type PromptDetail struct {
	models.PromptModel
	Responses []models.ResponseModel `json:"responses"`
}

type Service struct {
	db       *gorm.DB
	prefs    *dailyprompt.Service
	selector *dailyprompt.Selector
	composer *dailyprompt.Composer
}

func NewService(db *gorm.DB, prefs *dailyprompt.Service, selector *dailyprompt.Selector, composer *dailyprompt.Composer) *Service {
	return &Service{db: db, prefs: prefs, selector: selector, composer: composer}
}

func (s *Service) List(userID, bookID, promptType, mode string, q pagination.Query) ([]models.PromptModel, response.Pagination, error) {
	query := s.db.Model(&models.PromptModel{}).
		Where("user_id = ?", userID).
		Order("generated_at DESC")
	if bookID != "" {
		query = query.Where("book_id = ?", bookID)
	}
	if promptType != "" {
		query = query.Where("prompt_type = ?", promptType)
	}
	if mode != "" {
		query = query.Where("prompt_mode = ?", mode)
	}

	var prompts []models.PromptModel
	page, err := pagination.Paginate(query, q, &prompts)
	return prompts, page, err
}

func (s *Service) GetByID(userID, id string) (*PromptDetail, error) {
	var p models.PromptModel
	if err := s.db.First(&p, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	detail := PromptDetail{PromptModel: p}
	err := s.db.Where("prompt_id = ?", id).Order("created_at ASC").Find(&detail.Responses).Error
	return &detail, err
}

func (s *Service) Delete(userID, id string) error {
	var p models.PromptModel
	if err := s.db.First(&p, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.ResponseModel{}, "prompt_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.PromptModel{}, "id = ?", id).Error
	})
}

// Generate produces a prompt on demand. The caller may pin a book, an
// element, a category, or none of them; unpinned pieces are chosen the same
// way the scheduled path chooses them.
func (s *Service) Generate(ctx context.Context, userID string, dto *GenerateDTO) (*models.PromptModel, error) {
	prefs, err := s.prefs.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	// The interactive path honors stored flags but not the stored focus book.
	scope := *prefs
	scope.FocusBookID = nil
	if dto.BookID != "" {
		scope.FocusBookID = &dto.BookID
	}

	var pinnedType models.PromptType
	if dto.PromptType != "" {
		pinnedType = models.PromptType(dto.PromptType)
		if !pinnedType.Valid() {
			return nil, fmt.Errorf("unknown prompt type %q", dto.PromptType)
		}
	}

	var target *dailyprompt.Target
	if dto.ElementID != "" {
		target, err = s.pinnedTarget(ctx, userID, &scope, dto.ElementID)
	} else {
		target, err = s.selector.SelectPromptTarget(ctx, userID, &scope)
	}
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, nil
	}
	if pinnedType != "" {
		target.PromptType = pinnedType
	}

	history := map[string][]dailyprompt.HistoryEntry{}
	if prefs.IncludePrevAnswers {
		entries, err := s.prefs.ElementHistory(ctx, target.Element.ID, 3)
		if err != nil {
			return nil, err
		}
		history[target.Element.ID] = entries
	}

	bookCtx := dailyprompt.BookContext{Title: target.Book.Title}
	element := target.Element
	if prefs.IncludeContext {
		bookCtx.Description = target.Book.Description
	} else {
		element.Description = ""
		element.Notes = ""
	}

	text, err := s.composer.Compose(ctx, bookCtx, target.PromptType,
		[]models.StoryElementModel{element}, history, prefs)
	if err != nil {
		return nil, err
	}

	p := models.PromptModel{
		UserID:      userID,
		BookID:      target.Book.ID,
		PromptText:  text,
		PromptType:  target.PromptType,
		PromptMode:  models.PromptModeInteractive,
		ElementRefs: models.StringArray{target.Element.ID},
		GeneratedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, fmt.Errorf("persist prompt: %w", err)
	}
	return &p, nil
}

// pinnedTarget builds a Target around a caller-chosen element, still running
// the category draw through the selector so recency avoidance applies.
func (s *Service) pinnedTarget(ctx context.Context, userID string, prefs *models.DailyPromptPreferenceModel, elementID string) (*dailyprompt.Target, error) {
	var el models.StoryElementModel
	err := s.db.WithContext(ctx).First(&el, "id = ? AND user_id = ?", elementID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("story element not found")
		}
		return nil, err
	}

	scoped := *prefs
	scoped.FocusBookID = &el.BookID
	target, err := s.selector.SelectPromptTarget(ctx, userID, &scoped)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, nil
	}
	target.Element = el
	return target, nil
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/prompts", authMW)
	g.GET("", h.list)
	g.POST("/generate", h.generate)
	g.GET("/:id", h.get)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	q := pagination.FromContext(c)
	prompts, page, err := h.svc.List(middleware.CurrentUserID(c),
		c.Query("book_id"), c.Query("type"), c.Query("mode"), q)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, prompts, page)
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.svc.GetByID(middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if p == nil {
		response.NotFoundMsg(c, "prompt not found")
		return
	}
	response.OK(c, p)
}

func (h *Handler) generate(c *gin.Context) {
	var dto GenerateDTO
	if err := c.ShouldBindJSON(&dto); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, err.Error())
		return
	}

	p, err := h.svc.Generate(c.Request.Context(), middleware.CurrentUserID(c), &dto)
	if err != nil {
		if errors.Is(err, dailyprompt.ErrProvider) {
			response.BadGateway(c, err.Error())
			return
		}
		response.UnprocessableEntity(c, err.Error())
		return
	}
	if p == nil {
		response.NotFoundMsg(c, "nothing to prompt about yet; add a book with story elements first")
		return
	}
	response.Created(c, p)
}

func (h *Handler) delete(c *gin.Context) {
	err := h.svc.Delete(middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFoundMsg(c, "prompt not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}
