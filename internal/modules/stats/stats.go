package stats

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/storyseed/core/internal/middleware"
	"github.com/storyseed/core/internal/models"
	"github.com/storyseed/core/internal/pkg/response"
)

// Overview is the writing dashboard payload.
type Overview struct {
	Books          int64          `json:"books"`
	Elements       int64          `json:"elements"`
	Prompts        int64          `json:"prompts"`
	Responses      int64          `json:"responses"`
	TotalWords     int64          `json:"total_words"`
	CurrentStreak  int            `json:"current_streak"`
	LongestStreak  int            `json:"longest_streak"`
	WordsByDay     map[string]int `json:"words_by_day"` // last 30 local dates
	PromptsOpened  int64          `json:"prompts_opened"`
	PromptsSkipped int64          `json:"prompts_skipped"`
}

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) Overview(ctx context.Context, userID string) (*Overview, error) {
	o := &Overview{WordsByDay: map[string]int{}}
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.BookModel{}).Where("user_id = ?", userID).Count(&o.Books).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.StoryElementModel{}).Where("user_id = ?", userID).Count(&o.Elements).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.PromptModel{}).Where("user_id = ?", userID).Count(&o.Prompts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.ResponseModel{}).Where("user_id = ?", userID).Count(&o.Responses).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.ResponseModel{}).Where("user_id = ?", userID).
		Select("COALESCE(SUM(word_count), 0)").Scan(&o.TotalWords).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&models.DailyPromptSentModel{}).
		Where("user_id = ? AND opened_at IS NOT NULL", userID).Count(&o.PromptsOpened).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.DailyPromptSentModel{}).
		Where("user_id = ? AND skipped = ?", userID, true).Count(&o.PromptsSkipped).Error; err != nil {
		return nil, err
	}

	loc := s.userLocation(ctx, userID)
	now := time.Now().In(loc)

	type respRow struct {
		CreatedAt time.Time
		WordCount int
	}
	var rows []respRow
	err := db.Model(&models.ResponseModel{}).
		Select("created_at, word_count").
		Where("user_id = ?", userID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	dates := make(map[string]bool, len(rows))
	cutoff := now.AddDate(0, 0, -30)
	for _, r := range rows {
		local := r.CreatedAt.In(loc)
		day := local.Format("2006-01-02")
		dates[day] = true
		if local.After(cutoff) {
			o.WordsByDay[day] += r.WordCount
		}
	}

	o.CurrentStreak = Streak(dates, now)
	o.LongestStreak = LongestStreak(dates)
	return o, nil
}

func (s *Service) userLocation(ctx context.Context, userID string) *time.Location {
	var user models.UserModel
	if err := s.db.WithContext(ctx).Select("timezone").First(&user, "id = ?", userID).Error; err != nil {
		return time.UTC
	}
	loc, err := time.LoadLocation(user.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/stats", authMW)
	g.GET("/overview", h.overview)
}

func (h *Handler) overview(c *gin.Context) {
	o, err := h.svc.Overview(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, o)
}
