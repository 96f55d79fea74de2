package dailyprompt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/storyseed/core/internal/models"
	"github.com/storyseed/core/internal/pkg/pagination"
	"github.com/storyseed/core/internal/pkg/response"
)

// Service manages daily prompt preferences and the delivery log.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// GetPreferences returns the user's preference row, creating a default one on
// first access.
func (s *Service) GetPreferences(ctx context.Context, userID string) (*models.DailyPromptPreferenceModel, error) {
	var prefs models.DailyPromptPreferenceModel
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&prefs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		prefs = models.DailyPromptPreferenceModel{
			UserID:              userID,
			DeliveryHour:        8,
			Timezone:            "UTC",
			EmailFormat:         models.EmailFormatDetailed,
			FocusUnderdeveloped: true,
			AvoidRepetitionDays: 7,
			IncludeContext:      true,
			IncludePrevAnswers:  true,
			PauseAfterSkips:     5,
		}
		if err := s.db.WithContext(ctx).Create(&prefs).Error; err != nil {
			return nil, fmt.Errorf("create preferences: %w", err)
		}
		return &prefs, nil
	}
	if err != nil {
		return nil, err
	}
	return &prefs, nil
}

// UpdatePreferences applies a partial update.
func (s *Service) UpdatePreferences(ctx context.Context, userID string, req *UpdatePreferencesRequest) (*models.DailyPromptPreferenceModel, error) {
	prefs, err := s.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Enabled != nil {
		prefs.Enabled = *req.Enabled
		if *req.Enabled {
			// Re-enabling clears an auto-pause skip streak.
			prefs.ConsecutiveSkips = 0
		}
	}
	if req.DeliveryHour != nil {
		if *req.DeliveryHour < 0 || *req.DeliveryHour > 23 {
			return nil, fmt.Errorf("delivery_hour must be 0-23")
		}
		prefs.DeliveryHour = *req.DeliveryHour
	}
	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil {
			return nil, fmt.Errorf("unknown timezone %q", *req.Timezone)
		}
		prefs.Timezone = *req.Timezone
	}
	if req.FocusBookID != nil {
		if *req.FocusBookID == "" {
			prefs.FocusBookID = nil
		} else {
			var count int64
			if err := s.db.WithContext(ctx).Model(&models.BookModel{}).
				Where("id = ? AND user_id = ?", *req.FocusBookID, userID).
				Count(&count).Error; err != nil {
				return nil, err
			}
			if count == 0 {
				return nil, fmt.Errorf("focus book not found")
			}
			prefs.FocusBookID = req.FocusBookID
		}
	}
	if req.EmailFormat != nil {
		if !models.ValidEmailFormat(*req.EmailFormat) {
			return nil, fmt.Errorf("unknown email format %q", *req.EmailFormat)
		}
		prefs.EmailFormat = *req.EmailFormat
	}
	if req.IncludeCharacter != nil {
		prefs.IncludeCharacter = req.IncludeCharacter
	}
	if req.IncludePlot != nil {
		prefs.IncludePlot = req.IncludePlot
	}
	if req.IncludeWorldbuilding != nil {
		prefs.IncludeWorldbuilding = req.IncludeWorldbuilding
	}
	if req.IncludeDialogue != nil {
		prefs.IncludeDialogue = req.IncludeDialogue
	}
	if req.IncludeConflict != nil {
		prefs.IncludeConflict = req.IncludeConflict
	}
	if req.IncludeGeneral != nil {
		prefs.IncludeGeneral = req.IncludeGeneral
	}
	if req.FocusUnderdeveloped != nil {
		prefs.FocusUnderdeveloped = *req.FocusUnderdeveloped
	}
	if req.AvoidRepetitionDays != nil {
		if *req.AvoidRepetitionDays < 0 || *req.AvoidRepetitionDays > 30 {
			return nil, fmt.Errorf("avoid_repetition_days must be 0-30")
		}
		prefs.AvoidRepetitionDays = *req.AvoidRepetitionDays
	}
	if req.IncludeContext != nil {
		prefs.IncludeContext = *req.IncludeContext
	}
	if req.IncludePrevAnswers != nil {
		prefs.IncludePrevAnswers = *req.IncludePrevAnswers
	}
	if req.SendStreakWarning != nil {
		prefs.SendStreakWarning = *req.SendStreakWarning
	}
	if req.PauseAfterSkips != nil {
		if *req.PauseAfterSkips < 1 {
			return nil, fmt.Errorf("pause_after_skips must be >= 1")
		}
		prefs.PauseAfterSkips = *req.PauseAfterSkips
	}

	if err := s.db.WithContext(ctx).Save(prefs).Error; err != nil {
		return nil, err
	}
	return prefs, nil
}

// History lists the user's delivery log, newest first.
func (s *Service) History(ctx context.Context, userID string, q pagination.Query) ([]models.DailyPromptSentModel, response.Pagination, error) {
	query := s.db.WithContext(ctx).
		Model(&models.DailyPromptSentModel{}).
		Where("user_id = ?", userID).
		Order("sent_at DESC")

	var logs []models.DailyPromptSentModel
	page, err := pagination.Paginate(query, q, &logs)
	return logs, page, err
}

// RecordSkip marks a delivery as skipped and advances the skip streak,
// auto-pausing deliveries when the configured threshold is reached. Returns
// whether the pause tripped.
func (s *Service) RecordSkip(ctx context.Context, userID, logID, reason string) (bool, error) {
	var log models.DailyPromptSentModel
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", logID, userID).First(&log).Error
	if err != nil {
		return false, err
	}
	if log.Skipped {
		return false, nil
	}

	log.Skipped = true
	log.SkipReason = reason
	if err := s.db.WithContext(ctx).Save(&log).Error; err != nil {
		return false, err
	}

	prefs, err := s.GetPreferences(ctx, userID)
	if err != nil {
		return false, err
	}

	paused := applySkip(prefs)
	if err := s.db.WithContext(ctx).Save(prefs).Error; err != nil {
		return false, err
	}
	if paused {
		s.logger.Info("daily prompts auto-paused after consecutive skips",
			zap.String("user_id", userID),
			zap.Int("skips", prefs.ConsecutiveSkips))
	}
	return paused, nil
}

// NotifyResponse marks the delivery for promptID as responded and resets the
// skip streak. Called when the user saves a response. Missing delivery rows
// (interactive prompts) are fine.
func (s *Service) NotifyResponse(ctx context.Context, userID, promptID string, at time.Time) error {
	err := s.db.WithContext(ctx).
		Model(&models.DailyPromptSentModel{}).
		Where("user_id = ? AND prompt_id = ? AND responded_at IS NULL", userID, promptID).
		Update("responded_at", at).Error
	if err != nil {
		return err
	}

	prefs, err := s.GetPreferences(ctx, userID)
	if err != nil {
		return err
	}
	if prefs.ConsecutiveSkips != 0 {
		applyResponse(prefs)
		return s.db.WithContext(ctx).Save(prefs).Error
	}
	return nil
}

// MarkOpened records the open-tracking pixel hit. Best-effort.
func (s *Service) MarkOpened(ctx context.Context, logID string) {
	now := time.Now()
	err := s.db.WithContext(ctx).
		Model(&models.DailyPromptSentModel{}).
		Where("id = ? AND opened_at IS NULL", logID).
		Update("opened_at", now).Error
	if err != nil {
		s.logger.Debug("mark opened failed", zap.String("log_id", logID), zap.Error(err))
	}
}

// ElementHistory loads up to limit most recent (prompt, response) pairs for
// an element, newest first.
func (s *Service) ElementHistory(ctx context.Context, elementID string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = maxHistoryPerElement
	}

	type row struct {
		PromptText   string
		ResponseText string
	}
	var rows []row
	err := s.db.WithContext(ctx).Raw(`
		SELECT p.prompt_text, r.response_text
		FROM prompts p
		JOIN responses r ON r.prompt_id = p.id AND r.deleted_at IS NULL
		WHERE JSON_CONTAINS(p.element_refs, JSON_QUOTE(?)) AND p.deleted_at IS NULL
		ORDER BY r.created_at DESC
		LIMIT ?`, elementID, limit).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load element history: %w", err)
	}

	entries := make([]HistoryEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, HistoryEntry{PromptText: r.PromptText, ResponseText: r.ResponseText})
	}
	return entries, nil
}

// responseDates returns the distinct local calendar dates the user responded
// on within the last lookback days, in the given location.
func (s *Service) responseDates(ctx context.Context, userID string, loc *time.Location, lookbackDays int) (map[string]bool, error) {
	since := time.Now().AddDate(0, 0, -lookbackDays)
	var stamps []time.Time
	err := s.db.WithContext(ctx).
		Model(&models.ResponseModel{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Pluck("created_at", &stamps).Error
	if err != nil {
		return nil, err
	}

	dates := make(map[string]bool, len(stamps))
	for _, t := range stamps {
		dates[t.In(loc).Format("2006-01-02")] = true
	}
	return dates, nil
}

// applySkip advances the consecutive-skip counter, pausing deliveries once
// the threshold is reached.
func applySkip(prefs *models.DailyPromptPreferenceModel) (paused bool) {
	prefs.ConsecutiveSkips++
	if prefs.PauseAfterSkips > 0 && prefs.ConsecutiveSkips >= prefs.PauseAfterSkips {
		prefs.Enabled = false
		return true
	}
	return false
}

// applyResponse resets the skip streak after the user answers a prompt.
func applyResponse(prefs *models.DailyPromptPreferenceModel) {
	prefs.ConsecutiveSkips = 0
}
