package dailyprompt

import (
	"context"
	"errors"
	"fmt"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"gorm.io/gorm"

	appcfg "github.com/storyseed/core/internal/config"
	"github.com/storyseed/core/internal/models"
	"github.com/storyseed/core/internal/modules/stats"
	"github.com/storyseed/core/internal/pkg/bark"
	"github.com/storyseed/core/internal/pkg/mail"
	redispkg "github.com/storyseed/core/internal/pkg/redis"
)

const (
	sentGuardTTL       = 26 * time.Hour
	streakWarningHour  = 20 // local time
	streakLookbackDays = 60
)

// Cycle drives the scheduled delivery path: once an hour it walks the enabled
// users, selects a prompt target for those whose local delivery hour matches,
// generates and persists a prompt, and emails it.
type Cycle struct {
	db       *gorm.DB
	svc      *Service
	selector *Selector
	composer *Composer
	mailer   *mail.Sender
	redis    *redispkg.Client
	bark     *bark.Service
	cfg      *appcfg.AppConfig
	logger   *zap.Logger

	failStreak int
}

// NewCycle wires the delivery cycle. redis and bark may be nil.
func NewCycle(
	db *gorm.DB,
	svc *Service,
	selector *Selector,
	composer *Composer,
	mailer *mail.Sender,
	redis *redispkg.Client,
	barkSvc *bark.Service,
	cfg *appcfg.AppConfig,
	logger *zap.Logger,
) *Cycle {
	return &Cycle{
		db:       db,
		svc:      svc,
		selector: selector,
		composer: composer,
		mailer:   mailer,
		redis:    redis,
		bark:     barkSvc,
		cfg:      cfg,
		logger:   logger,
	}
}

// ProcessDeliveryCycle runs one hourly pass. Failures are isolated per user:
// one bad user never aborts the rest of the cycle.
func (c *Cycle) ProcessDeliveryCycle(ctx context.Context) error {
	var prefs []models.DailyPromptPreferenceModel
	if err := c.db.WithContext(ctx).Where("enabled = ?", true).Find(&prefs).Error; err != nil {
		return fmt.Errorf("load enabled preferences: %w", err)
	}

	now := time.Now()
	var failed int
	for i := range prefs {
		if ctx.Err() != nil {
			c.logger.Info("delivery cycle interrupted by shutdown")
			return ctx.Err()
		}

		p := &prefs[i]
		if !deliveryDue(p, now) {
			continue
		}
		if err := c.deliverTo(ctx, p, false); err != nil {
			failed++
			c.logger.Error("daily prompt delivery failed",
				zap.String("user_id", p.UserID),
				zap.Error(err))
		}
	}

	if failed > 0 && failed == countDue(prefs, now) {
		c.failStreak++
	} else {
		c.failStreak = 0
	}
	if c.bark != nil && c.cfg.Scheduler.FailureAlertStreak > 0 && c.failStreak >= c.cfg.Scheduler.FailureAlertStreak {
		c.bark.ThrottledPush("daily-cycle", "Delivery cycle failing",
			fmt.Sprintf("%d consecutive cycles with all deliveries failing", c.failStreak))
	}

	return nil
}

// deliveryDue reports whether the user's local clock is inside their chosen
// delivery hour.
func deliveryDue(p *models.DailyPromptPreferenceModel, now time.Time) bool {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return now.In(loc).Hour() == p.DeliveryHour
}

func countDue(prefs []models.DailyPromptPreferenceModel, now time.Time) int {
	n := 0
	for i := range prefs {
		if deliveryDue(&prefs[i], now) {
			n++
		}
	}
	return n
}

// SendTest delivers a prompt immediately regardless of schedule. Test sends
// do not consume the once-per-day slot.
func (c *Cycle) SendTest(ctx context.Context, userID string) (*models.DailyPromptSentModel, error) {
	prefs, err := c.svc.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	return c.deliver(ctx, prefs, true)
}

func (c *Cycle) deliverTo(ctx context.Context, prefs *models.DailyPromptPreferenceModel, isTest bool) error {
	_, err := c.deliver(ctx, prefs, isTest)
	return err
}

// deliver runs the full sequence for one user: guard, select, compose,
// persist prompt, persist delivery log, email, bookkeeping.
func (c *Cycle) deliver(ctx context.Context, prefs *models.DailyPromptPreferenceModel, isTest bool) (*models.DailyPromptSentModel, error) {
	var user models.UserModel
	if err := c.db.WithContext(ctx).Where("id = ?", prefs.UserID).First(&user).Error; err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	utcDate := time.Now().UTC().Format("2006-01-02")

	if !isTest && c.redis != nil {
		key := fmt.Sprintf("storyseed:daily_sent:%s:%s", prefs.UserID, utcDate)
		ok, err := c.redis.SetNX(ctx, key, 1, sentGuardTTL)
		if err == nil && !ok {
			return nil, nil // already handled today
		}
	}

	target, err := c.selector.SelectPromptTarget(ctx, prefs.UserID, prefs)
	if err != nil {
		return nil, err
	}
	if target == nil {
		c.logger.Debug("nothing eligible to prompt about", zap.String("user_id", prefs.UserID))
		return nil, nil
	}

	history := map[string][]HistoryEntry{}
	if prefs.IncludePrevAnswers {
		entries, err := c.svc.ElementHistory(ctx, target.Element.ID, maxHistoryPerElement)
		if err != nil {
			return nil, err
		}
		history[target.Element.ID] = entries
	}

	bookCtx := mapBookContext(target.Book, prefs.IncludeContext)
	element := target.Element
	if !prefs.IncludeContext {
		element.Description = ""
		element.Notes = ""
	}

	text, err := c.composer.Compose(ctx, bookCtx, target.PromptType,
		[]models.StoryElementModel{element}, history, prefs)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	prompt := models.PromptModel{
		UserID:      prefs.UserID,
		BookID:      target.Book.ID,
		PromptText:  text,
		PromptType:  target.PromptType,
		PromptMode:  models.PromptModeScheduled,
		ElementRefs: models.StringArray{target.Element.ID},
		GeneratedAt: now,
	}
	if err := c.db.WithContext(ctx).Create(&prompt).Error; err != nil {
		return nil, fmt.Errorf("persist prompt: %w", err)
	}

	log := models.DailyPromptSentModel{
		UserID:      prefs.UserID,
		PromptID:    prompt.ID,
		ElementID:   target.Element.ID,
		PromptType:  target.PromptType,
		EmailFormat: prefs.EmailFormat,
		SentAt:      now,
		IsTest:      isTest,
	}
	if !isTest {
		log.SentDate = &utcDate
	}
	if err := c.db.WithContext(ctx).Create(&log).Error; err != nil {
		if isDuplicateDeliveryError(err) {
			c.logger.Debug("delivery already recorded for today", zap.String("user_id", prefs.UserID))
			return nil, nil
		}
		return nil, fmt.Errorf("persist delivery log: %w", err)
	}

	if err := c.sendEmail(ctx, &user, prefs, &prompt, &log, target); err != nil {
		// The prompt exists and the slot is consumed; log the send failure.
		c.logger.Error("daily prompt email failed",
			zap.String("user_id", prefs.UserID),
			zap.Error(err))
		return &log, nil
	}

	prefs.LastPromptSentAt = &now
	if err := c.db.WithContext(ctx).Save(prefs).Error; err != nil {
		return &log, err
	}
	return &log, nil
}

func (c *Cycle) sendEmail(
	ctx context.Context,
	user *models.UserModel,
	prefs *models.DailyPromptPreferenceModel,
	prompt *models.PromptModel,
	log *models.DailyPromptSentModel,
	target *Target,
) error {
	loc, err := time.LoadLocation(prefs.Timezone)
	if err != nil {
		loc = time.UTC
	}
	streak := 0
	if dates, err := c.svc.responseDates(ctx, user.ID, loc, streakLookbackDays); err == nil {
		streak = stats.Streak(dates, time.Now().In(loc))
	}

	data := mail.DailyPromptData{
		UserName:    displayName(user),
		BookTitle:   target.Book.Title,
		PromptText:  prompt.PromptText,
		PromptType:  string(prompt.PromptType),
		ElementName: target.Element.Name,
		ElementType: string(target.Element.ElementType),
		Streak:      streak,
		IsTest:      log.IsTest,
		RespondURL:  fmt.Sprintf("%s/prompts/%s", c.cfg.WebURL, prompt.ID),
		SkipURL:     fmt.Sprintf("%s/daily-prompts/skip/%s", c.cfg.WebURL, log.ID),
		PixelURL:    fmt.Sprintf("%s/api/v1/daily-prompts/open/%s.png", c.cfg.WebURL, log.ID),
		WebURL:      c.cfg.WebURL,
	}

	if prefs.EmailFormat == models.EmailFormatDetailed && prefs.IncludePrevAnswers {
		if entries, err := c.svc.ElementHistory(ctx, target.Element.ID, 1); err == nil && len(entries) > 0 {
			if html, err := c.mailer.RenderMarkdown(truncateHistory(entries[0].ResponseText)); err == nil {
				data.PrevAnswer = html
			}
		}
	}

	messageID, err := c.mailer.SendDailyPrompt(user.Email, prefs.EmailFormat, data)
	if err != nil {
		return err
	}
	if messageID != "" {
		log.MessageID = messageID
		return c.db.WithContext(ctx).Model(log).Update("message_id", messageID).Error
	}
	return nil
}

// ProcessStreakWarnings runs hourly: at 8pm local time, users who opted in
// and have an active streak but no response today get a nudge.
func (c *Cycle) ProcessStreakWarnings(ctx context.Context) error {
	var prefs []models.DailyPromptPreferenceModel
	err := c.db.WithContext(ctx).
		Where("enabled = ? AND send_streak_warning = ?", true, true).
		Find(&prefs).Error
	if err != nil {
		return fmt.Errorf("load streak warning preferences: %w", err)
	}

	for i := range prefs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p := &prefs[i]
		if err := c.warnOne(ctx, p); err != nil {
			c.logger.Error("streak warning failed", zap.String("user_id", p.UserID), zap.Error(err))
		}
	}
	return nil
}

func (c *Cycle) warnOne(ctx context.Context, prefs *models.DailyPromptPreferenceModel) error {
	loc, err := time.LoadLocation(prefs.Timezone)
	if err != nil {
		loc = time.UTC
	}
	localNow := time.Now().In(loc)
	if localNow.Hour() != streakWarningHour {
		return nil
	}

	dates, err := c.svc.responseDates(ctx, prefs.UserID, loc, streakLookbackDays)
	if err != nil {
		return err
	}
	today := localNow.Format("2006-01-02")
	if dates[today] {
		return nil // already wrote today
	}
	streak := stats.Streak(dates, localNow)
	if streak == 0 {
		return nil
	}

	if c.redis != nil {
		key := fmt.Sprintf("storyseed:streak_warn:%s:%s", prefs.UserID, today)
		ok, err := c.redis.SetNX(ctx, key, 1, sentGuardTTL)
		if err == nil && !ok {
			return nil
		}
	}

	var user models.UserModel
	if err := c.db.WithContext(ctx).Where("id = ?", prefs.UserID).First(&user).Error; err != nil {
		return err
	}

	midnight := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	return c.mailer.SendStreakWarning(user.Email, mail.StreakWarningData{
		UserName:   displayName(&user),
		Streak:     streak,
		HoursLeft:  int(time.Until(midnight).Hours()),
		RespondURL: fmt.Sprintf("%s/today", c.cfg.WebURL),
		WebURL:     c.cfg.WebURL,
	})
}

// CleanupOldLogs prunes delivery log rows past the retention window.
func (c *Cycle) CleanupOldLogs(ctx context.Context) error {
	days := c.cfg.Scheduler.LogRetentionDays
	if days <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	res := c.db.WithContext(ctx).
		Unscoped().
		Where("sent_at < ?", cutoff).
		Delete(&models.DailyPromptSentModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		c.logger.Info("pruned delivery logs", zap.Int64("rows", res.RowsAffected))
	}
	return nil
}

// DryRun logs what the cycle would do for each enabled user without
// generating or sending anything. Used in development shortly after boot.
func (c *Cycle) DryRun(ctx context.Context) error {
	var prefs []models.DailyPromptPreferenceModel
	if err := c.db.WithContext(ctx).Where("enabled = ?", true).Find(&prefs).Error; err != nil {
		return err
	}

	for i := range prefs {
		p := &prefs[i]
		target, err := c.selector.SelectPromptTarget(ctx, p.UserID, p)
		if err != nil {
			c.logger.Warn("dry run selection failed", zap.String("user_id", p.UserID), zap.Error(err))
			continue
		}
		if target == nil {
			c.logger.Info("dry run: nothing eligible", zap.String("user_id", p.UserID))
			continue
		}
		c.logger.Info("dry run: would deliver",
			zap.String("user_id", p.UserID),
			zap.String("book", target.Book.Title),
			zap.String("element", target.Element.Name),
			zap.String("category", string(target.PromptType)))
	}
	return nil
}

func mapBookContext(book models.BookModel, includeContext bool) BookContext {
	ctx := BookContext{Title: book.Title}
	if includeContext {
		ctx.Description = book.Description
	}
	return ctx
}

func displayName(u *models.UserModel) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

// isDuplicateDeliveryError detects the MySQL duplicate-key error raised when
// a second non-test delivery lands on the same user and day.
func isDuplicateDeliveryError(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}
