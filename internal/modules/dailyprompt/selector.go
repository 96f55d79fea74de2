package dailyprompt

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/storyseed/core/internal/models"
	"github.com/storyseed/core/internal/pkg/randx"
)

const underdevelopedFraction = 0.3

// Selector picks (book, element, prompt category) for a user according to
// their preferences and response history.
type Selector struct {
	db   *gorm.DB
	rand randx.Source
}

// NewSelector creates a Selector. rand may be nil, in which case the shared
// process-wide source is used.
func NewSelector(db *gorm.DB, rand randx.Source) *Selector {
	if rand == nil {
		rand = randx.Default()
	}
	return &Selector{db: db, rand: rand}
}

// SelectPromptTarget chooses what to prompt the user about. A nil Target with
// a nil error means nothing is eligible; the caller skips this user.
func (s *Selector) SelectPromptTarget(ctx context.Context, userID string, prefs *models.DailyPromptPreferenceModel) (*Target, error) {
	books, err := s.loadBooks(ctx, userID, prefs.FocusBookID)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, nil
	}

	candidates, err := s.loadCandidates(ctx, books)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	recent, err := s.loadRecentCategories(ctx, userID, prefs.AvoidRepetitionDays)
	if err != nil {
		return nil, err
	}

	return selectFromCandidates(prefs, books, candidates, recent, s.rand), nil
}

// selectFromCandidates is the pure selection core, separated from storage so
// tests can drive it directly.
func selectFromCandidates(
	prefs *models.DailyPromptPreferenceModel,
	books []models.BookModel,
	candidates []ElementCandidate,
	recentCategories map[models.PromptType]bool,
	rnd randx.Source,
) *Target {
	if len(books) == 0 || len(candidates) == 0 {
		return nil
	}

	filtered := filterByType(prefs, candidates)

	var chosen ElementCandidate
	if prefs.FocusUnderdeveloped {
		chosen = pickUnderdeveloped(rnd, filtered)
	} else {
		chosen = randx.Pick(rnd, filtered)
	}

	category, ok := pickCategory(rnd, enabledCategories(prefs), recentCategories)
	if !ok {
		return nil
	}

	book, ok := bookByID(books, chosen.Element.BookID)
	if !ok {
		return nil
	}

	return &Target{
		Element:    chosen.Element,
		Book:       book,
		PromptType: category,
	}
}

// filterByType keeps elements whose type flag is not explicitly disabled,
// falling back to the unfiltered set when the filter would empty it.
func filterByType(prefs *models.DailyPromptPreferenceModel, candidates []ElementCandidate) []ElementCandidate {
	kept := make([]ElementCandidate, 0, len(candidates))
	for _, c := range candidates {
		if elementTypeAllowed(prefs, c.Element.ElementType) {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return candidates
	}
	return kept
}

// pickUnderdeveloped sorts ascending by response count (ties broken by oldest
// last response, never-answered first) and draws uniformly from the bottom
// 30%, rounded up, at least one.
func pickUnderdeveloped(rnd randx.Source, candidates []ElementCandidate) ElementCandidate {
	sorted := make([]ElementCandidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.ResponseCount != b.ResponseCount {
			return a.ResponseCount < b.ResponseCount
		}
		switch {
		case a.LastResponseAt == nil && b.LastResponseAt == nil:
			return false
		case a.LastResponseAt == nil:
			return true
		case b.LastResponseAt == nil:
			return false
		default:
			return a.LastResponseAt.Before(*b.LastResponseAt)
		}
	})

	n := int(math.Ceil(float64(len(sorted)) * underdevelopedFraction))
	if n < 1 {
		n = 1
	}
	return randx.Pick(rnd, sorted[:n])
}

// enabledCategories returns the prompt categories the user has not disabled,
// in the fixed category order.
func enabledCategories(prefs *models.DailyPromptPreferenceModel) []models.PromptType {
	enabled := make([]models.PromptType, 0, len(models.PromptTypes))
	for _, t := range models.PromptTypes {
		if promptTypeAllowed(prefs, t) {
			enabled = append(enabled, t)
		}
	}
	return enabled
}

// pickCategory draws from enabled categories not used within the repetition
// window, relaxing to all enabled categories when every one was recently
// used. With zero enabled categories there is nothing to pick.
func pickCategory(rnd randx.Source, enabled []models.PromptType, recent map[models.PromptType]bool) (models.PromptType, bool) {
	if len(enabled) == 0 {
		return "", false
	}

	fresh := make([]models.PromptType, 0, len(enabled))
	for _, t := range enabled {
		if !recent[t] {
			fresh = append(fresh, t)
		}
	}
	if len(fresh) == 0 {
		fresh = enabled
	}
	return randx.Pick(rnd, fresh), true
}

func bookByID(books []models.BookModel, id string) (models.BookModel, bool) {
	for _, b := range books {
		if b.ID == id {
			return b, true
		}
	}
	return models.BookModel{}, false
}

func (s *Selector) loadBooks(ctx context.Context, userID string, focusBookID *string) ([]models.BookModel, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if focusBookID != nil && *focusBookID != "" {
		q = q.Where("id = ?", *focusBookID)
	}
	var books []models.BookModel
	if err := q.Find(&books).Error; err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}
	return books, nil
}

// loadCandidates loads all elements in the given books annotated with
// response aggregates. An element's responses are those attached to prompts
// whose element_refs JSON array contains the element id.
func (s *Selector) loadCandidates(ctx context.Context, books []models.BookModel) ([]ElementCandidate, error) {
	bookIDs := make([]string, 0, len(books))
	for _, b := range books {
		bookIDs = append(bookIDs, b.ID)
	}

	var elements []models.StoryElementModel
	if err := s.db.WithContext(ctx).Where("book_id IN ?", bookIDs).Find(&elements).Error; err != nil {
		return nil, fmt.Errorf("load elements: %w", err)
	}
	if len(elements) == 0 {
		return nil, nil
	}

	type aggRow struct {
		ElementID      string
		ResponseCount  int
		LastResponseAt *time.Time
	}
	var rows []aggRow
	err := s.db.WithContext(ctx).Raw(`
		SELECT se.id AS element_id,
		       COUNT(r.id) AS response_count,
		       MAX(r.created_at) AS last_response_at
		FROM story_elements se
		JOIN prompts p ON JSON_CONTAINS(p.element_refs, JSON_QUOTE(se.id))
		JOIN responses r ON r.prompt_id = p.id AND r.deleted_at IS NULL
		WHERE se.book_id IN ? AND p.deleted_at IS NULL
		GROUP BY se.id`, bookIDs).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate responses: %w", err)
	}

	aggs := make(map[string]aggRow, len(rows))
	for _, r := range rows {
		aggs[r.ElementID] = r
	}

	candidates := make([]ElementCandidate, 0, len(elements))
	for _, el := range elements {
		c := ElementCandidate{Element: el}
		if agg, ok := aggs[el.ID]; ok {
			c.ResponseCount = agg.ResponseCount
			c.LastResponseAt = agg.LastResponseAt
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

func (s *Selector) loadRecentCategories(ctx context.Context, userID string, avoidDays int) (map[models.PromptType]bool, error) {
	if avoidDays <= 0 {
		avoidDays = 7
	}
	since := time.Now().AddDate(0, 0, -avoidDays)

	var types []models.PromptType
	err := s.db.WithContext(ctx).
		Model(&models.DailyPromptSentModel{}).
		Where("user_id = ? AND sent_at >= ?", userID, since).
		Distinct().
		Pluck("prompt_type", &types).Error
	if err != nil {
		return nil, fmt.Errorf("load recent categories: %w", err)
	}

	recent := make(map[models.PromptType]bool, len(types))
	for _, t := range types {
		recent[t] = true
	}
	return recent, nil
}
