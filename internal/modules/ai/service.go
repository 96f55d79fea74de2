package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	appcfg "github.com/storyseed/core/internal/config"
)

// Service selects a configured provider and routes generation calls to it.
type Service struct {
	cfg    *appcfg.AIConfig
	logger *zap.Logger
}

// NewService creates the AI service.
func NewService(cfg *appcfg.AIConfig, logger *zap.Logger) *Service {
	return &Service{cfg: cfg, logger: logger}
}

var _ TextGenerator = (*Service)(nil)

// GenerateText generates text using the provider assigned for prompt
// generation, or the first enabled provider.
func (s *Service) GenerateText(ctx context.Context, req GenerateRequest) (string, error) {
	provider, model, err := s.selectProvider()
	if err != nil {
		return "", err
	}

	text, err := generate(ctx, provider, model, req)
	if err != nil {
		s.logger.Warn("text generation failed",
			zap.String("provider", provider.ID),
			zap.String("model", model),
			zap.Error(err))
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// selectProvider resolves the provider and model for prompt generation. An
// explicit prompt_model assignment wins; otherwise the first enabled provider
// with its default model is used.
func (s *Service) selectProvider() (*appcfg.AIProvider, string, error) {
	if s.cfg == nil || len(s.cfg.Providers) == 0 {
		return nil, "", errors.New("no AI providers configured")
	}

	if assign := s.cfg.PromptModel; assign != nil && assign.ProviderID != "" {
		for i := range s.cfg.Providers {
			p := &s.cfg.Providers[i]
			if p.ID == assign.ProviderID && p.Enabled {
				model := assign.Model
				if model == "" {
					model = p.DefaultModel
				}
				return p, model, nil
			}
		}
		return nil, "", fmt.Errorf("assigned AI provider %q not found or disabled", assign.ProviderID)
	}

	for i := range s.cfg.Providers {
		p := &s.cfg.Providers[i]
		if p.Enabled {
			return p, p.DefaultModel, nil
		}
	}
	return nil, "", errors.New("no enabled AI provider")
}
