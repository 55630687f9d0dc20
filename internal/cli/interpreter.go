package cli

import (
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/llms/openai"

	"github.com/ArnavBalyan/concierge/internal/config"
	"github.com/ArnavBalyan/concierge/pkg/interpret"
	"github.com/ArnavBalyan/concierge/pkg/ports"
)

// NewInterpreter picks the model interpreter when an LLM is configured and the
// rule interpreter otherwise.
func NewInterpreter(cfg config.Config, detail interpret.Detail, logger *slog.Logger) (ports.Interpreter, error) {
	if cfg.LLMModel == "" {
		rules := interpret.NewRules(detail)
		rules.Limit = cfg.MaxInputSize
		return rules, nil
	}

	opts := []openai.Option{openai.WithModel(cfg.LLMModel)}
	if cfg.LLMBaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.LLMBaseURL))
	}
	if cfg.LLMAPIKey != "" {
		opts = append(opts, openai.WithToken(cfg.LLMAPIKey))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}
	logger.Info("Using model interpreter", "model", cfg.LLMModel)
	return interpret.NewModel(llm, detail,
		interpret.WithModelLogger(logger),
		interpret.WithInputLimit(cfg.MaxInputSize),
	), nil
}

// ParseDetail maps "brief" and "comprehensive" to a rendering detail.
func ParseDetail(s string) (interpret.Detail, error) {
	switch s {
	case "", "brief":
		return interpret.Brief, nil
	case "comprehensive", "full":
		return interpret.Comprehensive, nil
	}
	return interpret.Brief, fmt.Errorf("unknown detail %q (brief or comprehensive)", s)
}
