package insight

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/ignite/adlens/internal/config"
)

// LLM completes one prompt.
type LLM interface {
	// Name identifies the provider in stored insights and metrics.
	Name() string
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// NewLLM builds the provider selected by cfg. It returns nil for "none".
// awsCfg is only used for bedrock.
func NewLLM(ctx context.Context, cfg config.InsightsConfig, awsCfg *aws.Config) (LLM, error) {
	switch cfg.Provider {
	case "none", "":
		return nil, nil
	case "bedrock":
		if awsCfg == nil {
			return nil, fmt.Errorf("bedrock provider requires AWS configuration")
		}
		return NewBedrock(*awsCfg, cfg), nil
	case "openai":
		return NewOpenAI(cfg), nil
	case "gemini":
		g, err := NewGemini(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return g, nil
	}
	return nil, fmt.Errorf("unknown insights provider %q", cfg.Provider)
}
