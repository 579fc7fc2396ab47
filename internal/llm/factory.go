package llm

import (
	"fmt"
	"strings"
)

// NewGenerator creates a step generator based on configuration.
// An empty provider disables generation and returns (nil, nil).
func NewGenerator(config Config) (Generator, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIGenerator(config)

	case "azure":
		return NewAzureOpenAIGenerator(config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown generator provider: %s (supported: openai, azure)", config.Provider)
	}
}
