// Package llm provides centralized LLM configuration and client abstractions
// for summary generation and structured selection calls.
package llm

import "os"

// ModelTier represents the kind of work a model call performs
type ModelTier string

const (
	// TierGeneration is for long-form output: candidate summaries, outreach emails
	TierGeneration ModelTier = "generation"
	// TierSelection is for structured JSON output: note selection, classification
	TierSelection ModelTier = "selection"
)

// Provider represents an LLM provider
type Provider string

// ProviderGemini is the Google Gemini provider
const ProviderGemini Provider = "gemini"

// Config holds the model configuration for the application
type Config struct {
	Provider Provider
	Models   map[ModelTier]string
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierGeneration: "gemini-2.5-flash-preview-09-2025",
			TierSelection:  "gemini-2.0-flash-exp",
		},
	}
}

// FromEnv returns the default configuration with any model overrides from the
// environment applied (GEMINI_GENERATION_MODEL, GEMINI_SELECTION_MODEL).
func FromEnv() *Config {
	config := DefaultGeminiConfig()
	if model := os.Getenv("GEMINI_GENERATION_MODEL"); model != "" {
		config = config.WithModel(TierGeneration, model)
	}
	if model := os.Getenv("GEMINI_SELECTION_MODEL"); model != "" {
		config = config.WithModel(TierSelection, model)
	}
	return config
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback: generation model handles anything
	if model, ok := c.Models[TierGeneration]; ok {
		return model
	}
	return ""
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := &Config{
		Provider: c.Provider,
		Models:   make(map[ModelTier]string),
	}
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	newConfig.Models[tier] = model
	return newConfig
}
