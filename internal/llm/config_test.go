package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, ProviderGemini, config.Provider)
	assert.Equal(t, "gemini-2.5-flash-preview-09-2025", config.GetModel(TierGeneration))
	assert.Equal(t, "gemini-2.0-flash-exp", config.GetModel(TierSelection))
}

func TestGetModel_Fallback(t *testing.T) {
	config := &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierGeneration: "fallback-model",
		},
	}

	// Unknown tier should fall back to the generation model
	assert.Equal(t, "fallback-model", config.GetModel("unknown"))
}

func TestGetModel_EmptyConfig(t *testing.T) {
	config := &Config{
		Provider: ProviderGemini,
		Models:   map[ModelTier]string{},
	}

	assert.Equal(t, "", config.GetModel(TierSelection))
}

func TestWithModel(t *testing.T) {
	config := DefaultConfig()
	newConfig := config.WithModel(TierGeneration, "custom-model")

	// Original should be unchanged
	assert.Equal(t, "gemini-2.5-flash-preview-09-2025", config.GetModel(TierGeneration))

	// New config should have custom model
	assert.Equal(t, "custom-model", newConfig.GetModel(TierGeneration))

	// Other tiers should be copied
	assert.Equal(t, "gemini-2.0-flash-exp", newConfig.GetModel(TierSelection))
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("GEMINI_GENERATION_MODEL", "gemini-override")
	t.Setenv("GEMINI_SELECTION_MODEL", "")

	config := FromEnv()
	assert.Equal(t, "gemini-override", config.GetModel(TierGeneration))
	assert.Equal(t, "gemini-2.0-flash-exp", config.GetModel(TierSelection))
}
