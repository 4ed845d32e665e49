package ai

// ModelPreset represents the model usage preset
type ModelPreset string

const (
	PresetCreative ModelPreset = "creative"
	PresetPrecise  ModelPreset = "precise"
	PresetBalanced ModelPreset = "balanced"
)

// ModelConfig holds sampling parameters shared by every provider.
type ModelConfig struct {
	Temperature      float32
	TopP             float32
	TopK             int
	MaxOutputTokens  int
	ResponseMimeType string // "application/json" or "text/plain"
}

// GenerateMetadata contains metadata about the generation
type GenerateMetadata struct {
	Provider     string
	Model        string
	UsedFallback bool
}

// GenerateOptions holds options for AI generation
type GenerateOptions struct {
	Model     string
	JSONMode  bool
	System    string
	Overrides *ModelConfig
}

// GetPresetConfig returns the configuration for a preset
func GetPresetConfig(preset ModelPreset) ModelConfig {
	switch preset {
	case PresetCreative:
		return ModelConfig{
			Temperature:     0.7,
			TopP:            0.95,
			TopK:            40,
			MaxOutputTokens: 4096,
		}
	case PresetPrecise:
		return ModelConfig{
			Temperature:     0.1,
			TopP:            0.9,
			TopK:            20,
			MaxOutputTokens: 2048,
		}
	case PresetBalanced:
		return ModelConfig{
			Temperature:     0.4,
			TopP:            0.95,
			TopK:            40,
			MaxOutputTokens: 4096,
		}
	default:
		return GetPresetConfig(PresetBalanced)
	}
}

// resolveConfig applies the per-call overrides on top of the preset.
func resolveConfig(preset ModelPreset, opts *GenerateOptions) ModelConfig {
	config := GetPresetConfig(preset)
	if opts == nil {
		return config
	}

	if o := opts.Overrides; o != nil {
		if o.Temperature > 0 {
			config.Temperature = o.Temperature
		}
		if o.TopP > 0 {
			config.TopP = o.TopP
		}
		if o.TopK > 0 {
			config.TopK = o.TopK
		}
		if o.MaxOutputTokens > 0 {
			config.MaxOutputTokens = o.MaxOutputTokens
		}
	}
	if opts.JSONMode {
		config.ResponseMimeType = "application/json"
	}
	return config
}
