package config

const (
	defaultImageDir    = "img"
	defaultPromptsDir  = "prompts"
	defaultExamplesDir = "examples"
	defaultOutputDir   = "output"
	defaultLogDir      = "~/.local/share/examforge/logs"

	defaultBaseURL        = "https://api.openai.com/v1/chat/completions"
	defaultModel          = "gpt-5"
	defaultTimeoutSeconds = 300

	// Completion budgets per stage, matching the observed output sizes:
	// extraction produces a whole document, perturbation several variants.
	defaultTranscribeMaxTokens = 8000
	defaultPerturbMaxTokens    = 15000
	defaultValidateMaxTokens   = 10000
	defaultExtractMaxTokens    = 25000

	// GPT-5 list pricing, USD per million tokens.
	defaultInputPerMillion  = 1.25
	defaultOutputPerMillion = 10.00

	defaultRequestDelaySeconds = 1

	defaultNtfyRequestTimeout = 10

	defaultLogLevel  = "info"
	defaultLogFormat = "console"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ImageDir:    defaultImageDir,
			PromptsDir:  defaultPromptsDir,
			ExamplesDir: defaultExamplesDir,
			OutputDir:   defaultOutputDir,
			LogDir:      defaultLogDir,
		},
		LLM: LLM{
			BaseURL:             defaultBaseURL,
			Model:               defaultModel,
			TimeoutSeconds:      defaultTimeoutSeconds,
			TranscribeMaxTokens: defaultTranscribeMaxTokens,
			PerturbMaxTokens:    defaultPerturbMaxTokens,
			ValidateMaxTokens:   defaultValidateMaxTokens,
			ExtractMaxTokens:    defaultExtractMaxTokens,
		},
		Pricing: Pricing{
			InputPerMillion:  defaultInputPerMillion,
			OutputPerMillion: defaultOutputPerMillion,
		},
		Pipeline: Pipeline{
			RequestDelaySeconds: defaultRequestDelaySeconds,
		},
		History: History{
			Enabled: true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
		},
		LogLevel:  defaultLogLevel,
		LogFormat: defaultLogFormat,
	}
}
