package config

// Source indicates where a configuration value came from.
type Source string

// Configuration source constants.
const (
	// SourceDefault indicates the value is a built-in default.
	SourceDefault Source = "default"

	// SourceGlobal indicates the value came from
	// ~/.config/convoflow/config.yaml.
	SourceGlobal Source = "global"

	// SourceProject indicates the value came from .convoflow.yaml in the
	// project root.
	SourceProject Source = "project"

	// SourceEnv indicates the value came from a CONVOFLOW_* environment
	// variable.
	SourceEnv Source = "env"

	// SourceOverride indicates the value was set programmatically.
	SourceOverride Source = "override"
)

// Well-known configuration keys.
const (
	// KeyPromptDir is the directory searched for prompt template files.
	KeyPromptDir = "prompt_dir"

	// KeyDocstorePath is the SQLite path for the document store.
	KeyDocstorePath = "docstore_path"

	// KeyDefaultModel overrides kind-based model selection for new agents.
	KeyDefaultModel = "default_model"

	// KeyFillerLang is the default language tag for filler phrases.
	KeyFillerLang = "filler_lang"

	// KeyLogLevel controls slog verbosity (debug, info, warn, error).
	KeyLogLevel = "log_level"
)

// Defaults returns the built-in default values.
func Defaults() map[string]string {
	return map[string]string{
		KeyPromptDir:    ".convoflow/prompts",
		KeyDocstorePath: ".convoflow/documents.db",
		KeyDefaultModel: "",
		KeyFillerLang:   "default",
		KeyLogLevel:     "info",
	}
}
