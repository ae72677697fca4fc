// Package config resolves workflow tooling settings from layered sources.
//
// Values merge with clear precedence:
//  1. Explicit overrides (highest priority)
//  2. Environment variables (CONVOFLOW_*)
//  3. Project config (.convoflow.yaml in the project root)
//  4. Global config (~/.config/convoflow/config.yaml)
//  5. Built-in defaults (lowest priority)
//
// # Basic Usage
//
//	cfg := config.NewResolver(config.ResolverConfig{}).Resolve()
//	fmt.Println(cfg.Get(config.KeyPromptDir))    // ".convoflow/prompts"
//	fmt.Println(cfg.Source(config.KeyPromptDir)) // "default"
//
// # Environment Variables
//
// Each key maps to an upper-cased environment variable with the CONVOFLOW_
// prefix:
//
//	CONVOFLOW_PROMPT_DIR=./prompts     # sets "prompt_dir"
//	CONVOFLOW_DEFAULT_MODEL=opus       # sets "default_model"
//
// # Project Root Detection
//
// The project config is found by walking up from the working directory until
// a .convoflow.yaml file appears. Tests can bypass detection with
// NewResolverWithPaths.
package config
