// Package config loads belegpilot's runtime configuration. It follows the
// same default-then-overlay shape every teacher package used underneath it
// expects: a package-level Cfg seeded with defaults, overlaid from a JSON
// file at startup, with missing env vars warned about rather than fatal.
package config

import (
	"encoding/json"
	"os"
	"strings"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
)

// Config holds every knob enumerated in the external-interfaces contract.
type Config struct {
	// Storage.
	DatabaseURL string `json:"database_url,omitempty"`
	UploadDir   string `json:"upload_dir,omitempty"`

	// OCR.
	OCRLanguage string `json:"ocr_language,omitempty"`

	// LLM.
	LLMURL          string  `json:"llm_url,omitempty"`
	LLMModel        string  `json:"llm_model,omitempty"`
	VisionModel     string  `json:"vision_model,omitempty"`
	VisionThreshold float64 `json:"vision_threshold"`

	MaxUploadSizeMB int `json:"max_upload_size_mb,omitempty"`

	// External bridge.
	BridgeAPIURL   string `json:"bridge_api_url,omitempty"`
	BridgeAPIKey   string `json:"bridge_api_key,omitempty"`
	BridgeSandbox  bool   `json:"bridge_sandbox"`

	// HTTP surface (carried from echo-middleware's own Config shape).
	Address             string `json:"address,omitempty"`
	Port                int    `json:"port,omitempty"`
	MiddlewareRateLimit int    `json:"middleware_rate_limit,omitempty"`
	MiddlewareBurst     int    `json:"middleware_burst,omitempty"`
}

// DefaultValueConfig mirrors echo-middleware's DefaultValueConfig pattern.
func DefaultValueConfig() Config {
	return Config{
		DatabaseURL:         "",
		UploadDir:           "./data/uploads",
		OCRLanguage:         "deu",
		LLMURL:              "http://localhost:11434",
		LLMModel:            "llama3",
		VisionModel:         "",
		VisionThreshold:     80.0,
		MaxUploadSizeMB:     20,
		BridgeAPIURL:        "",
		BridgeAPIKey:        "",
		BridgeSandbox:       true,
		Address:             "127.0.0.1",
		Port:                8401,
		MiddlewareRateLimit: 5,
		MiddlewareBurst:     50,
	}
}

// Cfg is seeded with defaults before InitializeConfig runs, so every package
// that reads it during package init sees sane values.
var Cfg Config = DefaultValueConfig()

// GetPackageName names this package for log labels, the way every teacher
// consumer of config expects to call it.
func GetPackageName() string {
	return "config"
}

// InitializeConfig overlays a local JSON config file onto the defaults.
// A missing or unreadable file is not fatal; it just means defaults stand.
func InitializeConfig(path string) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		tl.Log(tl.Info, palette.Purple, "%s config path is %s, keeping %s", GetPackageName(), "empty", "default configuration")
		return
	}

	bytes, readErr := os.ReadFile(trimmed)
	if readErr != nil {
		tl.Log(tl.Info, palette.Purple, "%s config file '%s' %s, keeping %s", GetPackageName(), trimmed, "not found", "default configuration")
		return
	}

	defaultConfig := DefaultValueConfig()
	localConfig := defaultConfig

	if unmarshalErr := json.Unmarshal(bytes, &localConfig); unmarshalErr != nil {
		tl.Log(tl.Warning, palette.YellowBold, "%s config file '%s' %s: %s", GetPackageName(), trimmed, "could not be parsed", unmarshalErr)
		return
	}

	Cfg = localConfig

	tl.ApplyDefaults(&Cfg, defaultConfig, func(field string, defVal any) {
		tl.Log(
			tl.Info, palette.Purple,
			"%s field is %s in %s configuration. Using default value: %v",
			field, "missing", GetPackageName(), tl.PrettyForStderr(defVal),
		)
	})

	tl.Log(tl.Info, palette.Green, "%s config was %s from '%s'", GetPackageName(), "loaded", trimmed)
	tl.LogJSON(tl.Verbose, palette.CyanDim, "configuration", Cfg)
}

// CheckIfEnvVarsPresent warns (does not fatal) about missing env vars,
// matching every cmd/ entrypoint's call-site expectation.
func CheckIfEnvVarsPresent(names ...string) {
	for _, name := range names {
		if strings.TrimSpace(os.Getenv(name)) == "" {
			tl.Log(tl.Warning, palette.YellowBold, "environment variable '%s' is %s", name, "not set")
		}
	}
}
