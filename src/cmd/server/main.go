package main

import (
	"flag"
	"fmt"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"belegpilot/src/pkg/bridge"
	"belegpilot/src/pkg/config"
	"belegpilot/src/pkg/extract"
	"belegpilot/src/pkg/httpapi"
	"belegpilot/src/pkg/llmclient"
	"belegpilot/src/pkg/pipeline"
	"belegpilot/src/pkg/store"
)

/*
main boots the receipt pipeline's HTTP server: it wires the in-memory
store, the Ollama-compatible LLM client, the pipeline orchestrator, and
the external bridge into one echo instance and listens.
*/
func main() {
	config.CheckIfEnvVarsPresent("EMV_INTAKE_BEARER_TOKEN")

	configPath := flag.String("config", "./cfg/config.json", "Path to your configuration file.")
	flag.Parse()
	config.InitializeConfig(*configPath)

	cfg := config.Cfg

	st := store.New()
	llmClient := llmclient.New(cfg.LLMURL)

	extractorCfg := extract.Config{
		Client:          llmClient,
		TextModel:       cfg.LLMModel,
		VisionModel:     cfg.VisionModel,
		VisionThreshold: cfg.VisionThreshold,
	}
	orch := pipeline.New(st, cfg.OCRLanguage, cfg.UploadDir, extractorCfg)

	br := bridge.New(bridge.Config{
		APIURL:  cfg.BridgeAPIURL,
		APIKey:  cfg.BridgeAPIKey,
		Sandbox: cfg.BridgeSandbox,
	}, st)

	e := httpapi.New(cfg, st, orch, br)

	addr := fmt.Sprintf("%s:%d", cfg.Address, cfg.Port)
	tl.Log(tl.Notice, palette.BlueBold, "%s listening on %s", "belegpilot", addr)

	if startErr := e.Start(addr); startErr != nil {
		tl.Log(tl.Error, palette.RedBold, "server stopped: %s", startErr)
	}
}
