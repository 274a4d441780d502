package main

import (
	"flag"
	"fmt"
	"net/http"
	"strings"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"belegpilot/src/pkg/config"
	"belegpilot/src/pkg/util"
)

/*
main triggers a reprocess of a single receipt on a running belegpilot
server, the operational equivalent of the original CLI's batch
pipeline runner, now a thin client over the HTTP surface since the
server is the only process holding the in-memory store.

	reprocess -server http://127.0.0.1:8401 -receipt <id>
*/
func main() {
	serverURL := flag.String("server", "http://127.0.0.1:8401", "Base URL of a running belegpilot server.")
	receiptID := flag.String("receipt", "", "ID of the receipt to reprocess.")
	token := flag.String("token", "", "Bearer token, if the server requires one (EMV_INTAKE_BEARER_TOKEN).")
	configPath := flag.String("config", "", "Optional path to a configuration file.")

	flag.Parse()
	util.RequiredFlag(receiptID, "receipt")
	util.EnsureFlags()
	config.InitializeConfig(*configPath)

	e := reprocess(*serverURL, *receiptID, *token)
	e.QuitIf(xerr.ErrorTypeError)

	tl.Log(tl.Info1, palette.Green, "Reprocess requested for receipt '%s'", *receiptID)
}

func reprocess(serverURL, receiptID, token string) (e *xerr.Error) {
	url := strings.TrimRight(serverURL, "/") + "/receipt/" + receiptID + "/reprocess"

	req, buildErr := http.NewRequest(http.MethodPost, url, nil)
	if buildErr != nil {
		e = xerr.NewErrorEC(buildErr, "build reprocess request", "url", url, false)
		return e
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, doErr := client.Do(req)
	if doErr != nil {
		e = xerr.NewErrorEC(doErr, "call reprocess endpoint", "url", url, false)
		return e
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		e = xerr.NewError(fmt.Errorf("server responded %s", resp.Status), "reprocess request rejected", url)
		return e
	}

	return e
}
