package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"belegpilot/src/pkg/config"
	"belegpilot/src/pkg/util"
)

/*
main pulls the CSV bookkeeping export for a tax year from a running
belegpilot server and writes it to -out (or stdout), the offline
fallback operators use when the accounting bridge isn't reachable.

	csvexport -server http://127.0.0.1:8401 -tax-year <id> -out belege.csv
*/
func main() {
	serverURL := flag.String("server", "http://127.0.0.1:8401", "Base URL of a running belegpilot server.")
	taxYearID := flag.String("tax-year", "", "ID of the tax year to export.")
	outPath := flag.String("out", "", "Output file path (default: stdout).")
	token := flag.String("token", "", "Bearer token, if the server requires one (EMV_INTAKE_BEARER_TOKEN).")
	configPath := flag.String("config", "", "Optional path to a configuration file.")

	flag.Parse()
	util.RequiredFlag(taxYearID, "tax-year")
	util.EnsureFlags()
	config.InitializeConfig(*configPath)

	csvBytes, e := fetchCSV(*serverURL, *taxYearID, *token)
	e.QuitIf(xerr.ErrorTypeError)

	if *outPath == "" {
		fmt.Print(string(csvBytes))
		return
	}

	writeErr := os.WriteFile(*outPath, csvBytes, 0o644)
	xerr.QuitIfError(writeErr, "write CSV export file")

	tl.Log(tl.Info1, palette.Green, "Saved CSV export to '%s'", *outPath)
}

func fetchCSV(serverURL, taxYearID, token string) (body []byte, e *xerr.Error) {
	url := strings.TrimRight(serverURL, "/") + "/csv/" + taxYearID

	req, buildErr := http.NewRequest(http.MethodGet, url, nil)
	if buildErr != nil {
		e = xerr.NewErrorEC(buildErr, "build CSV export request", "url", url, false)
		return body, e
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, doErr := client.Do(req)
	if doErr != nil {
		e = xerr.NewErrorEC(doErr, "call CSV export endpoint", "url", url, false)
		return body, e
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		e = xerr.NewError(fmt.Errorf("server responded %s", resp.Status), "CSV export request rejected", url)
		return body, e
	}

	respBytes, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		e = xerr.NewErrorEC(readErr, "read CSV export response", "url", url, false)
		return body, e
	}

	body = respBytes
	return body, e
}
