// Package llmclient implements C4, the LLM Generate Client: a stateless
// request/response call to a remote text-or-image generation endpoint.
// It is grounded on the teacher's pkg/openai REST client (same
// marshal-request/do-http/decompress-body/decode-JSON shape), rehomed onto
// the simpler Ollama-style /api/generate contract this spec's pipeline was
// originally built against.
package llmclient

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

// Timeouts per §4.3.
const (
	TextTimeout   = 180 * time.Second
	VisionTimeout = 120 * time.Second
)

// FailureKind enumerates the taxonomy C4 surfaces to its caller.
type FailureKind string

const (
	FailureUnreachable FailureKind = "unreachable"
	FailureTimeout     FailureKind = "timeout"
	FailureHTTPError   FailureKind = "http_error"
	FailureEmpty       FailureKind = "empty"
)

// Options mirrors Ollama's generate-time sampling knobs.
type Options struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

// Request is the wire body POSTed to {llm_url}/api/generate.
type Request struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	Stream  bool     `json:"stream"`
	Images  []string `json:"images,omitempty"`
	Options Options  `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Client is a thin, per-call HTTP client: it holds only the base URL and
// shares no connection pool between calls.
type Client struct {
	BaseURL string
}

func New(baseURL string) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/")}
}

// Generate calls {base}/api/generate with the given model/prompt/options
// and optional base64-encoded images (set for the vision dual-pass), and
// returns the raw response string. On failure, kind names which of the
// four-member taxonomy occurred so the caller (the Extractor) can decide
// retry policy without reaching into xerr internals.
func (c *Client) Generate(model string, prompt string, images []string, options Options, timeout time.Duration) (responseText string, kind FailureKind, e *xerr.Error) {
	body := Request{
		Model:   model,
		Prompt:  prompt,
		Stream:  false,
		Images:  images,
		Options: options,
	}

	encoded, marshalErr := json.Marshal(body)
	if marshalErr != nil {
		e = xerr.NewError(marshalErr, "marshal LLM generate request", model)
		return "", FailureHTTPError, e
	}

	url := c.BaseURL + "/api/generate"
	httpClient := &http.Client{Timeout: timeout}

	tl.Log(tl.Info, palette.Blue, "Calling LLM generate endpoint '%s' (model=%s, prompt len=%d)", url, model, len(prompt))

	resp, httpErr := httpClient.Post(url, "application/json", bytes.NewReader(encoded))
	if httpErr != nil {
		k := FailureUnreachable
		if isTimeoutErr(httpErr) {
			k = FailureTimeout
		}
		e = xerr.NewError(httpErr, "call LLM generate endpoint", url)
		return "", k, e
	}
	defer resp.Body.Close()

	respBytes, bodyErr := readBody(resp)
	if bodyErr != nil {
		e = xerr.NewError(bodyErr, "read LLM response body", url)
		return "", FailureHTTPError, e
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		e = xerr.NewError(fmt.Errorf("status %s", resp.Status), "LLM endpoint returned non-2xx", string(respBytes))
		return "", FailureHTTPError, e
	}

	var parsed generateResponse
	if unmarshalErr := json.Unmarshal(respBytes, &parsed); unmarshalErr != nil {
		e = xerr.NewError(unmarshalErr, "decode LLM response JSON", string(respBytes))
		return "", FailureHTTPError, e
	}

	if strings.TrimSpace(parsed.Response) == "" {
		e = xerr.NewError(fmt.Errorf("empty response field"), "LLM returned empty response", url)
		return "", FailureEmpty, e
	}

	tl.Log(tl.Info1, palette.Green, "LLM generate returned %d characters", len(parsed.Response))

	return parsed.Response, "", nil
}

func isTimeoutErr(err error) bool {
	type timeouter interface{ Timeout() bool }
	if t, ok := err.(timeouter); ok {
		return t.Timeout()
	}
	return strings.Contains(err.Error(), "deadline exceeded") || strings.Contains(err.Error(), "timeout")
}

// readBody decompresses the response body according to Content-Encoding,
// the same cascade the teacher's openai.GetBody used.
func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gzr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzr.Close()
		reader = gzr
	case "deflate":
		fr := flate.NewReader(resp.Body)
		defer fr.Close()
		reader = fr
	case "br":
		reader = brotli.NewReader(resp.Body)
	default:
		reader = resp.Body
	}
	return io.ReadAll(reader)
}
