package extract

import (
	"context"
	"fmt"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"belegpilot/src/pkg/bbox"
	"belegpilot/src/pkg/classify"
	"belegpilot/src/pkg/jsonrecover"
	"belegpilot/src/pkg/llmclient"
	"belegpilot/src/pkg/model"
)

// Config wires the Extractor to the LLM client, model names, and the
// §4.8 vision trigger threshold.
type Config struct {
	Client          *llmclient.Client
	TextModel       string
	VisionModel     string
	VisionThreshold float64
}

// Result is C8's output: the structured fields, their provenance spans,
// the method tag, and the confidence tier.
type Result struct {
	Fields     model.Fields
	Spans      []model.ProvenanceSpan
	Method     model.ExtractionMethod
	Confidence model.ConfidenceTier
}

// Extract runs the full nine-step pipeline of §4.7/§4.8: call the LLM,
// recover JSON, unwrap/clean, localize, optionally re-read the image,
// classify, enrich with bounding boxes, and score confidence.
func Extract(ctx context.Context, cfg Config, ocrText string, ocrConfidence float64, geometry model.OCRGeometry, imagePath string) (Result, *xerr.Error) {
	values, e := runTextPass(cfg, ocrText)
	if e != nil {
		return Result{}, e
	}

	fields, spans := bindFields(values, ocrText)
	keys := keyFieldSet(fields)

	method := model.ExtractionMethodDirect
	if imagePath != "" && cfg.VisionModel != "" && shouldRunVisionPass(ocrConfidence, keys, cfg.VisionThreshold) {
		visionFields, visionErr := runVisionPass(cfg, imagePath)
		if visionErr != nil {
			tl.Log(tl.Warning, palette.Yellow, "vision dual-pass failed, keeping text-only fields: %s", visionErr.Error())
		} else {
			fields = mergeFields(fields, visionFields)
			method = model.ExtractionMethodVisionMerged
		}
	}

	kind := model.KindOther
	if fields.DocumentKind != nil {
		kind = *fields.DocumentKind
	}
	account := classify.Classify(kind, fields.VATRate)
	fields.AccountCode = &account.Code
	fields.AccountName = &account.Name
	if account.DefaultCode != "" {
		fields.TaxCode = &account.DefaultCode
	}

	for i := range spans {
		if box, ok := bbox.Enrich(geometry, spans[i].Start, spans[i].End); ok {
			spans[i].BBox = &box
		}
	}

	confidence := scoreConfidence(kind, fields, spans)

	return Result{
		Fields:     fields,
		Spans:      spans,
		Method:     method,
		Confidence: confidence,
	}, nil
}

// runTextPass calls the LLM with the text prompt, recovering JSON via C5
// and retrying once (per §4.7.1) if the first response doesn't parse.
func runTextPass(cfg Config, ocrText string) (map[string]unwrapped, *xerr.Error) {
	prompt := TextPrompt(ocrText)

	raw, _, e := cfg.Client.Generate(cfg.TextModel, prompt, nil, llmclient.Options{Temperature: 0.1, NumPredict: 2048}, llmclient.TextTimeout)
	if e != nil {
		return nil, e
	}

	parsed, ok := jsonrecover.Parse(raw)
	if !ok {
		tl.Log(tl.Warning, palette.Yellow, "first extraction response did not parse as JSON, retrying once")
		raw, _, e = cfg.Client.Generate(cfg.TextModel, prompt, nil, llmclient.Options{Temperature: 0.0, NumPredict: 2048}, llmclient.TextTimeout)
		if e != nil {
			return nil, e
		}
		parsed, ok = jsonrecover.Parse(raw)
		if !ok {
			e = xerr.NewError(fmt.Errorf("no valid JSON object recovered"), "parse extraction response as JSON after retry", raw)
			return nil, e
		}
	}

	cleaned := clean(unwrap(parsed))
	return cleaned, nil
}

// runVisionPass implements §4.8: re-read the original image, get a
// stricter field set back, bind it (without provenance, since the vision
// pass has no OCR text to ground quotes in), and return it for fill-only
// merge.
func runVisionPass(cfg Config, imagePath string) (model.Fields, *xerr.Error) {
	dataURL, e := buildImageDataURL(imagePath)
	if e != nil {
		return model.Fields{}, e
	}

	raw, _, e := cfg.Client.Generate(cfg.VisionModel, VisionPrompt(), []string{base64Only(dataURL)}, llmclient.Options{Temperature: 0.1, NumPredict: 1024}, llmclient.VisionTimeout)
	if e != nil {
		return model.Fields{}, e
	}

	parsed, ok := jsonrecover.Parse(raw)
	if !ok {
		e = xerr.NewError(fmt.Errorf("no valid JSON object recovered"), "parse vision-pass response as JSON", raw)
		return model.Fields{}, e
	}

	cleaned := clean(unwrap(parsed))
	fields, _ := bindFields(cleaned, "")
	return fields, nil
}

func keyFieldSet(f model.Fields) fieldSet {
	return fieldSet{
		DocumentKind: f.DocumentKind != nil,
		GrossAmount:  f.GrossAmount != nil,
		Issuer:       f.Issuer != nil,
		DocumentDate: f.DocumentDate != nil,
	}
}
