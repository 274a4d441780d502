// Package pipeline implements C11, the Pipeline Orchestrator: the
// per-document state machine composing C1-C3 (OCR), C8 (extraction), and
// C9 (classification, invoked inside C8), persisting after each phase.
// Grounded on the teacher's cmd/receipt-pipeline/main.go for the overall
// "load, run stages, log Notice on each transition" shape, generalized
// from a one-shot CLI run into a repeatable per-receipt state machine.
package pipeline

import (
	"context"
	"strings"
	"sync"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"belegpilot/src/pkg/extract"
	"belegpilot/src/pkg/model"
	"belegpilot/src/pkg/ocr"
	"belegpilot/src/pkg/store"
)

// minUsableTextLength is §4.11's "OCR produced no usable text" threshold.
const minUsableTextLength = 20

// Orchestrator drives receipts through uploaded -> ocr_running -> ocr_done
// -> extraction_running -> extracted (or -> error at either running state).
type Orchestrator struct {
	Store        *store.Store
	OCRLanguage  string
	OCRWorkDir   string
	ExtractorCfg extract.Config

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// New builds an Orchestrator. workDir is where intermediate preprocessed
// page images are written.
func New(st *store.Store, ocrLanguage, workDir string, extractorCfg extract.Config) *Orchestrator {
	return &Orchestrator{
		Store:        st,
		OCRLanguage:  ocrLanguage,
		OCRWorkDir:   workDir,
		ExtractorCfg: extractorCfg,
		locks:        map[string]*sync.Mutex{},
	}
}

// lockFor returns the per-receipt-id mutex, creating it on first use. This
// is the §4.11/§9 "concurrent reprocess" answer: two concurrent Run/Reprocess
// calls for the same id serialize here; distinct ids proceed independently.
func (o *Orchestrator) lockFor(receiptID string) *sync.Mutex {
	o.locksMu.Lock()
	defer o.locksMu.Unlock()

	l, ok := o.locks[receiptID]
	if !ok {
		l = &sync.Mutex{}
		o.locks[receiptID] = l
	}
	return l
}

// Run executes the full pipeline for a receipt already in status
// "uploaded" (or any status; Run does not itself validate the starting
// state beyond what each phase needs). Background pipeline errors never
// escape Run as a process-fatal condition: they are caught and folded
// into the receipt's error state per SPEC_FULL.md's ambient error policy.
func (o *Orchestrator) Run(ctx context.Context, receiptID string) {
	lock := o.lockFor(receiptID)
	lock.Lock()
	defer lock.Unlock()

	receipt, err := o.Store.GetReceipt(receiptID)
	if err != nil {
		tl.Log(tl.Warning, palette.Yellow, "pipeline run requested for unknown receipt '%s': %s", receiptID, err)
		return
	}

	if !o.runOCRPhase(&receipt) {
		return
	}
	o.runExtractionPhase(ctx, &receipt)
}

// runOCRPhase transitions ocr_running -> ocr_done (or -> error), and
// returns whether the caller should proceed to extraction.
func (o *Orchestrator) runOCRPhase(receipt *model.Receipt) bool {
	receipt.Status = model.StatusOCRRunning
	receipt.ErrorNote = ""
	if saved, err := o.Store.SaveReceipt(*receipt); err == nil {
		*receipt = saved
	}
	tl.Log(tl.Notice, palette.BlueBold, "receipt %s: OCR starting", receipt.ID)

	doc, e := ocr.Process(receipt.FilePath, o.OCRLanguage, o.OCRWorkDir)
	if e != nil {
		o.failReceipt(receipt, model.StatusOCRRunning, "OCR fehlgeschlagen: "+e.Error())
		return false
	}

	if len(strings.TrimSpace(doc.Text)) < minUsableTextLength {
		o.failReceipt(receipt, model.StatusOCRRunning, "OCR produced no usable text")
		return false
	}

	receipt.OCRText = doc.Text
	receipt.OCRConfidence = doc.Confidence
	receipt.OCRGeometry = &doc.Geometry
	receipt.Status = model.StatusOCRDone
	if saved, err := o.Store.SaveReceipt(*receipt); err == nil {
		*receipt = saved
	}
	tl.Log(tl.Notice1, palette.GreenBold, "receipt %s: OCR done (confidence=%.2f)", receipt.ID, doc.Confidence)
	return true
}

// runExtractionPhase transitions extraction_running -> extracted (or ->
// error).
func (o *Orchestrator) runExtractionPhase(ctx context.Context, receipt *model.Receipt) {
	receipt.Status = model.StatusExtractionRunning
	if saved, err := o.Store.SaveReceipt(*receipt); err == nil {
		*receipt = saved
	}
	tl.Log(tl.Notice, palette.BlueBold, "receipt %s: extraction starting", receipt.ID)

	geometry := model.OCRGeometry{}
	if receipt.OCRGeometry != nil {
		geometry = *receipt.OCRGeometry
	}

	result, e := extract.Extract(ctx, o.ExtractorCfg, receipt.OCRText, receipt.OCRConfidence, geometry, receipt.FilePath)
	if e != nil {
		o.failReceipt(receipt, model.StatusExtractionRunning, "Extraktion fehlgeschlagen: "+e.Error())
		return
	}

	receipt.Fields = result.Fields
	receipt.ProvenanceSpans = result.Spans
	receipt.ExtractionMethod = result.Method
	receipt.ExtractionConfidence = result.Confidence
	receipt.Status = model.StatusExtracted
	if saved, err := o.Store.SaveReceipt(*receipt); err == nil {
		*receipt = saved
	}
	tl.Log(tl.Notice1, palette.GreenBold, "receipt %s: extraction done (tier=%s)", receipt.ID, result.Confidence)
}

// failReceipt records the error state. fromStatus is only used for the
// log line; §7's propagation policy is the same regardless of which
// running phase failed.
func (o *Orchestrator) failReceipt(receipt *model.Receipt, fromStatus model.ReceiptStatus, note string) {
	receipt.Status = model.StatusError
	receipt.ErrorNote = note
	if saved, err := o.Store.SaveReceipt(*receipt); err == nil {
		*receipt = saved
	}
	tl.Log(tl.Warning, palette.YellowBold, "receipt %s: %s -> error: %s", receipt.ID, fromStatus, note)
}

// Reprocess implements §4.11's reprocess command: reset to uploaded,
// clear extracted data and provenance spans (the on-disk file is left
// alone), then re-run. OCR artifacts are recomputed rather than reused,
// since stale geometry from a different preprocessing pass would no
// longer agree with the text it's about to be checked against.
func (o *Orchestrator) Reprocess(ctx context.Context, receiptID string) *xerr.Error {
	lock := o.lockFor(receiptID)
	lock.Lock()

	receipt, err := o.Store.GetReceipt(receiptID)
	if err != nil {
		lock.Unlock()
		return xerr.NewError(err, "load receipt for reprocess", receiptID)
	}

	receipt.Status = model.StatusUploaded
	receipt.ErrorNote = ""
	receipt.OCRText = ""
	receipt.OCRConfidence = 0
	receipt.OCRGeometry = nil
	receipt.Fields = model.Fields{}
	receipt.ProvenanceSpans = nil
	receipt.ExtractionMethod = ""
	receipt.ExtractionConfidence = ""
	if _, saveErr := o.Store.SaveReceipt(receipt); saveErr != nil {
		lock.Unlock()
		return xerr.NewError(saveErr, "reset receipt for reprocess", receiptID)
	}
	lock.Unlock()

	o.Run(ctx, receiptID)
	return nil
}
