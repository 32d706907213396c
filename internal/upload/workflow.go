// internal/upload/workflow.go
//
// Package upload implements the prescription upload workflow:
// Idle -> Validating -> Uploading -> Succeeded | Failed, with Failed
// non-terminal (the user may retry). While Uploading, a simulated progress
// ticker runs alongside the real network call; the displayed percentage is
// perceived-progress feedback only and is uncorrelated with bytes
// transferred. The ticker goroutine is scoped to the attempt and cancelled on
// every exit path.
package upload

import (
	"context"
	"io"
	"sync"
	"time"

	"medalert-client/internal/api"
	apperrors "medalert-client/internal/common/errors"
	"medalert-client/internal/common/logger"
	"medalert-client/internal/common/metrics"
)

type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateUploading  State = "uploading"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// progressCap is the ceiling the simulated percentage approaches but never
// reaches before the real call completes.
const progressCap = 90

// Analyzer is the slice of the endpoint catalog the workflow needs.
type Analyzer interface {
	AnalyzePrescription(ctx context.Context, filename string, image io.Reader) (*api.Prescription, error)
}

// Config holds the workflow's validation and pacing settings.
type Config struct {
	MaxFileSize  int64
	AllowedTypes []string
	ProgressTick time.Duration
	DisplayDelay time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		MaxFileSize:  5 * 1024 * 1024,
		AllowedTypes: []string{"image/jpeg", "image/jpg", "image/png"},
		ProgressTick: 200 * time.Millisecond,
		DisplayDelay: 500 * time.Millisecond,
	}
}

// Workflow runs upload attempts. One attempt at a time; Run resets the
// observable state on entry so a Failed attempt can be retried.
type Workflow struct {
	config   *Config
	analyzer Analyzer
	logger   logger.Logger

	mu           sync.Mutex
	state        State
	progress     int
	err          error
	prescription *api.Prescription
}

func NewWorkflow(config *Config, analyzer Analyzer, log logger.Logger) *Workflow {
	if config == nil {
		config = DefaultConfig()
	}
	return &Workflow{
		config:   config,
		analyzer: analyzer,
		logger:   log.WithFields(map[string]interface{}{"component": "upload-workflow"}),
		state:    StateIdle,
	}
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Workflow) Progress() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.progress
}

func (w *Workflow) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *Workflow) Prescription() *api.Prescription {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.prescription
}

// Run performs one upload attempt. Validation failures never reach the
// network. Cancelling ctx aborts the attempt and stops the progress ticker.
func (w *Workflow) Run(ctx context.Context, in *FileInput) (*api.Prescription, error) {
	w.setState(StateValidating, 0, nil)

	in, err := w.validate(in)
	if err != nil {
		w.setState(StateFailed, 0, err)
		metrics.UploadAttemptsTotal.WithLabelValues("rejected").Inc()
		w.logger.WithError(err).Warn("upload rejected before network call", nil)
		return nil, err
	}

	w.setState(StateUploading, 0, nil)

	// The progress ticker lives exactly as long as this attempt.
	attemptCtx, cancel := context.WithCancel(ctx)
	tickerDone := make(chan struct{})
	go w.simulateProgress(attemptCtx, tickerDone)

	prescription, err := w.analyzer.AnalyzePrescription(attemptCtx, in.Name, in.Reader)

	cancel()
	<-tickerDone

	if err != nil {
		w.setState(StateFailed, 0, err)
		metrics.UploadAttemptsTotal.WithLabelValues("failed").Inc()
		w.logger.WithError(err).Warn("upload attempt failed", nil)
		return nil, err
	}

	w.setProgress(100)

	// Brief hold at 100% so the completed bar is visible before the
	// succeeded transition.
	select {
	case <-time.After(w.config.DisplayDelay):
	case <-ctx.Done():
	}

	w.mu.Lock()
	w.state = StateSucceeded
	w.prescription = prescription
	w.err = nil
	w.mu.Unlock()

	metrics.UploadAttemptsTotal.WithLabelValues("succeeded").Inc()
	w.logger.Info("upload succeeded", map[string]interface{}{
		"patient":   prescription.Patient.Name,
		"medicines": prescription.MedicineCount(),
	})
	return prescription, nil
}

// simulateProgress advances the displayed percentage toward (never reaching)
// progressCap until the attempt context is cancelled.
func (w *Workflow) simulateProgress(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.config.ProgressTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.mu.Lock()
			if w.state == StateUploading && w.progress < progressCap-1 {
				step := (progressCap - w.progress) / 10
				if step < 1 {
					step = 1
				}
				w.progress += step
			}
			w.mu.Unlock()
		}
	}
}

func (w *Workflow) setState(state State, progress int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = state
	w.progress = progress
	w.err = err
}

func (w *Workflow) setProgress(progress int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.progress = progress
}

func (w *Workflow) validate(in *FileInput) (*FileInput, error) {
	if in == nil || in.Reader == nil {
		return nil, apperrors.NewValidationError(apperrors.ErrCodeNoFileSelected, "no file selected")
	}
	return validateFile(in, w.config)
}
