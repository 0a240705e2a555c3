package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dopplapi/models"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// PhaseStep shows Status and then waits Delay before the next step.
type PhaseStep struct {
	Status models.AppStatus
	Delay  time.Duration
}

// DefaultPhaseSteps is the cosmetic progress sequence. It is not tied to
// the real request progress.
var DefaultPhaseSteps = []PhaseStep{
	{Status: models.StatusAnalyzing, Delay: 2000 * time.Millisecond},
	{Status: models.StatusWarping, Delay: 2500 * time.Millisecond},
	{Status: models.StatusCompositing, Delay: 2000 * time.Millisecond},
	{Status: models.StatusRendering},
}

// TryOnSession holds the state of one try-on screen: current status, last
// result or error, and the token of the generation in flight.
type TryOnSession struct {
	mu         sync.Mutex
	generator  Generator
	steps      []PhaseStep
	status     models.AppStatus
	result     *models.VTONResult
	errMessage string
	inFlight   string
	cancel     context.CancelFunc
}

func NewTryOnSession(generator Generator, steps []PhaseStep) *TryOnSession {
	if steps == nil {
		steps = DefaultPhaseSteps
	}
	return &TryOnSession{
		generator: generator,
		steps:     steps,
		status:    models.StatusIdle,
	}
}

// Generate runs the phase timer and the provider request together and
// returns once both are done, or as soon as the request fails. A result that
// arrives after Reset is discarded.
func (s *TryOnSession) Generate(ctx context.Context, req GenerateRequest) (*models.VTONResult, error) {
	if err := Precheck(req); err != nil {
		s.mu.Lock()
		s.errMessage = err.Error()
		s.mu.Unlock()
		return nil, err
	}

	s.mu.Lock()
	if s.inFlight != "" {
		s.mu.Unlock()
		return nil, ErrGenerationInProgress
	}
	generationID := uuid.NewString()
	runCtx, cancel := context.WithCancel(ctx)
	s.inFlight = generationID
	s.cancel = cancel
	s.errMessage = ""
	s.mu.Unlock()
	defer cancel()

	fmt.Printf("[Note: %v] Generation started, provider=%s\n", generationID, req.Provider)
	var result *models.VTONResult
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		s.simulatePhases(gctx, generationID)
		return nil
	})
	g.Go(func() error {
		r, err := s.generator.Generate(gctx, req)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	err := g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight != generationID {
		fmt.Printf("[Note: %v] Generation finished after reset, result discarded\n", generationID)
		return nil, ErrGenerationDiscarded
	}
	s.inFlight = ""
	s.cancel = nil
	if err != nil {
		fmt.Printf("[Note: %v] Generation failed: %v\n", generationID, err)
		sentry.CaptureException(err)
		s.status = models.StatusError
		s.errMessage = err.Error()
		return nil, err
	}
	fmt.Printf("[Note: %v] Generation complete\n", generationID)
	s.result = result
	s.status = models.StatusComplete
	return result, nil
}

func (s *TryOnSession) simulatePhases(ctx context.Context, generationID string) {
	for _, step := range s.steps {
		if !s.setPhase(generationID, step.Status) {
			return
		}
		if step.Delay <= 0 {
			continue
		}
		timer := time.NewTimer(step.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// setPhase updates the status only while generationID is still in flight.
func (s *TryOnSession) setPhase(generationID string, status models.AppStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight != generationID {
		return false
	}
	s.status = status
	return true
}

// Reset abandons any generation in flight and clears result and error.
func (s *TryOnSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.inFlight = ""
	s.status = models.StatusIdle
	s.result = nil
	s.errMessage = ""
}

// CloseResult dismisses the shown result and goes back to IDLE.
func (s *TryOnSession) CloseResult() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight != "" {
		return ErrGenerationInProgress
	}
	s.result = nil
	s.status = models.StatusIdle
	return nil
}

func (s *TryOnSession) Snapshot() models.SessionOut {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.SessionOut{
		Status:     s.status,
		InFlight:   s.inFlight != "",
		Result:     s.result,
		ErrMessage: StrPointer(s.errMessage),
	}
}
