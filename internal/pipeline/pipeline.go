// Package pipeline drives a new content request through the remote
// generation stages. Stages run strictly one after another because each
// reads what the previous one stored server-side; the first failure stops
// the run and nothing is rolled back.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/kingrea/contentdesk/internal/content"
)

// Backend is the subset of the API client the orchestrator needs.
type Backend interface {
	SubmitTopic(ctx context.Context, req content.NewRequest) (int64, error)
	RunStage(ctx context.Context, requestID int64, stage content.Stage) error
}

// Observer receives progress notifications. Implementations must not block.
type Observer interface {
	StageStarted(requestID int64, stage content.Stage)
	StageFinished(requestID int64, stage content.Stage)
	StageFailed(requestID int64, stage content.Stage, err error)
}

// SubmitError reports that the topic was never accepted, so no stage ran.
type SubmitError struct {
	Err error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("submit topic: %v", e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// StageError is the single aggregate failure for an aborted run.
type StageError struct {
	RequestID int64
	Stage     content.Stage
	Completed []content.Stage
	Err       error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline request %d: %s stage: %v", e.RequestID, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Result describes a fully successful run.
type Result struct {
	RequestID int64
	Stages    []content.Stage
	Outcome   content.Outcome
}

// Message is the user-facing completion line.
func (r Result) Message() string {
	if r.Outcome == content.OutcomePosted {
		return "Content posted!"
	}
	return "Content ready for review!"
}

// Orchestrator sequences topic submission and the stage calls.
type Orchestrator struct {
	backend  Backend
	observer Observer
	stages   []content.Stage
}

// Option customizes the orchestrator.
type Option func(*Orchestrator)

// WithObserver attaches a progress observer.
func WithObserver(o Observer) Option {
	return func(orch *Orchestrator) {
		if o != nil {
			orch.observer = o
		}
	}
}

// New builds an orchestrator over the standard four stages.
func New(backend Backend, opts ...Option) (*Orchestrator, error) {
	if backend == nil {
		return nil, errors.New("pipeline: backend is required")
	}
	orch := &Orchestrator{
		backend:  backend,
		observer: nopObserver{},
		stages:   content.Stages(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(orch)
		}
	}
	return orch, nil
}

type step struct {
	stage content.Stage
	run   func(ctx context.Context) error
}

func (o *Orchestrator) steps(requestID int64) []step {
	steps := make([]step, 0, len(o.stages))
	for _, stage := range o.stages {
		stage := stage
		steps = append(steps, step{
			stage: stage,
			run: func(ctx context.Context) error {
				return o.backend.RunStage(ctx, requestID, stage)
			},
		})
	}
	return steps
}

// Run submits the topic and then executes every stage in order. It returns
// a *SubmitError when the submission fails and a *StageError when a stage
// fails; in the latter case later stages are never invoked.
func (o *Orchestrator) Run(ctx context.Context, req content.NewRequest) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	requestID, err := o.backend.SubmitTopic(ctx, req)
	if err != nil {
		return Result{}, &SubmitError{Err: err}
	}
	return o.Resume(ctx, requestID, req.AutoPost)
}

// Resume runs the stages for an already-submitted request.
func (o *Orchestrator) Resume(ctx context.Context, requestID int64, autoPost bool) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	completed := make([]content.Stage, 0, len(o.stages))
	for _, s := range o.steps(requestID) {
		o.observer.StageStarted(requestID, s.stage)
		if err := s.run(ctx); err != nil {
			o.observer.StageFailed(requestID, s.stage, err)
			return Result{}, &StageError{
				RequestID: requestID,
				Stage:     s.stage,
				Completed: completed,
				Err:       err,
			}
		}
		completed = append(completed, s.stage)
		o.observer.StageFinished(requestID, s.stage)
	}
	return Result{
		RequestID: requestID,
		Stages:    completed,
		Outcome:   content.OutcomeFor(autoPost),
	}, nil
}

type nopObserver struct{}

func (nopObserver) StageStarted(int64, content.Stage)       {}
func (nopObserver) StageFinished(int64, content.Stage)      {}
func (nopObserver) StageFailed(int64, content.Stage, error) {}
