// Package match fans a submitted application out across every lender's
// active policy and aggregates the per-lender verdicts into a durable
// match batch.
package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fundmatch/lendmatch/internal/common"
	"github.com/fundmatch/lendmatch/internal/evaluator"
	"github.com/fundmatch/lendmatch/internal/metrics"
	"github.com/fundmatch/lendmatch/internal/model"
	"github.com/fundmatch/lendmatch/internal/registry"
	"github.com/fundmatch/lendmatch/internal/service"
)

// Config holds configuration options for the orchestrator.
type Config struct {
	// MaxWorkers bounds concurrent lender evaluations so the data store is
	// not overwhelmed.
	MaxWorkers int
	// LenderTimeout caps a single lender evaluation. The evaluator has no
	// external calls, so this is a ceiling against pathological rule sets.
	LenderTimeout time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxWorkers:    8,
		LenderTimeout: 10 * time.Second,
	}
}

// Orchestrator coordinates submission, fan-out evaluation and batch
// completion.
type Orchestrator struct {
	store    service.Storage
	registry *registry.Registry
	metrics  *metrics.Collector

	// OnResult, when set, is called after each lender verdict is persisted.
	// Used by the CLI to drive progress display.
	OnResult func(model.MatchResult)

	config Config
}

// New creates an orchestrator with the default configuration.
func New(store service.Storage, reg *registry.Registry, collector *metrics.Collector) *Orchestrator {
	return NewWithConfig(store, reg, collector, DefaultConfig())
}

// NewWithConfig creates an orchestrator with custom configuration.
func NewWithConfig(store service.Storage, reg *registry.Registry, collector *metrics.Collector, config Config) *Orchestrator {
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = DefaultConfig().MaxWorkers
	}
	if config.LenderTimeout <= 0 {
		config.LenderTimeout = DefaultConfig().LenderTimeout
	}
	return &Orchestrator{
		store:    store,
		registry: reg,
		metrics:  collector,
		config:   config,
	}
}

// Submit validates the application data against the parameter registry and
// persists the application in the processing state. Unknown keys and
// type-mismatched values are rejected before any match state is created.
func (o *Orchestrator) Submit(ctx context.Context, applicantName string, data map[string]any) (*model.LoanApplication, error) {
	if applicantName == "" {
		return nil, fmt.Errorf("applicant name cannot be empty")
	}

	if err := o.registry.ValidateApplicationData(ctx, data); err != nil {
		return nil, err
	}

	app := &model.LoanApplication{
		ID:            uuid.NewString(),
		ApplicantName: applicantName,
		Data:          data,
		Status:        model.StatusProcessing,
	}
	if err := o.store.SaveApplication(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to save application: %w", err)
	}

	slog.Info("application submitted", "application_id", app.ID, "fields", len(data))
	return app, nil
}

// MatchApplication evaluates the application against every lender's active
// policy. The set of policies is snapshotted once at dispatch and recorded
// durably; lenders are evaluated independently on a bounded worker pool and
// their verdicts become visible as they complete. The batch transitions to
// complete only when the durable completion count equals the snapshot size,
// so a restarted process can re-run this safely: already-persisted verdicts
// are skipped and the recorded membership, not the current active set, is
// what gets evaluated.
func (o *Orchestrator) MatchApplication(ctx context.Context, applicationID string) error {
	app, err := o.store.GetApplication(ctx, applicationID)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("failed to load application: %w", err)
		}
		return err
	}

	if len(app.Data) == 0 {
		if o.metrics != nil {
			o.metrics.RecordBatchFailed()
		}
		if err := o.store.SetApplicationStatus(ctx, app.ID, model.StatusFailed); err != nil {
			return fmt.Errorf("failed to mark application failed: %w", err)
		}
		return fmt.Errorf("application %s has no form data", app.ID)
	}

	defs, err := o.registry.Definitions(ctx)
	if err != nil {
		return fmt.Errorf("failed to load parameter catalog: %w", err)
	}

	active, err := o.store.ListActivePolicies(ctx)
	if err != nil {
		return fmt.Errorf("failed to snapshot active policies: %w", err)
	}

	members := make([]model.BatchMember, len(active))
	for i, policy := range active {
		members[i] = model.BatchMember{LenderID: policy.LenderID, PolicyID: policy.ID}
	}
	if err := o.store.StartMatchBatch(ctx, app.ID, members); err != nil {
		return err
	}

	// Evaluate the recorded snapshot, not the current active set: a
	// re-dispatched batch must not pick up policies activated since it
	// began, and must keep evaluating the policy versions it pinned.
	recorded, err := o.store.BatchMembers(ctx, app.ID)
	if err != nil {
		return fmt.Errorf("failed to load batch snapshot: %w", err)
	}

	policies, err := o.snapshotPolicies(ctx, active, recorded)
	if err != nil {
		return err
	}

	if len(policies) == 0 {
		if err := o.store.SetApplicationStatus(ctx, app.ID, model.StatusComplete); err != nil {
			return fmt.Errorf("failed to complete empty batch: %w", err)
		}
		slog.Info("no active policies, batch trivially complete", "application_id", app.ID)
		return nil
	}

	slog.Info("dispatching match batch",
		"application_id", app.ID,
		"lenders", len(policies),
		"workers", o.config.MaxWorkers)

	var wg sync.WaitGroup
	sem := make(chan struct{}, o.config.MaxWorkers)
	errCh := make(chan error, len(policies))

	for i := range policies {
		policy := policies[i]
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			if err := o.evaluateLender(ctx, app, &policy, defs); err != nil {
				errCh <- fmt.Errorf("lender %s: %w", policy.LenderID, err)
			}
		}()
	}

	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		// Persistence failures for some lenders; the batch stays in
		// processing and a retried dispatch fills in the gaps
		return errors.Join(errs...)
	}
	return nil
}

// snapshotPolicies resolves the recorded batch membership to full policies.
// Members whose policy is still active come from the already-loaded active
// set; the rest were superseded after the batch began and are loaded by ID.
func (o *Orchestrator) snapshotPolicies(ctx context.Context, active []model.Policy, recorded []model.BatchMember) ([]model.Policy, error) {
	activeByID := make(map[string]model.Policy, len(active))
	for _, policy := range active {
		activeByID[policy.ID] = policy
	}

	policies := make([]model.Policy, 0, len(recorded))
	for _, member := range recorded {
		if policy, ok := activeByID[member.PolicyID]; ok {
			policies = append(policies, policy)
			continue
		}
		policy, err := o.store.GetPolicy(ctx, member.PolicyID)
		if err != nil {
			return nil, fmt.Errorf("failed to load pinned policy %s: %w", member.PolicyID, err)
		}
		policies = append(policies, *policy)
	}
	return policies, nil
}

// evaluateLender evaluates one policy and persists the verdict. Evaluation
// itself is pure and synchronous; the per-lender timeout guards the rare
// pathological rule set and produces a persisted indeterminate verdict
// rather than failing the whole batch.
func (o *Orchestrator) evaluateLender(ctx context.Context, app *model.LoanApplication, policy *model.Policy, defs map[string]model.ParameterDefinition) error {
	start := time.Now()

	evalCtx, cancel := context.WithTimeout(ctx, o.config.LenderTimeout)
	defer cancel()

	verdictCh := make(chan evaluator.Verdict, 1)
	go func() {
		verdictCh <- evaluator.EvaluatePolicy(policy, defs, app.Data)
	}()

	var verdict evaluator.Verdict
	select {
	case verdict = <-verdictCh:
	case <-evalCtx.Done():
		slog.Warn("lender evaluation timed out",
			"application_id", app.ID,
			"lender_id", policy.LenderID,
			"timeout", o.config.LenderTimeout)
		verdict = evaluator.Verdict{
			Outcome: model.OutcomeDeclined,
			Evaluations: []model.RuleEvaluation{{
				Parameter:   "*",
				Kind:        model.KindEligibility,
				Status:      model.EvalIndeterminate,
				Explanation: fmt.Sprintf("policy evaluation timed out after %s", o.config.LenderTimeout),
			}},
		}
	}

	result := &model.MatchResult{
		ID:            uuid.NewString(),
		ApplicationID: app.ID,
		LenderID:      policy.LenderID,
		PolicyID:      policy.ID,
		PolicyVersion: policy.Version,
		Outcome:       verdict.Outcome,
		FitScore:      verdict.FitScore,
		Evaluations:   verdict.Evaluations,
	}

	// The insert is idempotent, so retrying a transient sqlite busy error
	// under heavy fan-out is safe. Structural rejections fail identically
	// on every attempt and surface immediately.
	var batchDone bool
	retryErr := common.WithRetry(ctx, func() error {
		done, saveErr := o.store.SaveMatchResult(ctx, result)
		if saveErr != nil {
			return &common.RetryableError{Err: saveErr, Retryable: transientSaveError(saveErr)}
		}
		batchDone = done
		return nil
	}, common.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
	})
	if retryErr != nil {
		return fmt.Errorf("failed to persist match result: %w", retryErr)
	}

	if o.metrics != nil {
		o.metrics.RecordEvaluation(string(verdict.Outcome), verdict.FitScore, time.Since(start))
		if batchDone {
			o.metrics.RecordBatchComplete()
		}
	}
	if o.OnResult != nil {
		o.OnResult(*result)
	}

	slog.Debug("lender evaluated",
		"application_id", app.ID,
		"lender_id", policy.LenderID,
		"outcome", verdict.Outcome,
		"duration", time.Since(start))
	return nil
}

// transientSaveError reports whether a failed verdict write is worth
// retrying. Validation and not-found errors are structural.
func transientSaveError(err error) bool {
	return !errors.Is(err, common.ErrValidation) && !errors.Is(err, common.ErrNotFound)
}
