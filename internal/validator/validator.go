// Package validator grades learner submissions against a challenge's
// reference solution.
//
// Query challenges compare result sets. Mutation challenges compare the
// challenge's check query after running the statement on a sandbox restored
// to the lesson baseline. Schema challenges compare catalog snapshots.
// Reference results for mutating kinds come from a scratch sandbox so the
// reference statement never touches the learner's database.
package validator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/sqlquest/internal/sandbox"
	"github.com/leapstack-labs/sqlquest/pkg/core"
)

// Validator grades submissions against one live sandbox.
type Validator struct {
	live   *sandbox.Session
	logger *slog.Logger
}

// New creates a validator bound to the learner's live sandbox.
func New(live *sandbox.Session, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Validator{live: live, logger: logger}
}

// Validate grades submitted for challenge. baseline is the lesson's seed
// script. Execution failures on either side yield a failed verdict with the
// engine error in the mismatch; Validate never returns an error.
func (v *Validator) Validate(ctx context.Context, baseline string, challenge core.Challenge, submitted string) core.Verdict {
	logger := v.logger.With("challenge", challenge.ID, "kind", challenge.EffectiveKind())
	logger.Debug("validating submission")

	var learner, reference core.QueryResult
	switch challenge.EffectiveKind() {
	case core.ChallengeQuery:
		learner, reference = v.runQuery(ctx, baseline, challenge, submitted)
	case core.ChallengeMutation, core.ChallengeSchema:
		learner, reference = v.runMutation(ctx, baseline, challenge, submitted)
	default:
		reference = core.Failure(fmt.Sprintf("unknown challenge kind %q", challenge.Kind))
		learner = core.Success(nil, nil, 0)
	}

	verdict := core.Verdict{
		ChallengeID: challenge.ID,
		Learner:     learner,
		Reference:   reference,
	}

	switch {
	case learner.Failed():
		verdict.Mismatch = &core.Mismatch{Kind: core.MismatchLearnerError, Detail: learner.Error, Row: -1}
	case reference.Failed():
		verdict.Mismatch = &core.Mismatch{Kind: core.MismatchReferenceError, Detail: reference.Error, Row: -1}
	default:
		verdict.Mismatch = Compare(learner, reference, CompareOptions{
			Ordered:          challenge.Ordered(),
			MatchColumnNames: challenge.MatchColumnNames,
		})
	}
	verdict.Passed = verdict.Mismatch == nil

	if verdict.Passed {
		logger.Info("submission passed")
	} else {
		logger.Info("submission failed", "mismatch", verdict.Mismatch.Kind, "detail", verdict.Mismatch.Detail)
	}
	return verdict
}

// runQuery executes the reference and then the submission on the live
// sandbox, so both read the state the learner submitted against. A declared
// setup first restores baseline + setup.
func (v *Validator) runQuery(ctx context.Context, baseline string, challenge core.Challenge, submitted string) (core.QueryResult, core.QueryResult) {
	if strings.TrimSpace(challenge.Setup) != "" {
		if err := restore(ctx, v.live, baseline, challenge.Setup); err != nil {
			failed := core.Failure(err.Error())
			return core.Success(nil, nil, 0), failed
		}
	}
	reference := v.live.ExecuteQuery(ctx, challenge.Reference)
	learner := v.live.ExecuteQuery(ctx, submitted)
	return learner, reference
}

// runMutation restores the live sandbox, applies the submission and
// observes the result. The reference runs the same way in a scratch sandbox.
func (v *Validator) runMutation(ctx context.Context, baseline string, challenge core.Challenge, submitted string) (core.QueryResult, core.QueryResult) {
	if err := restore(ctx, v.live, baseline, challenge.Setup); err != nil {
		return core.Success(nil, nil, 0), core.Failure(err.Error())
	}
	learner := v.live.ExecuteQuery(ctx, submitted)
	if !learner.Failed() {
		learner = observe(ctx, v.live, challenge)
	}

	scratch := v.live.Scratch()
	defer scratch.Dispose()

	if err := restore(ctx, scratch, baseline, challenge.Setup); err != nil {
		return learner, core.Failure(err.Error())
	}
	reference := scratch.ExecuteQuery(ctx, challenge.Reference)
	if !reference.Failed() {
		reference = observe(ctx, scratch, challenge)
	}
	return learner, reference
}

// observe captures the state a mutating challenge is graded on.
func observe(ctx context.Context, s *sandbox.Session, challenge core.Challenge) core.QueryResult {
	if challenge.EffectiveKind() == core.ChallengeSchema {
		return s.SchemaResult(ctx)
	}
	return s.ExecuteQuery(ctx, challenge.Check)
}

// restore re-creates the sandbox from baseline and applies setup.
func restore(ctx context.Context, s *sandbox.Session, baseline, setup string) error {
	if err := s.Initialize(ctx, baseline); err != nil {
		var seedErr *core.SeedError
		if errors.As(err, &seedErr) {
			return fmt.Errorf("failed to restore lesson data: %s", seedErr.Message)
		}
		return fmt.Errorf("failed to restore lesson data: %w", err)
	}
	if strings.TrimSpace(setup) == "" {
		return nil
	}
	if res := s.SetupSchema(ctx, setup); res.Failed() {
		return fmt.Errorf("failed to apply challenge setup: %s", res.Error)
	}
	return nil
}
