// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/mobiletoly/go-fieldsync/gateway"
)

// State is the orchestrator's coarse position in a sync run.
type State int

const (
	StateIdle State = iota
	StateChecking
	StatePulling
	StatePushing
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateChecking:
		return "checking"
	case StatePulling:
		return "pulling"
	case StatePushing:
		return "pushing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

var (
	// ErrSyncInProgress is returned when Sync is invoked while a run is
	// already active. Overlapping runs could double-push unsynced rows.
	ErrSyncInProgress = errors.New("syncer: sync already in progress")

	// ErrCredentialsInvalid signals that the health check was rejected and
	// the application key must be reset before syncing can work again.
	ErrCredentialsInvalid = errors.New("syncer: credentials invalid, reset application key")
)

// Progress is one step-level progress notification.
type Progress struct {
	State    State
	Step     string
	Fraction float64
}

// StepResult records the outcome of one entity-type step. Step failures are
// contained here instead of aborting the run: sync is best-effort, not
// atomic.
type StepResult struct {
	Step   string
	Synced int
	Err    error
}

// Report aggregates a whole sync run. Even when State is Done, individual
// steps may carry errors; callers surface them as a retry affordance without
// blocking use of already-synced local data.
type Report struct {
	State State
	Steps []StepResult
	Err   error
}

// Failed reports whether any step (or the run itself) went wrong.
func (r *Report) Failed() bool {
	if r.Err != nil {
		return true
	}
	for _, st := range r.Steps {
		if st.Err != nil {
			return true
		}
	}
	return false
}

// Sync runs the full pipeline: health check, then entity pulls and pushes in
// dependency order. onProgress may be nil. The returned error is non-nil only
// when the run itself could not proceed (guard hit or health check failed);
// per-step failures live in the Report.
//
// Pull order: customers and items before orders, orders before their lines
// and call records. Push order: customers before orders before call records,
// because an order payload needs its customer's online id and a call record
// needs the same.
func (s *Service) Sync(ctx context.Context, onProgress func(Progress)) (*Report, error) {
	if !s.syncing.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	defer s.syncing.Store(false)

	emit := func(p Progress) {
		if onProgress != nil {
			onProgress(p)
		}
	}

	report := &Report{State: StateIdle}

	emit(Progress{State: StateChecking, Step: "Checking credentials", Fraction: 0.05})
	if err := s.gw.Ping(ctx); err != nil {
		report.State = StateFailed
		if errors.Is(err, gateway.ErrRejected) {
			report.Err = fmt.Errorf("%w: %v", ErrCredentialsInvalid, err)
		} else {
			report.Err = err
		}
		emit(Progress{State: StateFailed, Step: "Sync failed", Fraction: 0})
		return report, report.Err
	}

	type step struct {
		name     string
		fraction float64
		run      func(context.Context) (int, error)
	}

	pulls := []step{
		{"Syncing customers", 0.20, s.PullCustomers},
		{"Syncing items", 0.35, s.PullItems},
		{"Syncing call records", 0.50, s.PullDCRData},
		{"Syncing sales orders", 0.65, s.PullSalesOrders},
	}
	pushes := []step{
		{"Uploading customers", 0.80, s.PushCustomers},
		{"Uploading sales orders", 0.90, s.PushSalesOrders},
		{"Uploading call records", 0.97, s.PushDCRs},
	}

	runSteps := func(state State, steps []step) {
		report.State = state
		for _, st := range steps {
			emit(Progress{State: state, Step: st.name, Fraction: st.fraction})
			n, err := st.run(ctx)
			if err != nil {
				// Contained: the next step proceeds regardless.
				s.logger.Warn("sync step failed", "step", st.name, "err", err)
			}
			report.Steps = append(report.Steps, StepResult{Step: st.name, Synced: n, Err: err})
		}
	}

	runSteps(StatePulling, pulls)
	runSteps(StatePushing, pushes)

	report.State = StateDone
	emit(Progress{State: StateDone, Step: "Sync complete", Fraction: 1.0})
	return report, nil
}
