// ABOUTME: Run poller driving a backend run to a terminal status
// ABOUTME: One status read per tick with a fixed wait between non-terminal reads

package bridge

import (
	"context"
	"errors"

	"github.com/2389/seance/internal/backend"
)

// ErrPollBudgetExceeded is returned when MaxPollAttempts non-terminal
// reads pass without the run settling.
var ErrPollBudgetExceeded = errors.New("run poll budget exceeded")

// pollRun reads the run's status until it is terminal, waiting
// PollInterval between reads. Reads are strictly sequential; each tick
// issues exactly one. With MaxPollAttempts zero the poll is unbounded,
// matching the historical behavior of this pipeline; setting a budget
// surfaces stuck runs as ErrPollBudgetExceeded instead.
func (b *Bridge) pollRun(ctx context.Context, sessionID, runID string) (backend.RunStatus, error) {
	attempts := 0
	for {
		run, err := b.backend.GetRun(ctx, sessionID, runID)
		if err != nil {
			return "", err
		}
		if run.Status.Terminal() {
			return run.Status, nil
		}

		attempts++
		if b.opts.MaxPollAttempts > 0 && attempts >= b.opts.MaxPollAttempts {
			return run.Status, ErrPollBudgetExceeded
		}

		b.logger.Debug("run still pending", "run", runID, "status", run.Status, "attempts", attempts)
		if err := sleepCtx(ctx, b.opts.PollInterval); err != nil {
			return run.Status, err
		}
	}
}
