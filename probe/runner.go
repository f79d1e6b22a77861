package probe

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vitalvas/wsprobe/wsclient"
)

// Default timeouts when a suite does not specify its own.
const (
	defaultDialTimeout = 10 * time.Second
	defaultStepTimeout = 5 * time.Second
)

// Result records the outcome of a single scenario run.
type Result struct {
	RunID    uuid.UUID
	Scenario string
	Passed   bool
	Failure  string
	Elapsed  time.Duration
}

// Summary tallies the results of a suite run.
type Summary struct {
	Results []Result
}

// Passed returns the number of passing scenarios.
func (s *Summary) Passed() int {
	n := 0
	for _, r := range s.Results {
		if r.Passed {
			n++
		}
	}
	return n
}

// Failed returns the number of failing scenarios.
func (s *Summary) Failed() int {
	return len(s.Results) - s.Passed()
}

// OK reports whether every scenario passed.
func (s *Summary) OK() bool {
	return s.Failed() == 0
}

func (s *Summary) String() string {
	return fmt.Sprintf("passed %d/%d", s.Passed(), len(s.Results))
}

// Runner executes suites. The zero value is usable: it dials with
// wsclient.DefaultDialer and discards logs.
type Runner struct {
	// Dialer opens the WebSocket sessions. Nil means DefaultDialer.
	Dialer *wsclient.Dialer

	// Logger receives per-scenario progress. Nil means discard.
	Logger *slog.Logger
}

func (r *Runner) dialer() *wsclient.Dialer {
	if r.Dialer != nil {
		return r.Dialer
	}
	return wsclient.DefaultDialer
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// RunSuite performs the optional preflight check and then runs every
// scenario in order. A preflight failure aborts the run with an error;
// scenario failures are tallied into the summary instead.
func (r *Runner) RunSuite(suite *Suite) (*Summary, error) {
	if suite.Preflight != "" {
		if err := CheckHealth(suite.resolveHTTP(suite.Preflight), defaultDialTimeout); err != nil {
			return nil, err
		}
	}

	summary := &Summary{Results: make([]Result, 0, len(suite.Scenarios))}
	for _, sc := range suite.Scenarios {
		result := r.runScenario(suite, sc)
		summary.Results = append(summary.Results, result)
	}
	return summary, nil
}

func (r *Runner) runScenario(suite *Suite, sc Scenario) Result {
	result := Result{
		RunID:    uuid.New(),
		Scenario: sc.Name,
	}
	logger := r.logger().With("scenario", sc.Name, "run_id", result.RunID.String())

	start := time.Now()
	defer func() {
		result.Elapsed = time.Since(start)
		if result.Passed {
			logger.Info("scenario passed", "elapsed", result.Elapsed)
		} else {
			logger.Warn("scenario failed", "failure", result.Failure, "elapsed", result.Elapsed)
		}
	}()

	dialer := *r.dialer()
	if sc.Timeout > 0 {
		dialer.Timeout = sc.Timeout.Std()
	}

	url := suite.resolveWS(sc.URL)
	session, err := dialer.Dial(url)
	if err != nil {
		result.Failure = fmt.Sprintf("dial %s: %v", url, err)
		return result
	}
	defer session.Close()

	for i, step := range sc.Steps {
		if step.Send != "" {
			if err := session.SendText(step.Send); err != nil {
				result.Failure = fmt.Sprintf("step %d: send: %v", i, err)
				return result
			}
		}
		if step.Expect == "" {
			continue
		}

		within := step.Within.Std()
		if within <= 0 {
			within = defaultStepTimeout
		}
		msg, ok := session.ReceiveMessage(within)
		if !ok {
			result.Failure = fmt.Sprintf("step %d: no message within %s (state %s)", i, within, session.State())
			return result
		}
		if msg != step.Expect {
			result.Failure = fmt.Sprintf("step %d: got %q, want %q", i, msg, step.Expect)
			return result
		}
	}

	result.Passed = true
	return result
}
