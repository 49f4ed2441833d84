package gen

import (
	"context"
	"sync"
	"time"

	"studyhall/internal/logging"
)

// Locator resolves which interpreter binary is available on this host.
// Candidates are probed in order with a version check; the first one that
// exits 0 wins. The result is cached until Invalidate is called, so the
// "which interpreter exists" state is explicit rather than a hidden global.
type Locator struct {
	mu sync.Mutex

	// Candidates are binary names tried in order (e.g. python3, python).
	Candidates []string

	// ProbeArgs are the arguments of the availability check.
	ProbeArgs []string

	// ProbeTimeout bounds each probe invocation.
	ProbeTimeout time.Duration

	invoker  Invoker
	resolved bool
	binary   string
}

// NewLocator returns a locator probing the given candidates with `--version`.
func NewLocator(invoker Invoker, candidates []string) *Locator {
	return &Locator{
		Candidates:   candidates,
		ProbeArgs:    []string{"--version"},
		ProbeTimeout: 5 * time.Second,
		invoker:      invoker,
	}
}

// Locate returns the first available candidate binary. The second return is
// false when no candidate responds to the version check.
func (l *Locator) Locate(ctx context.Context) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.resolved {
		return l.binary, l.binary != ""
	}

	for _, candidate := range l.Candidates {
		res := l.invoker.Invoke(ctx, Invocation{
			Binary:  candidate,
			Args:    l.ProbeArgs,
			Timeout: l.ProbeTimeout,
		})
		if res.Outcome == OutcomeSuccess {
			logging.GatewayDebug("Interpreter probe: %s available", candidate)
			l.binary = candidate
			l.resolved = true
			return candidate, true
		}
		logging.GatewayDebug("Interpreter probe: %s unavailable (%s)", candidate, res.Outcome)
	}

	logging.GatewayWarn("No interpreter available (tried %v)", l.Candidates)
	l.binary = ""
	l.resolved = true
	return "", false
}

// Invalidate drops the cached probe result. The next Locate re-probes.
func (l *Locator) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resolved = false
	l.binary = ""
}
