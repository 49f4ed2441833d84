package gen

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"studyhall/internal/config"
	"studyhall/internal/logging"
)

// Gateway orchestrates one generation request end to end: clamp the context
// payload, locate an interpreter, write the transient script, invoke, parse,
// and fall back. Tier 1 (the interpreter) is best-effort and never retried;
// tier 2 (the fallback synthesizer) must succeed. Generate itself never
// fails.
type Gateway struct {
	cfg      *config.Config
	invoker  Invoker
	locator  *Locator
	fallback FallbackSynthesizer
}

// NewGateway wires a gateway from config with a real process invoker.
func NewGateway(cfg *config.Config) *Gateway {
	invoker := NewProcessInvoker()
	if cfg.Generation.MaxOutputBytes > 0 {
		invoker.MaxOutputBytes = cfg.Generation.MaxOutputBytes
	}
	return &Gateway{
		cfg:     cfg,
		invoker: invoker,
		locator: NewLocator(invoker, cfg.Generation.Interpreters),
	}
}

// NewGatewayWithInvoker wires a gateway around a caller-supplied invoker and
// locator. Tests use this to substitute the process boundary.
func NewGatewayWithInvoker(cfg *config.Config, invoker Invoker, locator *Locator) *Gateway {
	return &Gateway{cfg: cfg, invoker: invoker, locator: locator}
}

// InvalidateInterpreter drops the cached interpreter probe, forcing the next
// request to re-probe. Operational hook for hosts where the interpreter
// appears or disappears at runtime.
func (g *Gateway) InvalidateInterpreter() {
	g.locator.Invalidate()
}

// Generate runs one request through the two-tier pipeline. It always returns
// a schema-valid envelope; the provenance flag is the only signal of a
// degraded result. Transient artifacts created for the request are deleted
// before returning, on every path.
func (g *Gateway) Generate(ctx context.Context, req GenerationRequest) (*ContentEnvelope, Provenance) {
	timer := logging.StartTimer(logging.CategoryGateway, "generate "+string(req.ContentType))
	defer timer.Stop()

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	req.ContextPayload = clampContext(req.ContextPayload)

	janitor := NewJanitor(req.ID)
	defer janitor.Release()

	envelope, ok := g.tryPrimary(ctx, req, janitor)
	if ok {
		logging.Gateway("Request %s (%s): primary success", req.ID, req.ContentType)
		return envelope, ProvenancePrimary
	}

	logging.Gateway("Request %s (%s): degraded fallback", req.ID, req.ContentType)
	return g.fallback.Synthesize(req), ProvenanceDegraded
}

// tryPrimary attempts the interpreter path. Any failure - missing
// credentials, missing interpreter, spawn failure, timeout, non-zero exit,
// empty or truncated output, parse failure - reports false and the caller
// degrades. Nothing here may panic or propagate an error.
func (g *Gateway) tryPrimary(ctx context.Context, req GenerationRequest, janitor *Janitor) (*ContentEnvelope, bool) {
	apiKey := g.cfg.Generation.APIKey
	if apiKey == "" {
		// No credentials is a normal state, handled exactly like an
		// unavailable interpreter.
		logging.GatewayDebug("Request %s: no API key configured", req.ID)
		return nil, false
	}

	binary, found := g.locator.Locate(ctx)
	if !found {
		logging.GatewayDebug("Request %s: no interpreter available", req.ID)
		return nil, false
	}

	script := buildScript(g.cfg.Generation.Provider, g.cfg.Generation.Model, req.ContentType)
	scriptPath, err := janitor.CreateScript(g.cfg.Generation.ScriptDir, script)
	if err != nil {
		logging.GatewayWarn("Request %s: could not write script: %v", req.ID, err)
		return nil, false
	}

	args := append([]string{scriptPath}, buildArgs(req)...)
	result := g.invoker.Invoke(ctx, Invocation{
		Binary:  binary,
		Args:    args,
		Env:     []string{credentialEnvVar(g.cfg.Generation.Provider) + "=" + apiKey},
		Timeout: g.timeoutFor(req.ContentType),
	})

	if result.Outcome != OutcomeSuccess {
		logging.GatewayWarn("Request %s: invocation %s (exit=%d, stderr=%s)",
			req.ID, result.Outcome, result.ExitCode, firstLine(result.Stderr))
		return nil, false
	}
	if strings.TrimSpace(result.Stdout) == "" {
		logging.GatewayWarn("Request %s: interpreter produced empty output", req.ID)
		return nil, false
	}
	if result.Truncated {
		logging.GatewayWarn("Request %s: interpreter output truncated, discarding", req.ID)
		return nil, false
	}

	envelope, err := Parse(req.ContentType, result.Stdout)
	if err != nil {
		logging.GatewayWarn("Request %s: %v", req.ID, err)
		return nil, false
	}

	logging.GatewayDebug("Request %s: parsed %s envelope in %v", req.ID, req.ContentType, result.Duration)
	return envelope, true
}

func (g *Gateway) timeoutFor(ct ContentType) time.Duration {
	switch ct {
	case ContentIngest:
		return g.cfg.IngestTimeout()
	case ContentLesson, ContentFlashcards:
		return g.cfg.LessonTimeout()
	default:
		return g.cfg.ExamTimeout()
	}
}
