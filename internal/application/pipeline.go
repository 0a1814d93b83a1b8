// Package application wires the domain services and infrastructure
// adapters into the end-to-end request pipeline (spec components A-I) and
// owns the gateway's top-level lifecycle (spec §2's "App" container).
package application

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/relayplane/gateway/internal/domain/entity"
	"github.com/relayplane/gateway/internal/domain/service"
	"github.com/relayplane/gateway/internal/domain/valueobject"
	"github.com/relayplane/gateway/internal/infrastructure/config"
	"github.com/relayplane/gateway/internal/infrastructure/llm"
	"github.com/relayplane/gateway/internal/infrastructure/metrics"
	"github.com/relayplane/gateway/internal/infrastructure/llm/anthropic"
	"github.com/relayplane/gateway/internal/infrastructure/llm/gemini"
	"github.com/relayplane/gateway/internal/infrastructure/llm/openai"
	gwerrors "github.com/relayplane/gateway/pkg/errors"
	"go.uber.org/zap"
)

// Result is the pipeline's outcome, either a buffered body or a streaming
// writer the HTTP handler drives chunk-by-chunk (spec 4.J "Response
// writing").
type Result struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	Stream bool
	// StreamTo copies the upstream stream to w as SSE in the client's own
	// wire dialect: OpenAI-dialect streams end with "data: [DONE]\n\n",
	// while native /v1/messages streams are forwarded line by line as the
	// upstream sent them. w is expected to flush after every write.
	StreamTo func(ctx context.Context, w io.Writer, flush func()) error
}

// Pipeline ties components B through I together: task inference,
// complexity classification, alias resolution, routing-target selection,
// dispatch (single target or cascade), and dialect translation.
type Pipeline struct {
	registry   *service.Registry
	cooldown   *llm.CooldownManager
	dispatcher *llm.Dispatcher
	providers  map[string]llm.Provider
	policy     service.PolicyDecision
	telemetry  service.TelemetrySink
	clock      service.Clock
	store      *config.Store
	logger     *zap.Logger
	metrics    *metrics.Recorder
}

// SetMetrics attaches a Prometheus recorder; nil leaves metrics unrecorded
// (the Recorder methods are themselves nil-safe for this reason).
func (p *Pipeline) SetMetrics(m *metrics.Recorder) { p.metrics = m }

// NewPipeline builds a Pipeline from its collaborators. providers is keyed
// by provider name ("anthropic", "openai", "google", "xai", "moonshot",
// "local").
func NewPipeline(
	registry *service.Registry,
	cooldown *llm.CooldownManager,
	dispatcher *llm.Dispatcher,
	providers map[string]llm.Provider,
	policy service.PolicyDecision,
	telemetry service.TelemetrySink,
	clock service.Clock,
	store *config.Store,
	logger *zap.Logger,
) *Pipeline {
	if policy == nil {
		policy = service.AllowAllPolicy{}
	}
	return &Pipeline{
		registry:   registry,
		cooldown:   cooldown,
		dispatcher: dispatcher,
		providers:  providers,
		policy:     policy,
		telemetry:  telemetry,
		clock:      clock,
		store:      store,
		logger:     logger,
	}
}

// routingConfig snapshots the store's current routing config into the
// domain service's narrower RoutingConfig view.
func (p *Pipeline) routingConfig() service.RoutingConfig {
	cfg := p.store.Get()
	return service.RoutingConfig{
		Mode:                    cfg.Routing.Mode,
		ComplexityModels:        cfg.Routing.ComplexityModels,
		CascadeEnabled:          cfg.Routing.CascadeEnabled,
		CascadeModels:           cfg.Routing.CascadeModels,
		MaxEscalations:          cfg.Routing.MaxEscalations,
		QualityModelEnvOverride: os.Getenv(cfg.Routing.QualityModelEnvKey),
	}
}

// plannedTarget bundles the outcome of mode/task/complexity/target
// selection shared by both dialect entry points.
type plannedTarget struct {
	dialect        entity.Dialect
	requestedModel string
	task           valueobject.TaskInference
	complexity     valueobject.Complexity
	target         service.RoutingTarget
}

func (p *Pipeline) plan(dialect entity.Dialect, reqCtx entity.RequestContext, requestedModel, promptText string, streaming bool) (plannedTarget, *gwerrors.RelayError) {
	bypass := reqCtx.Bypass || !p.store.Get().Gateway.Enabled
	if reqCtx.ModelOverride != "" {
		requestedModel = reqCtx.ModelOverride
	}

	mode := service.SelectMode(p.registry, requestedModel, bypass)
	task := service.InferTask(promptText)
	complexity := service.ClassifyComplexity([]entity.Message{{Text: promptText}})

	target, rerr := service.SelectTarget(p.registry, p.routingConfig(), mode, requestedModel, task.Task, complexity, streaming)
	if rerr != nil {
		return plannedTarget{}, rerr
	}
	if target.Single != nil {
		if rerr := service.RejectNonAnthropicForMessagesDialect(dialect, *target.Single); rerr != nil {
			return plannedTarget{}, rerr
		}
		if rerr := p.evaluatePolicy(dialect, reqCtx, *target.Single); rerr != nil {
			return plannedTarget{}, rerr
		}
	}
	return plannedTarget{
		dialect:        dialect,
		requestedModel: requestedModel,
		task:           task,
		complexity:     complexity,
		target:         target,
	}, nil
}

// evaluatePolicy consults the external policy collaborator (spec §1; the
// default AllowAllPolicy never rejects) before a target is dispatched.
func (p *Pipeline) evaluatePolicy(dialect entity.Dialect, reqCtx entity.RequestContext, rm service.ResolvedModel) *gwerrors.RelayError {
	return p.policy.Evaluate(entity.Request{Ctx: reqCtx, Dialect: dialect, Model: rm.Model}, rm)
}

func (p *Pipeline) providerFor(name string) (llm.Provider, *gwerrors.RelayError) {
	prov, ok := p.providers[name]
	if !ok {
		return nil, gwerrors.Newf(gwerrors.KindInternal, "no provider registered for %q", name)
	}
	return prov, nil
}

func (p *Pipeline) resolveAuth(rm service.ResolvedModel, reqCtx entity.RequestContext) llm.ResolvedAuth {
	cfg := p.store.Get()
	providerCfg := cfg.Providers[rm.Provider]
	return llm.ResolveAuth(rm.Provider, rm.Model, reqCtx.Authorization, reqCtx.XAPIKey, providerCfg.APIKey(), cfg.Auth.UseMaxForModels)
}

func (p *Pipeline) checkAuth(rm service.ResolvedModel, auth llm.ResolvedAuth, dialect entity.Dialect) *gwerrors.RelayError {
	if auth.APIKey != "" || auth.MaxToken != "" || auth.PassthroughRaw != "" {
		return nil
	}
	if dialect == entity.DialectAnthropicMessages {
		return gwerrors.New(gwerrors.KindMissingAuth, "no Anthropic credentials on /v1/messages")
	}
	envVar := p.store.Get().Providers[rm.Provider].APIKeyEnv
	return gwerrors.MissingProviderKey(envVar)
}

func (p *Pipeline) requestTimeout() time.Duration {
	return p.store.Get().Reliability.MiddlewareRequestTimeout
}

// recordTelemetry is fire-and-forget; it never returns an error to the
// request path (spec 4.A). provider may be empty when the dispatch never
// resolved one (e.g. a cascade that exhausted every candidate).
func (p *Pipeline) recordTelemetry(task valueobject.TaskType, model, provider string, promptTokens, outputTokens int, latencyMs int64, success bool) {
	if p.telemetry != nil {
		p.telemetry.Record(service.TelemetryRecord{
			Task:         task,
			Model:        model,
			PromptTokens: promptTokens,
			OutputTokens: outputTokens,
			LatencyMs:    latencyMs,
			Success:      success,
			CostEstimate: 0,
		})
	}
	if success {
		p.metrics.IncRequest(string(task), model, provider)
	}
}

// --- /v1/messages (Anthropic-native dialect) ---

// HandleAnthropicMessages runs the native passthrough pipeline: the model
// field drives routing exactly as the OpenAI path does, but only an
// Anthropic target is ever permitted (spec 4.E dialect constraint). The
// request is re-encoded from anthropic.Request with the model substituted,
// so fields that type does not carry are not forwarded; the response body
// is forwarded unchanged.
func (p *Pipeline) HandleAnthropicMessages(ctx context.Context, reqCtx entity.RequestContext, body []byte) (*Result, *gwerrors.RelayError) {
	start := p.clock.NowMillis()

	var req anthropic.Request
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, gwerrors.Wrap(gwerrors.KindInvalidRequest, "malformed JSON body", err)
	}
	if len(req.Messages) == 0 {
		return nil, gwerrors.New(gwerrors.KindInvalidRequest, "messages array must not be empty")
	}

	plan, rerr := p.plan(entity.DialectAnthropicMessages, reqCtx, req.Model, anthropicPromptText(req), req.Stream)
	if rerr != nil {
		return nil, rerr
	}

	if plan.target.Cascade != nil {
		return p.runCascade(ctx, plan, reqCtx, func(rm service.ResolvedModel) ([]byte, error) {
			return marshalAnthropicWithModel(req, rm.Model)
		}, start)
	}

	rm := *plan.target.Single
	prov, rerr := p.providerFor(rm.Provider)
	if rerr != nil {
		return nil, rerr
	}
	auth := p.resolveAuth(rm, reqCtx)
	if rerr := p.checkAuth(rm, auth, plan.dialect); rerr != nil {
		return nil, rerr
	}
	if !p.cooldown.IsAvailable(rm.Provider) {
		return nil, gwerrors.New(gwerrors.KindProviderCooled, fmt.Sprintf("provider %q is cooled", rm.Provider))
	}

	outBody, err := marshalAnthropicWithModel(req, rm.Model)
	if err != nil {
		return nil, gwerrors.Wrap(gwerrors.KindInternal, "marshal request", err)
	}

	resp, rerr := p.dispatcher.Do(ctx, prov, rm.Model, auth, outBody, req.Stream, p.requestTimeout())
	if rerr != nil {
		p.recordTelemetry(plan.task.Task, rm.Model, rm.Provider, 0, 0, p.clock.NowMillis()-start, false)
		return nil, rerr
	}

	if req.Stream {
		return p.streamPassthrough(resp), nil
	}
	defer resp.Close()
	if resp.StatusCode >= 300 {
		p.recordTelemetry(plan.task.Task, rm.Model, rm.Provider, 0, 0, p.clock.NowMillis()-start, false)
		return nil, gwerrors.ProviderError(resp.StatusCode, resp.Body)
	}

	var parsed anthropic.Response
	_ = json.Unmarshal(resp.Body, &parsed)
	p.recordTelemetry(plan.task.Task, rm.Model, rm.Provider, parsed.Usage.InputTokens, parsed.Usage.OutputTokens, p.clock.NowMillis()-start, true)

	return &Result{StatusCode: resp.StatusCode, Header: resp.Header, Body: resp.Body}, nil
}

// CountTokens forwards /v1/messages/count_tokens verbatim to Anthropic
// (spec 4.J), with no model resolution or translation.
func (p *Pipeline) CountTokens(ctx context.Context, reqCtx entity.RequestContext, body []byte) (*Result, *gwerrors.RelayError) {
	prov, rerr := p.providerFor("anthropic")
	if rerr != nil {
		return nil, rerr
	}
	anthProv, ok := prov.(*anthropic.Provider)
	if !ok {
		return nil, gwerrors.New(gwerrors.KindInternal, "anthropic provider has unexpected type")
	}

	cfg := p.store.Get()
	auth := llm.ResolveAuth("anthropic", "", reqCtx.Authorization, reqCtx.XAPIKey, cfg.Providers["anthropic"].APIKey(), cfg.Auth.UseMaxForModels)
	if rerr := p.checkAuth(service.ResolvedModel{Provider: "anthropic"}, auth, entity.DialectAnthropicMessages); rerr != nil {
		return nil, rerr
	}

	headers := map[string]string{"Content-Type": "application/json", "anthropic-version": anthropic.Version}
	anthProv.SetAuthHeaders(headers, auth)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, anthProv.CountTokensEndpoint(), strings.NewReader(string(body)))
	if err != nil {
		return nil, gwerrors.Wrap(gwerrors.KindInternal, "build count_tokens request", err)
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	client := &http.Client{Timeout: p.requestTimeout()}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, gwerrors.Wrap(gwerrors.KindNetworkError, "provider error: "+err.Error(), err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return nil, gwerrors.ProviderError(resp.StatusCode, respBody)
	}
	return &Result{StatusCode: resp.StatusCode, Header: resp.Header, Body: respBody}, nil
}

// modelListing is one entry in the /v1/models response, shaped like
// OpenAI's model-list objects so existing OpenAI-SDK clients parse it
// unchanged.
type modelListing struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	OwnedBy string `json:"owned_by"`
}

// relayplaneRoutingModelIDs is the synthetic, fixed list of routing-mode
// aliases advertised by /v1/models (spec 4.J); it never reflects actual
// per-provider model catalogues.
var relayplaneRoutingModelIDs = []string{
	"relayplane:auto", "relayplane:cost", "relayplane:fast", "relayplane:quality",
	"rp:balanced", "rp:best", "rp:fast", "rp:cheap",
}

// ListModels returns the synthetic /v1/models listing (spec 4.J).
func (p *Pipeline) ListModels(context.Context) (*Result, *gwerrors.RelayError) {
	data := make([]modelListing, 0, len(relayplaneRoutingModelIDs))
	for _, id := range relayplaneRoutingModelIDs {
		data = append(data, modelListing{ID: id, Object: "model", OwnedBy: "relayplane"})
	}
	body, err := json.Marshal(struct {
		Object string         `json:"object"`
		Data   []modelListing `json:"data"`
	}{Object: "list", Data: data})
	if err != nil {
		return nil, gwerrors.Wrap(gwerrors.KindInternal, "marshal model list", err)
	}
	return &Result{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       body,
	}, nil
}

// --- /v1/chat/completions (OpenAI dialect) ---

// HandleOpenAIChat runs the full pipeline for an inbound OpenAI-shaped
// chat completion request, translating to/from whichever upstream dialect
// the resolved target speaks.
func (p *Pipeline) HandleOpenAIChat(ctx context.Context, reqCtx entity.RequestContext, body []byte) (*Result, *gwerrors.RelayError) {
	start := p.clock.NowMillis()

	var req openai.Request
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, gwerrors.Wrap(gwerrors.KindInvalidRequest, "malformed JSON body", err)
	}
	if len(req.Messages) == 0 {
		return nil, gwerrors.New(gwerrors.KindInvalidRequest, "messages array must not be empty")
	}

	plan, rerr := p.plan(entity.DialectOpenAIChat, reqCtx, req.Model, openaiPromptText(req), req.Stream)
	if rerr != nil {
		return nil, rerr
	}

	if plan.target.Cascade != nil {
		return p.runCascade(ctx, plan, reqCtx, func(rm service.ResolvedModel) ([]byte, error) {
			return marshalForTarget(req, rm)
		}, start)
	}

	rm := *plan.target.Single
	prov, rerr := p.providerFor(rm.Provider)
	if rerr != nil {
		return nil, rerr
	}
	auth := p.resolveAuth(rm, reqCtx)
	if rerr := p.checkAuth(rm, auth, plan.dialect); rerr != nil {
		return nil, rerr
	}
	if !p.cooldown.IsAvailable(rm.Provider) {
		return nil, gwerrors.New(gwerrors.KindProviderCooled, fmt.Sprintf("provider %q is cooled", rm.Provider))
	}

	outBody, err := marshalForTarget(req, rm)
	if err != nil {
		return nil, gwerrors.Wrap(gwerrors.KindInternal, "marshal request", err)
	}

	resp, rerr := p.dispatcher.Do(ctx, prov, rm.Model, auth, outBody, req.Stream, p.requestTimeout())
	if rerr != nil {
		p.recordTelemetry(plan.task.Task, rm.Model, rm.Provider, 0, 0, p.clock.NowMillis()-start, false)
		return nil, rerr
	}

	if req.Stream {
		return p.streamTranscoded(resp, rm), nil
	}
	defer resp.Close()
	if resp.StatusCode >= 300 {
		p.recordTelemetry(plan.task.Task, rm.Model, rm.Provider, 0, 0, p.clock.NowMillis()-start, false)
		return nil, gwerrors.ProviderError(resp.StatusCode, resp.Body)
	}

	outResp, promptTok, outTok, err := translateResponseForTarget(resp.Body, rm)
	if err != nil {
		return nil, gwerrors.Wrap(gwerrors.KindInternal, "translate response", err)
	}
	p.recordTelemetry(plan.task.Task, rm.Model, rm.Provider, promptTok, outTok, p.clock.NowMillis()-start, true)

	return &Result{StatusCode: resp.StatusCode, Header: resp.Header, Body: outResp}, nil
}

// --- cascade ---

func (p *Pipeline) runCascade(ctx context.Context, plan plannedTarget, reqCtx entity.RequestContext, buildBody func(service.ResolvedModel) ([]byte, error), start int64) (*Result, *gwerrors.RelayError) {
	var lastResult *Result

	dispatchFn := func(modelRef string) (service.DispatchResult, error) {
		rm, ok := p.registry.ResolveExplicit(modelRef)
		if !ok {
			return service.DispatchResult{}, fmt.Errorf("cascade: unresolved model %q", modelRef)
		}
		if rerr := service.RejectNonAnthropicForMessagesDialect(plan.dialect, rm); rerr != nil {
			return service.DispatchResult{Provider: rm.Provider, Model: rm.Model}, rerr
		}
		if rerr := p.evaluatePolicy(plan.dialect, reqCtx, rm); rerr != nil {
			return service.DispatchResult{Provider: rm.Provider, Model: rm.Model}, rerr
		}
		prov, rerr := p.providerFor(rm.Provider)
		if rerr != nil {
			return service.DispatchResult{Provider: rm.Provider, Model: rm.Model}, rerr
		}
		auth := p.resolveAuth(rm, reqCtx)
		if rerr := p.checkAuth(rm, auth, plan.dialect); rerr != nil {
			return service.DispatchResult{Provider: rm.Provider, Model: rm.Model}, rerr
		}

		body, err := buildBody(rm)
		if err != nil {
			return service.DispatchResult{Provider: rm.Provider, Model: rm.Model}, err
		}

		resp, rerr := p.dispatcher.Do(ctx, prov, rm.Model, auth, body, false, p.requestTimeout())
		if rerr != nil {
			return service.DispatchResult{Provider: rm.Provider, Model: rm.Model, Transient: gwerrors.Is(rerr, gwerrors.KindNetworkError)}, rerr
		}
		defer resp.Close()
		if resp.StatusCode >= 500 {
			return service.DispatchResult{Provider: rm.Provider, Model: rm.Model, Transient: true}, gwerrors.ProviderError(resp.StatusCode, resp.Body)
		}
		if resp.StatusCode >= 300 {
			return service.DispatchResult{Provider: rm.Provider, Model: rm.Model}, gwerrors.ProviderError(resp.StatusCode, resp.Body)
		}

		text, result, err := responseTextAndResult(plan.dialect, resp, rm)
		if err != nil {
			return service.DispatchResult{Provider: rm.Provider, Model: rm.Model}, err
		}
		lastResult = result
		return service.DispatchResult{ResponseText: text, Provider: rm.Provider, Model: rm.Model}, nil
	}

	final, escalations, rerr := service.RunCascade(*plan.target.Cascade, p.cooldown, p.registry.ResolveExplicit, dispatchFn)
	for i := 0; i < escalations; i++ {
		p.metrics.IncCascadeEscalation()
	}
	if rerr != nil {
		p.recordTelemetry(plan.task.Task, "", "", 0, 0, p.clock.NowMillis()-start, false)
		return nil, rerr
	}
	if lastResult == nil {
		return nil, gwerrors.New(gwerrors.KindInternal, "cascade returned no result")
	}
	p.recordTelemetry(plan.task.Task, final.Model, final.Provider, 0, 0, p.clock.NowMillis()-start, true)
	return lastResult, nil
}

// responseTextAndResult builds both the cascade trigger-matching text and
// the final Result, for one successful non-streaming dispatch.
func responseTextAndResult(dialect entity.Dialect, resp *llm.DispatchResponse, rm service.ResolvedModel) (string, *Result, error) {
	if dialect == entity.DialectAnthropicMessages {
		var parsed anthropic.Response
		if err := json.Unmarshal(resp.Body, &parsed); err != nil {
			return "", nil, err
		}
		return anthropicResponseText(parsed), &Result{StatusCode: resp.StatusCode, Header: resp.Header, Body: resp.Body}, nil
	}

	outResp, _, _, err := translateResponseForTarget(resp.Body, rm)
	if err != nil {
		return "", nil, err
	}
	var parsedOpenAI openai.Response
	_ = json.Unmarshal(outResp, &parsedOpenAI)
	text := ""
	if len(parsedOpenAI.Choices) > 0 {
		text = parsedOpenAI.Choices[0].Message.Content.PlainText()
	}
	return text, &Result{StatusCode: resp.StatusCode, Header: resp.Header, Body: outResp}, nil
}

// --- streaming ---

func (p *Pipeline) streamPassthrough(resp *llm.DispatchResponse) *Result {
	return &Result{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Stream:     true,
		StreamTo: func(ctx context.Context, w io.Writer, flush func()) error {
			defer resp.Close()
			scanner := bufio.NewScanner(resp.BodyReader)
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			for scanner.Scan() {
				if _, err := w.Write(append(scanner.Bytes(), '\n')); err != nil {
					return err
				}
				flush()
			}
			return scanner.Err()
		},
	}
}

func (p *Pipeline) streamTranscoded(resp *llm.DispatchResponse, rm service.ResolvedModel) *Result {
	return &Result{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Stream:     true,
		StreamTo: func(ctx context.Context, w io.Writer, flush func()) error {
			defer resp.Close()

			emit := func(chunk openai.StreamChunkData) error {
				b, err := json.Marshal(chunk)
				if err != nil {
					return err
				}
				if _, err := w.Write([]byte("data: " + string(b) + "\n\n")); err != nil {
					return err
				}
				flush()
				return nil
			}

			var err error
			switch rm.Provider {
			case "anthropic":
				err = anthropic.TranscodeSSE(ctx, resp.BodyReader, rm.Model, emit)
			case "google":
				err = gemini.TranscodeSSE(ctx, resp.BodyReader, rm.Model, emit)
			default:
				// OpenAI-compatible upstreams are already OpenAI chunk shape:
				// byte-forward unchanged (spec 4.F).
				scanner := bufio.NewScanner(resp.BodyReader)
				scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
				for scanner.Scan() {
					if _, werr := w.Write(append(scanner.Bytes(), '\n')); werr != nil {
						return werr
					}
					flush()
				}
				err = scanner.Err()
				if err == nil {
					return nil
				}
			}
			if err != nil {
				return err
			}
			if _, err := w.Write([]byte("data: [DONE]\n\n")); err != nil {
				return err
			}
			flush()
			return nil
		},
	}
}

// --- request/response translation dispatch by provider ---

func marshalForTarget(req openai.Request, rm service.ResolvedModel) ([]byte, error) {
	switch rm.Provider {
	case "anthropic":
		return json.Marshal(anthropic.FromOpenAIRequest(req, rm.Model))
	case "google":
		return json.Marshal(gemini.FromOpenAIRequest(req))
	default:
		req.Model = rm.Model
		return json.Marshal(req)
	}
}

func translateResponseForTarget(body []byte, rm service.ResolvedModel) ([]byte, int, int, error) {
	switch rm.Provider {
	case "anthropic":
		var resp anthropic.Response
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, 0, 0, err
		}
		out, err := json.Marshal(anthropic.ToOpenAIResponse(&resp))
		return out, resp.Usage.InputTokens, resp.Usage.OutputTokens, err
	case "google":
		var resp gemini.Response
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, 0, 0, err
		}
		out, err := json.Marshal(gemini.ToOpenAIResponse(&resp, rm.Model))
		promptTok, outTok := 0, 0
		if resp.UsageMetadata != nil {
			promptTok, outTok = resp.UsageMetadata.PromptTokenCount, resp.UsageMetadata.CandidatesTokenCount
		}
		return out, promptTok, outTok, err
	default:
		var resp openai.Response
		_ = json.Unmarshal(body, &resp)
		return body, resp.Usage.PromptTokens, resp.Usage.CompletionTokens, nil
	}
}

func marshalAnthropicWithModel(req anthropic.Request, model string) ([]byte, error) {
	req.Model = model
	return json.Marshal(req)
}

// --- prompt text extraction for task inference / complexity ---

func openaiPromptText(req openai.Request) string {
	var sb strings.Builder
	for _, m := range req.Messages {
		sb.WriteString(m.Content.PlainText())
		sb.WriteString("\n")
	}
	return sb.String()
}

func anthropicPromptText(req anthropic.Request) string {
	var sb strings.Builder
	sb.WriteString(req.System)
	sb.WriteString("\n")
	for _, m := range req.Messages {
		for _, block := range m.Content {
			if block.Type == "text" {
				sb.WriteString(block.Text)
				sb.WriteString("\n")
			}
		}
	}
	return sb.String()
}

func anthropicResponseText(resp anthropic.Response) string {
	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}
