package service

import (
	"strings"

	"github.com/relayplane/gateway/internal/domain/entity"
	"github.com/relayplane/gateway/internal/domain/valueobject"
	gwerrors "github.com/relayplane/gateway/pkg/errors"
)

// RoutingConfig is the normalized subset of gateway config consulted by
// the routing policy (spec 4.E). It is owned by infrastructure/config and
// passed in by reference; the policy never mutates it.
type RoutingConfig struct {
	// Mode is "cascade" (build a cascade plan) or any other value, such as
	// the config default "tiered" (complexity/learned-rule selection), for
	// routing-mode "auto" requests.
	Mode string

	// ComplexityModels maps "simple"|"moderate"|"complex" to a concrete
	// model name (alias or explicit).
	ComplexityModels map[string]string

	// CascadeEnabled gates whether "auto" mode may build a cascade plan.
	CascadeEnabled bool
	CascadeModels  []string
	MaxEscalations int

	// LearnedRules is an externally supplied task -> preferred model map
	// (spec's external learning-engine collaborator); nil when absent.
	LearnedRules map[valueobject.TaskType]string

	QualityModelEnvOverride string // value of RELAYPLANE_QUALITY_MODEL, if set
}

const (
	defaultHaikuModel  = "claude-3-5-haiku-20241022"
	defaultSonnetModel = "claude-sonnet-4-20250514"
)

// RoutingTarget is the outcome of target selection: either a single
// resolved model or a cascade plan (never both).
type RoutingTarget struct {
	Single  *ResolvedModel
	Cascade *entity.CascadePlan
}

// SelectMode implements spec 4.E's ordered mode-selection rules.
func SelectMode(reg *Registry, requestedModel string, bypass bool) valueobject.RoutingMode {
	if bypass {
		return valueobject.RoutingPassthrough
	}

	if _, suffix, ok := reg.ParseSuffix(requestedModel); ok {
		switch suffix {
		case "cost":
			return valueobject.RoutingCost
		case "fast":
			return valueobject.RoutingFast
		case "quality":
			return valueobject.RoutingQuality
		}
	}

	switch requestedModel {
	case "relayplane:cost":
		return valueobject.RoutingCost
	case "relayplane:fast":
		return valueobject.RoutingFast
	case "relayplane:quality":
		return valueobject.RoutingQuality
	case "relayplane:auto":
		return valueobject.RoutingAuto
	}

	if strings.HasPrefix(requestedModel, "rp:") {
		switch requestedModel {
		case "rp:cost", "rp:cheap":
			return valueobject.RoutingCost
		case "rp:fast":
			return valueobject.RoutingFast
		case "rp:quality", "rp:best":
			return valueobject.RoutingQuality
		default:
			return valueobject.RoutingPassthrough
		}
	}

	switch requestedModel {
	case "auto":
		return valueobject.RoutingAuto
	case "cost":
		return valueobject.RoutingCost
	case "fast":
		return valueobject.RoutingFast
	case "quality":
		return valueobject.RoutingQuality
	}

	return valueobject.RoutingPassthrough
}

// SelectTarget implements spec 4.E's target-selection rules given an
// already-determined mode. streaming disables cascade regardless of mode
// or config (spec 4.E, "streaming requests never run cascade").
func SelectTarget(
	reg *Registry,
	cfg RoutingConfig,
	mode valueobject.RoutingMode,
	requestedModel string,
	task valueobject.TaskType,
	complexity valueobject.Complexity,
	streaming bool,
) (RoutingTarget, *gwerrors.RelayError) {
	switch mode {
	case valueobject.RoutingPassthrough:
		base, _, _ := reg.ParseSuffix(requestedModel)
		rm, ok := reg.ResolveExplicit(base)
		if !ok {
			return RoutingTarget{}, reg.UnknownModelError(requestedModel)
		}
		return RoutingTarget{Single: &rm}, nil

	case valueobject.RoutingCost, valueobject.RoutingFast, valueobject.RoutingQuality:
		return selectTieredTarget(reg, cfg, mode), nil

	case valueobject.RoutingAuto:
		if cfg.Mode == "cascade" && cfg.CascadeEnabled && !streaming {
			plan := buildCascadePlan(cfg)
			if plan.Valid() {
				return RoutingTarget{Cascade: &plan}, nil
			}
		}
		// Streaming or cascade unavailable: degrade to complexity-tier
		// selection (spec 4.E, silent downgrade — Open Question resolved
		// in favor of the source's behavior).
		if streaming {
			complexity = valueobject.ComplexitySimple
		}
		return selectAutoTarget(reg, cfg, task, complexity), nil

	default:
		return RoutingTarget{}, gwerrors.New(gwerrors.KindInternal, "unrecognized routing mode")
	}
}

// selectTieredTarget resolves cost/fast/quality modes to a concrete model,
// with the fallback chain specified in 4.E.
func selectTieredTarget(reg *Registry, cfg RoutingConfig, mode valueobject.RoutingMode) RoutingTarget {
	tier := "simple"
	switch mode {
	case valueobject.RoutingFast:
		tier = "simple"
	case valueobject.RoutingCost:
		tier = "simple"
	case valueobject.RoutingQuality:
		tier = "complex"
	}

	if name, ok := cfg.ComplexityModels[tier]; ok && name != "" {
		if rm, ok := reg.ResolveExplicit(name); ok {
			return RoutingTarget{Single: &rm}
		}
	}

	if mode == valueobject.RoutingQuality {
		if len(cfg.CascadeModels) > 0 {
			last := cfg.CascadeModels[len(cfg.CascadeModels)-1]
			if rm, ok := reg.ResolveExplicit(last); ok {
				return RoutingTarget{Single: &rm}
			}
		}
		if cfg.QualityModelEnvOverride != "" {
			if rm, ok := reg.ResolveExplicit(cfg.QualityModelEnvOverride); ok {
				return RoutingTarget{Single: &rm}
			}
		}
		return RoutingTarget{Single: &ResolvedModel{Provider: "anthropic", Model: defaultSonnetModel}}
	}

	if len(cfg.CascadeModels) > 0 {
		if rm, ok := reg.ResolveExplicit(cfg.CascadeModels[0]); ok {
			return RoutingTarget{Single: &rm}
		}
	}
	return RoutingTarget{Single: &ResolvedModel{Provider: "anthropic", Model: defaultHaikuModel}}
}

// selectAutoTarget resolves "auto" mode outside the cascade path: learned
// rules first, then complexity-tiered config, then a per-task default.
func selectAutoTarget(reg *Registry, cfg RoutingConfig, task valueobject.TaskType, complexity valueobject.Complexity) RoutingTarget {
	if cfg.LearnedRules != nil {
		if name, ok := cfg.LearnedRules[task]; ok && name != "" {
			if rm, ok := reg.ResolveExplicit(name); ok {
				return RoutingTarget{Single: &rm}
			}
		}
	}

	if name, ok := cfg.ComplexityModels[string(complexity)]; ok && name != "" {
		if rm, ok := reg.ResolveExplicit(name); ok {
			return RoutingTarget{Single: &rm}
		}
	}

	if isLightTask(task) {
		return RoutingTarget{Single: &ResolvedModel{Provider: "anthropic", Model: defaultHaikuModel}}
	}
	return RoutingTarget{Single: &ResolvedModel{Provider: "anthropic", Model: defaultSonnetModel}}
}

func isLightTask(task valueobject.TaskType) bool {
	switch task {
	case valueobject.TaskSummarization, valueobject.TaskDataExtraction, valueobject.TaskTranslation, valueobject.TaskQuestionAnswer:
		return true
	default:
		return false
	}
}

func buildCascadePlan(cfg RoutingConfig) entity.CascadePlan {
	return entity.CascadePlan{
		Models:         cfg.CascadeModels,
		Trigger:        entity.TriggerUncertainty,
		MaxEscalations: cfg.MaxEscalations,
	}
}

// RejectNonAnthropicForMessagesDialect enforces the 4.E dialect constraint:
// the native /v1/messages path may only ever target an Anthropic provider.
func RejectNonAnthropicForMessagesDialect(dialect entity.Dialect, rm ResolvedModel) *gwerrors.RelayError {
	if dialect == entity.DialectAnthropicMessages && rm.Provider != "anthropic" {
		return gwerrors.Newf(gwerrors.KindInvalidRequest, "the /v1/messages endpoint only supports anthropic targets, got %s", rm.Provider)
	}
	return nil
}
