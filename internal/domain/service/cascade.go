package service

import (
	"regexp"

	"github.com/relayplane/gateway/internal/domain/entity"
	gwerrors "github.com/relayplane/gateway/pkg/errors"
)

// CooldownChecker is the narrow view of the cooldown manager (component H)
// the cascade controller needs: whether a provider is currently cooled.
// Implemented by infrastructure/llm.CooldownManager.
type CooldownChecker interface {
	IsAvailable(provider string) bool
}

// DispatchResult is one cascade attempt's outcome.
type DispatchResult struct {
	ResponseText string
	Provider     string
	Model        string
	Transient    bool // true when the failure class permits an "error"-triggered escalation
	Err          error
}

// DispatchFunc invokes a single model in a cascade plan.
type DispatchFunc func(modelRef string) (DispatchResult, error)

var (
	uncertaintyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)i'?m not (\w+\s+){0,2}sure`),
		regexp.MustCompile(`(?i)i don'?t know`),
		regexp.MustCompile(`(?i)it'?s hard to say`),
		regexp.MustCompile(`(?i)i can'?t definitively`),
		regexp.MustCompile(`(?i)i'?m uncertain`),
		regexp.MustCompile(`(?i)this is speculation`),
	}
	refusalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)i can'?t help with that`),
		regexp.MustCompile(`(?i)i'?m not able to`),
		regexp.MustCompile(`(?i)i (cannot|won'?t) (provide|give|create)`),
		regexp.MustCompile(`(?i)as an ai`),
	}
)

// matchesTrigger reports whether text exhibits the pattern associated with
// trigger. Triggers other than uncertainty/refusal never match text (the
// "error" trigger is driven entirely by dispatch failures).
func matchesTrigger(trigger entity.CascadeTrigger, text string) bool {
	var patterns []*regexp.Regexp
	switch trigger {
	case entity.TriggerUncertainty:
		patterns = uncertaintyPatterns
	case entity.TriggerRefusal:
		patterns = refusalPatterns
	default:
		return false
	}
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// RunCascade implements the 4.I algorithm: iterate the plan's models in
// order, skipping cooled providers, escalating on the configured trigger
// until the response no longer matches it, the model list is exhausted, or
// the escalation budget runs out. A failed dispatch that does not qualify
// for an "error"-triggered escalation ends the cascade. Makes at most
// min(len(plan), max_escalations+1) dispatch calls (invariant 9).
func RunCascade(plan entity.CascadePlan, cooldown CooldownChecker, resolve func(modelRef string) (ResolvedModel, bool), dispatch DispatchFunc) (DispatchResult, int, *gwerrors.RelayError) {
	if !plan.Valid() {
		return DispatchResult{}, 0, gwerrors.New(gwerrors.KindInternal, "invalid cascade plan")
	}

	escalations := 0
	var lastErr error

	for i, modelRef := range plan.Models {
		isLast := i == len(plan.Models)-1

		if rm, ok := resolve(modelRef); ok && cooldown != nil && !cooldown.IsAvailable(rm.Provider) {
			if isLast {
				break
			}
			continue
		}

		result, err := dispatch(modelRef)
		if err != nil {
			lastErr = err
			if plan.Trigger == entity.TriggerError && result.Transient && !isLast && escalations < plan.MaxEscalations {
				escalations++
				continue
			}
			break
		}

		if matchesTrigger(plan.Trigger, result.ResponseText) && !isLast && escalations < plan.MaxEscalations {
			escalations++
			continue
		}

		return result, escalations, nil
	}

	if lastErr != nil {
		return DispatchResult{}, escalations, gwerrors.Wrap(gwerrors.KindCascadeExhausted, "all cascade models exhausted", lastErr)
	}
	return DispatchResult{}, escalations, gwerrors.New(gwerrors.KindCascadeExhausted, "all cascade models exhausted")
}
