package service

import (
	"github.com/relayplane/gateway/internal/domain/entity"
	gwerrors "github.com/relayplane/gateway/pkg/errors"
)

// PolicyDecision is the external policy collaborator's verdict on a
// request, consumed through a narrow interface (spec §1: "the core
// consumes only... a clock" — policy is likewise an external collaborator,
// here reduced to a pass/deny check so the pipeline has somewhere to call
// into without depending on a concrete policy engine).
type PolicyDecision interface {
	// Evaluate inspects the request and resolved target, returning a
	// non-nil error (kind policy_denied, approval_required, or
	// auth_denied) to reject the request, or nil to allow it.
	Evaluate(req entity.Request, target ResolvedModel) *gwerrors.RelayError
}

// AllowAllPolicy is the default PolicyDecision: every request is allowed.
// The learning/policy/explanation engines named in spec §1's Non-goals
// plug in here without the pipeline changing shape.
type AllowAllPolicy struct{}

// Evaluate always allows the request.
func (AllowAllPolicy) Evaluate(entity.Request, ResolvedModel) *gwerrors.RelayError {
	return nil
}
