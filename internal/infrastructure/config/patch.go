package config

// Patch applies a field-wise overlay to the config, with a nested merge
// for routing.* and reliability.* only — never a generic deep merge (spec
// §9 "Replacing dynamic configuration objects"). Zero-value fields in the
// patch leave the corresponding field untouched.
type Patch struct {
	Gateway     *GatewayPatch
	Routing     *RoutingPatch
	Reliability *ReliabilityPatch
}

// GatewayPatch overlays GatewayConfig; nil pointer fields are left as-is.
type GatewayPatch struct {
	Enabled *bool
}

// RoutingPatch overlays RoutingConfig.
type RoutingPatch struct {
	Mode           *string
	CascadeEnabled *bool
	MaxEscalations *int
}

// ReliabilityPatch overlays ReliabilityConfig.
type ReliabilityPatch struct {
	CooldownAllowedFails       *int
	CooldownSeconds            *int64
	MiddlewareEnabled          *bool
	MiddlewareFailureThreshold *int
}

// Apply returns a new Config with p's non-nil fields overlaid onto cfg.
// cfg itself is not mutated, so in-flight requests holding the prior
// snapshot are unaffected (spec §5 "atomic swap under a lock").
func (cfg Config) Apply(p Patch) Config {
	out := cfg

	if p.Gateway != nil {
		if p.Gateway.Enabled != nil {
			out.Gateway.Enabled = *p.Gateway.Enabled
		}
	}
	if p.Routing != nil {
		if p.Routing.Mode != nil {
			out.Routing.Mode = *p.Routing.Mode
		}
		if p.Routing.CascadeEnabled != nil {
			out.Routing.CascadeEnabled = *p.Routing.CascadeEnabled
		}
		if p.Routing.MaxEscalations != nil {
			out.Routing.MaxEscalations = *p.Routing.MaxEscalations
		}
	}
	if p.Reliability != nil {
		if p.Reliability.CooldownAllowedFails != nil {
			out.Reliability.CooldownAllowedFails = *p.Reliability.CooldownAllowedFails
		}
		if p.Reliability.CooldownSeconds != nil {
			out.Reliability.CooldownSeconds = *p.Reliability.CooldownSeconds
		}
		if p.Reliability.MiddlewareEnabled != nil {
			out.Reliability.MiddlewareEnabled = *p.Reliability.MiddlewareEnabled
		}
		if p.Reliability.MiddlewareFailureThreshold != nil {
			out.Reliability.MiddlewareFailureThreshold = *p.Reliability.MiddlewareFailureThreshold
		}
	}
	return out
}
