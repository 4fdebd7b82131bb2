package mrc

import "strings"

var (
	warmupKeywords   = []string{"warm", "echauff", "échauff"}
	recoveryKeywords = []string{"recup", "récup", "recovery", "repos", "rest"}
	cooldownKeywords = []string{"cool", "retour au calme"}
)

// roleRule is one entry of the block classification chain.
type roleRule struct {
	name  string
	match func(label string, intensity float64) bool
	role  func(intensity float64) BlockRole
}

func fixed(r BlockRole) func(float64) BlockRole {
	return func(float64) BlockRole { return r }
}

// roleRules is evaluated in order and the first match wins. The thresholds
// and the order are part of the format's contract.
var roleRules = []roleRule{
	{
		name:  "warmup label",
		match: func(label string, _ float64) bool { return containsAny(label, warmupKeywords) },
		role:  fixed(RoleWarmup),
	},
	{
		name:  "recovery label",
		match: func(label string, _ float64) bool { return containsAny(label, recoveryKeywords) },
		role: func(intensity float64) BlockRole {
			if intensity <= 55 {
				return RoleCooldown
			}
			return RoleRecovery
		},
	},
	{
		name:  "cooldown label",
		match: func(label string, _ float64) bool { return containsAny(label, cooldownKeywords) },
		role:  fixed(RoleCooldown),
	},
	{
		name:  "supra-threshold",
		match: func(_ string, intensity float64) bool { return intensity >= 100 },
		role:  fixed(RoleEffort),
	},
	{
		name:  "threshold",
		match: func(_ string, intensity float64) bool { return intensity >= 85 },
		role:  fixed(RoleInterval),
	},
	{
		name:  "easy",
		match: func(_ string, intensity float64) bool { return intensity <= 65 },
		role:  fixed(RoleRecovery),
	},
}

// ClassifyBlock assigns a role from the segment label and target intensity.
func ClassifyBlock(label string, intensity float64) BlockRole {
	lower := strings.ToLower(label)
	for _, r := range roleRules {
		if r.match(lower, intensity) {
			return r.role(intensity)
		}
	}
	return RoleInterval
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
