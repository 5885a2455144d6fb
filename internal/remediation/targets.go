package remediation

import "github.com/linnemanlabs/warden/internal/incident"

// allowedTargets lists the resources each targeted action may act on.
var allowedTargets = map[incident.Action][]string{
	incident.ActionRestartService: {"api", "auth-service"},
	incident.ActionScaleUp:        {"database", "api", "cache"},
	incident.ActionClearCache:     {"cache"},
}

// ValidTarget reports whether action may run against target. notify_human
// accepts any target including none.
func ValidTarget(action incident.Action, target *string) bool {
	switch action {
	case incident.ActionNotifyHuman, incident.ActionNone:
		return true
	case incident.ActionRestartService, incident.ActionScaleUp, incident.ActionClearCache:
		if target == nil {
			return false
		}
		for _, t := range allowedTargets[action] {
			if t == *target {
				return true
			}
		}
		return false
	}
	return false
}

// AllowedTargets returns a copy of the resources action may act on.
func AllowedTargets(action incident.Action) []string {
	return append([]string(nil), allowedTargets[action]...)
}
