package plugin

import "fmt"

var errNotAPlugin = fmt.Errorf("exported Plugin symbol does not implement plugin.Plugin")

func errMissingPrefix(ruleID string) error {
	return fmt.Errorf("plugin rule id %q must begin with %q", ruleID, RulePrefix)
}

func errCollision(ruleID string) error {
	return fmt.Errorf("plugin rule id %q collides with an already-loaded rule", ruleID)
}
