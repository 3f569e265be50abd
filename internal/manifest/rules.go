package manifest

// Rule allows or disallows a library, optionally only on one platform.
type Rule struct {
	Action string    `json:"action"`
	OS     *OSFilter `json:"os,omitempty"`
}

// OSFilter restricts a rule to a platform name (linux, osx, windows).
type OSFilter struct {
	Name string `json:"name,omitempty"`
}

func (r Rule) matches(platform string) bool {
	return r.OS == nil || r.OS.Name == "" || r.OS.Name == platform
}

// Allowed evaluates rules in order for platform. The last matching rule
// decides; with no matching rule the library is allowed.
func Allowed(rules []Rule, platform string) bool {
	allowed := true
	for _, r := range rules {
		if r.matches(platform) {
			allowed = r.Action == "allow"
		}
	}
	return allowed
}
