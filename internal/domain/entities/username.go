package entities

import "regexp"

// reUpstreamUsername matches names the upstream profile API can look up.
var reUpstreamUsername = regexp.MustCompile(`^[\w!@$\-.?]{1,16}$`)

// ValidUsername reports whether name can be sent to the upstream profile API.
// Some registered names such as "8" or "Din-ex" pass even though they are no
// longer allowed for new accounts; names with spaces do not.
func ValidUsername(name string) bool {
	if !reUpstreamUsername.MatchString(name) {
		return false
	}
	// "." and ".." resolve as path segments upstream.
	return name != "." && name != ".."
}
