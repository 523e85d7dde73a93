package httpmatch

import "strings"

// MatchHost reports whether host equals one of hosts, or ends with the
// dotted suffix of a "*.suffix" entry. Comparison is case-sensitive. An
// empty host never matches.
func MatchHost(hosts []string, host string) bool {
	if host == "" {
		return false
	}
	for _, h := range hosts {
		if strings.HasPrefix(h, "*.") {
			if strings.HasSuffix(host, h[1:]) {
				return true
			}
			continue
		}
		if h == host {
			return true
		}
	}
	return false
}
