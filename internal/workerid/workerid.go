// Package workerid derives the attribution label recorded on every issuance.
package workerid

import (
	"os"
	"regexp"
	"sync"
)

// suffixLen is how many trailing host name characters survive in a label.
const suffixLen = 8

// orchestratedHost matches host names assigned by an orchestrator, such as a
// numbered worker ("worker-3") or a pod name ending in a hyphenated suffix
// ("issuance-deployment-7d9f8-abc45").
var orchestratedHost = regexp.MustCompile(`worker-\d+|\w+-\w+$`)

// FromHostname builds the worker label for host. Orchestrated host names are
// cut to their last eight characters (runes, not bytes); anything else is
// used whole.
func FromHostname(host string) string {
	if orchestratedHost.MatchString(host) {
		if r := []rune(host); len(r) > suffixLen {
			host = string(r[len(r)-suffixLen:])
		}
	}
	return "worker-" + host
}

var current = sync.OnceValue(func() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "worker-unknown"
	}
	return FromHostname(host)
})

// Current returns the label for this process. It is computed once and reused
// for the lifetime of the process. Labels are informational and may collide
// across hosts.
func Current() string {
	return current()
}
