// Package ratelimit throttles requests per client address and endpoint class.
package ratelimit

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Class groups endpoints sharing one ceiling.
type Class string

const (
	ClassRegister Class = "register"
	ClassLogin    Class = "login"
	ClassGeneral  Class = "general"
)

// Policy caps requests per client within a fixed window.
type Policy struct {
	Limit  int
	Window time.Duration
}

var units = map[string]time.Duration{
	"second": time.Second,
	"minute": time.Minute,
	"hour":   time.Hour,
	"day":    24 * time.Hour,
}

// DefaultPolicies returns the stock ceilings: register 5/minute, login
// 10/minute, everything else behind authentication 100/hour.
func DefaultPolicies() map[Class]Policy {
	return map[Class]Policy{
		ClassRegister: {Limit: 5, Window: time.Minute},
		ClassLogin:    {Limit: 10, Window: time.Minute},
		ClassGeneral:  {Limit: 100, Window: time.Hour},
	}
}

// ParsePolicy reads "<count>/<unit>" such as "5/minute" or "100/hour".
// Plural units are accepted.
func ParsePolicy(s string) (Policy, error) {
	countRaw, unitRaw, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return Policy{}, fmt.Errorf("ratelimit: policy %q: want <count>/<unit>", s)
	}
	count, err := strconv.Atoi(strings.TrimSpace(countRaw))
	if err != nil || count <= 0 {
		return Policy{}, fmt.Errorf("ratelimit: policy %q: count must be a positive integer", s)
	}
	unit := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(unitRaw)), "s")
	window, ok := units[unit]
	if !ok {
		return Policy{}, fmt.Errorf("ratelimit: policy %q: unknown unit %q", s, unitRaw)
	}
	return Policy{Limit: count, Window: window}, nil
}

func (p Policy) String() string {
	for name, d := range units {
		if d == p.Window {
			return fmt.Sprintf("%d/%s", p.Limit, name)
		}
	}
	return fmt.Sprintf("%d/%s", p.Limit, p.Window)
}
