// Package featureflags switches parts of the site on and off from the
// FEATURE_FLAGS setting.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// Site sections that can be switched off.
const (
	Vacancies   = "vacancies"
	ContactForm = "contact_form"
)

// Sections lists the switchable sections reported by Snapshot even when
// FEATURE_FLAGS does not mention them.
var Sections = []string{Vacancies, ContactForm}

// rule is a parsed flag value. percent is 0..100; on/off map to 100 and 0.
type rule struct {
	raw     string
	percent int
	rollout bool
}

// Manager evaluates flags from a comma-separated key=value list such as
// "vacancies=on,contact_form=off,vacancies_beta=25%". Values that are
// neither a boolean nor a percentage are dropped.
type Manager struct {
	rules map[string]rule
}

// NewManager parses raw.
func NewManager(raw string) *Manager {
	rules := make(map[string]rule)
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" {
			continue
		}
		if r, ok := parseRule(value); ok {
			rules[key] = r
		}
	}
	return &Manager{rules: rules}
}

func parseRule(value string) (rule, bool) {
	switch value {
	case "on", "true", "1":
		return rule{raw: value, percent: 100}, true
	case "off", "false", "0":
		return rule{raw: value}, true
	}
	pct, found := strings.CutSuffix(value, "%")
	if !found {
		return rule{}, false
	}
	n, err := strconv.Atoi(pct)
	if err != nil {
		return rule{}, false
	}
	return rule{raw: value, percent: min(max(n, 0), 100), rollout: true}, true
}

// Enabled reports whether a configured flag is on for userID. Unknown flags
// are off. A partial rollout picks users deterministically and never
// includes anonymous visitors (userID 0).
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	r, ok := m.rules[normalize(name)]
	if !ok {
		return false
	}
	return r.enabled(name, userID)
}

func (r rule) enabled(name string, userID uint) bool {
	switch {
	case r.percent >= 100:
		return true
	case r.percent <= 0:
		return false
	case !r.rollout || userID == 0:
		return false
	}
	return rolloutBucket(name, userID) < r.percent
}

// Active reports whether a site section is on for userID. Sections are on
// unless a flag for them is configured and evaluates false, so an empty
// FEATURE_FLAGS leaves the whole site enabled.
func (m *Manager) Active(name string, userID uint) bool {
	if m == nil {
		return true
	}
	r, ok := m.rules[normalize(name)]
	if !ok {
		return true
	}
	return r.enabled(name, userID)
}

// Raw returns the configured values as written.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string)
	if m == nil {
		return out
	}
	for k, r := range m.rules {
		out[k] = r.raw
	}
	return out
}

// Snapshot evaluates every configured flag and every known section for
// userID.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(Sections))
	for _, name := range Sections {
		out[name] = m.Active(name, userID)
	}
	if m == nil {
		return out
	}
	for name := range m.rules {
		if _, known := out[name]; !known {
			out[name] = m.Enabled(name, userID)
		}
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%s:%d", normalize(name), userID)
	return int(h.Sum32() % 100)
}
