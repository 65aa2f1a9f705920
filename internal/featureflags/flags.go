// Package featureflags switches optional UI affordances on per user.
//
// Flags are configured as a comma-separated list, for example
// "comment_likes=on,profile_images=25%". A percentage enables the flag
// for a stable subset of user ids.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// Known flags.
const (
	CommentLikes  = "comment_likes"
	ProfileImages = "profile_images"
)

type rule struct {
	raw     string
	percent int // 0..100
}

// Set is a parsed flag configuration. The zero value and nil have every flag off.
type Set struct {
	rules map[string]rule
}

// Parse reads a flag list. Malformed entries are skipped.
func Parse(raw string) *Set {
	s := &Set{rules: make(map[string]rule)}
	for _, pair := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name, value = normalize(name), normalize(value)
		if name == "" || value == "" {
			continue
		}
		pct, ok := percentOf(value)
		if !ok {
			continue
		}
		s.rules[name] = rule{raw: value, percent: pct}
	}
	return s
}

func percentOf(value string) (int, bool) {
	switch value {
	case "on", "true", "1":
		return 100, true
	case "off", "false", "0":
		return 0, true
	}
	if !strings.HasSuffix(value, "%") {
		return 0, false
	}
	pct, err := strconv.Atoi(strings.TrimSuffix(value, "%"))
	if err != nil {
		return 0, false
	}
	return min(max(pct, 0), 100), true
}

// Enabled reports whether name is on for userID. Partial rollouts are
// off for anonymous viewers.
func (s *Set) Enabled(name string, userID uint) bool {
	if s == nil {
		return false
	}
	r, ok := s.rules[normalize(name)]
	if !ok {
		return false
	}
	switch {
	case r.percent >= 100:
		return true
	case r.percent <= 0, userID == 0:
		return false
	}
	return bucket(name, userID) < r.percent
}

// For evaluates every configured flag for userID.
func (s *Set) For(userID uint) map[string]bool {
	if s == nil {
		return map[string]bool{}
	}
	out := make(map[string]bool, len(s.rules))
	for name := range s.rules {
		out[name] = s.Enabled(name, userID)
	}
	return out
}

// Names returns the configured flag names in order.
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.rules))
	for name := range s.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// String renders the configuration back in its input form.
func (s *Set) String() string {
	parts := make([]string, 0, len(s.Names()))
	for _, name := range s.Names() {
		parts = append(parts, name+"="+s.rules[name].raw)
	}
	return strings.Join(parts, ",")
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func bucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%s:%d", normalize(name), userID)
	return int(h.Sum32() % 100)
}
