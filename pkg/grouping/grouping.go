// Package grouping derives exception-handler grouping suggestions from the
// set of raise sites an analysis collected. Three signals are applied:
// shared source package, shared semantic category, and shared recovery
// strategy. The heuristics are substring-based and intentionally coarse;
// they suggest, the reader decides.
package grouping

import (
	"fmt"
	"sort"
	"strings"

	"github.com/arborlabs/arbor/pkg/models"
)

// Suggestion is one proposed except clause: a named group of exception
// types with a rationale and a ready-to-paste handler sketch.
type Suggestion struct {
	GroupName      string   `json:"group_name"`
	Exceptions     []string `json:"exceptions"`
	Rationale      string   `json:"rationale"`
	HandlerExample string   `json:"handler_example"`
}

// RecoveryStrategy classifies how a caller would plausibly react to an
// exception type.
type RecoveryStrategy int

const (
	StrategyAbort RecoveryStrategy = iota
	StrategyRetry
	StrategyFixInput
	StrategyReAuthenticate
	StrategyIgnore
)

func (s RecoveryStrategy) String() string {
	switch s {
	case StrategyRetry:
		return "retry"
	case StrategyFixInput:
		return "fix input"
	case StrategyReAuthenticate:
		return "re-authenticate"
	case StrategyIgnore:
		return "ignore"
	default:
		return "abort"
	}
}

// StrategyFor classifies an exception type name by substring matching on
// its lowercased form. Order matters: transient-failure markers win over
// input-validation markers so a ConnectionValueError retries.
func StrategyFor(excType string) RecoveryStrategy {
	lower := strings.ToLower(excType)

	for _, marker := range []string{"timeout", "connection", "network", "temporary", "retry", "throttl", "ratelimit"} {
		if strings.Contains(lower, marker) {
			return StrategyRetry
		}
	}
	for _, marker := range []string{"auth", "permission", "forbidden", "unauthorized", "credential", "token"} {
		if strings.Contains(lower, marker) {
			return StrategyReAuthenticate
		}
	}
	for _, marker := range []string{"validation", "invalid", "value", "type", "argument", "format", "parse"} {
		if strings.Contains(lower, marker) {
			return StrategyFixInput
		}
	}
	for _, marker := range []string{"notfound", "missing", "doesnotexist"} {
		if strings.Contains(lower, marker) {
			return StrategyIgnore
		}
	}
	return StrategyAbort
}

// semanticCategories map lowercase name fragments to a display category.
// Checked in order; the first match wins.
var semanticCategories = []struct {
	pattern  string
	category string
}{
	{"timeout", "Timeout"},
	{"connection", "Connection"},
	{"network", "Network"},
	{"auth", "Authentication"},
	{"permission", "Permission"},
	{"validation", "Validation"},
	{"notfound", "NotFound"},
	{"io", "IO"},
	{"file", "File"},
	{"encoding", "Encoding"},
	{"json", "JSON"},
	{"http", "HTTP"},
	{"ssl", "SSL"},
	{"dns", "DNS"},
	{"socket", "Socket"},
}

func semanticCategory(excType string) string {
	lower := strings.ToLower(excType)
	for _, entry := range semanticCategories {
		if strings.Contains(lower, entry.pattern) {
			return entry.category
		}
	}
	return ""
}

// sourcePackage returns the leading segment of a qualified type, or empty
// for an unqualified builtin.
func sourcePackage(qualifiedType string) string {
	parts := strings.Split(qualifiedType, ".")
	if len(parts) >= 2 {
		return parts[0]
	}
	return ""
}

type exceptionInfo struct {
	excType  string
	pkg      string
	category string
	strategy RecoveryStrategy
}

// SuggestGroups proposes handler groupings for a set of raise sites. Groups
// need at least two members; a group whose members are a strict subset of
// another group's is dropped. Output order is deterministic: package groups,
// then semantic, then recovery, each sorted by group key.
func SuggestGroups(raises []models.RaiseStatement) []Suggestion {
	if len(raises) == 0 {
		return nil
	}

	infos := make([]exceptionInfo, 0, len(raises))
	for _, r := range raises {
		infos = append(infos, exceptionInfo{
			excType:  r.ExceptionType,
			pkg:      sourcePackage(r.QualifiedType),
			category: semanticCategory(r.ExceptionType),
			strategy: StrategyFor(r.ExceptionType),
		})
	}

	var suggestions []Suggestion

	for _, group := range groupBy(infos, func(info exceptionInfo) string { return info.pkg }) {
		suggestions = append(suggestions, Suggestion{
			GroupName:      fmt.Sprintf("%s exceptions", group.key),
			Exceptions:     group.types,
			Rationale:      fmt.Sprintf("All exceptions from the %s package", group.key),
			HandlerExample: handlerExample(group.types, group.key),
		})
	}

	for _, group := range groupBy(infos, func(info exceptionInfo) string { return info.category }) {
		suggestions = append(suggestions, Suggestion{
			GroupName:      fmt.Sprintf("%s errors", group.key),
			Exceptions:     group.types,
			Rationale:      fmt.Sprintf("Semantically related %s exceptions", strings.ToLower(group.key)),
			HandlerExample: handlerExample(group.types, group.key),
		})
	}

	for _, group := range groupBy(infos, func(info exceptionInfo) string { return info.strategy.String() }) {
		strategy := StrategyFor(group.types[0])
		suggestions = append(suggestions, Suggestion{
			GroupName:      fmt.Sprintf("%s exceptions", capitalize(group.key)),
			Exceptions:     group.types,
			Rationale:      fmt.Sprintf("Exceptions that can be handled with %s strategy", group.key),
			HandlerExample: recoveryHandler(group.types, strategy),
		})
	}

	return dedupeSuggestions(suggestions)
}

type typeGroup struct {
	key   string
	types []string
}

// groupBy buckets exception types by a key function, dropping empty keys
// and singleton groups, and returns groups sorted by key with sorted,
// de-duplicated members.
func groupBy(infos []exceptionInfo, key func(exceptionInfo) string) []typeGroup {
	buckets := make(map[string][]string)
	for _, info := range infos {
		k := key(info)
		if k == "" {
			continue
		}
		buckets[k] = append(buckets[k], info.excType)
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var groups []typeGroup
	for _, k := range keys {
		types := sortUnique(buckets[k])
		if len(types) < 2 {
			continue
		}
		groups = append(groups, typeGroup{key: k, types: types})
	}
	return groups
}

func sortUnique(types []string) []string {
	sort.Strings(types)
	out := types[:0]
	for i, t := range types {
		if i == 0 || t != types[i-1] {
			out = append(out, t)
		}
	}
	return out
}

// dedupeSuggestions removes any suggestion whose exception set is a strict
// subset of another suggestion's.
func dedupeSuggestions(suggestions []Suggestion) []Suggestion {
	sets := make([]map[string]struct{}, len(suggestions))
	for i, s := range suggestions {
		set := make(map[string]struct{}, len(s.Exceptions))
		for _, t := range s.Exceptions {
			set[t] = struct{}{}
		}
		sets[i] = set
	}

	var kept []Suggestion
	for i := range suggestions {
		subsumed := false
		for j := range suggestions {
			if i == j || len(sets[i]) >= len(sets[j]) {
				continue
			}
			if isSubset(sets[i], sets[j]) {
				subsumed = true
				break
			}
		}
		if !subsumed {
			kept = append(kept, suggestions[i])
		}
	}
	return kept
}

func isSubset(a, b map[string]struct{}) bool {
	for t := range a {
		if _, ok := b[t]; !ok {
			return false
		}
	}
	return true
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func handlerExample(excTypes []string, groupName string) string {
	types := strings.Join(excTypes, ", ")
	return fmt.Sprintf(`try:
    result = call_function()
except (%s) as e:
    # Handle %s errors
    logger.error(f"%s error: {e}")
    raise`, types, strings.ToLower(groupName), groupName)
}

func recoveryHandler(excTypes []string, strategy RecoveryStrategy) string {
	types := strings.Join(excTypes, ", ")

	switch strategy {
	case StrategyRetry:
		return fmt.Sprintf(`for attempt in range(max_retries):
    try:
        result = call_function()
        break
    except (%s) as e:
        if attempt == max_retries - 1:
            raise
        time.sleep(backoff * (2 ** attempt))`, types)
	case StrategyFixInput:
		return fmt.Sprintf(`try:
    result = call_function(data)
except (%s) as e:
    # Log validation error and return user-friendly message
    logger.warning(f"Invalid input: {e}")
    raise ValidationError(str(e)) from e`, types)
	case StrategyReAuthenticate:
		return fmt.Sprintf(`try:
    result = call_function()
except (%s) as e:
    # Refresh credentials and retry
    refresh_credentials()
    result = call_function()`, types)
	case StrategyIgnore:
		return fmt.Sprintf(`try:
    result = call_function()
except (%s) as e:
    # Resource not found, use default
    logger.debug(f"Not found: {e}")
    result = default_value`, types)
	default:
		return fmt.Sprintf(`try:
    result = call_function()
except (%s) as e:
    # Unrecoverable error, abort operation
    logger.error(f"Fatal error: {e}")
    raise`, types)
	}
}
