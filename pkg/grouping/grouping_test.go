package grouping

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborlabs/arbor/pkg/models"
)

func raise(excType, qualifiedType string) models.RaiseStatement {
	r := models.NewRaiseStatement(excType, models.NewCodeLocation("app.py", 1))
	if qualifiedType != "" {
		r.QualifiedType = qualifiedType
	}
	return r
}

func TestStrategyFor(t *testing.T) {
	tests := []struct {
		excType string
		want    RecoveryStrategy
	}{
		{"ConnectionTimeout", StrategyRetry},
		{"NetworkError", StrategyRetry},
		{"RateLimitError", StrategyRetry},
		{"AuthenticationError", StrategyReAuthenticate},
		{"PermissionDenied", StrategyReAuthenticate},
		{"TokenExpired", StrategyReAuthenticate},
		{"ValidationError", StrategyFixInput},
		{"ValueError", StrategyFixInput},
		{"TypeError", StrategyFixInput},
		{"NotFoundError", StrategyIgnore},
		{"MissingKeyError", StrategyIgnore},
		{"RuntimeError", StrategyAbort},
		{"SystemExit", StrategyAbort},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StrategyFor(tt.excType), tt.excType)
	}
}

func TestStrategyForOrderMatters(t *testing.T) {
	// Transient markers win over input-validation markers.
	assert.Equal(t, StrategyRetry, StrategyFor("ConnectionValueError"))
}

func TestStrategyString(t *testing.T) {
	assert.Equal(t, "retry", StrategyRetry.String())
	assert.Equal(t, "fix input", StrategyFixInput.String())
	assert.Equal(t, "re-authenticate", StrategyReAuthenticate.String())
	assert.Equal(t, "ignore", StrategyIgnore.String())
	assert.Equal(t, "abort", StrategyAbort.String())
}

func TestSuggestGroupsEmpty(t *testing.T) {
	assert.Nil(t, SuggestGroups(nil))
	assert.Nil(t, SuggestGroups([]models.RaiseStatement{}))
}

func TestSuggestGroupsByPackage(t *testing.T) {
	raises := []models.RaiseStatement{
		raise("ConnectionError", "requests.exceptions.ConnectionError"),
		raise("HTTPError", "requests.exceptions.HTTPError"),
		raise("RuntimeError", ""),
	}

	suggestions := SuggestGroups(raises)
	require.NotEmpty(t, suggestions)

	var pkgGroup *Suggestion
	for i := range suggestions {
		if suggestions[i].GroupName == "requests exceptions" {
			pkgGroup = &suggestions[i]
		}
	}
	require.NotNil(t, pkgGroup, "expected a requests package group")
	assert.ElementsMatch(t, []string{"ConnectionError", "HTTPError"}, pkgGroup.Exceptions)
	assert.Contains(t, pkgGroup.Rationale, "requests")
	assert.Contains(t, pkgGroup.HandlerExample, "except (ConnectionError, HTTPError)")
}

func TestSuggestGroupsByRecoveryStrategy(t *testing.T) {
	raises := []models.RaiseStatement{
		raise("ConnectionTimeout", ""),
		raise("NetworkError", ""),
	}

	suggestions := SuggestGroups(raises)
	require.NotEmpty(t, suggestions)

	var retryGroup *Suggestion
	for i := range suggestions {
		if suggestions[i].GroupName == "Retry exceptions" {
			retryGroup = &suggestions[i]
		}
	}
	require.NotNil(t, retryGroup, "expected a retry group")
	assert.Contains(t, retryGroup.Rationale, "retry")
	assert.Contains(t, retryGroup.HandlerExample, "max_retries")
}

func TestSuggestGroupsSingletonDropped(t *testing.T) {
	raises := []models.RaiseStatement{
		raise("ConnectionError", "requests.exceptions.ConnectionError"),
		raise("StopIteration", ""),
	}

	for _, s := range SuggestGroups(raises) {
		assert.GreaterOrEqual(t, len(s.Exceptions), 2, s.GroupName)
	}
}

func TestSuggestGroupsSubsetDeduped(t *testing.T) {
	raises := []models.RaiseStatement{
		raise("ConnectionTimeout", "myclient.errors.ConnectionTimeout"),
		raise("NetworkError", "myclient.errors.NetworkError"),
		raise("RetryableError", "myclient.errors.RetryableError"),
	}

	suggestions := SuggestGroups(raises)
	require.NotEmpty(t, suggestions)

	// All three types share the package and the retry strategy; the smaller
	// semantic groups are strict subsets and must be dropped.
	for _, s := range suggestions {
		assert.Len(t, s.Exceptions, 3, s.GroupName)
	}
}

func TestSuggestGroupsDeterministic(t *testing.T) {
	raises := []models.RaiseStatement{
		raise("TimeoutError", "pkg_b.TimeoutError"),
		raise("ConnectionError", "pkg_b.ConnectionError"),
		raise("ValidationError", "pkg_a.ValidationError"),
		raise("ValueError", "pkg_a.ValueError"),
	}

	first := SuggestGroups(raises)
	for i := 0; i < 10; i++ {
		again := SuggestGroups(raises)
		require.Equal(t, first, again)
	}
}

func TestSuggestGroupsDuplicateTypesCollapsed(t *testing.T) {
	raises := []models.RaiseStatement{
		raise("ValueError", ""),
		raise("ValueError", ""),
		raise("TypeError", ""),
	}

	suggestions := SuggestGroups(raises)
	require.NotEmpty(t, suggestions)

	for _, s := range suggestions {
		seen := map[string]bool{}
		for _, exc := range s.Exceptions {
			assert.False(t, seen[exc], "duplicate %s in %s", exc, s.GroupName)
			seen[exc] = true
		}
	}
}

func TestRecoveryHandlerSketches(t *testing.T) {
	types := []string{"AError", "BError"}

	assert.Contains(t, recoveryHandler(types, StrategyRetry), "time.sleep(backoff")
	assert.Contains(t, recoveryHandler(types, StrategyFixInput), "ValidationError(str(e))")
	assert.Contains(t, recoveryHandler(types, StrategyReAuthenticate), "refresh_credentials()")
	assert.Contains(t, recoveryHandler(types, StrategyIgnore), "default_value")
	assert.Contains(t, recoveryHandler(types, StrategyAbort), "Fatal error")

	for _, s := range []RecoveryStrategy{StrategyRetry, StrategyFixInput, StrategyReAuthenticate, StrategyIgnore, StrategyAbort} {
		assert.True(t, strings.Contains(recoveryHandler(types, s), "AError, BError"), s.String())
	}
}

func TestSemanticCategory(t *testing.T) {
	assert.Equal(t, "Timeout", semanticCategory("ReadTimeoutError"))
	assert.Equal(t, "Connection", semanticCategory("ConnectionRefused"))
	assert.Equal(t, "Validation", semanticCategory("SchemaValidationError"))
	assert.Equal(t, "", semanticCategory("WeirdError"))
}

func TestSourcePackage(t *testing.T) {
	assert.Equal(t, "requests", sourcePackage("requests.exceptions.ConnectionError"))
	assert.Equal(t, "app", sourcePackage("app.DatabaseError"))
	assert.Equal(t, "", sourcePackage("ValueError"))
}
