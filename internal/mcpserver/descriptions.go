package mcpserver

// Tool descriptions with interpretation guidance for LLMs.
// Each description explains what the tool does, when to use it,
// and how to interpret results.

func describeAnalyzeFunction() string {
	return `Traces all exceptions a Python function can raise and all places it can return None, including transitively through its callees.

USE WHEN:
- Writing or reviewing a try/except block around a call
- Auditing error handling before wrapping a third-party API
- Checking whether a return value needs a None guard
- Understanding the failure surface of an entry point

INTERPRETING RESULTS:
- exception_type is the name at the raise site; qualified_type includes the defining module when known
- "(re-raise)" means a bare raise inside an except block: the original exception propagates
- condition is the guarding if-expression at the raise site, when one exists
- definition_location is present only for project-defined exception classes, never builtins
- none_sources kinds: explicit return, implicit return, function call, collection access
- call_chains maps each finding to the call path from the root function that reaches it
- risk: high means >= 10 exceptions or >= 5 None sources

RESULTS RETURNED:
- analysis: raises, none_sources, functions_traced, call_depth, call_chains
- suggestions: handler groupings by package, semantic category, and recovery strategy`
}

func describeQueryFunction() string {
	return `Returns the stored analysis of a previously analyzed function without re-traversing.

USE WHEN:
- Re-reading results from an earlier analyze_function call
- Fetching a single aspect (exceptions, none, chains) to keep context small

INTERPRETING RESULTS:
- aspect=exceptions returns only raise sites
- aspect=none returns only None origins
- aspect=chains returns the call-chain map keyed by "type@file:line"
- aspect=all (default) returns the complete analysis`
}

func describeIndexProject() string {
	return `Builds the project symbol index: every function, class, and method definition under the given roots, keyed by qualified name.

USE WHEN:
- Setting up before the first analyze_function call on a project
- Refreshing after source files changed

INTERPRETING RESULTS:
- symbols is the number of indexed definitions
- skipped counts files that failed to read or parse; skips are non-fatal`
}

func describeListFunctions() string {
	return `Lists every analyzed function in the project database with its risk level and finding counts.

USE WHEN:
- Surveying which functions have been analyzed
- Finding the riskiest functions to harden first (risk=high)`
}

func describeSuggestGroups() string {
	return `Suggests except-clause groupings for the exceptions a function can raise, with handler code sketches.

USE WHEN:
- Writing exception handling for a call with many failure modes
- Deciding which exceptions to retry versus abort

INTERPRETING RESULTS:
- Groups come from three signals: shared source package, semantic category, and recovery strategy
- recovery strategies: retry, fix input, re-authenticate, ignore, abort
- handler_example is a Python sketch, not drop-in code`
}

func describeProjectStats() string {
	return `Returns distribution statistics over all analyzed functions: exception and None-source counts, call depths, and the most frequently raised types.

USE WHEN:
- Assessing the overall error-handling burden of a codebase
- Prioritizing which modules need exception audits`
}
