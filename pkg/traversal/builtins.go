package traversal

// builtinExceptions is the set of exception names defined by the Python
// runtime itself. These never get a project-local definition location.
var builtinExceptions = map[string]struct{}{
	"Exception":                 {},
	"BaseException":             {},
	"ValueError":                {},
	"TypeError":                 {},
	"KeyError":                  {},
	"IndexError":                {},
	"AttributeError":            {},
	"RuntimeError":              {},
	"StopIteration":             {},
	"GeneratorExit":             {},
	"AssertionError":            {},
	"ImportError":               {},
	"ModuleNotFoundError":       {},
	"OSError":                   {},
	"IOError":                   {},
	"FileNotFoundError":         {},
	"PermissionError":           {},
	"ConnectionError":           {},
	"TimeoutError":              {},
	"NameError":                 {},
	"UnboundLocalError":         {},
	"LookupError":               {},
	"ArithmeticError":           {},
	"ZeroDivisionError":         {},
	"OverflowError":             {},
	"FloatingPointError":        {},
	"SystemError":               {},
	"SystemExit":                {},
	"KeyboardInterrupt":         {},
	"MemoryError":               {},
	"RecursionError":            {},
	"NotImplementedError":       {},
	"SyntaxError":               {},
	"IndentationError":          {},
	"TabError":                  {},
	"UnicodeError":              {},
	"UnicodeDecodeError":        {},
	"UnicodeEncodeError":        {},
	"UnicodeTranslateError":     {},
	"Warning":                   {},
	"UserWarning":               {},
	"DeprecationWarning":        {},
	"PendingDeprecationWarning": {},
	"RuntimeWarning":            {},
	"SyntaxWarning":             {},
	"ResourceWarning":           {},
	"FutureWarning":             {},
	"ImportWarning":             {},
	"BytesWarning":              {},
	"EncodingWarning":           {},
}

// IsBuiltinException reports whether name is a Python runtime exception.
func IsBuiltinException(name string) bool {
	_, ok := builtinExceptions[name]
	return ok
}
