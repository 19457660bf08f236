package models

// ReRaiseType is the sentinel exception type recorded for a bare `raise`
// statement that re-raises the active exception.
const ReRaiseType = "(re-raise)"

// RaiseStatement describes one syntactic raise site.
//
// ExceptionType is the name as written at the raise site; QualifiedType is
// the import-qualified name when the import context allows it, otherwise it
// equals ExceptionType. DefinitionLocation is nil for built-in or
// unresolvable types.
type RaiseStatement struct {
	ExceptionType      string        `json:"exception_type"`
	QualifiedType      string        `json:"qualified_type"`
	RaiseLocation      CodeLocation  `json:"raise_location"`
	DefinitionLocation *CodeLocation `json:"definition_location,omitempty"`
	Condition          string        `json:"condition,omitempty"`
	Message            string        `json:"message,omitempty"`
}

// NewRaiseStatement creates a raise record with the qualified type initially
// equal to the display type. Qualification happens later, once the raising
// file's import table is known.
func NewRaiseStatement(exceptionType string, location CodeLocation) RaiseStatement {
	return RaiseStatement{
		ExceptionType: exceptionType,
		QualifiedType: exceptionType,
		RaiseLocation: location,
	}
}

// IsReRaise reports whether this is a bare re-raise.
func (r RaiseStatement) IsReRaise() bool {
	return r.ExceptionType == ReRaiseType
}
