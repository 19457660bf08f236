package models

import "fmt"

// CodeLocation identifies a position in a source file. Line numbers are
// 1-based; Column is 0-based and optional (-1 when unknown).
type CodeLocation struct {
	File               string `json:"file"`
	Line               uint32 `json:"line"`
	Column             int    `json:"column"`
	ContainingFunction string `json:"containing_function,omitempty"`
}

// NewCodeLocation creates a location with no column or function context.
func NewCodeLocation(file string, line uint32) CodeLocation {
	return CodeLocation{File: file, Line: line, Column: -1}
}

// WithColumn returns a copy of the location with the column set.
func (l CodeLocation) WithColumn(column int) CodeLocation {
	l.Column = column
	return l
}

// WithFunction returns a copy of the location with the enclosing function set.
func (l CodeLocation) WithFunction(name string) CodeLocation {
	l.ContainingFunction = name
	return l
}

// ShortString renders file:line or file:line:col when a column is known.
func (l CodeLocation) ShortString() string {
	if l.Column >= 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}
