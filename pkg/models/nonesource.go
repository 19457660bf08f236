package models

// NoneSourceKind classifies how a None value can originate.
type NoneSourceKind string

const (
	NoneExplicitReturn   NoneSourceKind = "explicit_return"
	NoneImplicitReturn   NoneSourceKind = "implicit_return"
	NoneFunctionCall     NoneSourceKind = "function_call"
	NoneCollectionAccess NoneSourceKind = "collection_access"

	// Reserved kinds. The extractor does not populate these yet; they exist
	// so persisted analyses stay forward-compatible.
	NoneAttributeAccess NoneSourceKind = "attribute_access"
	NoneConditionalExpr NoneSourceKind = "conditional_expression"
	NoneMatchArm        NoneSourceKind = "match_arm"
)

// DisplayString returns the human-readable form used in reports and in
// call-chain keys.
func (k NoneSourceKind) DisplayString() string {
	switch k {
	case NoneExplicitReturn:
		return "explicit return"
	case NoneImplicitReturn:
		return "implicit return"
	case NoneFunctionCall:
		return "function call"
	case NoneCollectionAccess:
		return "collection access"
	case NoneAttributeAccess:
		return "attribute access"
	case NoneConditionalExpr:
		return "conditional expression"
	case NoneMatchArm:
		return "match arm"
	default:
		return string(k)
	}
}

// NoneSource describes one syntactic origin of a None value.
type NoneSource struct {
	Kind             NoneSourceKind `json:"kind"`
	Location         CodeLocation   `json:"location"`
	SourceDefinition *CodeLocation  `json:"source_definition,omitempty"`
	Condition        string         `json:"condition,omitempty"`
}

// NewNoneSource creates a None source record.
func NewNoneSource(kind NoneSourceKind, location CodeLocation) NoneSource {
	return NoneSource{Kind: kind, Location: location}
}
