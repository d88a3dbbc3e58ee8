// Package command recognizes @eidosai invocations inside free-form issue and
// comment text and turns them into structured commands.
package command

import "strings"

// DefaultMarker is the invocation marker recognized when no other marker is configured
const DefaultMarker = "@eidosai"

// Kind is the category of a recognized command
type Kind string

const (
	KindWireframe Kind = "wf"
	KindConcept   Kind = "concept"
	KindCustom    Kind = "custom"
	KindModify    Kind = "modify"
)

// Kinds returns every supported command kind
func Kinds() []Kind {
	return []Kind{KindWireframe, KindConcept, KindCustom, KindModify}
}

// String returns the mnemonic of the kind
func (k Kind) String() string {
	return string(k)
}

// DisplayName returns a human readable name used in comments and logs
func (k Kind) DisplayName() string {
	switch k {
	case KindWireframe:
		return "wireframe"
	case KindConcept:
		return "concept"
	case KindCustom:
		return "custom"
	case KindModify:
		return "modify"
	default:
		return string(k)
	}
}

// ParseKind maps a mnemonic to its kind, ignoring case
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds() {
		if strings.EqualFold(s, string(k)) {
			return k, true
		}
	}
	return "", false
}

// Command is a parsed invocation. It is only ever built whole by the parser.
type Command struct {
	Kind              Kind   `yaml:"kind"`
	RawText           string `yaml:"raw_text"`
	Count             *int   `yaml:"count,omitempty"`
	CustomInstruction string `yaml:"custom_instruction,omitempty"`
	ExcludeIssueBody  bool   `yaml:"exclude_issue_body"`
}

// HasCount reports whether the invocation carried an explicit image count
func (c *Command) HasCount() bool {
	return c.Count != nil
}
