// Package prompt turns parsed commands and issue text into image generation prompts.
package prompt

import "encoding/base64"

// ImageData is a binary image payload
type ImageData struct {
	MIMEType string
	Data     []byte
}

// Base64 returns the payload encoded as standard base64
func (d ImageData) Base64() string {
	return base64.StdEncoding.EncodeToString(d.Data)
}

// IssueContext is the text surrounding a command. Identifiers are passed through untouched.
type IssueContext struct {
	IssueBody       string
	CommentBody     string
	IssueNumber     int
	Repository      string
	CommentID       int64
	IsFromComment   bool
	ReferenceImages []ImageData
}

// HasReferenceImages reports whether any reference image was supplied
func (c IssueContext) HasReferenceImages() bool {
	return len(c.ReferenceImages) > 0
}

// PromptConfig overrides the built-in prompt compositions.
//
// Templates: an empty string keeps the built-in composition for that kind.
// A non-empty template replaces it entirely, and the Service Context section
// is not prepended; use {{commonContext}} to place it.
//
// Aspects: an empty list keeps the built-in list. A non-empty list replaces
// it entirely; entries are never merged with the defaults.
//
// CommonContext: prepended to every built-in composition as a
// "## Service Context" section when non-empty.
type PromptConfig struct {
	WireframeTemplate string   `yaml:"wireframe_template,omitempty" json:"wireframe_template,omitempty"`
	ConceptTemplate   string   `yaml:"concept_template,omitempty" json:"concept_template,omitempty"`
	CustomTemplate    string   `yaml:"custom_template,omitempty" json:"custom_template,omitempty"`
	ModifyTemplate    string   `yaml:"modify_template,omitempty" json:"modify_template,omitempty"`
	WireframeAspects  []string `yaml:"wireframe_aspects,omitempty" json:"wireframe_aspects,omitempty"`
	ConceptAspects    []string `yaml:"concept_aspects,omitempty" json:"concept_aspects,omitempty"`
	CommonContext     string   `yaml:"common_context,omitempty" json:"common_context,omitempty"`
}

// Merge returns a copy of c where every non-empty field of other wins
func (c PromptConfig) Merge(other PromptConfig) PromptConfig {
	merged := c
	if other.WireframeTemplate != "" {
		merged.WireframeTemplate = other.WireframeTemplate
	}
	if other.ConceptTemplate != "" {
		merged.ConceptTemplate = other.ConceptTemplate
	}
	if other.CustomTemplate != "" {
		merged.CustomTemplate = other.CustomTemplate
	}
	if other.ModifyTemplate != "" {
		merged.ModifyTemplate = other.ModifyTemplate
	}
	if len(other.WireframeAspects) > 0 {
		merged.WireframeAspects = other.WireframeAspects
	}
	if len(other.ConceptAspects) > 0 {
		merged.ConceptAspects = other.ConceptAspects
	}
	if other.CommonContext != "" {
		merged.CommonContext = other.CommonContext
	}
	return merged
}
