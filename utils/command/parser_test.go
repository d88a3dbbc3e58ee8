package command

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int {
	return &n
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected *Command
	}{
		{
			name:     "no marker",
			text:     "Please build a login page",
			expected: nil,
		},
		{
			name:     "marker without token",
			text:     "@eidosai",
			expected: nil,
		},
		{
			name:     "marker followed only by whitespace",
			text:     "@eidosai    ",
			expected: nil,
		},
		{
			name:     "wireframe",
			text:     "@eidosai wf",
			expected: &Command{Kind: KindWireframe, RawText: "@eidosai wf"},
		},
		{
			name:     "marker is case insensitive",
			text:     "@EidosAI Concept",
			expected: &Command{Kind: KindConcept, RawText: "@EidosAI Concept"},
		},
		{
			name:     "modify",
			text:     "@eidosai modify",
			expected: &Command{Kind: KindModify, RawText: "@eidosai modify"},
		},
		{
			name:     "count after kind",
			text:     "@eidosai wf --count 3",
			expected: &Command{Kind: KindWireframe, RawText: "@eidosai wf --count 3", Count: intPtr(3)},
		},
		{
			name:     "count before kind",
			text:     "@eidosai --count 3 wf",
			expected: &Command{Kind: KindWireframe, RawText: "@eidosai --count 3 wf", Count: intPtr(3)},
		},
		{
			name:     "short count flag",
			text:     "@eidosai concept -c 1",
			expected: &Command{Kind: KindConcept, RawText: "@eidosai concept -c 1", Count: intPtr(1)},
		},
		{
			name:     "zero count is kept",
			text:     "@eidosai wf --count 0",
			expected: &Command{Kind: KindWireframe, RawText: "@eidosai wf --count 0", Count: intPtr(0)},
		},
		{
			name: "exclude issue body",
			text: "@eidosai --no-issue-body concept",
			expected: &Command{
				Kind:             KindConcept,
				RawText:          "@eidosai --no-issue-body concept",
				ExcludeIssueBody: true,
			},
		},
		{
			name: "explicit custom with double quotes and count",
			text: `@eidosai custom "blue theme" --count 3`,
			expected: &Command{
				Kind:              KindCustom,
				RawText:           `@eidosai custom "blue theme" --count 3`,
				Count:             intPtr(3),
				CustomInstruction: "blue theme",
			},
		},
		{
			name: "explicit custom with single quotes",
			text: `@eidosai custom 'dark mode dashboard'`,
			expected: &Command{
				Kind:              KindCustom,
				RawText:           `@eidosai custom 'dark mode dashboard'`,
				CustomInstruction: "dark mode dashboard",
			},
		},
		{
			name: "explicit custom with bare words",
			text: "@eidosai custom a  retro   poster",
			expected: &Command{
				Kind:              KindCustom,
				RawText:           "@eidosai custom a  retro   poster",
				CustomInstruction: "a  retro   poster",
			},
		},
		{
			name: "implicit custom quoted",
			text: `@eidosai "mobile onboarding flow" -c 2 --no-issue-body`,
			expected: &Command{
				Kind:              KindCustom,
				RawText:           `@eidosai "mobile onboarding flow" -c 2 --no-issue-body`,
				Count:             intPtr(2),
				CustomInstruction: "mobile onboarding flow",
				ExcludeIssueBody:  true,
			},
		},
		{
			name: "implicit custom single stray word",
			text: "@eidosai sketch",
			expected: &Command{
				Kind:              KindCustom,
				RawText:           "@eidosai sketch",
				CustomInstruction: "sketch",
			},
		},
		{
			name: "custom keyword alone is an implicit instruction",
			text: "@eidosai custom",
			expected: &Command{
				Kind:              KindCustom,
				RawText:           "@eidosai custom",
				CustomInstruction: "custom",
			},
		},
		{
			name: "empty quoted instruction",
			text: `@eidosai ""`,
			expected: &Command{
				Kind:              KindCustom,
				RawText:           `@eidosai ""`,
				CustomInstruction: "",
			},
		},
		{
			name: "explicit custom with empty quotes",
			text: `@eidosai custom ""`,
			expected: &Command{
				Kind:              KindCustom,
				RawText:           `@eidosai custom ""`,
				CustomInstruction: "",
			},
		},
		{
			name:     "bare number is rejected",
			text:     "@eidosai 42",
			expected: nil,
		},
		{
			name:     "quoted number is rejected",
			text:     `@eidosai "42"`,
			expected: nil,
		},
		{
			name: "number followed by words is an instruction",
			text: "@eidosai 3 cats",
			expected: &Command{
				Kind:              KindCustom,
				RawText:           "@eidosai 3 cats",
				CustomInstruction: "3 cats",
			},
		},
		{
			name:     "only options",
			text:     "@eidosai --count 3 --no-issue-body",
			expected: nil,
		},
		{
			name: "malformed count stays in the body",
			text: "@eidosai wf --count many",
			expected: &Command{
				Kind:              KindCustom,
				RawText:           "@eidosai wf --count many",
				CustomInstruction: "wf --count many",
			},
		},
		{
			name: "repeated count keeps the last one",
			text: "@eidosai wf --count 2 -c 5",
			expected: &Command{
				Kind:    KindWireframe,
				RawText: "@eidosai wf --count 2 -c 5",
				Count:   intPtr(5),
			},
		},
		{
			name: "command inside a longer comment",
			text: "Thanks for the update!\n\n@eidosai wf -c 2\n\nLet me know.",
			expected: &Command{
				Kind:    KindWireframe,
				RawText: "Thanks for the update!\n\n@eidosai wf -c 2\n\nLet me know.",
				Count:   intPtr(2),
			},
		},
		{
			name: "accented word before count",
			text: "@eidosai voilà --count 3",
			expected: &Command{
				Kind:              KindCustom,
				RawText:           "@eidosai voilà --count 3",
				CustomInstruction: "voilà",
				Count:             intPtr(3),
			},
		},
		{
			name: "multibyte argument before no-issue-body",
			text: "@eidosai custom ぅ --no-issue-body",
			expected: &Command{
				Kind:              KindCustom,
				RawText:           "@eidosai custom ぅ --no-issue-body",
				CustomInstruction: "ぅ",
				ExcludeIssueBody:  true,
			},
		},
		{
			name: "several non-ascii words before short count",
			text: "@eidosai custom café Å -c 2",
			expected: &Command{
				Kind:              KindCustom,
				RawText:           "@eidosai custom café Å -c 2",
				CustomInstruction: "café Å",
				Count:             intPtr(2),
			},
		},
		{
			name: "unicode space separates options",
			text: "@eidosai custom neon\u3000--count 4",
			expected: &Command{
				Kind:              KindCustom,
				RawText:           "@eidosai custom neon\u3000--count 4",
				CustomInstruction: "neon",
				Count:             intPtr(4),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := Parse(tt.text)
			assert.Equal(t, tt.expected, cmd)
			if cmd != nil {
				assert.True(t, utf8.ValidString(cmd.CustomInstruction), "instruction %q is not valid UTF-8", cmd.CustomInstruction)
			}
		})
	}
}

func TestParseIsIdempotent(t *testing.T) {
	inputs := []string{
		"@eidosai wf",
		`@eidosai custom "blue theme" --count 3`,
		"@eidosai --no-issue-body concept -c 1",
		"@eidosai a landing page hero",
	}

	for _, text := range inputs {
		t.Run(text, func(t *testing.T) {
			first := Parse(text)
			require.NotNil(t, first)
			assert.Equal(t, first, Parse(first.RawText))
		})
	}
}

func TestCustomParserMarker(t *testing.T) {
	p := NewParser("@gen-visual")
	assert.Equal(t, "@gen-visual", p.Marker())

	cmd := p.Parse("@gen-visual concept")
	require.NotNil(t, cmd)
	assert.Equal(t, KindConcept, cmd.Kind)

	assert.Nil(t, p.Parse("@eidosai concept"), "default marker must not match a custom parser")
	assert.Equal(t, DefaultMarker, NewParser("  ").Marker())
}

func TestSplitOptions(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		body        string
		count       *int
		noIssueBody bool
	}{
		{name: "nothing to strip", input: "wf", body: "wf"},
		{name: "count in the middle", input: "custom --count 4 neon sign", body: "custom neon sign", count: intPtr(4)},
		{name: "flag case insensitive", input: "--NO-ISSUE-BODY wf", body: "wf", noIssueBody: true},
		{name: "count without value", input: "wf -c", body: "wf -c"},
		{name: "negative count is not an option", input: "wf -c -1", body: "wf -c -1"},
		{name: "options inside quotes are preserved", input: `"use --count 3 items"`, body: `"use --count 3 items"`},
		{name: "interior spacing is preserved", input: "a   b --no-issue-body c", body: "a   b c", noIssueBody: true},
		{name: "multibyte words stay whole", input: "voilà ぅ Å --count 3", body: "voilà ぅ Å", count: intPtr(3)},
		{name: "non-breaking space between words is kept", input: "à\u00a0b --no-issue-body", body: "à\u00a0b", noIssueBody: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := splitOptions(tt.input)
			assert.Equal(t, tt.body, opts.body)
			assert.Equal(t, tt.count, opts.count)
			assert.Equal(t, tt.noIssueBody, opts.noIssueBody)
			assert.True(t, utf8.ValidString(opts.body))
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		body        string
		kind        Kind
		instruction string
		ok          bool
	}{
		{body: "wf", kind: KindWireframe, ok: true},
		{body: "WF", kind: KindWireframe, ok: true},
		{body: "concept", kind: KindConcept, ok: true},
		{body: "modify", kind: KindModify, ok: true},
		{body: "custom 'x'", kind: KindCustom, instruction: "x", ok: true},
		{body: `custom "a" "b"`, kind: KindCustom, instruction: `"a" "b"`, ok: true},
		{body: "wf please", kind: KindCustom, instruction: "wf please", ok: true},
		{body: "customize it", kind: KindCustom, instruction: "customize it", ok: true},
		{body: "-7", ok: false},
		{body: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			kind, instruction, ok := classify(tt.body)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.instruction, instruction)
		})
	}
}

func TestParseKind(t *testing.T) {
	kind, ok := ParseKind("Concept")
	assert.True(t, ok)
	assert.Equal(t, KindConcept, kind)
	assert.Equal(t, "concept", kind.DisplayName())
	assert.Equal(t, "wireframe", KindWireframe.DisplayName())

	_, ok = ParseKind("storyboard")
	assert.False(t, ok)
}
