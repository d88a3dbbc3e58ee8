package prompt

import (
	"strconv"
	"strings"

	"github.com/eidosai/eidos/utils/command"
)

// Builder synthesizes prompts. It holds no mutable state and is safe for concurrent use.
type Builder struct {
	config PromptConfig
}

// NewBuilder creates a builder. A nil config means no overrides.
func NewBuilder(config *PromptConfig) *Builder {
	b := &Builder{}
	if config != nil {
		b.config = *config
	}
	return b
}

// Config returns the override set the builder was created with
func (b *Builder) Config() PromptConfig {
	return b.config
}

// CountFor returns how many images a command asks for. The second result is
// false when the command has no explicit count and its kind has no default.
func (b *Builder) CountFor(cmd command.Command) (int, bool) {
	if cmd.Count != nil {
		return *cmd.Count, true
	}
	spec, ok := kindSpecs[cmd.Kind]
	if !ok || spec.defaultCount == 0 {
		return 0, false
	}
	return spec.defaultCount, true
}

// FullContext assembles the text fed into every prompt
func (b *Builder) FullContext(ctx IssueContext, cmd command.Command) string {
	if cmd.ExcludeIssueBody {
		return ctx.CommentBody
	}
	return ctx.IssueBody + "\n\n" + ctx.CommentBody
}

// Aspects returns the aspect list in effect for a kind, nil for kinds without aspects
func (b *Builder) Aspects(kind command.Kind) []string {
	switch kind {
	case command.KindWireframe:
		if len(b.config.WireframeAspects) > 0 {
			return b.config.WireframeAspects
		}
	case command.KindConcept:
		if len(b.config.ConceptAspects) > 0 {
			return b.config.ConceptAspects
		}
	}
	return kindSpecs[kind].aspects
}

// Aspect returns the aspect for a 1-based image index. Out of range indices use the first entry.
func (b *Builder) Aspect(kind command.Kind, imageIndex int) string {
	aspects := b.Aspects(kind)
	if len(aspects) == 0 {
		return ""
	}
	if imageIndex < 1 || imageIndex > len(aspects) {
		return aspects[0]
	}
	return aspects[imageIndex-1]
}

func (b *Builder) overrideTemplate(kind command.Kind) string {
	switch kind {
	case command.KindWireframe:
		return b.config.WireframeTemplate
	case command.KindConcept:
		return b.config.ConceptTemplate
	case command.KindCustom:
		return b.config.CustomTemplate
	case command.KindModify:
		return b.config.ModifyTemplate
	}
	return ""
}

// Build returns the prompt for one image. It never fails: missing values fall back to empty text.
func (b *Builder) Build(ctx IssueContext, cmd command.Command, imageIndex, totalCount int) string {
	params := Params{
		ImageNumber:       imageIndex,
		TotalCount:        totalCount,
		Aspect:            b.Aspect(cmd.Kind, imageIndex),
		FullContext:       b.FullContext(ctx, cmd),
		CustomInstruction: cmd.CustomInstruction,
		CommonContext:     b.config.CommonContext,
	}

	if tmpl := b.overrideTemplate(cmd.Kind); tmpl != "" {
		return ReplacePlaceholders(tmpl, params)
	}

	var sb strings.Builder
	if params.CommonContext != "" {
		sb.WriteString("## Service Context\n")
		sb.WriteString(params.CommonContext)
		sb.WriteString("\n\n")
	}
	sb.WriteString(ReplacePlaceholders(DefaultTemplate(cmd.Kind, ctx.HasReferenceImages()), params))
	return sb.String()
}

// BuildAll returns the prompts for images 1..totalCount
func (b *Builder) BuildAll(ctx IssueContext, cmd command.Command, totalCount int) []string {
	prompts := make([]string, 0, totalCount)
	for i := 1; i <= totalCount; i++ {
		prompts = append(prompts, b.Build(ctx, cmd, i, totalCount))
	}
	return prompts
}

// Params are the values substituted into a template
type Params struct {
	ImageNumber       int
	TotalCount        int
	Aspect            string
	FullContext       string
	CustomInstruction string
	CommonContext     string
}

// ReplacePlaceholders substitutes every known placeholder. Unknown ones are left untouched.
func ReplacePlaceholders(template string, p Params) string {
	r := strings.NewReplacer(
		PlaceholderImageNumber, strconv.Itoa(p.ImageNumber),
		PlaceholderTotalCount, strconv.Itoa(p.TotalCount),
		PlaceholderAspect, p.Aspect,
		PlaceholderFullContext, p.FullContext,
		PlaceholderCustomInstruction, p.CustomInstruction,
		PlaceholderCommonContext, p.CommonContext,
	)
	return r.Replace(template)
}
