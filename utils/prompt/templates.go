package prompt

import "github.com/eidosai/eidos/utils/command"

// Placeholder tokens understood by override and built-in templates
const (
	PlaceholderImageNumber       = "{{imageNumber}}"
	PlaceholderTotalCount        = "{{totalCount}}"
	PlaceholderAspect            = "{{aspect}}"
	PlaceholderFullContext       = "{{fullContext}}"
	PlaceholderCustomInstruction = "{{customInstruction}}"
	PlaceholderCommonContext     = "{{commonContext}}"
)

// DefaultWireframeAspects are the facets shown by successive wireframe images
var DefaultWireframeAspects = []string{
	"main page layout and overall structure",
	"detailed UI components and their placement",
	"navigation flow and menu structure",
	"user interaction points and key features",
}

// DefaultConceptAspects are the facets shown by successive concept images
var DefaultConceptAspects = []string{
	"overall user interface design direction and visual style",
	"key visual elements, branding, and color scheme",
}

// kindSpec describes the built-in composition of one command kind
type kindSpec struct {
	defaultCount int // 0: no built-in default
	aspects      []string
	template     string
	// referenceTemplate replaces template when reference images are supplied
	referenceTemplate string
}

const wireframeTemplate = `Create a wireframe image ({{imageNumber}}/{{totalCount}}) for the following requirement that shows {{aspect}}:

{{fullContext}}

Generate a clear wireframe diagram that shows {{aspect}}. The wireframe should be clean, well-organized, and easy to understand, using typical wireframe conventions (boxes, labels, simple shapes).`

const conceptTemplate = `Create a concept image ({{imageNumber}}/{{totalCount}}) for the following requirement that shows {{aspect}}:

{{fullContext}}

Generate a high-quality concept visualization that clearly demonstrates {{aspect}}. The image should be professional and visually appealing.`

const customTemplate = `Create a custom image ({{imageNumber}}/{{totalCount}}) based on the following requirements and custom instruction:

{{fullContext}}

Custom instruction: {{customInstruction}}

Generate a high-quality image that fulfills the above requirements and follows the custom instruction. The image should be professional and visually appealing.`

const modifyTemplate = `Create a UI design image ({{imageNumber}}/{{totalCount}}) based on the following design requirements:

{{fullContext}}

Generate a high-quality UI design that fulfills the above requirements. The design should be professional, modern, and visually appealing with a consistent design system.`

const modifyReferenceTemplate = `You are provided with reference image(s) showing the current screen design. Based on these reference images, modify the design according to the following requirements while maintaining the same tone and manner (color scheme, typography, layout style, visual elements, etc.):

{{fullContext}}

Generate a modified version ({{imageNumber}}/{{totalCount}}) that:
1. Maintains the exact same visual style, color palette, typography, and overall design language as the reference image(s)
2. Incorporates the requested changes (e.g., adding buttons, modifying layouts, updating content)
3. Ensures the modifications blend seamlessly with the existing design
4. Preserves the overall user experience and design consistency

The output should look like a natural evolution of the reference design, not a completely new design.`

var kindSpecs = map[command.Kind]kindSpec{
	command.KindWireframe: {
		defaultCount: 4,
		aspects:      DefaultWireframeAspects,
		template:     wireframeTemplate,
	},
	command.KindConcept: {
		defaultCount: 2,
		aspects:      DefaultConceptAspects,
		template:     conceptTemplate,
	},
	command.KindCustom: {
		defaultCount: 2,
		template:     customTemplate,
	},
	command.KindModify: {
		template:          modifyTemplate,
		referenceTemplate: modifyReferenceTemplate,
	},
}

// DefaultTemplate returns the built-in template of a kind, or of its
// reference-image variant when withReferences is set and one exists
func DefaultTemplate(kind command.Kind, withReferences bool) string {
	spec := kindSpecs[kind]
	if withReferences && spec.referenceTemplate != "" {
		return spec.referenceTemplate
	}
	return spec.template
}
