package github

import (
	"fmt"
	"strings"

	"github.com/eidosai/eidos/utils/command"
)

// CommentSignature tags every comment eidos writes so it is never parsed as a command
const CommentSignature = "<!-- eidos -->"

// Failure describes one image that could not be produced
type Failure struct {
	Index int
	Err   error
}

func title(cmd *command.Command) string {
	name := cmd.Kind.DisplayName()
	if name == "" {
		return "Image"
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// ProgressComment is posted while images are being generated
func ProgressComment(cmd *command.Command, total int) string {
	noun := "image"
	if total != 1 {
		noun = "images"
	}
	return fmt.Sprintf("%s\n### 🎨 %s generation in progress\n\nGenerating %d %s. This comment will be updated when they are ready.\n",
		CommentSignature, title(cmd), total, noun)
}

// ResultComment lists the generated images in index order followed by any failures
func ResultComment(cmd *command.Command, urls []string, failures []Failure) string {
	var b strings.Builder
	b.WriteString(CommentSignature + "\n")
	fmt.Fprintf(&b, "### 🎨 %s results\n\n", title(cmd))

	if cmd.Kind == command.KindCustom && cmd.CustomInstruction != "" {
		fmt.Fprintf(&b, "> %s\n\n", quoteLines(cmd.CustomInstruction))
	}

	for i, url := range urls {
		fmt.Fprintf(&b, "#### %s %d\n\n![%s %d](%s)\n\n", title(cmd), i+1, cmd.Kind.DisplayName(), i+1, url)
	}

	if len(failures) > 0 {
		b.WriteString("<details>\n<summary>")
		fmt.Fprintf(&b, "%d image(s) could not be generated", len(failures))
		b.WriteString("</summary>\n\n")
		for _, f := range failures {
			fmt.Fprintf(&b, "- Image %d: %s\n", f.Index, oneLine(f.Err))
		}
		b.WriteString("\n</details>\n")
	}
	return b.String()
}

// FailureComment replaces the progress comment when nothing could be generated
func FailureComment(cmd *command.Command, err error) string {
	return fmt.Sprintf("%s\n### ⚠️ %s generation failed\n\n```\n%s\n```\n",
		CommentSignature, title(cmd), oneLine(err))
}

// IsOwnComment reports whether a comment body was written by eidos
func IsOwnComment(body string) bool {
	return strings.HasPrefix(strings.TrimSpace(body), CommentSignature)
}

func oneLine(err error) string {
	if err == nil {
		return "unknown error"
	}
	return strings.Join(strings.Fields(err.Error()), " ")
}

func quoteLines(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "\n", "\n> ")
}
