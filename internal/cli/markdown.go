package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

const wordWrap = 120

// markdownRenderer returns a glamour renderer for the given style name
// (auto, dark, light, notty, ascii) or style file.
func markdownRenderer(style string) func(string) (string, error) {
	if style == "" {
		style = "auto"
	}
	return func(md string) (string, error) {
		r, err := glamour.NewTermRenderer(
			glamour.WithStylePath(style),
			glamour.WithWordWrap(wordWrap),
		)
		if err != nil {
			return "", err
		}
		return r.Render(md)
	}
}

func (a *App) printMarkdown(md string) {
	out, err := a.render(md)
	if err != nil {
		// raw markdown is still readable
		fmt.Fprint(a.out, md)
		return
	}
	fmt.Fprint(a.out, out)
}

func mdCell(value string) string {
	value = strings.ReplaceAll(value, "|", `\|`)
	return strings.ReplaceAll(value, "\n", " ")
}
