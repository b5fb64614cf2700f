// internal/launch/render.go
package launch

import (
	"strings"
)

const defaultNoteTemplate = "Campagne {campaign} : contacter via {channel} (requête: {query})"

// RenderNote fills the seller note template. Missing values render as
// <unknown> rather than leaving the placeholder in the task.
func RenderNote(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		if v == "" {
			v = "<unknown>"
		}
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return result
}
