package generator

import (
	"fmt"
	"strings"

	"imsgen/internal/models"
)

// RenderString replaces {{name}} placeholders with vars values.
// A missing variable or a malformed placeholder is a formatting error.
func RenderString(input string, vars map[string]string) (string, error) {
	if input == "" {
		return "", nil
	}

	var out strings.Builder
	out.Grow(len(input) + 64)
	rest := input
	for {
		start := strings.Index(rest, "{{")
		if start == -1 {
			out.WriteString(rest)
			return out.String(), nil
		}

		out.WriteString(rest[:start])
		rest = rest[start+2:]

		end := strings.Index(rest, "}}")
		if end == -1 {
			return "", formatError("unclosed template expression")
		}

		key := strings.TrimSpace(rest[:end])
		if key == "" {
			return "", formatError("empty template expression")
		}

		value, ok := vars[key]
		if !ok {
			return "", formatError(fmt.Sprintf("missing variable %q", key))
		}

		out.WriteString(value)
		rest = rest[end+2:]
	}
}

func formatError(msg string) error {
	return models.NewError("generator.render", models.KindFormat, "", fmt.Errorf("%w: %s", models.ErrTemplate, msg))
}
