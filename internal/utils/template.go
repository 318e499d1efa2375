package utils

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"
)

var funcs = template.FuncMap{
	"env": os.Getenv,
}

// RenderValue expands a {{ }} template in a configured literal. Plain values are returned untouched.
func RenderValue(value string, data interface{}) (string, error) {
	if !strings.Contains(value, "{{") {
		return value, nil
	}
	tmpl, err := template.New("value").Funcs(funcs).Option("missingkey=error").Parse(value)
	if err != nil {
		return "", fmt.Errorf("failed to parse value template '%s': %w", value, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute value template '%s': %w", value, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
