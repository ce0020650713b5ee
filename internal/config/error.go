package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is wrapped by every *ConfigError.
var ErrInvalid = errors.New("invalid configuration")

// ConfigError lists everything wrong with one config file.
type ConfigError struct {
	Path    string
	Missing []string // unset ${VAR} references; ${VAR:?msg} ones carry msg
	Errors  []string // "section.key: problem"
}

// Error renders the problems grouped by TOML table, tables in the order
// their first problem was reported.
func (e *ConfigError) Error() string {
	if !e.HasErrors() {
		return ""
	}

	var b strings.Builder
	path := e.Path
	if path == "" {
		path = "config"
	}
	b.WriteString(path + ":")
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, "\n  unset environment variables: %s", strings.Join(e.Missing, ", "))
	}

	var order []string
	grouped := make(map[string][]string)
	for _, msg := range e.Errors {
		table, rest := splitField(msg)
		if _, seen := grouped[table]; !seen {
			order = append(order, table)
		}
		grouped[table] = append(grouped[table], rest)
	}
	for _, table := range order {
		indent := "  "
		if table != "" {
			fmt.Fprintf(&b, "\n  [%s]", table)
			indent = "    "
		}
		for _, msg := range grouped[table] {
			fmt.Fprintf(&b, "\n%s- %s", indent, msg)
		}
	}
	return b.String()
}

// Unwrap lets errors.Is match ErrInvalid.
func (e *ConfigError) Unwrap() error {
	return ErrInvalid
}

// HasErrors reports whether anything was collected.
func (e *ConfigError) HasErrors() bool {
	return len(e.Missing) > 0 || len(e.Errors) > 0
}

// splitField turns "radarr.url: required" into ("radarr", "url: required").
func splitField(msg string) (table, rest string) {
	field, problem, ok := strings.Cut(msg, ": ")
	if !ok {
		return "", msg
	}
	table, key, ok := strings.Cut(field, ".")
	if !ok {
		return field, problem
	}
	return table, key + ": " + problem
}
