// Package env reads raw process environment values. It exists for the few
// knobs consulted before the typed config has been parsed, such as the log
// output format.
package env

import (
	"os"
	"strings"
)

// Get reads key from the environment. A variable that is unset or contains
// only whitespace yields the fallback.
func Get(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(val) == "" {
		return fallback
	}
	return val
}
