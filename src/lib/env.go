package lib

import (
	"fmt"
	"strings"
	"travleap/src/config"
)

// WithSuffix appends the environment name to a queue or topic name so the
// same infrastructure definitions can coexist across environments.
func WithSuffix(name string) string {
	env := config.API_ENV
	if env == "" {
		return name
	}
	return fmt.Sprintf("%s_%s", name, strings.ToUpper(env))
}
