// Package validation exposes the shared go-playground/validator instance
// (used to validate the process configuration), plus the config key subset
// checks that don't fit a single struct tag. Edge endpoint compatibility is
// checked in internal/domain/graph, not here.
package validation

import (
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	instance *validator.Validate

	displayNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9 _-]{0,99}$`)
	sshGitPattern      = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+:[a-zA-Z0-9._/~-]+$`)
)

// Get returns the shared validator instance, constructing it with custom
// rules on first use.
func Get() *validator.Validate {
	once.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("git_url", func(fl validator.FieldLevel) bool {
			return isGitURL(fl.Field().String())
		})

		_ = v.RegisterValidation("block_display_name", func(fl validator.FieldLevel) bool {
			return displayNamePattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("port_direction", func(fl validator.FieldLevel) bool {
			switch fl.Field().String() {
			case "INPUT", "OUTPUT":
				return true
			default:
				return false
			}
		})

		_ = v.RegisterValidation("data_type", func(fl validator.FieldLevel) bool {
			switch fl.Field().String() {
			case "FILE", "PGTABLE", "CUSTOM":
				return true
			default:
				return false
			}
		})

		instance = v
	})
	return instance
}

func isGitURL(raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return false
	}
	if parsed, err := url.Parse(raw); err == nil {
		scheme := strings.ToLower(parsed.Scheme)
		if (scheme == "http" || scheme == "https") && parsed.Host != "" {
			return true
		}
	}
	return sshGitPattern.MatchString(raw)
}
