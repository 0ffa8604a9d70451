package vault

import (
	"github.com/bmatcuk/doublestar/v4"

	"github.com/agentstation/kinmap/pkg/constants"
	"github.com/agentstation/kinmap/pkg/errors"
)

// Option configures a Vault.
type Option func(*options) error

type options struct {
	include string
	exclude []string
}

func defaultOptions() *options {
	return &options{
		include: "**/*" + constants.NoteExtension,
	}
}

// WithInclude replaces the glob that selects note files.
func WithInclude(pattern string) Option {
	return func(o *options) error {
		if !doublestar.ValidatePattern(pattern) {
			return &errors.ValidationError{Field: "include", Value: pattern, Message: "invalid glob pattern"}
		}
		o.include = pattern
		return nil
	}
}

// WithExclude skips notes whose relative path matches any pattern. A
// pattern naming a directory also excludes everything below it.
func WithExclude(patterns ...string) Option {
	return func(o *options) error {
		for _, p := range patterns {
			if !doublestar.ValidatePattern(p) {
				return &errors.ValidationError{Field: "exclude", Value: p, Message: "invalid glob pattern"}
			}
		}
		o.exclude = append(o.exclude, patterns...)
		return nil
	}
}

// excluded reports whether the slash-separated path matches an exclude pattern.
func (o *options) excluded(path string) bool {
	for _, p := range o.exclude {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
		if ok, _ := doublestar.Match(p+"/**", path); ok {
			return true
		}
	}
	return false
}
