package differ

import "github.com/agentstation/kinmap/pkg/constants"

// Option is a functional option for configuring Differ.
type Option func(*differ)

// WithIgnoredFields sets frontmatter keys to ignore during comparison.
// The revision field is ignored unless WithoutDefaultIgnores is given.
func WithIgnoredFields(fields ...string) Option {
	return func(d *differ) {
		for _, field := range fields {
			d.ignoreFields[field] = true
		}
	}
}

// WithoutDefaultIgnores compares every field, including the revision stamp.
func WithoutDefaultIgnores() Option {
	return func(d *differ) {
		delete(d.ignoreFields, constants.RevisionField)
	}
}
