package codec

import (
	"strings"

	"github.com/google/uuid"
)

// Kind discriminates the forms a reference can take.
type Kind int

const (
	// KindName refers to a contact by display name.
	KindName Kind = iota
	// KindUID refers to a contact by an opaque identifier.
	KindUID
	// KindUUID refers to a contact by a UUID identifier.
	KindUUID
)

const (
	uuidPrefix = "urn:uuid:"
	uidPrefix  = "uid:"
	namePrefix = "name:"
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindUUID:
		return "uuid"
	case KindUID:
		return "uid"
	default:
		return "name"
	}
}

// Reference points at a related contact.
type Reference struct {
	Kind  Kind
	Value string
}

// UUIDRef builds a UUID reference.
func UUIDRef(id string) Reference { return Reference{Kind: KindUUID, Value: id} }

// UIDRef builds a UID reference.
func UIDRef(id string) Reference { return Reference{Kind: KindUID, Value: id} }

// NameRef builds a display name reference.
func NameRef(name string) Reference { return Reference{Kind: KindName, Value: name} }

// String serializes the reference in its prefixed form.
func (r Reference) String() string {
	switch r.Kind {
	case KindUUID:
		return uuidPrefix + r.Value
	case KindUID:
		return uidPrefix + r.Value
	default:
		return namePrefix + r.Value
	}
}

// IsZero reports whether the reference is empty.
func (r Reference) IsZero() bool {
	return r.Value == ""
}

// IsUUID reports whether s is a UUID in canonical 36-character form.
func IsUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// ParseReference reads a frontmatter reference value. Prefixes are
// matched case-insensitively. A bare UUID is a UUID reference and any
// other bare value is a display name. It reports false for blank input.
func ParseReference(value string) (Reference, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return Reference{}, false
	}

	if rest, ok := cutPrefixFold(v, uuidPrefix); ok {
		rest = strings.TrimSpace(rest)
		if rest == "" {
			return Reference{}, false
		}
		if !IsUUID(rest) {
			return UIDRef(rest), true
		}
		return UUIDRef(strings.ToLower(rest)), true
	}
	if rest, ok := cutPrefixFold(v, uidPrefix); ok {
		rest = strings.TrimSpace(rest)
		return UIDRef(rest), rest != ""
	}
	if rest, ok := cutPrefixFold(v, namePrefix); ok {
		rest = strings.TrimSpace(rest)
		return NameRef(rest), rest != ""
	}
	if IsUUID(v) {
		return UUIDRef(strings.ToLower(v)), true
	}
	return NameRef(v), true
}

// ReferenceFor builds the outgoing reference for a resolved contact:
// a UUID reference when uid is a UUID, a UID reference when uid is known
// and differs from the display name, otherwise a name reference.
func ReferenceFor(uid, displayName string) Reference {
	switch {
	case IsUUID(uid):
		return UUIDRef(strings.ToLower(uid))
	case uid != "" && uid != displayName:
		return UIDRef(uid)
	case displayName != "":
		return NameRef(displayName)
	default:
		return NameRef(uid)
	}
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}
