package relations

import (
	"strings"

	"golang.org/x/text/cases"
)

// Gender of a contact, or the gender implied by a relationship term.
// The zero value is Unspecified.
type Gender int

const (
	// Unspecified means no gender is known.
	Unspecified Gender = iota
	// Male selects masculine term variants.
	Male
	// Female selects feminine term variants.
	Female
	// NonBinary selects the neutral term.
	NonBinary
)

// String returns the lower-case name of the gender.
func (g Gender) String() string {
	switch g {
	case Male:
		return "male"
	case Female:
		return "female"
	case NonBinary:
		return "nonbinary"
	default:
		return "unspecified"
	}
}

// Code returns the vCard GENDER code for g.
func (g Gender) Code() string {
	switch g {
	case Male:
		return "M"
	case Female:
		return "F"
	case NonBinary:
		return "O"
	default:
		return "U"
	}
}

// Known reports whether g is anything other than Unspecified.
func (g Gender) Known() bool {
	return g != Unspecified
}

// ParseGender reads a vCard-style gender value. The sex component before
// any ';' is used, so "F;she/her" parses as Female. Unrecognized values
// are Unspecified.
func ParseGender(value string) Gender {
	sex, _, _ := strings.Cut(value, ";")
	switch cases.Fold().String(strings.TrimSpace(sex)) {
	case "m", "male", "man":
		return Male
	case "f", "female", "woman":
		return Female
	case "nb", "n", "o", "nonbinary", "non-binary", "other":
		return NonBinary
	default:
		return Unspecified
	}
}
