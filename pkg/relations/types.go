package relations

import (
	"strings"

	"golang.org/x/text/cases"
)

// Type is a canonical, genderless relationship type. Any value outside
// the known vocabulary is a custom type such as "mother-in-law".
type Type string

// Canonical relationship types.
const (
	Parent      Type = "parent"
	Child       Type = "child"
	Sibling     Type = "sibling"
	Spouse      Type = "spouse"
	Partner     Type = "partner"
	Friend      Type = "friend"
	Colleague   Type = "colleague"
	Relative    Type = "relative"
	Auncle      Type = "auncle"
	Nibling     Type = "nibling"
	Grandparent Type = "grandparent"
	Grandchild  Type = "grandchild"
	Cousin      Type = "cousin"
)

// String returns the type label.
func (t Type) String() string {
	return string(t)
}

// Term is one gendered word of the vocabulary.
type Term struct {
	Word   string
	Type   Type
	Gender Gender
}

// variants holds the masculine and feminine words of a gendered type.
type variants struct {
	male   string
	female string
}

var known = []Type{
	Parent, Child, Sibling, Spouse, Partner, Friend, Colleague,
	Relative, Auncle, Nibling, Grandparent, Grandchild, Cousin,
}

var gendered = map[Type]variants{
	Parent:      {male: "father", female: "mother"},
	Child:       {male: "son", female: "daughter"},
	Sibling:     {male: "brother", female: "sister"},
	Spouse:      {male: "husband", female: "wife"},
	Auncle:      {male: "uncle", female: "aunt"},
	Nibling:     {male: "nephew", female: "niece"},
	Grandparent: {male: "grandfather", female: "grandmother"},
	Grandchild:  {male: "grandson", female: "granddaughter"},
}

var reciprocals = map[Type]Type{
	Parent:      Child,
	Child:       Parent,
	Grandparent: Grandchild,
	Grandchild:  Grandparent,
	Auncle:      Nibling,
	Nibling:     Auncle,
	Sibling:     Sibling,
	Spouse:      Spouse,
	Partner:     Partner,
	Friend:      Friend,
	Colleague:   Colleague,
	Relative:    Relative,
	Cousin:      Cousin,
}

// terms indexes every gendered word by its folded form.
var terms = func() map[string]Term {
	m := make(map[string]Term, 2*len(gendered))
	for t, v := range gendered {
		m[v.male] = Term{Word: v.male, Type: t, Gender: Male}
		m[v.female] = Term{Word: v.female, Type: t, Gender: Female}
	}
	return m
}()

var knownSet = func() map[Type]bool {
	m := make(map[Type]bool, len(known))
	for _, t := range known {
		m[t] = true
	}
	return m
}()

// keySyntax replaces the characters that delimit a RELATED[...] key.
var keySyntax = strings.NewReplacer(":", "-", "[", "-", "]", "-")

// Normalize folds case and joins whitespace-separated words with hyphens,
// so "Mother in Law" becomes "mother-in-law". Colons and brackets also
// become hyphens so every type fits inside a frontmatter key.
func Normalize(term string) string {
	return keySyntax.Replace(strings.Join(strings.Fields(cases.Fold().String(term)), "-"))
}

// Canonicalize maps a term to its canonical type and the gender the term
// implies. Neutral and custom terms imply Unspecified. An empty term
// yields an empty type.
func Canonicalize(term string) (Type, Gender) {
	word := Normalize(term)
	if t, ok := terms[word]; ok {
		return t.Type, t.Gender
	}
	return Type(word), Unspecified
}

// Render returns the word for t in the given gender. Types without
// gendered variants, custom types, and NonBinary or Unspecified genders
// all render as the canonical label.
func Render(t Type, g Gender) string {
	v, ok := gendered[t]
	if !ok {
		return string(t)
	}
	switch g {
	case Male:
		return v.male
	case Female:
		return v.female
	default:
		return string(t)
	}
}

// ReciprocalOf returns the type the target of a t edge holds back toward
// the source. Custom types have no reciprocal.
func ReciprocalOf(t Type) (Type, bool) {
	rt, ok := reciprocals[t]
	return rt, ok
}

// IsSymmetric reports whether t is its own reciprocal.
func IsSymmetric(t Type) bool {
	rt, ok := reciprocals[t]
	return ok && rt == t
}

// IsCustom reports whether t lies outside the canonical vocabulary.
func IsCustom(t Type) bool {
	return !knownSet[t]
}

// IsGendered reports whether t has masculine and feminine variants.
func IsGendered(t Type) bool {
	_, ok := gendered[t]
	return ok
}

// Known returns the canonical vocabulary in declaration order.
func Known() []Type {
	out := make([]Type, len(known))
	copy(out, known)
	return out
}

// GenderedTerms returns every gendered word, masculine before feminine,
// in vocabulary order.
func GenderedTerms() []Term {
	var out []Term
	for _, t := range known {
		if v, ok := gendered[t]; ok {
			out = append(out,
				Term{Word: v.male, Type: t, Gender: Male},
				Term{Word: v.female, Type: t, Gender: Female},
			)
		}
	}
	return out
}
