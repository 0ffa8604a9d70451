// Package relations is the relationship-type catalog.
//
// Relationship types are stored in a canonical, genderless vocabulary
// (parent, sibling, auncle, ...). Gendered terms such as "mother" or
// "nephew" are accepted on input and produced on output, but never
// reach the graph. The catalog also knows which types are each other's
// reciprocal, which drives the consistency checker.
//
// Every function in this package is pure and safe for concurrent use.
package relations
