// Package index provides the archive index model and its text encoding.
//
// An index is an ordered tree of labeled nodes. Each node carries one of
// three content variants: a nested [Tree] (a directory), a [Range] into the
// archive blob (a file), or [Absent] (no payload). The set of variants is
// closed; every consumer switches over all three.
//
// The text encoding is compact JSON: objects for trees, two-element arrays
// for ranges and null for absent content. Member order is the tree order,
// so duplicate labels survive a round trip.
package index
