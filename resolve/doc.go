// Package resolve decides which of several overlapping entities an address
// means. Casts and pointer revalidation both reduce to the same question:
// among the objects and representation elements occupying a byte, pick the
// one that makes the requested operation well-defined, preferring an exact
// type match, then whole objects over representation elements (elements are
// the fallback interpretation). The final tie-break between equally valid
// candidates is a swappable Policy; failure to find any well-defined
// candidate is reported as undefined behavior, never silently defaulted.
package resolve
