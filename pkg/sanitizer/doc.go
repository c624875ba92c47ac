// Package sanitizer normalizes user-supplied booking data before validation
// and storage.
//
// All functions are idempotent and never fail: invalid input degrades to an
// empty or clamped value that validation then rejects.
//
// Normalization includes:
//   - Names: strip control characters, collapse whitespace, cap length
//   - Gender: upper-case and map common abbreviations (m, f) to MALE/FEMALE
//   - Cities: collapse whitespace and lower-case
//   - Base URLs and comma separated lists read from configuration
package sanitizer
