// Package sanitizer normalizes user and catalogue input before validation and
// storage.
//
// All normalization functions are idempotent. Invalid input yields an empty
// value rather than an error.
//
// Normalization includes:
//   - Phone numbers: E.164 format (+[country][number]), French numbers by default
//   - Image URLs: trimmed and de-duplicated, otherwise kept verbatim
//   - Strings: collapse whitespace, trim leading/trailing spaces
//   - Amenities: lowercase, deduplicated
//   - Prices: rounded to cents
package sanitizer
