// Package table reads and writes the CSV tables of a rotation run: the input
// star list, the raw per-sector table, the per-star summary and the failure
// log.
//
// The raw table grows sideways: star i may have more sectors than any star
// before it. [RawWriter] keeps the current column set as explicit state,
// appends rows that fit it and rewrites the whole file atomically, padding
// older rows, when a row needs new columns. Empty cells stand for absent
// values.
package table
