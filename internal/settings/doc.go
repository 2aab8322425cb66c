// Package settings resolves effective acquisition profiles for catalog
// titles.
//
// A profile merges three layers in fixed precedence: explicit per-title
// values, rendered global templates, and global defaults. Query synthesis
// can OR-combine a title's name variants and synonyms; preferred
// resolutions are validated against the closed token set with 4K aliasing
// 2160P. Resolution never mutates stored state.
package settings
