// Package model defines the core data types shared across LinkGuard:
// normalized URLs, fetch results, intelligence lookup outcomes, and the
// final risk report.
//
// All types in this package are plain data with no I/O. Entities are
// created fresh per analysis; nothing here holds process-wide state.
package model
