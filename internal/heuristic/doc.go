// Package heuristic scores the structure of a normalized URL without any
// network I/O. Checks are weighted, additive, and independent; weights are
// policy values with shipped defaults that callers may override. The global
// clamp into [0,100] happens at composition, not here.
package heuristic
