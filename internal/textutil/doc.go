// Package textutil provides text helpers shared across podenrich packages:
// filename sanitization for scratch files and rune-safe truncation for
// warehouse column limits.
package textutil
