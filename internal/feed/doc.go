// Package feed fetches podcast RSS or Atom feeds and turns entries that carry
// audio into episode descriptors.
//
// An entry's audio URL is the first link whose declared type starts with
// "audio/", falling back to the first such enclosure. Entries without either
// are dropped and never reach the pipeline. Feed order is preserved.
package feed
