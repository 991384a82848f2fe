// Package model holds the tree a melody is rewritten in before rendering:
// a Stream of Bars, each Bar a list of quarter-note Beats, each Beat an
// ordered list of Events.
//
// Containers own their children in sorted slices; children keep a pointer
// to their parent and their own index, so every neighbour lookup is an
// index operation. Bars record the last pipeline pass they completed and
// panic when a pass is run out of order. A frozen stream panics on any
// structural change.
package model
