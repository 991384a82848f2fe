// Package render turns a processed, frozen model.Stream into LilyPond
// tokens: one token per event, \tuplet brackets around beats with a
// tuplet factor other than 1, and \time, \partial and | between bars.
package render
