// Package engine renders melodies to LilyPond tokens.
//
// Rendering has three phases:
//
//  1. Build: events are validated and laid out in a model.Stream, one
//     Bar per bar number between the first and the last event.
//  2. Process: every bar, in ascending order, runs the fixed pass
//     pipeline fill_up_beats, set_virtual_durations, handle_non_atomics
//     and insert_rests. Splitting an event may push fragments into later
//     bars, which have not been processed yet; nothing ever flows back.
//  3. Render: the frozen stream is handed to package render.
//
// An Engine holds configuration only. Every call to Render owns its
// stream, so one Engine may be shared between goroutines.
//
// Errors are *ir.RenderError values. A duration that cannot be notated
// after processing is not an error: it is rendered as ir.FallbackSymbol
// and counted in Result.Fallbacks.
package engine
