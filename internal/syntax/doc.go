// Package syntax implements the compiled rule graphs and the line
// scanner that drive syntax highlighting.
//
// A Graph is an immutable state machine compiled from a syntax
// definition: named states, each with an ordered condition list and a
// default action. States are interned and addressed by StateID, so
// state identity is plain handle equality. Colors are opaque handles
// assigned at compile time; mapping them to terminal styles happens in
// the renderer's theme layer.
//
// A Scanner turns (start state, line bytes) into one Color per byte
// plus the state at the end of the line. Scanning is byte-oriented and
// has no Unicode awareness; multi-byte sequences are handled by the
// graph's own byte classes. The incremental per-buffer cache built on
// top of the scanner lives in the hlcache subpackage; the syntax-file
// compiler lives in synfile.
package syntax
