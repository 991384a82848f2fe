// Package partition cuts an event span into pieces at beat and bar
// boundaries and splits each piece into tied atomic chunks, every chunk
// tagged with the tuplet factor its notated value needs.
package partition
