// Package splitrand implements a splittable, deterministic pseudo-random
// generator in the SplitMix64 family.
//
// A Generator is a pair (seed, gamma). Each draw adds gamma to seed and runs
// the result through a 64-bit avalanche mix. Split derives two generators
// whose gammas are themselves mixed from the parent state, so any two
// generators in a split lineage walk different increments and their outputs
// do not line up.
//
// A Generator is not safe for concurrent use. Give each goroutine its own
// child from Split instead of sharing one:
//
//	root := splitrand.New(42)
//	left, right := root.Split()
//	go work(left)
//	go work(right)
package splitrand
