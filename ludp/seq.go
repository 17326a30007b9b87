// Copyright (C) 2026 the Contributors. All rights reserved. Use of this
// source code is governed by an MIT-style license that can be found in the
// LICENSE file.

package ludp

// Sequence numbers wrap at 2^32 and 2^8 (spec.md §9 "Wrap-around sequence
// arithmetic"); every comparison below is an unsigned wrap-safe difference,
// never a signed compare.

// inWindow reports whether seq falls in the half-open window
// [start, start+length), correctly across a uint32 wrap.
func inWindow(seq, start, length uint32) bool {
	return seq-start < length
}

// withinQ reports whether the unsigned wrap distance from a to b is at
// most q-1, the bound spec.md §4.3 uses for SYNC cursor acceptance.
func withinQ(a, b uint32, q uint32) bool {
	return b-a <= q-1
}

// counterGapOK reports whether the (mod 256) gap from prev to cur is
// strictly within (0, bound) — monotonic and not an absurd jump, spec.md
// §4.3's SYNC counter check.
func counterGapOK(prev, cur uint8, bound uint8) bool {
	gap := cur - prev
	return gap > 0 && gap < bound
}
