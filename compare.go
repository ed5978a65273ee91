// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wavecheck

// Equal reports whether a and b have the same length and identical words.
//
// Words are compared bit for bit. For Float32 data this is exact IEEE-754
// bit equality, which is only meaningful because every float case is a
// pass-through broadcast: neither path performs float arithmetic, so there
// is no accumulation order to disagree on.
func Equal(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Mismatch is one differing word of an OutputPair.
type Mismatch struct {
	Index    int    `json:"index" yaml:"index"`
	Emulated uint32 `json:"emulated" yaml:"emulated"`
	Native   uint32 `json:"native" yaml:"native"`
}

// Diff returns up to limit differing positions of emulated and native.
// Words past the shorter slice are reported against zero. A limit <= 0
// returns every mismatch.
func Diff(emulated, native []uint32, limit int) []Mismatch {
	n := max(len(emulated), len(native))
	var out []Mismatch
	for i := 0; i < n; i++ {
		var e, v uint32
		if i < len(emulated) {
			e = emulated[i]
		}
		if i < len(native) {
			v = native[i]
		}
		if e == v && i < len(emulated) && i < len(native) {
			continue
		}
		out = append(out, Mismatch{Index: i, Emulated: e, Native: v})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
