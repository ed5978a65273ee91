// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wavecheck

import "fmt"

// Op identifies one wave operation under test. The numeric value is the
// selector compiled into the kernel program as TEST_ID.
type Op uint32

const (
	// OpGetLaneCount returns the wave size on every lane.
	OpGetLaneCount Op = iota
	// OpGetLaneIndex returns the lane's position within its wave.
	OpGetLaneIndex
	// OpIsFirstLane is 1 only on the lowest-indexed active lane.
	OpIsFirstLane
	// OpActiveAnyTrue is 1 iff some active lane's predicate holds.
	OpActiveAnyTrue
	// OpActiveAllTrue is 1 iff every active lane's predicate holds.
	OpActiveAllTrue
	// OpActiveBallot is the 128-bit mask of active lanes whose predicate holds.
	OpActiveBallot
	// OpReadLaneAt broadcasts the value of a fixed lane to the whole wave.
	OpReadLaneAt
	// OpReadLaneFirst broadcasts the value of the lowest active lane.
	OpReadLaneFirst
	// OpActiveAllEqual is 1 iff all active lanes hold the same value.
	OpActiveAllEqual
	// OpActiveBitAnd is the bitwise AND over active lanes.
	OpActiveBitAnd
	// OpActiveBitOr is the bitwise OR over active lanes.
	OpActiveBitOr
	// OpActiveBitXor is the bitwise XOR over active lanes.
	OpActiveBitXor
	// OpActiveCountBits counts active lanes whose predicate holds.
	OpActiveCountBits
	// OpActiveMax is the signed maximum over active lanes.
	OpActiveMax
	// OpActiveMin is the signed minimum over active lanes.
	OpActiveMin
	// OpActiveProduct is the wrapping signed product over active lanes.
	OpActiveProduct
	// OpActiveSum is the wrapping signed sum over active lanes.
	OpActiveSum
	// OpPrefixCountBits is the exclusive prefix count of predicate bits.
	OpPrefixCountBits
	// OpPrefixSum is the exclusive prefix sum over active lanes.
	OpPrefixSum
	// OpPrefixProduct is the exclusive prefix product over active lanes.
	OpPrefixProduct
	// OpIntegration chains Sum, Product, CountBits and Ballot in one kernel.
	OpIntegration

	// OpCount is the number of operations.
	OpCount
)

var opNames = [OpCount]string{
	OpGetLaneCount:    "GetLaneCount",
	OpGetLaneIndex:    "GetLaneIndex",
	OpIsFirstLane:     "IsFirstLane",
	OpActiveAnyTrue:   "ActiveAnyTrue",
	OpActiveAllTrue:   "ActiveAllTrue",
	OpActiveBallot:    "ActiveBallot",
	OpReadLaneAt:      "ReadLaneAt",
	OpReadLaneFirst:   "ReadLaneFirst",
	OpActiveAllEqual:  "ActiveAllEqual",
	OpActiveBitAnd:    "ActiveBitAnd",
	OpActiveBitOr:     "ActiveBitOr",
	OpActiveBitXor:    "ActiveBitXor",
	OpActiveCountBits: "ActiveCountBits",
	OpActiveMax:       "ActiveMax",
	OpActiveMin:       "ActiveMin",
	OpActiveProduct:   "ActiveProduct",
	OpActiveSum:       "ActiveSum",
	OpPrefixCountBits: "PrefixCountBits",
	OpPrefixSum:       "PrefixSum",
	OpPrefixProduct:   "PrefixProduct",
	OpIntegration:     "Integration",
}

// String returns the operation name.
func (o Op) String() string {
	if o < OpCount {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", uint32(o))
}

// Valid reports whether o is a registered operation.
func (o Op) Valid() bool {
	return o < OpCount
}

// ParseOp returns the Op with the given name.
func ParseOp(name string) (Op, error) {
	for i, n := range opNames {
		if n == name {
			return Op(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOp, name)
}

// Category groups operations for reporting.
type Category uint8

const (
	CategoryQuery Category = iota
	CategoryVote
	CategoryBroadcast
	CategoryReduction
	CategoryScan
	CategoryIntegration
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryQuery:
		return "query"
	case CategoryVote:
		return "vote"
	case CategoryBroadcast:
		return "broadcast"
	case CategoryReduction:
		return "reduction"
	case CategoryScan:
		return "scan"
	case CategoryIntegration:
		return "integration"
	default:
		return fmt.Sprintf("Category(%d)", uint8(c))
	}
}

// Scope says whether a kernel produces one result per wave or per lane.
type Scope uint8

const (
	// PerLane results have NumWaves*WaveSize units.
	PerLane Scope = iota
	// PerWave results have NumWaves units.
	PerWave
)

// String returns the scope name.
func (s Scope) String() string {
	if s == PerWave {
		return "wave"
	}
	return "lane"
}

// Shape is the declared layout of both buffers of an OutputPair.
type Shape struct {
	Scope Scope
	// Components is the number of 32-bit words per unit.
	Components int
}

// Len returns the number of words the shape occupies for cfg.
func (s Shape) Len(cfg Config) int {
	units := cfg.NumWaves
	if s.Scope == PerLane {
		units = cfg.Lanes()
	}
	return units * s.Components
}

// Stride returns the number of words one wave occupies.
func (s Shape) Stride(waveSize int) int {
	if s.Scope == PerLane {
		return waveSize * s.Components
	}
	return s.Components
}

// MaxWaveComponents is the widest per-wave result (Integration).
const MaxWaveComponents = 6

// Descriptor describes the kernel bound to an Op.
type Descriptor struct {
	Op       Op
	Category Category
	Shape    Shape
	// NeedsInput is set when the kernel reads the input buffer.
	NeedsInput bool
	// Constants is the number of constant words the kernel reads.
	Constants int
}

// Name returns the operation name.
func (d Descriptor) Name() string { return d.Op.String() }

// Selector returns the compile-time operation identifier.
func (d Descriptor) Selector() uint32 { return uint32(d.Op) }

// OutputLen returns the length of each output buffer for cfg.
func (d Descriptor) OutputLen(cfg Config) int { return d.Shape.Len(cfg) }

var (
	laneShape   = Shape{Scope: PerLane, Components: 1}
	waveShape   = Shape{Scope: PerWave, Components: 1}
	ballotShape = Shape{Scope: PerWave, Components: 4}
	chainShape  = Shape{Scope: PerWave, Components: MaxWaveComponents}
)

var descriptors = [OpCount]Descriptor{
	OpGetLaneCount:    {OpGetLaneCount, CategoryQuery, laneShape, false, 0},
	OpGetLaneIndex:    {OpGetLaneIndex, CategoryQuery, laneShape, false, 0},
	OpIsFirstLane:     {OpIsFirstLane, CategoryQuery, laneShape, false, 0},
	OpActiveAnyTrue:   {OpActiveAnyTrue, CategoryVote, waveShape, true, 1},
	OpActiveAllTrue:   {OpActiveAllTrue, CategoryVote, waveShape, true, 1},
	OpActiveBallot:    {OpActiveBallot, CategoryVote, ballotShape, true, 1},
	OpReadLaneAt:      {OpReadLaneAt, CategoryBroadcast, laneShape, true, 1},
	OpReadLaneFirst:   {OpReadLaneFirst, CategoryBroadcast, laneShape, true, 0},
	OpActiveAllEqual:  {OpActiveAllEqual, CategoryReduction, waveShape, true, 0},
	OpActiveBitAnd:    {OpActiveBitAnd, CategoryReduction, waveShape, true, 0},
	OpActiveBitOr:     {OpActiveBitOr, CategoryReduction, waveShape, true, 0},
	OpActiveBitXor:    {OpActiveBitXor, CategoryReduction, waveShape, true, 0},
	OpActiveCountBits: {OpActiveCountBits, CategoryReduction, waveShape, true, 1},
	OpActiveMax:       {OpActiveMax, CategoryReduction, waveShape, true, 0},
	OpActiveMin:       {OpActiveMin, CategoryReduction, waveShape, true, 0},
	OpActiveProduct:   {OpActiveProduct, CategoryReduction, waveShape, true, 0},
	OpActiveSum:       {OpActiveSum, CategoryReduction, waveShape, true, 0},
	OpPrefixCountBits: {OpPrefixCountBits, CategoryScan, laneShape, true, 1},
	OpPrefixSum:       {OpPrefixSum, CategoryScan, laneShape, true, 0},
	OpPrefixProduct:   {OpPrefixProduct, CategoryScan, laneShape, true, 0},
	OpIntegration:     {OpIntegration, CategoryIntegration, chainShape, true, 0},
}

// Describe returns the descriptor registered for op.
func Describe(op Op) (Descriptor, error) {
	if !op.Valid() {
		return Descriptor{}, fmt.Errorf("%w: %d", ErrUnknownOp, uint32(op))
	}
	return descriptors[op], nil
}

// Descriptors returns every registered descriptor in selector order.
func Descriptors() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors[:])
	return out
}

// Identity returns the per-wave result an operation produces on a wave with
// no active lanes. Per-lane operations return nil.
func Identity(op Op) []uint32 {
	switch op {
	case OpActiveAnyTrue, OpActiveBitOr, OpActiveBitXor, OpActiveCountBits, OpActiveSum:
		return []uint32{0}
	case OpActiveAllTrue, OpActiveAllEqual, OpActiveProduct:
		return []uint32{1}
	case OpActiveBitAnd:
		return []uint32{^uint32(0)}
	case OpActiveMax:
		return []uint32{0x80000000}
	case OpActiveMin:
		return []uint32{0x7fffffff}
	case OpActiveBallot:
		return []uint32{0, 0, 0, 0}
	case OpIntegration:
		return []uint32{0, 1, 0, 0, 0, 0}
	default:
		return nil
	}
}
