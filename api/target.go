package api

import (
	"fmt"
	"strings"
)

// Family is an instruction-set family an encoder emits code for.
type Family byte

const (
	// FamilyAMD64 is x86-64 with AVX.
	FamilyAMD64 Family = iota + 1
	// FamilyPower is 64-bit Power with VMX and VSX.
	FamilyPower
)

// String implements fmt.Stringer.
func (f Family) String() string {
	switch f {
	case FamilyAMD64:
		return "amd64"
	case FamilyPower:
		return "power"
	}
	return fmt.Sprintf("family(%d)", byte(f))
}

// Feature is a bit set of optional instruction-set extensions.
type Feature uint32

const (
	// FeatureAVX is the x86-64 baseline: 128 and 256-bit VEX encoded float operations.
	FeatureAVX Feature = 1 << iota
	// FeatureAVX2 adds 256-bit integer operations and per-lane variable shifts.
	FeatureAVX2
	// FeatureFMA adds the fused multiply-add (FMA3) instructions.
	FeatureFMA
	// FeatureAVX512 adds the EVEX encoded 64-bit lane operations (F, DQ and VL subsets).
	FeatureAVX512
	// FeatureX87 is the x87 unit, used for extended precision fused multiply-add.
	FeatureX87
	// FeaturePower8 is the Power baseline: VMX and VSX of ISA 2.07.
	FeaturePower8
	// FeaturePower9 is ISA 3.0.
	FeaturePower9
	// FeaturePower10 is ISA 3.1: vector integer divide and 64-bit lane multiply.
	FeaturePower10

	featureEnd
)

// FeaturesAMD64 are the features of every x86-64 target this module emits code for.
const FeaturesAMD64 = FeatureAVX | FeatureX87

// FeaturesPower are the features of every Power target this module emits code for.
const FeaturesPower = FeaturePower8

var featureNames = [...]string{"avx", "avx2", "fma", "avx512", "x87", "power8", "power9", "power10"}

// Has reports whether every feature of want is set.
func (f Feature) Has(want Feature) bool {
	return f&want == want
}

// Set returns the set with the features of feature enabled or disabled.
func (f Feature) Set(feature Feature, enabled bool) Feature {
	if enabled {
		return f | feature
	}
	return f &^ feature
}

// String implements fmt.Stringer. Features are joined by '|'.
func (f Feature) String() string {
	var names []string
	for i, name := range featureNames {
		if f&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	if rest := f &^ (featureEnd - 1); rest != 0 {
		names = append(names, fmt.Sprintf("%#x", uint32(rest)))
	}
	return strings.Join(names, "|")
}

// Tier selects how an operation is lowered when the target can do it several ways.
type Tier byte

const (
	// TierNative uses the vector instruction of the target.
	TierNative Tier = iota
	// TierFallback emulates the operation with other vector instructions.
	TierFallback
	// TierScalar processes each lane with scalar instructions through scratch memory.
	TierScalar
)

// String implements fmt.Stringer.
func (t Tier) String() string {
	switch t {
	case TierNative:
		return "native"
	case TierFallback:
		return "fallback"
	case TierScalar:
		return "scalar"
	}
	return fmt.Sprintf("tier(%d)", byte(t))
}

// UnmarshalText accepts the numeric and the named form of a tier: "0" or "native",
// "1" or "fallback", "2" or "scalar".
func (t *Tier) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "0", "native":
		*t = TierNative
	case "1", "fallback":
		*t = TierFallback
	case "2", "scalar":
		*t = TierScalar
	default:
		return fmt.Errorf("%w: unknown tier %q", ErrInconsistentConfiguration, text)
	}
	return nil
}

// FMRMode selects the rounding of the extended precision fused multiply-add.
type FMRMode byte

const (
	// FMRDefault rounds to nearest, whatever the current vector rounding mode.
	FMRDefault FMRMode = iota
	// FMRHonorCurrent rounds with the current vector rounding mode.
	FMRHonorCurrent
)

// String implements fmt.Stringer.
func (m FMRMode) String() string {
	switch m {
	case FMRDefault:
		return "default"
	case FMRHonorCurrent:
		return "honor-current-rounding"
	}
	return fmt.Sprintf("fmr(%d)", byte(m))
}

// UnmarshalText accepts "0" or "default", and "1" or "honor-current-rounding".
func (m *FMRMode) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "0", "default":
		*m = FMRDefault
	case "1", "honor-current-rounding":
		*m = FMRHonorCurrent
	default:
		return fmt.Errorf("%w: unknown rounding mode %q", ErrInconsistentConfiguration, text)
	}
	return nil
}

// Compat is the compatibility mode: one tier per emulated operation group.
type Compat struct {
	Div   Tier
	Sqrt  Tier
	Rcp   Tier
	Rsqrt Tier
	// FMA covers both FMA and FMS.
	FMA Tier
	FMR FMRMode
}

// Layout describes how the register file is split between callers and the encoder.
// Register numbers are logical indexes: on Power a 256-bit register n is the pair of
// vector registers n and n+16.
type Layout struct {
	// Vectors is the number of vector registers callers may use, starting at zero.
	Vectors uint8
	// Hidden are the vector registers reserved for fallback temporaries, in save order.
	Hidden []uint8
	// Mask is the implicit mask register of MoveMasked.
	Mask uint8
	// SlotSize is the distance in bytes between registers saved by SaveAll.
	SlotSize int64
	// Alignment is the alignment in bytes of scratch regions.
	Alignment int64
	// TP is the general purpose register staging addresses and displacements.
	TP uint8
	// TM is the alternate staging register, used when TP is part of the operand.
	TM uint8
	// LaneTemps are the general purpose registers used by per-lane scalar code on Power.
	// On x86-64 per-lane code uses rax, rcx and rdx, saved around the sequence.
	LaneTemps [2]uint8
	// FPTemps are the floating point registers used by per-lane scalar code and to save
	// the FPSCR on Power.
	FPTemps [2]uint8
}

// Clone returns a copy not sharing the Hidden slice.
func (l Layout) Clone() Layout {
	l.Hidden = append([]uint8(nil), l.Hidden...)
	return l
}

// Reserved reports whether the general purpose register r is reserved by the layout.
func (l Layout) Reserved(family Family, r uint8) bool {
	if r == l.TP || r == l.TM {
		return true
	}
	if family == FamilyPower {
		return r == 0 || r == l.LaneTemps[0] || r == l.LaneTemps[1]
	}
	// rax, rcx and rdx are clobbered by per-lane code.
	return r <= 2
}

// Slots returns the number of registers SaveAll stores.
func (l Layout) Slots() int {
	return int(l.Vectors) + len(l.Hidden)
}

// Scratch are the memory regions an encoder uses for fallback sequences. Each region is
// register-file wide and aligned to the layout alignment.
type Scratch struct {
	// Regions are the two staging areas A and B of the scalar round trip.
	Regions [2]Memory
	// Constants holds the image returned by the constant pool of the target.
	Constants Memory
}
