package unisimd

import (
	"encoding/binary"

	"github.com/sirupsen/logrus"

	"github.com/tetratelabs/unisimd/api"
	"github.com/tetratelabs/unisimd/internal/simd"
)

// RegisterFileLayout describes how the vector register file is split between callers and
// the encoder. See api.Layout.
type RegisterFileLayout = api.Layout

// Scratch are the memory regions an encoder uses for compatibility sequences. See
// api.Scratch.
type Scratch = api.Scratch

// EncoderConfig controls encoder behavior, with the default implementation as
// NewEncoderConfigAMD64 or NewEncoderConfigPower.
//
// EncoderConfig is immutable: every method returns a new value, leaving the receiver
// unchanged. Inconsistent combinations are reported by NewEncoder as
// api.ErrInconsistentConfiguration.
type EncoderConfig interface {
	// Family returns the instruction-set family code is emitted for.
	Family() api.Family

	// WithFeatures replaces the instruction-set extensions the target has. Defaults to
	// api.FeaturesAMD64 or api.FeaturesPower.
	WithFeatures(features api.Feature) EncoderConfig

	// WithFeature enables or disables one extension.
	WithFeature(feature api.Feature, enabled bool) EncoderConfig

	// WithCompat replaces the compatibility mode: one lowering tier per emulated operation
	// group, and the rounding of the extended precision FMA.
	WithCompat(compat api.Compat) EncoderConfig

	// WithFMR sets the rounding of the extended precision FMA. api.FMRHonorCurrent needs
	// the api.TierScalar FMA tier.
	WithFMR(mode api.FMRMode) EncoderConfig

	// WithByteOrder sets the byte order of Power instruction words and of the constant
	// pool. Defaults to little endian, the only order of x86-64.
	WithByteOrder(order binary.ByteOrder) EncoderConfig

	// WithLayout replaces the register file layout. The layout is copied.
	WithLayout(layout RegisterFileLayout) EncoderConfig

	// WithScratch replaces the scratch regions. Defaults to DefaultScratch of the general
	// purpose register 3 (rbx or r3).
	WithScratch(scratch Scratch) EncoderConfig

	// WithLogger sets the logger receiving debug entries about the catalogue and about
	// operations lowered by a compatibility sequence. Defaults to discarding them.
	WithLogger(logger logrus.FieldLogger) EncoderConfig

	// WithEnv applies the RT_SIMD_* overrides found by lookup, os.LookupEnv if nil:
	//
	//   - RT_SIMD_COMPAT_DIV, RT_SIMD_COMPAT_SQR, RT_SIMD_COMPAT_RCP, RT_SIMD_COMPAT_RSQ
	//     and RT_SIMD_COMPAT_FMA: "0" or "native", "1" or "fallback", "2" or "scalar".
	//   - RT_SIMD_COMPAT_FMR: "0" or "default", "1" or "honor-current-rounding".
	//   - RT_SIMD_ENDIAN: "big" or "little".
	//
	// Variables not found leave the configuration unchanged.
	WithEnv(lookup func(key string) (string, bool)) (EncoderConfig, error)
}

// DefaultScratch returns scratch regions laid out back to back from base: region A at
// +0, region B at +32 then the constant pool at +64.
func DefaultScratch(base api.Register) Scratch {
	return simd.DefaultScratch(base)
}

// DefaultLayout returns the register file layout of encoders for the family: 14 caller
// registers, the last two as hidden temporaries, and the mask in register 0.
func DefaultLayout(family api.Family) RegisterFileLayout {
	return simd.DefaultLayout(family)
}

// ConstantPool returns the image callers place at the constants scratch region.
func ConstantPool(order binary.ByteOrder) []byte {
	return simd.ConstantPool(order)
}

// ConstantPoolSize is the size in bytes of the ConstantPool image.
const ConstantPoolSize = simd.ConstantPoolSize

type encoderConfig struct {
	family   api.Family
	features api.Feature
	compat   api.Compat
	order    binary.ByteOrder
	layout   api.Layout
	scratch  api.Scratch
	logger   logrus.FieldLogger
}

// defaultScratchBase is the register DefaultScratch is based on when no scratch is
// configured.
var defaultScratchBase = api.GPR(3)

// amd64Config is the default of x86-64 encoders. The baseline has no FMA unit, so fused
// operations use the fallback tier until FeatureFMA is enabled along api.TierNative.
var amd64Config = &encoderConfig{
	family:   api.FamilyAMD64,
	features: api.FeaturesAMD64,
	compat:   api.Compat{FMA: api.TierFallback},
	order:    binary.LittleEndian,
	layout:   simd.DefaultLayout(api.FamilyAMD64),
	scratch:  simd.DefaultScratch(defaultScratchBase),
}

var powerConfig = &encoderConfig{
	family:   api.FamilyPower,
	features: api.FeaturesPower,
	order:    binary.LittleEndian,
	layout:   simd.DefaultLayout(api.FamilyPower),
	scratch:  simd.DefaultScratch(defaultScratchBase),
}

// NewEncoderConfigAMD64 returns the configuration of encoders for x86-64 with AVX and the
// x87 unit.
func NewEncoderConfigAMD64() EncoderConfig {
	return amd64Config.clone()
}

// NewEncoderConfigPower returns the configuration of encoders for little endian Power8.
func NewEncoderConfigPower() EncoderConfig {
	return powerConfig.clone()
}

// clone ensures all fields are copied, including the hidden registers of the layout.
func (c *encoderConfig) clone() *encoderConfig {
	ret := *c
	ret.layout = c.layout.Clone()
	return &ret
}

// Family implements EncoderConfig.Family
func (c *encoderConfig) Family() api.Family {
	return c.family
}

// WithFeatures implements EncoderConfig.WithFeatures
func (c *encoderConfig) WithFeatures(features api.Feature) EncoderConfig {
	ret := c.clone()
	ret.features = features
	return ret
}

// WithFeature implements EncoderConfig.WithFeature
func (c *encoderConfig) WithFeature(feature api.Feature, enabled bool) EncoderConfig {
	ret := c.clone()
	ret.features = ret.features.Set(feature, enabled)
	return ret
}

// WithCompat implements EncoderConfig.WithCompat
func (c *encoderConfig) WithCompat(compat api.Compat) EncoderConfig {
	ret := c.clone()
	ret.compat = compat
	return ret
}

// WithFMR implements EncoderConfig.WithFMR
func (c *encoderConfig) WithFMR(mode api.FMRMode) EncoderConfig {
	ret := c.clone()
	ret.compat.FMR = mode
	return ret
}

// WithByteOrder implements EncoderConfig.WithByteOrder
func (c *encoderConfig) WithByteOrder(order binary.ByteOrder) EncoderConfig {
	if order == nil {
		order = binary.LittleEndian
	}
	ret := c.clone()
	ret.order = order
	return ret
}

// WithLayout implements EncoderConfig.WithLayout
func (c *encoderConfig) WithLayout(layout RegisterFileLayout) EncoderConfig {
	ret := c.clone()
	ret.layout = layout.Clone()
	return ret
}

// WithScratch implements EncoderConfig.WithScratch
func (c *encoderConfig) WithScratch(scratch Scratch) EncoderConfig {
	ret := c.clone()
	ret.scratch = scratch
	return ret
}

// WithLogger implements EncoderConfig.WithLogger
func (c *encoderConfig) WithLogger(logger logrus.FieldLogger) EncoderConfig {
	ret := c.clone()
	ret.logger = logger
	return ret
}

// simdConfig returns the configuration of the internal encoder.
func (c *encoderConfig) simdConfig() simd.Config {
	return simd.Config{
		Family:   c.family,
		Features: c.features,
		Compat:   c.compat,
		Order:    c.order,
		Layout:   c.layout.Clone(),
		Scratch:  c.scratch,
		Logger:   c.logger,
	}
}
