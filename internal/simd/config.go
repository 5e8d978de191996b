package simd

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/tetratelabs/unisimd/api"
)

// RegionSize is the size in bytes of each scratch region: one register of the widest file.
const RegionSize = 32

// Config is the immutable configuration an Encoder is built from.
type Config struct {
	Family   api.Family
	Features api.Feature
	Compat   api.Compat
	// Order is the byte order of Power instruction words and of the constant pool.
	Order   binary.ByteOrder
	Layout  api.Layout
	Scratch api.Scratch
	Logger  logrus.FieldLogger
}

// DefaultLayout returns the register file layout used when none is configured.
func DefaultLayout(family api.Family) api.Layout {
	switch family {
	case api.FamilyPower:
		return api.Layout{
			Vectors: 14, Hidden: []uint8{14, 15}, Mask: 0,
			SlotSize: RegionSize, Alignment: RegionSize,
			TP: 29, TM: 30, LaneTemps: [2]uint8{31, 28}, FPTemps: [2]uint8{30, 31},
		}
	default:
		return api.Layout{
			Vectors: 14, Hidden: []uint8{14, 15}, Mask: 0,
			SlotSize: RegionSize, Alignment: RegionSize,
			// r11 and r10.
			TP: 11, TM: 10,
		}
	}
}

// DefaultScratch returns scratch regions laid out back to back from the context register
// base: region A, region B, then the constant pool.
func DefaultScratch(base api.Register) api.Scratch {
	return api.Scratch{
		Regions:   [2]api.Memory{api.Mem(base, 0), api.Mem(base, RegionSize)},
		Constants: api.Mem(base, 2*RegionSize),
	}
}

func newDiscardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func inconsistent(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", api.ErrInconsistentConfiguration, fmt.Sprintf(format, args...))
}

const (
	featuresAMD64 = api.FeatureAVX | api.FeatureAVX2 | api.FeatureFMA | api.FeatureAVX512 | api.FeatureX87
	featuresPower = api.FeaturePower8 | api.FeaturePower9 | api.FeaturePower10
)

// Validate returns api.ErrInconsistentConfiguration when a tier depends on a feature the
// target lacks or when options contradict each other.
func (c *Config) Validate() error {
	switch c.Family {
	case api.FamilyAMD64:
		if err := c.validateAMD64(); err != nil {
			return err
		}
	case api.FamilyPower:
		if err := c.validatePower(); err != nil {
			return err
		}
	default:
		return inconsistent("unknown family %s", c.Family)
	}

	for _, t := range []api.Tier{c.Compat.Div, c.Compat.Sqrt, c.Compat.Rcp, c.Compat.Rsqrt, c.Compat.FMA} {
		if t > api.TierScalar {
			return inconsistent("unknown %s", t)
		}
	}
	switch c.Compat.FMR {
	case api.FMRDefault:
	case api.FMRHonorCurrent:
		if c.Compat.FMA != api.TierScalar {
			return inconsistent("rounding mode %s needs the %s FMA tier, not %s", c.Compat.FMR, api.TierScalar, c.Compat.FMA)
		}
	default:
		return inconsistent("unknown %s", c.Compat.FMR)
	}

	if err := c.validateLayout(); err != nil {
		return err
	}
	return c.validateScratch()
}

func (c *Config) validateAMD64() error {
	f := c.Features
	if other := f & featuresPower; other != 0 {
		return inconsistent("%s features on %s", other, c.Family)
	}
	if !f.Has(api.FeatureAVX) {
		return inconsistent("%s needs %s", c.Family, api.FeatureAVX)
	}
	if f.Has(api.FeatureAVX512) && !f.Has(api.FeatureAVX2) {
		return inconsistent("%s needs %s", api.FeatureAVX512, api.FeatureAVX2)
	}
	if c.Order == binary.BigEndian {
		return inconsistent("big endian byte order on %s", c.Family)
	}
	switch c.Compat.FMA {
	case api.TierNative:
		if !f.Has(api.FeatureFMA) {
			return inconsistent("%s FMA tier needs %s", api.TierNative, api.FeatureFMA)
		}
	case api.TierScalar:
		if !f.Has(api.FeatureX87) {
			return inconsistent("%s FMA tier needs %s", api.TierScalar, api.FeatureX87)
		}
	}
	return nil
}

func (c *Config) validatePower() error {
	f := c.Features
	if other := f & featuresAMD64; other != 0 {
		return inconsistent("%s features on %s", other, c.Family)
	}
	if !f.Has(api.FeaturePower8) {
		return inconsistent("%s needs %s", c.Family, api.FeaturePower8)
	}
	if f.Has(api.FeaturePower10) && !f.Has(api.FeaturePower9) {
		return inconsistent("%s needs %s", api.FeaturePower10, api.FeaturePower9)
	}
	if c.Compat.FMA == api.TierScalar {
		return inconsistent("%s FMA tier needs %s", api.TierScalar, api.FeatureX87)
	}
	return nil
}

func (c *Config) gprs() uint8 {
	if c.Family == api.FamilyPower {
		return 32
	}
	return 16
}

func (c *Config) validateLayout() error {
	l := &c.Layout
	if l.Vectors == 0 {
		return inconsistent("no vector register left to callers")
	}
	if len(l.Hidden) != 2 {
		return inconsistent("%d hidden registers, fallbacks need 2", len(l.Hidden))
	}
	if l.Hidden[0] == l.Hidden[1] {
		return inconsistent("hidden register %d listed twice", l.Hidden[0])
	}
	for _, h := range l.Hidden {
		// On Power the high halves of 256-bit registers live 16 registers up.
		if h < l.Vectors || h >= 16 {
			return inconsistent("hidden register %d overlaps the %d caller registers or is out of range", h, l.Vectors)
		}
	}
	if l.Mask >= l.Vectors {
		return inconsistent("mask register %d is not a caller register", l.Mask)
	}
	if l.SlotSize < RegionSize || l.SlotSize%RegionSize != 0 {
		return inconsistent("slot size %d is not a multiple of %d", l.SlotSize, RegionSize)
	}
	if l.Alignment <= 0 || l.Alignment&(l.Alignment-1) != 0 {
		return inconsistent("alignment %d is not a power of two", l.Alignment)
	}

	gprs := c.gprs()
	if l.TP == l.TM {
		return inconsistent("staging registers are both %d", l.TP)
	}
	for _, r := range []uint8{l.TP, l.TM} {
		if r >= gprs {
			return inconsistent("staging register %d out of range", r)
		}
	}
	if c.Family == api.FamilyPower {
		temps := []uint8{l.TP, l.TM, l.LaneTemps[0], l.LaneTemps[1]}
		for i, r := range temps {
			if r == 0 || r == 1 || r >= gprs {
				return inconsistent("reserved register r%d cannot be r0, r1 or out of range", r)
			}
			for _, o := range temps[i+1:] {
				if r == o {
					return inconsistent("reserved register r%d used twice", r)
				}
			}
		}
		if l.FPTemps[0] == l.FPTemps[1] || l.FPTemps[0] >= 32 || l.FPTemps[1] >= 32 {
			return inconsistent("floating point temporaries %v", l.FPTemps)
		}
	} else {
		for _, r := range []uint8{l.TP, l.TM} {
			// rsp cannot be an index, rax, rcx and rdx are clobbered by per-lane code.
			if r <= 2 || r == 4 {
				return inconsistent("staging register %d is rax, rcx, rdx or rsp", r)
			}
		}
	}
	return nil
}

type region struct {
	name string
	m    api.Memory
	size int64
}

func (c *Config) validateScratch() error {
	regions := []region{
		{name: "region A", m: c.Scratch.Regions[0], size: RegionSize},
		{name: "region B", m: c.Scratch.Regions[1], size: RegionSize},
		{name: "constants", m: c.Scratch.Constants, size: ConstantPoolSize},
	}
	for i, r := range regions {
		m := r.m
		if m.Mode != api.BaseOffset {
			return inconsistent("%s %s must be base+offset", r.name, m)
		}
		if err := m.Validate(int(c.gprs())); err != nil {
			return inconsistent("%s: %v", r.name, err)
		}
		if c.Layout.Reserved(c.Family, m.Base.Index) {
			return inconsistent("%s %s is based on a reserved register", r.name, m)
		}
		if m.Disp%c.Layout.Alignment != 0 {
			return inconsistent("%s %s is not aligned to %d", r.name, m, c.Layout.Alignment)
		}
		lo, hi := int64(math.MinInt32), int64(math.MaxInt32)
		if c.Family == api.FamilyPower {
			// Lanes are addressed with 16-bit displacements.
			lo, hi = math.MinInt16, math.MaxInt16
		}
		if m.Disp < lo || m.Disp+r.size-1 > hi {
			return inconsistent("%s %s is out of displacement range", r.name, m)
		}
		for _, o := range regions[:i] {
			if o.m.Base == m.Base && o.m.Disp < m.Disp+r.size && m.Disp < o.m.Disp+o.size {
				return inconsistent("%s %s overlaps %s %s", r.name, m, o.name, o.m)
			}
		}
	}
	return nil
}
