package unisimd

import (
	"encoding/binary"
	"fmt"
	"runtime"

	"golang.org/x/sys/cpu"

	"github.com/tetratelabs/unisimd/api"
)

// hostCPU are the capabilities of a processor relevant to the catalogue.
type hostCPU struct {
	arch                 string
	avx, avx2, fma, x512 bool
	power8, power9       bool
}

func detectHost() hostCPU {
	return hostCPU{
		arch:   runtime.GOARCH,
		avx:    cpu.X86.HasAVX,
		avx2:   cpu.X86.HasAVX2,
		fma:    cpu.X86.HasFMA,
		x512:   cpu.X86.HasAVX512F && cpu.X86.HasAVX512DQ && cpu.X86.HasAVX512VL,
		power8: cpu.PPC64.IsPOWER8,
		power9: cpu.PPC64.IsPOWER9,
	}
}

// NewEncoderConfigHost returns the configuration of encoders for the processor running
// this program: its family, byte order and extensions, with native fused operations when
// the processor has them.
//
// Power10 is not detected: enable it with WithFeature.
func NewEncoderConfigHost() (EncoderConfig, error) {
	return hostConfig(detectHost())
}

func hostConfig(h hostCPU) (EncoderConfig, error) {
	switch h.arch {
	case "amd64":
		if !h.avx {
			return nil, fmt.Errorf("%w: host processor has no %s", api.ErrInconsistentConfiguration, api.FeatureAVX)
		}
		c := amd64Config.clone()
		c.features = c.features.
			Set(api.FeatureAVX2, h.avx2).
			Set(api.FeatureFMA, h.fma).
			Set(api.FeatureAVX512, h.avx2 && h.x512)
		if h.fma {
			c.compat.FMA = api.TierNative
		}
		return c, nil
	case "ppc64", "ppc64le":
		if !h.power8 {
			return nil, fmt.Errorf("%w: host processor has no %s", api.ErrInconsistentConfiguration, api.FeaturePower8)
		}
		c := powerConfig.clone()
		c.features = c.features.Set(api.FeaturePower9, h.power9)
		if h.arch == "ppc64" {
			c.order = binary.BigEndian
		}
		return c, nil
	}
	return nil, fmt.Errorf("%w: no family for %s", api.ErrInconsistentConfiguration, h.arch)
}
