package unisimd

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tetratelabs/unisimd/api"
)

func TestHostConfig(t *testing.T) {
	tests := []struct {
		name     string
		host     hostCPU
		features api.Feature
		fma      api.Tier
		order    binary.ByteOrder
	}{
		{
			name:     "avx",
			host:     hostCPU{arch: "amd64", avx: true},
			features: api.FeaturesAMD64,
			fma:      api.TierFallback,
			order:    binary.LittleEndian,
		},
		{
			name:     "avx2 fma",
			host:     hostCPU{arch: "amd64", avx: true, avx2: true, fma: true},
			features: api.FeaturesAMD64 | api.FeatureAVX2 | api.FeatureFMA,
			fma:      api.TierNative,
			order:    binary.LittleEndian,
		},
		{
			name:     "avx512",
			host:     hostCPU{arch: "amd64", avx: true, avx2: true, fma: true, x512: true},
			features: api.FeaturesAMD64 | api.FeatureAVX2 | api.FeatureFMA | api.FeatureAVX512,
			fma:      api.TierNative,
			order:    binary.LittleEndian,
		},
		{
			name:     "power9 little endian",
			host:     hostCPU{arch: "ppc64le", power8: true, power9: true},
			features: api.FeaturesPower | api.FeaturePower9,
			order:    binary.LittleEndian,
		},
		{
			name:     "power8 big endian",
			host:     hostCPU{arch: "ppc64", power8: true},
			features: api.FeaturesPower,
			order:    binary.BigEndian,
		},
	}

	for _, tt := range tests {
		tc := tt

		t.Run(tc.name, func(t *testing.T) {
			ec, err := hostConfig(tc.host)
			require.NoError(t, err)
			c := ec.(*encoderConfig)
			require.Equal(t, tc.features, c.features)
			require.Equal(t, tc.fma, c.compat.FMA)
			require.Equal(t, tc.order, c.order)

			_, err = NewEncoder(ec)
			require.NoError(t, err)
		})
	}

	for _, h := range []hostCPU{{arch: "amd64"}, {arch: "ppc64le"}, {arch: "arm64"}} {
		_, err := hostConfig(h)
		require.ErrorIs(t, err, api.ErrInconsistentConfiguration, h.arch)
	}
}
