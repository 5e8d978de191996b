package api

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeature(t *testing.T) {
	f := FeaturesAMD64.Set(FeatureAVX2, true)
	require.True(t, f.Has(FeatureAVX|FeatureAVX2))
	require.False(t, f.Has(FeatureAVX2|FeatureFMA))
	require.Equal(t, FeaturesAMD64, f.Set(FeatureAVX2, false))
	require.Equal(t, "avx|avx2|x87", f.String())
	require.Equal(t, "power8|power10", (FeaturesPower | FeaturePower10).String())
}

func TestTier_UnmarshalText(t *testing.T) {
	for text, expected := range map[string]Tier{
		"0": TierNative, "native": TierNative,
		"1": TierFallback, "Fallback": TierFallback,
		"2": TierScalar, " scalar ": TierScalar,
	} {
		var tier Tier
		require.NoError(t, tier.UnmarshalText([]byte(text)))
		require.Equal(t, expected, tier, text)
	}

	var tier Tier
	require.ErrorIs(t, tier.UnmarshalText([]byte("3")), ErrInconsistentConfiguration)
}

func TestFMRMode_UnmarshalText(t *testing.T) {
	var m FMRMode
	require.NoError(t, m.UnmarshalText([]byte("honor-current-rounding")))
	require.Equal(t, FMRHonorCurrent, m)
	require.NoError(t, m.UnmarshalText([]byte("0")))
	require.Equal(t, FMRDefault, m)
	require.ErrorIs(t, m.UnmarshalText([]byte("up")), ErrInconsistentConfiguration)
}

func TestLayout(t *testing.T) {
	l := Layout{Vectors: 14, Hidden: []uint8{14, 15}, TP: 29, TM: 30, LaneTemps: [2]uint8{31, 28}}
	require.Equal(t, 16, l.Slots())

	c := l.Clone()
	c.Hidden[0] = 0
	require.Equal(t, uint8(14), l.Hidden[0])

	for _, r := range []uint8{0, 28, 29, 30, 31} {
		require.True(t, l.Reserved(FamilyPower, r), r)
	}
	require.False(t, l.Reserved(FamilyPower, 3))

	l.TP, l.TM = 11, 10
	for _, r := range []uint8{0, 1, 2, 10, 11} {
		require.True(t, l.Reserved(FamilyAMD64, r), r)
	}
	require.False(t, l.Reserved(FamilyAMD64, 3))
}
