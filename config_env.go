package unisimd

import (
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	"github.com/mstoykov/envconfig"

	"github.com/tetratelabs/unisimd/api"
)

// envConfig holds the RT_SIMD_* overrides. It is filled from the configuration first, so
// that variables not found keep their value.
type envConfig struct {
	Div    api.Tier    `envconfig:"RT_SIMD_COMPAT_DIV"`
	Sqrt   api.Tier    `envconfig:"RT_SIMD_COMPAT_SQR"`
	Rcp    api.Tier    `envconfig:"RT_SIMD_COMPAT_RCP"`
	Rsqrt  api.Tier    `envconfig:"RT_SIMD_COMPAT_RSQ"`
	FMA    api.Tier    `envconfig:"RT_SIMD_COMPAT_FMA"`
	FMR    api.FMRMode `envconfig:"RT_SIMD_COMPAT_FMR"`
	Endian endianness  `envconfig:"RT_SIMD_ENDIAN"`
}

// endianness is a byte order read from its name.
type endianness struct {
	binary.ByteOrder
}

// UnmarshalText accepts "big" and "little".
func (e *endianness) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "big":
		e.ByteOrder = binary.BigEndian
	case "little":
		e.ByteOrder = binary.LittleEndian
	default:
		return fmt.Errorf("%w: unknown byte order %q", api.ErrInconsistentConfiguration, text)
	}
	return nil
}

// WithEnv implements EncoderConfig.WithEnv
func (c *encoderConfig) WithEnv(lookup func(key string) (string, bool)) (EncoderConfig, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	env := envConfig{
		Div:    c.compat.Div,
		Sqrt:   c.compat.Sqrt,
		Rcp:    c.compat.Rcp,
		Rsqrt:  c.compat.Rsqrt,
		FMA:    c.compat.FMA,
		FMR:    c.compat.FMR,
		Endian: endianness{c.order},
	}
	if err := envconfig.Process("", &env, lookup); err != nil {
		return nil, fmt.Errorf("%w: %v", api.ErrInconsistentConfiguration, err)
	}

	ret := c.clone()
	ret.compat = api.Compat{
		Div:   env.Div,
		Sqrt:  env.Sqrt,
		Rcp:   env.Rcp,
		Rsqrt: env.Rsqrt,
		FMA:   env.FMA,
		FMR:   env.FMR,
	}
	ret.order = env.Endian.ByteOrder
	return ret, nil
}
