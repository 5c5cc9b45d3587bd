package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatNonFinite(t *testing.T) {
	assert.Equal(t, String("NaN"), FormatNonFinite(math.NaN()))
	assert.Equal(t, String("+Inf"), FormatNonFinite(math.Inf(1)))
	assert.Equal(t, String("-Inf"), FormatNonFinite(math.Inf(-1)))
}

func TestNormalizeStrings(t *testing.T) {
	v := Normalize(Array{String("cafe\u0301"), Int(1), Float(2.5), Bool(true), Null{}})
	assert.Equal(t, Array{String("caf\u00e9"), Int(1), Float(2.5), Bool(true), Null{}}, v)
	assert.Equal(t, "caf\u00e9", NormalizeKey("cafe\u0301"))
	assert.Equal(t, Null{}, Normalize(nil))
}

func TestNormalizeNonFiniteFloats(t *testing.T) {
	v := Normalize(Object{"mean": Float(math.NaN()), "hi": Float(math.Inf(1)), "lo": Float(math.Inf(-1))})
	assert.Equal(t, Object{"mean": String("NaN"), "hi": String("+Inf"), "lo": String("-Inf")}, v)

	_, err := MarshalCanonical(v)
	require.NoError(t, err)
}

func TestNormalizeMergesKeys(t *testing.T) {
	v := Normalize(Object{
		"cafe\u0301": Int(1),
		"caf\u00e9":  Int(2),
		"other":      Object{"ne\u0301e": String("x")},
	})
	assert.Equal(t, Object{
		"caf\u00e9": Int(2),
		"other":     Object{"n\u00e9e": String("x")},
	}, v)
}

func TestEntryNormalize(t *testing.T) {
	e := NewEntry(
		[]Value{String("cafe\u0301"), Float(math.NaN())},
		map[string]Value{"na\u0308me": String("ok")},
		Float(math.Inf(-1)),
	)
	e.Extra = Object{"note": String("e\u0301")}

	got := e.Normalize()
	assert.Equal(t, Array{String("caf\u00e9"), String("NaN")}, got.Args.Positional)
	assert.Equal(t, Object{"n\u00e4me": String("ok")}, got.Args.Named)
	assert.Equal(t, String("-Inf"), got.Returns)
	assert.Equal(t, Object{"note": String("\u00e9")}, got.Extra)

	empty := NewEntry(nil, nil, nil).Normalize()
	assert.Nil(t, empty.Args.Positional)
	assert.Nil(t, empty.Args.Named)
	assert.Equal(t, Null{}, empty.Returns)
}
