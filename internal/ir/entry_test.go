package ir

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryWireForm(t *testing.T) {
	e := NewEntry([]Value{String("hello"), Int(5)}, nil, nil)

	data, err := json.Marshal(e)
	require.NoError(t, err)
	assert.Equal(t, `{"args":{"__":["hello",5]},"returns":null}`, string(data))
}

func TestEntryWireFormWithNamedAndExtra(t *testing.T) {
	e := NewEntry(
		[]Value{Int(1)},
		map[string]Value{"axis": Int(0)},
		String("3f2b8c1e-9d4a-4e6b-8a7c-1d2e3f4a5b6c"),
	)
	e.Extra = Object{"time": Float(1.5), "stack": String("main.go:12")}

	data, err := json.Marshal(e)
	require.NoError(t, err)
	assert.Equal(t,
		`{"args":{"__":[1],"axis":0},"returns":"3f2b8c1e-9d4a-4e6b-8a7c-1d2e3f4a5b6c","stack":"main.go:12","time":1.5}`,
		string(data))
}

func TestEntryUnmarshalRoundTrip(t *testing.T) {
	raw := `{"args":{"__":["a",[1,2]],"dtype":"float64"},"returns":{"shape":[2]},"elapsed":0.01}`

	var e Entry
	require.NoError(t, json.Unmarshal([]byte(raw), &e))

	assert.Equal(t, Array{String("a"), Array{Int(1), Int(2)}}, e.Args.Positional)
	assert.Equal(t, Object{"dtype": String("float64")}, e.Args.Named)
	assert.Equal(t, Object{"shape": Array{Int(2)}}, e.Returns)
	assert.Equal(t, Object{"elapsed": Float(0.01)}, e.Extra)

	out, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestEntryUnmarshalDefaults(t *testing.T) {
	var e Entry
	require.NoError(t, json.Unmarshal([]byte(`{"args":{}}`), &e))

	assert.Equal(t, Array{}, e.Args.Positional)
	assert.Nil(t, e.Args.Named)
	assert.Equal(t, Null{}, e.Returns)
}

func TestEntryUnmarshalMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not an object", `[1]`},
		{"missing args", `{"returns":null}`},
		{"args not object", `{"args":[1],"returns":null}`},
		{"positional not array", `{"args":{"__":"x"},"returns":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e Entry
			err := json.Unmarshal([]byte(tt.input), &e)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedEntry), "got %v", err)
		})
	}
}
