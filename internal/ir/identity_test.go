package ir

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestParseIdentity(t *testing.T) {
	valid := uuid.NewString()

	tests := []struct {
		name   string
		input  string
		wantOK bool
		want   string
	}{
		{"canonical", valid, true, valid},
		{"uppercase", "3F2B8C1E-9D4A-4E6B-8A7C-1D2E3F4A5B6C", true, "3f2b8c1e-9d4a-4e6b-8a7c-1d2e3f4a5b6c"},
		{"plain word", "hello", false, ""},
		{"empty", "", false, ""},
		{"no hyphens", "3f2b8c1e9d4a4e6b8a7c1d2e3f4a5b6c", false, ""},
		{"braced", "{3f2b8c1e-9d4a-4e6b-8a7c-1d2e3f4a5b6c}", false, ""},
		{"urn", "urn:uuid:3f2b8c1e-9d4a-4e6b-8a7c-1d2e3f4a5b6c", false, ""},
		{"right length, bad hex", "zzzzzzzz-9d4a-4e6b-8a7c-1d2e3f4a5b6c", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseIdentity(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIdentityOf(t *testing.T) {
	id := uuid.NewString()

	got, ok := IdentityOf(String(id))
	assert.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = IdentityOf(Int(5))
	assert.False(t, ok)

	_, ok = IdentityOf(Null{})
	assert.False(t, ok)
}
