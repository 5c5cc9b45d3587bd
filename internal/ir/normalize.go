package ir

import (
	"math"

	"golang.org/x/text/unicode/norm"
)

// FormatNonFinite renders NaN and the infinities, which JSON cannot carry.
func FormatNonFinite(f float64) String {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "+Inf"
	default:
		return "-Inf"
	}
}

// NormalizeKey returns s in Unicode NFC form.
func NormalizeKey(s string) string {
	return norm.NFC.String(s)
}

// Normalize returns v with every string and object key in NFC form and
// every non-finite Float replaced by its FormatNonFinite string.
//
// MarshalCanonical writes strings exactly as given, so values passed
// through Normalize before they are stored read back unchanged.
//
// Keys that only differ in normalization are merged. The key already in
// NFC form wins, otherwise the first in sorted order.
func Normalize(v Value) Value {
	switch val := v.(type) {
	case nil:
		return Null{}
	case String:
		return String(norm.NFC.String(string(val)))
	case Float:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return FormatNonFinite(f)
		}
		return val
	case Array:
		if val == nil {
			return val
		}
		out := make(Array, len(val))
		for i, elem := range val {
			out[i] = Normalize(elem)
		}
		return out
	case Object:
		return normalizeObject(val)
	default:
		return v
	}
}

func normalizeObject(obj Object) Object {
	if obj == nil {
		return nil
	}
	out := make(Object, len(obj))
	exact := make(map[string]bool, len(obj))
	for _, k := range obj.SortedKeys() {
		nk := norm.NFC.String(k)
		isNFC := nk == k
		if _, seen := out[nk]; seen && (exact[nk] || !isNFC) {
			continue
		}
		out[nk] = Normalize(obj[k])
		exact[nk] = isNFC
	}
	return out
}

// Normalize applies Normalize to every value the entry carries.
func (e Entry) Normalize() Entry {
	return Entry{
		Args: Args{
			Positional: Normalize(e.Args.Positional).(Array),
			Named:      normalizeObject(e.Args.Named),
		},
		Returns: Normalize(e.Returns),
		Extra:   normalizeObject(e.Extra),
	}
}
