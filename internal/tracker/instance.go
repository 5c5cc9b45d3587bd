package tracker

import (
	"fmt"
	"reflect"
	"sort"
)

// Instance is a tracked runtime value.
//
// Addr is the process-local memory address (zero for values tracked by
// copy) and is never persisted. ID is the durable identity written into
// call records.
type Instance struct {
	Addr  uintptr
	ID    string
	Value any

	registry *Registry
}

// Describe returns a JSON-compatible structural description of the value.
//
// Plain containers are described element by element (slices and arrays in
// order, maps keyed by the formatted key); anything else is handed whole to
// the descriptor registry.
func (i *Instance) Describe() any {
	reg := i.registry
	if reg == nil {
		reg = NewRegistry()
	}

	rv := reflect.ValueOf(i.Value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for j := range out {
			out[j] = reg.Describe(rv.Index(j).Interface())
		}
		return out

	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(a, b int) bool {
			return fmt.Sprint(keys[a].Interface()) < fmt.Sprint(keys[b].Interface())
		})
		out := make(map[string]any, len(keys))
		for _, k := range keys {
			out[fmt.Sprint(k.Interface())] = reg.Describe(rv.MapIndex(k).Interface())
		}
		return out

	default:
		return reg.Describe(i.Value)
	}
}
