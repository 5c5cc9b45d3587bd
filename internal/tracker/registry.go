package tracker

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"sync"

	"github.com/roach88/acorn/internal/ir"
)

// DescribeFunc summarizes one object as JSON-compatible data: nil, bool,
// numbers, string, []any or map[string]any.
type DescribeFunc func(v any) any

// Registry maps types to describers. Unregistered types get a generic
// description, so Describe never fails.
//
// Thread-safety: all methods are safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byType map[reflect.Type]DescribeFunc
	byName map[string]DescribeFunc
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byType: make(map[reflect.Type]DescribeFunc),
		byName: make(map[string]DescribeFunc),
	}
}

// Register sets the describer for values of exactly type t. A describer
// registered for T also serves *T.
func (r *Registry) Register(t reflect.Type, fn DescribeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byType[t] = fn
}

// RegisterName sets the describer for the type whose reflect String() is
// name, e.g. "mat.Dense".
func (r *Registry) RegisterName(name string, fn DescribeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[name] = fn
}

// LoadDescriptors registers field/method projections from a package
// descriptor document:
//
//	{"mat.Dense": {"fields": ["Rows", "Cols"], "methods": ["Norm"]}}
//
// Listed exported fields are read, listed methods must take no arguments
// and are called for their first result.
func (r *Registry) LoadDescriptors(doc map[string]any) error {
	names := make([]string, 0, len(doc))
	for name := range doc {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		desc, ok := doc[name].(map[string]any)
		if !ok {
			return fmt.Errorf("descriptor %q: want object, got %T", name, doc[name])
		}
		fields, err := stringList(desc["fields"])
		if err != nil {
			return fmt.Errorf("descriptor %q fields: %w", name, err)
		}
		methods, err := stringList(desc["methods"])
		if err != nil {
			return fmt.Errorf("descriptor %q methods: %w", name, err)
		}
		r.RegisterName(name, r.projection(fields, methods))
	}
	return nil
}

func stringList(raw any) ([]string, error) {
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("want list, got %T", raw)
	}
	out := make([]string, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("[%d]: want string, got %T", i, item)
		}
		out[i] = s
	}
	return out, nil
}

func (r *Registry) projection(fields, methods []string) DescribeFunc {
	return func(v any) any {
		rv := reflect.ValueOf(v)
		out := map[string]any{"type": rv.Type().String()}

		for _, m := range methods {
			mv := rv.MethodByName(m)
			if !mv.IsValid() || mv.Type().NumIn() != 0 || mv.Type().NumOut() == 0 {
				continue
			}
			out[m] = r.Describe(mv.Call(nil)[0].Interface())
		}

		sv := rv
		for sv.Kind() == reflect.Pointer && !sv.IsNil() {
			sv = sv.Elem()
		}
		if sv.Kind() != reflect.Struct {
			return out
		}
		for _, f := range fields {
			fv := sv.FieldByName(f)
			if !fv.IsValid() || !fv.CanInterface() {
				continue
			}
			out[f] = r.Describe(fv.Interface())
		}
		return out
	}
}

func (r *Registry) lookup(t reflect.Type) (DescribeFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for {
		if fn, ok := r.byType[t]; ok {
			return fn, true
		}
		if fn, ok := r.byName[t.String()]; ok {
			return fn, true
		}
		if t.Kind() != reflect.Pointer {
			return nil, false
		}
		t = t.Elem()
	}
}

// Describe summarizes v. Primitives come back as plain Go values, nil
// references as nil, registered
// types through their describer, and anything else as
// {"type": ..., "kind": ...} plus "len" for sized values and "value" for
// fmt.Stringer implementations.
func (r *Registry) Describe(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if lit, ok := plainLiteral(rv); ok {
		return lit
	}
	if isNilReference(rv) {
		return nil
	}
	if fn, ok := r.lookup(rv.Type()); ok {
		return fn(v)
	}

	out := map[string]any{
		"type": rv.Type().String(),
		"kind": rv.Kind().String(),
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
		out["len"] = rv.Len()
	}
	if s, ok := v.(fmt.Stringer); ok {
		out["value"] = s.String()
	}
	return out
}

// plainLiteral converts primitives, including named primitive types, to
// their underlying Go value. NaN and infinities have no JSON form and
// become "NaN", "+Inf" and "-Inf".
func plainLiteral(rv reflect.Value) (any, bool) {
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint(), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return string(ir.FormatNonFinite(f)), true
		}
		return f, true
	case reflect.Complex64, reflect.Complex128:
		return fmt.Sprint(rv.Complex()), true
	case reflect.String:
		return rv.String(), true
	}
	return nil, false
}
