package tracker

import (
	"cmp"
	"fmt"
	"reflect"
	"regexp"
	"runtime"
	"strings"
)

// Kind is the classification outcome for a runtime value.
type Kind int

const (
	// Untracked values are embedded literally.
	Untracked Kind = iota
	// SemiTracked values are embedded as a summary string.
	SemiTracked
	// Tracked values are embedded as their durable identity.
	Tracked
)

func (k Kind) String() string {
	switch k {
	case Untracked:
		return "untracked"
	case SemiTracked:
		return "semitracked"
	case Tracked:
		return "tracked"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Result is the classification of one value. Exactly one of Literal,
// Summary and Instance is meaningful, selected by Kind.
type Result struct {
	Kind     Kind
	Literal  any
	Summary  string
	Instance *Instance
}

// Render returns the form embedded into a call record: the literal, the
// summary string, or the durable identity string.
func (r Result) Render() any {
	switch r.Kind {
	case SemiTracked:
		return r.Summary
	case Tracked:
		return r.Instance.ID
	default:
		return r.Literal
	}
}

// ElementwiseOp is implemented by numeric-library operation objects that
// should be recorded by name ("<library>.<op>") rather than tracked.
type ElementwiseOp interface {
	Library() string
	OpName() string
}

// closureName matches the compiler-generated names of function literals,
// e.g. "main.run.func1" or "pkg.(*T).m.func2.1".
var closureName = regexp.MustCompile(`\.func\d+(\.\d+)*$`)

// Classify decides how v is recorded. Tracked results reuse the existing
// Instance when v refers to an object that was tracked before.
func (t *Tracker) Classify(v any) Result {
	if v == nil {
		return Result{Kind: Untracked}
	}

	if label, ok := specialLabel(v); ok {
		return Result{Kind: SemiTracked, Summary: label}
	}

	rv := reflect.ValueOf(v)
	if isPrimitive(rv.Kind()) {
		return Result{Kind: Untracked, Literal: v}
	}
	if isNilReference(rv) {
		return Result{Kind: Untracked}
	}

	if rv.Kind() == reflect.Func {
		return Result{Kind: SemiTracked, Summary: funcLabel(rv)}
	}
	if summary, ok := summarize(rv); ok {
		return Result{Kind: SemiTracked, Summary: summary}
	}

	return Result{Kind: Tracked, Instance: t.track(v, rv)}
}

func isPrimitive(k reflect.Kind) bool {
	switch k {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128,
		reflect.String:
		return true
	}
	return false
}

// isNilReference reports nil pointers, channels, funcs and interfaces.
// Nil maps and slices are left to summarize as empty containers.
func isNilReference(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Chan, reflect.Func, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}

// specialLabel names types and elementwise operations.
func specialLabel(v any) (string, bool) {
	if typ, ok := v.(reflect.Type); ok {
		if typ.Name() != "" {
			return typ.Name(), true
		}
		return typ.String(), true
	}
	if op, ok := v.(ElementwiseOp); ok {
		return op.Library() + "." + op.OpName(), true
	}
	return "", false
}

// funcLabel names a function value: the bare name for declared functions
// and method values, a lambda label for function literals.
func funcLabel(rv reflect.Value) string {
	fn := runtime.FuncForPC(rv.Pointer())
	if fn == nil || closureName.MatchString(fn.Name()) {
		return lambdaLabel(rv.Type())
	}
	name := strings.TrimSuffix(fn.Name(), "-fm")
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// lambdaLabel renders a function literal by its parameter types, since Go
// keeps no parameter names at run time.
func lambdaLabel(ft reflect.Type) string {
	params := make([]string, ft.NumIn())
	for i := range params {
		in := ft.In(i)
		if ft.IsVariadic() && i == ft.NumIn()-1 {
			params[i] = "..." + in.Elem().String()
			continue
		}
		params[i] = in.String()
	}
	return "lambda (" + strings.Join(params, ", ") + ")"
}

// containerName maps Go container kinds onto the summary vocabulary.
func containerName(rv reflect.Value) (string, bool) {
	switch rv.Kind() {
	case reflect.Slice:
		return "list", true
	case reflect.Array:
		return "tuple", true
	case reflect.Map:
		if isSetElem(rv.Type().Elem()) {
			return "set", true
		}
		return "dict", true
	}
	return "", false
}

func isSetElem(t reflect.Type) bool {
	return t.Kind() == reflect.Bool || (t.Kind() == reflect.Struct && t.NumField() == 0)
}

// summarize returns "<type> len=<n> min=<min> max=<max>" when rv is a
// container whose elements are all primitives. Map elements are its keys;
// a dict additionally requires primitive values.
func summarize(rv reflect.Value) (string, bool) {
	name, ok := containerName(rv)
	if !ok {
		return "", false
	}

	var elems []reflect.Value
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		elems = make([]reflect.Value, rv.Len())
		for i := range elems {
			elems[i] = rv.Index(i)
		}
	case reflect.Map:
		iter := rv.MapRange()
		for iter.Next() {
			if name == "dict" {
				if _, ok := primitiveOf(iter.Value()); !ok {
					return "", false
				}
			}
			elems = append(elems, iter.Key())
		}
	}

	if len(elems) == 0 {
		return fmt.Sprintf("%s len=0", name), true
	}

	lo, ok := primitiveOf(elems[0])
	if !ok {
		return "", false
	}
	hi := lo
	for _, e := range elems[1:] {
		p, ok := primitiveOf(e)
		if !ok {
			return "", false
		}
		if compareScalar(p, lo) < 0 {
			lo = p
		}
		if compareScalar(p, hi) > 0 {
			hi = p
		}
	}

	return fmt.Sprintf("%s len=%d min=%v max=%v", name, len(elems), lo.Interface(), hi.Interface()), true
}

// primitiveOf unwraps interface elements and reports whether the result is
// a primitive. A nil interface element is not.
func primitiveOf(v reflect.Value) (reflect.Value, bool) {
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	return v, isPrimitive(v.Kind())
}

// Scalar ordering: numbers (bools as 0/1, complex by real then imaginary
// part) sort before strings.
const (
	rankNumber = iota
	rankString
)

func rank(v reflect.Value) int {
	if v.Kind() == reflect.String {
		return rankString
	}
	return rankNumber
}

func compareScalar(a, b reflect.Value) int {
	if ra, rb := rank(a), rank(b); ra != rb {
		return cmp.Compare(ra, rb)
	}
	if rank(a) == rankString {
		return strings.Compare(a.String(), b.String())
	}

	switch {
	case isSigned(a) && isSigned(b):
		return cmp.Compare(asInt(a), asInt(b))
	case isUnsigned(a) && isUnsigned(b):
		return cmp.Compare(a.Uint(), b.Uint())
	case isComplex(a) || isComplex(b):
		ca, cb := asComplex(a), asComplex(b)
		if c := cmp.Compare(real(ca), real(cb)); c != 0 {
			return c
		}
		return cmp.Compare(imag(ca), imag(cb))
	default:
		return cmp.Compare(asFloat(a), asFloat(b))
	}
}

func isSigned(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUnsigned(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isComplex(v reflect.Value) bool {
	return v.Kind() == reflect.Complex64 || v.Kind() == reflect.Complex128
}

func asInt(v reflect.Value) int64 {
	if v.Kind() == reflect.Bool {
		if v.Bool() {
			return 1
		}
		return 0
	}
	return v.Int()
}

func asFloat(v reflect.Value) float64 {
	switch {
	case isSigned(v):
		return float64(asInt(v))
	case isUnsigned(v):
		return float64(v.Uint())
	default:
		return v.Float()
	}
}

func asComplex(v reflect.Value) complex128 {
	if isComplex(v) {
		return v.Complex()
	}
	return complex(asFloat(v), 0)
}
