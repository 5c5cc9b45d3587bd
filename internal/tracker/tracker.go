package tracker

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/roach88/acorn/internal/ir"
)

// Tracker owns the process-wide indices of tracked objects.
//
// byAddr and byID are only ever updated together under mu, so for every
// instance reachable by address the same pointer is reachable by identity.
// Instances keep a strong reference to their value; an address therefore
// cannot be reused by another object while its entry is live. Forget is the
// only way entries leave the indices.
//
// Thread-safety: all methods are safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	gen      Generator
	registry *Registry
	byAddr   map[addrKey]*Instance
	byID     map[string]*Instance
}

// addrKey is the memory identity of a reference value. Slices also carry
// their length so that a re-slice of the same backing array is distinct.
type addrKey struct {
	typ reflect.Type
	ptr uintptr
	n   int
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithGenerator sets the identity generator (default UUIDv4Generator).
func WithGenerator(gen Generator) Option {
	return func(t *Tracker) {
		t.gen = gen
	}
}

// WithRegistry sets the descriptor registry used by Describe.
func WithRegistry(r *Registry) Option {
	return func(t *Tracker) {
		t.registry = r
	}
}

// New creates an empty Tracker.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		gen:      UUIDv4Generator{},
		registry: NewRegistry(),
		byAddr:   make(map[addrKey]*Instance),
		byID:     make(map[string]*Instance),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Registry returns the descriptor registry.
func (t *Tracker) Registry() *Registry {
	return t.registry
}

// addressOf returns the memory identity of reference kinds. Values passed
// by copy (structs, arrays) have none, and neither do pointers to zero-size
// types, which the runtime may place at one shared address.
func addressOf(rv reflect.Value) (addrKey, bool) {
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.Type().Elem().Size() == 0 {
			return addrKey{}, false
		}
		return addrKey{typ: rv.Type(), ptr: rv.Pointer()}, true
	case reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return addrKey{typ: rv.Type(), ptr: rv.Pointer()}, true
	case reflect.Slice:
		return addrKey{typ: rv.Type(), ptr: rv.Pointer(), n: rv.Len()}, true
	}
	return addrKey{}, false
}

func (t *Tracker) track(v any, rv reflect.Value) *Instance {
	key, addressable := addressOf(rv)

	t.mu.Lock()
	defer t.mu.Unlock()

	if addressable {
		if inst, ok := t.byAddr[key]; ok {
			return inst
		}
	}

	inst := &Instance{
		Addr:     key.ptr,
		ID:       t.gen.Generate(),
		Value:    v,
		registry: t.registry,
	}
	if addressable {
		t.byAddr[key] = inst
	}
	t.byID[inst.ID] = inst
	return inst
}

// Lookup returns the instance with the given durable identity.
func (t *Tracker) Lookup(id string) (*Instance, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	inst, ok := t.byID[id]
	return inst, ok
}

// LookupValue returns the instance already tracking v, without minting one.
func (t *Tracker) LookupValue(v any) (*Instance, bool) {
	if v == nil {
		return nil, false
	}
	key, ok := addressOf(reflect.ValueOf(v))
	if !ok {
		return nil, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	inst, ok := t.byAddr[key]
	return inst, ok
}

// Len returns the number of tracked instances.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byID)
}

// Forget drops the instance with the given identity from both indices,
// releasing the tracker's reference to its value.
func (t *Tracker) Forget(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	inst, ok := t.byID[id]
	if !ok {
		return false
	}
	delete(t.byID, id)
	if key, ok := addressOf(reflect.ValueOf(inst.Value)); ok {
		if t.byAddr[key] == inst {
			delete(t.byAddr, key)
		}
	}
	return true
}

// DescribeIdentity describes the live object behind id as an ir.Value.
// It reports false when id is not tracked by this process.
func (t *Tracker) DescribeIdentity(id string) (ir.Value, bool) {
	inst, ok := t.Lookup(id)
	if !ok {
		return nil, false
	}
	// Describe runs outside the lock; describers may classify other values.
	desc := inst.Describe()
	v, err := ir.FromAny(desc)
	if err != nil {
		return ir.String(fmt.Sprint(desc)), true
	}
	return v, true
}

// Render classifies v and converts the result into the ir.Value embedded
// in a call record.
func (t *Tracker) Render(v any) ir.Value {
	res := t.Classify(v)
	switch res.Kind {
	case SemiTracked:
		return ir.String(res.Summary)
	case Tracked:
		return ir.String(res.Instance.ID)
	default:
		return literalValue(res.Literal)
	}
}

// literalValue converts an untracked primitive, including named types such
// as `type Celsius float64`. Complex numbers have no JSON form and are
// rendered as strings.
func literalValue(v any) ir.Value {
	if v == nil {
		return ir.Null{}
	}
	lit, ok := plainLiteral(reflect.ValueOf(v))
	if !ok {
		return ir.String(fmt.Sprint(v))
	}
	val, err := ir.FromAny(lit)
	if err != nil {
		return ir.String(fmt.Sprint(v))
	}
	return val
}
