package store

import (
	"fmt"
	"os"
	"sort"

	"github.com/roach88/acorn/internal/ir"
)

// Snapshot is the persisted state of a task database.
type Snapshot struct {
	Entities map[string][]ir.Entry
	UUIDs    map[string]ir.Value
}

func newSnapshot() *Snapshot {
	return &Snapshot{
		Entities: make(map[string][]ir.Entry),
		UUIDs:    make(map[string]ir.Value),
	}
}

// Keys returns the entity keys in sorted order.
func (s *Snapshot) Keys() []string {
	keys := make([]string, 0, len(s.Entities))
	for k := range s.Entities {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Identities returns the described identities in sorted order.
func (s *Snapshot) Identities() []string {
	ids := make([]string, 0, len(s.UUIDs))
	for id := range s.UUIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Value converts the snapshot to its file representation.
func (s *Snapshot) Value() ir.Object {
	entities := make(ir.Object, len(s.Entities))
	for k, list := range s.Entities {
		arr := make(ir.Array, len(list))
		for i, e := range list {
			arr[i] = e.ToObject()
		}
		entities[k] = arr
	}

	uuids := make(ir.Object, len(s.UUIDs))
	for id, desc := range s.UUIDs {
		if desc == nil {
			desc = ir.Null{}
		}
		uuids[id] = desc
	}

	return ir.Object{"entities": entities, "uuids": uuids}
}

// Encode renders the snapshot as canonical JSON.
func (s *Snapshot) Encode() ([]byte, error) {
	data, err := ir.MarshalCanonical(s.Value())
	if err != nil {
		return nil, fmt.Errorf("encode database: %w", err)
	}
	return data, nil
}

// clone copies the maps and entry lists. Entries and descriptions are
// immutable values and are shared.
func (s *Snapshot) clone() *Snapshot {
	out := newSnapshot()
	for k, list := range s.Entities {
		out.Entities[k] = append([]ir.Entry(nil), list...)
	}
	for id, desc := range s.UUIDs {
		out.UUIDs[id] = desc
	}
	return out
}

// Decode validates and parses a database file. name identifies the data in
// error messages.
func Decode(name string, data []byte) (*Snapshot, error) {
	if err := validate(name, data); err != nil {
		return nil, err
	}

	v, err := ir.DecodeValue(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	root, ok := v.(ir.Object)
	if !ok {
		return nil, fmt.Errorf("%w: top level is %s, want object", ErrInvalidFormat, ir.Describe(v))
	}
	entities, ok := root["entities"].(ir.Object)
	if !ok {
		return nil, fmt.Errorf("%w: \"entities\" is not an object", ErrInvalidFormat)
	}
	uuids, ok := root["uuids"].(ir.Object)
	if !ok {
		return nil, fmt.Errorf("%w: \"uuids\" is not an object", ErrInvalidFormat)
	}

	snap := newSnapshot()
	for key, raw := range entities {
		list, ok := raw.(ir.Array)
		if !ok {
			return nil, fmt.Errorf("%w: entities[%q] is %s, want array", ErrInvalidFormat, key, ir.Describe(raw))
		}
		entries := make([]ir.Entry, len(list))
		for i, item := range list {
			obj, ok := item.(ir.Object)
			if !ok {
				return nil, fmt.Errorf("%w: entities[%q][%d] is %s, want object", ErrInvalidFormat, key, i, ir.Describe(item))
			}
			e, err := ir.EntryFromObject(obj)
			if err != nil {
				return nil, fmt.Errorf("%w: entities[%q][%d]: %v", ErrInvalidFormat, key, i, err)
			}
			entries[i] = e
		}
		snap.Entities[key] = entries
	}
	for id, desc := range uuids {
		snap.UUIDs[id] = desc
	}
	return snap, nil
}

// ReadFile reads and validates a database file without opening it for
// recording.
func ReadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read database: %w", err)
	}
	snap, err := Decode(path, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}
