package ir

import (
	"errors"
	"fmt"
)

// PositionalKey is the reserved key under "args" holding positional arguments.
const PositionalKey = "__"

// ErrMalformedEntry is returned when a JSON entry lacks the args/returns shape.
var ErrMalformedEntry = errors.New("malformed entry")

// Args holds the rendered arguments of one call.
type Args struct {
	Positional Array
	Named      Object
}

// Entry is a single call record as produced by the instrumentation layer.
//
// Wire form:
//
//	{"args": {"__": [<positional>...], "<name>": <kwarg>, ...}, "returns": <value|null>, ...}
//
// Fields other than args and returns are carried in Extra and written back
// unchanged; this package does not interpret them.
type Entry struct {
	Args    Args
	Returns Value
	Extra   Object
}

// NewEntry builds an Entry from rendered values. Returns is Null when nil.
func NewEntry(positional []Value, named map[string]Value, returns Value) Entry {
	if returns == nil {
		returns = Null{}
	}
	return Entry{
		Args: Args{
			Positional: Array(positional),
			Named:      Object(named),
		},
		Returns: returns,
	}
}

// ToObject converts the entry to its wire representation.
func (e Entry) ToObject() Object {
	obj := make(Object, len(e.Extra)+2)
	for k, v := range e.Extra {
		obj[k] = v
	}

	args := make(Object, len(e.Args.Named)+1)
	for k, v := range e.Args.Named {
		args[k] = v
	}
	positional := e.Args.Positional
	if positional == nil {
		positional = Array{}
	}
	args[PositionalKey] = positional
	obj["args"] = args

	if e.Returns == nil {
		obj["returns"] = Null{}
	} else {
		obj["returns"] = e.Returns
	}
	return obj
}

// EntryFromObject parses the wire representation of an entry.
func EntryFromObject(obj Object) (Entry, error) {
	rawArgs, ok := obj["args"]
	if !ok {
		return Entry{}, fmt.Errorf("%w: missing \"args\"", ErrMalformedEntry)
	}
	args, ok := rawArgs.(Object)
	if !ok {
		return Entry{}, fmt.Errorf("%w: \"args\" is %s, want object", ErrMalformedEntry, Describe(rawArgs))
	}

	var e Entry
	if rawPos, ok := args[PositionalKey]; ok {
		pos, ok := rawPos.(Array)
		if !ok {
			return Entry{}, fmt.Errorf("%w: %q is %s, want array", ErrMalformedEntry, PositionalKey, Describe(rawPos))
		}
		e.Args.Positional = pos
	} else {
		e.Args.Positional = Array{}
	}

	for k, v := range args {
		if k == PositionalKey {
			continue
		}
		if e.Args.Named == nil {
			e.Args.Named = make(Object)
		}
		e.Args.Named[k] = v
	}

	e.Returns = Null{}
	if ret, ok := obj["returns"]; ok {
		e.Returns = ret
	}

	for k, v := range obj {
		if k == "args" || k == "returns" {
			continue
		}
		if e.Extra == nil {
			e.Extra = make(Object)
		}
		e.Extra[k] = v
	}
	return e, nil
}

// MarshalJSON implements json.Marshaler.
func (e Entry) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(e.ToObject())
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var obj Object
	if err := obj.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEntry, err)
	}
	parsed, err := EntryFromObject(obj)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
