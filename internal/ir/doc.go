// Package ir provides the value and entry types shared by the recorder.
//
// All other internal packages import ir; ir imports nothing internal. This
// keeps it the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Values are a closed set of JSON shapes (see Value)
//   - Integers and floats are kept apart so large ints survive round trips
//   - Database files are written with MarshalCanonical only
//   - Durable identities are recognised with ParseIdentity, never by
//     catching a parse error
package ir
