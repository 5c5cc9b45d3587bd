package store

import (
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"
)

// schemaSource describes a database file. #TaskDB is a definition, so any
// top-level key other than entities and uuids is rejected.
const schemaSource = `
#Entry: {
	args!: {
		"__"!: [...]
		...
	}
	returns!: _
	...
}

#TaskDB: {
	entities!: [string]: [...#Entry]
	uuids!: [string]: _
}
`

var schema struct {
	once sync.Once
	mu   sync.Mutex
	ctx  *cue.Context
	def  cue.Value
	err  error
}

func compiledSchema() (*cue.Context, cue.Value, error) {
	schema.once.Do(func() {
		schema.ctx = cuecontext.New()
		v := schema.ctx.CompileString(schemaSource, cue.Filename("taskdb.cue"))
		if err := v.Err(); err != nil {
			schema.err = fmt.Errorf("compile schema: %w", err)
			return
		}
		schema.def = v.LookupPath(cue.ParsePath("#TaskDB"))
	})
	return schema.ctx, schema.def, schema.err
}

// validate checks raw JSON against the database schema. name is only used
// in error positions.
func validate(name string, data []byte) error {
	schema.mu.Lock()
	defer schema.mu.Unlock()

	ctx, def, err := compiledSchema()
	if err != nil {
		return err
	}

	expr, err := cuejson.Extract(name, data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	doc := ctx.BuildExpr(expr)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if err := def.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return nil
}
