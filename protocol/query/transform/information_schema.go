package transform

import (
	"context"
	"strings"

	"github.com/maxpert/mylite/catalog"
	"github.com/maxpert/mylite/protocol/ast"
)

// InformationSchemaRule points information_schema tables at the catalog
// tables that hold their rows. The original name becomes the alias so
// qualified column references keep resolving.
type InformationSchemaRule struct{}

func (r *InformationSchemaRule) Name() string  { return "InformationSchema" }
func (r *InformationSchemaRule) Priority() int { return 20 }

func (r *InformationSchemaRule) Apply(_ context.Context, p *ast.Parsed, _ *Env) (bool, error) {
	applied := false
	var err error
	ast.Inspect(p.Statement, func(n ast.Node) bool {
		switch v := n.(type) {
		case *ast.TableName:
			if !isInformationSchema(v.Schema) {
				return true
			}
			backing, ok := catalog.InformationSchemaTables[strings.ToLower(v.Name)]
			if !ok {
				if err == nil {
					err = unsupported("information_schema.%s", v.Name)
				}
				return false
			}
			if v.Alias == "" {
				v.Alias = v.Name
			}
			v.Schema, v.Name = "", backing
			applied = true
		case *ast.ColumnRef:
			if isInformationSchema(v.Schema) {
				v.Schema = ""
				applied = true
			}
		}
		return true
	})
	return applied, err
}

func isInformationSchema(schema string) bool {
	return strings.EqualFold(schema, "information_schema")
}
