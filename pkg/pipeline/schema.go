package pipeline

import (
	"context"

	"github.com/aerostat-io/aerostat-engine/pkg/datasource"
	"github.com/aerostat-io/aerostat-engine/pkg/prompts"
)

// SchemaProvider supplies the schema description text used in generation
// prompts.
type SchemaProvider interface {
	SchemaDescription(ctx context.Context) (string, error)
}

// WarehouseSchemaProvider renders the live warehouse schema through the
// introspector. Freshness follows the introspector's cache TTL.
type WarehouseSchemaProvider struct {
	introspector *datasource.Introspector
	knowledge    *prompts.Knowledge
}

// NewWarehouseSchemaProvider creates a provider. knowledge may be nil.
func NewWarehouseSchemaProvider(introspector *datasource.Introspector, knowledge *prompts.Knowledge) *WarehouseSchemaProvider {
	return &WarehouseSchemaProvider{introspector: introspector, knowledge: knowledge}
}

// SchemaDescription implements SchemaProvider.
func (p *WarehouseSchemaProvider) SchemaDescription(ctx context.Context) (string, error) {
	tables, err := p.introspector.ListTables(ctx)
	if err != nil {
		return "", err
	}

	schemas := make([]*datasource.TableSchema, 0, len(tables))
	for _, table := range tables {
		schema, err := p.introspector.DescribeTable(ctx, table.Name, true)
		if err != nil {
			return "", err
		}
		schemas = append(schemas, schema)
	}

	return prompts.BuildSchemaDescription(schemas, p.knowledge), nil
}
