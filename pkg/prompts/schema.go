package prompts

import (
	"fmt"
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/aerostat-io/aerostat-engine/pkg/datasource"
)

// BuildSchemaDescription renders table schemas as markdown for prompt use.
// Knowledge notes, when present, are attached to their tables.
func BuildSchemaDescription(schemas []*datasource.TableSchema, knowledge *Knowledge) string {
	var b strings.Builder

	b.WriteString("## Database Schema\n\n")
	if knowledge != nil && knowledge.Description != "" {
		b.WriteString(knowledge.Description)
		b.WriteString("\n\n")
	}

	for _, schema := range schemas {
		b.WriteString(fmt.Sprintf("### %s (one row per %s)\n",
			schema.Table, entityLabel(schema.Table)))

		if knowledge != nil {
			if note, ok := knowledge.Tables[schema.Table]; ok && note != "" {
				b.WriteString(note)
				b.WriteString("\n")
			}
		}

		b.WriteString("Columns:\n")
		for _, col := range schema.Columns {
			flags := ""
			if col.Key == "PRI" {
				flags += " [PK]"
			}
			if col.Key == "UNI" {
				flags += " [unique]"
			}
			nullInfo := ""
			if col.Nullable {
				nullInfo = " (nullable)"
			}
			comment := ""
			if col.Comment != "" {
				comment = " -- " + col.Comment
			}
			b.WriteString(fmt.Sprintf("- %s: %s%s%s%s\n",
				col.Name, col.ColumnType, flags, nullInfo, comment))
		}

		if len(schema.Indexes) > 0 {
			b.WriteString("Indexes:\n")
			for _, idx := range schema.Indexes {
				kind := "index"
				if idx.Unique {
					kind = "unique index"
				}
				b.WriteString(fmt.Sprintf("- %s (%s) %s\n",
					idx.Name, strings.Join(idx.Columns, ", "), kind))
			}
		}
		b.WriteString("\n")
	}

	if knowledge != nil && len(knowledge.Facts) > 0 {
		b.WriteString("## Warehouse Notes\n\n")
		for _, fact := range knowledge.Facts {
			b.WriteString("- ")
			b.WriteString(fact)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	return b.String()
}

// entityLabel turns a table name into a readable singular label:
// "flight_legs" becomes "flight leg".
func entityLabel(table string) string {
	return inflection.Singular(strings.ReplaceAll(table, "_", " "))
}
