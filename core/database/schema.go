package database

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// SchemaIssue describes a table or column the models expect but the
// database does not provide.
type SchemaIssue struct {
	Table  string `json:"table"`
	Column string `json:"column,omitempty"`
}

// String renders the issue for logs.
func (i SchemaIssue) String() string {
	if i.Column == "" {
		return "missing table " + i.Table
	}
	return fmt.Sprintf("missing column %s.%s", i.Table, i.Column)
}

// VerifySchema checks that every table and column mapped by the given models
// exists. Column discovery goes through the GORM migrator so it works the
// same on MySQL, PostgreSQL and SQLite.
func VerifySchema(db *gorm.DB, models ...any) ([]SchemaIssue, error) {
	var issues []SchemaIssue
	migrator := db.Migrator()

	for _, model := range models {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("failed to parse model %T: %w", model, err)
		}
		table := stmt.Schema.Table

		if !migrator.HasTable(table) {
			issues = append(issues, SchemaIssue{Table: table})
			continue
		}

		columns, err := migrator.ColumnTypes(table)
		if err != nil {
			return nil, fmt.Errorf("failed to get columns for table %s: %w", table, err)
		}
		present := make(map[string]bool, len(columns))
		for _, col := range columns {
			present[strings.ToLower(col.Name())] = true
		}

		for _, field := range stmt.Schema.Fields {
			if field.DBName == "" {
				continue
			}
			if !present[strings.ToLower(field.DBName)] {
				issues = append(issues, SchemaIssue{Table: table, Column: field.DBName})
			}
		}
	}

	return issues, nil
}
