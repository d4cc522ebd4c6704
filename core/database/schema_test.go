package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type schemaItem struct {
	ID          uint   `gorm:"column:id;primaryKey"`
	Name        string `gorm:"column:name"`
	Description string `gorm:"column:description"`
}

func (schemaItem) TableName() string { return "schema_items" }

type schemaOther struct {
	ID uint `gorm:"column:id;primaryKey"`
}

func (schemaOther) TableName() string { return "schema_others" }

func TestVerifySchema(t *testing.T) {
	db, err := Connect(Config{Driver: DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)

	// Table exists but lacks the description column
	err = db.Exec("CREATE TABLE schema_items (id INTEGER PRIMARY KEY, name TEXT)").Error
	require.NoError(t, err)

	issues, err := VerifySchema(db, &schemaItem{}, &schemaOther{})
	require.NoError(t, err)

	assert.ElementsMatch(t, []SchemaIssue{
		{Table: "schema_items", Column: "description"},
		{Table: "schema_others"},
	}, issues)
	assert.Equal(t, "missing table schema_others", issues[len(issues)-1].String())

	t.Run("Complete schema", func(t *testing.T) {
		require.NoError(t, db.AutoMigrate(&schemaItem{}, &schemaOther{}))
		issues, err := VerifySchema(db, &schemaItem{}, &schemaOther{})
		require.NoError(t, err)
		assert.Empty(t, issues)
	})
}
