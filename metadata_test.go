package record

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelInfo(t *testing.T) {
	noop := func(ctx context.Context, r *Record) error { return nil }
	check := ValidatorFunc(func(ctx context.Context, r *Record) {})

	users := NewRegistry(newStubGateway()).MustDefine("User",
		AfterInitialize(noop, noop),
		AfterSave(noop),
		Validates("uniqueness", check),
		Validates("presence", check, check),
	)

	info, err := users.Info(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "User", info.Name)
	assert.Equal(t, "users", info.TableName)
	assert.Equal(t, "id", info.PrimaryKey)
	assert.Equal(t, []string{"presence", "uniqueness"}, info.Categories)
	assert.Equal(t, HookCounts{AfterInitialize: 2, AfterSave: 1}, info.Hooks)
	require.Len(t, info.Columns, 3)
	assert.Equal(t, ColumnInfo{Name: "id", Position: 0, IsPrimaryKey: true}, info.Columns[0])
	assert.Equal(t, ColumnInfo{Name: "password_digest", Position: 2}, info.Columns[2])
}

func TestModelInfoMissingTable(t *testing.T) {
	orders := NewRegistry(newStubGateway()).MustDefine("Order")

	info, err := orders.Info(context.Background())
	assert.Nil(t, info)
	assert.True(t, IsSchemaResolution(err))
}
