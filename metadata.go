package record

import "context"

// =====================================
// Model Metadata
// =====================================

// ModelInfo contains metadata about a model
type ModelInfo struct {
	Name       string
	TableName  string
	Columns    []ColumnInfo
	PrimaryKey string
	Categories []string
	Hooks      HookCounts
}

// ColumnInfo contains metadata about a column
type ColumnInfo struct {
	Name         string
	Position     int
	IsPrimaryKey bool
}

// HookCounts reports how many hooks of each kind a model registered
type HookCounts struct {
	AfterInitialize int
	BeforeSave      int
	AfterSave       int
}

// Info returns metadata about the model. It resolves the schema if needed.
func (m *Model) Info(ctx context.Context) (*ModelInfo, error) {
	s, err := m.finalize(ctx)
	if err != nil {
		return nil, err
	}

	info := &ModelInfo{
		Name:       m.name,
		TableName:  m.table,
		Columns:    make([]ColumnInfo, 0, len(s.ordered)),
		PrimaryKey: s.identity(),
		Categories: m.categories(),
		Hooks: HookCounts{
			AfterInitialize: len(m.afterInitialize),
			BeforeSave:      len(m.beforeSave),
			AfterSave:       len(m.afterSave),
		},
	}
	for _, accessor := range s.ordered {
		info.Columns = append(info.Columns, ColumnInfo{
			Name:         accessor.column,
			Position:     accessor.position,
			IsPrimaryKey: accessor.position == 0,
		})
	}
	return info, nil
}
