package record

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// =====================================
// Statement Building
// =====================================

// statements holds the canonical SQL for one model, rendered once when the
// model is finalized. Only identifiers taken from the model definition and the
// schema catalog are written into the SQL text; values are always bound through
// "?" placeholders, which SQLGateway rebinds to the dialect's format.
type statements struct {
	table   string
	columns []string
	dialect string

	all  string
	byID string
	ins  string
	upd  string
	by   map[string]string
}

// bound stands in for a value when a builder needs one to emit a placeholder.
// Values never reach the builders.
const bound = ""

func newStatements(table string, columns []string, dialect string) statements {
	s := statements{table: table, columns: columns, dialect: dialect}
	s.all = toSQL(s.selectBuilder())
	s.by = make(map[string]string, len(columns))
	for _, column := range columns {
		s.by[column] = s.renderSelectBy(column)
	}
	s.byID = s.selectBy(s.identity())
	s.ins = s.renderInsert()
	s.upd = s.renderUpdate()
	return s
}

// identity returns the identity column, which is the first column of the table.
func (s statements) identity() string {
	if len(s.columns) == 0 {
		return "id"
	}
	return s.columns[0]
}

// introspect returns the zero-row query used to discover the columns of table.
func introspect(table, dialect string) string {
	if dialect == DialectMsSQL {
		return fmt.Sprintf("SELECT TOP 0 * FROM %s", table)
	}
	return fmt.Sprintf("SELECT * FROM %s LIMIT 0", table)
}

// selectAll returns SELECT <table>.* FROM <table>
func (s statements) selectAll() string {
	return s.all
}

// selectByID returns the select filtered on the identity column.
func (s statements) selectByID() string {
	return s.byID
}

// selectBy returns the select filtered on a single column.
func (s statements) selectBy(column string) string {
	if query, ok := s.by[column]; ok {
		return query
	}
	return s.renderSelectBy(column)
}

// insert returns the INSERT statement for every column except the identity.
func (s statements) insert() string {
	return s.ins
}

// update returns the UPDATE statement that sets every column, identity
// included, and filters on the identity.
func (s statements) update() string {
	return s.upd
}

func (s statements) renderSelectBy(column string) string {
	return toSQL(s.selectBuilder().Where(sq.Eq{s.qualified(column): bound}))
}

func (s statements) renderInsert() string {
	var cols []string
	if len(s.columns) > 1 {
		cols = s.columns[1:]
	}

	var query string
	switch {
	case s.dialect == DialectMsSQL:
		// OUTPUT sits between the column list and VALUES, where the builder cannot put it
		query = s.insertOutput(cols)
	case len(cols) == 0:
		query = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", s.table)
	default:
		values := make([]interface{}, len(cols))
		query = toSQL(sq.Insert(s.table).Columns(cols...).Values(values...))
	}

	if s.dialect == DialectPgSQL {
		query += " RETURNING " + s.identity()
	}
	return query
}

func (s statements) insertOutput(cols []string) string {
	output := fmt.Sprintf("OUTPUT INSERTED.%s", s.identity())
	if len(cols) == 0 {
		return fmt.Sprintf("INSERT INTO %s %s DEFAULT VALUES", s.table, output)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) %s VALUES (%s)",
		s.table, strings.Join(cols, ","), output, placeholders(len(cols)))
}

func (s statements) renderUpdate() string {
	builder := sq.Update(s.table)
	for _, column := range s.columns {
		builder = builder.Set(column, bound)
	}
	return toSQL(builder.Where(sq.Eq{s.qualified(s.identity()): bound}))
}

func (s statements) selectBuilder() sq.SelectBuilder {
	return sq.Select(s.table + ".*").From(s.table)
}

func (s statements) qualified(column string) string {
	return s.table + "." + column
}

// toSQL renders a builder whose shape is fixed by the model definition. The
// builders only fail on an empty table or column list, which the catalog rules
// out before a model is finalized.
func toSQL(builder sq.Sqlizer) string {
	query, _, err := builder.ToSql()
	if err != nil {
		panic(fmt.Sprintf("record: building statement: %v", err))
	}
	return query
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
