package validate

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lemmego/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var memberColumns = []string{"id", "username", "age"}

const selectByUsername = "SELECT members.* FROM members WHERE members.username = ?"

func newMembers(t *testing.T, opts ...record.ModelOption) (*record.Model, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	mock.ExpectQuery("SELECT * FROM members LIMIT 0").
		WillReturnRows(sqlmock.NewRows(memberColumns))

	registry := record.NewRegistry(record.NewSQLGateway(db, record.DialectSQLite))
	return registry.MustDefine("Member", opts...), mock
}

func newMember(t *testing.T, m *record.Model, attrs record.Attributes) *record.Record {
	t.Helper()
	r, err := m.New(context.Background(), attrs)
	require.NoError(t, err)
	return r
}

func TestPresence(t *testing.T) {
	members, _ := newMembers(t, record.Validates("presence", Presence("username", "age")))
	ctx := context.Background()

	r := newMember(t, members, record.Attributes{"username": "   "})
	assert.False(t, r.Valid(ctx))
	assert.Equal(t, []string{MessageBlank}, r.Errors().On("username"))
	assert.Equal(t, []string{MessageBlank}, r.Errors().On("age"))

	r = newMember(t, members, record.Attributes{"username": "ada", "age": 0})
	assert.True(t, r.Valid(ctx))
}

func TestLength(t *testing.T) {
	members, _ := newMembers(t, record.Validates("length", Length("username", 3, 5)))
	ctx := context.Background()

	assert.True(t, newMember(t, members, record.Attributes{}).Valid(ctx))
	assert.True(t, newMember(t, members, record.Attributes{"username": "ada"}).Valid(ctx))

	short := newMember(t, members, record.Attributes{"username": "al"})
	assert.False(t, short.Valid(ctx))
	assert.Equal(t, []string{"is too short (minimum is 3 characters)"}, short.Errors().On("username"))

	long := newMember(t, members, record.Attributes{"username": "lovelace"})
	assert.False(t, long.Valid(ctx))
	assert.Equal(t, []string{"is too long (maximum is 5 characters)"}, long.Errors().On("username"))
}

func TestFormat(t *testing.T) {
	slug := regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	members, _ := newMembers(t,
		record.Validates("format", Format("username", slug, "must be a lowercase slug")),
		record.Validates("numeric", Format("age", regexp.MustCompile(`^\d+$`), "")),
	)
	ctx := context.Background()

	assert.True(t, newMember(t, members, record.Attributes{"username": "ada_l", "age": 36}).Valid(ctx))

	r := newMember(t, members, record.Attributes{"username": "Ada Lovelace", "age": -1})
	assert.False(t, r.Valid(ctx))
	assert.Equal(t, []string{
		"age is invalid",
		"username must be a lowercase slug",
	}, r.Errors().FullMessages())
}

func TestUniqueness(t *testing.T) {
	members, mock := newMembers(t, record.Validates("uniqueness", Uniqueness("username")))
	ctx := context.Background()

	mock.ExpectQuery(selectByUsername).
		WithArgs("ada").
		WillReturnRows(sqlmock.NewRows(memberColumns).AddRow(int64(1), "ada", int64(36)))
	taken := newMember(t, members, record.Attributes{"username": "ada"})
	assert.False(t, taken.Valid(ctx))
	assert.Equal(t, []string{MessageTaken}, taken.Errors().On("username"))

	mock.ExpectQuery(selectByUsername).
		WithArgs("ada").
		WillReturnRows(sqlmock.NewRows(memberColumns).AddRow(int64(1), "ada", int64(36)))
	self := newMember(t, members, record.Attributes{"id": 1, "username": "ada"})
	assert.True(t, self.Valid(ctx))

	mock.ExpectQuery(selectByUsername).
		WithArgs("grace").
		WillReturnRows(sqlmock.NewRows(memberColumns))
	free := newMember(t, members, record.Attributes{"username": "grace"})
	assert.True(t, free.Valid(ctx))

	mock.ExpectQuery(selectByUsername).
		WithArgs("alan").
		WillReturnError(errors.New("database is locked"))
	unknown := newMember(t, members, record.Attributes{"username": "alan"})
	assert.False(t, unknown.Valid(ctx))
	assert.Equal(t, []string{MessageUncheckable}, unknown.Errors().On("username"))

	assert.True(t, newMember(t, members, record.Attributes{}).Valid(ctx))
}

func TestExpr(t *testing.T) {
	adult := MustExpr("age", "age == nil || age >= 18", "must be an adult")
	members, _ := newMembers(t, record.Validates("expr", adult))
	ctx := context.Background()

	assert.True(t, newMember(t, members, record.Attributes{}).Valid(ctx))
	assert.True(t, newMember(t, members, record.Attributes{"age": int64(36)}).Valid(ctx))

	minor := newMember(t, members, record.Attributes{"age": 12})
	assert.False(t, minor.Valid(ctx))
	assert.Equal(t, []string{"must be an adult"}, minor.Errors().On("age"))
}

func TestExprCompileError(t *testing.T) {
	_, err := Expr("age", "age >=", "")
	assert.True(t, record.IsErrorType(err, record.ErrorTypeInvalidArgument))
	assert.Panics(t, func() { MustExpr("age", "age >=", "") })
}

func TestExprRuntimeError(t *testing.T) {
	members, _ := newMembers(t, record.Validates("expr", MustExpr("age", "age > 18", "")))

	r := newMember(t, members, record.Attributes{"age": "old"})
	assert.False(t, r.Valid(context.Background()))
	assert.Equal(t, []string{MessageUncheckable}, r.Errors().On("age"))
}
