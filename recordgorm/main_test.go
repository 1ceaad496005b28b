package recordgorm

import (
	"context"
	"testing"

	"github.com/lemmego/record"
	"github.com/lemmego/record/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const createUsers = `CREATE TABLE users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	password_digest TEXT
)`

// Test suite
type GormGatewayTestSuite struct {
	suite.Suite
	registry *record.Registry
	users    *record.Model
	ctx      context.Context
}

func (suite *GormGatewayTestSuite) SetupSuite() {
	config := record.Config{
		Driver:       "sqlite",
		Database:     ":memory:",
		MaxOpenConns: 1,
		Options: map[string]interface{}{
			"gorm": map[string]interface{}{
				"log_level": "silent",
			},
		},
	}

	registry, err := record.Open("gorm", config)
	require.NoError(suite.T(), err)

	suite.registry = registry
	suite.ctx = context.Background()

	_, err = registry.Gateway().Exec(suite.ctx, createUsers)
	require.NoError(suite.T(), err)

	suite.users = registry.MustDefine("User",
		record.AfterInitialize(func(ctx context.Context, r *record.Record) error {
			if r.Get("password_digest") == nil {
				return r.Set("password_digest", "unset")
			}
			return nil
		}),
		record.Validates("presence", validate.Presence("username")),
		record.Validates("uniqueness", validate.Uniqueness("username")),
	)
}

func (suite *GormGatewayTestSuite) TearDownSuite() {
	if suite.registry != nil {
		suite.registry.Close()
	}
}

func (suite *GormGatewayTestSuite) SetupTest() {
	_, err := suite.registry.Gateway().Exec(suite.ctx, "DELETE FROM users")
	require.NoError(suite.T(), err)
}

// =====================================
// Factory Tests
// =====================================

func (suite *GormGatewayTestSuite) TestFactory() {
	factory := &Factory{}

	expected := []string{"postgres", "postgresql", "mysql", "sqlite", "sqlite3", "sqlserver", "mssql"}
	assert.ElementsMatch(suite.T(), expected, factory.SupportedDrivers())
	assert.Contains(suite.T(), record.ListGateways(), "gorm")
	assert.Equal(suite.T(), record.DialectSQLite, suite.registry.Gateway().Dialect())
}

func (suite *GormGatewayTestSuite) TestHealth() {
	assert.NoError(suite.T(), suite.registry.Health(suite.ctx))
}

// =====================================
// Record Lifecycle Tests
// =====================================

func (suite *GormGatewayTestSuite) TestCreateAndFind() {
	created, err := suite.users.Create(suite.ctx, record.Attributes{"username": "ada"})
	require.NoError(suite.T(), err)
	assert.NotNil(suite.T(), created.ID())
	assert.Equal(suite.T(), "unset", created.Get("password_digest"))

	found, err := suite.users.FindBy(suite.ctx, "username", "ada")
	require.NoError(suite.T(), err)
	assert.True(suite.T(), created.Equal(found))
	assert.Equal(suite.T(), "unset", found.Get("password_digest"))
}

func (suite *GormGatewayTestSuite) TestUpdate() {
	created, err := suite.users.Create(suite.ctx, record.Attributes{"username": "ada", "password_digest": "x"})
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), created.Set("password_digest", "y"))
	ok, err := created.Save(suite.ctx)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), ok)

	found, err := suite.users.Find(suite.ctx, created.ID())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "y", found.Get("password_digest"))
}

func (suite *GormGatewayTestSuite) TestAll() {
	for _, name := range []string{"ada", "grace", "alan"} {
		require.True(suite.T(), suite.users.TryCreate(suite.ctx, record.Attributes{"username": name}))
	}

	all, err := suite.users.All(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), all, 3)
}

func (suite *GormGatewayTestSuite) TestUniquenessValidation() {
	require.True(suite.T(), suite.users.TryCreate(suite.ctx, record.Attributes{"username": "ada"}))

	_, err := suite.users.Create(suite.ctx, record.Attributes{"username": "ada"})
	assert.True(suite.T(), record.IsValidation(err))
}

func (suite *GormGatewayTestSuite) TestStoreConstraint() {
	// Bypasses validation to reach the NOT NULL constraint
	_, err := suite.registry.Gateway().Exec(suite.ctx,
		"INSERT INTO users (username, password_digest) VALUES (?, ?)", nil, "x")
	assert.True(suite.T(), record.IsStoreExecution(err))
}

func (suite *GormGatewayTestSuite) TestFindNotFound() {
	_, err := suite.users.Find(suite.ctx, int64(999))
	assert.True(suite.T(), record.IsNotFound(err))
}

func (suite *GormGatewayTestSuite) TestUnknownAttribute() {
	_, err := suite.users.New(suite.ctx, record.Attributes{"nickname": "a"})
	assert.True(suite.T(), record.IsUnknownAttribute(err))
}

func (suite *GormGatewayTestSuite) TestMissingTable() {
	comments := suite.registry.MustDefine("Comment")

	err := comments.Finalize(suite.ctx)
	assert.True(suite.T(), record.IsSchemaResolution(err))
}

func TestGormGatewaySuite(t *testing.T) {
	suite.Run(t, new(GormGatewayTestSuite))
}

// =====================================
// Configuration Tests
// =====================================

func TestNewGatewayFromExistingDB(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	gateway, err := NewGateway(db)
	require.NoError(t, err)
	defer gateway.Close()

	assert.Same(t, db, gateway.DB())
	assert.Equal(t, record.DialectSQLite, gateway.Dialect())
	assert.NoError(t, gateway.Ping(context.Background()))
}

func TestGormGatewayWithInvalidDriver(t *testing.T) {
	_, err := (&Factory{}).Create(record.Config{Driver: "oracle", Database: "app"})
	assert.True(t, record.IsErrorType(err, record.ErrorTypeUnsupported))
}

func TestDSNBuilders(t *testing.T) {
	config := record.Config{
		Host:     "db",
		Port:     5432,
		Username: "app",
		Password: "secret",
		Database: "app",
	}

	assert.Equal(t, "host=db port=5432 user=app password=secret dbname=app sslmode=disable", buildPostgresDSN(config))
	assert.Equal(t, "sqlserver://app:secret@db:5432?database=app", buildSQLServerDSN(config))

	config.Port = 3306
	assert.Equal(t, "app:secret@tcp(db:3306)/app?charset=utf8mb4&parseTime=True&loc=Local", buildMySQLDSN(config))

	config.SSL = record.SSLConfig{Enabled: true, Mode: "preferred"}
	assert.Equal(t, "app:secret@tcp(db:3306)/app?charset=utf8mb4&parseTime=True&loc=Local&tls=preferred", buildMySQLDSN(config))

	assert.Equal(t, "file.db", buildSQLiteDSN(record.Config{Database: "file.db"}))
	assert.Equal(t, "file::memory:?cache=shared", buildSQLiteDSN(record.Config{
		Database:      "ignored",
		ConnectionURL: "file::memory:?cache=shared",
	}))
}
