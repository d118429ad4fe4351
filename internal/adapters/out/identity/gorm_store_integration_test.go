package identity_test

import (
	"context"
	"testing"
	"time"

	"gasdelivery/internal/adapters/out/identity"
	"gasdelivery/internal/core/ports"
	"gasdelivery/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type GormStoreIntegrationTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *gorm.DB
	provider  *identity.Provider
}

func (suite *GormStoreIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(postgresdriver.Open(connStr), &gorm.Config{TranslateError: true})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(db.AutoMigrate(&identity.CredentialDTO{}))
}

func (suite *GormStoreIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE credentials").Error)
	suite.provider = identity.NewProvider(identity.NewGormStore(suite.db), bcrypt.MinCost)
}

func (suite *GormStoreIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *GormStoreIntegrationTestSuite) TestProvisionAssignAuthenticate() {
	ctx := context.Background()

	userID, err := suite.provider.Provision(ctx, "otieno", "s3cret-pass")
	suite.Require().NoError(err)
	suite.Require().NoError(suite.provider.AssignRole(ctx, userID, "driver"))

	principal, err := suite.provider.Authenticate(ctx, "otieno", "s3cret-pass")
	suite.Require().NoError(err)
	suite.Equal(userID, principal.UserID)
	suite.Equal("driver", principal.Role)
}

func (suite *GormStoreIntegrationTestSuite) TestProvision_DuplicateLogin() {
	ctx := context.Background()

	_, err := suite.provider.Provision(ctx, "otieno", "s3cret-pass")
	suite.Require().NoError(err)

	_, err = suite.provider.Provision(ctx, "otieno", "s3cret-pass")
	suite.Require().ErrorIs(err, ports.ErrLoginTaken)
}

func (suite *GormStoreIntegrationTestSuite) TestRevoke() {
	ctx := context.Background()

	userID, err := suite.provider.Provision(ctx, "otieno", "s3cret-pass")
	suite.Require().NoError(err)
	suite.Require().NoError(suite.provider.Revoke(ctx, userID))

	_, err = suite.provider.Authenticate(ctx, "otieno", "s3cret-pass")
	suite.Require().ErrorIs(err, ports.ErrInvalidCredentials)
	suite.Require().ErrorIs(suite.provider.Revoke(ctx, userID), errs.ErrObjectNotFound)
}

func TestGormStoreIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(GormStoreIntegrationTestSuite))
}
