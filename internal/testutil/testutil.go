package testutil

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dom/codementor/internal/api"
	"github.com/dom/codementor/internal/assistant"
	"github.com/dom/codementor/internal/auth"
	"github.com/dom/codementor/internal/config"
	"github.com/dom/codementor/internal/repository"
	"github.com/dom/codementor/internal/repository/memory"
	repoPostgres "github.com/dom/codementor/internal/repository/postgres"
	"github.com/dom/codementor/internal/service"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB manages a testcontainers PostgreSQL instance
type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
}

// NewTestDB starts a PostgreSQL testcontainer with the schema migrated.
// The test is skipped when no container runtime is reachable.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:15-alpine",
		tcPostgres.WithDatabase("test_codementor"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	testDB := &TestDB{Container: container}
	t.Cleanup(func() {
		testDB.Cleanup()
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}
	testDB.DSN = dsn

	db, err := gorm.Open(gormPostgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}
	testDB.DB = db

	if err := repoPostgres.Migrate(db, zap.NewNop()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return testDB
}

// Cleanup terminates the container
func (tdb *TestDB) Cleanup() {
	if tdb.Container != nil {
		ctx := context.Background()
		tdb.Container.Terminate(ctx)
	}
}

// Truncate clears all tables for test isolation
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	tables := []string{
		"user_progress",
		"exercises",
		"users",
	}

	for _, table := range tables {
		if err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			t.Logf("warning: failed to truncate %s: %v", table, err)
		}
	}
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Port:               "0", // Random port
		Environment:        "test",
		LogLevel:           "error",
		Storage:            config.StorageMemory,
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		JWTSecret:          "test-jwt-secret-key-for-testing-only",
		JWTExpiry:          time.Hour,
		JWTIssuer:          "codementor-test",
		BcryptCost:         bcrypt.MinCost,
	}
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	Users    *memory.UserRepository
	Progress *memory.ProgressRepository
	Repos    *repository.Repositories
	Services *service.Services
	Tokens   *auth.JWTManager
	Config   *config.Config
}

// NewTestServer wires the full router over in-memory repositories.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	cfg := TestConfig()

	users := memory.NewUserRepository()
	progress := memory.NewProgressRepository()
	repos := &repository.Repositories{User: users, Progress: progress}

	tokens, err := auth.NewTokenManager([]byte(cfg.JWTSecret), cfg.JWTExpiry, auth.WithIssuer(cfg.JWTIssuer))
	if err != nil {
		t.Fatalf("failed to create token manager: %v", err)
	}

	services := service.NewServices(service.Dependencies{
		Repos:     repos,
		Hasher:    auth.NewBcryptHasher(cfg.BcryptCost),
		Tokens:    tokens,
		Assistant: assistant.Offline{},
		Logger:    zap.NewNop(),
	})
	router := api.NewRouter(services, cfg, zap.NewNop())

	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		Users:    users,
		Progress: progress,
		Repos:    repos,
		Services: services,
		Tokens:   tokens,
		Config:   cfg,
	}

	t.Cleanup(func() {
		server.Close()
	})

	return ts
}

// BaseURL returns the test server's base URL
func (ts *TestServer) BaseURL() string {
	return ts.Server.URL
}

// APIURL returns the full API URL for a given path
func (ts *TestServer) APIURL(path string) string {
	return fmt.Sprintf("%s/api%s", ts.Server.URL, path)
}
