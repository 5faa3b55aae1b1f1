package testutil

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dom/storyverse/internal/api"
	"github.com/dom/storyverse/internal/config"
	"github.com/dom/storyverse/internal/logging"
	"github.com/dom/storyverse/internal/repository"
	repoPostgres "github.com/dom/storyverse/internal/repository/postgres"
	"github.com/dom/storyverse/internal/service"
	"github.com/dom/storyverse/internal/websocket"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
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

// NewTestDB starts a PostgreSQL container and applies the migrations
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:15-alpine",
		tcPostgres.WithDatabase("test_storyverse"),
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

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := gorm.Open(gormPostgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}

	if err := repoPostgres.Migrate(ctx, db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	testDB := &TestDB{
		Container: container,
		DB:        db,
		DSN:       dsn,
	}

	t.Cleanup(func() {
		testDB.Cleanup()
	})

	return testDB
}

// Cleanup terminates the container
func (tdb *TestDB) Cleanup() {
	if tdb.Container != nil {
		ctx := context.Background()
		tdb.Container.Terminate(ctx)
	}
}

// Truncate clears all tables and resets their id sequences
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	tables := []string{"stories", "story_universes", "users"}
	stmt := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(tables, ", "))
	if err := tdb.DB.Exec(stmt).Error; err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}

// TestConfig returns a configuration with cheap hashing suitable for tests
func TestConfig() *config.Config {
	return &config.Config{
		AppName:            "Storyverse API",
		Environment:        "test",
		Addr:               ":0",
		APIPrefix:          "/api/v1",
		LogFormat:          "text",
		LogLevel:           "error",
		SecretKey:          "test-secret-key-for-testing-only-0123456789",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenTTL:    24 * time.Hour,
		Argon2MemoryKiB:    64,
		Argon2Iterations:   1,
		Argon2Parallelism:  1,
		CORSAllowedOrigins: []string{"*"},
		RateLimitAuth:      1000,
		RateLimitWindow:    time.Minute,
		WorkerName:         "test-worker",
		WorkerConcurrency:  1,
		CheckpointPoolSize: 2,
	}
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	DB       *TestDB
	Repos    *repository.Repositories
	Services *service.Services
	Hub      *websocket.Hub
	Config   *config.Config
}

// NewTestServer creates a complete test server backed by a postgres container
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	testDB := NewTestDB(t)
	return newTestServer(t, testDB, repoPostgres.NewRepositories(testDB.DB))
}

// NewTestServerWithRepos creates a test server on top of the given
// repositories, typically the in-memory ones
func NewTestServerWithRepos(t *testing.T, repos *repository.Repositories) *TestServer {
	t.Helper()
	return newTestServer(t, nil, repos)
}

func newTestServer(t *testing.T, testDB *TestDB, repos *repository.Repositories) *TestServer {
	cfg := TestConfig()
	log := logging.Discard()

	hub := websocket.NewHub(log)
	go hub.Run()

	services := service.NewServices(repos, cfg, hub, log)
	router := api.NewRouter(api.Dependencies{
		Services: services,
		Repos:    repos,
		Hub:      hub,
		Config:   cfg,
		Logger:   log,
	})

	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		DB:       testDB,
		Repos:    repos,
		Services: services,
		Hub:      hub,
		Config:   cfg,
	}

	t.Cleanup(func() {
		server.Close()
		hub.Stop()
	})

	return ts
}

// BaseURL returns the test server's base URL
func (ts *TestServer) BaseURL() string {
	return ts.Server.URL
}

// APIURL returns the full API URL for a given path
func (ts *TestServer) APIURL(path string) string {
	return fmt.Sprintf("%s%s%s", ts.Server.URL, ts.Config.APIPrefix, path)
}

// WebSocketURL returns the event stream URL with token
func (ts *TestServer) WebSocketURL(token string) string {
	wsURL := "ws" + strings.TrimPrefix(ts.Server.URL, "http")
	return fmt.Sprintf("%s%s/ws?token=%s", wsURL, ts.Config.APIPrefix, token)
}
