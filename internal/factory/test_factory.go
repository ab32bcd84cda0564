package factory

import (
	"time"

	"github.com/tavisham/lobbygate/internal/config"
	"github.com/tavisham/lobbygate/internal/dependencies/mocks"
	"github.com/tavisham/lobbygate/internal/dependencies/random"
	"github.com/tavisham/lobbygate/internal/extension"
	"github.com/tavisham/lobbygate/internal/relay"
	"github.com/tavisham/lobbygate/internal/storage"
	"github.com/tavisham/lobbygate/internal/storage/memory"
	"github.com/tavisham/lobbygate/internal/testutil"
)

// TestApp extends App with test-specific helpers.
type TestApp struct {
	*App

	// MockClock controls session idle time in tests.
	MockClock *mocks.MockClock
}

// TestConfig returns a configuration suitable for in-process tests.
func TestConfig() *config.Config {
	return &config.Config{
		HTTPPort:            8080,
		StorageDriver:       config.DriverMemory,
		Peers:               []string{"world1"},
		SessionIdleTimeout:  30 * time.Minute,
		SessionSweepEvery:   5 * time.Minute,
		AdminLevel:          1000,
		RegistrationEnabled: true,
	}
}

// NewTestApp creates an App on in-memory storage with a mocked clock.
// The random source stays real so challenges and salts behave.
func NewTestApp(webApps, webGames map[string]string) *TestApp {
	cfg := TestConfig()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	app := &App{
		Config:   cfg,
		Logger:   testutil.NopLogger(),
		Clock:    mockClock,
		Random:   random.New(),
		Lobby:    memory.New(),
		Peers:    map[string]storage.Store{"world1": memory.New()},
		WebApps:  extension.NewLibrary(webApps),
		WebGames: extension.NewLibrary(webGames),
	}
	app.wire(relay.DiscardPublisher{})

	return &TestApp{
		App:       app,
		MockClock: mockClock,
	}
}
