package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/tavisham/lobbygate/internal/api"
	"github.com/tavisham/lobbygate/internal/command"
	"github.com/tavisham/lobbygate/internal/command/handlers"
	"github.com/tavisham/lobbygate/internal/dependencies/mocks"
	"github.com/tavisham/lobbygate/internal/dependencies/random"
	"github.com/tavisham/lobbygate/internal/extension"
	"github.com/tavisham/lobbygate/internal/relay"
	"github.com/tavisham/lobbygate/internal/services/account"
	"github.com/tavisham/lobbygate/internal/services/auth"
	"github.com/tavisham/lobbygate/internal/services/ledger"
	"github.com/tavisham/lobbygate/internal/services/promo"
	"github.com/tavisham/lobbygate/internal/session"
	"github.com/tavisham/lobbygate/internal/storage"
	"github.com/tavisham/lobbygate/internal/storage/memory"
	"github.com/tavisham/lobbygate/internal/testutil"
)

const echoApp = `
function prepare(method)
	return 0
end

function echo(params)
	api.set_response("echoed", params.text)
	return 0
end
`

type APITestSuite struct {
	suite.Suite

	lobby  *memory.Storage
	client *redis.Client
	server *httptest.Server
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

func (s *APITestSuite) SetupTest() {
	s.lobby = memory.New()
	mini := miniredis.RunT(s.T())
	s.client = redis.NewClient(&redis.Options{Addr: mini.Addr()})

	logger := testutil.NopLogger()
	clk := mocks.NewMockClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	rng := random.New()
	registry := session.NewRegistry(clk)
	peers := map[string]storage.Store{}

	relaySvc := relay.New(s.client, s.lobby, logger)
	authSvc := auth.New(s.lobby, rng)
	accountSvc := account.New(s.lobby, registry, rng, clk, logger, account.DefaultConfig())
	ledgerSvc := ledger.New(s.lobby, peers, relaySvc, rng, clk, logger)
	promoSvc := promo.New(s.lobby, rng, logger)

	dispatcher := command.NewDispatcher(registry, authSvc, s.lobby, logger)
	handlers.RegisterAll(dispatcher, handlers.Deps{
		Auth:     authSvc,
		Accounts: accountSvc,
		Ledger:   ledgerSvc,
		Promos:   promoSvc,
		Relay:    relaySvc,
		Lobby:    s.lobby,
		Peers:    peers,
		WebApps:  extension.NewLibrary(map[string]string{"echo": echoApp}),
		WebGames: extension.NewLibrary(nil),
		Clock:    clk,
		Logger:   logger,
		Levels:   handlers.DefaultLevels(),
	})

	router := api.NewRouter(api.RouterConfig{Logger: logger, Dispatcher: dispatcher})
	s.server = httptest.NewServer(router)
}

func (s *APITestSuite) TearDownTest() {
	s.server.Close()
	s.Require().NoError(s.client.Close())
}

// post sends a command and decodes the flat JSON response.
func (s *APITestSuite) post(path string, payload map[string]any) (int, map[string]any) {
	body, err := json.Marshal(payload)
	s.Require().NoError(err)

	resp, err := http.Post(s.server.URL+path, "application/json", bytes.NewReader(body))
	s.Require().NoError(err)
	defer resp.Body.Close()

	decoded := make(map[string]any)
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func (s *APITestSuite) TestHealth() {
	resp, err := http.Get(s.server.URL + "/api/health")
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *APITestSuite) TestUnknownCommand() {
	status, decoded := s.post("/api/no/such/command/here", map[string]any{})
	s.Equal(http.StatusNotFound, status)
	s.Equal("Unknown command", decoded["error"])
}

func (s *APITestSuite) TestMalformedBody() {
	resp, err := http.Post(s.server.URL+"/api/account/register", "application/json", bytes.NewReader([]byte("{nope")))
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

// Full protocol round trip over HTTP: register, handshake, answer the
// challenge, observe rotation.
func (s *APITestSuite) TestChallengeRoundTrip() {
	status, decoded := s.post("/api/account/register", map[string]any{
		"username": "alice",
		"email":    "alice@x.com",
		"password": "Passw0rd!",
	})
	s.Equal(http.StatusOK, status)
	s.Require().Equal(command.Success, decoded["error"])

	status, decoded = s.post("/api/auth/get_challenge", map[string]any{"username": "alice"})
	s.Equal(http.StatusOK, status)
	s.Require().Equal(command.Success, decoded["error"])
	challenge, _ := decoded["challenge"].(string)
	salt, _ := decoded["salt"].(string)
	s.Require().NotEmpty(challenge)
	s.Require().NotEmpty(salt)

	hash := auth.HashPassword("Passw0rd!", salt)
	status, decoded = s.post("/api/account/get_cp", map[string]any{
		"username":  "alice",
		"challenge": auth.Answer(hash, challenge),
	})
	s.Equal(http.StatusOK, status)
	s.Require().Equal(command.Success, decoded["error"])
	s.Equal(float64(0), decoded["cp"])

	next, _ := decoded["challenge"].(string)
	s.NotEmpty(next)
	s.NotEqual(challenge, next)

	// A wrong answer fails and tears the session down.
	status, decoded = s.post("/api/account/get_cp", map[string]any{
		"username":  "alice",
		"challenge": "bogus",
	})
	s.Equal(http.StatusOK, status)
	s.Equal("Authentication failed", decoded["error"])
}

func (s *APITestSuite) TestWebAppMethodInPath() {
	_, decoded := s.post("/api/account/register", map[string]any{
		"username": "alice",
		"email":    "alice@x.com",
		"password": "Passw0rd!",
	})
	s.Require().Equal(command.Success, decoded["error"])

	_, decoded = s.post("/api/auth/get_challenge", map[string]any{"username": "alice"})
	challenge, _ := decoded["challenge"].(string)
	salt, _ := decoded["salt"].(string)
	hash := auth.HashPassword("Passw0rd!", salt)

	status, decoded := s.post("/api/webapp/echo/echo", map[string]any{
		"username":  "alice",
		"challenge": auth.Answer(hash, challenge),
		"text":      "ping",
	})
	s.Equal(http.StatusOK, status)
	s.Require().Equal(command.Success, decoded["error"])
	s.Equal("ping", decoded["echoed"])
}
