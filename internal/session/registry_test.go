package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/tavisham/lobbygate/internal/dependencies/mocks"
	"github.com/tavisham/lobbygate/internal/model"
)

type RegistrySuite struct {
	suite.Suite

	clock    *mocks.MockClock
	registry *Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.registry = NewRegistry(s.clock)
}

func (s *RegistrySuite) TestGetOrCreateIsStable() {
	first := s.registry.GetOrCreate("alice", "10.0.0.1:5000")
	second := s.registry.GetOrCreate("alice", "10.0.0.2:6000")

	s.Same(first, second)
	s.Equal("alice", first.Username)
	// The origin of first contact sticks
	s.Equal("10.0.0.1:5000", first.Origin)
	s.Equal(1, s.registry.Len())
}

func (s *RegistrySuite) TestGetOrCreateRefreshesLastSeen() {
	sess := s.registry.GetOrCreate("alice", "test")
	created := sess.LastSeen

	s.clock.Advance(time.Minute)
	s.registry.GetOrCreate("alice", "test")
	s.True(sess.LastSeen.After(created))
}

func (s *RegistrySuite) TestGet() {
	_, ok := s.registry.Get("alice")
	s.False(ok)

	s.registry.GetOrCreate("alice", "test")
	sess, ok := s.registry.Get("alice")
	s.True(ok)
	s.Equal("alice", sess.Username)
}

func (s *RegistrySuite) TestInvalidateKeepsUsername() {
	sess := s.registry.GetOrCreate("alice", "test")
	sess.Challenge = "abc"
	sess.Account = &model.Account{Username: "alice"}

	s.registry.Invalidate(sess)

	s.Equal("alice", sess.Username)
	s.Empty(sess.Challenge)
	s.Nil(sess.Account)
}

func (s *RegistrySuite) TestDrop() {
	sess := s.registry.GetOrCreate("alice", "test")
	sess.Challenge = "abc"
	sess.Account = &model.Account{Username: "alice"}

	s.registry.Drop("alice")

	s.Equal(0, s.registry.Len())
	s.Empty(sess.Username)
	s.Nil(sess.Account)
}

// Dropping a session with a command in flight must not block; the
// unlinked session state dies with it.
func (s *RegistrySuite) TestDropWhileLocked() {
	sess := s.registry.GetOrCreate("alice", "test")
	sess.Lock()
	defer sess.Unlock()

	done := make(chan struct{})
	go func() {
		s.registry.Drop("alice")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		s.FailNow("Drop blocked on a locked session")
	}
	s.Equal(0, s.registry.Len())
}

func (s *RegistrySuite) TestSweepEvictsIdle() {
	s.registry.GetOrCreate("alice", "test")

	s.clock.Advance(10 * time.Minute)
	s.registry.GetOrCreate("bob", "test")

	s.clock.Advance(25 * time.Minute)
	evicted := s.registry.Sweep(30 * time.Minute)

	s.Equal(1, evicted)
	_, ok := s.registry.Get("alice")
	s.False(ok)
	_, ok = s.registry.Get("bob")
	s.True(ok)
}

func (s *RegistrySuite) TestSweepSkipsInFlight() {
	sess := s.registry.GetOrCreate("alice", "test")
	sess.Lock()
	defer sess.Unlock()

	s.clock.Advance(time.Hour)
	s.Equal(0, s.registry.Sweep(30*time.Minute))
	s.Equal(1, s.registry.Len())
}
