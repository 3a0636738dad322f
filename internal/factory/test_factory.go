package factory

import (
	"context"
	"time"

	"github.com/mcoot/gameroom/internal/dependencies/mocks"
	"github.com/mcoot/gameroom/internal/model"
	"github.com/mcoot/gameroom/internal/services/auth"
	"github.com/mcoot/gameroom/internal/storage/memory"
	"github.com/mcoot/gameroom/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(store, mockClock, mockRandom, auth.DefaultConfig(), DefaultJanitorInterval, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}

// CreatePlayer saves a guest player directly to storage
func (t *TestApp) CreatePlayer(id, name string) model.Player {
	p := model.Player{
		ID:          model.PlayerID(id),
		DisplayName: name,
		IsGuest:     true,
		CreatedAt:   t.MockClock.Now(),
	}
	_ = t.Storage.SavePlayer(context.Background(), &p)
	return p
}
