package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/gameroom/internal/storage"
	"github.com/mcoot/gameroom/internal/storage/storagetest"
)

// The suite needs a disposable database; it truncates every table it owns.
const testURLEnv = "GAMEROOM_TEST_POSTGRES_URL"

type StorageSuite struct {
	storagetest.Suite
	storage *Storage
}

func TestStorageSuite(t *testing.T) {
	url := os.Getenv(testURLEnv)
	if url == "" {
		t.Skipf("%s not set", testURLEnv)
	}

	s := new(StorageSuite)
	s.NewStorage = func() storage.Storage {
		ctx := context.Background()
		cfg := DefaultConfig()
		cfg.URL = url

		store, err := New(ctx, cfg)
		s.Require().NoError(err)
		s.Require().NoError(store.Migrate(ctx))
		_, err = store.db.Exec(ctx, `TRUNCATE players, registered_players, rooms`)
		s.Require().NoError(err)

		s.storage = store
		return store
	}
	suite.Run(t, s)
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
}

func (s *StorageSuite) TestMigrateIsRepeatable() {
	s.NoError(s.storage.Migrate(s.Ctx))
}
