//go:build integration_test || all_tests

package pgstore

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/davidjes1/fitnesstracker/internal/db"
	"github.com/davidjes1/fitnesstracker/internal/storage"

	"github.com/brianvoe/gofakeit/v6"
	_ "github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type StoreTestSuite struct {
	suite.Suite

	dockerPool *dockertest.Pool
	resource   *dockertest.Resource
	dbURL      string
	store      *Store
	closePool  func()
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (s *StoreTestSuite) SetupSuite() {
	var err error
	s.dockerPool, err = dockertest.NewPool("")
	s.Require().NoError(err, "create dockertest pool")
	s.Require().NoError(s.dockerPool.Client.Ping(), "ping docker")

	s.resource, err = s.dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16",
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_DB=fitness_tracker",
			"POSTGRES_HOST_AUTH_METHOD=trust",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	s.Require().NoError(err, "run postgres")

	pgPort := s.resource.GetPort("5432/tcp")
	s.dbURL = fmt.Sprintf("postgres://postgres@localhost:%s/fitness_tracker?sslmode=disable", pgPort)

	s.Require().NoError(s.dockerPool.Retry(func() error {
		sqlDB, err := sql.Open("postgres", s.dbURL)
		if err != nil {
			return err
		}
		defer sqlDB.Close()
		return sqlDB.Ping()
	}), "connect to db")

	s.Require().NoError(Migrate(s.dbURL))
	// running twice is a no-op
	s.Require().NoError(Migrate(s.dbURL))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost: "localhost",
		DBPort: pgPort,
		DBName: "fitness_tracker",
	})
	s.Require().NoError(err)
	s.closePool = pool.Close
	s.store = New(pool)
}

func (s *StoreTestSuite) TearDownSuite() {
	if s.closePool != nil {
		s.closePool()
	}
	if s.resource != nil {
		if err := s.resource.Close(); err != nil {
			fmt.Printf("postgres teardown: %s\n", err)
		}
	}
}

func (s *StoreTestSuite) TestCRUD() {
	t := s.T()
	ctx := context.Background()
	userID := gofakeit.UUID()

	_, err := s.store.Get(ctx, userID, "workouts")
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)

	require.NoError(t, s.store.Set(ctx, userID, "workouts", []byte(`[{"id":1}]`)))
	require.NoError(t, s.store.Set(ctx, userID, "workouts", []byte(`[{"id":2},{"id":1}]`)))
	require.NoError(t, s.store.Set(ctx, userID, "weights", []byte(`[]`)))

	value, err := s.store.Get(ctx, userID, "workouts")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":2},{"id":1}]`, string(value))

	keys, err := s.store.List(ctx, userID, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"weights", "workouts"}, keys)

	keys, err = s.store.List(ctx, userID, "wo")
	require.NoError(t, err)
	assert.Equal(t, []string{"workouts"}, keys)

	require.NoError(t, s.store.Delete(ctx, userID, "workouts"))
	require.NoError(t, s.store.Delete(ctx, userID, "workouts"))
	_, err = s.store.Get(ctx, userID, "workouts")
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)

	keys, err = s.store.List(ctx, gofakeit.UUID(), "")
	require.NoError(t, err)
	assert.Empty(t, keys)
}
