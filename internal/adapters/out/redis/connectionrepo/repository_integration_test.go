package connectionrepo_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"orderflow/internal/adapters/out/redis/connectionrepo"
	"orderflow/internal/core/domain/model/connection"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type RepositoryIntegrationTestSuite struct {
	suite.Suite
	container testcontainers.Container
	rdb       *redis.Client
	repo      *connectionrepo.RedisConnectionRepository
}

func TestRepositoryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	suite.Run(t, new(RepositoryIntegrationTestSuite))
}

func (s *RepositoryIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	s.Require().NoError(err)
	s.container = container

	endpoint, err := container.Endpoint(ctx, "")
	s.Require().NoError(err)

	s.rdb = redis.NewClient(&redis.Options{Addr: endpoint})
	s.Require().NoError(s.rdb.Ping(ctx).Err())
	s.repo = connectionrepo.NewRedisConnectionRepository(s.rdb)
}

func (s *RepositoryIntegrationTestSuite) TearDownSuite() {
	if s.rdb != nil {
		_ = s.rdb.Close()
	}
	if s.container != nil {
		s.Require().NoError(s.container.Terminate(context.Background()))
	}
}

func (s *RepositoryIntegrationTestSuite) SetupTest() {
	s.Require().NoError(s.rdb.FlushDB(context.Background()).Err())
}

func (s *RepositoryIntegrationTestSuite) register(id, userID, tenantID, role string, ttl time.Duration) {
	conn, err := connection.New(id, userID, tenantID, role, time.Now(), ttl)
	s.Require().NoError(err)
	s.Require().NoError(s.repo.Register(s.T().Context(), conn))
}

func (s *RepositoryIntegrationTestSuite) TestRegisterIndexesByTenantAndUser() {
	ctx := s.T().Context()
	s.register("ws-2", "staff-1", "sede-miraflores", "chef", time.Hour)
	s.register("ws-1", "staff-2", "sede-miraflores", "admin", time.Hour)
	s.register("ws-3", "cust-1", "", "customer", time.Hour)
	s.register("ws-4", "", "", "", time.Hour)

	byTenant, err := s.repo.ListByTenant(ctx, "sede-miraflores")
	s.Require().NoError(err)
	s.Equal([]string{"ws-1", "ws-2"}, byTenant)

	byUser, err := s.repo.ListByUser(ctx, "cust-1")
	s.Require().NoError(err)
	s.Equal([]string{"ws-3"}, byUser)

	all, err := s.repo.ListAll(ctx)
	s.Require().NoError(err)
	s.Equal([]string{"ws-1", "ws-2", "ws-3", "ws-4"}, all)

	ttl, err := s.rdb.TTL(ctx, "ws:conn:ws-1").Result()
	s.Require().NoError(err)
	s.Greater(ttl, 59*time.Minute)
}

func (s *RepositoryIntegrationTestSuite) TestUnknownIndexIsEmpty() {
	ids, err := s.repo.ListByTenant(s.T().Context(), "sede-surco")
	s.Require().NoError(err)
	s.NotNil(ids)
	s.Empty(ids)
}

func (s *RepositoryIntegrationTestSuite) TestReRegisterOverwrites() {
	ctx := s.T().Context()
	s.register("ws-1", "staff-1", "sede-miraflores", "chef", time.Hour)
	s.register("ws-1", "staff-1", "sede-miraflores", "admin", time.Hour)

	role, err := s.rdb.HGet(ctx, "ws:conn:ws-1", "role").Result()
	s.Require().NoError(err)
	s.Equal("admin", role)

	ids, err := s.repo.ListByTenant(ctx, "sede-miraflores")
	s.Require().NoError(err)
	s.Equal([]string{"ws-1"}, ids)
}

func (s *RepositoryIntegrationTestSuite) TestDeregisterRemovesFromEveryIndex() {
	ctx := s.T().Context()
	s.register("ws-1", "staff-1", "sede-miraflores", "chef", time.Hour)
	s.register("ws-2", "staff-1", "sede-miraflores", "chef", time.Hour)

	s.Require().NoError(s.repo.Deregister(ctx, "ws-1"))

	byTenant, err := s.repo.ListByTenant(ctx, "sede-miraflores")
	s.Require().NoError(err)
	s.Equal([]string{"ws-2"}, byTenant)

	byUser, err := s.repo.ListByUser(ctx, "staff-1")
	s.Require().NoError(err)
	s.Equal([]string{"ws-2"}, byUser)

	member, err := s.rdb.SIsMember(ctx, connectionrepo.KeyAllIndex, "ws-1").Result()
	s.Require().NoError(err)
	s.False(member)
}

func (s *RepositoryIntegrationTestSuite) TestDeregisterUnknownSucceeds() {
	s.NoError(s.repo.Deregister(s.T().Context(), "ws-missing"))
}

func (s *RepositoryIntegrationTestSuite) TestExpiredConnectionsArePruned() {
	ctx := s.T().Context()
	s.register("ws-short", "staff-1", "sede-miraflores", "chef", 300*time.Millisecond)
	s.register("ws-long", "staff-2", "sede-miraflores", "chef", time.Hour)

	s.Eventually(func() bool {
		ids, err := s.repo.ListByTenant(ctx, "sede-miraflores")
		return err == nil && len(ids) == 1 && ids[0] == "ws-long"
	}, 5*time.Second, 100*time.Millisecond)

	tenantIndex := fmt.Sprintf(connectionrepo.KeyTenantIndex, "sede-miraflores")
	member, err := s.rdb.SIsMember(ctx, tenantIndex, "ws-short").Result()
	s.Require().NoError(err)
	s.False(member)
}

func (s *RepositoryIntegrationTestSuite) TestAlreadyExpiredIsNotStored() {
	ctx := s.T().Context()
	conn := connection.Connection{
		ID:        "ws-old",
		TenantID:  "sede-miraflores",
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	s.Require().NoError(s.repo.Register(ctx, conn))

	exists, err := s.rdb.Exists(ctx, "ws:conn:ws-old").Result()
	s.Require().NoError(err)
	s.Zero(exists)
}
