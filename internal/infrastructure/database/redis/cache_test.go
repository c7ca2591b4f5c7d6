package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/MolDescriptor/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/MolDescriptor/pkg/errors"
)

type CacheTestSuite struct {
	suite.Suite
	client *Client
	mock   redismock.ClientMock
	cache  Cache
}

func (s *CacheTestSuite) SetupTest() {
	db, mock := redismock.NewClientMock()
	s.mock = mock
	s.client = NewClientFrom(db, logging.NewNopLogger())
	s.cache = NewRedisCache(s.client, nil, WithPrefix("test:"), WithoutJitter(), WithDefaultTTL(time.Hour))
}

func (s *CacheTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

type cachedRow struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func (s *CacheTestSuite) TestGet_Hit() {
	val := cachedRow{Name: "WPath", Value: 10}
	data, _ := json.Marshal(val)
	s.mock.ExpectGet("test:key1").SetVal(string(data))

	var dest cachedRow
	s.Require().NoError(s.cache.Get(context.Background(), "key1", &dest))
	s.Equal(val, dest)
}

func (s *CacheTestSuite) TestGet_Miss() {
	s.mock.ExpectGet("test:key1").RedisNil()

	var dest cachedRow
	err := s.cache.Get(context.Background(), "key1", &dest)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeCacheMiss))
	s.ErrorIs(err, ErrCacheMiss)
}

func (s *CacheTestSuite) TestGet_NullMarkerIsMiss() {
	s.mock.ExpectGet("test:key1").SetVal(nullMarker)

	var dest cachedRow
	s.ErrorIs(s.cache.Get(context.Background(), "key1", &dest), ErrCacheMiss)
}

func (s *CacheTestSuite) TestGet_CorruptPayload() {
	s.mock.ExpectGet("test:key1").SetVal("{not json")

	var dest cachedRow
	err := s.cache.Get(context.Background(), "key1", &dest)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeSerialization))
}

func (s *CacheTestSuite) TestSet_DefaultTTL() {
	val := cachedRow{Name: "Radius", Value: 2}
	data, _ := json.Marshal(val)
	s.mock.ExpectSet("test:k", data, time.Hour).SetVal("OK")

	s.NoError(s.cache.Set(context.Background(), "k", val, 0))
}

func (s *CacheTestSuite) TestDelete() {
	s.mock.ExpectDel("test:k1", "test:k2").SetVal(2)
	s.NoError(s.cache.Delete(context.Background(), "k1", "k2"))
	s.NoError(s.cache.Delete(context.Background()))
}

func (s *CacheTestSuite) TestExists() {
	s.mock.ExpectExists("test:k1").SetVal(1)

	ok, err := s.cache.Exists(context.Background(), "k1")
	s.NoError(err)
	s.True(ok)
}

func (s *CacheTestSuite) TestMGet_SkipsMissingAndNull() {
	s.mock.ExpectMGet("test:a", "test:b", "test:c").SetVal([]interface{}{`{"name":"a"}`, nil, nullMarker})

	out, err := s.cache.MGet(context.Background(), []string{"a", "b", "c"})
	s.NoError(err)
	s.Equal(map[string][]byte{"a": []byte(`{"name":"a"}`)}, out)
}

func (s *CacheTestSuite) TestGetOrSet_HitSkipsLoader() {
	val := cachedRow{Name: "CarbonTypes", Value: 1}
	data, _ := json.Marshal(val)
	s.mock.ExpectGet("test:key1").SetVal(string(data))

	called := false
	var dest cachedRow
	err := s.cache.GetOrSet(context.Background(), "key1", &dest, time.Minute, func(context.Context) (interface{}, error) {
		called = true
		return nil, nil
	})
	s.NoError(err)
	s.False(called)
	s.Equal(val, dest)
}

func (s *CacheTestSuite) TestGetOrSet_MissLoadsAndStores() {
	val := cachedRow{Name: "WPol", Value: 3}
	data, _ := json.Marshal(val)
	s.mock.ExpectGet("test:key1").RedisNil()
	s.mock.ExpectSet("test:key1", data, time.Minute).SetVal("OK")

	var dest cachedRow
	err := s.cache.GetOrSet(context.Background(), "key1", &dest, time.Minute, func(context.Context) (interface{}, error) {
		return val, nil
	})
	s.NoError(err)
	s.Equal(val, dest)
}

func (s *CacheTestSuite) TestGetOrSet_NilResultCachesNull() {
	s.mock.ExpectGet("test:key1").RedisNil()
	s.mock.ExpectSet("test:key1", nullMarker, 30*time.Second).SetVal("OK")

	var dest cachedRow
	err := s.cache.GetOrSet(context.Background(), "key1", &dest, time.Minute, func(context.Context) (interface{}, error) {
		return nil, nil
	})
	s.ErrorIs(err, ErrCacheMiss)
}

func (s *CacheTestSuite) TestGetOrSet_LoaderError() {
	s.mock.ExpectGet("test:key1").RedisNil()

	boom := pkgerrors.New(pkgerrors.ErrCodeCalculationFailed, "boom")
	var dest cachedRow
	err := s.cache.GetOrSet(context.Background(), "key1", &dest, time.Minute, func(context.Context) (interface{}, error) {
		return nil, boom
	})
	s.ErrorIs(err, boom)
}

func (s *CacheTestSuite) TestDeleteByPrefix() {
	s.mock.ExpectScan(0, "test:result:*", 100).SetVal([]string{"test:result:a", "test:result:b"}, 7)
	s.mock.ExpectDel("test:result:a", "test:result:b").SetVal(2)
	s.mock.ExpectScan(7, "test:result:*", 100).SetVal([]string{"test:result:c"}, 0)
	s.mock.ExpectDel("test:result:c").SetVal(1)

	n, err := s.cache.DeleteByPrefix(context.Background(), "result:")
	s.NoError(err)
	s.Equal(int64(3), n)
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}

func TestTTLJitterStaysWithinTenPercent(t *testing.T) {
	c := NewRedisCache(nil, nil).(*redisCache)
	for i := 0; i < 100; i++ {
		ttl := c.ttlFor(time.Hour)
		assert.GreaterOrEqual(t, ttl, 54*time.Minute)
		assert.LessOrEqual(t, ttl, 66*time.Minute)
	}
	assert.Equal(t, time.Duration(-1), c.ttlFor(-1))
}

//Personal.AI order the ending
