package repository

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/grade-stats-api/internal/models"
	appErrors "github.com/noah-isme/grade-stats-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, zap.NewNop())
	ctx := context.Background()

	var dest models.StatsSummary
	err := repo.Get(ctx, "grades:stats", &dest)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)

	assert.NoError(t, repo.Set(ctx, "grades:stats", models.StatsSummary{TotalLearners: 1}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "grades:*"))
	assert.NoError(t, repo.Close())
}

// memoryRedis answers GET, SET, DEL and SCAN from a map through a go-redis
// process hook, so no server is dialled. SCAN pages hold two keys.
type memoryRedis struct {
	data      map[string]string
	scanCalls int
}

func newMemoryRedisClient(t *testing.T, data map[string]string) (*redis.Client, *memoryRedis) {
	t.Helper()
	mem := &memoryRedis{data: data}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	client.AddHook(mem)
	t.Cleanup(func() { _ = client.Close() })
	return client, mem
}

func (m *memoryRedis) DialHook(next redis.DialHook) redis.DialHook { return next }

func (m *memoryRedis) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (m *memoryRedis) ProcessHook(_ redis.ProcessHook) redis.ProcessHook {
	return func(_ context.Context, cmd redis.Cmder) error {
		args := cmd.Args()
		switch c := cmd.(type) {
		case *redis.StringCmd:
			val, ok := m.data[fmt.Sprint(args[1])]
			if !ok {
				c.SetErr(redis.Nil)
				return redis.Nil
			}
			c.SetVal(val)
		case *redis.StatusCmd:
			switch v := args[2].(type) {
			case []byte:
				m.data[fmt.Sprint(args[1])] = string(v)
			default:
				m.data[fmt.Sprint(args[1])] = fmt.Sprint(v)
			}
			c.SetVal("OK")
		case *redis.IntCmd:
			var deleted int64
			for _, key := range args[1:] {
				if _, ok := m.data[fmt.Sprint(key)]; ok {
					delete(m.data, fmt.Sprint(key))
					deleted++
				}
			}
			c.SetVal(deleted)
		case *redis.ScanCmd:
			m.scanCalls++
			cursor, _ := strconv.Atoi(fmt.Sprint(args[1]))
			pattern := "*"
			for i := 2; i+1 < len(args); i += 2 {
				if fmt.Sprint(args[i]) == "match" {
					pattern = fmt.Sprint(args[i+1])
				}
			}
			keys := make([]string, 0, len(m.data))
			for key := range m.data {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			end := cursor + 2
			if end >= len(keys) {
				end = len(keys)
			}
			var page []string
			for _, key := range keys[cursor:end] {
				if ok, _ := path.Match(pattern, key); ok {
					page = append(page, key)
				}
			}
			next := uint64(end)
			if end == len(keys) {
				next = 0
			}
			c.SetVal(page, next)
		default:
			return fmt.Errorf("unsupported command %v", args)
		}
		return nil
	}
}

func TestCacheRepositoryRoundTrip(t *testing.T) {
	client, mem := newMemoryRedisClient(t, map[string]string{})
	repo := NewCacheRepository(client, zap.NewNop())
	ctx := context.Background()

	want := models.StatsSummary{TotalLearners: 3, Learners: 2, Percentage: 200.0 / 3}
	require.NoError(t, repo.Set(ctx, "grades:stats:all", want, time.Minute))
	assert.JSONEq(t, `{"totalLearners":3,"learners":2,"percentage":66.66666666666667}`, mem.data["grades:stats:all"])

	var got models.StatsSummary
	require.NoError(t, repo.Get(ctx, "grades:stats:all", &got))
	assert.Equal(t, want, got)

	err := repo.Get(ctx, "grades:stats:class:9", &got)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
}

func TestCacheRepositoryDropsUndecodableEntry(t *testing.T) {
	client, mem := newMemoryRedisClient(t, map[string]string{
		"grades:learner:2:avg-class": "{not json",
	})
	repo := NewCacheRepository(client, zap.NewNop())

	var dest []models.ClassAverage
	err := repo.Get(context.Background(), "grades:learner:2:avg-class", &dest)

	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
	assert.NotContains(t, mem.data, "grades:learner:2:avg-class")
}

func TestCacheRepositoryDeleteByPatternAcrossScanPages(t *testing.T) {
	client, mem := newMemoryRedisClient(t, map[string]string{
		"grades:learner:2:avg-class": "[]",
		"grades:learner:3:avg-class": "[]",
		"grades:stats:all":           "{}",
		"grades:stats:class:2":       "{}",
		"grades:stats:class:5":       "{}",
		"sessions:abc":               "x",
	})
	repo := NewCacheRepository(client, zap.NewNop())

	require.NoError(t, repo.DeleteByPattern(context.Background(), "grades:*"))

	assert.Equal(t, map[string]string{"sessions:abc": "x"}, mem.data)
	assert.Greater(t, mem.scanCalls, 1)
}
