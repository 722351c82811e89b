package stats

import (
	"context"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisClient is the part of *redis.Client the tally uses.
type RedisClient interface {
	ZIncrBy(ctx context.Context, key string, increment float64, member string) *redis.FloatCmd
	ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) *redis.ZSliceCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

// RedisStore keeps counts in a sorted set per guild. A hash records the
// order titles were first played so ties stay deterministic.
type RedisStore struct {
	client RedisClient
	prefix string
}

func NewRedisStore(client RedisClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "rockola"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) countsKey(guildID string) string { return r.prefix + ":plays:" + guildID }
func (r *RedisStore) firstKey(guildID string) string  { return r.prefix + ":first:" + guildID }
func (r *RedisStore) seqKey(guildID string) string    { return r.prefix + ":seq:" + guildID }

func (r *RedisStore) RecordPlay(ctx context.Context, guildID, title string) error {
	count, err := r.client.ZIncrBy(ctx, r.countsKey(guildID), 1, title).Result()
	if err != nil {
		return errors.Wrap(err, "zincrby")
	}
	if count > 1 {
		return nil
	}

	seq, err := r.client.Incr(ctx, r.seqKey(guildID)).Result()
	if err != nil {
		return errors.Wrap(err, "incr sequence")
	}
	if err := r.client.HSet(ctx, r.firstKey(guildID), title, seq).Err(); err != nil {
		return errors.Wrap(err, "hset first play")
	}
	return nil
}

func (r *RedisStore) Top(ctx context.Context, guildID string, n int) ([]Entry, error) {
	if n <= 0 {
		return []Entry{}, nil
	}

	zs, err := r.client.ZRevRangeWithScores(ctx, r.countsKey(guildID), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "zrevrange")
	}
	first, err := r.client.HGetAll(ctx, r.firstKey(guildID)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "hgetall first play")
	}

	type row struct {
		Entry
		seq int64
	}
	rows := make([]row, 0, len(zs))
	for _, z := range zs {
		title, ok := z.Member.(string)
		if !ok {
			continue
		}
		seq, err := strconv.ParseInt(first[title], 10, 64)
		if err != nil {
			seq = int64(^uint64(0) >> 1)
		}
		rows = append(rows, row{Entry: Entry{Title: title, Count: int(z.Score)}, seq: seq})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].seq < rows[j].seq
	})

	if len(rows) > n {
		rows = rows[:n]
	}
	out := make([]Entry, len(rows))
	for i, rw := range rows {
		out[i] = rw.Entry
	}
	return out, nil
}
