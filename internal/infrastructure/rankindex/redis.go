package rankindex

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/riskibarqy/questrank/internal/domain/leaderboard"
)

// TimestampDivisor scales the creation time into the fractional part of the
// composite score so earlier accounts sort higher at equal points.
const TimestampDivisor = 10_000_000_000

// CompositeScore is points + (1 - createdAtUnix/1e10). Float rounding can make
// distinct standings collide; Redis resolves those ties through the standing
// hash, so the composite only needs to be monotone.
func CompositeScore(s leaderboard.Standing) float64 {
	return float64(s.Points) + (1.0 - float64(s.CreatedAt.Unix())/TimestampDivisor)
}

// Redis stores each board as a sorted set keyed by composite score plus a hash
// of exact standings used to order members whose composite scores collide.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "questrank"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) Upsert(ctx context.Context, name string, s leaderboard.Standing) error {
	pipe := r.client.TxPipeline()
	pipe.ZAdd(ctx, r.setKey(name), redis.Z{Score: CompositeScore(s), Member: s.ID})
	pipe.HSet(ctx, r.standingKey(name), s.ID, encodeStanding(s))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("upsert rank board=%s id=%s: %w", name, s.ID, err)
	}
	return nil
}

func (r *Redis) Remove(ctx context.Context, name, id string) error {
	pipe := r.client.TxPipeline()
	pipe.ZRem(ctx, r.setKey(name), id)
	pipe.HDel(ctx, r.standingKey(name), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("remove rank board=%s id=%s: %w", name, id, err)
	}
	return nil
}

func (r *Redis) Rank(ctx context.Context, name, id string) (int, bool, error) {
	score, err := r.client.ZScore(ctx, r.setKey(name), id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("score board=%s id=%s: %w", name, id, err)
	}

	above, err := r.client.ZCount(ctx, r.setKey(name), "("+formatScore(score), "+inf").Result()
	if err != nil {
		return 0, false, fmt.Errorf("count above board=%s: %w", name, err)
	}

	tied, err := r.tiedStandings(ctx, name, score, score)
	if err != nil {
		return 0, false, err
	}
	ref, ok := findStanding(tied, id)
	if !ok {
		return int(above) + 1, true, nil
	}
	ahead := 0
	for _, s := range tied {
		if s.ID != id && leaderboard.Dominates(s, ref) {
			ahead++
		}
	}
	return int(above) + ahead + 1, true, nil
}

func (r *Redis) Count(ctx context.Context, name string) (int, error) {
	n, err := r.client.ZCard(ctx, r.setKey(name)).Result()
	if err != nil {
		return 0, fmt.Errorf("count board=%s: %w", name, err)
	}
	return int(n), nil
}

// Top widens the requested window to whole tie groups, orders them exactly and
// slices the requested positions back out.
func (r *Redis) Top(ctx context.Context, name string, limit, offset int) ([]string, error) {
	if offset < 0 {
		offset = 0
	}
	stop := int64(-1)
	if limit > 0 {
		stop = int64(offset + limit - 1)
	}
	window, err := r.client.ZRevRangeWithScores(ctx, r.setKey(name), int64(offset), stop).Result()
	if err != nil {
		return nil, fmt.Errorf("range board=%s: %w", name, err)
	}
	if len(window) == 0 {
		return []string{}, nil
	}

	maxScore := window[0].Score
	minScore := window[len(window)-1].Score
	above, err := r.client.ZCount(ctx, r.setKey(name), "("+formatScore(maxScore), "+inf").Result()
	if err != nil {
		return nil, fmt.Errorf("count above board=%s: %w", name, err)
	}

	group, err := r.tiedStandings(ctx, name, minScore, maxScore)
	if err != nil {
		return nil, err
	}
	sort.Slice(group, func(i, j int) bool { return leaderboard.Dominates(group[i], group[j]) })

	start := offset - int(above)
	if start < 0 {
		start = 0
	}
	end := start + len(window)
	if end > len(group) {
		end = len(group)
	}
	out := make([]string, 0, end-start)
	for _, s := range group[start:end] {
		out = append(out, s.ID)
	}
	return out, nil
}

func (r *Redis) Reset(ctx context.Context, name string) error {
	if err := r.client.Del(ctx, r.setKey(name), r.standingKey(name)).Err(); err != nil {
		return fmt.Errorf("reset board=%s: %w", name, err)
	}
	return nil
}

// tiedStandings loads the exact standings of every member scored in [min, max].
func (r *Redis) tiedStandings(ctx context.Context, name string, minScore, maxScore float64) ([]leaderboard.Standing, error) {
	ids, err := r.client.ZRangeByScore(ctx, r.setKey(name), &redis.ZRangeBy{
		Min: formatScore(minScore),
		Max: formatScore(maxScore),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("range tied board=%s: %w", name, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	raw, err := r.client.HMGet(ctx, r.standingKey(name), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("load standings board=%s: %w", name, err)
	}

	out := make([]leaderboard.Standing, 0, len(ids))
	for i, id := range ids {
		value, _ := raw[i].(string)
		s, err := decodeStanding(id, value)
		if err != nil {
			return nil, fmt.Errorf("decode standing board=%s id=%s: %w", name, id, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *Redis) setKey(name string) string {
	return r.prefix + ":rank:" + name
}

func (r *Redis) standingKey(name string) string {
	return r.prefix + ":rank:" + name + ":standing"
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'g', -1, 64)
}

func encodeStanding(s leaderboard.Standing) string {
	return strconv.FormatInt(s.Points, 10) + "|" + strconv.FormatInt(s.CreatedAt.UnixNano(), 10)
}

func decodeStanding(id, value string) (leaderboard.Standing, error) {
	pointsRaw, createdRaw, ok := strings.Cut(value, "|")
	if !ok {
		return leaderboard.Standing{}, fmt.Errorf("malformed standing %q", value)
	}
	points, err := strconv.ParseInt(pointsRaw, 10, 64)
	if err != nil {
		return leaderboard.Standing{}, fmt.Errorf("parse points: %w", err)
	}
	created, err := strconv.ParseInt(createdRaw, 10, 64)
	if err != nil {
		return leaderboard.Standing{}, fmt.Errorf("parse created_at: %w", err)
	}
	return leaderboard.Standing{ID: id, Points: points, CreatedAt: time.Unix(0, created).UTC()}, nil
}

func findStanding(items []leaderboard.Standing, id string) (leaderboard.Standing, bool) {
	for _, s := range items {
		if s.ID == id {
			return s, true
		}
	}
	return leaderboard.Standing{}, false
}
