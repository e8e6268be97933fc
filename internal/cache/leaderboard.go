package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	redis "github.com/redis/go-redis/v9"
)

const (
	leaderboardKey = "leaderboard:total_earned"
	rebuildBatch   = 500
)

// Score is one leaderboard member as stored in the sorted set.
type Score struct {
	AccountID   int64
	TotalEarned int64
}

// Leaderboard keeps accounts ranked by total_earned in a Redis sorted set.
// A nil *Leaderboard is valid and reports ErrDisabled.
type Leaderboard struct {
	rdb *redis.Client
	key string
}

var ErrDisabled = errors.New("leaderboard cache disabled")

func NewLeaderboard(rdb *redis.Client) *Leaderboard {
	if rdb == nil {
		return nil
	}
	return &Leaderboard{rdb: rdb, key: leaderboardKey}
}

// Update sets the score of one account.
func (l *Leaderboard) Update(ctx context.Context, accountID, totalEarned int64) error {
	if l == nil {
		return ErrDisabled
	}
	err := l.rdb.ZAdd(ctx, l.key, redis.Z{
		Score:  float64(totalEarned),
		Member: strconv.FormatInt(accountID, 10),
	}).Err()
	if err != nil {
		return fmt.Errorf("update leaderboard: %w", err)
	}
	return nil
}

// Remove drops an account, used when it is deleted.
func (l *Leaderboard) Remove(ctx context.Context, accountID int64) error {
	if l == nil {
		return ErrDisabled
	}
	return l.rdb.ZRem(ctx, l.key, strconv.FormatInt(accountID, 10)).Err()
}

// Top returns the best limit accounts, highest first.
func (l *Leaderboard) Top(ctx context.Context, limit int) ([]Score, error) {
	if l == nil {
		return nil, ErrDisabled
	}
	results, err := l.rdb.ZRevRangeWithScores(ctx, l.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}

	scores := make([]Score, 0, len(results))
	for _, z := range results {
		member, _ := z.Member.(string)
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			continue
		}
		scores = append(scores, Score{AccountID: id, TotalEarned: int64(z.Score)})
	}
	return scores, nil
}

// Rank returns the 1-based position of an account. ok is false when the
// account is not on the board.
func (l *Leaderboard) Rank(ctx context.Context, accountID int64) (rank int64, ok bool, err error) {
	if l == nil {
		return 0, false, ErrDisabled
	}
	r, err := l.rdb.ZRevRank(ctx, l.key, strconv.FormatInt(accountID, 10)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return r + 1, true, nil
}

// Rebuild replaces the whole set. fill is called with an add function and
// must feed every account; the new set is written under a temporary key and
// swapped in with RENAME so readers never see a half built board.
func (l *Leaderboard) Rebuild(ctx context.Context, fill func(add func(accountID, totalEarned int64) error) error) (int, error) {
	if l == nil {
		return 0, ErrDisabled
	}
	tmp := l.key + ":rebuild"
	if err := l.rdb.Del(ctx, tmp).Err(); err != nil {
		return 0, err
	}

	batch := make([]redis.Z, 0, rebuildBatch)
	total := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := l.rdb.ZAdd(ctx, tmp, batch...).Err(); err != nil {
			return err
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	err := fill(func(accountID, totalEarned int64) error {
		batch = append(batch, redis.Z{Score: float64(totalEarned), Member: strconv.FormatInt(accountID, 10)})
		if len(batch) >= rebuildBatch {
			return flush()
		}
		return nil
	})
	if err == nil {
		err = flush()
	}
	if err != nil {
		_ = l.rdb.Del(ctx, tmp).Err()
		return 0, fmt.Errorf("rebuild leaderboard: %w", err)
	}

	if total == 0 {
		return 0, l.rdb.Del(ctx, l.key).Err()
	}
	if err := l.rdb.Rename(ctx, tmp, l.key).Err(); err != nil {
		return 0, fmt.Errorf("swap leaderboard: %w", err)
	}
	return total, nil
}
