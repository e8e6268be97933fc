package service

import (
	"context"
	"fmt"
	"time"

	"tapearn/internal/domain"
	"tapearn/internal/game"
	"tapearn/internal/repository"

	"github.com/jackc/pgx/v5"
)

type MinigameService struct {
	*Ledger
	repo    *repository.MinigameRepository
	catalog *game.Catalog
	wheel   *game.Wheel
}

func NewMinigameService(l *Ledger, catalog *game.Catalog, wheel *game.Wheel) *MinigameService {
	return &MinigameService{
		Ledger:  l,
		repo:    repository.NewMinigameRepository(l.pool),
		catalog: catalog,
		wheel:   wheel,
	}
}

func (s *MinigameService) Catalog() []game.Minigame {
	return s.catalog.List()
}

// Reward credits a client reported minigame result. The amount is capped per
// game and each game has its own cooldown.
func (s *MinigameService) Reward(ctx context.Context, id int64, gameName string, amount int64) (*domain.Account, error) {
	g, ok := s.catalog.Lookup(gameName)
	if !ok {
		return nil, domain.ErrUnknownGame
	}
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if amount > g.MaxReward {
		return nil, domain.ErrRewardTooLarge
	}

	acc, err := s.mutate(ctx, id, func(tx pgx.Tx, acc *domain.Account, now time.Time) error {
		if err := s.checkCooldown(ctx, tx, acc.ID, g.Name, g.Cooldown, now); err != nil {
			return err
		}
		return s.pay(ctx, tx, acc, g.Name, amount, now, fmt.Sprintf("Reward from %s", g.Title))
	})
	if err != nil {
		return nil, err
	}
	CoinsCredited.WithLabelValues(string(domain.TxMinigame)).Add(float64(amount))
	return acc, nil
}

// SpinOutcome is returned by Spin.
type SpinOutcome struct {
	Account    *domain.Account `json:"user"`
	Spin       game.WheelSpin  `json:"spin"`
	NextSpinAt time.Time       `json:"next_spin_at"`
}

// Spin draws a server side wheel reward, at most once per SpinCooldown.
func (s *MinigameService) Spin(ctx context.Context, id int64) (*SpinOutcome, error) {
	var (
		spin game.WheelSpin
		at   time.Time
	)
	acc, err := s.mutate(ctx, id, func(tx pgx.Tx, acc *domain.Account, now time.Time) error {
		if err := s.checkCooldown(ctx, tx, acc.ID, game.SpinGameName, game.SpinCooldown, now); err != nil {
			return err
		}
		res, err := s.wheel.Spin()
		if err != nil {
			return fmt.Errorf("spin wheel: %w", err)
		}
		spin, at = res, now
		return s.pay(ctx, tx, acc, game.SpinGameName, res.Segment.Reward, now, "Lucky wheel: "+res.Segment.Label)
	})
	if err != nil {
		return nil, err
	}
	CoinsCredited.WithLabelValues(string(domain.TxMinigame)).Add(float64(spin.Segment.Reward))
	return &SpinOutcome{Account: acc, Spin: spin, NextSpinAt: at.Add(game.SpinCooldown)}, nil
}

func (s *MinigameService) checkCooldown(ctx context.Context, tx pgx.Tx, id int64, name string, cooldown time.Duration, now time.Time) error {
	last, ok, err := s.repo.WithTx(tx).LastClaim(ctx, id, name)
	if err != nil {
		return fmt.Errorf("last claim: %w", err)
	}
	if ok && now.Sub(last) < cooldown {
		return domain.ErrCooldown
	}
	return nil
}

func (s *MinigameService) pay(ctx context.Context, tx pgx.Tx, acc *domain.Account, name string, amount int64, now time.Time, desc string) error {
	if err := s.repo.WithTx(tx).Create(ctx, &domain.MinigameReward{
		AccountID: acc.ID,
		GameName:  name,
		Amount:    amount,
		CreatedAt: now,
	}); err != nil {
		return fmt.Errorf("log minigame reward: %w", err)
	}
	credit(acc, amount)
	acc.LastSeenAt = now
	return s.record(ctx, tx, acc.ID, domain.TxMinigame, amount, desc, map[string]interface{}{"game_name": name})
}
