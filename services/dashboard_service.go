package services

import (
	"context"

	"github.com/Dosada05/tournament-scoreboard/models"
	"github.com/Dosada05/tournament-scoreboard/repositories"
	"golang.org/x/sync/errgroup"
)

type DashboardService interface {
	GetStats(ctx context.Context) (models.DashboardStats, error)
}

type dashboardService struct {
	playerRepo repositories.PlayerRepository
	matchRepo  repositories.MatchRepository
	winnerRepo repositories.WinnerRepository
}

func NewDashboardService(
	playerRepo repositories.PlayerRepository,
	matchRepo repositories.MatchRepository,
	winnerRepo repositories.WinnerRepository,
) DashboardService {
	return &dashboardService{
		playerRepo: playerRepo,
		matchRepo:  matchRepo,
		winnerRepo: winnerRepo,
	}
}

// GetStats считает игроков и матчи по статусам. Viewers заполняет handler из хаба.
func (s *dashboardService) GetStats(ctx context.Context) (models.DashboardStats, error) {
	var (
		players []*models.Player
		matches []*models.Match
		winners []*models.TournamentWinner
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		players, err = s.playerRepo.List(gctx, nil)
		return mapPlayerStoreError("list players", err)
	})
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.List(gctx, repositories.MatchFilter{})
		return mapMatchStoreError("list matches", err)
	})
	g.Go(func() error {
		var err error
		winners, err = s.winnerRepo.List(gctx)
		return mapWinnerStoreError("list winners", err)
	})
	if err := g.Wait(); err != nil {
		return models.DashboardStats{}, err
	}

	stats := models.DashboardStats{
		PlayersTotal:    len(players),
		MatchesTotal:    len(matches),
		WinnersDeclared: len(winners),
	}
	for _, p := range players {
		switch p.Status {
		case models.PlayerStatusPending:
			stats.PlayersPending++
		case models.PlayerStatusApproved:
			stats.PlayersApproved++
		case models.PlayerStatusRejected:
			stats.PlayersRejected++
		}
	}
	for _, m := range matches {
		switch m.Status {
		case models.MatchStatusUpcoming:
			stats.MatchesUpcoming++
		case models.MatchStatusLive:
			stats.MatchesLive++
		case models.MatchStatusCompleted:
			stats.MatchesCompleted++
		}
	}
	return stats, nil
}
