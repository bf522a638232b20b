package services

import (
	"context"
	"log/slog"

	"github.com/candemet/matchup/live"
	"github.com/candemet/matchup/repositories"
)

// hubNotifier публикует итоги проведения и свежую таблицу лестницы
// подписчикам websocket-хаба. Вызывается после коммита транзакции.
type hubNotifier struct {
	hub      *live.Hub
	teamRepo repositories.TeamRepository
	logger   *slog.Logger
}

func NewHubNotifier(hub *live.Hub, teamRepo repositories.TeamRepository, logger *slog.Logger) LadderNotifier {
	return &hubNotifier{
		hub:      hub,
		teamRepo: teamRepo,
		logger:   logger,
	}
}

func (n *hubNotifier) SettlementCompleted(ctx context.Context, result *SettlementResult) {
	n.hub.BroadcastToLadder(result.LadderID, live.Message{
		Type:    live.MessageMatchSettled,
		Payload: result,
	})

	standings, err := n.teamRepo.ListLadderStandings(ctx, nil, result.LadderID)
	if err != nil {
		n.logger.Error("failed to load standings for broadcast",
			slog.Int("ladder_id", result.LadderID), slog.Any("error", err))
		return
	}
	n.hub.BroadcastToLadder(result.LadderID, live.Message{
		Type:    live.MessageStandingsUpdated,
		Payload: standings,
	})
}
