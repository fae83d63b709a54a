package service

import (
	"context"
	"fmt"
	"time"

	"github.com/forgo/hangman/api/internal/model"
)

// sessionLedger keeps a session's counters in line with its game list.
// Counters are always recomputed from the games rather than incremented, so
// a crash between a game write and a session write heals on the next
// settle.
type sessionLedger struct {
	sessions SessionRepository
	games    GameRepository
	notifier Notifier
	locks    *EntityLocks
	now      func() time.Time
}

type sessionTally struct {
	created int
	won     int
	lost    int
	open    int
}

func tallyGames(games []*model.Game) sessionTally {
	var t sessionTally
	t.created = len(games)
	for _, g := range games {
		switch g.Status {
		case model.GameStatusWon:
			t.won++
		case model.GameStatusLost:
			t.lost++
		case model.GameStatusInProgress:
			t.open++
		}
	}
	return t
}

// settle recomputes the session counters from its games and completes the
// session once every slot has been used and no game is still in progress.
func (l *sessionLedger) settle(ctx context.Context, sessionID string) (*model.Session, error) {
	unlock := l.locks.Session(sessionID)
	defer unlock()
	return l.settleLocked(ctx, sessionID)
}

// settleLocked is settle for callers already holding the session lock
func (l *sessionLedger) settleLocked(ctx context.Context, sessionID string) (*model.Session, error) {
	session, err := l.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	games, err := l.games.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list session games: %w", err)
	}
	tally := tallyGames(games)

	patch := model.SessionPatch{}
	if session.GamesCreated != tally.created {
		patch.GamesCreated = &tally.created
	}
	if session.GamesWon != tally.won {
		patch.GamesWon = &tally.won
	}
	if session.GamesLost != tally.lost {
		patch.GamesLost = &tally.lost
	}

	completed := false
	if session.Status == model.SessionStatusActive && tally.created >= session.NumGames && tally.open == 0 {
		status := model.SessionStatusCompleted
		finished := l.now()
		patch.Status = &status
		patch.FinishedAt = &finished
		completed = true
	}

	if patch == (model.SessionPatch{}) {
		return session, nil
	}

	updated, err := l.sessions.Update(ctx, sessionID, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	if completed {
		l.notifier.Publish(&Event{
			Type:       EventSessionCompleted,
			UserID:     updated.UserID,
			SessionID:  updated.ID,
			Status:     string(updated.Status),
			OccurredAt: *updated.FinishedAt,
		})
	}
	return updated, nil
}
