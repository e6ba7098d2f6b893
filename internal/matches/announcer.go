package matches

import (
	"context"
	"fmt"
	"time"

	"github.com/goalmates-app/goalmates-backend/internal/notifications"
	"github.com/goalmates-app/goalmates-backend/internal/teams"
	"github.com/goalmates-app/goalmates-backend/pkg/db/models"
	pkgerrors "github.com/goalmates-app/goalmates-backend/pkg/errors"
	"github.com/goalmates-app/goalmates-backend/pkg/logger"
	"github.com/google/uuid"
)

// Announcer fans a freshly scheduled match out to every rostered player of
// both teams. It is the main producer feeding NotifyMany.
type Announcer struct {
	repo     Repository
	teams    teams.Repository
	notifier notifications.Service
	log      *logger.Logger
}

// NewAnnouncer wires the match announcer dependencies.
func NewAnnouncer(repo Repository, teamsRepo teams.Repository, notifier notifications.Service, log *logger.Logger) (*Announcer, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "matches repository required")
	}
	if teamsRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "teams repository required")
	}
	if notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications service required")
	}
	if log == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &Announcer{repo: repo, teams: teamsRepo, notifier: notifier, log: log}, nil
}

// Schedule persists the match and announces it to both rosters.
func (a *Announcer) Schedule(ctx context.Context, match *models.Match) error {
	if match == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "match required")
	}
	if match.HomeTeamID == uuid.Nil || match.AwayTeamID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "both team ids required")
	}
	if match.ScheduledAt.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "scheduled time required")
	}
	if match.ID == uuid.Nil {
		match.ID = uuid.New()
	}

	if err := a.repo.Create(ctx, match); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create match")
	}
	return a.AnnounceScheduled(ctx, *match)
}

// AnnounceScheduled notifies every distinct member of the two rosters,
// except the creator, in a single batch.
func (a *Announcer) AnnounceScheduled(ctx context.Context, match models.Match) error {
	memberIDs, err := a.teams.MemberUserIDs(ctx, []uuid.UUID{match.HomeTeamID, match.AwayTeamID})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rosters")
	}

	body := a.buildBody(ctx, match)

	payloads := make([]notifications.CreatePayload, 0, len(memberIDs))
	for _, memberID := range memberIDs {
		if memberID == match.CreatorID {
			continue
		}
		senderID := match.CreatorID
		payloads = append(payloads, notifications.CreatePayload{
			SenderID:   &senderID,
			ReceiverID: memberID,
			Title:      "Match scheduled",
			Body:       body,
		})
	}
	if len(payloads) == 0 {
		a.log.Debug(ctx, "match has no rostered receivers, skipping announcement")
		return nil
	}

	if err := a.notifier.NotifyMany(ctx, payloads); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "announce match")
	}
	return nil
}

// buildBody formats the announcement. A missing venue falls back to a
// body without the place label rather than failing the fan-out.
func (a *Announcer) buildBody(ctx context.Context, match models.Match) string {
	when := match.ScheduledAt.Format(time.RFC1123)

	place, err := a.repo.FindPlaceByID(ctx, match.PlaceID)
	if err != nil {
		a.log.Error(ctx, "load place for announcement", err)
		place = nil
	}
	if place == nil {
		return fmt.Sprintf("A match has been scheduled for %s", when)
	}
	return fmt.Sprintf("A match has been scheduled at %s, %s for %s", place.Name, place.City, when)
}
