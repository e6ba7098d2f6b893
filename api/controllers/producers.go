package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/goalmates-app/goalmates-backend/api/responses"
	"github.com/goalmates-app/goalmates-backend/api/validators"
	"github.com/goalmates-app/goalmates-backend/internal/matches"
	"github.com/goalmates-app/goalmates-backend/internal/teams"
	"github.com/goalmates-app/goalmates-backend/pkg/db/models"
	pkgerrors "github.com/goalmates-app/goalmates-backend/pkg/errors"
	"github.com/goalmates-app/goalmates-backend/pkg/logger"
)

type scheduleMatchRequest struct {
	HomeTeamID  uuid.UUID `json:"homeTeamId" validate:"required"`
	AwayTeamID  uuid.UUID `json:"awayTeamId" validate:"required"`
	PlaceID     uuid.UUID `json:"placeId"`
	ScheduledAt time.Time `json:"scheduledAt" validate:"required"`
}

// JoinTeam adds the caller to a team and notifies its owner.
func JoinTeam(svc teams.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		teamID, err := uuid.Parse(chi.URLParam(r, "teamId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid team id"))
			return
		}

		if err := svc.Join(r.Context(), teamID, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"status": "joined"})
	}
}

// ScheduleMatch persists a match and fans the announcement out to both
// rosters, with the caller as creator.
func ScheduleMatch(announcer *matches.Announcer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req scheduleMatchRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		match := &models.Match{
			HomeTeamID:  req.HomeTeamID,
			AwayTeamID:  req.AwayTeamID,
			PlaceID:     req.PlaceID,
			CreatorID:   userID,
			ScheduledAt: req.ScheduledAt,
		}
		if err := announcer.Schedule(r.Context(), match); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]uuid.UUID{"id": match.ID})
	}
}
