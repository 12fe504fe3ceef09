package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/trovemarket/trove-backend/api/middleware"
	pkgerrors "github.com/trovemarket/trove-backend/pkg/errors"
)

func actorIDFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing authenticated user")
	}
	actorID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id in context")
	}
	return actorID, nil
}
