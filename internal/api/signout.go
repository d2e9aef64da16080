package api

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/hlog"
	"github.com/truinsights/voicejournal/internal/auth"
)

// SessionRevoker invalidates sessions on the auth backend.
type SessionRevoker interface {
	SignOut(ctx context.Context, token string) error
}

// SignOutHandler handles POST /api/v1/auth/signout. The session is
// revoked upstream, the server holds no state of its own. A nil revoker
// (auth gate disabled) is a no-op.
func SignOutHandler(revoker SessionRevoker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if revoker != nil {
			if err := revoker.SignOut(r.Context(), auth.BearerToken(r)); err != nil {
				hlog.FromRequest(r).Warn().Err(err).Msg("signout failed upstream")
				WriteError(w, http.StatusBadGateway, "failed to sign out")
				return
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
