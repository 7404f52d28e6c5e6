package http

import (
	"errors"
	"mime"
	"net/http"

	"github.com/aussiebroadwan/m2mgate/internal/gateway/service"
	"github.com/aussiebroadwan/m2mgate/pkg/httpx"
	"github.com/aussiebroadwan/m2mgate/pkg/m2msdk"
	"github.com/aussiebroadwan/m2mgate/pkg/slogx"
)

// TokenHandler serves POST /oauth2/token
// Accepts application/x-www-form-urlencoded per RFC 6749 section 4.4.
type TokenHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 Token Endpoint
//	@Description	Issues access tokens using the client_credentials grant.
//	@Tags			OAuth2
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			grant_type		formData	string					true	"Grant type"	Enums(client_credentials)
//	@Param			client_id		formData	string					true	"Client identifier"
//	@Param			client_secret	formData	string					true	"Client secret"
//	@Param			scope			formData	string					false	"Space-delimited list of scopes"
//	@Success		200				{object}	m2msdk.TokenResponse	"access_token, token_type, expires_in, scope"
//	@Failure		400				{object}	m2msdk.OAuth2Error		"error, error_description"
//	@Failure		401				{object}	m2msdk.OAuth2Error		"error, error_description"
//	@Failure		403				{object}	m2msdk.OAuth2Error		"error, error_description"
//	@Failure		429				{object}	m2msdk.OAuth2Error		"error, error_description, resetAt"
//	@Failure		500				{object}	m2msdk.OAuth2Error		"error, error_description"
//	@Header			200				{string}	Cache-Control			"no-store"
//	@Header			200				{string}	Pragma					"no-cache"
//	@Router			/oauth2/token [post].
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	httpx.NoCache(w)

	// 1. Ensure the right content-type; media types are case-insensitive
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mt != "application/x-www-form-urlencoded" {
		m2msdk.ErrInvalidContentType.WriteError(w)
		return
	}

	// 2. Parse the form body
	if err := r.ParseForm(); err != nil {
		m2msdk.ErrInvalidFormBody.WriteError(w)
		return
	}

	token, err := h.TokenService.IssueToken(ctx, service.TokenRequest{
		GrantType:    r.PostForm.Get("grant_type"),
		ClientID:     r.PostForm.Get("client_id"),
		ClientSecret: r.PostForm.Get("client_secret"),
		Scopes:       httpx.ParseSpaceDelimitedFields(r.PostForm.Get("scope")),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnsupportedGrantType):
			m2msdk.ErrUnsupportedGrantType.WriteError(w)
		case errors.Is(err, service.ErrInvalidRequest):
			m2msdk.ErrInvalidRequest.WithDescription("missing client_id or client_secret").WriteError(w)
		case errors.Is(err, service.ErrInvalidClient):
			m2msdk.ErrInvalidClient.WriteError(w)
		case errors.Is(err, service.ErrInvalidScope):
			m2msdk.ErrInvalidScope.WriteError(w)
		case errors.Is(err, service.ErrServerMisconfigured):
			m2msdk.ErrServerError.WithDescription("internal server configuration error").WriteError(w)
		default:
			log.Error("client_credentials grant failed", "err", err)
			m2msdk.ErrServerError.WithDescription("an unexpected error occurred").WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, m2msdk.TokenResponse{
		AccessToken: token.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   token.ExpiresIn,
		Scope:       token.Scope(),
	})
}
