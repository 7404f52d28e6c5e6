package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/aussiebroadwan/m2mgate/internal/gateway/domain"
	"github.com/aussiebroadwan/m2mgate/internal/gateway/store"
	"github.com/aussiebroadwan/m2mgate/pkg/slogx"
)

// DefaultUserContextTimeout bounds the profile lookup and provisioning.
const DefaultUserContextTimeout = 5 * time.Second

// UserContextService maps an asserted external user onto a local profile.
type UserContextService struct {
	Profiles store.Profiles
	Timeout  time.Duration
	Now      func() time.Time
}

func (s *UserContextService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// ParseUserContext validates the raw header value. user_id and email are
// required, role defaults to user and display_name to the email local part.
func ParseUserContext(raw string) (*domain.UserContext, error) {
	raw = strings.TrimSpace(raw)
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("%w: user context is not valid JSON", ErrInvalidRequest)
	}
	doc := gjson.Parse(raw)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: user context must be a JSON object", ErrInvalidRequest)
	}

	userID := stringField(doc, "user_id")
	email := stringField(doc, "email")
	if userID == "" || email == "" {
		return nil, fmt.Errorf("%w: user context requires user_id and email", ErrInvalidRequest)
	}

	role := domain.Role(stringField(doc, "role"))
	if role == "" {
		role = domain.RoleUser
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: invalid role %q", ErrInvalidRequest, role)
	}

	display := stringField(doc, "display_name")
	if display == "" {
		display, _, _ = strings.Cut(email, "@")
	}

	return &domain.UserContext{
		ExternalUserID: userID,
		Email:          email,
		Role:           role,
		DisplayName:    display,
		TeamID:         stringField(doc, "team_id"),
	}, nil
}

func stringField(doc gjson.Result, path string) string {
	v := doc.Get(path)
	if v.Type != gjson.String {
		return ""
	}
	return strings.TrimSpace(v.String())
}

// Resolve parses raw and maps it to a local profile. An empty header
// yields (nil, nil); endpoints decide whether that is acceptable.
//
// The stored role and team of an existing profile win over the asserted
// ones. A missing profile is created when autoProvision is set, otherwise
// ErrProfileNotFound is returned. Store failures and timeouts are
// reported as wrapped errors for the caller to map to server_error.
func (s *UserContextService) Resolve(ctx context.Context, raw string, autoProvision bool) (*domain.UserContext, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	uc, err := ParseUserContext(raw)
	if err != nil {
		return nil, err
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultUserContextTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	l := slogx.FromContext(ctx)

	profile, err := s.Profiles.GetByExternalID(ctx, uc.ExternalUserID)
	switch {
	case err == nil:
		return mergeProfile(uc, profile), nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("lookup profile: %w", err)
	}

	if !autoProvision {
		l.Warn("user context rejected", "reason", "profile_not_found", "external_user_id", uc.ExternalUserID)
		return nil, ErrProfileNotFound
	}

	now := s.now().UTC()
	profile = domain.Profile{
		ID:             uuid.NewString(),
		ExternalUserID: uc.ExternalUserID,
		Email:          uc.Email,
		DisplayName:    uc.DisplayName,
		Role:           uc.Role,
		TeamID:         uc.TeamID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Profiles.Create(ctx, profile); err != nil {
		if !errors.Is(err, store.ErrAlreadyExists) {
			return nil, fmt.Errorf("provision profile: %w", err)
		}
		// Lost a race with a concurrent request for the same user.
		profile, err = s.Profiles.GetByExternalID(ctx, uc.ExternalUserID)
		if err != nil {
			return nil, fmt.Errorf("lookup profile: %w", err)
		}
		return mergeProfile(uc, profile), nil
	}

	l.Info("user provisioned",
		"internal_user_id", profile.ID,
		"external_user_id", uc.ExternalUserID,
		"role", profile.Role,
	)
	return mergeProfile(uc, profile), nil
}

func mergeProfile(uc *domain.UserContext, p domain.Profile) *domain.UserContext {
	out := *uc
	out.InternalUserID = p.ID
	if p.Role.Valid() {
		out.Role = p.Role
	}
	if p.TeamID != "" {
		out.TeamID = p.TeamID
	}
	return &out
}

// Filter returns the row restriction for uc. Without a resolved context,
// and for admin and manager roles, nothing is restricted.
func Filter(uc *domain.UserContext) domain.RowFilter {
	if uc == nil || uc.InternalUserID == "" {
		return domain.RowFilter{}
	}
	if uc.Role.SeesAllRows() {
		return domain.RowFilter{}
	}
	return domain.RowFilter{OwnerUserID: uc.InternalUserID}
}
