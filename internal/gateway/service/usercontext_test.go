package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/aussiebroadwan/m2mgate/internal/gateway/domain"
	"github.com/aussiebroadwan/m2mgate/internal/gateway/store"
	"github.com/aussiebroadwan/m2mgate/internal/gateway/store/mocks"
)

func TestParseUserContext(t *testing.T) {
	uc, err := ParseUserContext(`{"user_id":"ext-1","email":"taro@example.com"}`)
	require.NoError(t, err)
	require.Equal(t, &domain.UserContext{
		ExternalUserID: "ext-1",
		Email:          "taro@example.com",
		Role:           domain.RoleUser,
		DisplayName:    "taro",
	}, uc)

	uc, err = ParseUserContext(`{"user_id":"ext-2","email":"a@b.c","role":"agency","display_name":"Agent","team_id":"t-9"}`)
	require.NoError(t, err)
	require.Equal(t, domain.RoleAgency, uc.Role)
	require.Equal(t, "Agent", uc.DisplayName)
	require.Equal(t, "t-9", uc.TeamID)

	for _, raw := range []string{
		`not json`,
		`["user_id"]`,
		`{"user_id":"x"}`,
		`{"email":"a@b.c"}`,
		`{"user_id":42,"email":"a@b.c"}`,
		`{"user_id":"x","email":"a@b.c","role":"root"}`,
	} {
		_, err := ParseUserContext(raw)
		require.ErrorIs(t, err, ErrInvalidRequest, raw)
	}
}

func TestResolve_EmptyHeader(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := &UserContextService{Profiles: mocks.NewMockProfiles(ctrl)}

	uc, err := s.Resolve(context.Background(), "  ", true)
	require.NoError(t, err)
	require.Nil(t, uc)
}

func TestResolve_ExistingProfileWins(t *testing.T) {
	ctrl := gomock.NewController(t)
	profiles := mocks.NewMockProfiles(ctrl)
	profiles.EXPECT().GetByExternalID(gomock.Any(), "ext-1").Return(domain.Profile{
		ID:     "internal-1",
		Role:   domain.RoleViewer,
		TeamID: "team-stored",
	}, nil)

	s := &UserContextService{Profiles: profiles}
	uc, err := s.Resolve(context.Background(), `{"user_id":"ext-1","email":"a@b.c","role":"admin","team_id":"team-asserted"}`, true)
	require.NoError(t, err)
	require.Equal(t, "internal-1", uc.InternalUserID)
	require.Equal(t, domain.RoleViewer, uc.Role)
	require.Equal(t, "team-stored", uc.TeamID)
}

func TestResolve_KeepsAssertedTeamWhenProfileHasNone(t *testing.T) {
	ctrl := gomock.NewController(t)
	profiles := mocks.NewMockProfiles(ctrl)
	profiles.EXPECT().GetByExternalID(gomock.Any(), "ext-1").Return(domain.Profile{ID: "internal-1", Role: domain.RoleUser}, nil)

	s := &UserContextService{Profiles: profiles}
	uc, err := s.Resolve(context.Background(), `{"user_id":"ext-1","email":"a@b.c","team_id":"team-asserted"}`, false)
	require.NoError(t, err)
	require.Equal(t, "team-asserted", uc.TeamID)
}

func TestResolve_AutoProvision(t *testing.T) {
	ctrl := gomock.NewController(t)
	profiles := mocks.NewMockProfiles(ctrl)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	var created domain.Profile
	profiles.EXPECT().GetByExternalID(gomock.Any(), "ext-new").Return(domain.Profile{}, store.ErrNotFound)
	profiles.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, p domain.Profile) error {
		created = p
		return nil
	})

	s := &UserContextService{Profiles: profiles, Now: func() time.Time { return now }}
	uc, err := s.Resolve(context.Background(), `{"user_id":"ext-new","email":"hanako@example.com","role":"manager"}`, true)
	require.NoError(t, err)

	require.NotEmpty(t, created.ID)
	require.Equal(t, created.ID, uc.InternalUserID)
	require.Equal(t, "ext-new", created.ExternalUserID)
	require.Equal(t, "hanako", created.DisplayName)
	require.Equal(t, domain.RoleManager, created.Role)
	require.Equal(t, now, created.CreatedAt)
}

func TestResolve_ProvisionRace(t *testing.T) {
	ctrl := gomock.NewController(t)
	profiles := mocks.NewMockProfiles(ctrl)

	gomock.InOrder(
		profiles.EXPECT().GetByExternalID(gomock.Any(), "ext-1").Return(domain.Profile{}, store.ErrNotFound),
		profiles.EXPECT().Create(gomock.Any(), gomock.Any()).Return(store.ErrAlreadyExists),
		profiles.EXPECT().GetByExternalID(gomock.Any(), "ext-1").Return(domain.Profile{ID: "winner", Role: domain.RoleUser}, nil),
	)

	s := &UserContextService{Profiles: profiles}
	uc, err := s.Resolve(context.Background(), `{"user_id":"ext-1","email":"a@b.c"}`, true)
	require.NoError(t, err)
	require.Equal(t, "winner", uc.InternalUserID)
}

func TestResolve_NoAutoProvision(t *testing.T) {
	ctrl := gomock.NewController(t)
	profiles := mocks.NewMockProfiles(ctrl)
	profiles.EXPECT().GetByExternalID(gomock.Any(), "ext-1").Return(domain.Profile{}, store.ErrNotFound)

	s := &UserContextService{Profiles: profiles}
	_, err := s.Resolve(context.Background(), `{"user_id":"ext-1","email":"a@b.c"}`, false)
	require.ErrorIs(t, err, ErrProfileNotFound)
}

func TestResolve_StoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	profiles := mocks.NewMockProfiles(ctrl)
	boom := errors.New("disk on fire")
	profiles.EXPECT().GetByExternalID(gomock.Any(), "ext-1").Return(domain.Profile{}, boom)

	s := &UserContextService{Profiles: profiles}
	_, err := s.Resolve(context.Background(), `{"user_id":"ext-1","email":"a@b.c"}`, true)
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, ErrInvalidRequest)
}

func TestResolve_Timeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	profiles := mocks.NewMockProfiles(ctrl)
	profiles.EXPECT().GetByExternalID(gomock.Any(), "ext-1").DoAndReturn(
		func(ctx context.Context, _ string) (domain.Profile, error) {
			<-ctx.Done()
			return domain.Profile{}, ctx.Err()
		})

	s := &UserContextService{Profiles: profiles, Timeout: 10 * time.Millisecond}
	_, err := s.Resolve(context.Background(), `{"user_id":"ext-1","email":"a@b.c"}`, true)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFilter(t *testing.T) {
	require.False(t, Filter(nil).Restricted())
	require.False(t, Filter(&domain.UserContext{Role: domain.RoleUser}).Restricted())
	require.False(t, Filter(&domain.UserContext{InternalUserID: "u", Role: domain.RoleAdmin}).Restricted())
	require.False(t, Filter(&domain.UserContext{InternalUserID: "u", Role: domain.RoleManager}).Restricted())

	f := Filter(&domain.UserContext{InternalUserID: "u", Role: domain.RoleAgency})
	require.Equal(t, domain.RowFilter{OwnerUserID: "u"}, f)
}
