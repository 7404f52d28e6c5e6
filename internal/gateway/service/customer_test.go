package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/m2mgate/internal/gateway/domain"
	"github.com/aussiebroadwan/m2mgate/internal/gateway/store"
	"github.com/aussiebroadwan/m2mgate/internal/gateway/store/drivers/sqlite"
	"github.com/aussiebroadwan/m2mgate/pkg/auditx"
)

type customerFixture struct {
	svc   *CustomerService
	users *UserContextService
	store store.Store
	clock *testClock
}

func newCustomerFixture(t *testing.T) *customerFixture {
	t.Helper()
	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	clock := &testClock{now: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)}
	return &customerFixture{
		svc: &CustomerService{
			Store: st,
			Audit: &AuditService{Logs: st.AuditLogs(), Now: clock.Now},
			Now:   clock.Now,
		},
		users: &UserContextService{Profiles: st.Profiles(), Now: clock.Now},
		store: st,
		clock: clock,
	}
}

func (f *customerFixture) caller(t *testing.T, externalID string, role domain.Role) CallerInfo {
	t.Helper()
	uc, err := f.users.Resolve(context.Background(),
		`{"user_id":"`+externalID+`","email":"`+externalID+`@example.com","role":"`+string(role)+`"}`, true)
	require.NoError(t, err)
	return CallerInfo{ClientID: "order-service", User: uc}
}

func ptr(s string) *string { return &s }

func TestCustomerService_Create(t *testing.T) {
	f := newCustomerFixture(t)
	ctx := context.Background()
	caller := f.caller(t, "ext-1", domain.RoleUser)

	c, err := f.svc.Create(ctx, caller, CustomerInput{
		CustomerCode: ptr("ＣＵＳ－００１"),
		Name:         ptr("ﾔﾏﾀﾞ ﾀﾛｳ"),
		Email:        ptr("taro@example.com"),
		CustomerType: ptr("corporate"),
	})
	require.NoError(t, err)
	require.Equal(t, "CUS-001", c.CustomerCode)
	require.Equal(t, "ヤマダ タロウ", c.Name)
	require.Equal(t, caller.User.InternalUserID, c.OwnerUserID)

	_, err = f.svc.Create(ctx, caller, CustomerInput{CustomerCode: ptr("CUS-001"), Name: ptr("dup")})
	require.ErrorIs(t, err, ErrConflict)

	entries, err := f.store.AuditLogs().ListByEntity(ctx, "customers", c.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, domain.ActionCreate, entries[0].Action)

	newValue := entries[0].Diff["newValue"].(map[string]any)
	require.Equal(t, auditx.MaskedValue, newValue["email"])
	require.Equal(t, "CUS-001", newValue["customer_code"])
	metadata := entries[0].Diff["metadata"].(map[string]any)
	require.Equal(t, "m2m_api", metadata["via"])
}

func TestCustomerService_CreateValidation(t *testing.T) {
	f := newCustomerFixture(t)
	ctx := context.Background()
	caller := f.caller(t, "ext-1", domain.RoleUser)

	_, err := f.svc.Create(ctx, CallerInfo{ClientID: "svc"}, CustomerInput{Name: ptr("x")})
	require.ErrorIs(t, err, ErrInvalidRequest)

	bad := []CustomerInput{
		{},
		{Name: ptr("   ")},
		{Name: ptr("x"), CustomerType: ptr("alien")},
		{Name: ptr("x"), Email: ptr("not-an-email")},
		{Name: ptr("x"), BirthDate: ptr("01/02/2000")},
		{Name: ptr("x"), Gender: ptr("unknown")},
		{Name: ptr("x"), Phone: ptr("012345678901234567890")},
	}
	for _, in := range bad {
		_, err := f.svc.Create(ctx, caller, in)
		require.ErrorIs(t, err, ErrValidation)
	}

	c, err := f.svc.Create(ctx, caller, CustomerInput{Name: ptr("Generated Code")})
	require.NoError(t, err)
	require.NotEmpty(t, c.CustomerCode)
}

func TestCustomerService_UpdateRecordsDiff(t *testing.T) {
	f := newCustomerFixture(t)
	ctx := context.Background()
	owner := f.caller(t, "owner", domain.RoleUser)
	stranger := f.caller(t, "stranger", domain.RoleUser)
	admin := f.caller(t, "boss", domain.RoleAdmin)

	c, err := f.svc.Create(ctx, owner, CustomerInput{Name: ptr("Acme"), Phone: ptr("03-1234-5678")})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, stranger, c.ID, CustomerInput{Name: ptr("Hijack")})
	require.ErrorIs(t, err, ErrNotFound)

	f.clock.now = f.clock.now.Add(time.Minute)
	updated, err := f.svc.Update(ctx, admin, c.ID, CustomerInput{Name: ptr("Acme Holdings"), Phone: ptr("03-9999-0000")})
	require.NoError(t, err)
	require.Equal(t, "Acme Holdings", updated.Name)
	require.True(t, updated.UpdatedAt.After(c.UpdatedAt))

	entries, err := f.store.AuditLogs().ListByEntity(ctx, "customers", c.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, domain.ActionUpdate, entries[0].Action)
	require.Equal(t, admin.User.InternalUserID, entries[0].ActorUserID)
	require.Equal(t, map[string]any{"before": "Acme", "after": "Acme Holdings"}, entries[0].Diff["name"])
	require.Equal(t, map[string]any{"before": auditx.MaskedValue, "after": auditx.MaskedValue}, entries[0].Diff["phone"])
	require.NotContains(t, entries[0].Diff, "updated_at")

	same, err := f.svc.Update(ctx, owner, c.ID, CustomerInput{Name: ptr("Acme Holdings")})
	require.NoError(t, err)
	require.Equal(t, updated.Name, same.Name)
	entries, err = f.store.AuditLogs().ListByEntity(ctx, "customers", c.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	_, err = f.svc.Update(ctx, owner, c.ID, CustomerInput{CustomerCode: ptr("NEW")})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCustomerService_SearchAppliesRowFilter(t *testing.T) {
	f := newCustomerFixture(t)
	ctx := context.Background()
	alice := f.caller(t, "alice", domain.RoleUser)
	bob := f.caller(t, "bob", domain.RoleUser)
	manager := f.caller(t, "mgr", domain.RoleManager)

	_, err := f.svc.Create(ctx, alice, CustomerInput{Name: ptr("Alpha Trading")})
	require.NoError(t, err)
	f.clock.now = f.clock.now.Add(time.Second)
	_, err = f.svc.Create(ctx, bob, CustomerInput{Name: ptr("Alpha Foods")})
	require.NoError(t, err)

	res, err := f.svc.Search(ctx, alice.User, "Ａｌｐｈａ", 0)
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.Equal(t, "Alpha Trading", res[0].Name)

	res, err = f.svc.Search(ctx, manager.User, "alpha", 0)
	require.NoError(t, err)
	require.Len(t, res, 2)

	res, err = f.svc.Search(ctx, nil, "", 1)
	require.NoError(t, err)
	require.Len(t, res, 1)

	res, err = f.svc.Search(ctx, nil, "", 1000)
	require.NoError(t, err)
	require.Len(t, res, 2)
}

func TestNormalizeText(t *testing.T) {
	require.Equal(t, "ガギグ", NormalizeText("ｶﾞｷﾞｸﾞ"))
	require.Equal(t, "ABC-123", NormalizeText("ＡＢＣ－１２３"))
	require.Equal(t, "山田 太郎", NormalizeText("山田　太郎"))
}
