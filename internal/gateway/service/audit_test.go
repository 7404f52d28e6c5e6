package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/aussiebroadwan/m2mgate/internal/gateway/domain"
	"github.com/aussiebroadwan/m2mgate/internal/gateway/store/mocks"
	"github.com/aussiebroadwan/m2mgate/pkg/auditx"
	"github.com/aussiebroadwan/m2mgate/pkg/slogx"
)

func bufferLogger(buf *bytes.Buffer) context.Context {
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return slogx.WithContext(context.Background(), logger)
}

func TestAuditService_RecordMasks(t *testing.T) {
	ctrl := gomock.NewController(t)
	logs := mocks.NewMockAuditLogs(ctrl)
	now := time.Date(2026, 5, 5, 5, 5, 5, 0, time.UTC)

	var stored domain.AuditEntry
	logs.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e domain.AuditEntry) error {
		stored = e
		return nil
	})

	s := &AuditService{Logs: logs, Now: func() time.Time { return now }}
	s.Record(context.Background(), domain.AuditEntry{
		Entity:   "customers",
		EntityID: "c-1",
		Action:   domain.ActionUpdate,
		Diff: ChangeSet(auditx.Diff(
			map[string]any{"name": "A", "email": "a@example.com"},
			map[string]any{"name": "B", "email": "b@example.com"},
		)),
	})

	require.NotEmpty(t, stored.ID)
	require.Equal(t, now, stored.CreatedAt)
	require.Equal(t, map[string]any{"before": "A", "after": "B"}, stored.Diff["name"])
	require.Equal(t, map[string]any{"before": auditx.MaskedValue, "after": auditx.MaskedValue}, stored.Diff["email"])
}

func TestAuditService_RecordSwallowsErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	logs := mocks.NewMockAuditLogs(ctrl)
	logs.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(errors.New("db down"))

	var buf bytes.Buffer
	s := &AuditService{Logs: logs}
	require.NotPanics(t, func() {
		s.Record(bufferLogger(&buf), domain.AuditEntry{Entity: "customers", Action: domain.ActionCreate})
	})
	require.Contains(t, buf.String(), "audit log write failed")
}

func TestAuditService_RecordDropsUnknownAction(t *testing.T) {
	ctrl := gomock.NewController(t)
	logs := mocks.NewMockAuditLogs(ctrl)

	s := &AuditService{Logs: logs}
	s.Record(context.Background(), domain.AuditEntry{Entity: "customers", Action: "explode"})
}

func TestLog_MasksMetadata(t *testing.T) {
	var buf bytes.Buffer
	Log(bufferLogger(&buf), slog.LevelWarn, "m2m request denied", map[string]any{
		"client_secret": "hunter2",
		"ip":            "10.0.0.1",
		"note":          "call 090-1234-5678",
	})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "WARN", line["level"])
	require.Equal(t, "m2m request denied", line["msg"])
	require.Equal(t, auditx.MaskedValue, line["client_secret"])
	require.Equal(t, "10.0.0.1", line["ip"])
	require.Equal(t, "call "+auditx.MaskedPhone, line["note"])
	require.NotContains(t, buf.String(), "hunter2")
}
