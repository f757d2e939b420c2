package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/citadia/citadia/internal/audit/domain"
	"github.com/citadia/citadia/internal/audit/repository"
	"github.com/citadia/citadia/internal/reqctx"
)

func setupAuditService(t *testing.T) (auditdomain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&auditdomain.AuditLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
	return svc, db, node
}

func TestRecord_CapturesActorAndRequestContext(t *testing.T) {
	svc, db, node := setupAuditService(t)

	ctx := reqctx.WithActor(context.Background(), string(auditdomain.ActorTypeOperator), "superadmin")
	ctx = reqctx.WithRequestID(ctx, "req-42")
	ctx = reqctx.WithIPAddress(ctx, "203.0.113.7")

	tenantID := node.Generate()
	target := tenantID.String()
	err := svc.Record(ctx, &tenantID, "tenant.suspended", "tenant", &target, map[string]any{
		"reason": "impaye",
	})
	require.NoError(t, err)

	var entry auditdomain.AuditLog
	require.NoError(t, db.First(&entry).Error)
	require.Equal(t, "tenant.suspended", entry.Action)
	require.Equal(t, string(auditdomain.ActorTypeOperator), entry.ActorType)
	require.NotNil(t, entry.ActorID)
	require.Equal(t, "superadmin", *entry.ActorID)
	require.NotNil(t, entry.TenantID)
	require.Equal(t, tenantID, *entry.TenantID)
	require.Equal(t, "impaye", entry.Metadata["reason"])
	require.Equal(t, "req-42", entry.Metadata["request_id"])
	require.NotNil(t, entry.IPAddress)
	require.Equal(t, "203.0.113.7", *entry.IPAddress)
}

func TestRecord_RejectsEmptyAction(t *testing.T) {
	svc, _, _ := setupAuditService(t)

	err := svc.Record(context.Background(), nil, "  ", "tenant", nil, nil)
	require.ErrorIs(t, err, auditdomain.ErrInvalidAction)
}

func seedAuditLogs(t *testing.T, db *gorm.DB, node *snowflake.Node, n int) []auditdomain.AuditLog {
	t.Helper()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	entries := make([]auditdomain.AuditLog, 0, n)
	for i := 0; i < n; i++ {
		entry := auditdomain.AuditLog{
			ID:         node.Generate(),
			ActorType:  string(auditdomain.ActorTypeSystem),
			Action:     "plan.updated",
			TargetType: "plan",
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(&entry).Error)
		entries = append(entries, entry)
	}
	return entries
}

func TestList_CursorPagination(t *testing.T) {
	svc, db, node := setupAuditService(t)
	ctx := context.Background()

	seedAuditLogs(t, db, node, 5)

	req := auditdomain.ListAuditLogRequest{}
	req.PageSize = 2
	first, err := svc.List(ctx, req)
	require.NoError(t, err)
	require.Len(t, first.AuditLogs, 2)
	require.True(t, first.HasMore)
	require.NotEmpty(t, first.NextPageToken)

	// Newest first.
	require.True(t, first.AuditLogs[0].CreatedAt.After(first.AuditLogs[1].CreatedAt))

	req.PageToken = first.NextPageToken
	second, err := svc.List(ctx, req)
	require.NoError(t, err)
	require.Len(t, second.AuditLogs, 2)
	require.True(t, second.HasMore)
	require.True(t, first.AuditLogs[1].CreatedAt.After(second.AuditLogs[0].CreatedAt))

	req.PageToken = second.NextPageToken
	last, err := svc.List(ctx, req)
	require.NoError(t, err)
	require.Len(t, last.AuditLogs, 1)
	require.False(t, last.HasMore)
}

func TestList_RejectsMalformedPageToken(t *testing.T) {
	svc, _, _ := setupAuditService(t)

	req := auditdomain.ListAuditLogRequest{}
	req.PageToken = "not-base64!"
	_, err := svc.List(context.Background(), req)
	require.ErrorIs(t, err, auditdomain.ErrInvalidPageToken)
}

func TestList_RejectsInvertedTimeRange(t *testing.T) {
	svc, _, _ := setupAuditService(t)

	end := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	start := end.Add(time.Hour)
	_, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{
		StartAt: &start,
		EndAt:   &end,
	})
	require.ErrorIs(t, err, auditdomain.ErrInvalidTimeRange)
}

func TestList_FiltersByAction(t *testing.T) {
	svc, db, node := setupAuditService(t)
	ctx := context.Background()

	seedAuditLogs(t, db, node, 3)
	other := auditdomain.AuditLog{
		ID:         node.Generate(),
		ActorType:  string(auditdomain.ActorTypeSystem),
		Action:     "tenant.created",
		TargetType: "tenant",
		CreatedAt:  time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(&other).Error)

	resp, err := svc.List(ctx, auditdomain.ListAuditLogRequest{Action: "tenant.created"})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)
	require.Equal(t, "tenant.created", resp.AuditLogs[0].Action)
}
