package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	portaldomain "github.com/opiniohq/opinio/internal/portal/domain"
	"github.com/opiniohq/opinio/internal/portal/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&portaldomain.Portal{}, &portaldomain.PortalKey{}))
	return db
}

// One node for the whole package; per-row nodes would collide on IDs
// generated within the same millisecond.
var testNode = func() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}()

func newTestService(t *testing.T, db *gorm.DB) portaldomain.Service {
	t.Helper()
	return New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: testNode,
		Repo:  repository.Provide(),
	})
}

func seedPortal(t *testing.T, db *gorm.DB, slug string, active bool) *portaldomain.Portal {
	t.Helper()
	portal := &portaldomain.Portal{
		ID:       testNode.Generate(),
		Name:     slug,
		Slug:     slug,
		IsActive: active,
	}
	require.NoError(t, db.Create(portal).Error)
	return portal
}

func TestVerifyResolvesPortal(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	portal := seedPortal(t, db, "dobre-firmy", true)

	secret, err := svc.IssueKey(context.Background(), portal.ID, "primary")
	require.NoError(t, err)
	require.NotEmpty(t, secret.APIKey)
	require.Contains(t, secret.APIKey, "pk_live_")

	portalID, err := svc.Verify(context.Background(), secret.APIKey, "dobre-firmy")
	require.NoError(t, err)
	require.Equal(t, portal.ID, portalID)
}

func TestVerifyRejectsUnknownKey(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	seedPortal(t, db, "dobre-firmy", true)

	_, err := svc.Verify(context.Background(), "pk_live_unknown", "dobre-firmy")
	require.ErrorIs(t, err, portaldomain.ErrUnauthorized)
}

func TestVerifyRejectsSlugMismatch(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	portal := seedPortal(t, db, "dobre-firmy", true)
	seedPortal(t, db, "arena-biznesu", true)

	secret, err := svc.IssueKey(context.Background(), portal.ID, "primary")
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), secret.APIKey, "arena-biznesu")
	require.ErrorIs(t, err, portaldomain.ErrUnauthorized)
}

func TestVerifyRejectsInactivePortal(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	portal := seedPortal(t, db, "panteonfirm", false)

	secret, err := svc.IssueKey(context.Background(), portal.ID, "primary")
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), secret.APIKey, "panteonfirm")
	require.ErrorIs(t, err, portaldomain.ErrUnauthorized)
}

func TestVerifyRejectsRevokedKey(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	portal := seedPortal(t, db, "dobre-firmy", true)

	secret, err := svc.IssueKey(context.Background(), portal.ID, "primary")
	require.NoError(t, err)
	require.NoError(t, svc.RevokeKey(context.Background(), secret.KeyID))

	_, err = svc.Verify(context.Background(), secret.APIKey, "dobre-firmy")
	require.ErrorIs(t, err, portaldomain.ErrUnauthorized)
}

func TestVerifyTouchesLastUsed(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	portal := seedPortal(t, db, "dobre-firmy", true)

	secret, err := svc.IssueKey(context.Background(), portal.ID, "primary")
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), secret.APIKey, "dobre-firmy")
	require.NoError(t, err)

	// The stamp is written out of band.
	require.Eventually(t, func() bool {
		var key portaldomain.PortalKey
		if err := db.Where("id = ?", secret.KeyID).First(&key).Error; err != nil {
			return false
		}
		return key.LastUsedAt != nil
	}, 2*time.Second, 20*time.Millisecond)
}

func TestIssueKeyRequiresName(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	portal := seedPortal(t, db, "dobre-firmy", true)

	_, err := svc.IssueKey(context.Background(), portal.ID, "  ")
	require.ErrorIs(t, err, portaldomain.ErrInvalidName)
}
