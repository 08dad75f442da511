package members

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/producehub/producehub-backend/pkg/db/dbtest"
	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
)

func TestActivityRollsBackWithMutation(t *testing.T) {
	conn := dbtest.Open(t, dbtest.Members, dbtest.MemberActivity)
	r := NewRepository(conn)
	ctx := context.Background()

	m := &models.Member{Name: "Kai", Email: "kai@producehub.test", PasswordHash: "h", Role: enums.MemberRoleStaff, Status: enums.MemberStatusActive}
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		if err := r.Create(tx, m); err != nil {
			return err
		}
		return r.AppendActivity(tx, &models.MemberActivity{MemberID: m.ID, ActorID: m.ID, Action: ActionCreated, Diff: []byte(`{}`)})
	}))

	err := conn.Transaction(func(tx *gorm.DB) error {
		m.Status = enums.MemberStatusSuspended
		if err := r.Save(tx, m); err != nil {
			return err
		}
		if err := r.AppendActivity(tx, &models.MemberActivity{MemberID: m.ID, ActorID: m.ID, Action: ActionStatusChanged, Diff: []byte(`{}`)}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	reloaded, err := r.FindByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.MemberStatusActive, reloaded.Status)

	log, err := r.ListActivity(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, ActionCreated, log[0].Action)
}

func TestFindByEmailAndLastLogin(t *testing.T) {
	conn := dbtest.Open(t, dbtest.Members)
	r := NewRepository(conn)
	ctx := context.Background()
	m := &models.Member{Name: "Lee", Email: "lee@producehub.test", PasswordHash: "h", Role: enums.MemberRoleAdmin, Status: enums.MemberStatusActive}
	require.NoError(t, r.Create(conn, m))

	got, err := r.FindByEmail(ctx, "LEE@producehub.test")
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)

	at := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	require.NoError(t, r.UpdateLastLogin(ctx, m.ID, at))
	got, err = r.FindByID(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLoginAt)
	assert.True(t, at.Equal(*got.LastLoginAt))
}
