package drivers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/producehub/producehub-backend/pkg/db"
	"github.com/producehub/producehub-backend/pkg/db/dbtest"
	pkgerrors "github.com/producehub/producehub-backend/pkg/errors"
)

var fixedNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) Service {
	t.Helper()
	conn := dbtest.Open(t, dbtest.Drivers, dbtest.Trucks)
	svc, err := NewService(NewRepository(conn), db.Wrap(conn), func() time.Time { return fixedNow })
	require.NoError(t, err)
	return svc
}

func boolPtr(b bool) *bool { return &b }

func TestActiveTrucksReturnsOnlyTheDriversActiveTrucks(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ana, err := svc.Create(ctx, DriverInput{
		Name: "Ana", Phone: "555-1", LicenseNumber: "D100",
		Trucks: []TruckInput{
			{Number: "T-1", CapacityWeightKg: 1000, CapacityVolumeM3: 8},
			{Number: "T-2", CapacityWeightKg: 1500, CapacityVolumeM3: 10, Active: boolPtr(false)},
			{Number: "T-3", CapacityWeightKg: 900, CapacityVolumeM3: 6},
		},
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, DriverInput{
		Name: "Ben", Phone: "555-2", LicenseNumber: "D200",
		Trucks: []TruckInput{{Number: "T-9", CapacityWeightKg: 800, CapacityVolumeM3: 5}},
	})
	require.NoError(t, err)

	trucks, err := svc.ActiveTrucks(ctx, ana.ID)
	require.NoError(t, err)
	var numbers []string
	for _, tr := range trucks {
		numbers = append(numbers, tr.Number)
		assert.Equal(t, ana.ID, tr.DriverID)
	}
	assert.Equal(t, []string{"T-1", "T-3"}, numbers)

	_, err = svc.ActiveTrucks(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestInactiveDriverAndTrucksPersistAsInactive(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	d, err := svc.Create(ctx, DriverInput{
		Name: "Cara", Phone: "555-3", LicenseNumber: "D300", Active: boolPtr(false),
		Trucks: []TruckInput{{Number: "T-1", CapacityWeightKg: 1000, CapacityVolumeM3: 8, Active: boolPtr(false)}},
	})
	require.NoError(t, err)
	_, err = svc.AddTruck(ctx, d.ID, TruckInput{Number: "T-2", CapacityWeightKg: 700, CapacityVolumeM3: 4, Active: boolPtr(false)})
	require.NoError(t, err)

	stored, err := svc.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
	require.Len(t, stored.Trucks, 2)
	for _, tr := range stored.Trucks {
		assert.False(t, tr.Active, "truck %s", tr.Number)
	}

	trucks, err := svc.ActiveTrucks(ctx, d.ID)
	require.NoError(t, err)
	assert.Empty(t, trucks)
}

func TestLicenseExpiringSoonUsesRequestTime(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	soon := fixedNow.Add(10 * 24 * time.Hour)
	later := fixedNow.Add(90 * 24 * time.Hour)
	past := fixedNow.Add(-24 * time.Hour)

	_, err := svc.Create(ctx, DriverInput{Name: "Soon", Phone: "1", LicenseNumber: "A", LicenseExpiry: &soon})
	require.NoError(t, err)
	_, err = svc.Create(ctx, DriverInput{Name: "Later", Phone: "2", LicenseNumber: "B", LicenseExpiry: &later})
	require.NoError(t, err)
	expired, err := svc.Create(ctx, DriverInput{Name: "Past", Phone: "3", LicenseNumber: "C", LicenseExpiry: &past})
	require.NoError(t, err)
	assert.True(t, expired.LicenseExpired)
	assert.False(t, expired.LicenseExpiringSoon)

	rows, err := svc.List(ctx, ListFilter{ExpiringSoon: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Soon", rows[0].Name)
	assert.True(t, rows[0].LicenseExpiringSoon)
}

func TestCreateReportsTruckErrorsWithIndex(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Create(context.Background(), DriverInput{
		Name:   "Cam",
		Email:  strPtr("not-an-email"),
		Trucks: []TruckInput{{Number: "", CapacityWeightKg: 0, CapacityVolumeM3: 1}},
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	fields := typed.Details().(map[string]string)
	for _, k := range []string{"phone", "license_number", "email", "trucks[0].number", "trucks[0].capacity_weight_kg"} {
		assert.Contains(t, fields, k)
	}
}

func TestTruckLifecycleIsScopedToDriver(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	a, err := svc.Create(ctx, DriverInput{Name: "A", Phone: "1", LicenseNumber: "L1"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, DriverInput{Name: "B", Phone: "2", LicenseNumber: "L2"})
	require.NoError(t, err)

	truck, err := svc.AddTruck(ctx, a.ID, TruckInput{Number: "T-5", CapacityWeightKg: 500, CapacityVolumeM3: 4})
	require.NoError(t, err)

	_, err = svc.UpdateTruck(ctx, b.ID, truck.ID, TruckInput{Number: "T-5", CapacityWeightKg: 1, CapacityVolumeM3: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	updated, err := svc.UpdateTruck(ctx, a.ID, truck.ID, TruckInput{Number: "T-5", CapacityWeightKg: 600, CapacityVolumeM3: 4, Active: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, updated.Active)

	active, err := svc.ActiveTrucks(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, active)

	require.NoError(t, svc.RemoveTruck(ctx, a.ID, truck.ID))
	assert.True(t, pkgerrors.IsCode(svc.RemoveTruck(ctx, a.ID, truck.ID), pkgerrors.CodeNotFound))

	require.NoError(t, svc.Delete(ctx, b.ID))
	_, err = svc.Get(ctx, b.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func strPtr(s string) *string { return &s }
