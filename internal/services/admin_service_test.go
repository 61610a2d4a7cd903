package services

import (
	"context"
	"testing"

	"courtreserve/internal/domain"
	"courtreserve/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualBookingPaidAndUnpaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	paid, err := f.admin.CreateManualBooking(ctx, f.staff.Actor(), ManualBookingInput{
		UserID: f.user.ID, CourtID: 1, Date: f.tomorrow, Hours: []int{9, 14}, Paid: true, Note: "walk-in",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SourceManual, paid.Source)
	assert.Equal(t, int64(2000), paid.PaidAmount)
	assert.Zero(t, paid.RemainingAmount)
	assert.Equal(t, f.user.ID, paid.UserID)

	unpaid, err := f.admin.CreateManualBooking(ctx, f.staff.Actor(), ManualBookingInput{
		CourtID: 1, Date: f.tomorrow, Hours: []int{10},
	})
	require.NoError(t, err)
	assert.Equal(t, f.staff.ID, unpaid.UserID, "target defaults to the acting admin")
	assert.Zero(t, unpaid.PaidAmount)
	assert.Equal(t, int64(800), unpaid.RemainingAmount)

	_, err = f.admin.CreateManualBooking(ctx, f.staff.Actor(), ManualBookingInput{
		UserID: f.user.ID, CourtID: 1, Date: f.tomorrow, Hours: []int{14},
	})
	assert.ErrorIs(t, err, domain.ErrSlotsNoLongerAvailable)
}

func TestManualBookingGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.admin.CreateManualBooking(ctx, f.user.Actor(), ManualBookingInput{CourtID: 1, Date: f.tomorrow, Hours: []int{9}})
	assert.True(t, domain.IsAuthorization(err))

	_, err = f.admin.CreateManualBooking(ctx, f.staff.Actor(), ManualBookingInput{CourtID: 1, Date: f.tomorrow})
	assert.True(t, domain.IsValidation(err))

	require.NoError(t, f.store.Users().SetBanned(ctx, f.user.ID, true, f.now))
	_, err = f.admin.CreateManualBooking(ctx, f.staff.Actor(), ManualBookingInput{UserID: f.user.ID, CourtID: 1, Date: f.tomorrow, Hours: []int{9}})
	assert.ErrorIs(t, err, domain.ErrUserBanned)
}

func TestBanRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.admin.BanUser(ctx, f.user.Actor(), f.staff.ID)
	assert.True(t, domain.IsAuthorization(err))

	_, err = f.admin.BanUser(ctx, f.staff.Actor(), f.staff.ID)
	assert.True(t, domain.IsValidation(err))

	_, err = f.admin.BanUser(ctx, f.staff.Actor(), f.super.ID)
	assert.True(t, domain.IsAuthorization(err), "only a superadmin bans admins")

	u, err := f.admin.BanUser(ctx, f.staff.Actor(), f.user.ID)
	require.NoError(t, err)
	assert.True(t, u.Banned)
	require.NotNil(t, u.BannedAt)
	assert.True(t, f.notifier.has(CollectionUsers))

	stored, err := f.store.Users().Get(ctx, f.user.ID)
	require.NoError(t, err)
	assert.True(t, stored.Banned)

	u, err = f.admin.UnbanUser(ctx, f.staff.Actor(), f.user.ID)
	require.NoError(t, err)
	assert.False(t, u.Banned)
	assert.Nil(t, u.BannedAt)

	admin, err := f.admin.BanUser(ctx, f.super.Actor(), f.staff.ID)
	require.NoError(t, err)
	assert.True(t, admin.Banned)

	_, err = f.admin.BanUser(ctx, f.staff.Actor(), "ghost")
	assert.True(t, domain.IsNotFound(err))
}

func TestSetUserRoleSuperadminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.admin.SetUserRole(ctx, f.staff.Actor(), f.user.ID, domain.RoleAdmin)
	assert.True(t, domain.IsAuthorization(err))

	_, err = f.admin.SetUserRole(ctx, f.super.Actor(), f.user.ID, "owner")
	assert.True(t, domain.IsValidation(err))

	_, err = f.admin.SetUserRole(ctx, f.super.Actor(), f.super.ID, domain.RoleUser)
	assert.True(t, domain.IsValidation(err))

	u, err := f.admin.SetUserRole(ctx, f.super.Actor(), f.user.ID, domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)
}

func TestAdminDiscountsAndStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.admin.CreateDiscount(ctx, f.user.Actor(), CreateDiscountInput{Code: "X", Percent: 10, MaxUses: 1})
	assert.True(t, domain.IsAuthorization(err))

	_, err = f.admin.CreateDiscount(ctx, f.staff.Actor(), CreateDiscountInput{Code: "half", Percent: 50, MaxUses: 2})
	require.NoError(t, err)
	codes, err := f.admin.ListDiscounts(ctx, f.staff.Actor())
	require.NoError(t, err)
	require.Len(t, codes, 1)
	assert.Equal(t, "HALF", codes[0].Code)

	_, err = f.bookings.CreateBooking(ctx, CreateBookingInput{
		UserID: f.user.ID, CourtID: 1, Date: f.tomorrow, Hours: []int{9, 14}, DiscountCode: "half", PaymentToken: f.pay(t, 1000),
	})
	require.NoError(t, err)
	_, err = f.admin.CreateManualBooking(ctx, f.staff.Actor(), ManualBookingInput{UserID: f.user.ID, CourtID: 2, Date: f.tomorrow, Hours: []int{6}})
	require.NoError(t, err)
	cancelled, err := f.admin.CreateManualBooking(ctx, f.staff.Actor(), ManualBookingInput{UserID: f.user.ID, CourtID: 3, Date: f.tomorrow, Hours: []int{6}, Paid: true})
	require.NoError(t, err)
	_, err = f.bookings.CancelBooking(ctx, cancelled.ID, f.staff.Actor())
	require.NoError(t, err)
	_, err = f.admin.BanUser(ctx, f.staff.Actor(), f.user.ID)
	require.NoError(t, err)

	stats, err := f.admin.Stats(ctx, f.staff.Actor())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalBookings)
	assert.Equal(t, 2, stats.ActiveBookings)
	assert.Equal(t, 1, stats.CancelledBookings)
	assert.Equal(t, int64(1000+800), stats.TotalRevenue)
	assert.Equal(t, 3, stats.TotalUsers)
	assert.Equal(t, 1, stats.BannedUsers)

	require.NoError(t, f.admin.DeleteDiscount(ctx, f.staff.Actor(), "HALF"))
}

func TestResolveReconciliation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addCode(t, "TEN", 10, 3)

	_, err := f.bookings.CreateBooking(ctx, CreateBookingInput{
		UserID: f.user.ID, CourtID: 1, Date: f.tomorrow, Hours: []int{9}, DiscountCode: "TEN", PaymentToken: f.pay(t, 800),
	})
	id := domain.ReconciliationOf(err)
	require.NotEmpty(t, id)

	stats, err := f.admin.Stats(ctx, f.staff.Actor())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.OpenReconciles)

	_, err = f.admin.ListReconciliations(ctx, f.user.Actor(), true)
	assert.True(t, domain.IsAuthorization(err))

	require.NoError(t, f.admin.ResolveReconciliation(ctx, f.staff.Actor(), id, "refunded one use"))
	open, err := f.admin.ListReconciliations(ctx, f.staff.Actor(), true)
	require.NoError(t, err)
	assert.Empty(t, open)
	all, err := f.admin.ListReconciliations(ctx, f.staff.Actor(), false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, f.staff.ID, all[0].ResolvedBy)

	assert.True(t, domain.IsNotFound(f.admin.ResolveReconciliation(ctx, f.staff.Actor(), "nope", "")))
}
