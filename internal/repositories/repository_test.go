package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"courtreserve/internal/domain"
	"courtreserve/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { raw.Close() })
	return sqlx.NewDb(raw, "mysql"), mock
}

func sampleBooking() *models.Booking {
	return &models.Booking{
		ID:          "b-1",
		UserID:      "u-1",
		CourtID:     1,
		Date:        "2025-01-01",
		Hours:       []int{9, 14},
		Subtotal:    2000,
		TotalAmount: 2000,
		PaidAmount:  2000,
		Source:      models.SourceOnline,
		Status:      domain.StatusBooked,
		CreatedAt:   time.Date(2024, 12, 30, 10, 0, 0, 0, time.UTC),
	}
}

var bookingColumns = []string{
	"id", "user_id", "court_id", "court_name", "play_date", "slots", "subtotal", "discount_code",
	"discount_amount", "total_amount", "paid_amount", "remaining_amount", "payment_token", "source",
	"note", "status", "created_at", "cancelled_at",
}

func TestBookingInsertClaimsEverySlot(t *testing.T) {
	db, mock := newMock(t)
	repo := BookingRepository{DB: db}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO booking_slots").
		WithArgs(1, "2025-01-01", 9, "b-1", 1, "2025-01-01", 14, "b-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	if err := repo.InsertIfNoOverlap(context.Background(), sampleBooking()); err != nil {
		t.Fatalf("insert error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBookingInsertOverlapIsConflict(t *testing.T) {
	db, mock := newMock(t)
	repo := BookingRepository{DB: db}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO booking_slots").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '1-2025-01-01-9' for key 'booking_slots.PRIMARY'"})
	mock.ExpectRollback()

	err := repo.InsertIfNoOverlap(context.Background(), sampleBooking())
	if !errors.Is(err, domain.ErrSlotsNoLongerAvailable) {
		t.Fatalf("expected ErrSlotsNoLongerAvailable, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBookingInsertReusedPaymentToken(t *testing.T) {
	db, mock := newMock(t)
	repo := BookingRepository{DB: db}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'chrg_1' for key 'bookings.uniq_bookings_payment_token'"})
	mock.ExpectRollback()

	err := repo.InsertIfNoOverlap(context.Background(), sampleBooking())
	if !errors.Is(err, domain.ErrPaymentTokenUsed) {
		t.Fatalf("expected ErrPaymentTokenUsed, got %v", err)
	}
}

func TestBookingCancel(t *testing.T) {
	at := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

	t.Run("releases slots", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE bookings SET status").
			WithArgs("cancelled", at, "b-1", "booked").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("DELETE FROM booking_slots").WithArgs("b-1").WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		changed, err := BookingRepository{DB: db}.Cancel(context.Background(), "b-1", at)
		if err != nil || !changed {
			t.Fatalf("expected change, got changed=%v err=%v", changed, err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet expectations: %v", err)
		}
	})

	t.Run("already cancelled is a no-op", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE bookings SET status").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT COUNT").WithArgs("b-1").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectRollback()

		changed, err := BookingRepository{DB: db}.Cancel(context.Background(), "b-1", at)
		if err != nil || changed {
			t.Fatalf("expected no-op, got changed=%v err=%v", changed, err)
		}
	})

	t.Run("unknown booking", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE bookings SET status").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectRollback()

		_, err := BookingRepository{DB: db}.Cancel(context.Background(), "missing", at)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestBookingListActive(t *testing.T) {
	db, mock := newMock(t)
	created := time.Date(2024, 12, 30, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(bookingColumns).
		AddRow("b-1", "u-1", 1, "Court 1", "2025-01-01", "9,14", 2000, "SAVE20", 400, 1600, 1600, 0, "chrg_1", "online", "", "booked", created, nil)
	mock.ExpectQuery("FROM bookings b").WithArgs(1, "2025-01-01", "booked").WillReturnRows(rows)

	list, err := BookingRepository{DB: db}.ListActive(context.Background(), 1, "2025-01-01")
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 booking, got %d", len(list))
	}
	b := list[0]
	if b.CourtName != "Court 1" || len(b.Hours) != 2 || b.Hours[1] != 14 || b.DiscountCode != "SAVE20" {
		t.Fatalf("unexpected booking %+v", b)
	}
	if b.CancelledAt != nil {
		t.Fatalf("active booking must not carry cancelled_at")
	}
}

func TestBookingGetNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("FROM bookings b").WithArgs("nope").WillReturnRows(sqlmock.NewRows(bookingColumns))

	_, err := BookingRepository{DB: db}.Get(context.Background(), "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

var discountColumns = []string{"code", "percent", "max_redemptions", "current_redemptions", "active", "created_at"}

func TestDiscountRedeem(t *testing.T) {
	created := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec("UPDATE discount_codes").WithArgs("SAVE20").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("FROM discount_codes").WithArgs("SAVE20").
			WillReturnRows(sqlmock.NewRows(discountColumns).AddRow("SAVE20", 20, 5, 3, true, created))

		d, err := DiscountRepository{DB: db}.Redeem(context.Background(), " save20 ")
		if err != nil {
			t.Fatalf("redeem error: %v", err)
		}
		if d.Percent != 20 || d.Redemptions != 3 {
			t.Fatalf("unexpected discount %+v", d)
		}
	})

	t.Run("exhausted", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec("UPDATE discount_codes").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("FROM discount_codes").
			WillReturnRows(sqlmock.NewRows(discountColumns).AddRow("SAVE20", 20, 5, 5, true, created))

		_, err := DiscountRepository{DB: db}.Redeem(context.Background(), "SAVE20")
		if !errors.Is(err, domain.ErrCodeExhausted) {
			t.Fatalf("expected ErrCodeExhausted, got %v", err)
		}
	})

	t.Run("inactive", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec("UPDATE discount_codes").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("FROM discount_codes").
			WillReturnRows(sqlmock.NewRows(discountColumns).AddRow("SAVE20", 20, 5, 1, false, created))

		_, err := DiscountRepository{DB: db}.Redeem(context.Background(), "SAVE20")
		if !errors.Is(err, domain.ErrCodeNotFound) {
			t.Fatalf("expected ErrCodeNotFound, got %v", err)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec("UPDATE discount_codes").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("FROM discount_codes").WillReturnRows(sqlmock.NewRows(discountColumns))

		_, err := DiscountRepository{DB: db}.Redeem(context.Background(), "NOPE")
		if !errors.Is(err, domain.ErrCodeNotFound) {
			t.Fatalf("expected ErrCodeNotFound, got %v", err)
		}
	})
}

func TestDiscountCreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("INSERT INTO discount_codes").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'SAVE20' for key 'discount_codes.PRIMARY'"})

	err := DiscountRepository{DB: db}.Create(context.Background(), &models.DiscountCode{Code: "SAVE20", Percent: 20, MaxRedemptions: 1, Active: true})
	if !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestUserSetBannedUnknown(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("UPDATE users SET banned").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT COUNT").WithArgs("ghost").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	err := UserRepository{DB: db}.SetBanned(context.Background(), "ghost", true, time.Now())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCourtListParsesFeatures(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("FROM courts").WillReturnRows(sqlmock.NewRows([]string{"id", "name", "category", "features"}).
		AddRow(1, "Court 1", "outdoor", "Premium Surface|Night Lights"))

	courts, err := CourtRepository{DB: db}.List(context.Background())
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if len(courts) != 1 || len(courts[0].Features) != 2 {
		t.Fatalf("unexpected courts %+v", courts)
	}
}

func TestReconciliationResolveUnknown(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("UPDATE reconciliations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	err := ReconciliationRepository{DB: db}.Resolve(context.Background(), "r-1", "admin", "refunded", time.Now())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
