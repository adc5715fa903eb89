package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"bakery-storefront/internal/database"
	"bakery-storefront/internal/models"
	"bakery-storefront/internal/pricing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqlRecorder keeps every statement gorm builds, with its bind values inlined.
type sqlRecorder struct {
	logger.Interface
	statements []string
}

func (r *sqlRecorder) LogMode(logger.LogLevel) logger.Interface { return r }

func (r *sqlRecorder) Trace(_ context.Context, _ time.Time, fc func() (string, int64), _ error) {
	sql, _ := fc()
	r.statements = append(r.statements, sql)
}

func (r *sqlRecorder) find(t *testing.T, fragment string) string {
	t.Helper()
	for _, s := range r.statements {
		if strings.Contains(s, fragment) {
			return s
		}
	}
	require.Failf(t, "statement not built", "no SQL containing %q in %v", fragment, r.statements)
	return ""
}

// dryRunDB points database.DB at a postgres dialect that builds SQL without
// a server. Every write reports zero affected rows.
func dryRunDB(t *testing.T) *sqlRecorder {
	t.Helper()

	rec := &sqlRecorder{Interface: logger.Discard}
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=bakery dbname=bakery sslmode=disable",
	}), &gorm.Config{
		DryRun:                 true,
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
		Logger:                 rec,
	})
	require.NoError(t, err)

	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })
	return rec
}

func TestClaimCouponGuardsUsageLimit(t *testing.T) {
	rec := dryRunDB(t)
	id := uuid.New()

	err := claimCoupon(database.DB, id)
	assert.ErrorIs(t, err, pricing.ErrUsageLimitReached)

	sql := rec.find(t, `UPDATE "coupons"`)
	assert.Contains(t, sql, `"used_count"=used_count + 1`)
	assert.Contains(t, sql, "id = '"+id.String()+"'")
	assert.Contains(t, sql, "(usage_limit IS NULL OR usage_limit = 0 OR used_count < usage_limit)")
}

func TestCartListFiltersByStore(t *testing.T) {
	rec := dryRunDB(t)
	userID, storeID := uuid.New(), uuid.New()

	_, err := NewCartService().List(context.Background(), userID, &storeID)
	require.NoError(t, err)

	sql := rec.find(t, `FROM "cart_items"`)
	assert.Contains(t, sql, "cart_items.user_id = '"+userID.String()+"'")
	assert.Contains(t, sql, "psf.store_id = '"+storeID.String()+"'")
	assert.Contains(t, sql, "psf.is_available = true AND p.is_active = true")
	assert.Contains(t, sql, "ORDER BY cart_items.created_at ASC")
}

func TestCartListWithoutStoreSkipsFilter(t *testing.T) {
	rec := dryRunDB(t)

	_, err := NewCartService().List(context.Background(), uuid.New(), nil)
	require.NoError(t, err)

	assert.NotContains(t, rec.find(t, `FROM "cart_items"`), "product_store_fulfillments")
}

func TestMatchingLineLocksSameFlavorAndWeight(t *testing.T) {
	userID, productID, flavorID := uuid.New(), uuid.New(), uuid.New()

	tests := []struct {
		name   string
		flavor *uuid.UUID
		want   string
	}{
		{"with flavor", &flavorID, "flavor_id = '" + flavorID.String() + "'"},
		{"without flavor", nil, "flavor_id IS NULL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := dryRunDB(t)
			input := AddToCartInput{ProductID: productID, FlavorID: tt.flavor, Weight: "1kg", Quantity: 1}

			var item models.CartItem
			matchingLine(database.DB, userID, input).First(&item)

			sql := rec.find(t, `FROM "cart_items"`)
			assert.Contains(t, sql, "user_id = '"+userID.String()+"'")
			assert.Contains(t, sql, "product_id = '"+productID.String()+"'")
			assert.Contains(t, sql, "weight = '1kg'")
			assert.Contains(t, sql, tt.want)
			assert.Contains(t, sql, "FOR UPDATE")
		})
	}
}

func TestAdminCouponLookupsReportMissingID(t *testing.T) {
	dryRunDB(t)
	svc := NewPromotionService()

	assert.ErrorIs(t, svc.ToggleCoupon(context.Background(), uuid.New()), ErrCouponIDNotFound)
	assert.ErrorIs(t, svc.DeleteCoupon(context.Background(), uuid.New()), ErrCouponIDNotFound)
}
