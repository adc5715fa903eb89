package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"bakery-storefront/internal/middleware"
	"bakery-storefront/internal/models"
	"bakery-storefront/internal/pricing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestPageNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Page
		want Page
	}{
		{"zero values", Page{}, Page{Page: 1, PerPage: 20}},
		{"negative page", Page{Page: -3, PerPage: 10}, Page{Page: 1, PerPage: 10}},
		{"over max per page", Page{Page: 2, PerPage: 500}, Page{Page: 2, PerPage: 20}},
		{"max per page", Page{Page: 4, PerPage: 100}, Page{Page: 4, PerPage: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.normalize())
		})
	}

	assert.Equal(t, 40, Page{Page: 3, PerPage: 20}.offset())
}

func TestRegisterInputValidate(t *testing.T) {
	in := RegisterInput{Email: "  Cake@Example.COM ", Password: "secret", Name: " Asha "}
	require.NoError(t, in.Validate())
	assert.Equal(t, "cake@example.com", in.Email)
	assert.Equal(t, "Asha", in.Name)

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"missing name", RegisterInput{Email: "a@b.c", Password: "secret"}},
		{"bad email", RegisterInput{Email: "nope", Password: "secret", Name: "A"}},
		{"short password", RegisterInput{Email: "a@b.c", Password: "12345", Name: "A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.in.Validate(), ErrInvalidInput)
		})
	}
}

func TestGenerateToken(t *testing.T) {
	issued := time.Now().Truncate(time.Second)
	svc := &AuthService{jwtSecret: "secret", jwtExpiresIn: time.Hour, now: func() time.Time { return issued }}
	user := &models.User{ID: uuid.New(), Email: "admin@bakery.test", Role: models.RoleAdmin}

	signed, err := svc.generateToken(user)
	require.NoError(t, err)

	claims := &middleware.JWTClaims{}
	_, err = jwt.ParseWithClaims(signed, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	require.NoError(t, err)

	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.Equal(t, issued.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestStoreInputValidate(t *testing.T) {
	valid := func() StoreInput {
		return StoreInput{
			Name:            " Indiranagar ",
			DeliveryEnabled: true,
			DeliveryRadius:  5,
			Latitude:        ptr(12.97),
			Longitude:       ptr(77.64),
		}
	}

	in := valid()
	require.NoError(t, in.Validate())
	assert.Equal(t, "Indiranagar", in.Name)

	tests := []struct {
		name   string
		mutate func(*StoreInput)
	}{
		{"no name", func(in *StoreInput) { in.Name = " " }},
		{"zero radius", func(in *StoreInput) { in.DeliveryRadius = 0 }},
		{"latitude only", func(in *StoreInput) { in.Longitude = nil }},
		{"latitude out of range", func(in *StoreInput) { in.Latitude = ptr(91.0) }},
		{"no fulfillment", func(in *StoreInput) { in.DeliveryEnabled = false }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)
			assert.ErrorIs(t, in.Validate(), ErrInvalidInput)
		})
	}
}

func TestProductInputValidate(t *testing.T) {
	storeID := uuid.New()
	in := ProductInput{
		SubcategoryID: uuid.New(),
		Name:          "Black Forest",
		BasePrice:     450,
		WeightOptions: models.WeightOptions{{Weight: " 500g "}, {Weight: "1kg", Price: ptr(800.0)}},
		Flavors:       []FlavorInput{{FlavorName: "Eggless", PriceAdjustment: 50}},
		Stores:        []FulfillmentInput{{StoreID: storeID, IsAvailable: true}},
	}
	require.NoError(t, in.Validate())
	assert.Equal(t, "500g", in.WeightOptions[0].Weight)

	productID := uuid.New()
	flavors, stores := in.children(productID)
	require.Len(t, flavors, 1)
	require.Len(t, stores, 1)
	assert.Equal(t, productID, flavors[0].ProductID)
	assert.Equal(t, storeID, stores[0].StoreID)

	var p models.Product
	ProductInput{Name: "Plain"}.apply(&p)
	assert.NotNil(t, p.WeightOptions)
	assert.NotNil(t, p.ImageURLs)

	tests := []struct {
		name   string
		mutate func(*ProductInput)
	}{
		{"duplicate weight", func(in *ProductInput) {
			in.WeightOptions = models.WeightOptions{{Weight: "1kg"}, {Weight: "1kg"}}
		}},
		{"negative weight price", func(in *ProductInput) {
			in.WeightOptions = models.WeightOptions{{Weight: "1kg", Price: ptr(-1.0)}}
		}},
		{"unnamed flavor", func(in *ProductInput) { in.Flavors = []FlavorInput{{}} }},
		{"store listed twice", func(in *ProductInput) {
			in.Stores = []FulfillmentInput{{StoreID: storeID}, {StoreID: storeID}}
		}},
		{"negative base price", func(in *ProductInput) { in.BasePrice = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := ProductInput{SubcategoryID: uuid.New(), Name: "Cake", BasePrice: 100}
			tt.mutate(&in)
			assert.ErrorIs(t, in.Validate(), ErrInvalidInput)
		})
	}
}

func TestCouponInputValidate(t *testing.T) {
	in := CouponInput{Code: " welcome10 ", Name: "Welcome", DiscountType: models.DiscountPercentage, DiscountValue: 10}
	require.NoError(t, in.Validate())
	assert.Equal(t, "WELCOME10", in.Code)

	start := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)

	tests := []struct {
		name string
		in   CouponInput
	}{
		{"unknown type", CouponInput{Code: "X", Name: "X", DiscountType: "bogus"}},
		{"percentage over 100", CouponInput{Code: "X", Name: "X", DiscountType: models.DiscountPercentage, DiscountValue: 120}},
		{"negative usage limit", CouponInput{Code: "X", Name: "X", DiscountType: models.DiscountFixedAmount, UsageLimit: ptr(-1)}},
		{"reversed window", CouponInput{Code: "X", Name: "X", DiscountType: models.DiscountFixedAmount, StartDate: &start, EndDate: &end}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.in.Validate(), ErrInvalidInput)
		})
	}
}

func TestPromotionInputValidate(t *testing.T) {
	in := PromotionInput{ProductID: uuid.New(), PromotionType: models.PromotionTopDeal, DiscountPercentage: 15}
	require.NoError(t, in.Validate())

	in.PromotionType = "clearance"
	assert.ErrorIs(t, in.Validate(), ErrInvalidInput)

	in.PromotionType = models.PromotionTopDeal
	in.DiscountPercentage = 101
	assert.ErrorIs(t, in.Validate(), ErrInvalidInput)
}

func TestAddToCartInputValidate(t *testing.T) {
	in := AddToCartInput{StoreID: uuid.New(), ProductID: uuid.New(), Weight: " 1kg "}
	require.NoError(t, in.Validate())
	assert.Equal(t, 1, in.Quantity)
	assert.Equal(t, "1kg", in.Weight)

	in.Quantity = -2
	assert.ErrorIs(t, in.Validate(), ErrInvalidQuantity)

	missingStore := AddToCartInput{ProductID: uuid.New()}
	assert.ErrorIs(t, missingStore.Validate(), ErrStoreNotSelected)
}

func TestProfileInputToModel(t *testing.T) {
	userID := uuid.New()
	profile := ProfileInput{Phone: " 9876543210 ", StreetAddress: "12 MG Road"}.toModel(userID, "Bangalore")

	assert.Equal(t, userID, profile.UserID)
	assert.Equal(t, "9876543210", profile.Phone)
	assert.Equal(t, "Bangalore", profile.City)

	bad := ProfileInput{Latitude: ptr(12.9)}
	assert.ErrorIs(t, bad.Validate(), ErrInvalidInput)
}

func TestPlaceOrderInputValidate(t *testing.T) {
	valid := func() PlaceOrderInput {
		return PlaceOrderInput{
			StoreID:      uuid.New(),
			DeliveryType: models.DeliveryTypeDelivery,
			Address:      ProfileInput{Phone: "9876543210", StreetAddress: "12 MG Road", Pincode: "560001"},
		}
	}

	in := valid()
	require.NoError(t, in.Validate())
	assert.Equal(t, models.PaymentCOD, in.PaymentMethod)

	pickup := PlaceOrderInput{StoreID: uuid.New(), DeliveryType: models.DeliveryTypePickup, Address: ProfileInput{Phone: "9876543210"}}
	require.NoError(t, pickup.Validate())

	tests := []struct {
		name   string
		mutate func(*PlaceOrderInput)
		want   error
	}{
		{"no store", func(in *PlaceOrderInput) { in.StoreID = uuid.Nil }, ErrStoreNotSelected},
		{"bad delivery type", func(in *PlaceOrderInput) { in.DeliveryType = "drone" }, ErrInvalidInput},
		{"bad payment method", func(in *PlaceOrderInput) { in.PaymentMethod = "card" }, ErrInvalidInput},
		{"no phone", func(in *PlaceOrderInput) { in.Address.Phone = "" }, ErrInvalidInput},
		{"delivery without address", func(in *PlaceOrderInput) { in.Address.StreetAddress = "" }, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)
			assert.ErrorIs(t, in.Validate(), tt.want)
		})
	}
}

func TestCartLinesAndQuote(t *testing.T) {
	cake := &models.Product{
		ID:            uuid.New(),
		Name:          "Truffle Cake",
		BasePrice:     500,
		WeightOptions: models.WeightOptions{{Weight: "1kg", Price: ptr(900.0)}},
	}
	flavor := &models.ProductFlavor{ID: uuid.New(), FlavorName: "Eggless", PriceAdjustment: 50}

	items := []models.CartItem{
		{ProductID: cake.ID, Product: cake, Weight: "1kg", FlavorID: &flavor.ID, Flavor: flavor, Quantity: 2},
		{ProductID: uuid.New(), Quantity: 1},
	}

	lines := cartLines(items)
	require.Len(t, lines, 1)

	coupon := &models.Coupon{
		Code:          "FLAT100",
		DiscountType:  models.DiscountFixedAmount,
		DiscountValue: 100,
		IsActive:      true,
	}
	result, err := pricing.PriceCart(lines, coupon, time.Now())
	require.NoError(t, err)

	q := newQuote(result)
	assert.Equal(t, 1900.0, q.Subtotal)
	assert.Equal(t, 100.0, q.Discount)
	assert.Equal(t, 1800.0, q.Total)
	require.Len(t, q.Lines, 1)
	assert.Equal(t, 950.0, q.Lines[0].UnitPrice)
	assert.Equal(t, "Eggless", q.Lines[0].FlavorName)

	orderItems := q.orderItems()
	require.Len(t, orderItems, 1)
	assert.Equal(t, "Truffle Cake", orderItems[0].ProductName)
	assert.Equal(t, 1900.0, orderItems[0].TotalPrice)
	assert.Equal(t, flavor.ID, *orderItems[0].FlavorID)
}

func TestQuoteLineQuantityMatchesPricedTotal(t *testing.T) {
	cake := &models.Product{ID: uuid.New(), Name: "Plum Cake", BasePrice: 400}
	result, err := pricing.PriceCart([]pricing.Line{{Product: cake, Quantity: 0}}, nil, time.Now())
	require.NoError(t, err)

	q := newQuote(result)
	require.Len(t, q.Lines, 1)
	assert.Equal(t, 1, q.Lines[0].Quantity)
	assert.Equal(t, 400.0, q.Lines[0].TotalPrice)
	assert.Equal(t, 1, q.orderItems()[0].Quantity)
}

func TestOrderNumber(t *testing.T) {
	at := time.UnixMilli(1767225600123)
	assert.Equal(t, "SD1767225600123", orderNumber(at))
}

type recordingNotifier struct {
	placed  []string
	changed []models.OrderStatus
	err     error
}

func (n *recordingNotifier) EnqueueOrderPlaced(_ context.Context, order *models.Order, _ string) error {
	n.placed = append(n.placed, order.OrderNumber)
	return n.err
}

func (n *recordingNotifier) EnqueueOrderStatusChanged(_ context.Context, _ *models.Order, previous models.OrderStatus) error {
	n.changed = append(n.changed, previous)
	return n.err
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("redis down")}
	svc := NewOrderService(notifier)

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), "shipped")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.UpdatePaymentStatus(context.Background(), uuid.New(), "refunded")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Empty(t, notifier.changed)
}

func TestPlaceOrderValidatesBeforeLoading(t *testing.T) {
	svc := NewCheckoutService(NewStoreService(), NewCartService(), NewPromotionService(), &recordingNotifier{}, "Bangalore")

	_, err := svc.PlaceOrder(context.Background(), uuid.New(), PlaceOrderInput{DeliveryType: models.DeliveryTypePickup})
	assert.ErrorIs(t, err, ErrStoreNotSelected)

	_, err = svc.Quote(context.Background(), uuid.New(), QuoteInput{})
	assert.ErrorIs(t, err, ErrStoreNotSelected)
}
