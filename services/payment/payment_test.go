package paymentService

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"lms/gateway"
	"lms/models"
	courseModels "lms/models/course"
	paymentModels "lms/models/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// fakeGateway counts orders and accepts the literal signature "valid".
type fakeGateway struct {
	orders     int
	failCreate bool
}

func (f *fakeGateway) CreateOrder(_ context.Context, req gateway.OrderRequest) (*gateway.Order, error) {
	if req.Amount == 0 {
		return nil, gateway.ErrInvalidAmount
	}
	if f.failCreate {
		return nil, &gateway.Error{Provider: "fake", StatusCode: 503, Message: "provider unavailable"}
	}
	f.orders++
	return &gateway.Order{
		ID:       fmt.Sprintf("order_%d", f.orders),
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Status:   "created",
	}, nil
}

func (f *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return signature == "valid"
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&courseModels.Course{},
		&courseModels.Lecture{},
		&courseModels.Enrollment{},
		&paymentModels.CoursePurchase{},
	))

	// Shared-cache sqlite rejects overlapping writers; a single pooled
	// connection serializes them the way the production row locks do.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	return db
}

func seedCourse(t *testing.T, db *gorm.DB, price uint) courseModels.Course {
	t.Helper()
	crs := courseModels.Course{
		Title:        "Go From Scratch",
		Category:     "programming",
		Price:        price,
		Currency:     "INR",
		InstructorID: 99,
		IsPublished:  true,
	}
	require.NoError(t, db.Create(&crs).Error)
	return crs
}

func seedUser(t *testing.T, db *gorm.DB) models.User {
	t.Helper()
	user := models.User{Name: "Asha", Email: fmt.Sprintf("%s@example.com", strings.ReplaceAll(t.Name(), "/", "_")), Password: "x"}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func enrollmentCount(t *testing.T, db *gorm.DB, userID, courseID uint) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&courseModels.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).Count(&count).Error)
	return count
}

func TestInitiateCheckoutCreatesPendingPurchase(t *testing.T) {
	db := setupTestDB(t)
	gw := &fakeGateway{}
	svc := NewService(db, gw, "INR")

	crs := seedCourse(t, db, 500)
	user := seedUser(t, db)

	result, err := svc.InitiateCheckout(context.Background(), user.ID, crs.ID)
	require.NoError(t, err)
	require.NotNil(t, result.Order)
	assert.False(t, result.AlreadyPurchased)
	assert.Equal(t, uint(500), result.Order.Amount)

	var purchase paymentModels.CoursePurchase
	require.NoError(t, db.Where("user_id = ? AND course_id = ?", user.ID, crs.ID).First(&purchase).Error)
	assert.Equal(t, paymentModels.StatusPending, purchase.Status)
	assert.Equal(t, uint(500), purchase.Amount)
	assert.Equal(t, "INR", purchase.Currency)
	assert.Equal(t, result.Order.ID, purchase.PaymentOrderID)
	assert.NotEmpty(t, purchase.Receipt)
}

func TestInitiateCheckoutUnknownCourse(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, &fakeGateway{}, "INR")
	user := seedUser(t, db)

	_, err := svc.InitiateCheckout(context.Background(), user.ID, 4242)
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestInitiateCheckoutZeroPriceCourse(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, &fakeGateway{}, "INR")

	crs := seedCourse(t, db, 0)
	user := seedUser(t, db)

	_, err := svc.InitiateCheckout(context.Background(), user.ID, crs.ID)
	assert.ErrorIs(t, err, gateway.ErrInvalidAmount)
}

func TestInitiateCheckoutGatewayFailureLeavesPending(t *testing.T) {
	db := setupTestDB(t)
	gw := &fakeGateway{failCreate: true}
	svc := NewService(db, gw, "INR")

	crs := seedCourse(t, db, 500)
	user := seedUser(t, db)

	_, err := svc.InitiateCheckout(context.Background(), user.ID, crs.ID)
	require.Error(t, err)

	var gwErr *gateway.Error
	assert.ErrorAs(t, err, &gwErr)

	// The abandoned purchase stays pending with no order id; pending rows
	// never grant entitlement, so a retry just creates a fresh one.
	var purchases []paymentModels.CoursePurchase
	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&purchases).Error)
	require.Len(t, purchases, 1)
	assert.Equal(t, paymentModels.StatusPending, purchases[0].Status)
	assert.Empty(t, purchases[0].PaymentOrderID)

	gw.failCreate = false
	_, err = svc.InitiateCheckout(context.Background(), user.ID, crs.ID)
	require.NoError(t, err)

	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&purchases).Error)
	assert.Len(t, purchases, 2)
}

func TestConfirmPurchaseCompletesAndEnrolls(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, &fakeGateway{}, "INR")

	crs := seedCourse(t, db, 500)
	user := seedUser(t, db)

	checkout, err := svc.InitiateCheckout(context.Background(), user.ID, crs.ID)
	require.NoError(t, err)

	result, err := svc.ConfirmPurchase(context.Background(), checkout.Order.ID, "pay_1", "valid")
	require.NoError(t, err)
	assert.True(t, result.Verified)
	assert.False(t, result.AlreadyCompleted)
	assert.Equal(t, paymentModels.StatusCompleted, result.Purchase.Status)
	assert.Equal(t, "pay_1", result.Purchase.PaymentID)

	// Both sides of the enrollment relation come from the same row.
	assert.Equal(t, int64(1), enrollmentCount(t, db, user.ID, crs.ID))
	assert.True(t, IsEnrolled(db, user.ID, crs.ID))
}

func TestConfirmPurchaseDuplicateWebhookIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, &fakeGateway{}, "INR")

	crs := seedCourse(t, db, 500)
	user := seedUser(t, db)

	checkout, err := svc.InitiateCheckout(context.Background(), user.ID, crs.ID)
	require.NoError(t, err)

	first, err := svc.ConfirmPurchase(context.Background(), checkout.Order.ID, "pay_1", "valid")
	require.NoError(t, err)
	assert.False(t, first.AlreadyCompleted)

	second, err := svc.ConfirmPurchase(context.Background(), checkout.Order.ID, "pay_1", "valid")
	require.NoError(t, err)
	assert.True(t, second.Verified)
	assert.True(t, second.AlreadyCompleted)

	// Enrollment projected exactly once across both confirmations
	assert.Equal(t, int64(1), enrollmentCount(t, db, user.ID, crs.ID))
}

func TestConfirmPurchaseBadSignatureDoesNotMutate(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, &fakeGateway{}, "INR")

	crs := seedCourse(t, db, 500)
	user := seedUser(t, db)

	checkout, err := svc.InitiateCheckout(context.Background(), user.ID, crs.ID)
	require.NoError(t, err)

	result, err := svc.ConfirmPurchase(context.Background(), checkout.Order.ID, "pay_1", "tampered")
	require.NoError(t, err)
	assert.False(t, result.Verified)

	var purchase paymentModels.CoursePurchase
	require.NoError(t, db.Where("payment_order_id = ?", checkout.Order.ID).First(&purchase).Error)
	assert.Equal(t, paymentModels.StatusPending, purchase.Status)
	assert.Equal(t, int64(0), enrollmentCount(t, db, user.ID, crs.ID))
}

func TestConfirmPurchaseUnknownOrder(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, &fakeGateway{}, "INR")

	_, err := svc.ConfirmPurchase(context.Background(), "order_missing", "pay_1", "valid")
	assert.ErrorIs(t, err, ErrPurchaseNotFound)
}

func TestConfirmPurchaseAfterFailure(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, &fakeGateway{}, "INR")

	crs := seedCourse(t, db, 500)
	user := seedUser(t, db)

	checkout, err := svc.InitiateCheckout(context.Background(), user.ID, crs.ID)
	require.NoError(t, err)

	verified, err := svc.MarkPurchaseFailed(context.Background(), checkout.Order.ID, "pay_1", "valid")
	require.NoError(t, err)
	assert.True(t, verified)

	_, err = svc.ConfirmPurchase(context.Background(), checkout.Order.ID, "pay_1", "valid")
	assert.ErrorIs(t, err, ErrPurchaseFailed)
	assert.Equal(t, int64(0), enrollmentCount(t, db, user.ID, crs.ID))
}

func TestMarkPurchaseFailedLeavesTerminalStates(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, &fakeGateway{}, "INR")

	crs := seedCourse(t, db, 500)
	user := seedUser(t, db)

	checkout, err := svc.InitiateCheckout(context.Background(), user.ID, crs.ID)
	require.NoError(t, err)

	_, err = svc.ConfirmPurchase(context.Background(), checkout.Order.ID, "pay_1", "valid")
	require.NoError(t, err)

	// Completed is terminal; a late decline callback must not undo it.
	verified, err := svc.MarkPurchaseFailed(context.Background(), checkout.Order.ID, "pay_1", "valid")
	require.NoError(t, err)
	assert.True(t, verified)

	var purchase paymentModels.CoursePurchase
	require.NoError(t, db.Where("payment_order_id = ?", checkout.Order.ID).First(&purchase).Error)
	assert.Equal(t, paymentModels.StatusCompleted, purchase.Status)
}

func TestMarkPurchaseFailedBadSignatureDoesNotMutate(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, &fakeGateway{}, "INR")

	crs := seedCourse(t, db, 500)
	user := seedUser(t, db)

	checkout, err := svc.InitiateCheckout(context.Background(), user.ID, crs.ID)
	require.NoError(t, err)

	// Knowing the order id alone must not be enough to kill the purchase
	verified, err := svc.MarkPurchaseFailed(context.Background(), checkout.Order.ID, "pay_1", "tampered")
	require.NoError(t, err)
	assert.False(t, verified)

	var purchase paymentModels.CoursePurchase
	require.NoError(t, db.Where("payment_order_id = ?", checkout.Order.ID).First(&purchase).Error)
	assert.Equal(t, paymentModels.StatusPending, purchase.Status)

	// The legitimate confirmation still goes through afterwards
	result, err := svc.ConfirmPurchase(context.Background(), checkout.Order.ID, "pay_1", "valid")
	require.NoError(t, err)
	assert.True(t, result.Verified)
	assert.Equal(t, paymentModels.StatusCompleted, result.Purchase.Status)
}

func TestConfirmPurchaseConcurrentCallbacks(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, &fakeGateway{}, "INR")

	crs := seedCourse(t, db, 500)
	user := seedUser(t, db)

	checkout, err := svc.InitiateCheckout(context.Background(), user.ID, crs.ID)
	require.NoError(t, err)

	// Duplicate webhook deliveries race on the same order; the conditional
	// update lets exactly one win, the rest observe an already completed row.
	const callers = 4
	results := make([]*ConfirmResult, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.ConfirmPurchase(context.Background(), checkout.Order.ID, "pay_1", "valid")
		}(i)
	}
	wg.Wait()

	winners := 0
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.True(t, results[i].Verified)
		if !results[i].AlreadyCompleted {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, int64(1), enrollmentCount(t, db, user.ID, crs.ID))
}

func TestInitiateCheckoutShortCircuitsWhenAlreadyPurchased(t *testing.T) {
	db := setupTestDB(t)
	gw := &fakeGateway{}
	svc := NewService(db, gw, "INR")

	crs := seedCourse(t, db, 500)
	user := seedUser(t, db)

	checkout, err := svc.InitiateCheckout(context.Background(), user.ID, crs.ID)
	require.NoError(t, err)
	_, err = svc.ConfirmPurchase(context.Background(), checkout.Order.ID, "pay_1", "valid")
	require.NoError(t, err)

	again, err := svc.InitiateCheckout(context.Background(), user.ID, crs.ID)
	require.NoError(t, err)
	assert.True(t, again.AlreadyPurchased)
	assert.Nil(t, again.Order)
	assert.Equal(t, paymentModels.StatusCompleted, again.Purchase.Status)

	// No second gateway order, no second purchase row
	assert.Equal(t, 1, gw.orders)
	var count int64
	require.NoError(t, db.Model(&paymentModels.CoursePurchase{}).
		Where("user_id = ? AND course_id = ?", user.ID, crs.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestHasPurchased(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, &fakeGateway{}, "INR")

	crs := seedCourse(t, db, 500)
	user := seedUser(t, db)

	purchased, err := svc.HasPurchased(context.Background(), user.ID, crs.ID)
	require.NoError(t, err)
	assert.False(t, purchased)

	checkout, err := svc.InitiateCheckout(context.Background(), user.ID, crs.ID)
	require.NoError(t, err)

	// Pending purchases grant nothing
	purchased, err = svc.HasPurchased(context.Background(), user.ID, crs.ID)
	require.NoError(t, err)
	assert.False(t, purchased)

	_, err = svc.ConfirmPurchase(context.Background(), checkout.Order.ID, "pay_1", "valid")
	require.NoError(t, err)

	purchased, err = svc.HasPurchased(context.Background(), user.ID, crs.ID)
	require.NoError(t, err)
	assert.True(t, purchased)

	_, err = svc.HasPurchased(context.Background(), user.ID, 4242)
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestPurchasedCourses(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, &fakeGateway{}, "INR")

	crs := seedCourse(t, db, 500)
	user := seedUser(t, db)

	courses, err := svc.PurchasedCourses(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, courses)

	checkout, err := svc.InitiateCheckout(context.Background(), user.ID, crs.ID)
	require.NoError(t, err)
	_, err = svc.ConfirmPurchase(context.Background(), checkout.Order.ID, "pay_1", "valid")
	require.NoError(t, err)

	courses, err = svc.PurchasedCourses(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, crs.ID, courses[0].ID)
}
