package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"travleap/src/db"
	"travleap/src/lib"
	"travleap/src/models"
	"travleap/src/types"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type TestSuite struct {
	suite.Suite
	DB         *gorm.DB
	Token      *string
	AdminToken *string
	User       *models.User
	Unit       *models.BookableUnit
	Gateway    *stubGateway
}

var (
	dbi        *gorm.DB
	testJwtKey = []byte("test-secret")
)

type stubGateway struct {
	mu          sync.Mutex
	amount      float64
	approved    bool
	refundCalls int
}

func (g *stubGateway) ConfirmOrder(ctx context.Context, orderId string) (*lib.GatewayConfirmation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return &lib.GatewayConfirmation{
		OrderID:       orderId,
		Amount:        g.amount,
		Currency:      "usd",
		Approved:      g.approved,
		TransactionID: "pi_test",
	}, nil
}

func (g *stubGateway) RefundPayment(ctx context.Context, transactionId string, amount float64) (*lib.GatewayRefund, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refundCalls++
	return &lib.GatewayRefund{TransactionID: transactionId, RefundID: "re_test", Amount: amount}, nil
}

func authMiddleware(ctx *gin.Context) {
	bearerToken := ctx.Request.Header.Get("Authorization")
	if !strings.HasPrefix(bearerToken, "Bearer") {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	reqToken := strings.Split(bearerToken, " ")[1]
	if reqToken == "" {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	claims := &types.Claims{}
	tkn, err := jwt.ParseWithClaims(reqToken, claims, func(t *jwt.Token) (any, error) {
		return testJwtKey, nil
	})
	if err != nil || !tkn.Valid {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var user models.User
	uid, err := strconv.Atoi(claims.Subject)
	if err != nil {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	if err := dbi.Model(&models.User{}).Where(&models.User{ID: uint(uid)}).First(&user).Error; err != nil {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	ctx.Set("id", user.ID)
	ctx.Set("email", user.Email)
	ctx.Set("uid", user.UID)
	ctx.Set("role", user.Role)
}

func generateJWT(email string, id uint) (string, error) {
	claims := &types.Claims{
		Username: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(int(id)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(testJwtKey)
}

func NewTestDB(migrate ...any) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}
	inner, err := gormDB.DB()
	if err != nil {
		log.Fatalf("Error accessing inner db instance: %s", err.Error())
	}
	inner.SetMaxOpenConns(1)
	if err := gormDB.AutoMigrate(migrate...); err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}
	return gormDB
}

func (s *TestSuite) SetupSuite() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("unitcategory", unitCategoryValidatorFunc)
	}

	d := NewTestDB(
		&models.User{},
		&models.Partner{},
		&models.BookableUnit{},
		&models.Booking{},
		&models.Payment{},
		&models.PointLedgerEntry{},
		&models.AuditLog{},
		&models.JobTask{},
	)
	db.NewDB(d)
	s.DB = d
	dbi = d

	bdb := NewTestDB(&models.PointBalance{})
	db.NewBalanceDB(bdb)

	s.Gateway = &stubGateway{approved: true}
	lib.NewPaymentGateway(s.Gateway)

	user := models.User{
		Email: "someone@example.com",
		UID:   uuid.NewString(),
		Name:  "Test User",
		Role:  "user",
	}
	admin := models.User{
		Email: "admin@example.com",
		UID:   uuid.NewString(),
		Name:  "Test Admin",
		Role:  "admin",
	}
	if err := d.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Create(&admin).Error
	}); err != nil {
		log.Fatalf("Could not create users due to error: %s\n", err.Error())
	}
	s.User = &user

	partner := models.Partner{Name: "Suite Partner", Slug: "suite-partner", ContactEmail: "partner@example.com"}
	if err := d.Create(&partner).Error; err != nil {
		log.Fatalf("Could not create partner: %s\n", err.Error())
	}
	unit := models.BookableUnit{
		Category:  types.CATEGORY_TOUR,
		Name:      "City Tour",
		Slug:      "city-tour",
		Price:     10000,
		Currency:  "usd",
		Capacity:  5,
		PartnerID: partner.ID,
	}
	if err := d.Create(&unit).Error; err != nil {
		log.Fatalf("Could not create unit: %s\n", err.Error())
	}
	s.Unit = &unit

	token, err := generateJWT(user.Email, user.ID)
	if err != nil {
		log.Fatalf("Error generating JWT token: %s\n", err.Error())
		return
	}
	s.Token = &token
	adminToken, err := generateJWT(admin.Email, admin.ID)
	if err != nil {
		log.Fatalf("Error generating JWT token: %s\n", err.Error())
		return
	}
	s.AdminToken = &adminToken
}

func (s *TestSuite) TearDownSuite() {
	inner, err := s.DB.DB()
	if err != nil {
		log.Printf("Error accessing inner db instance: %s\n", err.Error())
		return
	}
	inner.Close()
}

func (s *TestSuite) newRouter() *gin.Engine {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(authMiddleware)
	holdHandlers(apiv1)
	unitHandlers(apiv1)
	orderHandlers(apiv1)
	refundHandlers(apiv1)
	pointsHandlers(apiv1)
	paymentWebhookRoute(router)
	return router
}

func (s *TestSuite) request(router *gin.Engine, method, url, token string, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, _ := http.NewRequest(method, url, reader)
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}
	router.ServeHTTP(w, req)
	return w
}

func (s *TestSuite) TestPingRoute() {
	router := setupRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
}

func (s *TestSuite) TestMaintenanceMode() {
	os.Setenv("MAINTENANCE_MODE", "true")
	defer os.Unsetenv("MAINTENANCE_MODE")

	router := setupRouter()
	router = maintenanceModeMiddleware(router)
	apiv1Group(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 503, w.Code)
}

func (s *TestSuite) TestUnauthorized() {
	router := s.newRouter()

	w := s.request(router, "GET", "/api/v1/units", "", "")
	assert.Equal(s.T(), 401, w.Code)
}

func (s *TestSuite) TestUnits() {
	router := s.newRouter()
	token := *s.Token

	s.Run("Should return list of units with availability", func() {
		w := s.request(router, "GET", "/api/v1/units", token, "")
		assert.Equal(s.T(), 200, w.Code)
		rbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		sjson := string(rbytes)
		assert.GreaterOrEqual(s.T(), gjson.Get(sjson, "count").Int(), int64(1))
	})

	s.Run("Should reject an unknown category", func() {
		body := `{"name":"Bad","category":"cruise","price":10,"currency":"usd","capacity":1,"partner":1}`
		w := s.request(router, "POST", "/api/v1/units", token, body)
		assert.Equal(s.T(), 400, w.Code)
	})
}

func (s *TestSuite) TestBookingFlow() {
	router := s.newRouter()
	token := *s.Token
	adminToken := *s.AdminToken

	var bookingId int64
	var orderId string

	s.Run("Should create a hold with 201 status", func() {
		body := fmt.Sprintf(`{"unit_id":%d,"qty":1}`, s.Unit.ID)
		w := s.request(router, "POST", "/api/v1/holds", token, body)
		assert.Equal(s.T(), 201, w.Code)
		rbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		sjson := string(rbytes)
		bookingId = gjson.Get(sjson, "data.id").Int()
		assert.Greater(s.T(), bookingId, int64(0))
		assert.Equal(s.T(), "held", gjson.Get(sjson, "data.status").String())
	})

	s.Run("Should return the hold", func() {
		w := s.request(router, "GET", fmt.Sprintf("/api/v1/holds/%d", bookingId), token, "")
		assert.Equal(s.T(), 200, w.Code)
	})

	s.Run("Should create an order from the hold", func() {
		body := fmt.Sprintf(`{"booking_ids":[%d]}`, bookingId)
		w := s.request(router, "POST", "/api/v1/checkout", token, body)
		assert.Equal(s.T(), 201, w.Code)
		rbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		sjson := string(rbytes)
		orderId = gjson.Get(sjson, "data.order_id").String()
		assert.NotEmpty(s.T(), orderId)
		assert.Len(s.T(), gjson.Get(sjson, "data.payments").Array(), 1)
	})

	s.Run("Should confirm the order and accrue points", func() {
		s.Gateway.mu.Lock()
		s.Gateway.amount = 10000
		s.Gateway.approved = true
		s.Gateway.mu.Unlock()

		w := s.request(router, "POST", fmt.Sprintf("/api/v1/orders/%s/confirm", orderId), token, "")
		assert.Equal(s.T(), 200, w.Code)
		rbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		sjson := string(rbytes)
		assert.Equal(s.T(), int64(200), gjson.Get(sjson, "data.points_accrued").Int())
		assert.False(s.T(), gjson.Get(sjson, "data.already_settled").Bool())
	})

	s.Run("Should report the accrued balance", func() {
		w := s.request(router, "GET", fmt.Sprintf("/api/v1/users/%d/points", s.User.ID), token, "")
		assert.Equal(s.T(), 200, w.Code)
		rbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		sjson := string(rbytes)
		assert.Equal(s.T(), int64(200), gjson.Get(sjson, "data.total_points").Int())
	})

	s.Run("Confirming again is a no-op", func() {
		w := s.request(router, "POST", fmt.Sprintf("/api/v1/orders/%s/confirm", orderId), token, "")
		assert.Equal(s.T(), 200, w.Code)
		rbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		sjson := string(rbytes)
		assert.True(s.T(), gjson.Get(sjson, "data.already_settled").Bool())
	})

	s.Run("Should refund the whole order", func() {
		body := fmt.Sprintf(`{"ref":"%s","reason":"test"}`, orderId)
		w := s.request(router, "POST", "/api/v1/refunds", adminToken, body)
		assert.Equal(s.T(), 200, w.Code)
		rbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		sjson := string(rbytes)
		assert.Equal(s.T(), float64(10000), gjson.Get(sjson, "data.reversed_amount").Float())
		assert.False(s.T(), gjson.Get(sjson, "data.already_processed").Bool())
	})

	s.Run("Refunding again is a no-op", func() {
		body := fmt.Sprintf(`{"ref":"%s"}`, orderId)
		w := s.request(router, "POST", "/api/v1/refunds", adminToken, body)
		assert.Equal(s.T(), 200, w.Code)
		rbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		sjson := string(rbytes)
		assert.True(s.T(), gjson.Get(sjson, "data.already_processed").Bool())
	})
}

func (s *TestSuite) TestHoldCapacityConflict() {
	router := s.newRouter()
	token := *s.Token

	body := fmt.Sprintf(`{"unit_id":%d,"qty":%d}`, s.Unit.ID, s.Unit.Capacity+1)
	w := s.request(router, "POST", "/api/v1/holds", token, body)
	assert.Equal(s.T(), 409, w.Code)
	rbytes, err := io.ReadAll(w.Body)
	assert.Nil(s.T(), err)
	assert.NotEmpty(s.T(), gjson.Get(string(rbytes), "error").String())
}

func (s *TestSuite) TestWebhookAuth() {
	router := s.newRouter()
	os.Setenv("PAYMENT_WEBHOOK_SECRET", "whsec_test")
	defer os.Unsetenv("PAYMENT_WEBHOOK_SECRET")

	s.Run("Should reject a missing secret", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/webhook/payments", strings.NewReader(`{"order_id":"x"}`))
		router.ServeHTTP(w, req)
		assert.Equal(s.T(), 401, w.Code)
	})

	s.Run("Should reject an unknown order with the right secret", func() {
		w := httptest.NewRecorder()
		body := fmt.Sprintf(`{"order_id":"%s"}`, uuid.NewString())
		req, _ := http.NewRequest("POST", "/webhook/payments", strings.NewReader(body))
		req.Header.Set("X-Webhook-Secret", "whsec_test")
		router.ServeHTTP(w, req)
		assert.Equal(s.T(), 404, w.Code)
	})
}

func (s *TestSuite) TestReconcileRequiresAdmin() {
	router := s.newRouter()

	url := fmt.Sprintf("/api/v1/users/%d/points/reconcile", s.User.ID)
	w := s.request(router, "POST", url, *s.Token, "")
	assert.Equal(s.T(), 403, w.Code)

	w = s.request(router, "POST", url, *s.AdminToken, "")
	assert.Equal(s.T(), 200, w.Code)
}

func TestSuiteRun(t *testing.T) {
	suite.Run(t, new(TestSuite))
}
