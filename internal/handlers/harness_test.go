package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/movapay/movapay/config"
	"github.com/movapay/movapay/internal/gateway"
	"github.com/movapay/movapay/internal/middleware"
	"github.com/movapay/movapay/internal/models"
	"github.com/movapay/movapay/internal/translator"
)

type sentMail struct {
	user        *models.User
	translation *models.Translation
}

type fakeNotifier struct {
	sent []sentMail
}

func (f *fakeNotifier) SendTranslationResult(user *models.User, translation *models.Translation) error {
	f.sent = append(f.sent, sentMail{user: user, translation: translation})
	return nil
}

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	gwCfg  config.GatewayConfig
	mailer *fakeNotifier

	// knobs for the stub upstream servers
	invoiceURL string
	deeplFail  bool
	deeplText  string
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Payment{},
		&models.PendingTranslation{},
		&models.Translation{},
		&models.DailyStat{},
	))

	env := &testEnv{
		db:         db,
		mailer:     &fakeNotifier{},
		invoiceURL: "https://pay.example/invoice/1",
		deeplText:  "translated text",
	}

	gwServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if env.invoiceURL == "" {
			fmt.Fprint(w, `{"reasonCode":1112,"reason":"Declined by gateway"}`)
			return
		}
		fmt.Fprintf(w, `{"invoiceUrl":%q,"reasonCode":1100,"reason":"Ok"}`, env.invoiceURL)
	}))
	t.Cleanup(gwServer.Close)

	deeplServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if env.deeplFail {
			http.Error(w, `{"message":"internal error"}`, http.StatusInternalServerError)
			return
		}
		resp := map[string]interface{}{
			"translations": []map[string]string{{"text": env.deeplText}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(deeplServer.Close)

	env.gwCfg = config.GatewayConfig{
		MerchantAccount: "test_merchant",
		MerchantDomain:  "movapay.example",
		SecretKey:       "merchant-secret",
		APIURL:          gwServer.URL,
		ServiceURL:      "https://movapay.example/v1/callbacks/wayforpay",
	}

	gatewayClient := gateway.NewClient(env.gwCfg)
	translatorClient := translator.NewClient(config.DeepLConfig{APIURL: deeplServer.URL, AuthKey: "test-key"})

	r := gin.New()
	r.Use(middleware.DatabaseMiddleware(db))
	r.Use(middleware.GatewayMiddleware(gatewayClient))
	r.Use(middleware.TranslatorMiddleware(translatorClient))
	r.Use(middleware.MailerMiddleware(env.mailer))
	r.Use(middleware.RedisMiddleware(nil))

	public := r.Group("/v1")
	{
		public.POST("/register", Register)
		public.POST("/login", Login)
		public.POST("/callbacks/wayforpay", WayForPayCallback)
	}
	protected := r.Group("/v1")
	protected.Use(middleware.JWTAuthMiddleware())
	{
		protected.GET("/profile", GetProfile)
		protected.DELETE("/users/:id", DeleteUser)
		protected.POST("/payments", CreatePayment)
		protected.GET("/payments", ListPayments)
		protected.GET("/payments/:id", GetPayment)
		protected.DELETE("/payments/:id", DeletePayment)
		protected.POST("/payments/:id/confirm", ConfirmPayment)
		protected.GET("/translations", ListTranslations)
		protected.GET("/translations/:id", GetTranslation)
		protected.DELETE("/translations/:id", DeleteTranslation)
		protected.GET("/stats", GetStats)
	}

	env.router = r
	return env
}

func createTestUser(t *testing.T, env *testEnv, username string, isAdmin bool) (*models.User, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hash),
		IsAdmin:  isAdmin,
	}
	require.NoError(t, env.db.Create(&user).Error)
	token, err := issueToken(&user)
	require.NoError(t, err)
	return &user, token
}

// createPendingOrder seeds a pending payment with its staged translation,
// bypassing the gateway the way a real order would exist after initiation.
func createPendingOrder(t *testing.T, env *testEnv, user *models.User, sourceText string) *models.Payment {
	t.Helper()
	payment := models.Payment{
		UserID: user.ID,
		Amount: translationPrice(sourceText),
		Status: models.PaymentStatusPending,
	}
	ref := "order-" + user.ID.String()[:8] + "-" + sourceText
	payment.OrderReference = &ref
	require.NoError(t, env.db.Create(&payment).Error)
	pending := models.PendingTranslation{
		PaymentID:  payment.ID,
		SourceText: sourceText,
		SourceLang: "EN",
		TargetLang: "UK",
	}
	require.NoError(t, env.db.Create(&pending).Error)
	return &payment
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func doRequest(t *testing.T, env *testEnv, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func doRawRequest(t *testing.T, env *testEnv, method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

// signedCallbackBody builds the JSON document WayForPay would post,
// including a valid merchant signature.
func signedCallbackBody(env *testEnv, orderReference string, reasonCode int, amount decimal.Decimal) []byte {
	amountStr := amount.StringFixed(2)
	sig := gateway.Sign(env.gwCfg.SecretKey,
		env.gwCfg.MerchantAccount, orderReference, amountStr, "UAH",
		"auth123", "41****1111", "Approved", fmt.Sprintf("%d", reasonCode))
	return []byte(fmt.Sprintf(
		`{"merchantAccount":%q,"orderReference":%q,"merchantSignature":%q,"amount":%s,"currency":"UAH","authCode":"auth123","cardPan":"41****1111","transactionStatus":"Approved","reasonCode":%d}`,
		env.gwCfg.MerchantAccount, orderReference, sig, amountStr, reasonCode,
	))
}
