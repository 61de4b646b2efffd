package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Hassan-Maher/Quizify/internal/config"
	"github.com/Hassan-Maher/Quizify/internal/db"
	"github.com/Hassan-Maher/Quizify/internal/models"
	"github.com/Hassan-Maher/Quizify/internal/otp"
	"github.com/Hassan-Maher/Quizify/internal/routes"
)

type sentMail struct {
	To   string
	Code string
}

type fakeMailer struct {
	fail         bool
	registration []sentMail
	resets       []sentMail
}

func (f *fakeMailer) SendRegistrationOTP(to string, code string) error {
	if f.fail {
		return errors.New("smtp: connection refused")
	}
	f.registration = append(f.registration, sentMail{To: to, Code: code})
	return nil
}

func (f *fakeMailer) SendPasswordResetOTP(to string, code string) error {
	if f.fail {
		return errors.New("smtp: connection refused")
	}
	f.resets = append(f.resets, sentMail{To: to, Code: code})
	return nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	mail   *fakeMailer
	clock  *fakeClock
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(database))

	cfg := config.Config{
		AppEnv:           "test",
		JwtSecret:        "test-secret",
		JwtAccessMinutes: 60,
		OtpMinutes:       5,
		UploadDir:        t.TempDir(),
	}

	clock := &fakeClock{now: time.Now()}
	mail := &fakeMailer{}
	codes := otp.NewStore(database, clock.Now, time.Duration(cfg.OtpMinutes)*time.Minute)

	router := gin.New()
	routes.Register(router, database, cfg, mail, codes, zap.NewNop().Sugar())

	return &testEnv{router: router, db: database, mail: mail, clock: clock}
}

func (e *testEnv) do(t *testing.T, method string, path string, body any, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	}
	return rec, env
}

func dataMap(t *testing.T, env envelope) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &m))
	return m
}

func (e *testEnv) user(t *testing.T, email string) models.User {
	t.Helper()
	var user models.User
	require.NoError(t, e.db.Where("email = ?", email).First(&user).Error)
	return user
}

func (e *testEnv) otpCode(t *testing.T, email string) string {
	t.Helper()
	user := e.user(t, email)
	var record models.UserOTP
	require.NoError(t, e.db.Where("user_id = ?", user.ID).First(&record).Error)
	return record.Code
}

func (e *testEnv) otpCount(t *testing.T, email string) int64 {
	t.Helper()
	user := e.user(t, email)
	var count int64
	require.NoError(t, e.db.Model(&models.UserOTP{}).Where("user_id = ?", user.ID).Count(&count).Error)
	return count
}

func (e *testEnv) register(t *testing.T, name string, email string, password string) {
	t.Helper()
	rec, _ := e.do(t, http.MethodPost, "/register", gin.H{
		"name":     name,
		"email":    email,
		"password": password,
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
}

// registerVerified walks the real registration flow and returns a bearer token.
func (e *testEnv) registerVerified(t *testing.T, name string, email string, password string) string {
	t.Helper()
	e.register(t, name, email, password)

	rec, env := e.do(t, http.MethodPost, "/verify-otp-register", gin.H{
		"email": email,
		"code":  e.otpCode(t, email),
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	data := dataMap(t, env)
	token, ok := data["token"].(string)
	require.True(t, ok, "verify response carries no token")
	return token
}
