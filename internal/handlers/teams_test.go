package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hackmate-backend/internal/assets"
	"hackmate-backend/internal/common"
	"hackmate-backend/internal/config"
	"hackmate-backend/internal/models"
	"hackmate-backend/internal/teams"

	"github.com/go-playground/validator"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testValidator struct {
	validator *validator.Validate
}

func (v *testValidator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}

func newTestHandler(t *testing.T) (*AuthHandler, *echo.Echo) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Hackathon{},
		&models.Team{},
		&models.Membership{},
		&models.JoinRequest{},
		&models.Attachment{},
	))

	e := echo.New()
	e.Validator = &testValidator{validator: validator.New()}

	fakeAssets := assets.NewFakeStore()
	state := common.ServerState{
		Echo:      e,
		Config:    &config.Config{},
		DB:        db,
		JwtIssuer: NewJwtAuth("test-secret"),
		Assets:    fakeAssets,
		Teams:     teams.NewEngine(teams.NewGormStore(db), fakeAssets),
	}
	return NewAuthHandler(state), e
}

// newJSONContext builds an echo context for a JSON request, optionally
// authenticated as the user with the given email.
func newJSONContext(e *echo.Echo, method, body, email string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if email != "" {
		// What the echo-jwt middleware would have left behind
		c.Set("user", &jwt.Token{
			Claims: &common.JwtCustomClaims{Email: email},
			Valid:  true,
		})
	}
	return c, rec
}

func signUp(t *testing.T, h *AuthHandler, e *echo.Echo, first, email string) {
	t.Helper()
	body := fmt.Sprintf(`{"first_name":%q,"last_name":"Tester","email":%q,"password":"password123"}`, first, email)
	c, rec := newJSONContext(e, http.MethodPost, body, "")
	require.NoError(t, h.ManualSignUp(c))
	require.Equal(t, http.StatusCreated, rec.Code)
}

func createTeam(t *testing.T, h *AuthHandler, e *echo.Echo, email, name string) models.Team {
	t.Helper()
	body := fmt.Sprintf(`{"hackathon_id":1,"name":%q}`, name)
	c, rec := newJSONContext(e, http.MethodPost, body, email)
	require.NoError(t, h.CreateTeam(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var team models.Team
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &team))
	return team
}

func TestJoinWorkflowOverHTTP(t *testing.T) {
	h, e := newTestHandler(t)

	signUp(t, h, e, "Alice", "alice@example.com")
	signUp(t, h, e, "Bob", "bob@example.com")

	team := createTeam(t, h, e, "alice@example.com", "Rocket")

	// Bob asks to join
	c, rec := newJSONContext(e, http.MethodPost, `{"desired_role":"Backend"}`, "bob@example.com")
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(team.ID))
	require.NoError(t, h.SubmitJoinRequest(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var request models.JoinRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &request))
	assert.Equal(t, models.JoinRequestStatusPending, request.Status)

	// Resubmitting while pending is a no-op, reported as 200 instead of 201
	c, rec = newJSONContext(e, http.MethodPost, `{}`, "bob@example.com")
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(team.ID))
	require.NoError(t, h.SubmitJoinRequest(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Alice sees it in her pending queue
	c, rec = newJSONContext(e, http.MethodGet, "", "alice@example.com")
	require.NoError(t, h.PendingJoinRequests(c))
	require.Equal(t, http.StatusOK, rec.Code)
	var pending []models.JoinRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pending))
	require.Len(t, pending, 1)

	// Alice accepts
	c, rec = newJSONContext(e, http.MethodPost, `{"action":"accept"}`, "alice@example.com")
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(request.ID))
	require.NoError(t, h.RespondJoinRequest(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resolved models.JoinRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resolved))
	assert.Equal(t, models.JoinRequestStatusAccepted, resolved.Status)

	// Bob is committed now; forming his own team in hackathon 1 conflicts
	body := `{"hackathon_id":1,"name":"Breakaway"}`
	c, _ = newJSONContext(e, http.MethodPost, body, "bob@example.com")
	err := h.CreateTeam(c)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, httpErr.Code)
}

func TestRespondByNonLeaderOverHTTP(t *testing.T) {
	h, e := newTestHandler(t)

	signUp(t, h, e, "Alice", "alice@example.com")
	signUp(t, h, e, "Bob", "bob@example.com")
	signUp(t, h, e, "Mallory", "mallory@example.com")

	team := createTeam(t, h, e, "alice@example.com", "Rocket")

	c, rec := newJSONContext(e, http.MethodPost, `{}`, "bob@example.com")
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(team.ID))
	require.NoError(t, h.SubmitJoinRequest(c))
	var request models.JoinRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &request))

	c, _ = newJSONContext(e, http.MethodPost, `{"action":"accept"}`, "mallory@example.com")
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(request.ID))
	err := h.RespondJoinRequest(c)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)
}

func TestGetTeamAnonymously(t *testing.T) {
	h, e := newTestHandler(t)

	signUp(t, h, e, "Alice", "alice@example.com")
	team := createTeam(t, h, e, "alice@example.com", "Rocket")

	// No Authorization header at all: public teams still load
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(team.ID))
	require.NoError(t, h.GetTeam(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	// A garbage token degrades to anonymous instead of failing
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer not-a-token")
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(team.ID))
	require.NoError(t, h.GetTeam(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLeaveTeamOverHTTP(t *testing.T) {
	h, e := newTestHandler(t)

	signUp(t, h, e, "Alice", "alice@example.com")
	team := createTeam(t, h, e, "alice@example.com", "Rocket")

	// Leaders cannot leave their own team
	c, _ := newJSONContext(e, http.MethodPost, "", "alice@example.com")
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(team.ID))
	err := h.LeaveTeam(c)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, httpErr.Code)
}
