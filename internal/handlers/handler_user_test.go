package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/SscSPs/videotube_backend/internal/apperrors"
	"github.com/SscSPs/videotube_backend/internal/core/domain"
	portssvc "github.com/SscSPs/videotube_backend/internal/core/ports/services"
	"github.com/SscSPs/videotube_backend/internal/dto"
	"github.com/SscSPs/videotube_backend/internal/handlers"
	"github.com/SscSPs/videotube_backend/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock UserService ---
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, req dto.RegisterUserRequest) (*domain.UserProfile, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserProfile), args.Error(1)
}

func (m *MockUserService) Login(ctx context.Context, req dto.LoginRequest) (*domain.Session, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockUserService) RefreshSession(ctx context.Context, refreshToken string) (*domain.Session, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockUserService) Logout(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockUserService) GetCurrentUser(ctx context.Context, userID string) (*domain.UserProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserProfile), args.Error(1)
}

func (m *MockUserService) ChangePassword(ctx context.Context, userID string, req dto.ChangePasswordRequest) error {
	args := m.Called(ctx, userID, req)
	return args.Error(0)
}

func (m *MockUserService) UpdateAccountDetails(ctx context.Context, userID string, req dto.UpdateAccountRequest) (*domain.UserProfile, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserProfile), args.Error(1)
}

func (m *MockUserService) UpdateAvatar(ctx context.Context, userID string, localPath string) (*domain.UserProfile, error) {
	args := m.Called(ctx, userID, localPath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserProfile), args.Error(1)
}

func (m *MockUserService) UpdateCoverImage(ctx context.Context, userID string, localPath string) (*domain.UserProfile, error) {
	args := m.Called(ctx, userID, localPath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserProfile), args.Error(1)
}

func (m *MockUserService) AuthenticateAccessToken(ctx context.Context, accessToken string) (*domain.UserProfile, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserProfile), args.Error(1)
}

// Ensure mock implements the interface
var _ portssvc.UserSvcFacade = (*MockUserService)(nil)

// --- Test Suite ---
type UserHandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	mockUserSvc *MockUserService
	cfg         *config.Config
	alice       *domain.UserProfile
}

const validAccessToken = "valid-access-token"

func (suite *UserHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.mockUserSvc = new(MockUserService)
	suite.cfg = &config.Config{
		IsProduction:           true,
		AccessTokenExpiry:      time.Hour,
		RefreshTokenExpiry:     240 * time.Hour,
		AccessTokenCookieName:  "accessToken",
		RefreshTokenCookieName: "refreshToken",
		CookieSecure:           true,
		UploadTempDir:          suite.T().TempDir(),
		MaxUploadBytes:         1 << 20,
		AuthRateLimit:          "1000-M",
		CORSOrigins:            []string{"http://localhost:3000"},
	}
	suite.alice = &domain.UserProfile{UserID: "u-1", Username: "alice", Email: "alice@example.com", FullName: "Alice", WatchHistory: []string{}}

	suite.router = gin.New()
	err := handlers.RegisterRoutes(suite.router, suite.cfg, &portssvc.ServiceContainer{User: suite.mockUserSvc})
	suite.Require().NoError(err)

	suite.mockUserSvc.On("AuthenticateAccessToken", mock.Anything, validAccessToken).Return(suite.alice, nil).Maybe()
}

func (suite *UserHandlerTestSuite) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *UserHandlerTestSuite) jsonRequest(method, path string, body any) *http.Request {
	payload, err := json.Marshal(body)
	suite.Require().NoError(err)
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func (suite *UserHandlerTestSuite) authed(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer "+validAccessToken)
	return req
}

func (suite *UserHandlerTestSuite) decodeSuccess(w *httptest.ResponseRecorder, data any) dto.APIResponse {
	var env struct {
		dto.APIResponse
		Data json.RawMessage `json:"data"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env))
	if data != nil {
		suite.Require().NoError(json.Unmarshal(env.Data, data))
	}
	return env.APIResponse
}

func (suite *UserHandlerTestSuite) decodeError(w *httptest.ResponseRecorder) dto.APIErrorResponse {
	var env dto.APIErrorResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func multipartRequest(method, path string, fields map[string]string, files map[string][]byte) *http.Request {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	for field, content := range files {
		fw, _ := mw.CreateFormFile(field, field+".png")
		_, _ = fw.Write(content)
	}
	_ = mw.Close()
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func cookieByName(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// --- Health ---
func (suite *UserHandlerTestSuite) TestHealth() {
	w := suite.serve(httptest.NewRequest(http.MethodGet, "/health", nil))
	suite.Equal(http.StatusOK, w.Code)
	suite.True(suite.decodeSuccess(w, nil).Success)
}

// --- Register ---
func (suite *UserHandlerTestSuite) TestRegister_Success() {
	var seen dto.RegisterUserRequest
	suite.mockUserSvc.On("Register", mock.Anything, mock.AnythingOfType("dto.RegisterUserRequest")).
		Run(func(args mock.Arguments) {
			seen = args.Get(1).(dto.RegisterUserRequest)
			_, err := os.Stat(seen.AvatarLocalPath)
			suite.NoError(err, "avatar should be saved before the service runs")
		}).
		Return(suite.alice, nil).Once()

	req := multipartRequest(http.MethodPost, "/api/v1/users/register",
		map[string]string{"fullName": "Alice", "username": "alice", "email": "alice@example.com", "password": "wonderland"},
		map[string][]byte{"avatar": []byte("fake-image")})
	w := suite.serve(req)

	suite.Equal(http.StatusCreated, w.Code)
	var profile domain.UserProfile
	env := suite.decodeSuccess(w, &profile)
	suite.True(env.Success)
	suite.Equal(http.StatusCreated, env.StatusCode)
	suite.Equal("u-1", profile.UserID)
	suite.NotContains(w.Body.String(), "password")
	suite.NotContains(w.Body.String(), "refreshToken")

	suite.Equal("alice", seen.Username)
	suite.True(strings.HasPrefix(seen.AvatarLocalPath, suite.cfg.UploadTempDir))
	suite.Empty(seen.CoverImageLocalPath)
	_, err := os.Stat(seen.AvatarLocalPath)
	suite.True(os.IsNotExist(err), "temp upload should be removed")
	suite.mockUserSvc.AssertExpectations(suite.T())
}

func (suite *UserHandlerTestSuite) TestRegister_ServiceErrorEnvelope() {
	suite.mockUserSvc.On("Register", mock.Anything, mock.Anything).
		Return(nil, apperrors.Conflict("User with email or username already exists", nil)).Once()

	req := multipartRequest(http.MethodPost, "/api/v1/users/register",
		map[string]string{"fullName": "Alice", "username": "alice", "email": "alice@example.com", "password": "wonderland"},
		map[string][]byte{"avatar": []byte("fake-image")})
	w := suite.serve(req)

	suite.Equal(http.StatusConflict, w.Code)
	env := suite.decodeError(w)
	suite.False(env.Success)
	suite.Equal(http.StatusConflict, env.StatusCode)
	suite.Equal("User with email or username already exists", env.Message)
}

func (suite *UserHandlerTestSuite) TestRegister_InvalidEmail() {
	req := multipartRequest(http.MethodPost, "/api/v1/users/register",
		map[string]string{"fullName": "Alice", "username": "alice", "email": "not-an-email", "password": "wonderland"},
		nil)
	w := suite.serve(req)

	suite.Equal(http.StatusBadRequest, w.Code)
	env := suite.decodeError(w)
	suite.NotEmpty(env.Errors)
	suite.mockUserSvc.AssertNotCalled(suite.T(), "Register", mock.Anything, mock.Anything)
}

func (suite *UserHandlerTestSuite) TestRegister_UsernameWithAtSign() {
	req := multipartRequest(http.MethodPost, "/api/v1/users/register",
		map[string]string{"fullName": "Mallory", "username": "alice@example.com", "email": "mallory@example.com", "password": "wonderland"},
		nil)
	w := suite.serve(req)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockUserSvc.AssertNotCalled(suite.T(), "Register", mock.Anything, mock.Anything)
}

func (suite *UserHandlerTestSuite) TestRegister_UploadTooLarge() {
	suite.cfg.MaxUploadBytes = 4
	suite.router = gin.New()
	suite.Require().NoError(handlers.RegisterRoutes(suite.router, suite.cfg, &portssvc.ServiceContainer{User: suite.mockUserSvc}))

	req := multipartRequest(http.MethodPost, "/api/v1/users/register",
		map[string]string{"fullName": "Alice", "username": "alice", "email": "alice@example.com", "password": "wonderland"},
		map[string][]byte{"avatar": []byte("much too large")})
	w := suite.serve(req)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockUserSvc.AssertNotCalled(suite.T(), "Register", mock.Anything, mock.Anything)
}

// --- Login ---
func (suite *UserHandlerTestSuite) TestLogin_SetsCookies() {
	session := &domain.Session{User: suite.alice, TokenPair: domain.TokenPair{AccessToken: "at", RefreshToken: "rt"}}
	suite.mockUserSvc.On("Login", mock.Anything, dto.LoginRequest{Email: "alice@example.com", Password: "wonderland"}).
		Return(session, nil).Once()

	w := suite.serve(suite.jsonRequest(http.MethodPost, "/api/v1/users/login",
		map[string]string{"email": "alice@example.com", "password": "wonderland"}))

	suite.Equal(http.StatusOK, w.Code)
	var body dto.LoginResponse
	suite.decodeSuccess(w, &body)
	suite.Equal("at", body.AccessToken)
	suite.Equal("rt", body.RefreshToken)
	suite.Equal("u-1", body.User.UserID)

	access := cookieByName(w, "accessToken")
	suite.Require().NotNil(access)
	suite.Equal("at", access.Value)
	suite.True(access.HttpOnly)
	suite.True(access.Secure)
	suite.Equal(3600, access.MaxAge)
	refresh := cookieByName(w, "refreshToken")
	suite.Require().NotNil(refresh)
	suite.Equal("rt", refresh.Value)
	suite.Equal(int((240 * time.Hour).Seconds()), refresh.MaxAge)
}

func (suite *UserHandlerTestSuite) TestLogin_Unauthorized() {
	suite.mockUserSvc.On("Login", mock.Anything, mock.Anything).
		Return(nil, apperrors.Unauthorized("Invalid user credentials", nil)).Once()

	w := suite.serve(suite.jsonRequest(http.MethodPost, "/api/v1/users/login",
		map[string]string{"username": "alice", "password": "nope"}))

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.Equal("Invalid user credentials", suite.decodeError(w).Message)
	suite.Nil(cookieByName(w, "accessToken"))
}

func (suite *UserHandlerTestSuite) TestLogin_InternalErrorHidesCause() {
	suite.mockUserSvc.On("Login", mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused to db-host:5432")).Once()

	w := suite.serve(suite.jsonRequest(http.MethodPost, "/api/v1/users/login",
		map[string]string{"username": "alice", "password": "pw"}))

	suite.Equal(http.StatusInternalServerError, w.Code)
	suite.NotContains(w.Body.String(), "db-host")
}

// --- Refresh ---
func (suite *UserHandlerTestSuite) TestRefresh_FromCookie() {
	session := &domain.Session{User: suite.alice, TokenPair: domain.TokenPair{AccessToken: "at2", RefreshToken: "rt2"}}
	suite.mockUserSvc.On("RefreshSession", mock.Anything, "rt1").Return(session, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: "rt1"})
	w := suite.serve(req)

	suite.Equal(http.StatusOK, w.Code)
	var body dto.RefreshTokenResponse
	suite.decodeSuccess(w, &body)
	suite.Equal("at2", body.AccessToken)
	suite.Equal("rt2", body.RefreshToken)
	suite.Equal("rt2", cookieByName(w, "refreshToken").Value)
}

func (suite *UserHandlerTestSuite) TestRefresh_FromBody() {
	session := &domain.Session{User: suite.alice, TokenPair: domain.TokenPair{AccessToken: "at2", RefreshToken: "rt2"}}
	suite.mockUserSvc.On("RefreshSession", mock.Anything, "rt1").Return(session, nil).Once()

	w := suite.serve(suite.jsonRequest(http.MethodPost, "/api/v1/users/refresh-token", map[string]string{"refreshToken": "rt1"}))

	suite.Equal(http.StatusOK, w.Code)
}

func (suite *UserHandlerTestSuite) TestRefresh_Missing() {
	suite.mockUserSvc.On("RefreshSession", mock.Anything, "").
		Return(nil, apperrors.Unauthorized("Unauthorized request", nil)).Once()

	w := suite.serve(httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil))

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.Equal("Unauthorized request", suite.decodeError(w).Message)
}

// --- Logout ---
func (suite *UserHandlerTestSuite) TestLogout_RequiresAuth() {
	w := suite.serve(httptest.NewRequest(http.MethodPost, "/api/v1/users/logout", nil))

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockUserSvc.AssertNotCalled(suite.T(), "Logout", mock.Anything, mock.Anything)
}

func (suite *UserHandlerTestSuite) TestLogout_ClearsCookies() {
	suite.mockUserSvc.On("Logout", mock.Anything, "u-1").Return(nil).Once()

	w := suite.serve(suite.authed(httptest.NewRequest(http.MethodPost, "/api/v1/users/logout", nil)))

	suite.Equal(http.StatusOK, w.Code)
	for _, name := range []string{"accessToken", "refreshToken"} {
		c := cookieByName(w, name)
		suite.Require().NotNil(c, name)
		suite.Empty(c.Value)
		suite.True(c.MaxAge < 0)
	}
	suite.mockUserSvc.AssertExpectations(suite.T())
}

// --- Current user ---
func (suite *UserHandlerTestSuite) TestCurrentUser_FromCookie() {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: validAccessToken})
	w := suite.serve(req)

	suite.Equal(http.StatusOK, w.Code)
	var profile domain.UserProfile
	suite.decodeSuccess(w, &profile)
	suite.Equal("alice", profile.Username)
}

func (suite *UserHandlerTestSuite) TestCurrentUser_InvalidToken() {
	suite.mockUserSvc.On("AuthenticateAccessToken", mock.Anything, "expired").
		Return(nil, apperrors.Unauthorized("Invalid access token", apperrors.ErrInvalidToken)).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	req.Header.Set("Authorization", "Bearer expired")
	w := suite.serve(req)

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.Equal("Invalid access token", suite.decodeError(w).Message)
}

// --- Change password ---
func (suite *UserHandlerTestSuite) TestChangePassword() {
	req := dto.ChangePasswordRequest{OldPassword: "wonderland", NewPassword: "looking-glass"}
	suite.mockUserSvc.On("ChangePassword", mock.Anything, "u-1", req).Return(nil).Once()

	w := suite.serve(suite.authed(suite.jsonRequest(http.MethodPost, "/api/v1/users/change-password", req)))

	suite.Equal(http.StatusOK, w.Code)
	suite.mockUserSvc.AssertExpectations(suite.T())
}

func (suite *UserHandlerTestSuite) TestChangePassword_WrongOld() {
	suite.mockUserSvc.On("ChangePassword", mock.Anything, "u-1", mock.Anything).
		Return(apperrors.Unauthorized("Invalid old password", nil)).Once()

	w := suite.serve(suite.authed(suite.jsonRequest(http.MethodPost, "/api/v1/users/change-password",
		dto.ChangePasswordRequest{OldPassword: "x", NewPassword: "y"})))

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.Equal("Invalid old password", suite.decodeError(w).Message)
}

// --- Update account ---
func (suite *UserHandlerTestSuite) TestUpdateAccount() {
	updated := *suite.alice
	updated.FullName = "Alice L."
	suite.mockUserSvc.On("UpdateAccountDetails", mock.Anything, "u-1", mock.MatchedBy(func(req dto.UpdateAccountRequest) bool {
		return req.FullName != nil && *req.FullName == "Alice L." && req.Email == nil
	})).Return(&updated, nil).Once()

	w := suite.serve(suite.authed(suite.jsonRequest(http.MethodPatch, "/api/v1/users/update-account",
		map[string]string{"fullName": "Alice L."})))

	suite.Equal(http.StatusOK, w.Code)
	var profile domain.UserProfile
	suite.decodeSuccess(w, &profile)
	suite.Equal("Alice L.", profile.FullName)
}

func (suite *UserHandlerTestSuite) TestUpdateAccount_InvalidEmail() {
	w := suite.serve(suite.authed(suite.jsonRequest(http.MethodPatch, "/api/v1/users/update-account",
		map[string]string{"email": "nope"})))

	suite.Equal(http.StatusBadRequest, w.Code)
	env := suite.decodeError(w)
	suite.Require().Len(env.Errors, 1)
	suite.Contains(env.Errors[0], "Email")
}

// --- Images ---
func (suite *UserHandlerTestSuite) TestUpdateAvatar() {
	updated := *suite.alice
	updated.AvatarURL = "https://cdn.test/new.png"
	suite.mockUserSvc.On("UpdateAvatar", mock.Anything, "u-1", mock.AnythingOfType("string")).Return(&updated, nil).Once()

	w := suite.serve(suite.authed(multipartRequest(http.MethodPatch, "/api/v1/users/avatar", nil,
		map[string][]byte{"avatar": []byte("img")})))

	suite.Equal(http.StatusOK, w.Code)
	var profile domain.UserProfile
	suite.decodeSuccess(w, &profile)
	suite.Equal("https://cdn.test/new.png", profile.AvatarURL)
}

func (suite *UserHandlerTestSuite) TestUpdateCoverImage_UpstreamFailure() {
	suite.mockUserSvc.On("UpdateCoverImage", mock.Anything, "u-1", mock.AnythingOfType("string")).
		Return(nil, apperrors.Upstream("Error while uploading cover image", nil)).Once()

	w := suite.serve(suite.authed(multipartRequest(http.MethodPatch, "/api/v1/users/cover-image", nil,
		map[string][]byte{"coverImage": []byte("img")})))

	suite.Equal(http.StatusBadGateway, w.Code)
	suite.Equal("Error while uploading cover image", suite.decodeError(w).Message)
}

func (suite *UserHandlerTestSuite) TestUpdateAvatar_MissingFilePassesEmptyPath() {
	suite.mockUserSvc.On("UpdateAvatar", mock.Anything, "u-1", "").
		Return(nil, apperrors.InvalidInput("Avatar file is missing")).Once()

	w := suite.serve(suite.authed(multipartRequest(http.MethodPatch, "/api/v1/users/avatar", nil, nil)))

	suite.Equal(http.StatusBadRequest, w.Code)
}

// --- Run Test Suite ---
func TestUserHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(UserHandlerTestSuite))
}
