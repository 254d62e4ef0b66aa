package authgin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/rajeshkumar-okta/courtedge-ai-demo/gate"
	authtest "github.com/rajeshkumar-okta/courtedge-ai-demo/testing"
)

func protectedRouter(v *gate.Validator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", AuthRequired(v), func(c *gin.Context) {
		user, _ := CurrentUser(c)
		c.JSON(http.StatusOK, user)
	})
	r.GET("/optional", AuthOptional(v), func(c *gin.Context) {
		user, _ := CurrentUser(c)
		c.JSON(http.StatusOK, user)
	})
	return r
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func TestAuthRequiredMissingHeader(t *testing.T) {
	v := gate.New(gate.ModeVerified, "https://acme.okta.com/oauth2/default", "api://default")
	r := protectedRouter(v)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "missing_authorization", errorBody(t, w))
}

func TestAuthRequiredInvalidToken(t *testing.T) {
	issuer := authtest.NewIssuer()
	defer issuer.Close()
	v := gate.New(gate.ModeVerified, issuer.URL(), issuer.Audience())
	r := protectedRouter(v)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "invalid_token", errorBody(t, w))
}

func TestAuthRequiredVerifiedToken(t *testing.T) {
	issuer := authtest.NewIssuer()
	defer issuer.Close()
	v := gate.New(gate.ModeVerified, issuer.URL(), issuer.Audience())
	r := protectedRouter(v)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+issuer.CreateToken("user-5", "u5@example.com"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var user UserView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	require.Equal(t, "user-5", user.UserID)
	require.Equal(t, "verified", user.Source)
}

func TestAuthRequiredOpenModeAnonymous(t *testing.T) {
	v := gate.New(gate.ModeOpen, "", "")
	r := protectedRouter(v)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var user UserView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	require.Empty(t, user.UserID)
	require.Equal(t, "none", user.Source)
}

func TestAuthOptionalSkipsMissingHeader(t *testing.T) {
	issuer := authtest.NewIssuer()
	defer issuer.Close()
	v := gate.New(gate.ModeVerified, issuer.URL(), issuer.Audience())
	r := protectedRouter(v)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/optional", nil))
	require.Equal(t, http.StatusOK, w.Code)

	// A present but bad token is still rejected.
	req := httptest.NewRequest(http.MethodGet, "/optional", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "invalid_token", errorBody(t, w))
}

func TestRawTokenExposed(t *testing.T) {
	v := gate.New(gate.ModeDemoBypass, "https://acme.okta.com/oauth2/default", "api://default")
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/t", AuthRequired(v), func(c *gin.Context) {
		c.String(http.StatusOK, RawToken(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/t", nil)
	req.Header.Set("Authorization", "Bearer demo-token-xyz")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "demo-token-xyz", w.Body.String())
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:3000"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:3000"}))

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
}
