package httpkit

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"repair_backend/platform/apperr"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type testJWTConfig struct{}

func (testJWTConfig) GetJWTAccessSecret() string { return "test-secret" }

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newAuthEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/me", AuthRequired(testJWTConfig{}, nil), func(c *gin.Context) {
		id := MustGetIdentity(c)
		if id == nil {
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":         id.UserID().String(),
			"email":      id.Email(),
			"technician": id.HasRole(RoleTechnician),
		})
	})
	return engine
}

func TestAuthRequiredAcceptsValidAccessToken(t *testing.T) {
	userID := uuid.New()
	token := signToken(t, jwt.MapClaims{
		"sub":   userID.String(),
		"type":  "access",
		"email": "customer@example.com",
		"roles": []string{RoleTechnician},
		"exp":   time.Now().Add(time.Hour).Unix(),
	}, "test-secret")

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	newAuthEngine().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["id"] != userID.String() || body["email"] != "customer@example.com" || body["technician"] != true {
		t.Fatalf("unexpected identity %v", body)
	}
}

func TestAuthRequiredRejectsBadTokens(t *testing.T) {
	cases := map[string]string{
		"missing":      "",
		"wrong secret": "Bearer " + signToken(t, jwt.MapClaims{"sub": uuid.NewString(), "type": "access"}, "other"),
		"refresh type": "Bearer " + signToken(t, jwt.MapClaims{"sub": uuid.NewString(), "type": "refresh"}, "test-secret"),
		"bad subject":  "Bearer " + signToken(t, jwt.MapClaims{"sub": "nope", "type": "access"}, "test-secret"),
	}

	for name, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		newAuthEngine().ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", name, rec.Code)
		}
	}
}

func TestHandleErrorMapsKinds(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err  error
		want int
	}{
		{apperr.NotFound("repair request not found"), http.StatusNotFound},
		{apperr.Conflict("slot taken"), http.StatusConflict},
		{apperr.InvalidState("too close to appointment"), http.StatusUnprocessableEntity},
		{apperr.Unauthorized("not your appointment"), http.StatusForbidden},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		if !HandleError(c, tc.err) {
			t.Fatalf("HandleError(%v) returned false", tc.err)
		}
		if rec.Code != tc.want {
			t.Errorf("HandleError(%v) status = %d, want %d", tc.err, rec.Code, tc.want)
		}
	}
}

func TestHandleErrorHidesInfrastructureDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	HandleError(c, errors.New("dial tcp 10.0.0.5:5432: connection refused"))

	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != msgInternalError {
		t.Fatalf("leaked error message %q", body.Error)
	}
	if len(c.Errors) != 1 {
		t.Fatalf("expected error recorded on context, got %d", len(c.Errors))
	}
}

func TestHandleErrorIncludesKindCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	HandleError(c, fmt.Errorf("schedule: %w", apperr.Conflict("slot taken")))

	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Code != http.StatusConflict || body.Code != "conflict" || body.Error != "slot taken" {
		t.Fatalf("unexpected response %d %+v", rec.Code, body)
	}
}

func TestRequireRoleWithoutCaller(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/admin", RequireRole(RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}
