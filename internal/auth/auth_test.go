package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/arsipsurat/internal/models"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestIssueAndParseToken(t *testing.T) {
	a := New(testKey, time.Hour)

	token, err := a.IssueToken(&models.User{ID: 7, Username: "admin", Role: models.RoleAdmin})
	require.NoError(t, err)

	claims, err := a.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestParseTokenRejects(t *testing.T) {
	a := New(testKey, time.Hour)

	expired := New(testKey, time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, err := expired.IssueToken(&models.User{ID: 1, Username: "u", Role: models.RoleUser})
	require.NoError(t, err)

	foreign := New([]byte("another-key-another-key-another!!"), time.Hour)
	foreignToken, err := foreign.IssueToken(&models.User{ID: 1, Username: "u", Role: models.RoleUser})
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	testCases := map[string]string{
		"expired":        expiredToken,
		"wrong key":      foreignToken,
		"none algorithm": noneToken,
		"garbage":        "not-a-token",
	}
	for name, token := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := a.ParseToken(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestAuthenticateUser(t *testing.T) {
	a := New(testKey, time.Hour)
	token, err := a.IssueToken(&models.User{ID: 3, Username: "operator", Role: models.RoleUser})
	require.NoError(t, err)

	var seen *Claims
	protected := a.AuthenticateUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	type tTestCase struct {
		name         string
		header       string
		expectedCode int
	}
	testCases := []tTestCase{
		{name: "valid bearer", header: "Bearer " + token, expectedCode: http.StatusNoContent},
		{name: "lowercase scheme", header: "bearer " + token, expectedCode: http.StatusNoContent},
		{name: "no header", header: "", expectedCode: http.StatusUnauthorized},
		{name: "no scheme", header: token, expectedCode: http.StatusUnauthorized},
		{name: "tampered", header: "Bearer " + token + "x", expectedCode: http.StatusUnauthorized},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/api/surat", nil)
			if testCase.header != "" {
				req.Header.Set("Authorization", testCase.header)
			}
			rec := httptest.NewRecorder()

			protected.ServeHTTP(rec, req)

			assert.Equal(t, testCase.expectedCode, rec.Code)
			if testCase.expectedCode == http.StatusNoContent {
				require.NotNil(t, seen)
				assert.Equal(t, "operator", seen.Username)
			} else {
				assert.Nil(t, seen)
				assert.Contains(t, rec.Body.String(), `"message"`)
			}
		})
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("admin123")
	require.NoError(t, err)

	assert.NotEqual(t, "admin123", hash)
	assert.True(t, ComparePassword(hash, "admin123"))
	assert.False(t, ComparePassword(hash, "admin124"))

	other, err := HashPassword("admin123")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "hashes must be salted")
}
