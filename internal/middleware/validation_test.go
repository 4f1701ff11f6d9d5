package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "optionrank/internal/errors"
	"optionrank/pkg/contracts/domain"
)

func TestValidateRequest(t *testing.T) {
	m := NewValidationMiddleware(nil, apierrors.NewErrorHandler(nil, false), 64)

	var received string
	h := m.ValidateRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := new(strings.Builder)
		_, _ = buf.ReadFrom(r.Body)
		received = buf.String()
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		method     string
		body       string
		wantStatus int
	}{
		{"valid json passes through", http.MethodPost, `{"symbol":"XYZ"}`, http.StatusOK},
		{"malformed json", http.MethodPost, `{"symbol":`, http.StatusBadRequest},
		{"too large", http.MethodPost, `{"symbol":"` + strings.Repeat("A", 100) + `"}`, http.StatusRequestEntityTooLarge},
		{"get skips checks", http.MethodGet, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			received = ""
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(tt.method, "/score", strings.NewReader(tt.body)))

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.body, received)
			}
		})
	}
}

type scoreQuery struct {
	Symbol    string  `json:"symbol" validate:"required,symbol"`
	Direction string  `json:"direction" validate:"required,direction"`
	Limit     int     `json:"limit" validate:"gte=0,lte=500"`
	Spread    float64 `json:"max_spread" validate:"gte=0"`
}

func TestValidateStruct(t *testing.T) {
	m := NewValidationMiddleware(nil, apierrors.NewErrorHandler(nil, false), 0)

	require.NoError(t, m.ValidateStruct(scoreQuery{Symbol: "BRK.B", Direction: "sell-put", Limit: 10}))

	err := m.ValidateStruct(scoreQuery{Symbol: "xyz!", Direction: "sideways", Limit: 900, Spread: -1})
	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	details, ok := apiErr.Details.(apierrors.ValidationErrors)
	require.True(t, ok)
	fields := map[string]string{}
	for _, fe := range details.Errors {
		fields[fe.Field] = fe.Message
	}
	assert.Equal(t, "symbol must be a valid ticker symbol", fields["symbol"])
	assert.Equal(t, "direction must be one of: sell-put, sell-call, buy-put, buy-call", fields["direction"])
	assert.Equal(t, "limit must be less than or equal to 500", fields["limit"])
	assert.Equal(t, "max_spread must be greater than or equal to 0", fields["max_spread"])
}

func TestSymbolTag(t *testing.T) {
	v := NewValidator()
	type req struct {
		Symbol string `json:"symbol" validate:"symbol"`
	}
	for s, want := range map[string]bool{
		"XYZ":         true,
		"BRK.B":       true,
		"BF-B":        true,
		"":            false,
		"xyz":         false,
		"TOOLONGNAME": false,
		"../etc":      false,
	} {
		assert.Equal(t, want, v.Struct(req{Symbol: s}) == nil, s)
	}
}

func TestContentTypeValidator(t *testing.T) {
	h := ContentTypeValidator("application/json")(http.HandlerFunc(okHandler))

	tests := []struct {
		name        string
		method      string
		contentType string
		wantStatus  int
	}{
		{"json", http.MethodPost, "application/json; charset=utf-8", http.StatusOK},
		{"missing", http.MethodPost, "", http.StatusUnsupportedMediaType},
		{"form", http.MethodPost, "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"get ignored", http.MethodGet, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, "/", strings.NewReader("{}"))
			if tt.contentType != "" {
				r.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestQueryParamValidator(t *testing.T) {
	v := NewQueryParamValidator(nil, apierrors.NewErrorHandler(nil, false))

	t.Run("direction", func(t *testing.T) {
		w := httptest.NewRecorder()
		d, ok := v.ValidateDirection(w, httptest.NewRequest(http.MethodGet, "/?direction=BUY-CALL", nil), "direction", domain.DirectionSellPut)
		assert.True(t, ok)
		assert.Equal(t, domain.DirectionBuyCall, d)

		d, ok = v.ValidateDirection(w, httptest.NewRequest(http.MethodGet, "/", nil), "direction", domain.DirectionSellPut)
		assert.True(t, ok)
		assert.Equal(t, domain.DirectionSellPut, d)

		w = httptest.NewRecorder()
		_, ok = v.ValidateDirection(w, httptest.NewRequest(http.MethodGet, "/?direction=long", nil), "direction", domain.DirectionSellPut)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, apierrors.TypeInvalidDirection, body["type"])
	})

	t.Run("int bounds", func(t *testing.T) {
		w := httptest.NewRecorder()
		n, ok := v.ValidateInt(w, httptest.NewRequest(http.MethodGet, "/?limit=25", nil), "limit", 0, 100, 10)
		assert.True(t, ok)
		assert.Equal(t, 25, n)

		w = httptest.NewRecorder()
		_, ok = v.ValidateInt(w, httptest.NewRequest(http.MethodGet, "/?limit=abc", nil), "limit", 0, 100, 10)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("float and enum", func(t *testing.T) {
		w := httptest.NewRecorder()
		f, ok := v.ValidateFloat(w, httptest.NewRequest(http.MethodGet, "/?max_spread=0.25", nil), "max_spread", 10)
		assert.True(t, ok)
		assert.Equal(t, 0.25, f)

		s, ok := v.ValidateEnum(w, httptest.NewRequest(http.MethodGet, "/?premium_basis=SHARE", nil), "premium_basis", []string{"contract", "share"}, "contract")
		assert.True(t, ok)
		assert.Equal(t, "share", s)
	})
}
