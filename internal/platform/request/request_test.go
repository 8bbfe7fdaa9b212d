// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package requestutil_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/bizcore/internal/platform/apperr"
	"github.com/taibuivan/bizcore/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/bizcore/internal/platform/request"
	"github.com/taibuivan/bizcore/internal/platform/sec"
	"github.com/taibuivan/bizcore/internal/platform/validate"
)

/*
TestDecodeJSON accepts a single object and rejects anything else.
*/
func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"object", `{"email":"owner@acme.test"}`, false},
		{"trailing_newline", "{\"email\":\"owner@acme.test\"}\n", false},
		{"malformed", `{"email":`, true},
		{"two_values", `{"email":"a@acme.test"}{"email":"b@acme.test"}`, true},
		{"oversized", `{"email":"` + strings.Repeat("a", 70<<10) + `"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var target struct {
				Email string `json:"email"`
			}
			request := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))

			err := requestutil.DecodeJSON(request, &target)
			if tt.wantErr {
				assert.ErrorIs(t, err, validate.ErrInvalidJSON)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "owner@acme.test", target.Email)
		})
	}
}

/*
TestRequiredClaims surfaces the recorded bearer failure before the generic one.
*/
func TestRequiredClaims(t *testing.T) {
	request := httptest.NewRequest("GET", "/", nil)
	_, err := requestutil.RequiredClaims(request)
	assert.True(t, apperr.HasCode(err, "UNAUTHORIZED"))

	expired := request.WithContext(ctxutil.WithAuthFailure(request.Context(), apperr.TokenExpired()))
	_, err = requestutil.RequiredUserID(expired)
	assert.True(t, apperr.HasCode(err, "TOKEN_EXPIRED"))

	authed := request.WithContext(ctxutil.WithAuthUser(request.Context(), &sec.AuthClaims{UserID: "u1"}))
	userID, err := requestutil.RequiredUserID(authed)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
}
