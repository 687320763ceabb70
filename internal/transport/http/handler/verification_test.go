package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/doc-courier/internal/application/verification"
	"github.com/doc-courier/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockService struct{ mock.Mock }

func (m *mockService) RequestCode(ctx context.Context, req verification.RequestCodeRequest) error {
	return m.Called(ctx, req).Error(0)
}
func (m *mockService) RedeemCode(ctx context.Context, req verification.RedeemCodeRequest) error {
	return m.Called(ctx, req).Error(0)
}

func doPost(t *testing.T, h http.HandlerFunc, body string) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestSendCode_Success(t *testing.T) {
	svc := &mockService{}
	svc.On("RequestCode", mock.Anything, verification.RequestCodeRequest{Email: "a@b.com"}).Return(nil)

	h := NewVerificationHandler(svc)
	rec, env := doPost(t, h.SendCode, `{"email":"a@b.com"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.OK)
	assert.Equal(t, "We sent you a 6-digit code.", env.Message)
	svc.AssertExpectations(t)
}

func TestSendCode_InvalidBody(t *testing.T) {
	h := NewVerificationHandler(&mockService{})
	rec, env := doPost(t, h.SendCode, `{not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.OK)
}

func TestSendCode_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", domain.ErrBadRequest, http.StatusBadRequest},
		{"delivery", domain.ErrDelivery, http.StatusBadGateway},
		{"unexpected", context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockService{}
			svc.On("RequestCode", mock.Anything, mock.Anything).Return(tc.err)

			h := NewVerificationHandler(svc)
			rec, env := doPost(t, h.SendCode, `{"email":"a@b.com"}`)

			assert.Equal(t, tc.status, rec.Code)
			assert.False(t, env.OK)
		})
	}
}

func TestVerifyAndSend_Success(t *testing.T) {
	svc := &mockService{}
	svc.On("RedeemCode", mock.Anything, verification.RedeemCodeRequest{Email: "a@b.com", Code: "483920"}).Return(nil)

	h := NewVerificationHandler(svc)
	rec, env := doPost(t, h.VerifyAndSend, `{"email":"a@b.com","code":"483920"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.OK)
	assert.Equal(t, "Document sent! Check your inbox.", env.Message)
	svc.AssertExpectations(t)
}

func TestVerifyAndSend_ErrorMapping(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"invalid code", domain.ErrInvalidCode, http.StatusBadRequest, "Invalid or expired code."},
		{"user not found", domain.ErrNotFound, http.StatusNotFound, "No user for this email."},
		{"no document", domain.ErrNoDocument, http.StatusNotFound, "No document stored for this user."},
		{"delivery", domain.ErrDelivery, http.StatusBadGateway, "Could not send email."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockService{}
			svc.On("RedeemCode", mock.Anything, mock.Anything).Return(tc.err)

			h := NewVerificationHandler(svc)
			rec, env := doPost(t, h.VerifyAndSend, `{"email":"a@b.com","code":"111111"}`)

			assert.Equal(t, tc.status, rec.Code)
			assert.False(t, env.OK)
			assert.Equal(t, tc.message, env.Message)
		})
	}
}
