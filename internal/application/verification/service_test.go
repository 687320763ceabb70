package verification

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/doc-courier/internal/domain"
	"github.com/doc-courier/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockRecordStore struct{ mock.Mock }

func (m *mockRecordStore) GetByEmail(ctx context.Context, email string) (*domain.Record, error) {
	args := m.Called(ctx, email)
	if r, _ := args.Get(0).(*domain.Record); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockObjectStore struct{ mock.Mock }

func (m *mockObjectStore) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if rc, _ := args.Get(0).(io.ReadCloser); rc != nil {
		return rc, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(ctx context.Context, to, subject, body string) error {
	return m.Called(ctx, to, subject, body).Error(0)
}
func (m *mockMailer) SendEmailWithAttachment(ctx context.Context, to, subject, body string, att domain.Attachment) error {
	return m.Called(ctx, to, subject, body, att).Error(0)
}

type mockAlerts struct{ mock.Mock }

func (m *mockAlerts) Publish(ctx context.Context, subject, message string) error {
	return m.Called(ctx, subject, message).Error(0)
}

// --- builder ---

func newTestService(l *ledger.Ledger, rs RecordStore, os ObjectStore, ml Mailer, al AlertPublisher) Service {
	return NewService(ServiceDeps{
		Ledger:      l,
		Records:     rs,
		Objects:     os,
		Mailer:      ml,
		Alerts:      al,
		CodeTTL:     10 * time.Minute,
		MailTimeout: 5 * time.Second,
	})
}

var codeRe = regexp.MustCompile(`\b(\d{6})\b`)

// issuedCode captures the code the service put in the outbound email body.
func issuedCode(t *testing.T, body string) string {
	t.Helper()
	m := codeRe.FindStringSubmatch(body)
	require.NotNil(t, m, "email body carries no 6-digit code: %q", body)
	return m[1]
}

// --- RequestCode ---

func TestRequestCode_InvalidEmail_ReturnsBadRequest(t *testing.T) {
	l := ledger.New(10 * time.Minute)
	ml := &mockMailer{}

	svc := newTestService(l, nil, nil, ml, nil)
	err := svc.RequestCode(context.Background(), RequestCodeRequest{Email: "not-an-email"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	ml.AssertNotCalled(t, "SendEmail")
}

func TestRequestCode_HappyPath_CodeLandsInLedgerAndMail(t *testing.T) {
	l := ledger.New(10 * time.Minute)
	ml := &mockMailer{}

	var body string
	ml.On("SendEmail", mock.Anything, "user@example.com", "Your verification code",
		mock.MatchedBy(func(b string) bool { body = b; return true })).Return(nil)

	svc := newTestService(l, nil, nil, ml, nil)
	// Mixed case in, lowercased key and recipient out.
	err := svc.RequestCode(context.Background(), RequestCodeRequest{Email: "User@Example.COM"})

	require.NoError(t, err)
	ml.AssertExpectations(t)
	code := issuedCode(t, body)
	assert.True(t, l.Check("user@example.com", code))
	assert.Contains(t, body, "expires in 10 minutes")
}

func TestRequestCode_DeliveryFailure_EntryNotRolledBack(t *testing.T) {
	l := ledger.New(10 * time.Minute)
	ml := &mockMailer{}
	al := &mockAlerts{}

	var body string
	ml.On("SendEmail", mock.Anything, "a@b.com", mock.Anything,
		mock.MatchedBy(func(b string) bool { body = b; return true })).Return(errors.New("smtp: 451"))
	al.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(l, nil, nil, ml, al)
	err := svc.RequestCode(context.Background(), RequestCodeRequest{Email: "a@b.com"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDelivery))
	// The undelivered code stays pending until overwritten or expired.
	assert.True(t, l.Check("a@b.com", issuedCode(t, body)))
	al.AssertExpectations(t)
}

// --- RedeemCode ---

func TestRedeemCode_MalformedInput_NeverTouchesLedger(t *testing.T) {
	l := ledger.New(10 * time.Minute)
	code, err := l.Issue("a@b.com")
	require.NoError(t, err)

	svc := newTestService(l, nil, nil, nil, nil)

	for _, req := range []RedeemCodeRequest{
		{Email: "not-an-email", Code: code},
		{Email: "a@b.com", Code: "12345"},
		{Email: "a@b.com", Code: "12a456"},
		{Email: "a@b.com", Code: ""},
	} {
		err := svc.RedeemCode(context.Background(), req)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrBadRequest), "req %+v", req)
	}

	// The pending code survived every rejected attempt.
	assert.True(t, l.Check("a@b.com", code))
}

func TestRedeemCode_NoPendingCode_ReturnsInvalidCode(t *testing.T) {
	l := ledger.New(10 * time.Minute)
	svc := newTestService(l, nil, nil, nil, nil)

	err := svc.RedeemCode(context.Background(), RedeemCodeRequest{Email: "a@b.com", Code: "123456"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidCode))
}

func TestRedeemCode_HappyPath_SingleUse(t *testing.T) {
	l := ledger.New(10 * time.Minute)
	rs := &mockRecordStore{}
	os := &mockObjectStore{}
	ml := &mockMailer{}

	code, err := l.Issue("user@example.com")
	require.NoError(t, err)

	rs.On("GetByEmail", mock.Anything, "user@example.com").Return(&domain.Record{
		Email:    "user@example.com",
		DocKey:   "documents/01HXA.pdf",
		Filename: "report.pdf",
		MimeType: "application/pdf",
	}, nil)
	os.On("Download", mock.Anything, "documents/01HXA.pdf").
		Return(io.NopCloser(strings.NewReader("%PDF-1.7")), nil)
	ml.On("SendEmailWithAttachment", mock.Anything, "user@example.com", "Your requested document",
		mock.Anything, mock.MatchedBy(func(att domain.Attachment) bool {
			return att.Filename == "report.pdf" && att.MimeType == "application/pdf"
		})).Return(nil)

	svc := newTestService(l, rs, os, ml, nil)
	require.NoError(t, svc.RedeemCode(context.Background(), RedeemCodeRequest{Email: "User@example.com", Code: code}))
	rs.AssertExpectations(t)
	os.AssertExpectations(t)
	ml.AssertExpectations(t)

	// Same code a second time is gone.
	err = svc.RedeemCode(context.Background(), RedeemCodeRequest{Email: "user@example.com", Code: code})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidCode))
}

func TestRedeemCode_ReissueInvalidatesPriorCode(t *testing.T) {
	l := ledger.New(10 * time.Minute)
	first, err := l.Issue("a@b.com")
	require.NoError(t, err)
	second, err := l.Issue("a@b.com")
	require.NoError(t, err)

	svc := newTestService(l, nil, nil, nil, nil)
	if first != second {
		err := svc.RedeemCode(context.Background(), RedeemCodeRequest{Email: "a@b.com", Code: first})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidCode))
	}
	assert.True(t, l.Check("a@b.com", second))
}

func TestRedeemCode_NoRecord_CodeStillConsumed(t *testing.T) {
	l := ledger.New(10 * time.Minute)
	rs := &mockRecordStore{}

	code, err := l.Issue("a@b.com")
	require.NoError(t, err)
	rs.On("GetByEmail", mock.Anything, "a@b.com").Return(nil, domain.ErrNotFound)

	svc := newTestService(l, rs, nil, nil, nil)
	err = svc.RedeemCode(context.Background(), RedeemCodeRequest{Email: "a@b.com", Code: code})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.False(t, l.Check("a@b.com", code))
}

func TestRedeemCode_RecordWithoutPayload_CodeStillConsumed(t *testing.T) {
	l := ledger.New(10 * time.Minute)
	rs := &mockRecordStore{}

	code, err := l.Issue("a@b.com")
	require.NoError(t, err)
	rs.On("GetByEmail", mock.Anything, "a@b.com").Return(&domain.Record{Email: "a@b.com"}, nil)

	svc := newTestService(l, rs, nil, nil, nil)
	err = svc.RedeemCode(context.Background(), RedeemCodeRequest{Email: "a@b.com", Code: code})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoDocument))
	assert.False(t, l.Check("a@b.com", code))
}

func TestRedeemCode_DanglingDocKey_ReturnsNoDocument(t *testing.T) {
	l := ledger.New(10 * time.Minute)
	rs := &mockRecordStore{}
	os := &mockObjectStore{}

	code, err := l.Issue("a@b.com")
	require.NoError(t, err)
	rs.On("GetByEmail", mock.Anything, "a@b.com").Return(&domain.Record{
		Email: "a@b.com", DocKey: "documents/gone.pdf",
	}, nil)
	os.On("Download", mock.Anything, "documents/gone.pdf").Return(nil, errors.New("NoSuchKey"))

	svc := newTestService(l, rs, os, nil, nil)
	err = svc.RedeemCode(context.Background(), RedeemCodeRequest{Email: "a@b.com", Code: code})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoDocument))
}

func TestRedeemCode_AttachmentDefaults(t *testing.T) {
	l := ledger.New(10 * time.Minute)
	rs := &mockRecordStore{}
	os := &mockObjectStore{}
	ml := &mockMailer{}

	code, err := l.Issue("a@b.com")
	require.NoError(t, err)
	rs.On("GetByEmail", mock.Anything, "a@b.com").Return(&domain.Record{
		Email: "a@b.com", DocKey: "documents/k",
	}, nil)
	os.On("Download", mock.Anything, "documents/k").
		Return(io.NopCloser(strings.NewReader("%PDF-1.7")), nil)
	ml.On("SendEmailWithAttachment", mock.Anything, "a@b.com", mock.Anything, mock.Anything,
		mock.MatchedBy(func(att domain.Attachment) bool {
			return att.Filename == domain.DefaultFilename && att.MimeType == domain.DefaultMimeType
		})).Return(nil)

	svc := newTestService(l, rs, os, ml, nil)
	require.NoError(t, svc.RedeemCode(context.Background(), RedeemCodeRequest{Email: "a@b.com", Code: code}))
	ml.AssertExpectations(t)
}

func TestRedeemCode_DeliveryFailure_CodeRemainsConsumed(t *testing.T) {
	l := ledger.New(10 * time.Minute)
	rs := &mockRecordStore{}
	os := &mockObjectStore{}
	ml := &mockMailer{}
	al := &mockAlerts{}

	code, err := l.Issue("a@b.com")
	require.NoError(t, err)
	rs.On("GetByEmail", mock.Anything, "a@b.com").Return(&domain.Record{
		Email: "a@b.com", DocKey: "documents/k", Filename: "r.pdf", MimeType: "application/pdf",
	}, nil)
	os.On("Download", mock.Anything, "documents/k").
		Return(io.NopCloser(strings.NewReader("%PDF-1.7")), nil)
	ml.On("SendEmailWithAttachment", mock.Anything, "a@b.com", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("smtp: connection reset"))
	al.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(l, rs, os, ml, al)
	err = svc.RedeemCode(context.Background(), RedeemCodeRequest{Email: "a@b.com", Code: code})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDelivery))
	// Not restored: the user has to request a fresh code.
	assert.False(t, l.Check("a@b.com", code))
	al.AssertExpectations(t)
}
