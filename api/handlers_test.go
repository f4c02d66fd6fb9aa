package api

import (
	"bytes"
	"context"
	"courier/auth"
	"courier/domain"
	courerrors "courier/errors"
	"courier/services"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type stubAuthService struct {
	token services.Token
	user  domain.User
	err   error
}

func (s *stubAuthService) Register(username, email, password string) (services.Token, domain.User, error) {
	return s.token, s.user, s.err
}

func (s *stubAuthService) Login(email, password string) (services.Token, domain.User, error) {
	return s.token, s.user, s.err
}

type stubDeliveryService struct {
	record  domain.ConfirmedMessage
	records []domain.ConfirmedMessage
	users   []domain.User
	err     error

	lastSender   uuid.UUID
	lastReceiver string
	lastContent  string
	lastTerms    string
}

func (s *stubDeliveryService) Send(ctx context.Context, senderID uuid.UUID, receiverID, content string) (domain.ConfirmedMessage, error) {
	s.lastSender, s.lastReceiver, s.lastContent = senderID, receiverID, content
	return s.record, s.err
}

func (s *stubDeliveryService) History(ctx context.Context, userID uuid.UUID, otherID string) ([]domain.ConfirmedMessage, error) {
	return s.records, s.err
}

func (s *stubDeliveryService) Search(ctx context.Context, userID uuid.UUID, terms string) ([]domain.ConfirmedMessage, error) {
	s.lastTerms = terms
	return s.records, s.err
}

func (s *stubDeliveryService) ListUsers(userID uuid.UUID) ([]domain.User, error) {
	return s.users, s.err
}

type apiFixture struct {
	tokens   *auth.TokenManager
	authSvc  *stubAuthService
	delivery *stubDeliveryService
	router   http.Handler
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	f := &apiFixture{
		tokens:   auth.NewTokenManager("api-test-secret", time.Hour),
		authSvc:  &stubAuthService{},
		delivery: &stubDeliveryService{},
	}
	handler := NewHandler(slog.Default(), f.authSvc, f.delivery)
	channels := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	f.router = NewRouter(handler, f.tokens, channels)
	return f
}

func (f *apiFixture) bearer(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, err := f.tokens.Issue(userID)
	require.NoError(t, err)
	return "Bearer " + token
}

func doJSON(f *apiFixture, method, path, authHeader string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	r := httptest.NewRequest(method, path, &buf)
	if authHeader != "" {
		r.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, r)
	return w
}

func TestAPI_Register(t *testing.T) {
	t.Run("created with credentials", func(t *testing.T) {
		req := require.New(t)
		f := newAPIFixture(t)
		f.authSvc.token = "issued-token"
		f.authSvc.user = domain.User{ID: uuid.New(), Username: "alice"}

		w := doJSON(f, http.MethodPost, "/auth/register", "", map[string]string{
			"username": "alice", "email": "alice@example.com", "password": "Sup3r-Secret!",
		})

		req.Equal(http.StatusCreated, w.Code)
		var reply struct {
			Token  string `json:"token"`
			UserID string `json:"userId"`
		}
		req.NoError(json.Unmarshal(w.Body.Bytes(), &reply))
		req.Equal("issued-token", reply.Token)
		req.Equal(f.authSvc.user.ID.String(), reply.UserID)
	})

	t.Run("duplicate account maps to conflict", func(t *testing.T) {
		req := require.New(t)
		f := newAPIFixture(t)
		f.authSvc.err = courerrors.ErrUserAlreadyExists

		w := doJSON(f, http.MethodPost, "/auth/register", "", map[string]string{
			"username": "alice", "email": "alice@example.com", "password": "Sup3r-Secret!",
		})

		req.Equal(http.StatusConflict, w.Code)
		req.Contains(w.Body.String(), "USER_ALREADY_EXISTS")
	})
}

func TestAPI_Login_InvalidCredentials(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)
	f.authSvc.err = courerrors.ErrInvalidCredentials

	w := doJSON(f, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong",
	})

	req.Equal(http.StatusUnauthorized, w.Code)
	req.Contains(w.Body.String(), "INVALID_CREDENTIALS")
}

func TestAPI_ProtectedRoutesRequireToken(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/messages"},
		{http.MethodGet, "/messages/chat/" + uuid.NewString()},
		{http.MethodGet, "/messages/search?q=report"},
		{http.MethodGet, "/users"},
	} {
		w := doJSON(f, tc.method, tc.path, "", nil)
		req.Equal(http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestAPI_SendMessage(t *testing.T) {
	t.Run("created with the confirmed record", func(t *testing.T) {
		req := require.New(t)
		f := newAPIFixture(t)
		senderID := uuid.New()
		f.delivery.record = domain.ConfirmedMessage{
			ID:      uuid.New(),
			Content: "hello",
		}

		w := doJSON(f, http.MethodPost, "/messages", f.bearer(t, senderID), map[string]string{
			"receiverId": uuid.NewString(), "content": "hello",
		})

		req.Equal(http.StatusCreated, w.Code)
		req.Equal(senderID, f.delivery.lastSender)
		req.Equal("hello", f.delivery.lastContent)

		var reply struct {
			Message domain.ConfirmedMessage `json:"message"`
		}
		req.NoError(json.Unmarshal(w.Body.Bytes(), &reply))
		req.Equal(f.delivery.record.ID, reply.Message.ID)
	})

	t.Run("pipeline rejection maps to a coded error", func(t *testing.T) {
		req := require.New(t)
		f := newAPIFixture(t)
		f.delivery.err = courerrors.ErrSelfMessage

		w := doJSON(f, http.MethodPost, "/messages", f.bearer(t, uuid.New()), map[string]string{
			"receiverId": uuid.NewString(), "content": "hi me",
		})

		req.Equal(http.StatusBadRequest, w.Code)
		req.Contains(w.Body.String(), "SELF_MESSAGE")
	})
}

func TestAPI_ChatHistory_EmptyIsAnArray(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	w := doJSON(f, http.MethodGet, "/messages/chat/"+uuid.NewString(), f.bearer(t, uuid.New()), nil)

	req.Equal(http.StatusOK, w.Code)
	// Clients iterate the list; an empty conversation must not be null.
	req.JSONEq(`{"messages":[]}`, w.Body.String())
}

func TestAPI_SearchForwardsQuery(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	w := doJSON(f, http.MethodGet, "/messages/search?q=quarterly+report", f.bearer(t, uuid.New()), nil)

	req.Equal(http.StatusOK, w.Code)
	req.Equal("quarterly report", f.delivery.lastTerms)
}

func TestAPI_ListUsers(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)
	f.delivery.users = []domain.User{
		{ID: uuid.New(), Username: "bob"},
		{ID: uuid.New(), Username: "clara"},
	}

	w := doJSON(f, http.MethodGet, "/users", f.bearer(t, uuid.New()), nil)

	req.Equal(http.StatusOK, w.Code)
	var reply struct {
		Users []domain.User `json:"users"`
	}
	req.NoError(json.Unmarshal(w.Body.Bytes(), &reply))
	req.Len(reply.Users, 2)
	req.Equal("bob", reply.Users[0].Username)
}
