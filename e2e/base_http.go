package e2e

import (
	"bytes"
	"courier/ws"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

// BaseSuite talks to a running server over its public surfaces only:
// the REST endpoints and the channel endpoint.
type BaseSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests.
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if !s.Config.Enabled {
		s.T().Skip("E2E_ENABLED is not set; these tests need a running server")
	}
}

func (s *BaseSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

func (s *BaseSuite) baseURL() string {
	return "http://" + s.Config.ServerAddr
}

// RegisterUser creates a throwaway account and returns its credentials.
func (s *BaseSuite) RegisterUser(username string) (token, userID string) {
	body, err := json.Marshal(map[string]string{
		"username": username,
		"email":    fmt.Sprintf("%s-%s@e2e.local", username, uuid.NewString()[:8]),
		"password": "Sup3r-Secret-Passw0rd!",
	})
	s.Require().NoError(err)

	resp, err := http.Post(s.baseURL()+"/auth/register", "application/json", bytes.NewReader(body))
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var reply struct {
		Token  string `json:"token"`
		UserID string `json:"userId"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&reply))
	return reply.Token, reply.UserID
}

// DialChannel opens the channel endpoint and completes the handshake.
func (s *BaseSuite) DialChannel(token string) *websocket.Conn {
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+s.Config.ServerAddr+"/ws", nil)
	s.Require().NoError(err)

	env, err := ws.NewEnvelope(ws.EventAuthenticate, ws.AuthenticatePayload{Token: token})
	s.Require().NoError(err)
	s.Require().NoError(conn.WriteJSON(env))

	var reply ws.Envelope
	s.Require().NoError(conn.ReadJSON(&reply))
	s.Require().Equal(ws.EventAuthenticated, reply.Event)
	return conn
}

// GetJSON performs an authenticated GET and decodes the response into out.
func (s *BaseSuite) GetJSON(path, token string, out any) {
	req, err := http.NewRequest(http.MethodGet, s.baseURL()+path, nil)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+token)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
}
