package e2e

import (
	"courier/domain"
	"courier/ws"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type testDirectMessageSuite struct {
	BaseSuite
}

func TestDirectMessageSuite(t *testing.T) {
	suite.Run(t, &testDirectMessageSuite{})
}

func (s *testDirectMessageSuite) TestFullDeliveryFlow() {
	var (
		aliceToken string
		bobToken   string
		bobID      string
		sent       domain.ConfirmedMessage
	)
	clientMsgID := uuid.NewString()

	// --- STEP 0: ACCOUNTS ---
	s.Run("Step 0: Register both participants", func() {
		s.Step("Registering alice and bob")
		aliceToken, _ = s.RegisterUser("alice")
		bobToken, bobID = s.RegisterUser("bob")
	})

	// --- STEP 1: CHANNELS ---
	s.Step("Opening authenticated channels")
	aliceConn := s.DialChannel(aliceToken)
	defer aliceConn.Close()
	bobConn := s.DialChannel(bobToken)
	defer bobConn.Close()

	// --- STEP 2: SEND AND CONFIRM ---
	s.Run("Step 2: Send a message and receive the confirmation", func() {
		env, err := ws.NewEnvelope(ws.EventSendMessage, ws.SendMessagePayload{
			ReceiverID:  bobID,
			Content:     "hello from the e2e suite",
			ClientMsgID: clientMsgID,
		})
		s.Require().NoError(err)
		s.Require().NoError(aliceConn.WriteJSON(env))

		_ = aliceConn.SetReadDeadline(time.Now().Add(10 * time.Second))
		var reply ws.Envelope
		s.Require().NoError(aliceConn.ReadJSON(&reply))
		s.Require().Equal(ws.EventMessageSent, reply.Event)

		var confirmation ws.MessageSentPayload
		s.Require().NoError(json.Unmarshal(reply.Payload, &confirmation))
		// The correlation token must round-trip untouched.
		s.Require().Equal(clientMsgID, confirmation.ClientMsgID)
		s.Require().Equal("hello from the e2e suite", confirmation.Content)
		sent = confirmation.ConfirmedMessage
	})

	// --- STEP 3: LIVE DELIVERY ---
	s.Run("Step 3: Receiver gets the record on its live channel", func() {
		_ = bobConn.SetReadDeadline(time.Now().Add(10 * time.Second))
		var frame ws.Envelope
		s.Require().NoError(bobConn.ReadJSON(&frame))
		s.Require().Equal(ws.EventReceiveMessage, frame.Event)

		var record domain.ConfirmedMessage
		s.Require().NoError(json.Unmarshal(frame.Payload, &record))
		s.Require().Equal(sent.ID, record.ID)
		s.Require().Equal(sent.Content, record.Content)
	})

	// --- STEP 4: HISTORY ---
	s.Run("Step 4: The record is durable and readable through history", func() {
		s.Eventually(func() bool {
			var reply struct {
				Messages []domain.ConfirmedMessage `json:"messages"`
			}
			s.GetJSON("/messages/chat/"+bobID, aliceToken, &reply)
			for _, record := range reply.Messages {
				if record.ID == sent.ID {
					return true
				}
			}
			return false
		}, 10*time.Second, 500*time.Millisecond, "Sent message not found in history within timeout")
	})
}
