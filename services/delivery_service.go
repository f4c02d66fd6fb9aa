package services

import (
	"context"
	"courier/contract"
	"courier/domain"
	courerrors "courier/errors"
	"courier/moderation"
	"courier/observability"
	"courier/repositories"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IDeliveryService interface {
	Send(ctx context.Context, senderID uuid.UUID, receiverID, content string) (domain.ConfirmedMessage, error)
	History(ctx context.Context, userID uuid.UUID, otherID string) ([]domain.ConfirmedMessage, error)
	Search(ctx context.Context, userID uuid.UUID, terms string) ([]domain.ConfirmedMessage, error)
	ListUsers(userID uuid.UUID) ([]domain.User, error)
}

// DeliveryService is the delivery pipeline: it validates a send request,
// persists the record, pushes it to the receiver's live channel when one
// is registered, and hands the confirmed record back to the caller.
type DeliveryService struct {
	log         *slog.Logger
	users       repositories.IUserRepository
	messages    repositories.IMessageRepository
	search      repositories.ISearchIndex
	presence    contract.IPresence
	moderator   *moderation.Moderator // nil disables moderation
	indexQueue  chan<- domain.Message // nil disables search indexing
	monitor     *observability.Monitor
	searchLimit int
}

func NewDeliveryService(
	log *slog.Logger,
	users repositories.IUserRepository,
	messages repositories.IMessageRepository,
	search repositories.ISearchIndex,
	presence contract.IPresence,
	moderator *moderation.Moderator,
	indexQueue chan<- domain.Message,
	monitor *observability.Monitor,
	searchLimit int,
) *DeliveryService {
	return &DeliveryService{
		log:         log,
		users:       users,
		messages:    messages,
		search:      search,
		presence:    presence,
		moderator:   moderator,
		indexQueue:  indexQueue,
		monitor:     monitor,
		searchLimit: searchLimit,
	}
}

// Send runs the full pipeline for one message. Preconditions are checked
// in order, failing fast on the first violation. The receiver push is
// best-effort: an offline receiver is not an error, the record is durable
// and discoverable through history.
func (s *DeliveryService) Send(ctx context.Context, senderID uuid.UUID, receiverID, content string) (domain.ConfirmedMessage, error) {
	if receiverID == "" || content == "" {
		return domain.ConfirmedMessage{}, courerrors.ErrMissingFields
	}
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return domain.ConfirmedMessage{}, courerrors.ErrEmptyContent
	}
	if utf8.RuneCountInString(trimmed) > domain.MaxContentLength {
		return domain.ConfirmedMessage{}, courerrors.ErrContentTooLong
	}
	rid, err := uuid.Parse(receiverID)
	if err != nil {
		return domain.ConfirmedMessage{}, courerrors.ErrInvalidReceiverID
	}
	if rid == senderID {
		return domain.ConfirmedMessage{}, courerrors.ErrSelfMessage
	}

	receiver, err := s.users.GetUserByID(rid)
	if err != nil {
		return domain.ConfirmedMessage{}, courerrors.ErrInvalidReceiverID
	}
	sender, err := s.users.GetUserByID(senderID)
	if err != nil {
		return domain.ConfirmedMessage{}, fmt.Errorf("%w: unknown sender: %v", courerrors.ErrSendMessage, err)
	}

	if s.moderator != nil {
		trimmed = s.moderator.Censor(trimmed)
	}

	message := domain.Message{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: rid,
		Content:    trimmed,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.messages.Store(message); err != nil {
		s.monitor.IncrSendFailures()
		return domain.ConfirmedMessage{}, fmt.Errorf("%w: %v", courerrors.ErrSendMessage, err)
	}

	s.enqueueIndex(message)

	record := toConfirmed(message, sender.Ref(), receiver.Ref())

	// Best-effort live push. If the receiver's channel closed between
	// lookup and push, the push is dropped; the receiver finds the
	// message through history on its next fetch.
	if sink, ok := s.presence.Lookup(rid); ok {
		if err := sink.Push(ctx, record); err != nil {
			s.log.Warn("Live push failed",
				"receiver_id", rid,
				"message_id", message.ID,
				"error", err)
		} else {
			s.monitor.IncrDeliveredLive()
		}
	}

	s.monitor.IncrMessagesSent()
	return record, nil
}

// History returns the full conversation between the caller and the other
// user, oldest first. Read-only; presence is untouched.
func (s *DeliveryService) History(_ context.Context, userID uuid.UUID, otherID string) ([]domain.ConfirmedMessage, error) {
	oid, err := uuid.Parse(otherID)
	if err != nil {
		return nil, courerrors.ErrInvalidUserID
	}

	messages, err := s.messages.GetChat(userID, oid)
	if err != nil {
		return nil, err
	}
	s.monitor.IncrHistoryReads()

	refs := s.resolveRefs(userID, oid)
	return lo.Map(messages, func(message domain.Message, _ int) domain.ConfirmedMessage {
		return toConfirmed(message, refs[message.SenderID], refs[message.ReceiverID])
	}), nil
}

// Search runs a full-text query over the caller's conversations and
// returns matches oldest first.
func (s *DeliveryService) Search(ctx context.Context, userID uuid.UUID, terms string) ([]domain.ConfirmedMessage, error) {
	terms = strings.TrimSpace(terms)
	if terms == "" {
		return nil, courerrors.ErrMissingFields
	}

	messages, err := s.search.Search(ctx, userID, terms, s.searchLimit)
	if err != nil {
		return nil, err
	}
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})

	refs := make(map[uuid.UUID]domain.UserRef)
	records := make([]domain.ConfirmedMessage, 0, len(messages))
	for _, message := range messages {
		records = append(records, toConfirmed(message,
			s.cachedRef(refs, message.SenderID),
			s.cachedRef(refs, message.ReceiverID)))
	}
	return records, nil
}

func (s *DeliveryService) ListUsers(userID uuid.UUID) ([]domain.User, error) {
	return s.users.ListUsers(userID)
}

func (s *DeliveryService) enqueueIndex(message domain.Message) {
	if s.indexQueue == nil {
		return
	}
	select {
	case s.indexQueue <- message:
	default:
		// The index is a secondary view; never block the send path on it.
		s.monitor.IncrIndexDropped()
		s.log.Warn("Index queue full, message not indexed", "message_id", message.ID)
	}
}

// resolveRefs looks both participants up once per call. An id without a
// user record keeps its id and an empty username rather than failing the
// whole read.
func (s *DeliveryService) resolveRefs(ids ...uuid.UUID) map[uuid.UUID]domain.UserRef {
	refs := make(map[uuid.UUID]domain.UserRef, len(ids))
	for _, id := range ids {
		refs[id] = s.lookupRef(id)
	}
	return refs
}

func (s *DeliveryService) cachedRef(cache map[uuid.UUID]domain.UserRef, id uuid.UUID) domain.UserRef {
	if ref, ok := cache[id]; ok {
		return ref
	}
	ref := s.lookupRef(id)
	cache[id] = ref
	return ref
}

func (s *DeliveryService) lookupRef(id uuid.UUID) domain.UserRef {
	user, err := s.users.GetUserByID(id)
	if err != nil {
		return domain.UserRef{ID: id}
	}
	return user.Ref()
}

func toConfirmed(message domain.Message, sender, receiver domain.UserRef) domain.ConfirmedMessage {
	return domain.ConfirmedMessage{
		ID:        message.ID,
		Sender:    sender,
		Receiver:  receiver,
		Content:   message.Content,
		Timestamp: message.CreatedAt,
	}
}
