package auth

import (
	"civic-stream/domain"
	"civic-stream/domain/event"
	"civic-stream/errors"
	"civic-stream/mocks"
	"context"
	stdErrors "errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestTokens_RoundTrip(t *testing.T) {
	req := require.New(t)
	tokens := NewTokens("secret")

	token, err := tokens.GenerateToken(domain.Subject{ID: "u-1", Role: domain.RoleModerator}, time.Hour)
	req.NoError(err)

	subject, err := tokens.ValidateToken(token)
	req.NoError(err)
	req.Equal(domain.Subject{ID: "u-1", Role: domain.RoleModerator}, subject)
}

func TestTokens_Rejected(t *testing.T) {
	req := require.New(t)
	tokens := NewTokens("secret")

	// Given a token signed with another secret
	foreign, err := NewTokens("other").GenerateToken(domain.Subject{ID: "u-1"}, time.Hour)
	req.NoError(err)
	_, err = tokens.ValidateToken(foreign)
	req.ErrorIs(err, errors.ErrInvalidToken)

	// Given an expired token
	expired, err := tokens.GenerateToken(domain.Subject{ID: "u-1"}, -time.Minute)
	req.NoError(err)
	_, err = tokens.ValidateToken(expired)
	req.ErrorIs(err, errors.ErrInvalidToken)

	_, err = tokens.ValidateToken("garbage")
	req.ErrorIs(err, errors.ErrInvalidToken)
}

func TestTokens_DefaultRoleIsCitizen(t *testing.T) {
	req := require.New(t)
	tokens := NewTokens("secret")
	token, err := tokens.GenerateToken(domain.Subject{ID: "u-1"}, time.Hour)
	req.NoError(err)

	subject, err := tokens.ValidateToken(token)
	req.NoError(err)
	req.Equal(domain.RoleCitizen, subject.Role)
}

func TestMiddleware(t *testing.T) {
	tokens := NewTokens("secret")
	var seen domain.Subject
	handler := Middleware(tokens, slog.Default())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SubjectFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	valid, err := tokens.GenerateToken(domain.Subject{ID: "u-7", Role: domain.RoleCitizen}, time.Hour)
	require.NoError(t, err)

	t.Run("anonymous request passes through without subject", func(t *testing.T) {
		req := require.New(t)
		seen = domain.Subject{}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/catchup", nil))
		req.Equal(http.StatusNoContent, rec.Code)
		req.True(seen.IsZero())
	})

	t.Run("bearer header injects subject", func(t *testing.T) {
		req := require.New(t)
		r := httptest.NewRequest(http.MethodGet, "/v1/catchup", nil)
		r.Header.Set("Authorization", "Bearer "+valid)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		req.Equal(http.StatusNoContent, rec.Code)
		req.Equal("u-7", seen.ID)
	})

	t.Run("query token is accepted for event source clients", func(t *testing.T) {
		req := require.New(t)
		seen = domain.Subject{}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/stream?access_token="+valid, nil))
		req.Equal("u-7", seen.ID)
	})

	t.Run("invalid token is rejected", func(t *testing.T) {
		req := require.New(t)
		r := httptest.NewRequest(http.MethodGet, "/v1/catchup", nil)
		r.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		req.Equal(http.StatusUnauthorized, rec.Code)
	})
}

func TestChannelAuthorizer(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	members := mocks.NewMockMembershipChecker(ctrl)
	authorizer := NewChannelAuthorizer(members)
	ctx := context.Background()
	alice := domain.Subject{ID: "alice", Role: domain.RoleCitizen}

	t.Run("anonymous subject is unauthenticated on every kind", func(t *testing.T) {
		req := require.New(t)
		for _, ch := range []domain.Channel{
			domain.InboxChannel("alice"),
			domain.ReportChannel("r-1"),
			domain.FeedChannel("public"),
		} {
			req.ErrorIs(authorizer.Authorize(ctx, domain.Subject{}, ch), errors.ErrUnauthenticated)
		}
	})

	t.Run("inbox is self only", func(t *testing.T) {
		req := require.New(t)
		req.NoError(authorizer.Authorize(ctx, alice, domain.InboxChannel("alice")))
		req.ErrorIs(authorizer.Authorize(ctx, alice, domain.InboxChannel("bob")), errors.ErrForbidden)
	})

	t.Run("conversation requires membership", func(t *testing.T) {
		req := require.New(t)
		// Given alice is member of c-1 but not of c-2
		members.EXPECT().IsMember(gomock.Any(), "c-1", "alice").Return(true, nil)
		members.EXPECT().IsMember(gomock.Any(), "c-2", "alice").Return(false, nil)

		req.NoError(authorizer.Authorize(ctx, alice, domain.ConversationChannel("c-1")))
		req.ErrorIs(authorizer.Authorize(ctx, alice, domain.ConversationChannel("c-2")), errors.ErrForbidden)
	})

	t.Run("membership lookup failure is not a denial", func(t *testing.T) {
		req := require.New(t)
		members.EXPECT().IsMember(gomock.Any(), "c-3", "alice").Return(false, stdErrors.New("down"))

		err := authorizer.Authorize(ctx, alice, domain.ConversationChannel("c-3"))
		req.Error(err)
		req.False(errors.IsAuthorizationDenial(err))
	})

	t.Run("public kinds only need a subject", func(t *testing.T) {
		req := require.New(t)
		req.NoError(authorizer.Authorize(ctx, alice, domain.ReportChannel("r-1")))
		req.NoError(authorizer.Authorize(ctx, alice, domain.CommentsChannel("r-1")))
		req.NoError(authorizer.Authorize(ctx, alice, domain.PresenceFeed))
	})
}

func TestMembershipRegistry_Apply(t *testing.T) {
	req := require.New(t)
	registry := NewMembershipRegistry()
	joined := event.DomainEvent{
		AggregateType: string(domain.KindConversation),
		AggregateID:   "c-1",
		EventType:     event.MemberJoined,
		Metadata:      map[string]string{event.MetaMemberID: "bob"},
	}

	registry.Apply(joined)
	ok, err := registry.IsMember(context.Background(), "c-1", "bob")
	req.NoError(err)
	req.True(ok)

	left := joined
	left.EventType = event.MemberLeft
	registry.Apply(left)
	ok, err = registry.IsMember(context.Background(), "c-1", "bob")
	req.NoError(err)
	req.False(ok)
}

func TestMembershipRegistry_FollowsTheLog(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	eventLog := mocks.NewMockIEventLog(ctrl)
	ctx := context.Background()
	member := func(seq uint64, typ event.Type, conversationID, userID string) event.DomainEvent {
		return event.DomainEvent{
			SequenceID:    seq,
			AggregateType: string(domain.KindConversation),
			AggregateID:   conversationID,
			EventType:     typ,
			Metadata:      map[string]string{event.MetaMemberID: userID},
		}
	}
	conversation := string(domain.KindConversation)

	gomock.InOrder(
		// Given the log holds one join at startup
		eventLog.EXPECT().GetSinceForAggregate(gomock.Any(), conversation, uint64(0), 0).
			Return([]event.DomainEvent{member(1, event.MemberJoined, "c-2", "bob")}, nil),
		eventLog.EXPECT().GetSinceForAggregate(gomock.Any(), conversation, uint64(1), 0).Return(nil, nil),
		// When another instance appends a join and a leave
		eventLog.EXPECT().GetSinceForAggregate(gomock.Any(), conversation, uint64(1), 0).
			Return([]event.DomainEvent{
				member(4, event.MemberJoined, "c-1", "bob"),
				{SequenceID: 5, AggregateType: conversation, AggregateID: "c-1", EventType: event.MessageCreated},
				member(6, event.MemberLeft, "c-2", "bob"),
			}, nil),
		eventLog.EXPECT().GetSinceForAggregate(gomock.Any(), conversation, uint64(6), 0).Return(nil, nil),
		eventLog.EXPECT().GetSinceForAggregate(gomock.Any(), conversation, uint64(6), 0).Return(nil, nil),
	)

	registry := NewMembershipRegistry()
	applied, err := registry.Rebuild(ctx, eventLog)
	req.NoError(err)
	req.Equal(1, applied)

	// Then the next read sees both
	ok, err := registry.IsMember(ctx, "c-1", "bob")
	req.NoError(err)
	req.True(ok)
	conversations, err := registry.ConversationsOf(ctx, "bob")
	req.NoError(err)
	req.Equal([]string{"c-1"}, conversations)
}

func TestMembershipRegistry_SyncFailureIsReturned(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	eventLog := mocks.NewMockIEventLog(ctrl)
	ctx := context.Background()

	eventLog.EXPECT().GetSinceForAggregate(gomock.Any(), gomock.Any(), uint64(0), 0).Return(nil, nil)
	registry := NewMembershipRegistry()
	_, err := registry.Rebuild(ctx, eventLog)
	req.NoError(err)

	// Given the log is unreachable
	eventLog.EXPECT().GetSinceForAggregate(gomock.Any(), gomock.Any(), uint64(0), 0).Return(nil, errors.ErrStore)

	// Then the lookup fails instead of denying
	_, err = registry.IsMember(ctx, "c-1", "bob")
	req.ErrorIs(err, errors.ErrStore)
}
