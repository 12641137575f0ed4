package auth

import (
	"civic-stream/contract"
	"civic-stream/domain"
	"civic-stream/errors"
	"context"
	"fmt"
)

var _ contract.Authorizer = ChannelAuthorizer{}

// ChannelAuthorizer applies the read policy of each channel kind:
// inbox is self-only, conversations require membership, reports, comments and feeds are public.
// Every policy still requires an authenticated subject.
type ChannelAuthorizer struct {
	members contract.MembershipChecker
}

func NewChannelAuthorizer(members contract.MembershipChecker) ChannelAuthorizer {
	return ChannelAuthorizer{members: members}
}

func (a ChannelAuthorizer) Authorize(ctx context.Context, subject domain.Subject, channel domain.Channel) error {
	if subject.IsZero() {
		return errors.ErrUnauthenticated
	}
	switch channel.Kind {
	case domain.KindInbox:
		if channel.ID != subject.ID {
			return fmt.Errorf("%w: inbox %s belongs to another user", errors.ErrForbidden, channel.ID)
		}
		return nil
	case domain.KindConversation:
		ok, err := a.members.IsMember(ctx, channel.ID, subject.ID)
		if err != nil {
			return fmt.Errorf("membership lookup for %s: %w", channel.ID, err)
		}
		if !ok {
			return fmt.Errorf("%w: not a member of conversation %s", errors.ErrForbidden, channel.ID)
		}
		return nil
	case domain.KindReport, domain.KindComments, domain.KindFeed:
		return nil
	default:
		return fmt.Errorf("%w: %q", errors.ErrInvalidChannel, channel.Key())
	}
}
