package relay

import (
	"civic-stream/contract"
	"context"
	stdErrors "errors"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

var _ contract.Broker = (*Client)(nil)

// Client is the broker side of a bus instance.
type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) Publish(ctx context.Context, topic string, payload []byte) error {
	ctx = metadata.AppendToOutgoingContext(ctx, topicMetadataKey, topic)
	return c.conn.Invoke(ctx, Relay_Publish_FullMethodName, &wrapperspb.BytesValue{Value: payload}, new(emptypb.Empty))
}

// Subscribe blocks, handing every received payload to handler in order.
// It returns nil when ctx is cancelled and an error when the stream breaks.
func (c *Client) Subscribe(ctx context.Context, topic string, handler func([]byte)) error {
	stream, err := c.conn.NewStream(ctx, &relayServiceDesc.Streams[0], Relay_Subscribe_FullMethodName)
	if err != nil {
		return err
	}
	if err := stream.SendMsg(&wrapperspb.StringValue{Value: topic}); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}
	for {
		msg := new(wrapperspb.BytesValue)
		err := stream.RecvMsg(msg)
		switch {
		case err == nil:
			handler(msg.GetValue())
		case ctx.Err() != nil, status.Code(err) == codes.Canceled:
			return nil
		case stdErrors.Is(err, io.EOF):
			return io.ErrUnexpectedEOF
		default:
			return err
		}
	}
}
