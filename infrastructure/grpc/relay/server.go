package relay

import (
	"civic-stream/infrastructure/broker"
	"context"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const defaultSubscriberBuffer = 1024

// Server fans every published payload out to the subscribers of its topic.
// Each subscriber has a bounded buffer; a subscriber that cannot keep up is
// disconnected with ResourceExhausted and is expected to resubscribe.
// Missed envelopes are recovered by the catchup path, never by the relay.
type Server struct {
	log    *slog.Logger
	hub    *broker.Memory
	buffer int
}

var _ RelayServiceServer = (*Server)(nil)

func NewServer(log *slog.Logger, buffer int) *Server {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &Server{log: log, hub: broker.NewMemory(), buffer: buffer}
}

func (s *Server) Publish(ctx context.Context, in *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	topic := topicFrom(ctx)
	if topic == "" {
		return nil, status.Error(codes.InvalidArgument, "topic metadata is missing")
	}
	if err := s.hub.Publish(ctx, topic, in.GetValue()); err != nil {
		return nil, status.Error(codes.Unavailable, err.Error())
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) Subscribe(in *wrapperspb.StringValue, stream grpc.ServerStream) error {
	topic := in.GetValue()
	if topic == "" {
		return status.Error(codes.InvalidArgument, "topic is missing")
	}
	ctx, cancel := context.WithCancel(stream.Context())
	defer cancel()

	queue := make(chan []byte, s.buffer)
	overflow := make(chan struct{}, 1)
	subscribed := make(chan error, 1)
	go func() {
		subscribed <- s.hub.Subscribe(ctx, topic, func(payload []byte) {
			select {
			case queue <- payload:
			default:
				select {
				case overflow <- struct{}{}:
				default:
				}
			}
		})
	}()
	s.log.Debug("Relay subscriber joined", "topic", topic)

	for {
		select {
		case <-ctx.Done():
			s.log.Debug("Relay subscriber left", "topic", topic)
			return nil
		case err := <-subscribed:
			if err != nil {
				return status.Error(codes.Unavailable, err.Error())
			}
			return nil
		case <-overflow:
			s.log.Warn("Relay subscriber too slow, disconnecting", "topic", topic)
			return status.Error(codes.ResourceExhausted, "subscriber buffer full")
		case payload := <-queue:
			if err := stream.SendMsg(&wrapperspb.BytesValue{Value: payload}); err != nil {
				s.log.Debug("Relay send failed", "topic", topic, "error", err)
				return err
			}
		}
	}
}

// Subscribers returns the number of subscribers currently attached to a topic.
func (s *Server) Subscribers(topic string) int {
	return s.hub.Subscribers(topic)
}

// Close disconnects every subscriber.
func (s *Server) Close() {
	s.hub.Close()
}

func topicFrom(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(topicMetadataKey)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
