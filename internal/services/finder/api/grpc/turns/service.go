// Package turns exposes the finder core to transports over gRPC.
//
// The service has one unary method whose request and response are
// google.protobuf.Struct values, so transports in any language can call it
// without generated stubs:
//
//	request:  {user_id, display_handle, language_code, text,
//	           photo: [{file_id, width, height}]}
//	response: {replies: [{recipient, text, photo, menu: [[label]], remove_menu}]}
package turns

import (
	"context"
	"errors"
	"math"
	"strings"

	apperrors "github.com/teamfinder/mlbb-finder/internal/platform/errors"
	"github.com/teamfinder/mlbb-finder/internal/platform/i18n/catalog"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/bot"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/reply"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "finder.v1.TurnService"
	// HandleTurnMethod is the full method path of HandleTurn.
	HandleTurnMethod = "/" + ServiceName + "/HandleTurn"
)

// TurnHandler processes one inbound turn.
type TurnHandler interface {
	Handle(ctx context.Context, turn bot.Turn) ([]reply.Reply, error)
}

// TurnServiceServer is the server API of the turn service.
type TurnServiceServer interface {
	HandleTurn(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the turn service for grpc.Server registration.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TurnServiceServer)(nil),
	Methods: []grpc.MethodDesc{{
		MethodName: "HandleTurn",
		Handler:    handleTurnHandler,
	}},
	Streams:  []grpc.StreamDesc{},
	Metadata: "finder/v1/turns.proto",
}

// Register adds the turn service to registrar.
func Register(registrar grpc.ServiceRegistrar, srv TurnServiceServer) {
	registrar.RegisterService(&ServiceDesc, srv)
}

func handleTurnHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TurnServiceServer).HandleTurn(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: HandleTurnMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TurnServiceServer).HandleTurn(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Service implements TurnServiceServer on top of a TurnHandler.
type Service struct {
	handler TurnHandler
	catalog *catalog.Bundle
}

// NewService creates a turn service.
func NewService(handler TurnHandler, bundle *catalog.Bundle) *Service {
	return &Service{handler: handler, catalog: bundle}
}

// HandleTurn decodes one turn, runs it, and encodes the replies.
func (s *Service) HandleTurn(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "turn request is required")
	}
	if s == nil || s.handler == nil {
		return nil, status.Error(codes.Internal, "turn handler is not configured")
	}
	turn, err := DecodeTurn(in)
	locale := s.catalog.Match(turn.LanguageCode)
	if err != nil {
		return nil, s.statusFor(err, locale)
	}
	replies, err := s.handler.Handle(ctx, turn)
	if err != nil {
		return nil, s.statusFor(err, locale)
	}
	out, err := EncodeReplies(replies)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode replies: %v", err)
	}
	return out, nil
}

func (s *Service) statusFor(err error, locale string) error {
	var domainErr *apperrors.Error
	if !errors.As(err, &domainErr) {
		return status.Error(codes.Internal, err.Error())
	}
	key := "error.turn_invalid"
	if domainErr.Code == apperrors.CodeStoreUnavailable {
		key = "error.store_unavailable"
	}
	printer := s.catalog.Printer(locale)
	return domainErr.ToGRPCStatus(printer.Locale(), printer.Text(key))
}

// DecodeTurn converts a request struct into a turn. A missing user id is a
// TURN_INVALID error; the partially decoded turn is still returned.
func DecodeTurn(in *structpb.Struct) (bot.Turn, error) {
	fields := in.GetFields()
	turn := bot.Turn{
		UserID:        strings.TrimSpace(fields["user_id"].GetStringValue()),
		DisplayHandle: fields["display_handle"].GetStringValue(),
		LanguageCode:  fields["language_code"].GetStringValue(),
		Text:          fields["text"].GetStringValue(),
	}
	for _, item := range fields["photo"].GetListValue().GetValues() {
		variant := item.GetStructValue().GetFields()
		turn.Photo = append(turn.Photo, bot.PhotoVariant{
			FileID: variant["file_id"].GetStringValue(),
			Width:  toInt(variant["width"].GetNumberValue()),
			Height: toInt(variant["height"].GetNumberValue()),
		})
	}
	if turn.UserID == "" {
		return turn, apperrors.WithMetadata(apperrors.CodeInvalidTurn, "user_id is required", map[string]string{"Field": "user_id"})
	}
	return turn, nil
}

func toInt(v float64) int {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(v)
}

// EncodeReplies converts replies into a response struct.
func EncodeReplies(replies []reply.Reply) (*structpb.Struct, error) {
	items := make([]any, 0, len(replies))
	for _, r := range replies {
		item := map[string]any{
			"recipient":   r.Recipient,
			"text":        r.Text,
			"remove_menu": r.RemoveMenu,
		}
		if r.PhotoRef != "" {
			item["photo"] = r.PhotoRef
		}
		if r.Menu != nil {
			rows := make([]any, 0, len(r.Menu.Rows))
			for _, row := range r.Menu.Rows {
				labels := make([]any, 0, len(row))
				for _, label := range row {
					labels = append(labels, label)
				}
				rows = append(rows, labels)
			}
			item["menu"] = rows
		}
		items = append(items, item)
	}
	return structpb.NewStruct(map[string]any{"replies": items})
}
