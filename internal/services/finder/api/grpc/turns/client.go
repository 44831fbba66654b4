package turns

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/teamfinder/mlbb-finder/internal/services/finder/bot"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/reply"
)

// Client calls the turn service over a client connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a turn service client.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// HandleTurn invokes the remote HandleTurn method.
func (c *Client) HandleTurn(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, HandleTurnMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// RemoteHandler runs turns against a remote finder, so local transports can
// drive a running server.
type RemoteHandler struct {
	client *Client
}

// NewRemoteHandler wraps client as a turn handler.
func NewRemoteHandler(client *Client) *RemoteHandler {
	return &RemoteHandler{client: client}
}

// Handle sends turn to the server and decodes its replies.
func (h *RemoteHandler) Handle(ctx context.Context, turn bot.Turn) ([]reply.Reply, error) {
	if h == nil || h.client == nil {
		return nil, errors.New("turn client is not configured")
	}
	in, err := EncodeTurn(turn)
	if err != nil {
		return nil, err
	}
	out, err := h.client.HandleTurn(ctx, in)
	if err != nil {
		return nil, err
	}
	return DecodeReplies(out), nil
}

// EncodeTurn converts a turn into a request struct.
func EncodeTurn(turn bot.Turn) (*structpb.Struct, error) {
	fields := map[string]any{
		"user_id":        turn.UserID,
		"display_handle": turn.DisplayHandle,
		"language_code":  turn.LanguageCode,
		"text":           turn.Text,
	}
	if len(turn.Photo) > 0 {
		photos := make([]any, 0, len(turn.Photo))
		for _, p := range turn.Photo {
			photos = append(photos, map[string]any{
				"file_id": p.FileID,
				"width":   p.Width,
				"height":  p.Height,
			})
		}
		fields["photo"] = photos
	}
	return structpb.NewStruct(fields)
}

// DecodeReplies converts a response struct into replies. Unknown fields are
// ignored.
func DecodeReplies(out *structpb.Struct) []reply.Reply {
	items := out.GetFields()["replies"].GetListValue().GetValues()
	replies := make([]reply.Reply, 0, len(items))
	for _, item := range items {
		fields := item.GetStructValue().GetFields()
		r := reply.Reply{
			Recipient:  fields["recipient"].GetStringValue(),
			Text:       fields["text"].GetStringValue(),
			PhotoRef:   fields["photo"].GetStringValue(),
			RemoveMenu: fields["remove_menu"].GetBoolValue(),
		}
		if menu, ok := fields["menu"]; ok {
			r.Menu = &reply.Menu{}
			for _, row := range menu.GetListValue().GetValues() {
				var labels []string
				for _, label := range row.GetListValue().GetValues() {
					labels = append(labels, label.GetStringValue())
				}
				r.Menu.Rows = append(r.Menu.Rows, labels)
			}
		}
		replies = append(replies, r)
	}
	return replies
}
