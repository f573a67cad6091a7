package brick

import (
	"context"

	"github.com/binsort-io/binsort/internal/link"
	"github.com/binsort-io/binsort/internal/protocol"
	"github.com/binsort-io/binsort/pkg/log"
)

const (
	msgInvalidJSON = "Invalid JSON command"
	msgBusy        = "Brick busy: another controller is connected"
)

var _ link.Handler = (*Handler)(nil)

// Handler adapts a Dispatcher to the link server: documents in, documents out.
type Handler struct {
	dispatcher *Dispatcher
}

func NewHandler(d *Dispatcher) *Handler {
	return &Handler{dispatcher: d}
}

func (h *Handler) Handle(ctx context.Context, doc []byte) []byte {
	cmd, err := protocol.DecodeCommand(doc)
	if err != nil {
		return h.HandleInvalid(ctx, err)
	}
	return reply(h.dispatcher.Dispatch(ctx, cmd))
}

func (h *Handler) HandleInvalid(_ context.Context, err error) []byte {
	log.Debug("Rejecting undecodable command", "error", err.Error())
	return reply(protocol.Errorf(msgInvalidJSON))
}

func (h *Handler) Busy() []byte {
	return reply(protocol.Errorf(msgBusy))
}

// reply encodes r, shortening the message if the document would not fit the wire bound.
func reply(r protocol.Response) []byte {
	b, err := protocol.EncodeResponse(r)
	if err == nil {
		return b
	}
	const keep = protocol.MaxDocumentSize / 2
	if len(r.Message) > keep {
		r.Message = r.Message[:keep]
	}
	if b, err = protocol.EncodeResponse(r); err == nil {
		return b
	}
	b, _ = protocol.EncodeResponse(protocol.Errorf("response could not be encoded"))
	return b
}
