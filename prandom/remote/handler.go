package remote

import (
	"context"
	"errors"
	"io"

	"github.com/TheusHen/prandom/prandom/protocol"
	"github.com/TheusHen/prandom/prandom/server"
	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("prandom/remote")

var (
	ErrRequestTooLarge = errors.New("remote: request exceeds maximum size")
	ErrUnexpectedFrame = errors.New("remote: unexpected frame type")
)

// StreamAcceptor yields incoming streams, one per client stream.
type StreamAcceptor interface {
	AcceptStream(ctx context.Context) (io.ReadWriteCloser, error)
}

// Handler answers READ frames from a byte-stream server.
type Handler struct {
	srv        *server.Server
	maxRequest int
}

// NewHandler serves requests of at most maxRequest bytes from srv.
// maxRequest is capped at protocol.MaxFramePayload.
func NewHandler(srv *server.Server, maxRequest int) *Handler {
	if maxRequest <= 0 || maxRequest > protocol.MaxFramePayload {
		maxRequest = protocol.MaxFramePayload
	}
	return &Handler{srv: srv, maxRequest: maxRequest}
}

// ServeStream answers requests on rw until the peer stops sending.
// Each READ frame gets exactly one DATA or ERROR frame back.
func (h *Handler) ServeStream(ctx context.Context, rw io.ReadWriter) error {
	for {
		frame, err := protocol.ReadFrame(rw)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if err := protocol.WriteFrame(rw, h.respond(ctx, frame)); err != nil {
			return err
		}
	}
}

func (h *Handler) respond(ctx context.Context, frame protocol.Frame) protocol.Frame {
	if frame.Type != protocol.MessageTypeRead {
		return protocol.ErrorFrame(ErrUnexpectedFrame)
	}
	req, err := protocol.DecodeReadRequest(frame.Payload)
	if err != nil {
		return protocol.ErrorFrame(err)
	}
	if int64(req.Count) > int64(h.maxRequest) {
		return protocol.ErrorFrame(ErrRequestTooLarge)
	}

	sink := server.NewBufferSink(make([]byte, req.Count))
	if _, err := h.srv.Read(ctx, server.Minor(req.Minor), int(req.Count), sink); err != nil {
		log.Warningf("request for %d bytes from %s failed: %v", req.Count, server.Minor(req.Minor), err)
		return protocol.ErrorFrame(err)
	}
	return protocol.Frame{Type: protocol.MessageTypeData, Payload: sink.Bytes()}
}

// Serve accepts streams from acc and serves each on its own goroutine.
// It returns when accepting fails, including when ctx is done.
func (h *Handler) Serve(ctx context.Context, acc StreamAcceptor) error {
	for {
		st, err := acc.AcceptStream(ctx)
		if err != nil {
			return err
		}
		go func() {
			defer st.Close()
			if err := h.ServeStream(ctx, st); err != nil {
				log.Debugf("stream closed: %v", err)
			}
		}()
	}
}
