package remote

import (
	"context"
	"errors"
	"io"

	"github.com/TheusHen/prandom/prandom/protocol"
	"github.com/TheusHen/prandom/prandom/server"
	pkgerrors "github.com/pkg/errors"
)

var ErrRemote = errors.New("remote: device reported an error")

// Client issues read requests to a remote device.
type Client struct {
	pool   *streamPool
	closer io.Closer
}

// NewClient creates a client that keeps up to maxStreams request streams open.
// closer, if non-nil, is closed along with the client.
func NewClient(opener StreamOpener, maxStreams int, closer io.Closer) *Client {
	return &Client{pool: newStreamPool(opener, maxStreams), closer: closer}
}

// Read fetches n bytes from access point m on the remote device.
func (c *Client) Read(ctx context.Context, m server.Minor, n int) ([]byte, error) {
	if n < 0 {
		return nil, server.ErrNegativeLength
	}
	if n > protocol.MaxFramePayload {
		return nil, ErrRequestTooLarge
	}

	st, err := c.pool.acquire(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "remote: open stream")
	}

	stop := context.AfterFunc(ctx, func() { _ = st.Close() })
	frame, err := roundTrip(st, protocol.ReadRequest{Minor: uint8(m), Count: uint32(n)})
	if !stop() || err != nil {
		c.pool.discard(st)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, pkgerrors.Wrapf(err, "remote: read %d bytes from %s", n, m)
	}
	c.pool.release(st)

	switch frame.Type {
	case protocol.MessageTypeData:
		if len(frame.Payload) != n {
			return nil, pkgerrors.Errorf("remote: short DATA frame: %d of %d bytes", len(frame.Payload), n)
		}
		return frame.Payload, nil
	case protocol.MessageTypeError:
		return nil, pkgerrors.Wrap(ErrRemote, string(frame.Payload))
	default:
		return nil, pkgerrors.Wrapf(ErrUnexpectedFrame, "got %s", frame.Type)
	}
}

func roundTrip(rw io.ReadWriter, req protocol.ReadRequest) (protocol.Frame, error) {
	if err := protocol.WriteFrame(rw, req.Frame()); err != nil {
		return protocol.Frame{}, err
	}
	return protocol.ReadFrame(rw)
}

// Close closes idle streams and the underlying connection.
func (c *Client) Close() error {
	err := c.pool.close()
	if c.closer != nil {
		if cerr := c.closer.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
