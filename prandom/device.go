package prandom

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/TheusHen/prandom/prandom/keystream"
	"github.com/TheusHen/prandom/prandom/remote"
	"github.com/TheusHen/prandom/prandom/server"
	"github.com/TheusHen/prandom/prandom/transport/quic"
	pkgerrors "github.com/pkg/errors"
	q "github.com/quic-go/quic-go"
)

var (
	ErrNotListening     = errors.New("device is not listening")
	ErrAlreadyListening = errors.New("device is already listening")
)

// Device is the process-wide random device.
// It initializes its keystream engine exactly once, in NewDevice.
type Device struct {
	config   Config
	engine   *keystream.Engine
	srv      *server.Server
	handler  *remote.Handler

	mu       sync.Mutex
	listener *quic.Listener
}

// NewDevice runs the keystream self test, then seeds the device engine.
func NewDevice(config Config) (*Device, error) {
	if len(config.Key) == 0 {
		config.Key = keystream.DefaultKey
	}
	if err := keystream.SelfTest(); err != nil {
		return nil, err
	}
	eng, err := keystream.New(config.Key)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "prandom: initialize engine")
	}
	srv := server.New(eng, server.Config{Atomic: config.Atomic})
	log.Infof("device ready (access points: %s, %s)", server.MinorRandom, server.MinorURandom)
	return &Device{
		config:  config,
		engine:  eng,
		srv:     srv,
		handler: remote.NewHandler(srv, config.MaxRequest),
	}, nil
}

// Config returns the configuration the device was created with.
func (d *Device) Config() Config { return d.config }

// Engine returns the device's shared keystream engine.
func (d *Device) Engine() *keystream.Engine { return d.engine }

// Read serves an n byte read on access point m into sink.
func (d *Device) Read(ctx context.Context, m server.Minor, n int, sink server.Sink) (int, error) {
	return d.srv.Read(ctx, m, n, sink)
}

// Handle is an open access point.
type Handle struct {
	dev   *Device
	minor server.Minor
}

// Open returns a handle on the named access point ("random" or "urandom").
func (d *Device) Open(name string) (*Handle, error) {
	m, err := server.ParseMinor(name)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "prandom: open %q", name)
	}
	return &Handle{dev: d, minor: m}, nil
}

// Name returns the access point name.
func (h *Handle) Name() string { return h.minor.String() }

// Read fills p from the device. It implements io.Reader.
func (h *Handle) Read(p []byte) (int, error) {
	return h.dev.srv.Read(context.Background(), h.minor, len(p), server.NewBufferSink(p))
}

// Listen starts accepting remote clients on addr.
// A device listens on at most one address at a time.
func (d *Device) Listen(addr string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.listener != nil {
		return ErrAlreadyListening
	}
	ln, err := quic.Listen(addr)
	if err != nil {
		return pkgerrors.Wrapf(err, "prandom: listen on %s", addr)
	}
	d.listener = ln
	log.Infof("listening on %s", ln.AddrString())
	return nil
}

func (d *Device) currentListener() *quic.Listener {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.listener
}

// ListenAddr returns the bound listen address, or "" if not listening.
func (d *Device) ListenAddr() string {
	ln := d.currentListener()
	if ln == nil {
		return ""
	}
	return ln.AddrString()
}

// Serve accepts connections until ctx is done or the listener is closed.
// Each accepted connection is closed once ctx is done.
func (d *Device) Serve(ctx context.Context) error {
	ln := d.currentListener()
	if ln == nil {
		return ErrNotListening
	}
	for {
		conn, err := ln.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		log.Debugf("accepted %s", conn.RemoteAddr())
		go func() {
			defer conn.CloseWithError(0, "")
			err := d.handler.Serve(ctx, connStreams{conn})
			log.Debugf("connection from %s closed: %v", conn.RemoteAddr(), err)
		}()
	}
}

// Close stops listening. The device may Listen again afterwards.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.listener == nil {
		return nil
	}
	err := d.listener.Close()
	d.listener = nil
	return err
}

// Dial connects to a device listening at addr.
func Dial(ctx context.Context, addr string, maxStreams int) (*remote.Client, error) {
	conn, err := quic.Dial(ctx, addr)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "prandom: dial %s", addr)
	}
	cs := connStreams{conn}
	return remote.NewClient(cs, maxStreams, cs), nil
}

// connStreams adapts a QUIC connection to the remote stream interfaces.
type connStreams struct {
	conn q.Connection
}

func (c connStreams) AcceptStream(ctx context.Context) (io.ReadWriteCloser, error) {
	return c.conn.AcceptStream(ctx)
}

func (c connStreams) OpenStreamSync(ctx context.Context) (io.ReadWriteCloser, error) {
	return c.conn.OpenStreamSync(ctx)
}

func (c connStreams) Close() error {
	return c.conn.CloseWithError(0, "")
}
