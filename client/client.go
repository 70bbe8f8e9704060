// Package client ties the protocol engine together: one connection, the
// packet router and the per-frame logic loop draining inbound packets and
// the deferred task buffer.
package client

import (
	"context"
	"crypto/tls"
	gonet "net"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"badc0de.net/pkg/go-ascending/buffer"
	"badc0de.net/pkg/go-ascending/content"
	"badc0de.net/pkg/go-ascending/handledata"
	"badc0de.net/pkg/go-ascending/mapdata"
	"badc0de.net/pkg/go-ascending/metrics"
	anet "badc0de.net/pkg/go-ascending/net"
	"badc0de.net/pkg/go-ascending/protocol"
	"badc0de.net/pkg/go-ascending/router"
	"badc0de.net/pkg/go-ascending/world"
)

// packetQueue is how many received packets may wait for the logic thread.
const packetQueue = 256

// Version is reported to the server on register and login.
var Version = protocol.AppVersion{Major: 0, Minor: 1, Patch: 0}

// Config describes the server to connect to and how the client runs.
type Config struct {
	Addr       string
	Transport  string
	ServerName string
	CertsPath  string

	// MapDir is the directory chunks are loaded from, unless MapS3.Bucket
	// is set.
	MapDir string
	MapS3  mapdata.S3Config

	Username string
	Password string
	// Register creates the account with Email before logging in.
	Register bool
	Email    string

	FPS                int
	MaxPacketsPerFrame int
	PingInterval       time.Duration
}

// DefaultConfig returns the settings used when flags do not override them.
func DefaultConfig() Config {
	return Config{
		Transport:          anet.TransportTCP,
		ServerName:         "localhost",
		FPS:                60,
		MaxPacketsPerFrame: 32,
		PingInterval:       5 * time.Second,
	}
}

// Store returns the chunk store described by cfg.
func (cfg Config) Store() mapdata.Store {
	if cfg.MapS3.Bucket != "" {
		return mapdata.NewS3Store(cfg.MapS3)
	}
	return mapdata.NewFileStore(cfg.MapDir)
}

// Client is a connected game client. Everything except Run's receive
// goroutine happens on the logic thread calling Tick.
type Client struct {
	cfg     Config
	socket  *anet.Socket
	router  *router.PacketRouter
	metrics *metrics.Metrics

	World   *world.World
	Systems *content.Systems
	Content *content.Content
	Buffer  *buffer.BufferTask

	ctx      *router.Context
	packets  chan *anet.Message
	start    time.Time
	loggedIn bool
	lastPing float32
}

// Option configures a Client.
type Option func(*options)

type options struct {
	alert   router.Alert
	store   mapdata.Store
	metrics *metrics.Metrics
}

// WithAlert sets the surface alerts are shown on. By default they are
// logged.
func WithAlert(a router.Alert) Option {
	return func(o *options) { o.alert = a }
}

// WithStore overrides the chunk store built from the config.
func WithStore(s mapdata.Store) Option {
	return func(o *options) { o.store = s }
}

// WithMetrics reports client activity to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// New returns a client speaking over conn. tlsConfig is used for the secure
// session once the handshake starts.
func New(cfg Config, conn gonet.Conn, tlsConfig *tls.Config, opts ...Option) *Client {
	o := options{alert: logAlert{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.store == nil {
		o.store = cfg.Store()
	}
	if cfg.MaxPacketsPerFrame <= 0 {
		cfg.MaxPacketsPerFrame = DefaultConfig().MaxPacketsPerFrame
	}

	c := &Client{
		cfg:     cfg,
		socket:  anet.NewSocket(conn, tlsConfig, anet.WithMetrics(o.metrics)),
		router:  handledata.Router(router.WithMetrics(o.metrics)),
		metrics: o.metrics,
		World:   world.New(),
		Systems: content.NewSystems(800, 600),
		Content: content.New(),
		Buffer:  buffer.New(o.store, buffer.WithMetrics(o.metrics)),
		packets: make(chan *anet.Message, packetQueue),
		start:   time.Now(),
	}
	c.ctx = &router.Context{
		Socket:  c.socket,
		World:   c.World,
		Systems: c.Systems,
		Content: c.Content,
		Alert:   o.alert,
		Buffer:  c.Buffer,
	}
	return c
}

// Dial connects to cfg.Addr and returns a client for the connection.
func Dial(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	tlsConfig, err := anet.BuildTLSConfig(cfg.CertsPath, cfg.ServerName)
	if err != nil {
		return nil, errors.Wrap(err, "building tls config")
	}
	conn, err := anet.Dial(ctx, cfg.Transport, cfg.Addr)
	if err != nil {
		return nil, err
	}
	glog.Infof("connected to %s over %s", cfg.Addr, cfg.Transport)
	return New(cfg, conn, tlsConfig, opts...), nil
}

// Socket returns the client connection.
func (c *Client) Socket() *anet.Socket {
	return c.socket
}

// Seconds returns the time since the client started.
func (c *Client) Seconds() float32 {
	return float32(time.Since(c.start).Seconds())
}

// Deliver hands a received packet to the logic thread. It blocks while the
// frame's packet queue is full.
func (c *Client) Deliver(ctx context.Context, m *anet.Message) error {
	select {
	case c.packets <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Tick runs one frame: up to MaxPacketsPerFrame packets are handled, then
// one deferred map task and one chat line.
//
// An invalid packet or a transport failure is returned and the caller is
// expected to disconnect. A malformed payload only drops that packet.
func (c *Client) Tick(ctx context.Context, seconds float32) error {
	c.ctx.Seconds = seconds

packets:
	for i := 0; i < c.cfg.MaxPacketsPerFrame; i++ {
		select {
		case m := <-c.packets:
			if err := c.handle(m); err != nil {
				return err
			}
		default:
			break packets
		}
	}

	if err := c.afterPackets(seconds); err != nil {
		return err
	}
	c.Buffer.ProcessBuffer(ctx, c.Systems, c.Content)
	return nil
}

func (c *Client) handle(m *anet.Message) error {
	err := c.router.HandleData(c.ctx, m)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, router.ErrInvalidPacket), anet.IsTransport(err):
		return err
	default:
		glog.Warningf("dropping packet: %v", err)
		return nil
	}
}

// afterPackets sends what the client owes the server once the handled
// packets moved the connection forward: the login once the secure channel
// is being set up, and periodic pings while in game.
func (c *Client) afterPackets(seconds float32) error {
	state := c.socket.EncryptionState()
	if state == anet.EncryptionWriteTransfering && !c.loggedIn && c.cfg.Username != "" {
		c.loggedIn = true
		if c.cfg.Register {
			if err := protocol.SendRegister(c.socket, c.cfg.Username, c.cfg.Password, c.cfg.Email, 0, Version); err != nil {
				return err
			}
		} else if err := protocol.SendLogin(c.socket, c.cfg.Username, c.cfg.Password, Version, ""); err != nil {
			return err
		}
		glog.Infof("logging in as %q", c.cfg.Username)
	}

	interval := float32(c.cfg.PingInterval.Seconds())
	if state == anet.EncryptionReadWrite && interval > 0 && seconds-c.lastPing >= interval {
		c.lastPing = seconds
		c.Content.Game.PingSentAt = seconds
		if err := protocol.SendPing(c.socket); err != nil {
			return err
		}
	}
	return nil
}

// Run receives packets on a separate goroutine and ticks the logic loop at
// cfg.FPS until ctx is done or the connection fails. The socket is closed
// on return.
func (c *Client) Run(ctx context.Context) error {
	defer c.socket.Close()

	fps := c.cfg.FPS
	if fps <= 0 {
		fps = DefaultConfig().FPS
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.socket.ReceiveLoop(gctx, c.packets)
	})
	g.Go(func() error {
		ticker := time.NewTicker(time.Second / time.Duration(fps))
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				if err := c.Tick(gctx, c.Seconds()); err != nil {
					return err
				}
			}
		}
	})
	err := g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// logAlert shows alerts in the log.
type logAlert struct{}

func (logAlert) Show(_ *content.Systems, kind uint8, message string) {
	glog.Warningf("alert (%d): %s", kind, message)
}

func (logAlert) Float(_ *content.Systems, kind uint8, message string) {
	glog.Infof("notice (%d): %s", kind, message)
}
