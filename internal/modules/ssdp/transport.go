package ssdp

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/mikey-austin/media_share/internal/adapters/netif"
	"github.com/mikey-austin/media_share/pkg/dlna"
	"go.uber.org/zap"
	"golang.org/x/net/ipv4"
)

// MulticastTTL is the IP TTL of outgoing NOTIFY datagrams.
const MulticastTTL = 4

var errNotListening = errors.New("ssdp socket not bound")

// Transport moves SSDP datagrams. The UDP implementation is used in
// production; tests inject an in-memory one.
type Transport interface {
	// Interfaces lists the local interfaces to announce on.
	Interfaces() ([]netif.Interface, error)
	// Listen binds the shared SSDP port for receiving.
	Listen() error
	// Join joins the SSDP multicast group on iface.
	Join(iface netif.Interface) error
	// Send writes a multicast datagram out of iface.
	Send(iface netif.Interface, payload []byte, dst *net.UDPAddr) error
	// Reply writes a unicast datagram.
	Reply(payload []byte, dst *net.UDPAddr) error
	// ReadFrom blocks for at most timeout waiting for a datagram.
	ReadFrom(buf []byte, timeout time.Duration) (int, *net.UDPAddr, error)
	Close() error
}

type udpTransport struct {
	log   *zap.Logger
	group *net.UDPAddr

	mu     sync.Mutex
	listen *ipv4.PacketConn
	send   *ipv4.PacketConn
}

func newUDPTransport(log *zap.Logger) *udpTransport {
	group, _ := net.ResolveUDPAddr("udp4", dlna.MulticastAddr)
	return &udpTransport{log: log, group: group}
}

func (t *udpTransport) Interfaces() ([]netif.Interface, error) {
	return netif.MulticastIPv4()
}

func (t *udpTransport) Listen() error {
	lc := net.ListenConfig{Control: reuseControl}
	conn, err := lc.ListenPacket(context.Background(), "udp4", "0.0.0.0:1900")
	if err != nil {
		return err
	}
	p := ipv4.NewPacketConn(conn)
	if err := p.SetMulticastTTL(MulticastTTL); err != nil {
		t.log.Debug("set multicast ttl", zap.Error(err))
	}
	if err := p.SetMulticastLoopback(true); err != nil {
		t.log.Debug("set multicast loopback", zap.Error(err))
	}
	t.mu.Lock()
	t.listen = p
	t.mu.Unlock()
	return nil
}

func (t *udpTransport) Join(iface netif.Interface) error {
	t.mu.Lock()
	p := t.listen
	t.mu.Unlock()
	if p == nil {
		return errNotListening
	}
	ifi := iface.Iface
	return p.JoinGroup(&ifi, t.group)
}

// sender returns the bound SSDP socket, or an ephemeral one when the shared
// port could not be bound.
func (t *udpTransport) sender() (*ipv4.PacketConn, error) {
	if t.listen != nil {
		return t.listen, nil
	}
	if t.send != nil {
		return t.send, nil
	}
	conn, err := net.ListenPacket("udp4", "0.0.0.0:0")
	if err != nil {
		return nil, err
	}
	p := ipv4.NewPacketConn(conn)
	if err := p.SetMulticastTTL(MulticastTTL); err != nil {
		t.log.Debug("set multicast ttl", zap.Error(err))
	}
	t.send = p
	return p, nil
}

func (t *udpTransport) Send(iface netif.Interface, payload []byte, dst *net.UDPAddr) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, err := t.sender()
	if err != nil {
		return err
	}
	ifi := iface.Iface
	if err := p.SetMulticastInterface(&ifi); err != nil {
		return err
	}
	_, err = p.WriteTo(payload, nil, dst)
	return err
}

func (t *udpTransport) Reply(payload []byte, dst *net.UDPAddr) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, err := t.sender()
	if err != nil {
		return err
	}
	_, err = p.WriteTo(payload, nil, dst)
	return err
}

func (t *udpTransport) ReadFrom(buf []byte, timeout time.Duration) (int, *net.UDPAddr, error) {
	t.mu.Lock()
	p := t.listen
	t.mu.Unlock()
	if p == nil {
		return 0, nil, errNotListening
	}
	if err := p.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return 0, nil, err
	}
	n, _, src, err := p.ReadFrom(buf)
	if err != nil {
		return 0, nil, err
	}
	addr, _ := src.(*net.UDPAddr)
	return n, addr, nil
}

func (t *udpTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	var errs []error
	if t.listen != nil {
		errs = append(errs, t.listen.Close())
		t.listen = nil
	}
	if t.send != nil {
		errs = append(errs, t.send.Close())
		t.send = nil
	}
	return errors.Join(errs...)
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
