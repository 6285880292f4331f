package ssdp

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/mikey-austin/media_share/internal/adapters/clock"
	"github.com/mikey-austin/media_share/internal/adapters/metrics"
	"github.com/mikey-austin/media_share/internal/adapters/netif"
	"github.com/mikey-austin/media_share/internal/adapters/retry"
	"github.com/mikey-austin/media_share/internal/core"
	"github.com/mikey-austin/media_share/pkg/dlna"
	"go.uber.org/zap"
)

type socketMode int

const (
	socketFailed socketMode = iota
	socketSendOnly
	socketFull
)

func (m socketMode) String() string {
	switch m {
	case socketFull:
		return "full"
	case socketSendOnly:
		return "send-only"
	default:
		return "failed"
	}
}

// Config controls announcement timing and identity.
type Config struct {
	Host       string
	Port       int
	Identity   core.DeviceIdentity
	ServerName string
	MaxAge     int

	Burst           int
	BurstGap        time.Duration
	InitialInterval time.Duration
	MaxInterval     time.Duration
	ReadTimeout     time.Duration
	MinDelay        time.Duration
	MaxDelay        time.Duration
	ByeByeWait      time.Duration
	Retry           retry.Policy
}

// DefaultConfig returns the standard SSDP timings.
func DefaultConfig() Config {
	return Config{
		MaxAge:          dlna.DefaultMaxAge,
		Burst:           2,
		BurstGap:        500 * time.Millisecond,
		InitialInterval: 60 * time.Second,
		MaxInterval:     1800 * time.Second,
		ReadTimeout:     time.Second,
		MinDelay:        10 * time.Millisecond,
		MaxDelay:        500 * time.Millisecond,
		ByeByeWait:      time.Second,
		Retry:           retry.Default,
	}
}

// Stats is a snapshot of the announcement state.
type Stats struct {
	Mode          string
	Interfaces    int
	Announcements uint64
	Interval      time.Duration
	LastAnnounce  time.Time
	Discoveries   uint64
	Responses     uint64
}

// Service announces the media server and answers M-SEARCH requests.
type Service struct {
	log       *zap.Logger
	cfg       Config
	transport Transport
	clock     clock.Clock
	location  string
	types     []string
	group     *net.UDPAddr
	host      net.IP
	rng       *rand.Rand

	ifaces     []netif.Interface
	responders sync.WaitGroup

	mu    sync.Mutex
	stats Stats
}

// New creates the SSDP service. A nil transport uses UDP multicast sockets.
func New(log *zap.Logger, cfg Config, transport Transport, clk clock.Clock) (*Service, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Host == "" || cfg.Port <= 0 {
		return nil, errors.New("ssdp host and port required")
	}
	if cfg.Identity.UUID == "" {
		return nil, errors.New("ssdp device uuid required")
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = dlna.DefaultMaxAge
	}
	if cfg.ServerName == "" {
		cfg.ServerName = DefaultServerName("")
	}
	if cfg.Retry.Attempts <= 0 {
		cfg.Retry = retry.Default
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = time.Second
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = DefaultConfig().InitialInterval
	}
	if cfg.MaxInterval < cfg.InitialInterval {
		cfg.MaxInterval = cfg.InitialInterval
	}
	if transport == nil {
		transport = newUDPTransport(log)
	}
	if clk == nil {
		clk = clock.System{}
	}
	group, err := net.ResolveUDPAddr("udp4", dlna.MulticastAddr)
	if err != nil {
		return nil, err
	}
	return &Service{
		log:       log,
		cfg:       cfg,
		transport: transport,
		clock:     clk,
		location:  fmt.Sprintf("http://%s/description.xml", net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))),
		types:     dlna.AdvertisedTypes(cfg.Identity.UUID),
		group:     group,
		host:      net.ParseIP(cfg.Host),
		rng:       rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x55d9)),
		stats:     Stats{Mode: socketFailed.String(), Interval: cfg.InitialInterval},
	}, nil
}

// Location returns the advertised description URL.
func (s *Service) Location() string {
	return s.location
}

// Stats returns a snapshot of the announcement state.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Run announces until ctx is done, then sends byebye and closes the sockets.
// A host without usable multicast interfaces is logged and not treated as an
// error.
func (s *Service) Run(ctx context.Context) error {
	mode := s.initializeSockets(ctx)
	s.mu.Lock()
	s.stats.Mode = mode.String()
	s.stats.Interfaces = len(s.ifaces)
	s.mu.Unlock()

	if mode == socketFailed {
		s.log.Warn("ssdp disabled, no multicast interface available")
		<-ctx.Done()
		return s.transport.Close()
	}
	s.log.Info("ssdp started",
		zap.String("mode", mode.String()),
		zap.Int("interfaces", len(s.ifaces)),
		zap.String("location", s.location),
	)

	var loops sync.WaitGroup
	loops.Go(func() { s.announceLoop(ctx) })
	if mode == socketFull {
		loops.Go(func() { s.receiveLoop(ctx) })
	}
	loops.Wait()
	s.responders.Wait()

	s.announce(context.Background(), dlna.NTSByeBye)
	if s.cfg.ByeByeWait > 0 {
		time.Sleep(s.cfg.ByeByeWait)
	}
	s.log.Info("ssdp stopped")
	return s.transport.Close()
}

// initializeSockets binds the SSDP port and joins the multicast group on each
// interface. Bind failure degrades to announcing only.
func (s *Service) initializeSockets(ctx context.Context) socketMode {
	ifaces, err := s.transport.Interfaces()
	if err != nil || len(ifaces) == 0 {
		s.log.Warn("no multicast interfaces", zap.Error(err))
		return socketFailed
	}
	s.ifaces = ifaces

	if err := s.transport.Listen(); err != nil {
		metrics.SSDPErrors.WithLabelValues("bind").Inc()
		s.log.Warn("ssdp bind failed, announcing without discovery", zap.Error(err))
		return socketSendOnly
	}

	joined := 0
	for _, iface := range ifaces {
		err := s.cfg.Retry.Do(ctx, func() error {
			return s.transport.Join(iface)
		})
		if err != nil {
			metrics.SSDPErrors.WithLabelValues("join").Inc()
			s.log.Warn("multicast join failed", zap.String("iface", iface.Name()), zap.Error(err))
			continue
		}
		s.log.Debug("joined multicast group", zap.String("iface", iface.Name()), zap.Stringer("addr", iface.Addr))
		joined++
	}
	if joined == 0 {
		return socketFailed
	}
	return socketFull
}

func (s *Service) announceLoop(ctx context.Context) {
	for i := 0; i < s.cfg.Burst; i++ {
		if i > 0 && !sleep(ctx, s.cfg.BurstGap) {
			return
		}
		s.announce(ctx, dlna.NTSAlive)
	}
	interval := s.cfg.InitialInterval
	for {
		if !sleep(ctx, interval) {
			return
		}
		s.announce(ctx, dlna.NTSAlive)
		interval = nextInterval(interval, s.cfg.MaxInterval)
		s.mu.Lock()
		s.stats.Interval = interval
		s.mu.Unlock()
	}
}

// announce sends one datagram per advertised type per interface.
func (s *Service) announce(ctx context.Context, nts string) {
	sent := 0
	for _, iface := range s.ifaces {
		for _, nt := range s.types {
			payload := s.notifyMessage(nt, nts)
			err := s.cfg.Retry.Do(ctx, func() error {
				return s.transport.Send(iface, payload, s.group)
			})
			if err != nil {
				metrics.SSDPErrors.WithLabelValues("notify").Inc()
				s.log.Warn("notify failed", zap.String("iface", iface.Name()), zap.String("nt", nt), zap.Error(err))
				continue
			}
			metrics.SSDPAnnouncements.WithLabelValues(nts).Inc()
			sent++
		}
	}
	if nts != dlna.NTSAlive {
		s.log.Debug("sent byebye", zap.Int("datagrams", sent))
		return
	}
	s.mu.Lock()
	s.stats.Announcements++
	s.stats.LastAnnounce = s.clock.Now()
	stats := s.stats
	s.mu.Unlock()
	s.log.Debug("announced",
		zap.Int("datagrams", sent),
		zap.Uint64("announcements", stats.Announcements),
		zap.Duration("interval", stats.Interval),
		zap.Uint64("discoveries", stats.Discoveries),
		zap.Uint64("responses", stats.Responses),
	)
}

func (s *Service) receiveLoop(ctx context.Context) {
	buf := make([]byte, 2048)
	for ctx.Err() == nil {
		var (
			n   int
			src *net.UDPAddr
		)
		err := s.cfg.Retry.Do(ctx, func() error {
			var rerr error
			n, src, rerr = s.transport.ReadFrom(buf, s.cfg.ReadTimeout)
			if rerr != nil && isTimeout(rerr) {
				return retry.Permanent(rerr)
			}
			return rerr
		})
		if err != nil {
			if isTimeout(err) || ctx.Err() != nil {
				continue
			}
			metrics.SSDPErrors.WithLabelValues("receive").Inc()
			s.log.Warn("ssdp receive failed", zap.Error(err))
			continue
		}
		s.handleDatagram(ctx, buf[:n], src)
	}
}

func (s *Service) handleDatagram(ctx context.Context, data []byte, src *net.UDPAddr) {
	if src == nil || s.ownHost(src.IP) {
		return
	}
	st, err := parseSearch(data)
	if err != nil {
		return
	}
	metrics.SSDPDiscoveryRequests.Inc()
	s.mu.Lock()
	s.stats.Discoveries++
	count := s.stats.Discoveries
	s.mu.Unlock()

	targets := s.searchTargets(st)
	if len(targets) == 0 {
		s.log.Debug("ignoring search", zap.String("st", st), zap.Stringer("from", src))
		return
	}
	delay := responseDelay(count, s.cfg.MinDelay, s.cfg.MaxDelay, s.rng)
	dst := *src
	s.responders.Go(func() {
		if !sleep(ctx, delay) {
			return
		}
		for _, st := range targets {
			payload := s.searchResponse(st, s.clock.Now())
			err := s.cfg.Retry.Do(ctx, func() error {
				return s.transport.Reply(payload, &dst)
			})
			if err != nil {
				metrics.SSDPErrors.WithLabelValues("reply").Inc()
				s.log.Warn("search reply failed", zap.Stringer("to", &dst), zap.Error(err))
				continue
			}
			metrics.SSDPDiscoveryResponses.Inc()
			s.mu.Lock()
			s.stats.Responses++
			s.mu.Unlock()
			s.log.Debug("answered search", zap.String("st", st), zap.Stringer("to", &dst))
		}
	})
}

func (s *Service) ownHost(ip net.IP) bool {
	if ip == nil {
		return true
	}
	return ip.IsLoopback() || (s.host != nil && ip.Equal(s.host))
}

// searchTargets returns the types to answer for st. ssdp:all is answered
// with the root device only.
func (s *Service) searchTargets(st string) []string {
	if st == dlna.SearchAll {
		return []string{dlna.RootDeviceType}
	}
	for _, t := range s.types {
		if t == st {
			return []string{st}
		}
	}
	return nil
}

func nextInterval(current time.Duration, ceiling time.Duration) time.Duration {
	next := current * 2
	if next > ceiling || next <= 0 {
		return ceiling
	}
	return next
}

// responseDelay picks a delay in [lo, hi]. The upper bound grows with the
// number of searches seen, reaching hi after ten.
func responseDelay(count uint64, lo time.Duration, hi time.Duration, rng *rand.Rand) time.Duration {
	if hi <= lo {
		return lo
	}
	if count > 10 {
		count = 10
	}
	spread := (hi - lo) * time.Duration(count) / 10
	if spread <= 0 {
		return lo
	}
	return lo + time.Duration(rng.Int64N(int64(spread)+1))
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
