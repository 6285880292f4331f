package netif

import (
	"net"
	"testing"
)

func TestRankIPv4(t *testing.T) {
	in := []net.IP{
		net.ParseIP("169.254.1.2"),
		net.ParseIP("8.8.8.8"),
		net.ParseIP("172.20.0.5"),
		net.ParseIP("10.0.0.2"),
		net.ParseIP("192.168.1.10"),
	}
	out := RankIPv4(in)
	expected := []string{"192.168.1.10", "10.0.0.2", "172.20.0.5", "8.8.8.8", "169.254.1.2"}
	for i, ip := range out {
		if ip.String() != expected[i] {
			t.Fatalf("unexpected order %v", out)
		}
	}
	if in[0].String() != "169.254.1.2" {
		t.Fatalf("input should not be reordered")
	}
}

func TestFirstIPv4SkipsIPv6AndLoopback(t *testing.T) {
	addrs := []net.Addr{
		&net.IPNet{IP: net.ParseIP("::1"), Mask: net.CIDRMask(128, 128)},
		&net.IPNet{IP: net.ParseIP("127.0.0.1"), Mask: net.CIDRMask(8, 32)},
		&net.IPNet{IP: net.ParseIP("fe80::1"), Mask: net.CIDRMask(64, 128)},
		&net.IPNet{IP: net.ParseIP("192.168.0.4"), Mask: net.CIDRMask(24, 32)},
	}
	if ip := firstIPv4(addrs); ip == nil || ip.String() != "192.168.0.4" {
		t.Fatalf("unexpected ip %v", ip)
	}
	if ip := firstIPv4(nil); ip != nil {
		t.Fatalf("expected nil")
	}
}
