package netif

import (
	"errors"
	"net"
	"sort"
)

// ErrNoInterfaces is returned when no usable IPv4 interface exists.
var ErrNoInterfaces = errors.New("no usable ipv4 interface")

// Interface is a local IPv4 address bound to a network interface.
type Interface struct {
	Iface net.Interface
	Addr  net.IP
}

// Name returns the interface name.
func (i Interface) Name() string {
	return i.Iface.Name
}

// MulticastIPv4 lists up, non-loopback, multicast-capable interfaces with the
// first IPv4 address of each.
func MulticastIPv4() ([]Interface, error) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	var out []Interface
	for _, iface := range interfaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagMulticast == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		if ip := firstIPv4(addrs); ip != nil {
			out = append(out, Interface{Iface: iface, Addr: ip})
		}
	}
	if len(out) == 0 {
		return nil, ErrNoInterfaces
	}
	return out, nil
}

// PreferredIPv4 returns the best non-loopback IPv4 address to advertise.
func PreferredIPv4() (string, error) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return "", err
	}
	var ips []net.IP
	for _, iface := range interfaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipv4 := ipnet.IP.To4(); ipv4 != nil {
					ips = append(ips, ipv4)
				}
			}
		}
	}
	ips = RankIPv4(ips)
	if len(ips) == 0 {
		return "", ErrNoInterfaces
	}
	return ips[0].String(), nil
}

// RankIPv4 orders addresses LAN first: 192.168/16, 10/8, 172.16/12, then
// other addresses, with link-local last.
func RankIPv4(ips []net.IP) []net.IP {
	out := append([]net.IP(nil), ips...)
	sort.SliceStable(out, func(i, j int) bool {
		return rank(out[i]) < rank(out[j])
	})
	return out
}

func rank(ip net.IP) int {
	ip = ip.To4()
	switch {
	case ip == nil:
		return 5
	case ip[0] == 192 && ip[1] == 168:
		return 0
	case ip[0] == 10:
		return 1
	case ip[0] == 172 && ip[1] >= 16 && ip[1] <= 31:
		return 2
	case ip.IsLinkLocalUnicast():
		return 4
	default:
		return 3
	}
}

func firstIPv4(addrs []net.Addr) net.IP {
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		if ipv4 := ipnet.IP.To4(); ipv4 != nil && !ipv4.IsLoopback() {
			return ipv4
		}
	}
	return nil
}
