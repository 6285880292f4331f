package core

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
)

// DeviceIdentity identifies the media server on the network.
type DeviceIdentity struct {
	UUID         string
	FriendlyName string
}

// NewDeviceIdentity derives a stable identity from hostname.
func NewDeviceIdentity(hostname string, friendlyName string) DeviceIdentity {
	hostname = strings.TrimSpace(hostname)
	if hostname == "" {
		hostname = "localhost"
	}
	if strings.TrimSpace(friendlyName) == "" {
		friendlyName = fmt.Sprintf("Media Share (%s)", hostname)
	}
	return DeviceIdentity{
		UUID:         uuid.NewSHA1(uuid.NameSpaceDNS, []byte(hostname)).String(),
		FriendlyName: friendlyName,
	}
}

// HostIdentity derives the identity of the local host.
func HostIdentity(friendlyName string) DeviceIdentity {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = ""
	}
	return NewDeviceIdentity(hostname, friendlyName)
}
