package dlna

import "strings"

// SSDP multicast group and port.
const (
	MulticastGroup = "239.255.255.250"
	SSDPPort       = 1900
	MulticastAddr  = "239.255.255.250:1900"
)

// Device and service types advertised by the media server.
const (
	RootDeviceType        = "upnp:rootdevice"
	MediaServerType       = "urn:schemas-upnp-org:device:MediaServer:1"
	ContentDirectoryType  = "urn:schemas-upnp-org:service:ContentDirectory:1"
	ConnectionManagerType = "urn:schemas-upnp-org:service:ConnectionManager:1"
	AVTransportType       = "urn:schemas-upnp-org:service:AVTransport:1"
)

// Service IDs used in the device description.
const (
	ContentDirectoryID  = "urn:upnp-org:serviceId:ContentDirectory"
	ConnectionManagerID = "urn:upnp-org:serviceId:ConnectionManager"
	AVTransportID       = "urn:upnp-org:serviceId:AVTransport"
)

// SSDP notification sub types and search targets.
const (
	NTSAlive      = "ssdp:alive"
	NTSByeBye     = "ssdp:byebye"
	SearchAll     = "ssdp:all"
	DiscoverMan   = `"ssdp:discover"`
	DefaultMaxAge = 1800
)

// HTTP headers specific to DLNA streaming.
const (
	HeaderTransferMode    = "transferMode.dlna.org"
	HeaderContentFeatures = "contentFeatures.dlna.org"
	HeaderTimeSeekRange   = "TimeSeekRange.dlna.org"
	HeaderContentDuration = "X-Content-Duration"
)

// Service describes one UPnP service exposed by the device.
type Service struct {
	Type       string
	ID         string
	Name       string
	SCPDURL    string
	ControlURL string
	EventURL   string
}

// Services lists the services of the media server in description order.
func Services() []Service {
	return []Service{
		newService(ContentDirectoryType, ContentDirectoryID, "ContentDirectory"),
		newService(ConnectionManagerType, ConnectionManagerID, "ConnectionManager"),
		newService(AVTransportType, AVTransportID, "AVTransport"),
	}
}

func newService(serviceType string, id string, name string) Service {
	return Service{
		Type:       serviceType,
		ID:         id,
		Name:       name,
		SCPDURL:    "/" + name + ".xml",
		ControlURL: "/" + name + "/control",
		EventURL:   "/" + name + "/event",
	}
}

// AdvertisedTypes returns every NT/ST value the device answers for.
func AdvertisedTypes(deviceUUID string) []string {
	return []string{
		RootDeviceType,
		"uuid:" + deviceUUID,
		MediaServerType,
		ContentDirectoryType,
		ConnectionManagerType,
		AVTransportType,
	}
}

// USN builds the unique service name for a notification type.
func USN(deviceUUID string, nt string) string {
	udn := "uuid:" + deviceUUID
	if nt == udn {
		return udn
	}
	return udn + "::" + nt
}

// UDN returns the unique device name.
func UDN(deviceUUID string) string {
	return "uuid:" + strings.TrimPrefix(deviceUUID, "uuid:")
}
