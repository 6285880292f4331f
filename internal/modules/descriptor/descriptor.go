package descriptor

import (
	"bytes"
	"encoding/xml"
	"net/http"
	"strconv"
	"strings"

	"github.com/mikey-austin/media_share/internal/core"
	"github.com/mikey-austin/media_share/pkg/dlna"
	"go.uber.org/zap"
)

// DescriptionPath is the LOCATION path advertised over SSDP.
const DescriptionPath = "/description.xml"

// Descriptor serves the device description and service SCPDs.
type Descriptor struct {
	log       *zap.Logger
	documents map[string][]byte
}

type root struct {
	XMLName     xml.Name    `xml:"root"`
	Xmlns       string      `xml:"xmlns,attr"`
	XmlnsDLNA   string      `xml:"xmlns:dlna,attr"`
	SpecVersion specVersion `xml:"specVersion"`
	URLBase     string      `xml:"URLBase"`
	Device      device      `xml:"device"`
}

type specVersion struct {
	Major int `xml:"major"`
	Minor int `xml:"minor"`
}

type device struct {
	DeviceType       string    `xml:"deviceType"`
	FriendlyName     string    `xml:"friendlyName"`
	Manufacturer     string    `xml:"manufacturer"`
	ManufacturerURL  string    `xml:"manufacturerURL"`
	ModelDescription string    `xml:"modelDescription"`
	ModelName        string    `xml:"modelName"`
	ModelNumber      string    `xml:"modelNumber"`
	SerialNumber     string    `xml:"serialNumber"`
	UDN              string    `xml:"UDN"`
	DLNADoc          string    `xml:"dlna:X_DLNADOC"`
	PresentationURL  string    `xml:"presentationURL"`
	Services         []service `xml:"serviceList>service"`
}

type service struct {
	ServiceType string `xml:"serviceType"`
	ServiceID   string `xml:"serviceId"`
	SCPDURL     string `xml:"SCPDURL"`
	ControlURL  string `xml:"controlURL"`
	EventSubURL string `xml:"eventSubURL"`
}

// New renders every document once for identity and baseURL.
func New(log *zap.Logger, identity core.DeviceIdentity, baseURL string, version string) (*Descriptor, error) {
	if log == nil {
		log = zap.NewNop()
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if strings.TrimSpace(version) == "" {
		version = "dev"
	}
	desc := root{
		Xmlns:       "urn:schemas-upnp-org:device-1-0",
		XmlnsDLNA:   "urn:schemas-dlna-org:device-1-0",
		SpecVersion: specVersion{Major: 1, Minor: 0},
		URLBase:     baseURL + "/",
		Device: device{
			DeviceType:       dlna.MediaServerType,
			FriendlyName:     identity.FriendlyName,
			Manufacturer:     "media_share",
			ManufacturerURL:  "https://github.com/mikey-austin/media_share",
			ModelDescription: "DLNA media server",
			ModelName:        "msd",
			ModelNumber:      version,
			SerialNumber:     identity.UUID,
			UDN:              dlna.UDN(identity.UUID),
			DLNADoc:          "DMS-1.50",
			PresentationURL:  baseURL + "/",
		},
	}
	for _, svc := range dlna.Services() {
		desc.Device.Services = append(desc.Device.Services, service{
			ServiceType: svc.Type,
			ServiceID:   svc.ID,
			SCPDURL:     svc.SCPDURL,
			ControlURL:  svc.ControlURL,
			EventSubURL: svc.EventURL,
		})
	}

	documents := map[string][]byte{}
	payload, err := marshalDocument(desc)
	if err != nil {
		return nil, err
	}
	documents[DescriptionPath] = payload
	for _, svc := range dlna.Services() {
		payload, err := marshalDocument(scpdFor(svc.Type))
		if err != nil {
			return nil, err
		}
		documents[svc.SCPDURL] = payload
	}
	return &Descriptor{log: log, documents: documents}, nil
}

func marshalDocument(v any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Paths returns the served document paths.
func (d *Descriptor) Paths() []string {
	out := make([]string, 0, len(d.documents))
	out = append(out, DescriptionPath)
	for _, svc := range dlna.Services() {
		out = append(out, svc.SCPDURL)
	}
	return out
}

// Document returns the rendered document for path.
func (d *Descriptor) Document(path string) ([]byte, bool) {
	payload, ok := d.documents[path]
	return payload, ok
}

// ServeHTTP serves GET and HEAD for the fixed documents; any other path is 404.
func (d *Descriptor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	payload, ok := d.documents[r.URL.Path]
	if !ok {
		d.log.Debug("unknown descriptor", zap.String("path", r.URL.Path))
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", `text/xml; charset="utf-8"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(payload)
}
