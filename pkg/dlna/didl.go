package dlna

import (
	"encoding/xml"
	"time"
)

// XML namespaces used in DIDL-Lite documents.
const (
	NamespaceDIDL = "urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/"
	NamespaceDC   = "http://purl.org/dc/elements/1.1/"
	NamespaceUPnP = "urn:schemas-upnp-org:metadata-1-0/upnp/"
	NamespaceDLNA = "urn:schemas-dlna-org:metadata-1-0/"
	NamespaceMS   = "urn:schemas-media-share:metadata-1-0/"
)

// UPnP object classes.
const (
	ClassStorageFolder = "object.container.storageFolder"
	ClassVideoItem     = "object.item.videoItem"
	ClassAudioItem     = "object.item.audioItem.musicTrack"
	ClassImageItem     = "object.item.imageItem.photo"
)

// DIDLLite is the root of a ContentDirectory result document.
type DIDLLite struct {
	XMLName    xml.Name    `xml:"DIDL-Lite"`
	Xmlns      string      `xml:"xmlns,attr"`
	XmlnsDC    string      `xml:"xmlns:dc,attr"`
	XmlnsUPnP  string      `xml:"xmlns:upnp,attr"`
	XmlnsDLNA  string      `xml:"xmlns:dlna,attr"`
	XmlnsMS    string      `xml:"xmlns:ms,attr"`
	Containers []Container `xml:"container"`
	Items      []Item      `xml:"item"`
}

// Object holds fields shared by containers and items.
type Object struct {
	ID          string `xml:"id,attr"`
	ParentID    string `xml:"parentID,attr"`
	Restricted  int    `xml:"restricted,attr"`
	Title       string `xml:"dc:title"`
	Class       string `xml:"upnp:class"`
	Date        string `xml:"dc:date,omitempty"`
	Artist      string `xml:"upnp:artist,omitempty"`
	Album       string `xml:"upnp:album,omitempty"`
	AlbumArtURI string `xml:"upnp:albumArtURI,omitempty"`
}

// Container is a browsable folder.
type Container struct {
	Object
	XMLName    xml.Name `xml:"container"`
	ChildCount int      `xml:"childCount,attr"`
	Searchable int      `xml:"searchable,attr"`
}

// Item is a playable media object.
type Item struct {
	Object
	XMLName xml.Name   `xml:"item"`
	Res     []Resource `xml:"res"`
	NextAV  string     `xml:"ms:nextAV,omitempty"`
}

// Resource points at the bytes of an item.
type Resource struct {
	ProtocolInfo string `xml:"protocolInfo,attr"`
	Size         int64  `xml:"size,attr,omitempty"`
	Duration     string `xml:"duration,attr,omitempty"`
	URL          string `xml:",chardata"`
}

// NewDIDLLite returns an empty document with namespaces declared.
func NewDIDLLite() DIDLLite {
	return DIDLLite{
		Xmlns:     NamespaceDIDL,
		XmlnsDC:   NamespaceDC,
		XmlnsUPnP: NamespaceUPnP,
		XmlnsDLNA: NamespaceDLNA,
		XmlnsMS:   NamespaceMS,
	}
}

// Len returns the number of objects in the document.
func (d DIDLLite) Len() int {
	return len(d.Containers) + len(d.Items)
}

// Marshal renders the document without an XML declaration.
func (d DIDLLite) Marshal() (string, error) {
	out, err := xml.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// FormatDate renders a DIDL dc:date value.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
