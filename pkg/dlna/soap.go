package dlna

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
)

// SOAP and UPnP control namespaces.
const (
	NamespaceSOAPEnvelope = "http://schemas.xmlsoap.org/soap/envelope/"
	NamespaceSOAPEncoding = "http://schemas.xmlsoap.org/soap/encoding/"
	NamespaceControl      = "urn:schemas-upnp-org:control-1-0"
)

// UPnP control error codes.
const (
	ErrorInvalidAction = 401
	ErrorInvalidArgs   = 402
	ErrorActionFailed  = 501
	ErrorNoSuchObject  = 701
)

// ErrMalformedEnvelope is returned when a control request is not a SOAP action.
var ErrMalformedEnvelope = errors.New("malformed soap envelope")

// Arg is a single named SOAP action argument.
type Arg struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

// Action is a decoded SOAP action element.
type Action struct {
	XMLName xml.Name
	Args    []Arg `xml:",any"`
}

type envelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		Action *Action `xml:",any"`
	} `xml:"Body"`
}

// Name returns the action name.
func (a Action) Name() string {
	return a.XMLName.Local
}

// Arg returns the trimmed value of an argument and whether it was present.
func (a Action) Arg(name string) (string, bool) {
	for _, arg := range a.Args {
		if arg.XMLName.Local == name {
			return strings.TrimSpace(arg.Value), true
		}
	}
	return "", false
}

// ParseAction decodes a SOAP envelope and returns its single action.
func ParseAction(body []byte) (Action, error) {
	var env envelope
	if err := xml.Unmarshal(body, &env); err != nil {
		return Action{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if env.Body.Action == nil || env.Body.Action.XMLName.Local == "" {
		return Action{}, fmt.Errorf("%w: missing action", ErrMalformedEnvelope)
	}
	return *env.Body.Action, nil
}

// ResponseArg is one output argument of an action response.
type ResponseArg struct {
	Name  string
	Value string
}

// BuildActionResponse renders a SOAP response envelope for action.
func BuildActionResponse(serviceType string, action string, args []ResponseArg) []byte {
	var buf bytes.Buffer
	writeEnvelopeStart(&buf)
	buf.WriteString(`<u:` + action + `Response xmlns:u="` + serviceType + `">`)
	for _, arg := range args {
		buf.WriteString(`<` + arg.Name + `>`)
		_ = xml.EscapeText(&buf, []byte(arg.Value))
		buf.WriteString(`</` + arg.Name + `>`)
	}
	buf.WriteString(`</u:` + action + `Response>`)
	writeEnvelopeEnd(&buf)
	return buf.Bytes()
}

// BuildFault renders a UPnP error inside a SOAP fault envelope.
func BuildFault(code int, description string) []byte {
	var buf bytes.Buffer
	writeEnvelopeStart(&buf)
	buf.WriteString(`<s:Fault><faultcode>s:Client</faultcode><faultstring>UPnPError</faultstring><detail>`)
	buf.WriteString(`<UPnPError xmlns="` + NamespaceControl + `">`)
	buf.WriteString(fmt.Sprintf(`<errorCode>%d</errorCode>`, code))
	buf.WriteString(`<errorDescription>`)
	_ = xml.EscapeText(&buf, []byte(description))
	buf.WriteString(`</errorDescription></UPnPError></detail></s:Fault>`)
	writeEnvelopeEnd(&buf)
	return buf.Bytes()
}

func writeEnvelopeStart(buf *bytes.Buffer) {
	buf.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	buf.WriteString(`<s:Envelope xmlns:s="` + NamespaceSOAPEnvelope + `" s:encodingStyle="` + NamespaceSOAPEncoding + `">`)
	buf.WriteString(`<s:Body>`)
}

func writeEnvelopeEnd(buf *bytes.Buffer) {
	buf.WriteString(`</s:Body></s:Envelope>`)
}

// SOAPActionName extracts the action from a SOAPACTION header value
// such as "urn:schemas-upnp-org:service:ContentDirectory:1#Browse".
func SOAPActionName(header string) string {
	header = strings.Trim(strings.TrimSpace(header), `"`)
	if idx := strings.LastIndex(header, "#"); idx >= 0 {
		return header[idx+1:]
	}
	return ""
}
