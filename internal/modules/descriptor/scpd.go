package descriptor

import (
	"encoding/xml"

	"github.com/mikey-austin/media_share/pkg/dlna"
)

type scpd struct {
	XMLName     xml.Name        `xml:"scpd"`
	Xmlns       string          `xml:"xmlns,attr"`
	SpecVersion specVersion     `xml:"specVersion"`
	Actions     []action        `xml:"actionList>action"`
	Variables   []stateVariable `xml:"serviceStateTable>stateVariable"`
}

type action struct {
	Name      string     `xml:"name"`
	Arguments []argument `xml:"argumentList>argument,omitempty"`
}

type argument struct {
	Name      string `xml:"name"`
	Direction string `xml:"direction"`
	Variable  string `xml:"relatedStateVariable"`
}

type stateVariable struct {
	SendEvents    string   `xml:"sendEvents,attr"`
	Name          string   `xml:"name"`
	DataType      string   `xml:"dataType"`
	AllowedValues []string `xml:"allowedValueList>allowedValue,omitempty"`
}

func in(name string, variable string) argument {
	return argument{Name: name, Direction: "in", Variable: variable}
}

func out(name string, variable string) argument {
	return argument{Name: name, Direction: "out", Variable: variable}
}

func variable(name string, dataType string, allowed ...string) stateVariable {
	return stateVariable{SendEvents: "no", Name: name, DataType: dataType, AllowedValues: allowed}
}

func evented(name string, dataType string) stateVariable {
	return stateVariable{SendEvents: "yes", Name: name, DataType: dataType}
}

func scpdFor(serviceType string) scpd {
	doc := scpd{
		Xmlns:       "urn:schemas-upnp-org:service-1-0",
		SpecVersion: specVersion{Major: 1, Minor: 0},
	}
	switch serviceType {
	case dlna.ContentDirectoryType:
		doc.Actions = contentDirectoryActions()
		doc.Variables = contentDirectoryVariables()
	case dlna.ConnectionManagerType:
		doc.Actions = connectionManagerActions()
		doc.Variables = connectionManagerVariables()
	case dlna.AVTransportType:
		doc.Actions = avTransportActions()
		doc.Variables = avTransportVariables()
	}
	return doc
}

func contentDirectoryActions() []action {
	return []action{
		{Name: "Browse", Arguments: []argument{
			in("ObjectID", "A_ARG_TYPE_ObjectID"),
			in("BrowseFlag", "A_ARG_TYPE_BrowseFlag"),
			in("Filter", "A_ARG_TYPE_Filter"),
			in("StartingIndex", "A_ARG_TYPE_Index"),
			in("RequestedCount", "A_ARG_TYPE_Count"),
			in("SortCriteria", "A_ARG_TYPE_SortCriteria"),
			out("Result", "A_ARG_TYPE_Result"),
			out("NumberReturned", "A_ARG_TYPE_Count"),
			out("TotalMatches", "A_ARG_TYPE_Count"),
			out("UpdateID", "A_ARG_TYPE_UpdateID"),
		}},
		{Name: "GetSystemUpdateID", Arguments: []argument{out("Id", "SystemUpdateID")}},
		{Name: "GetSearchCapabilities", Arguments: []argument{out("SearchCaps", "SearchCapabilities")}},
		{Name: "GetSortCapabilities", Arguments: []argument{out("SortCaps", "SortCapabilities")}},
	}
}

func contentDirectoryVariables() []stateVariable {
	return []stateVariable{
		variable("A_ARG_TYPE_ObjectID", "string"),
		variable("A_ARG_TYPE_BrowseFlag", "string", "BrowseMetadata", "BrowseDirectChildren"),
		variable("A_ARG_TYPE_Filter", "string"),
		variable("A_ARG_TYPE_Index", "ui4"),
		variable("A_ARG_TYPE_Count", "ui4"),
		variable("A_ARG_TYPE_SortCriteria", "string"),
		variable("A_ARG_TYPE_Result", "string"),
		variable("A_ARG_TYPE_UpdateID", "ui4"),
		variable("SearchCapabilities", "string"),
		variable("SortCapabilities", "string"),
		evented("SystemUpdateID", "ui4"),
	}
}

func connectionManagerActions() []action {
	return []action{
		{Name: "GetProtocolInfo", Arguments: []argument{
			out("Source", "SourceProtocolInfo"),
			out("Sink", "SinkProtocolInfo"),
		}},
		{Name: "GetCurrentConnectionIDs", Arguments: []argument{
			out("ConnectionIDs", "CurrentConnectionIDs"),
		}},
		{Name: "GetCurrentConnectionInfo", Arguments: []argument{
			in("ConnectionID", "A_ARG_TYPE_ConnectionID"),
			out("RcsID", "A_ARG_TYPE_RcsID"),
			out("AVTransportID", "A_ARG_TYPE_AVTransportID"),
			out("ProtocolInfo", "A_ARG_TYPE_ProtocolInfo"),
			out("PeerConnectionManager", "A_ARG_TYPE_ConnectionManager"),
			out("PeerConnectionID", "A_ARG_TYPE_ConnectionID"),
			out("Direction", "A_ARG_TYPE_Direction"),
			out("Status", "A_ARG_TYPE_ConnectionStatus"),
		}},
	}
}

func connectionManagerVariables() []stateVariable {
	return []stateVariable{
		evented("SourceProtocolInfo", "string"),
		evented("SinkProtocolInfo", "string"),
		evented("CurrentConnectionIDs", "string"),
		variable("A_ARG_TYPE_ConnectionStatus", "string", "OK", "ContentFormatMismatch", "InsufficientBandwidth", "UnreliableChannel", "Unknown"),
		variable("A_ARG_TYPE_ConnectionManager", "string"),
		variable("A_ARG_TYPE_Direction", "string", "Input", "Output"),
		variable("A_ARG_TYPE_ProtocolInfo", "string"),
		variable("A_ARG_TYPE_ConnectionID", "i4"),
		variable("A_ARG_TYPE_AVTransportID", "i4"),
		variable("A_ARG_TYPE_RcsID", "i4"),
	}
}

func avTransportActions() []action {
	instance := in("InstanceID", "A_ARG_TYPE_InstanceID")
	return []action{
		{Name: "SetAVTransportURI", Arguments: []argument{
			instance,
			in("CurrentURI", "AVTransportURI"),
			in("CurrentURIMetaData", "AVTransportURIMetaData"),
		}},
		{Name: "GetTransportInfo", Arguments: []argument{
			instance,
			out("CurrentTransportState", "TransportState"),
			out("CurrentTransportStatus", "TransportStatus"),
			out("CurrentSpeed", "TransportPlaySpeed"),
		}},
		{Name: "Play", Arguments: []argument{instance, in("Speed", "TransportPlaySpeed")}},
		{Name: "Pause", Arguments: []argument{instance}},
		{Name: "Stop", Arguments: []argument{instance}},
	}
}

func avTransportVariables() []stateVariable {
	return []stateVariable{
		evented("LastChange", "string"),
		variable("A_ARG_TYPE_InstanceID", "ui4"),
		variable("AVTransportURI", "string"),
		variable("AVTransportURIMetaData", "string"),
		variable("TransportState", "string", "STOPPED", "PLAYING", "PAUSED_PLAYBACK", "TRANSITIONING", "NO_MEDIA_PRESENT"),
		variable("TransportStatus", "string", "OK", "ERROR_OCCURRED"),
		variable("TransportPlaySpeed", "string", "1"),
	}
}
