package dlna

import (
	"fmt"
	"strings"
)

// DLNA.ORG_FLAGS values for the two transfer modes we serve.
const (
	FlagsStreaming   = "01700000000000000000000000000000"
	FlagsInteractive = "00D00000000000000000000000000000"
)

// Transfer modes for the transferMode.dlna.org header.
const (
	TransferStreaming   = "Streaming"
	TransferInteractive = "Interactive"
)

// ContentFeatures renders the fourth field of a protocolInfo and the
// contentFeatures.dlna.org header.
type ContentFeatures struct {
	ProfileName     string
	SupportTimeSeek bool
	SupportRange    bool
	Transcoded      bool
	Interactive     bool
}

func binaryInt(b bool) uint {
	if b {
		return 1
	}
	return 0
}

// String formats the features as DLNA.ORG_* parameters.
func (cf ContentFeatures) String() string {
	params := make([]string, 0, 4)
	if cf.ProfileName != "" {
		params = append(params, "DLNA.ORG_PN="+cf.ProfileName)
	}
	params = append(params, fmt.Sprintf("DLNA.ORG_OP=%d%d", binaryInt(cf.SupportTimeSeek), binaryInt(cf.SupportRange)))
	params = append(params, fmt.Sprintf("DLNA.ORG_CI=%d", binaryInt(cf.Transcoded)))
	flags := FlagsStreaming
	if cf.Interactive {
		flags = FlagsInteractive
	}
	params = append(params, "DLNA.ORG_FLAGS="+flags)
	return strings.Join(params, ";")
}

// TransferMode returns the transferMode.dlna.org value for the features.
func (cf ContentFeatures) TransferMode() string {
	if cf.Interactive {
		return TransferInteractive
	}
	return TransferStreaming
}

// ProtocolInfo formats an http-get protocolInfo string.
func ProtocolInfo(mime string, cf ContentFeatures) string {
	return "http-get:*:" + mime + ":" + cf.String()
}
