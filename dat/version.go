package dat

import "fmt"

// ClientVersion is a client version number such as 854 for 8.54.
type ClientVersion uint16

const (
	CLIENT_VERSION_UNKNOWN ClientVersion = 0
	CLIENT_VERSION_740     ClientVersion = 740
	CLIENT_VERSION_760     ClientVersion = 760
	CLIENT_VERSION_772     ClientVersion = 772
	CLIENT_VERSION_780     ClientVersion = 780
	CLIENT_VERSION_792     ClientVersion = 792
	CLIENT_VERSION_800     ClientVersion = 800
	CLIENT_VERSION_810     ClientVersion = 810
	CLIENT_VERSION_820     ClientVersion = 820
	CLIENT_VERSION_831     ClientVersion = 831
	CLIENT_VERSION_840     ClientVersion = 840
	CLIENT_VERSION_850     ClientVersion = 850
	CLIENT_VERSION_854     ClientVersion = 854
	CLIENT_VERSION_860     ClientVersion = 860
	CLIENT_VERSION_861     ClientVersion = 861
	CLIENT_VERSION_862     ClientVersion = 862
	CLIENT_VERSION_870     ClientVersion = 870
)

var signatureVersions = map[uint32]ClientVersion{
	0x43985288: CLIENT_VERSION_740,
	0x439D5A33: CLIENT_VERSION_760,
	0x44243C99: CLIENT_VERSION_772,
	0x44665426: CLIENT_VERSION_780,
	0x4529FA16: CLIENT_VERSION_792,
	0x46423082: CLIENT_VERSION_800,
	0x46784505: CLIENT_VERSION_810,
	0x48566418: CLIENT_VERSION_820,
	0x48DD6920: CLIENT_VERSION_831,
	0x493E723D: CLIENT_VERSION_840,
	0x4A1EA5C4: CLIENT_VERSION_850,
	0x4A81881B: CLIENT_VERSION_854,
	0x4B28854C: CLIENT_VERSION_860,
	0x4C08D696: CLIENT_VERSION_861,
	0x4C21FE90: CLIENT_VERSION_862,
	0x4D0C5467: CLIENT_VERSION_870,
}

// SignatureClientVersion maps a known dat signature to its client version.
// Unknown signatures give CLIENT_VERSION_UNKNOWN.
func SignatureClientVersion(sig uint32) ClientVersion {
	return signatureVersions[sig]
}

func (v ClientVersion) String() string {
	if v == CLIENT_VERSION_UNKNOWN {
		return "unknown"
	}
	return fmt.Sprintf("%d.%02d", v/100, v%100)
}
