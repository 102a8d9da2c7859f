// Package core defines core types.
package core

// Feature kinds. Each kind is recorded into its own feature file.
const (
	FeatureIP    = "ip"
	FeatureEther = "ether"
	FeatureTCP   = "tcp"
)

// Context fragments used when composing feature context strings.
const (
	LabelChecksumOK  = "cksum-ok"
	LabelChecksumBad = "cksum-bad"

	LabelLocal  = "L" // TTL looks undecremented; endpoint sits next to the capture point
	LabelRemote = "R"

	LabelEtherDst = "(ether_dhost)"
	LabelEtherSrc = "(ether_shost)"

	LabelSockaddrIn = "sockaddr_in"
	LabelTCPT       = "TCPT"
)

// ChecksumLabel returns the context fragment for a checksum verdict.
func ChecksumLabel(valid bool) string {
	if valid {
		return LabelChecksumOK
	}
	return LabelChecksumBad
}
