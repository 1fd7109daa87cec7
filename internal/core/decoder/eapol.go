package decoder

// eapolSignatureLen covers the LLC/SNAP header plus the 0x888E EtherType.
const eapolSignatureLen = 8

// FindEAPOL returns the offset of the first LLC/SNAP + EAPOL signature
// (AA AA 03 xx xx xx 88 8E) in body, or -1.
//
// The scan is linear because QoS and HT control fields move the real start
// of the LLC header by a driver-dependent amount.
func FindEAPOL(body []byte) int {
	for i := 0; i+eapolSignatureLen <= len(body); i++ {
		if body[i] == 0xAA && body[i+1] == 0xAA && body[i+2] == 0x03 &&
			body[i+6] == 0x88 && body[i+7] == 0x8E {
			return i
		}
	}
	return -1
}
