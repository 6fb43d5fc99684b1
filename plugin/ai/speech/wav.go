package speech

import (
	"encoding/binary"
	"time"
)

// WAVDuration measures a RIFF/WAVE payload from its fmt and data chunks.
// It reports false when audio is not a WAV file or its header is incomplete.
func WAVDuration(audio []byte) (time.Duration, bool) {
	if len(audio) < 12 || string(audio[0:4]) != "RIFF" || string(audio[8:12]) != "WAVE" {
		return 0, false
	}

	var byteRate uint32
	for offset := 12; offset+8 <= len(audio); {
		id := string(audio[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(audio[offset+4 : offset+8]))
		body := offset + 8

		switch id {
		case "fmt ":
			if body+12 > len(audio) {
				return 0, false
			}
			byteRate = binary.LittleEndian.Uint32(audio[body+8 : body+12])
		case "data":
			if byteRate == 0 {
				return 0, false
			}
			// Streaming writers leave the size unset; use what was received.
			if size < 0 || body+size > len(audio) {
				size = len(audio) - body
			}
			return time.Duration(int64(size) * int64(time.Second) / int64(byteRate)), true
		}

		// Chunks are padded to an even size.
		offset = body + size + size%2
	}
	return 0, false
}
