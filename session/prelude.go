package session

import "encoding/binary"

// flashRecordSizeLimit bounds what counts as a plausible flash-dump record
// payload size when guessing the prelude's header length; anything at or
// above it is treated as "this isn't a flash-dump header after all".
const flashRecordSizeLimit = 4096

// stripFlashHeaders removes the per-record addr/size header Betaflight's
// onboard flash dump tool interleaves with the log payload. Dumps read
// straight off an SD card or over MSC never carry this framing and start
// directly with "H "; only raw flash reads need this pass.
func stripFlashHeaders(buf []byte) []byte {
	if len(buf) == 0 || buf[0] == 'H' {
		return buf
	}
	if hdrLen, ok := detectFlashHeaderLen(buf); ok {
		return dechunkFlash(buf, hdrLen)
	}
	return buf
}

// detectFlashHeaderLen tries the 7-byte (addr u32 + size u16 + compressed u8)
// and 6-byte (addr u32 + size u16) prelude hypotheses in turn, accepting the
// first whose declared size is plausible and whose payload begins with 'H'.
func detectFlashHeaderLen(buf []byte) (int, bool) {
	if len(buf) > 7 {
		size := int(binary.LittleEndian.Uint16(buf[4:6]))
		if size > 0 && size < flashRecordSizeLimit && buf[7] == 'H' {
			return 7, true
		}
	}
	if len(buf) > 6 {
		size := int(binary.LittleEndian.Uint16(buf[4:6]))
		if size > 0 && size < flashRecordSizeLimit && buf[6] == 'H' {
			return 6, true
		}
	}
	return 0, false
}

// dechunkFlash concatenates the successive record payloads of a flash dump
// using the given prelude length, appending the remainder verbatim the
// moment it hits a record whose declared size is no longer plausible.
func dechunkFlash(buf []byte, hdrLen int) []byte {
	out := make([]byte, 0, len(buf))
	p := 0
	for p+hdrLen <= len(buf) {
		size := int(binary.LittleEndian.Uint16(buf[p+4 : p+6]))
		if size <= 0 || size >= flashRecordSizeLimit {
			return append(out, buf[p:]...)
		}
		start := p + hdrLen
		end := start + size
		if end > len(buf) {
			end = len(buf)
		}
		out = append(out, buf[start:end]...)
		p = start + size
	}
	if p < len(buf) {
		out = append(out, buf[p:]...)
	}
	return out
}
