package wire

import (
	"encoding/binary"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// asReply rewrites an encoded request as the matching reply, fixing up
// the checksum for V4 the way a remote host would.
func asReply(fam Family, b []byte) []byte {
	r := make([]byte, len(b))
	copy(r, b)

	if fam == V4 {
		r[0] = TypeEchoReplyV4
		r[2], r[3] = 0, 0
		binary.BigEndian.PutUint16(r[2:4], Checksum(r))
	} else {
		r[0] = TypeEchoReplyV6
	}
	return r
}

func TestChecksum(t *testing.T) {
	assert := assert.New(t)

	// RFC 1071 §3 example words
	data := []byte{0x00, 0x01, 0xf2, 0x03, 0xf4, 0xf5, 0xf6, 0xf7}
	assert.Equal(^uint16(0xddf2), Checksum(data))

	// odd length pads the trailing byte with zero
	assert.Equal(Checksum([]byte{0xab, 0x00}), Checksum([]byte{0xab}))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload := []byte("reachability-probe-data!")

	for _, fam := range []Family{V4, V6} {
		req := EncodeRequest(fam, 0xbeef, 42, payload)
		require.Len(t, req, HeaderLen+len(payload), fam.String())

		rep, ok := DecodeReply(fam, asReply(fam, req))
		require.True(t, ok, fam.String())
		assert.Equal(t, uint16(0xbeef), rep.ID, fam.String())
		assert.Equal(t, uint16(42), rep.Seq, fam.String())
		assert.Equal(t, payload, rep.Payload, fam.String())
		assert.Equal(t, uint8(0), rep.Code, fam.String())
	}
}

func TestEncodeRequestChecksum(t *testing.T) {
	req := EncodeRequest(V4, 7, 1, []byte{1, 2, 3, 4})
	assert.Equal(t, uint16(0), Checksum(req), "encoded V4 request must sum to zero")

	req6 := EncodeRequest(V6, 7, 1, []byte{1, 2, 3, 4})
	assert.Zero(t, binary.BigEndian.Uint16(req6[2:4]), "V6 checksum is kernel-computed")
}

func TestDecodeRejectsBitFlips(t *testing.T) {
	reply := asReply(V4, EncodeRequest(V4, 0x1234, 9, []byte("abcdefgh")))

	for i := 0; i < len(reply)*8; i++ {
		mangled := make([]byte, len(reply))
		copy(mangled, reply)
		mangled[i/8] ^= 1 << (i % 8)

		if _, ok := DecodeReply(V4, mangled); ok {
			t.Fatalf("bit flip at offset %d byte %d accepted", i%8, i/8)
		}
	}
}

func TestDecodeReplyTooShort(t *testing.T) {
	for i := 0; i < HeaderLen; i++ {
		_, ok := DecodeReply(V4, make([]byte, i))
		assert.False(t, ok, "length %d", i)
	}
}

func TestDecodeIgnoresNonReplies(t *testing.T) {
	assert := assert.New(t)

	// a reflected echo request is not a reply
	_, ok := DecodeReply(V4, EncodeRequest(V4, 1, 1, nil))
	assert.False(ok)
	_, ok = DecodeReply(V6, EncodeRequest(V6, 1, 1, nil))
	assert.False(ok)

	// destination unreachable, checksum intact
	unreach := []byte{3, 1, 0, 0, 0, 0, 0, 0}
	binary.BigEndian.PutUint16(unreach[2:4], Checksum(unreach))
	_, ok = DecodeReply(V4, unreach)
	assert.False(ok)

	// family mismatch: a V6 reply on the V4 conn
	_, ok = DecodeReply(V4, asReply(V6, EncodeRequest(V6, 1, 1, nil)))
	assert.False(ok)
}

func TestFamilyOf(t *testing.T) {
	assert.Equal(t, V4, FamilyOf(net.ParseIP("127.0.0.1")))
	assert.Equal(t, V4, FamilyOf(net.ParseIP("192.0.2.1")))
	assert.Equal(t, V6, FamilyOf(net.ParseIP("::1")))
	assert.Equal(t, V6, FamilyOf(net.ParseIP("2001:db8::1")))
}
