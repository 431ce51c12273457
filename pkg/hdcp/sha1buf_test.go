package hdcp

import (
	"bytes"
	"errors"
	"testing"

	"github.com/backkem/hdcp/pkg/ksv"
	"github.com/backkem/hdcp/pkg/regs"
)

func TestSHA1InputLen(t *testing.T) {
	tests := []struct {
		count int
		want  int
	}{
		{0, 64},
		{1, 64},
		{2, 64},
		{6, 64},
		{9, 64},
		{10, 128},
		// 120 message bytes + terminator + length field
		{22, 192},
		{86, 512},
		{127, 704},
	}

	for _, tc := range tests {
		if got := SHA1InputLen(tc.count); got != tc.want {
			t.Errorf("SHA1InputLen(%d) = %d, want %d", tc.count, got, tc.want)
		}
		if got := SHA1InputLen(tc.count); SHA1MessageLen(tc.count)+9 > got {
			t.Errorf("SHA1InputLen(%d) = %d leaves no room for the terminator", tc.count, got)
		}
	}
}

func TestBuildSHA1Input(t *testing.T) {
	list := []byte{
		0x11, 0x22, 0x33, 0x44, 0x55,
		0xAA, 0xBB, 0xCC, 0xDD, 0xEE,
	}

	buf, err := BuildSHA1Input(list, 2, 0x0002)
	if err != nil {
		t.Fatalf("BuildSHA1Input failed: %v", err)
	}
	if len(buf) != 64 {
		t.Fatalf("len = %d, want 64", len(buf))
	}

	if !bytes.Equal(buf[:10], list) {
		t.Errorf("KSV list = %x", buf[:10])
	}
	if buf[10] != 0x02 || buf[11] != 0x00 {
		t.Errorf("topology = %x, want 0200", buf[10:12])
	}
	if !bytes.Equal(buf[12:56], make([]byte, 44)) {
		t.Errorf("M0 placeholder and padding not zero: %x", buf[12:56])
	}
	if want := []byte{0, 0, 0, 0, 0, 0, 0, 0xA0}; !bytes.Equal(buf[56:], want) {
		t.Errorf("length field = %x, want %x", buf[56:], want)
	}
}

func TestBuildSHA1InputLengthField(t *testing.T) {
	tests := []struct {
		count int
		want  []byte
	}{
		{1, []byte{0, 0, 0, 0, 0, 0, 0, 0x78}},
		{10, []byte{0, 0, 0, 0, 0, 0, 0x01, 0xE0}},
	}

	for _, tc := range tests {
		buf, err := BuildSHA1Input(make([]byte, tc.count*ksv.Size), tc.count, 0)
		if err != nil {
			t.Fatalf("BuildSHA1Input(%d) failed: %v", tc.count, err)
		}
		if got := buf[len(buf)-8:]; !bytes.Equal(got, tc.want) {
			t.Errorf("count %d: length field = %x, want %x", tc.count, got, tc.want)
		}
	}
}

func TestBuildSHA1InputShortList(t *testing.T) {
	if _, err := BuildSHA1Input(make([]byte, 9), 2, 0); !errors.Is(err, ErrKSVListLength) {
		t.Errorf("BuildSHA1Input = %v, want ErrKSVListLength", err)
	}
	if _, err := BuildSHA1Input(nil, -1, 0); !errors.Is(err, ErrKSVListLength) {
		t.Errorf("BuildSHA1Input(count -1) = %v, want ErrKSVListLength", err)
	}
}

func TestSHA1WritesControls(t *testing.T) {
	const (
		t32 = regs.RepCtlText32
		t24 = regs.RepCtlText24
		t16 = regs.RepCtlText16
		t8  = regs.RepCtlText8
		mo  = regs.RepCtlMo32
	)

	tests := []struct {
		count int
		head  []regs.RepControl // controls up to the end of M0
	}{
		// 7 text bytes: 1 word, 3 bytes + M0[0], M0[1:5], M0[5:8] + 1 byte
		{1, []regs.RepControl{t32, t24, mo, t8}},
		// 12 text bytes: M0 is word aligned
		{2, []regs.RepControl{t32, t32, t32, mo, mo}},
		// 17 text bytes
		{3, []regs.RepControl{t32, t32, t32, t32, t8, mo, t24}},
		// 22 text bytes
		{4, []regs.RepControl{t32, t32, t32, t32, t32, t16, mo, t16}},
	}

	for _, tc := range tests {
		buf, err := BuildSHA1Input(make([]byte, tc.count*ksv.Size), tc.count, 0)
		if err != nil {
			t.Fatal(err)
		}
		writes := sha1Writes(buf, tc.count*ksv.Size+topologySize)

		if len(writes) != len(buf)/4 {
			t.Errorf("count %d: %d writes, want %d", tc.count, len(writes), len(buf)/4)
		}
		for i, want := range tc.head {
			if writes[i].ctl != want {
				t.Errorf("count %d: write %d is %s, want %s", tc.count, i, writes[i].ctl, want)
			}
		}
		for i := len(tc.head); i < len(writes); i++ {
			if writes[i].ctl != t32 {
				t.Errorf("count %d: write %d is %s, want Text32", tc.count, i, writes[i].ctl)
			}
		}
	}
}

func TestSHA1WritesPacking(t *testing.T) {
	// One KSV: text is 01 02 03 04 05 + topology 06 07.
	list := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	buf, err := BuildSHA1Input(list, 1, 0x0706)
	if err != nil {
		t.Fatal(err)
	}
	writes := sha1Writes(buf, 7)

	if writes[0].word != 0x01020304 {
		t.Errorf("word 0 = %08x, want big-endian text", writes[0].word)
	}
	// Partial text sits in the low-order bytes.
	if writes[1].word != 0x00050607 {
		t.Errorf("word 1 = %08x, want 00050607", writes[1].word)
	}
	if last := writes[len(writes)-1].word; last != 0x78 {
		t.Errorf("last word = %08x, want length 0x78", last)
	}
}
