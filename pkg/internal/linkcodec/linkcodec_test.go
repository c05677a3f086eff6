package linkcodec_test

import (
	"errors"
	"testing"
	"time"

	"github.com/yeisme/filerelay/pkg/internal/linkcodec"
)

// TestEncode 测试标识的形状与确定性.
func TestEncode(t *testing.T) {
	ts := time.Unix(1700000000, 123456789)

	id := linkcodec.Encode("BQACAgUAAxkBAAIC", ts)
	if !linkcodec.ValidID(id) {
		t.Fatalf("Encode produced invalid id %q", id)
	}

	if again := linkcodec.Encode("BQACAgUAAxkBAAIC", ts); again != id {
		t.Errorf("Encode is not deterministic: %q != %q", id, again)
	}

	if other := linkcodec.Encode("BQACAgUAAxkBAAIC", ts.Add(time.Nanosecond)); other == id {
		t.Errorf("Encode ignored timestamp change")
	}
}

// TestDecode_RoundTrip 测试编码后的请求串可以解析回同一标识.
func TestDecode_RoundTrip(t *testing.T) {
	for i := 0; i < 100; i++ {
		id := linkcodec.Encode("handle", time.Unix(0, int64(i)))

		got, err := linkcodec.Decode(linkcodec.Request(id))
		if err != nil {
			t.Fatalf("Decode(%q): %v", linkcodec.Request(id), err)
		}

		if got != id {
			t.Errorf("Decode round trip = %q, want %q", got, id)
		}
	}
}

// TestDecode_NotRecognized 测试缺少前缀或形状不符的请求串.
func TestDecode_NotRecognized(t *testing.T) {
	for _, in := range []string{
		"",
		"0a1b2c3d",
		"file_",
		"file_0a1b2c3",
		"file_0a1b2c3d4",
		"file_0A1B2C3D",
		"file_0a1b2c3g",
		"dl_0a1b2c3d",
		"File_0a1b2c3d",
	} {
		if _, err := linkcodec.Decode(in); !errors.Is(err, linkcodec.ErrNotRecognized) {
			t.Errorf("Decode(%q) error = %v, want ErrNotRecognized", in, err)
		}
	}

	if id, err := linkcodec.Decode("  file_0a1b2c3d "); err != nil || id != "0a1b2c3d" {
		t.Errorf("Decode should trim surrounding space, got %q, %v", id, err)
	}
}

// TestShareLink 测试分享链接格式.
func TestShareLink(t *testing.T) {
	want := "https://t.me/relay_bot?start=file_0a1b2c3d"
	if got := linkcodec.ShareLink("relay_bot", "0a1b2c3d"); got != want {
		t.Errorf("ShareLink = %q, want %q", got, want)
	}
}

// TestParseCallback 测试回调数据解析.
func TestParseCallback(t *testing.T) {
	prefix, id, ok := linkcodec.ParseCallback(linkcodec.CallbackData(linkcodec.CallbackDownload, "0a1b2c3d"))
	if !ok || prefix != linkcodec.CallbackDownload || id != "0a1b2c3d" {
		t.Errorf("ParseCallback(dl_) = %q, %q, %v", prefix, id, ok)
	}

	prefix, id, ok = linkcodec.ParseCallback("get_deadbeef")
	if !ok || prefix != linkcodec.CallbackGet || id != "deadbeef" {
		t.Errorf("ParseCallback(get_) = %q, %q, %v", prefix, id, ok)
	}

	for _, in := range []string{"menu", "dl_xyz", "get_", "save_start_message"} {
		if _, _, ok := linkcodec.ParseCallback(in); ok {
			t.Errorf("ParseCallback(%q) should fail", in)
		}
	}
}
