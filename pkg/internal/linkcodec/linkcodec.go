// Package linkcodec 负责短链接标识的生成与解析.
//
// 标识由文件句柄与时间戳经 xxhash 计算后截取前 8 位十六进制字符得到，
// 入站请求格式为 file_<id>，分享链接为 https://t.me/<bot>?start=file_<id>.
package linkcodec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

const (
	// IDLength 标识长度.
	IDLength = 8
	// RequestPrefix 入站请求保留前缀.
	RequestPrefix = "file_"

	// CallbackDownload 上传回执中的“立即下载”回调前缀.
	CallbackDownload = "dl_"
	// CallbackGet 加群提示中的“获取文件”回调前缀.
	CallbackGet = "get_"

	shareLinkBase = "https://t.me/"
)

// ErrNotRecognized 请求串缺少前缀或标识格式不符.
var ErrNotRecognized = errors.New("link not recognized")

// Encode 由文件句柄与时间戳派生短标识，相同输入总是得到相同结果.
func Encode(fileHandle string, t time.Time) string {
	d := xxhash.New()
	_, _ = d.WriteString(fileHandle)
	_, _ = d.WriteString("|")
	_, _ = d.WriteString(strconv.FormatInt(t.UnixNano(), 10))

	return fmt.Sprintf("%016x", d.Sum64())[:IDLength]
}

// Decode 从 file_<id> 形式的请求串中解析标识.
func Decode(request string) (string, error) {
	id, ok := strings.CutPrefix(strings.TrimSpace(request), RequestPrefix)
	if !ok || !ValidID(id) {
		return "", ErrNotRecognized
	}

	return id, nil
}

// ValidID 检查标识是否为 8 位小写十六进制.
func ValidID(id string) bool {
	if len(id) != IDLength {
		return false
	}

	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}

	return true
}

// Request 构造入站请求串.
func Request(id string) string {
	return RequestPrefix + id
}

// ShareLink 构造 Telegram 深链接.
func ShareLink(botUserName, id string) string {
	return shareLinkBase + botUserName + "?start=" + Request(id)
}

// CallbackData 构造带标识的回调数据，如 dl_<id>.
func CallbackData(prefix, id string) string {
	return prefix + id
}

// ParseCallback 解析 dl_<id> / get_<id> 形式的回调数据.
func ParseCallback(data string) (prefix, id string, ok bool) {
	for _, p := range []string{CallbackDownload, CallbackGet} {
		if rest, found := strings.CutPrefix(data, p); found && ValidID(rest) {
			return p, rest, true
		}
	}

	return "", "", false
}
