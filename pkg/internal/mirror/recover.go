package mirror

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/yeisme/filerelay/pkg/internal/model"
)

// ErrNotInMirror 线性扫描未找到对应 id 的上传条目.
var ErrNotInMirror = errors.New("file id not found in mirror")

// 恢复是管理员手动触发的慢路径：逐块扫描完整的导出内容，不建立任何索引.
// 支持两种输入：
//   - 本地日志镜像（JournalSink 写出的纯文本）
//   - Telegram Desktop 导出的频道历史 result.json

// Scan 在导出内容中查找 id 对应的记录，下载次数取审计块中出现过的最大值.
func Scan(r io.Reader, id string) (model.FileRecord, error) {
	texts, err := readTexts(r)
	if err != nil {
		return model.FileRecord{}, err
	}

	needle := "`" + id + "`"

	var (
		rec   model.FileRecord
		found bool
		count int64
	)

	for _, text := range texts {
		// 摘要行中 id 带反引号，子串匹配不会误中其它 id 的片段
		if !strings.Contains(text, needle) && !strings.Contains(text, `"`+id+`"`) {
			continue
		}

		for _, raw := range jsonBlocks(text) {
			if e, ok := decodeCreate(raw); ok && e.UniqueID == id && !found {
				rec, found = e.Record(), true

				continue
			}

			if d, ok := decodeDownload(raw); ok && d.FileID == id && d.DownloadCount > count {
				count = d.DownloadCount
			}
		}
	}

	if !found {
		return model.FileRecord{}, fmt.Errorf("%w: %s", ErrNotInMirror, id)
	}

	rec.DownloadCount = count

	return rec, nil
}

// ScanAll 按出现顺序还原全部记录，重复 id 只保留第一次出现.
func ScanAll(r io.Reader) ([]model.FileRecord, error) {
	texts, err := readTexts(r)
	if err != nil {
		return nil, err
	}

	var (
		order  []string
		byID   = make(map[string]model.FileRecord)
		counts = make(map[string]int64)
	)

	for _, text := range texts {
		for _, raw := range jsonBlocks(text) {
			if e, ok := decodeCreate(raw); ok {
				if _, seen := byID[e.UniqueID]; !seen {
					byID[e.UniqueID] = e.Record()
					order = append(order, e.UniqueID)
				}

				continue
			}

			if d, ok := decodeDownload(raw); ok && d.DownloadCount > counts[d.FileID] {
				counts[d.FileID] = d.DownloadCount
			}
		}
	}

	out := make([]model.FileRecord, 0, len(order))
	for _, id := range order {
		rec := byID[id]
		rec.DownloadCount = counts[id]
		out = append(out, rec)
	}

	return out, nil
}

// readTexts 识别输入格式并返回逐条消息文本.纯文本日志整体作为一条返回.
func readTexts(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read mirror export: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if texts, ok := exportTexts(trimmed); ok {
			return texts, nil
		}
	}

	return []string{string(data)}, nil
}

// desktopExport Telegram Desktop 导出格式中用到的字段.
type desktopExport struct {
	Messages []struct {
		Type string `json:"type"`
		Text any    `json:"text"`
	} `json:"messages"`
}

// exportTexts 把导出中的富文本还原为与发送时一致的 Markdown 文本.
// 代码块在导出中是 type=pre 的实体，这里重新包上 ```json 围栏.
func exportTexts(data []byte) ([]string, bool) {
	var export desktopExport
	if err := sonic.Unmarshal(data, &export); err != nil || export.Messages == nil {
		return nil, false
	}

	texts := make([]string, 0, len(export.Messages))

	for _, m := range export.Messages {
		if m.Type != "" && m.Type != "message" {
			continue
		}

		var b strings.Builder

		switch t := m.Text.(type) {
		case string:
			b.WriteString(t)
		case []any:
			for _, part := range t {
				switch p := part.(type) {
				case string:
					b.WriteString(p)
				case map[string]any:
					text, _ := p["text"].(string)
					kind, _ := p["type"].(string)
					if kind == "pre" || (kind == "code" && strings.HasPrefix(strings.TrimSpace(text), "{")) {
						b.WriteString(fenceOpen + "\n" + text + "\n" + fenceClose)
					} else {
						b.WriteString(text)
					}
				}
			}
		}

		texts = append(texts, b.String())
	}

	return texts, true
}
