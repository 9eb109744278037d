package pairs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/soullink/internal/domain"
	"github.com/John-Robertt/soullink/internal/infra/httpx"
)

// 支持的表格格式。
const (
	FormatCSV  = "csv"
	FormatTSV  = "tsv"
	FormatHTML = "html"
)

// ErrShortRow 表示一行不足 4 列（name1, type1, name2, type2）。
var ErrShortRow = errors.New("列数不足 4 列")

// ErrEmptyName 表示名字单元格为空。
var ErrEmptyName = errors.New("名字为空")

// Options 控制配对表的读取方式。
type Options struct {
	// Header=true 时跳过第一行。
	Header bool
	// Format 为空时按扩展名推断（未知扩展名按 CSV 处理）。
	Format string
	// Client 用于读取 http(s) 来源；为空时使用 httpx.NewClient("")。
	Client *http.Client
}

// FetchError 表示配对表来源本身无法读取（文件不存在、网络错误、非 2xx 等）。
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("读取配对表失败：%s：%v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// RowError 表示某一行无法构成合法的绑定对。Row 为来源中的 1-based 行号；
// Column 为出问题的 1-based 列号（整行问题时为 0）。
type RowError struct {
	Row    int
	Column int
	Err    error
}

func (e *RowError) Error() string {
	if e.Column > 0 {
		return fmt.Sprintf("第 %d 行第 %d 列：%v", e.Row, e.Column, e.Err)
	}
	return fmt.Sprintf("第 %d 行：%v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// IsRemote 报告 src 是否为 http(s) URL。
func IsRemote(src string) bool {
	u, err := url.Parse(strings.TrimSpace(src))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// DetectFormat 按扩展名推断格式（URL 取路径部分）。
func DetectFormat(src string) string {
	p := strings.TrimSpace(src)
	var ext string
	if IsRemote(p) {
		u, _ := url.Parse(p)
		ext = path.Ext(u.Path)
	} else {
		ext = filepath.Ext(p)
	}
	switch strings.ToLower(ext) {
	case ".tsv", ".tab":
		return FormatTSV
	case ".html", ".htm":
		return FormatHTML
	default:
		return FormatCSV
	}
}

// Load 读取本地文件或 http(s) URL，并解析为按来源顺序排列的绑定对。
//
// 来源读取失败返回 *FetchError；内容不合法返回 *RowError。
func Load(ctx context.Context, src string, opt Options) ([]domain.Pair, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, &FetchError{Source: src, Err: errors.New("来源为空")}
	}

	b, err := fetch(ctx, src, opt.Client)
	if err != nil {
		return nil, &FetchError{Source: src, Err: err}
	}

	format := strings.ToLower(strings.TrimSpace(opt.Format))
	if format == "" {
		format = DetectFormat(src)
	}
	switch format {
	case FormatCSV:
		return ReadCSV(bytes.NewReader(b), opt.Header, ',')
	case FormatTSV:
		return ReadCSV(bytes.NewReader(b), opt.Header, '\t')
	case FormatHTML:
		return ReadHTML(bytes.NewReader(b), opt.Header)
	default:
		return nil, fmt.Errorf("未知的配对表格式：%q", opt.Format)
	}
}

func fetch(ctx context.Context, src string, c *http.Client) ([]byte, error) {
	if !IsRemote(src) {
		return os.ReadFile(src)
	}
	if c == nil {
		var err error
		if c, err = httpx.NewClient(""); err != nil {
			return nil, err
		}
	}
	return httpx.Get(ctx, c, src)
}

// record 是从表格中取出的一行（已去除首尾空白）。
type record struct {
	row   int
	cells []string
}

func toPairs(recs []record) ([]domain.Pair, error) {
	out := make([]domain.Pair, 0, len(recs))
	for _, r := range recs {
		if len(r.cells) < 4 {
			return nil, &RowError{Row: r.row, Err: ErrShortRow}
		}
		var ps [2]domain.Pokemon
		for side := 0; side < 2; side++ {
			nameCol, typeCol := side*2, side*2+1
			name := r.cells[nameCol]
			if name == "" {
				return nil, &RowError{Row: r.row, Column: nameCol + 1, Err: ErrEmptyName}
			}
			p, err := domain.NewPokemon(name, r.cells[typeCol])
			if err != nil {
				return nil, &RowError{Row: r.row, Column: typeCol + 1, Err: err}
			}
			ps[side] = p
		}
		out = append(out, domain.Pair{Left: ps[0], Right: ps[1]})
	}
	return out, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
