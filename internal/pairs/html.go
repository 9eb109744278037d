package pairs

import (
	"errors"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/soullink/internal/domain"
)

// ReadHTML 解析 HTML 中第一个 <table>（例如在线表格“发布到网页”导出的页面）。
//
// 行号按表格内 <tr> 的顺序计（1-based）；th 与 td 都视为单元格。
func ReadHTML(r io.Reader, header bool) ([]domain.Pair, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, errors.New("HTML 中没有 <table>")
	}

	var recs []record
	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		if i == 0 && header {
			return
		}
		var cells []string
		tr.ChildrenFiltered("th, td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, normSpace(td.Text()))
		})
		if blank(cells) {
			return
		}
		recs = append(recs, record{row: i + 1, cells: cells})
	})
	return toPairs(recs)
}

func normSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
