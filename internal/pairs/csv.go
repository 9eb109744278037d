package pairs

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/John-Robertt/soullink/internal/domain"
)

// ReadCSV 解析分隔符表格（comma=',' 为 CSV，'\t' 为 TSV）。
//
// 每行取前 4 列：name1, type1, name2, type2；多余列忽略，空行跳过。
func ReadCSV(r io.Reader, header bool, comma rune) ([]domain.Pair, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var recs []record
	first := true
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &RowError{Row: pe.Line, Column: pe.Column, Err: pe.Err}
			}
			return nil, err
		}
		line, _ := cr.FieldPos(0)

		if first {
			first = false
			if header {
				continue
			}
		}
		cells := make([]string, len(fields))
		for i, f := range fields {
			cells[i] = strings.TrimSpace(f)
		}
		if blank(cells) {
			continue
		}
		recs = append(recs, record{row: line, cells: cells})
	}
	return toPairs(recs)
}
