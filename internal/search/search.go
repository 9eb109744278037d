package search

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// 输出中的分段标记。
const (
	EOP = "EOP---EOP"
	EOM = "EOM--------------------------------EOM"
)

const (
	resultRule  = "--------------------------------"
	sectionRule = "================================================================"
	sizePrefix  = "Pokemon Team Sizes: "
)

var (
	ErrNoQuery   = errors.New("至少需要一个查询")
	ErrNoPlayer  = errors.New("查询缺少玩家名")
	ErrNoPokemon = errors.New("查询至少需要一只宝可梦")
)

// Query 要求某位玩家的队伍同时包含 Pokemon 中的每一只。
type Query struct {
	Player  string
	Pokemon []string
}

// ParseQuery 解析 "玩家,宝可梦1,宝可梦2,..." 形式的查询（逗号分隔，允许名字中带空格）。
func ParseQuery(s string) (Query, error) {
	parts := strings.Split(s, ",")
	q := Query{Player: strings.TrimSpace(parts[0])}
	if q.Player == "" {
		return Query{}, fmt.Errorf("%w：%q", ErrNoPlayer, s)
	}
	for _, p := range parts[1:] {
		if p = strings.TrimSpace(p); p != "" {
			q.Pokemon = append(q.Pokemon, p)
		}
	}
	if len(q.Pokemon) == 0 {
		return Query{}, fmt.Errorf("%w：%q", ErrNoPokemon, s)
	}
	return q, nil
}

// Section 是结果块中某位玩家的部分：首行是玩家名，之后是队伍内容。
type Section struct {
	Player string
	Lines  []string
}

// Names 从队伍内容中取出宝可梦名字。
//
// 两种报告的行格式：
// - 按宝可梦："\t<name>: <Type>"（"\tempty" 为占位）
// - 按属性："<Type>: <name> | <name> ..."
func (s Section) Names() []string {
	var out []string
	for _, l := range s.Lines {
		switch {
		case strings.HasPrefix(l, "\t"):
			l = strings.TrimSpace(l)
			if i := strings.LastIndex(l, ": "); i > 0 {
				out = append(out, strings.TrimSpace(l[:i]))
			}
		case strings.HasPrefix(l, "Team Size:"), strings.HasPrefix(l, "Team Count:"):
		default:
			_, names, ok := strings.Cut(l, ": ")
			if !ok {
				continue
			}
			for _, n := range strings.Split(names, " | ") {
				if n = strings.TrimSpace(n); n != "" {
					out = append(out, n)
				}
			}
		}
	}
	return out
}

// Text 返回该部分的队伍内容："玩家\n" + 成员行 + 空行。
// 成员块之后的 Team Size / Team Count 统计行不属于队伍内容，不输出。
func (s Section) Text() string {
	lines := s.Lines
	for len(lines) > 0 {
		l := lines[len(lines)-1]
		if !strings.HasPrefix(l, "Team Size:") && !strings.HasPrefix(l, "Team Count:") {
			break
		}
		lines = lines[:len(lines)-1]
	}
	var b strings.Builder
	b.WriteString(s.Player + "\n")
	for _, l := range lines {
		b.WriteString(l + "\n")
	}
	b.WriteByte('\n')
	return b.String()
}

func (s Section) has(names map[string]struct{}, want []string) bool {
	for _, w := range want {
		if _, ok := names[fold(w)]; !ok {
			return false
		}
	}
	return true
}

// Block 是报告中的一个结果（两条 32 个 '-' 分隔线之间）。
type Block struct {
	Size     int
	Sections []Section
}

// Match 是命中的结果块，Sections 按查询顺序给出命中的玩家部分。
type Match struct {
	Block    Block
	Sections []Section
}

// Parse 把报告切分为结果块；段头（Pokemon Team Sizes）与段尾（Total ...）会被跳过。
func Parse(report string) []Block {
	var (
		blocks []Block
		size   int
		chunk  []string
	)
	flush := func() {
		if b, ok := parseBlock(chunk, &size); ok {
			blocks = append(blocks, b)
		}
		chunk = chunk[:0]
	}
	for _, l := range strings.Split(strings.ReplaceAll(report, "\r\n", "\n"), "\n") {
		if l == resultRule {
			flush()
			continue
		}
		chunk = append(chunk, l)
	}
	flush()
	return blocks
}

func parseBlock(lines []string, size *int) (Block, bool) {
	i := 0
	for ; i < len(lines); i++ {
		l := lines[i]
		if strings.HasPrefix(l, sizePrefix) {
			if n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(l, sizePrefix))); err == nil {
				*size = n
			}
			continue
		}
		if l == sectionRule || strings.TrimSpace(l) == "" {
			continue
		}
		break
	}
	lines = lines[i:]
	if len(lines) == 0 || strings.HasPrefix(lines[0], "Total ") {
		return Block{}, false
	}

	b := Block{Size: *size}
	var cur *Section
	prevBlank := true
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			prevBlank = true
			continue
		}
		isHeader := prevBlank && !strings.HasPrefix(l, "Team Size:") && !strings.HasPrefix(l, "Team Count:")
		prevBlank = false
		if isHeader {
			b.Sections = append(b.Sections, Section{Player: strings.TrimSpace(l)})
			cur = &b.Sections[len(b.Sections)-1]
			continue
		}
		if cur != nil {
			cur.Lines = append(cur.Lines, l)
		}
	}
	return b, len(b.Sections) > 0
}

// Find 返回满足全部查询的结果块（报告顺序）。
//
// 对每个查询：块中必须存在该玩家的部分，且其中包含查询的每一只宝可梦（名字整体匹配，忽略大小写）。
func Find(report string, queries []Query) ([]Match, error) {
	if len(queries) == 0 {
		return nil, ErrNoQuery
	}
	for _, q := range queries {
		if strings.TrimSpace(q.Player) == "" {
			return nil, ErrNoPlayer
		}
		if len(q.Pokemon) == 0 {
			return nil, ErrNoPokemon
		}
	}

	var out []Match
	for _, b := range Parse(report) {
		names := make([]map[string]struct{}, len(b.Sections))
		for i, s := range b.Sections {
			names[i] = make(map[string]struct{})
			for _, n := range s.Names() {
				names[i][fold(n)] = struct{}{}
			}
		}

		m := Match{Block: b}
		for _, q := range queries {
			found := false
			for i, s := range b.Sections {
				if s.Player == strings.TrimSpace(q.Player) && s.has(names[i], q.Pokemon) {
					m.Sections = append(m.Sections, s)
					found = true
					break
				}
			}
			if !found {
				break
			}
		}
		if len(m.Sections) == len(queries) {
			out = append(out, m)
		}
	}
	return out, nil
}

// Render 输出命中的玩家部分：同一结果内用 EOP 分隔，每个结果以 EOM 结尾。
func Render(matches []Match) string {
	var b strings.Builder
	for _, m := range matches {
		for i, s := range m.Sections {
			if i > 0 {
				b.WriteString(EOP + "\n")
			}
			b.WriteString(s.Text())
		}
		b.WriteString(EOM + "\n")
	}
	return b.String()
}

func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
