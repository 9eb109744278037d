package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/John-Robertt/soullink/internal/domain"
)

const (
	sectionRule = "================================================================"
	resultRule  = "--------------------------------"
)

// Options 控制报告的展示细节。零值字段使用默认值。
type Options struct {
	Players   [2]string
	MinSize   int
	NameWidth int
	TypeWidth int
}

// DefaultOptions 返回默认展示参数。
func DefaultOptions() Options {
	return Options{
		Players:   [2]string{"Team 1", "Team 2"},
		NameWidth: 10,
		TypeWidth: 8,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	for i := range o.Players {
		if strings.TrimSpace(o.Players[i]) == "" {
			o.Players[i] = d.Players[i]
		}
	}
	if o.NameWidth <= 0 {
		o.NameWidth = d.NameWidth
	}
	if o.TypeWidth <= 0 {
		o.TypeWidth = d.TypeWidth
	}
	return o
}

// SortBySize 就地稳定排序：按玩家 1 队伍大小降序，同大小保持生成顺序。
func SortBySize[T any](results []domain.TeamPair[T]) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Size() > results[j].Size()
	})
}

// Visible 排序 results 并返回报告中实际会输出的前缀（MinSize 截断后的部分）。
func Visible[T any](results []domain.TeamPair[T], minSize int) []domain.TeamPair[T] {
	SortBySize(results)
	for i, r := range results {
		if i > 0 && r.Size() != results[i-1].Size() && r.Size() < minSize {
			return results[:i]
		}
	}
	return results
}

// Teams 渲染按宝可梦搜索的结果。results 会被就地排序；空结果返回 ""。
func Teams(results []domain.TeamPair[domain.Pokemon], opt Options) string {
	opt = opt.withDefaults()
	return sections(results, opt, func(b *strings.Builder, r domain.TeamPair[domain.Pokemon]) int {
		for i, team := range r {
			b.WriteString(opt.Players[i])
			b.WriteByte('\n')
			b.WriteString(team.String())
			b.WriteByte('\n')
		}
		return 1
	}, func(b *strings.Builder, results, _ int) {
		fmt.Fprintf(b, "Total Count: %d\n", results)
	})
}

// TypeTeams 渲染按属性搜索的结果。results 会被就地排序；空结果返回 ""。
//
// 每个结果额外给出 Team Count：该属性模板代表的具体队伍数（见 TeamCount）。
func TypeTeams(results []domain.TeamPair[domain.Slot], opt Options) string {
	opt = opt.withDefaults()
	return sections(results, opt, func(b *strings.Builder, r domain.TeamPair[domain.Slot]) int {
		n := TeamCount(r)
		for i, team := range r {
			b.WriteString(opt.Players[i])
			b.WriteByte('\n')
			for _, slot := range team.Members() {
				fmt.Fprintf(b, "%-*s: ", opt.TypeWidth, slot.Type)
				for k, name := range slot.Names() {
					if k > 0 {
						b.WriteString(" | ")
					}
					fmt.Fprintf(b, "%-*s", opt.NameWidth, name)
				}
				b.WriteByte('\n')
			}
			b.WriteByte('\n')
			fmt.Fprintf(b, "Team Size: %d\n", team.Len())
			fmt.Fprintf(b, "Team Count: %d\n\n", n)
		}
		return n
	}, func(b *strings.Builder, results, teams int) {
		fmt.Fprintf(b, "Total Possible Teams: %d\n", teams)
		fmt.Fprintf(b, "Total Unique Team Types: %d\n", results)
	})
}

// TeamCount 返回属性模板代表的具体队伍数：玩家 1 各槽位宝可梦数量之积。
// 两侧槽位一一绑定，只看玩家 1 一侧即可。
func TeamCount(r domain.TeamPair[domain.Slot]) int {
	n := 1
	for _, slot := range r[0].Members() {
		n *= len(slot.Members)
	}
	return n
}

// sections 负责排序、按大小分段、以及 MinSize 截断。
// body 渲染单个结果并返回它贡献的队伍数；footer 输出段尾统计。
func sections[T any](
	results []domain.TeamPair[T],
	opt Options,
	body func(*strings.Builder, domain.TeamPair[T]) int,
	footer func(b *strings.Builder, results, teams int),
) string {
	if len(results) == 0 {
		return ""
	}
	SortBySize(results)

	var b strings.Builder
	size := results[0].Size()
	count, teams := 0, 0
	header(&b, size)

	for _, r := range results {
		if cur := r.Size(); cur != size {
			footer(&b, count, teams)
			b.WriteString(resultRule + "\n")

			size, count, teams = cur, 0, 0
			// 第一段总是输出；之后一旦降到 MinSize 以下就停止。
			if size < opt.MinSize {
				return b.String()
			}
			header(&b, size)
		}
		count++
		teams += body(&b, r)
		b.WriteString(resultRule + "\n")
	}
	footer(&b, count, teams)
	b.WriteString(resultRule + "\n")
	return b.String()
}

func header(b *strings.Builder, size int) {
	fmt.Fprintf(b, "Pokemon Team Sizes: %d\n", size)
	b.WriteString(sectionRule + "\n")
}
