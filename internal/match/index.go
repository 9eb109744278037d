package match

import "github.com/John-Robertt/soullink/internal/domain"

// Index 把绑定对按 (Left 属性, Right 属性) 分组为 18×18 的表。
//
// 每个格子内保持输入顺序；构建后只读。
type Index struct {
	cells [domain.NumTypes][domain.NumTypes][]domain.Pair
	pairs int
}

// BuildIndex 对输入做一次遍历建表。
func BuildIndex(pairs []domain.Pair) *Index {
	idx := &Index{pairs: len(pairs)}
	for _, p := range pairs {
		l, r := p.Types()
		idx.cells[l][r] = append(idx.cells[l][r], p)
	}
	return idx
}

// Len 返回建表时的绑定对总数。
func (x *Index) Len() int { return x.pairs }

// Cell 返回 (l, r) 格子内的绑定对（调用方不应修改返回的切片）。
func (x *Index) Cell(l, r domain.Type) []domain.Pair {
	return x.cells[l][r]
}

// Has 报告 (l, r) 格子是否非空。
func (x *Index) Has(l, r domain.Type) bool {
	return len(x.cells[l][r]) > 0
}

// Unzip 把 (l, r) 格子拆成两列：玩家 1 的宝可梦与玩家 2 的宝可梦，位置一一对应。
func (x *Index) Unzip(l, r domain.Type) (left, right []domain.Pokemon) {
	cell := x.cells[l][r]
	left = make([]domain.Pokemon, len(cell))
	right = make([]domain.Pokemon, len(cell))
	for i, p := range cell {
		left[i] = p.Left
		right[i] = p.Right
	}
	return left, right
}
