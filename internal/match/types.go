package match

import "github.com/John-Robertt/soullink/internal/domain"

// TypeTemplates 按属性搜索：在索引上枚举所有极大且不重复的属性组合模板。
//
// 玩家 1 的属性按规范顺序递增选取；玩家 2 的属性不受顺序约束，但不能与同位置的
// 玩家 1 属性相同，且不能是任何已占用的属性。去重按 (x_i, y_i) 位置对集合整体比较。
func TypeTemplates(idx *Index) []domain.TeamPair[domain.Type] {
	return TypeTemplatesWithObserver(idx, nil)
}

func TypeTemplatesWithObserver(idx *Index, obs Observer) []domain.TeamPair[domain.Type] {
	st := &typeStrategy{index: idx}
	return newSearcher[domain.Type](st, obs).run()
}

// Expand 把一个属性模板还原为具体的宝可梦槽位：
// 第 i 个位置取索引格子 (x_i, y_i)，玩家 1 一侧放 Left 列，玩家 2 一侧放 Right 列。
func Expand(idx *Index, tmpl domain.TeamPair[domain.Type]) domain.TeamPair[domain.Slot] {
	var out domain.TeamPair[domain.Slot]
	for i := 0; i < tmpl.Size(); i++ {
		xt, yt := tmpl[0].At(i), tmpl[1].At(i)
		left, right := idx.Unzip(xt, yt)
		// 模板长度不超过 6，这里不会失败。
		_ = out[0].Append(domain.Slot{Type: xt, Members: left})
		_ = out[1].Append(domain.Slot{Type: yt, Members: right})
	}
	return out
}

// TypeTeams 建索引、搜索属性模板并逐个展开（生成顺序）。
func TypeTeams(pairs []domain.Pair) []domain.TeamPair[domain.Slot] {
	return TypeTeamsWithObserver(pairs, nil)
}

func TypeTeamsWithObserver(pairs []domain.Pair, obs Observer) []domain.TeamPair[domain.Slot] {
	idx := BuildIndex(pairs)
	tmpls := TypeTemplatesWithObserver(idx, obs)
	out := make([]domain.TeamPair[domain.Slot], len(tmpls))
	for i, t := range tmpls {
		out[i] = Expand(idx, t)
	}
	return out
}

type typeKey [2]domain.Type

type typeStrategy struct {
	index    *Index
	accepted []map[typeKey]struct{}
}

func (t *typeStrategy) limit() int { return domain.NumTypes }

func (t *typeStrategy) expand(idx int, used typeSet, visit func(int, domain.Type, domain.Type, domain.Type, domain.Type)) {
	for i := idx; i < domain.NumTypes; i++ {
		xt := domain.Type(i)
		if used.has(xt) {
			continue
		}
		for j := 0; j < domain.NumTypes; j++ {
			yt := domain.Type(j)
			if yt == xt || used.has(yt) || !t.index.Has(xt, yt) {
				continue
			}
			visit(i+1, xt, yt, xt, yt)
		}
	}
}

func (t *typeStrategy) subsumed(x, y []domain.Type) bool {
	for _, acc := range t.accepted {
		covered := true
		for i := range x {
			if _, ok := acc[typeKey{x[i], y[i]}]; !ok {
				covered = false
				break
			}
		}
		if covered {
			return true
		}
	}
	return false
}

func (t *typeStrategy) record(x, y []domain.Type) {
	s := make(map[typeKey]struct{}, len(x))
	for i := range x {
		s[typeKey{x[i], y[i]}] = struct{}{}
	}
	t.accepted = append(t.accepted, s)
}
