package match

import "github.com/John-Robertt/soullink/internal/domain"

// Teams 按宝可梦搜索：返回所有极大且不重复的队伍组合（生成顺序）。
//
// 两位玩家共享一个属性占用集合：玩家 1 选了 Fire，玩家 2 也不能再用 Fire。
// 去重按两侧分别做：任一侧是某个已接受结果同侧的子集（含相等）就丢弃。
// 成员身份按输入行区分：两行同名同属性的宝可梦是两只不同的宝可梦。
func Teams(pairs []domain.Pair) []domain.TeamPair[domain.Pokemon] {
	return TeamsWithObserver(pairs, nil)
}

func TeamsWithObserver(pairs []domain.Pair, obs Observer) []domain.TeamPair[domain.Pokemon] {
	st := &pokemonStrategy{pairs: pairs}
	found := newSearcher[pick](st, obs).run()

	out := make([]domain.TeamPair[domain.Pokemon], len(found))
	for i, r := range found {
		for side, team := range r {
			out[i][side] = unpick(team)
		}
	}
	return out
}

// pick 是搜索中的一个成员：row 为绑定对在输入中的下标。
type pick struct {
	row int
	mon domain.Pokemon
}

func unpick(team domain.Team[pick]) domain.Team[domain.Pokemon] {
	mons := make([]domain.Pokemon, team.Len())
	for i := range mons {
		mons[i] = team.At(i).mon
	}
	// 长度来自同容量的队伍，不会超限。
	t, _ := domain.NewTeam(mons...)
	return t
}

type rowSet map[int]struct{}

type pokemonStrategy struct {
	pairs []domain.Pair
	// accepted[0] / accepted[1]：已接受结果两侧各自的输入行集合。
	accepted [2][]rowSet
}

func (p *pokemonStrategy) limit() int { return len(p.pairs) }

func (p *pokemonStrategy) expand(idx int, used typeSet, visit func(int, pick, pick, domain.Type, domain.Type)) {
	for i := idx; i < len(p.pairs); i++ {
		pr := p.pairs[i]
		lt, rt := pr.Types()
		if used.has(lt) || used.has(rt) {
			continue
		}
		visit(i+1, pick{row: i, mon: pr.Left}, pick{row: i, mon: pr.Right}, lt, rt)
	}
}

func (p *pokemonStrategy) subsumed(x, y []pick) bool {
	return coveredBy(x, p.accepted[0]) || coveredBy(y, p.accepted[1])
}

func (p *pokemonStrategy) record(x, y []pick) {
	p.accepted[0] = append(p.accepted[0], toRows(x))
	p.accepted[1] = append(p.accepted[1], toRows(y))
}

func coveredBy(team []pick, sets []rowSet) bool {
	for _, s := range sets {
		if subsetOf(team, s) {
			return true
		}
	}
	return false
}

func subsetOf(team []pick, s rowSet) bool {
	for _, m := range team {
		if _, ok := s[m.row]; !ok {
			return false
		}
	}
	return true
}

func toRows(team []pick) rowSet {
	s := make(rowSet, len(team))
	for _, m := range team {
		s[m.row] = struct{}{}
	}
	return s
}
