package match

import (
	"fmt"

	"github.com/John-Robertt/soullink/internal/domain"
)

// Observer 接收搜索过程中的进度事件（同步调用，在搜索所在 goroutine 上执行）。
type Observer interface {
	// OnAccept 在每次候选被提交给去重检查后调用：
	// accepted 为已接受的结果数，offered 为已提交的候选总数（含被丢弃的）。
	OnAccept(accepted, offered int)
}

type nopObserver struct{}

func (nopObserver) OnAccept(int, int) {}

// typeSet 是已占用属性的位图（18 个属性放得进 uint32）。
type typeSet uint32

func (s typeSet) has(t domain.Type) bool { return s&(1<<t) != 0 }
func (s *typeSet) add(t domain.Type)     { *s |= 1 << t }
func (s *typeSet) del(t domain.Type)     { *s &^= 1 << t }

// strategy 是两种搜索的差异部分：候选如何扩展、候选如何判重。
//
// 递归、回溯、属性占用、完成条件与死路规则都由 searcher 统一处理。
type strategy[T comparable] interface {
	// limit 是搜索下标的终点；idx 到达它即视为完成。
	limit() int
	// expand 从 idx 起枚举所有可加入的一对成员 (a, b) 及其属性 (ta, tb)，
	// 对每个调用一次 visit；next 是递归时使用的下一个下标。
	expand(idx int, used typeSet, visit func(next int, a, b T, ta, tb domain.Type))
	// subsumed 报告候选是否已被某个已接受的结果覆盖。
	subsumed(x, y []T) bool
	// record 登记一个刚被接受的结果，供之后的 subsumed 使用。
	record(x, y []T)
}

type searcher[T comparable] struct {
	st   strategy[T]
	obs  Observer
	x, y domain.Team[T]
	used typeSet

	results []domain.TeamPair[T]
	offered int
}

func newSearcher[T comparable](st strategy[T], obs Observer) *searcher[T] {
	if obs == nil {
		obs = nopObserver{}
	}
	return &searcher[T]{st: st, obs: obs}
}

func (s *searcher[T]) run() []domain.TeamPair[T] {
	s.walk(0)
	if s.results == nil {
		s.results = []domain.TeamPair[T]{}
	}
	return s.results
}

func (s *searcher[T]) walk(idx int) {
	if s.x.Full() || idx >= s.st.limit() {
		s.offer()
		return
	}

	extended := false
	s.st.expand(idx, s.used, func(next int, a, b T, ta, tb domain.Type) {
		extended = true
		s.push(a, b, ta, tb)
		s.walk(next)
		s.pop(ta, tb)
	})

	// 没有任何可加入的成员：当前草稿本身就是极大的。
	if !extended && s.x.Len() > 0 {
		s.offer()
	}
}

func (s *searcher[T]) push(a, b T, ta, tb domain.Type) {
	if err := s.x.Append(a); err != nil {
		panic(fmt.Sprintf("match: 搜索状态损坏：%v", err))
	}
	if err := s.y.Append(b); err != nil {
		panic(fmt.Sprintf("match: 搜索状态损坏：%v", err))
	}
	s.used.add(ta)
	s.used.add(tb)
}

func (s *searcher[T]) pop(ta, tb domain.Type) {
	s.x.Pop()
	s.y.Pop()
	s.used.del(ta)
	s.used.del(tb)
}

func (s *searcher[T]) offer() {
	if s.x.Len() == 0 {
		return
	}
	s.offered++

	x, y := s.x.Members(), s.y.Members()
	if !s.st.subsumed(x, y) {
		s.results = append(s.results, domain.TeamPair[T]{s.x.Clone(), s.y.Clone()})
		s.st.record(x, y)
	}
	s.obs.OnAccept(len(s.results), s.offered)
}
