package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxTeamSize 是一支队伍的容量上限。
const MaxTeamSize = 6

// ErrTeamFull 表示队伍已满，不能再加入成员。
var ErrTeamFull = errors.New("队伍已满 6 只，不能再加入")

// Team 是容量为 6 的有序序列（成员可以是宝可梦、属性或属性槽位）。
//
// 搜索过程中它是就地修改的草稿（Append/Pop），被接受时用 Clone 做浅拷贝快照。
// 零值即空队伍。
type Team[T any] struct {
	members []T
}

// NewTeam 用已有序列构造队伍；超过容量时返回 ErrTeamFull。
func NewTeam[T any](members ...T) (Team[T], error) {
	if len(members) > MaxTeamSize {
		return Team[T]{}, fmt.Errorf("给定 %d 个成员：%w", len(members), ErrTeamFull)
	}
	t := Team[T]{members: make([]T, len(members), MaxTeamSize)}
	copy(t.members, members)
	return t, nil
}

// Append 在末尾加入成员。
func (t *Team[T]) Append(v T) error {
	if t.Full() {
		return ErrTeamFull
	}
	if t.members == nil {
		t.members = make([]T, 0, MaxTeamSize)
	}
	t.members = append(t.members, v)
	return nil
}

// Insert 在下标 i 处插入成员（0 <= i <= Len）。
func (t *Team[T]) Insert(i int, v T) error {
	if t.Full() {
		return ErrTeamFull
	}
	if i < 0 || i > len(t.members) {
		return fmt.Errorf("插入位置越界：%d（长度 %d）", i, len(t.members))
	}
	var zero T
	t.members = append(t.members, zero)
	copy(t.members[i+1:], t.members[i:])
	t.members[i] = v
	return nil
}

// Pop 移除并返回最后一个成员；空队伍返回 false。
func (t *Team[T]) Pop() (T, bool) {
	var zero T
	n := len(t.members)
	if n == 0 {
		return zero, false
	}
	v := t.members[n-1]
	t.members[n-1] = zero
	t.members = t.members[:n-1]
	return v, true
}

func (t Team[T]) Len() int   { return len(t.members) }
func (t Team[T]) Full() bool { return len(t.members) >= MaxTeamSize }

// At 返回下标 i 的成员（越界 panic，与切片一致）。
func (t Team[T]) At(i int) T { return t.members[i] }

// Members 返回成员的副本。
func (t Team[T]) Members() []T {
	out := make([]T, len(t.members))
	copy(out, t.members)
	return out
}

// Clone 返回浅拷贝快照：之后对 t 的 Append/Pop 不影响快照。
func (t Team[T]) Clone() Team[T] {
	c, _ := NewTeam(t.members...)
	return c
}

// Slice 返回 [i, j) 区间构成的新队伍。
func (t Team[T]) Slice(i, j int) Team[T] {
	c, _ := NewTeam(t.members[i:j]...)
	return c
}

// String 输出固定宽度的块：首行是队伍大小，之后每个成员一行，不足 6 行用 empty 补齐。
func (t Team[T]) String() string {
	var b strings.Builder
	b.WriteString("Team Size: ")
	b.WriteString(strconv.Itoa(len(t.members)))
	b.WriteByte('\n')
	for _, m := range t.members {
		b.WriteByte('\t')
		fmt.Fprint(&b, m)
		b.WriteByte('\n')
	}
	for i := len(t.members); i < MaxTeamSize; i++ {
		b.WriteString("\tempty\n")
	}
	return b.String()
}

// TeamPair 是两位玩家绑定在一起的两支队伍：[0] 为玩家 1，[1] 为玩家 2。
type TeamPair[T any] [2]Team[T]

// Size 返回玩家 1 队伍的大小（两侧总是等长）。
func (p TeamPair[T]) Size() int { return p[0].Len() }

// Slot 是按属性搜索结果中的一个队伍位置：同一属性组合下所有可互换的宝可梦。
type Slot struct {
	Type    Type
	Members []Pokemon
}

func (s Slot) Names() []string {
	out := make([]string, len(s.Members))
	for i, p := range s.Members {
		out[i] = p.Name()
	}
	return out
}
