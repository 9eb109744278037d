package domain

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Type 是宝可梦属性（封闭集合，共 18 个）。
//
// 顺序即规范顺序：按属性搜索时按该顺序迭代，报告展示也依赖它。
type Type uint8

const (
	Normal Type = iota
	Fighting
	Flying
	Poison
	Ground
	Rock
	Bug
	Ghost
	Steel
	Fire
	Water
	Grass
	Electric
	Psychic
	Ice
	Dragon
	Dark
	Fairy

	numTypes
)

// NumTypes 是属性总数。
const NumTypes = int(numTypes)

var typeLabels = [NumTypes]string{
	"NORMAL", "FIGHTING", "FLYING", "POISON", "GROUND", "ROCK",
	"BUG", "GHOST", "STEEL", "FIRE", "WATER", "GRASS",
	"ELECTRIC", "PSYCHIC", "ICE", "DRAGON", "DARK", "FAIRY",
}

var (
	displayNames [NumTypes]string
	foldedLabels = make(map[string]Type, NumTypes)
)

func init() {
	title := cases.Title(language.English)
	for i, l := range typeLabels {
		displayNames[i] = title.String(strings.ToLower(l))
		foldedLabels[fold(l)] = Type(i)
	}
}

// fold 做 Unicode case folding。Caser 有状态，不能跨 goroutine 共享，所以每次新建。
func fold(s string) string {
	return cases.Fold().String(s)
}

// TypeError 表示无法识别的属性标签。
type TypeError struct {
	Label string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("无效的属性：%q", e.Label)
}

// ParseType 按大小写不敏感的方式解析属性标签（前后空白会被忽略）。
func ParseType(label string) (Type, error) {
	t, ok := foldedLabels[fold(strings.TrimSpace(label))]
	if !ok {
		return 0, &TypeError{Label: label}
	}
	return t, nil
}

// AllTypes 按规范顺序返回全部属性。
func AllTypes() []Type {
	out := make([]Type, NumTypes)
	for i := range out {
		out[i] = Type(i)
	}
	return out
}

// Valid 报告 t 是否属于封闭集合。
func (t Type) Valid() bool { return int(t) < NumTypes }

// String 返回展示名（例如 "Fire"）。
func (t Type) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
	return displayNames[t]
}

func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("无效的属性值：%d", uint8(t))
	}
	return []byte(displayNames[t]), nil
}

func (t *Type) UnmarshalText(b []byte) error {
	v, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
