package domain

// Pokemon 是带且只带一个属性的宝可梦。
//
// 值语义：名字与属性都相同的两只宝可梦在集合比较中视为同一只。
// 构造后只能通过 SetName/SetType 修改。
type Pokemon struct {
	name string
	typ  Type
}

// NewPokemon 用属性标签构造宝可梦；标签无法识别时返回 *TypeError。
func NewPokemon(name, typeLabel string) (Pokemon, error) {
	t, err := ParseType(typeLabel)
	if err != nil {
		return Pokemon{}, err
	}
	return Pokemon{name: name, typ: t}, nil
}

// MustPokemon 与 NewPokemon 相同，但在标签无效时 panic（用于测试与固定数据）。
func MustPokemon(name, typeLabel string) Pokemon {
	p, err := NewPokemon(name, typeLabel)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Pokemon) Name() string { return p.name }
func (p Pokemon) Type() Type   { return p.typ }

func (p *Pokemon) SetName(name string) { p.name = name }

// SetType 校验并设置属性；失败时保持原值不变。
func (p *Pokemon) SetType(label string) error {
	t, err := ParseType(label)
	if err != nil {
		return err
	}
	p.typ = t
	return nil
}

func (p Pokemon) String() string {
	return p.name + ": " + p.typ.String()
}

// Pair 是一组 Soul Link 绑定：Left 属于玩家 1，Right 属于玩家 2。
// 顺序有意义，全流程保持不变。
type Pair struct {
	Left  Pokemon
	Right Pokemon
}

// NewPair 由两条 (name, type) 记录构造绑定对。
func NewPair(leftName, leftType, rightName, rightType string) (Pair, error) {
	l, err := NewPokemon(leftName, leftType)
	if err != nil {
		return Pair{}, err
	}
	r, err := NewPokemon(rightName, rightType)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Left: l, Right: r}, nil
}

// Types 返回 (Left 属性, Right 属性)。
func (p Pair) Types() (Type, Type) {
	return p.Left.typ, p.Right.typ
}
