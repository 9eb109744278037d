package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/soullink/internal/domain"
	"github.com/John-Robertt/soullink/internal/pairs"
)

const (
	// ErrCodeNotFound 表示需要配置文件但找不到（显式 --config 不存在，或未给 pairs 且 cwd 下没有配置文件）。
	ErrCodeNotFound = domain.ErrCodeConfigNotFound
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = domain.ErrCodeConfigInvalid
	// ErrCodeMissingPairs 表示 CLI 与配置文件都没有给出配对表来源。
	ErrCodeMissingPairs = domain.ErrCodeConfigMissingPairs
)

const (
	DefaultMode      = domain.ModeType
	DefaultNameWidth = 10
	DefaultTypeWidth = 8
	DefaultOutDir    = "out"
)

// 无 --config 时按顺序在 cwd 下查找。
var discoverNames = []string{"soullink.json", "soullink.yaml", "soullink.yml"}

// CLIArgs 保留“是否显式指定”的信息，保证 --apply=false 之类能覆盖配置文件。
type CLIArgs struct {
	ConfigPath string
	Pairs      string

	Header    bool
	HeaderSet bool

	Players    [2]string
	PlayersSet bool

	Mode    string
	ModeSet bool

	MinSize    int
	MinSizeSet bool

	Out    string
	OutSet bool

	Apply    bool
	ApplySet bool
}

// FileConfig 对应 soullink.json / soullink.yaml 的解析结构。
type FileConfig struct {
	Pairs     string       `json:"pairs" yaml:"pairs"`
	Header    *bool        `json:"header" yaml:"header"`
	Players   []string     `json:"players" yaml:"players" validate:"omitempty,len=2,dive,required"`
	Mode      string       `json:"mode" yaml:"mode" validate:"omitempty,oneof=type pokemon"`
	MinSize   *int         `json:"min_size" yaml:"min_size" validate:"omitempty,gte=0,lte=6"`
	NameWidth int          `json:"name_width" yaml:"name_width" validate:"gte=0,lte=64"`
	TypeWidth int          `json:"type_width" yaml:"type_width" validate:"gte=0,lte=64"`
	Out       string       `json:"out" yaml:"out"`
	Apply     *bool        `json:"apply" yaml:"apply"`
	Proxy     *ProxyConfig `json:"proxy" yaml:"proxy"`
}

type ProxyConfig struct {
	URL string `json:"url" yaml:"url" validate:"omitempty,url"`
}

// EffectiveConfig 是合并并规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	// ConfigPath 为实际读取的配置文件；未读取时为空。
	ConfigPath string `json:"config_path"`

	// Pairs 是本地绝对路径或 http(s) URL。
	Pairs  string `json:"pairs" validate:"required"`
	Header bool   `json:"header"`

	Players   [2]string `json:"players" validate:"dive,required"`
	Mode      string    `json:"mode" validate:"oneof=type pokemon"`
	MinSize   int       `json:"min_size" validate:"gte=0,lte=6"`
	NameWidth int       `json:"name_width" validate:"gte=1,lte=64"`
	TypeWidth int       `json:"type_width" validate:"gte=1,lte=64"`

	Out      string `json:"out" validate:"required"`
	Apply    bool   `json:"apply"`
	ProxyURL string `json:"proxy_url" validate:"omitempty,url"`
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeMissingPairs:
		if e.Path == "" {
			return fmt.Sprintf("%s：未指定配对表（参数或配置文件 pairs 字段）", e.Code)
		}
		return fmt.Sprintf("%s：配置文件 %q 缺少必填字段 pairs", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// 错误信息里使用配置文件中的字段名。
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// LoadEffective 发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) 给了 --config：必须存在
// 2) 否则在 cwd 下依次查找 soullink.json / soullink.yaml / soullink.yml
// 3) CLI 给了 pairs 时配置文件可选；否则必须存在且包含 pairs
//
// 覆盖优先级（固定）：CLI（显式指定）> 配置文件 > 默认值。
// 相对路径：来自 CLI 的以 cwd 为基准，来自配置文件的以配置文件所在目录为基准。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	var (
		cfgPath string
		fc      FileConfig
		exists  bool
	)
	if p := strings.TrimSpace(cli.ConfigPath); p != "" {
		cfgPath = absCleanFrom(cwdAbs, p)
		fc, exists, err = readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		if !exists {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
	} else {
		for _, name := range discoverNames {
			cfgPath = filepath.Join(cwdAbs, name)
			fc, exists, err = readFileConfig(cfgPath)
			if err != nil {
				return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
			}
			if exists {
				break
			}
		}
		if !exists {
			cfgPath = filepath.Join(cwdAbs, discoverNames[0])
			if strings.TrimSpace(cli.Pairs) == "" {
				return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
			}
			return merge(cwdAbs, "", cli, FileConfig{})
		}
	}

	fc.Mode = strings.ToLower(strings.TrimSpace(fc.Mode))
	if err := validate.Struct(fc); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: describe(err)}
	}
	return merge(cwdAbs, cfgPath, cli, fc)
}

func merge(cwd, cfgPath string, cli CLIArgs, fc FileConfig) (EffectiveConfig, error) {
	cfgDir := cwd
	if cfgPath != "" {
		cfgDir = filepath.Dir(cfgPath)
	}

	eff := EffectiveConfig{
		ConfigPath: cfgPath,
		Players:    [2]string{"Team 1", "Team 2"},
		Mode:       DefaultMode,
		NameWidth:  DefaultNameWidth,
		TypeWidth:  DefaultTypeWidth,
		Out:        filepath.Join(cwd, DefaultOutDir),
	}

	// pairs：CLI > config
	switch {
	case strings.TrimSpace(cli.Pairs) != "":
		eff.Pairs = resolveSource(cwd, cli.Pairs)
	case strings.TrimSpace(fc.Pairs) != "":
		eff.Pairs = resolveSource(cfgDir, fc.Pairs)
	default:
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingPairs, Path: cfgPath}
	}

	if cli.HeaderSet {
		eff.Header = cli.Header
	} else if fc.Header != nil {
		eff.Header = *fc.Header
	}

	if cli.PlayersSet {
		eff.Players = [2]string{strings.TrimSpace(cli.Players[0]), strings.TrimSpace(cli.Players[1])}
	} else if len(fc.Players) == 2 {
		eff.Players = [2]string{strings.TrimSpace(fc.Players[0]), strings.TrimSpace(fc.Players[1])}
	}

	if cli.ModeSet {
		eff.Mode = strings.ToLower(strings.TrimSpace(cli.Mode))
	} else if m := strings.TrimSpace(fc.Mode); m != "" {
		eff.Mode = strings.ToLower(m)
	}

	if cli.MinSizeSet {
		eff.MinSize = cli.MinSize
	} else if fc.MinSize != nil {
		eff.MinSize = *fc.MinSize
	}

	if fc.NameWidth > 0 {
		eff.NameWidth = fc.NameWidth
	}
	if fc.TypeWidth > 0 {
		eff.TypeWidth = fc.TypeWidth
	}

	if cli.OutSet && strings.TrimSpace(cli.Out) != "" {
		eff.Out = absCleanFrom(cwd, cli.Out)
	} else if strings.TrimSpace(fc.Out) != "" {
		eff.Out = absCleanFrom(cfgDir, fc.Out)
	}

	if cli.ApplySet {
		eff.Apply = cli.Apply
	} else if fc.Apply != nil {
		eff.Apply = *fc.Apply
	}

	if fc.Proxy != nil {
		eff.ProxyURL = strings.TrimSpace(fc.Proxy.URL)
	}

	if err := validate.Struct(eff); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: describe(err)}
	}
	return eff, nil
}

// describe 把 validator 的错误整理成一行可读信息。
func describe(err error) error {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	msgs := make([]string, 0, len(ves))
	for _, fe := range ves {
		field := strings.TrimPrefix(fe.Namespace(), "FileConfig.")
		field = strings.TrimPrefix(field, "EffectiveConfig.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s 不满足 %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s 不满足 %s", field, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "；"))
}

func resolveSource(base, src string) string {
	src = strings.TrimSpace(src)
	if pairs.IsRemote(src) {
		return src
	}
	return absCleanFrom(base, src)
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 按扩展名以 JSON 或 YAML 解析配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &fc)
	default:
		err = json.Unmarshal(b, &fc)
	}
	if err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
