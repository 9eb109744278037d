package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/soullink/internal/infra/fsx"
)

// 输出目录下的固定文件名。
const (
	ReportText = "report.txt"
	ReportJSON = "report.json"
	SearchText = "search.txt"
)

// Store 提供 <out>/ 下报告文件的读写。
//
// 约束：
// - dry-run：只允许读（ReadOnly=true）
// - apply：允许写（ReadOnly=false）
type Store struct {
	Root     string // <out>
	ReadOnly bool
}

var ErrReadOnly = errors.New("store: read-only")

func New(root string, readOnly bool) Store {
	return Store{
		Root:     filepath.Clean(strings.TrimSpace(root)),
		ReadOnly: readOnly,
	}
}

// Path 返回输出文件的绝对路径；name 只能是单个文件名。
func (s Store) Path(name string) (string, error) {
	n, err := cleanName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.Root, n), nil
}

// Read 读取输出文件；不存在时返回 (nil, false, nil)。
func (s Store) Read(name string) ([]byte, bool, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, false, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

// Write 原子覆盖写入输出文件。
func (s Store) Write(name string, data []byte) error {
	if s.ReadOnly {
		return ErrReadOnly
	}
	n, err := cleanName(name)
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomic(s.Root, n, data)
}

func cleanName(name string) (string, error) {
	n := strings.TrimSpace(name)
	if n == "" {
		return "", fmt.Errorf("文件名不能为空")
	}
	// 最小约束：避免路径穿越。
	if n != filepath.Base(n) || n == "." || n == ".." {
		return "", fmt.Errorf("非法文件名：%q", name)
	}
	return n, nil
}
