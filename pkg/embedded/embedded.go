// Package embedded 提供嵌入资源的统一访问接口
//
// //go:embed 只能嵌入当前包目录及其子目录的文件，
// 因此文件系统变量声明在项目根目录（embed.go），由 main 调用 Init 注入。
// 路径以 "assets/" 或 "data/" 开头，分别路由到两个文件系统。
package embedded

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// ErrNotInitialized 尚未调用 Init
var ErrNotInitialized = errors.New("embedded package not initialized, call Init() first")

var (
	assetsFS    fs.FS
	dataFS      fs.FS
	initialized bool
)

// Init 注入资源文件系统
// 必须在任何资源加载之前调用；任一参数为 nil 时对应前缀不可用
func Init(assets, data fs.FS) {
	assetsFS = assets
	dataFS = data
	initialized = true
}

// IsInitialized 是否已初始化
func IsInitialized() bool {
	return initialized
}

// resolve 按前缀选择文件系统，并把路径规范化为 embed 使用的正斜杠形式
func resolve(path string) (fs.FS, string, error) {
	if !initialized {
		return nil, "", ErrNotInitialized
	}

	path = strings.TrimPrefix(filepath.ToSlash(path), "./")

	var fsys fs.FS
	switch {
	case strings.HasPrefix(path, "assets/"):
		fsys = assetsFS
	case strings.HasPrefix(path, "data/"):
		fsys = dataFS
	default:
		return nil, "", fmt.Errorf("unknown resource path prefix: %s (must start with 'assets/' or 'data/')", path)
	}
	if fsys == nil {
		return nil, "", fmt.Errorf("no filesystem registered for %s", path)
	}
	return fsys, path, nil
}

// Open 打开文件
func Open(path string) (fs.File, error) {
	fsys, p, err := resolve(path)
	if err != nil {
		return nil, err
	}
	return fsys.Open(p)
}

// ReadFile 读取文件内容
func ReadFile(path string) ([]byte, error) {
	fsys, p, err := resolve(path)
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(fsys, p)
}

// Exists 文件是否存在
func Exists(path string) bool {
	_, err := Stat(path)
	return err == nil
}

// Stat 获取文件信息
func Stat(path string) (fs.FileInfo, error) {
	fsys, p, err := resolve(path)
	if err != nil {
		return nil, err
	}
	return fs.Stat(fsys, p)
}

// Glob 匹配文件
func Glob(pattern string) ([]string, error) {
	fsys, p, err := resolve(pattern)
	if err != nil {
		return nil, err
	}
	return fs.Glob(fsys, p)
}
