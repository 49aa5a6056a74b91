package taskimport

import (
	"os"
	"path/filepath"
)

// FileEntry 单个目录项的元数据，只在一次扫描内有效
type FileEntry struct {
	Path    string // 绝对路径
	Name    string // 文件名 (最后一段)
	Ext     string // 扩展名，带前导点
	Regular bool   // 是否普通文件 (跟随符号链接)
}

// 跳过原因，只出现在诊断日志中
const (
	reasonNotRegular   = "not a regular file"
	reasonExtensionOff = "extension not recognized"
)

// List 非递归地列出目录下的直接子项
// 返回顺序取决于文件系统，不保证稳定；目录不存在或不可读时原样返回 *fs.PathError
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

// Stat 构建目录项元数据
// 使用 os.Stat，指向目录的符号链接按目录处理
func Stat(dir, filename string) (FileEntry, error) {
	path := filepath.Join(dir, filename)
	info, err := os.Stat(path)
	if err != nil {
		return FileEntry{}, err
	}

	return FileEntry{
		Path:    path,
		Name:    filename,
		Ext:     extname(filename),
		Regular: info.Mode().IsRegular(),
	}, nil
}

// Classify 判断目录项是否需要加载：普通文件且扩展名在识别集合内
// 不需要加载时 reason 给出跳过原因，需要加载时为空
func Classify(dir, filename string, opts Options) (entry FileEntry, reason string, err error) {
	entry, err = Stat(dir, filename)
	if err != nil {
		return FileEntry{}, "", err
	}
	return entry, skipReason(entry, opts), nil
}

// extname 取最后一个点开始的扩展名
// 唯一的点在开头 (".js"、".env") 时视为没有扩展名
func extname(filename string) string {
	ext := filepath.Ext(filename)
	if ext == filename || filename == ".." {
		return ""
	}
	return ext
}

func skipReason(entry FileEntry, opts Options) string {
	if !entry.Regular {
		return reasonNotRegular
	}
	if !opts.HasExtension(entry.Ext) {
		return reasonExtensionOff
	}
	return ""
}
