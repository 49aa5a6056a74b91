package loader

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/iceymoss/go-taskimport/pkg/task"

	"github.com/spf13/viper"
)

// ManifestExtensions Manifest loader 支持的文件类型
var ManifestExtensions = []string{".yaml", ".yml", ".json", ".toml"}

// Manifest 加载声明式的组合任务，只能描述 series 键下的有序列表
//
//	series:
//	  - clean
//	  - build
type Manifest struct{}

func (Manifest) Load(path string) (task.Definition, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, loadError(path, err)
	}

	v := viper.New()
	v.SetConfigType(strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
	if err := v.ReadConfig(bytes.NewReader(src)); err != nil {
		return nil, loadError(path, err)
	}

	if !v.IsSet("series") {
		return nil, shapeError(path, "manifest without series")
	}
	return task.List(v.GetStringSlice("series")), nil
}
