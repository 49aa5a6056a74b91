package conf

import (
	"os"
	"strings"

	"github.com/iceymoss/go-taskimport/pkg/taskimport"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Import ImportConfig `mapstructure:"import"`
	Jobs   []JobConfig  `mapstructure:"jobs"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// ImportConfig 任务目录配置，未识别的键保留在 Extra 中
type ImportConfig struct {
	Dir        string         `mapstructure:"dir"`
	Extensions []string       `mapstructure:"extensions"`
	Params     []any          `mapstructure:"params"`
	Extra      map[string]any `mapstructure:",remain"`
}

type JobConfig struct {
	Name   string `mapstructure:"name"`
	Cron   string `mapstructure:"cron"`
	Enable bool   `mapstructure:"enable"`
}

// Input 转换成导入器的选项
func (c ImportConfig) Input() taskimport.Input {
	return taskimport.Config{
		Dir:        c.Dir,
		Extensions: c.Extensions,
		Params:     c.Params,
		Extra:      c.Extra,
	}
}

// LoadConfig 加载配置
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TASKIMPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv() // 自动读取环境变量，例如 TASKIMPORT_IMPORT_DIR

	v.SetDefault("server.port", ":8080")
	v.SetDefault("import.dir", taskimport.DefaultDir)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	// 允许环境变量替换 YAML 中的 ${VAR}，列表内的值同样替换
	for _, key := range v.AllKeys() {
		if val, ok := expandEnv(v.Get(key)); ok {
			v.Set(key, val)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// expandEnv 递归替换字符串及列表中的 ${VAR}，ok 表示有值被替换
func expandEnv(val any) (any, bool) {
	switch v := val.(type) {
	case string:
		if !strings.Contains(v, "${") {
			return v, false
		}
		return os.ExpandEnv(v), true
	case []string:
		out := make([]string, len(v))
		changed := false
		for i, s := range v {
			if strings.Contains(s, "${") {
				s, changed = os.ExpandEnv(s), true
			}
			out[i] = s
		}
		return out, changed
	case []any:
		out := make([]any, len(v))
		changed := false
		for i, item := range v {
			expanded, ok := expandEnv(item)
			out[i] = expanded
			changed = changed || ok
		}
		return out, changed
	default:
		return val, false
	}
}
