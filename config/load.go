package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix 是环境变量前缀。
const EnvPrefix = "CFKIT_"

// envMappings 把环境变量（去掉前缀、转小写）映射到 koanf 路径。
var envMappings = map[string]string{
	"similarity_threshold": "recommend.similarity_threshold",
	"top_n":                "recommend.top_n",
	"metric":               "recommend.metric",
	"workers":              "recommend.workers",
	"cache_similarity":     "recommend.cache_similarity",
	"filter":               "recommend.filter",
	"blacklist":            "recommend.blacklist",
	"store_backend":        "store.backend",
	"store_key_prefix":     "store.key_prefix",
	"redis_addr":           "store.redis_addr",
	"redis_db":             "store.redis_db",
	"badger_path":          "store.badger_path",
	"log_level":            "log.level",
	"log_format":           "log.format",
}

// 环境变量里以逗号分隔的列表字段
var sliceConfigPaths = []string{
	"recommend.blacklist",
}

// Load 按 默认值 → YAML 文件（path 为空时跳过）→ 环境变量 的顺序加载配置并校验。
//
//	CFKIT_SIMILARITY_THRESHOLD=0.2 CFKIT_TOP_N=5 CFKIT_BLACKLIST=a,b
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := Default()
	if err := k.Load(structs.Provider(&defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := splitSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envTransform 返回空字符串的变量会被 koanf 忽略。
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return envMappings[key]
}

func splitSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := make([]string, 0)
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}
