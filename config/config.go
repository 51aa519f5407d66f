package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config 服务配置
type Config struct {
	Server struct {
		Port int    `mapstructure:"port"`
		Mode string `mapstructure:"mode"` // debug / release
	} `mapstructure:"server"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`

	Database struct {
		Driver string `mapstructure:"driver"` // postgres / sqlite
		DSN    string `mapstructure:"dsn"`
	} `mapstructure:"database"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	// Services 外部协作方（关系链 / 内容 / 用户资料）
	Services struct {
		FollowersBaseURL string `mapstructure:"followers_base_url"`
		PostsBaseURL     string `mapstructure:"posts_base_url"`
		ProfilesBaseURL  string `mapstructure:"profiles_base_url"`
		TimeoutMS        int    `mapstructure:"timeout_ms"`
	} `mapstructure:"services"`

	Fanout struct {
		Stream           string  `mapstructure:"stream"`
		Group            string  `mapstructure:"group"`
		Consumer         string  `mapstructure:"consumer"`
		EventWorkers     int     `mapstructure:"event_workers"`
		AppendWorkers    int     `mapstructure:"append_workers"`
		FollowerPageSize int     `mapstructure:"follower_page_size"`
		AppendMaxTries   uint    `mapstructure:"append_max_tries"`
		AppendRatePerSec float64 `mapstructure:"append_rate_per_sec"` // 0 = 不限速
	} `mapstructure:"fanout"`

	Feed struct {
		DefaultPageSize    int `mapstructure:"default_page_size"`
		MaxPageSize        int `mapstructure:"max_page_size"`
		ProfileCacheTTLSec int `mapstructure:"profile_cache_ttl_sec"`
	} `mapstructure:"feed"`

	Auth struct {
		JWTSecret string `mapstructure:"jwt_secret"` // 为空则透传 token 不校验
	} `mapstructure:"auth"`

	Tracing struct {
		Enabled  bool   `mapstructure:"enabled"`
		Endpoint string `mapstructure:"endpoint"`
	} `mapstructure:"tracing"`

	Sentry struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"sentry"`
}

// Load 读取 config.yaml 并叠加环境变量（FEED_ 前缀）
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvPrefix("FEED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "feed.db")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("services.timeout_ms", 2000)
	v.SetDefault("fanout.stream", "post-events")
	v.SetDefault("fanout.group", "fanout")
	v.SetDefault("fanout.consumer", "fanout-1")
	v.SetDefault("fanout.event_workers", 4)
	v.SetDefault("fanout.append_workers", 8)
	v.SetDefault("fanout.follower_page_size", 10)
	v.SetDefault("fanout.append_max_tries", 3)
	v.SetDefault("feed.default_page_size", 10)
	v.SetDefault("feed.max_page_size", 100)
	v.SetDefault("feed.profile_cache_ttl_sec", 300)

	if err := v.ReadInConfig(); err != nil {
		// 允许无配置文件，全部走默认值与环境变量
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
