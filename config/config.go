package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Upload  UploadConfig  `mapstructure:"upload"`
	Brush   BrushConfig   `mapstructure:"brush"`
	Decode  DecodeConfig  `mapstructure:"decode"`
	Export  ExportConfig  `mapstructure:"export"`
	Session SessionConfig `mapstructure:"session"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type UploadConfig struct {
	MaxSize           int64    `mapstructure:"max_size"`
	MaxFiles          int      `mapstructure:"max_files"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
}

// BrushConfig 新会话的画笔初始值
type BrushConfig struct {
	Radius  float64 `mapstructure:"radius"`
	Opacity float64 `mapstructure:"opacity"`
	Mode    string  `mapstructure:"mode"`
}

type DecodeConfig struct {
	// Backend native 或 opencv；opencv 作为标准解码失败后的兜底
	Backend       string `mapstructure:"backend"`
	MaxConcurrent int    `mapstructure:"max_concurrent"`
}

type ExportConfig struct {
	// Sinks 可选 dir、s3、redis，可组合
	Sinks []string `mapstructure:"sinks"`
	Dir   string   `mapstructure:"dir"`
	S3    S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Prefix    string `mapstructure:"prefix"`
	Endpoint  string `mapstructure:"endpoint"`
	PathStyle bool   `mapstructure:"path_style"`
}

type SessionConfig struct {
	MaxSessions int           `mapstructure:"max_sessions"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

// Load 从 YAML 文件加载配置
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("MASKKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 设置默认值
	setDefaults(v)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// New 使用默认配置路径加载配置
func New() *Config {
	cfg, err := Load("config.yaml")
	if err != nil {
		// 如果加载失败，返回默认配置
		return getDefaultConfig()
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	d := getDefaultConfig()

	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.mode", d.Server.Mode)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)

	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.ttl", d.Redis.TTL)

	v.SetDefault("upload.max_size", d.Upload.MaxSize)
	v.SetDefault("upload.max_files", d.Upload.MaxFiles)
	v.SetDefault("upload.allowed_extensions", d.Upload.AllowedExtensions)

	v.SetDefault("brush.radius", d.Brush.Radius)
	v.SetDefault("brush.opacity", d.Brush.Opacity)
	v.SetDefault("brush.mode", d.Brush.Mode)

	v.SetDefault("decode.backend", d.Decode.Backend)
	v.SetDefault("decode.max_concurrent", d.Decode.MaxConcurrent)

	v.SetDefault("export.sinks", d.Export.Sinks)
	v.SetDefault("export.dir", d.Export.Dir)
	v.SetDefault("export.s3.region", d.Export.S3.Region)
	v.SetDefault("export.s3.prefix", d.Export.S3.Prefix)

	v.SetDefault("session.max_sessions", d.Session.MaxSessions)
	v.SetDefault("session.idle_timeout", d.Session.IdleTimeout)
}

func getDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         ":8080",
			Mode:         "debug",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			TTL:      24 * time.Hour,
		},
		Upload: UploadConfig{
			MaxSize:           50 * 1024 * 1024,
			MaxFiles:          500,
			AllowedExtensions: []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp", ".tif", ".tiff"},
		},
		Brush: BrushConfig{
			Radius:  15,
			Opacity: 0.7,
			Mode:    "draw",
		},
		Decode: DecodeConfig{
			Backend:       "native",
			MaxConcurrent: 4,
		},
		Export: ExportConfig{
			Sinks: []string{"dir"},
			Dir:   "./masks",
			S3: S3Config{
				Region: "us-east-1",
				Prefix: "masks",
			},
		},
		Session: SessionConfig{
			MaxSessions: 32,
			IdleTimeout: 2 * time.Hour,
		},
	}
}

// Default 返回默认配置副本
func Default() *Config {
	return getDefaultConfig()
}
