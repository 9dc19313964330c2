package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v2"
)

type SysConfig struct {
	Appid    string `yaml:"appid" json:"appid"`
	Location string `yaml:"location" json:"location"`
	Workdir  string `yaml:"workdir" json:"workdir"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type WebConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
	// JwtSecret signs short-lived session tokens. Personal access tokens are
	// matched against the users table and do not depend on this value.
	JwtSecret string `yaml:"jwt_secret" json:"jwt_secret"`
	// JwtExpireHours bounds the lifetime of issued session tokens.
	JwtExpireHours int `yaml:"jwt_expire_hours" json:"jwt_expire_hours"`
}

type DBConfig struct {
	Type     string `yaml:"type" json:"type"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Name     string `yaml:"name" json:"name"`
	User     string `yaml:"user" json:"user"`
	Passwd   string `yaml:"passwd" json:"passwd"`
	MaxConn  int    `yaml:"max_conn" json:"max_conn"`
	IdleConn int    `yaml:"idle_conn" json:"idle_conn"`
}

type LogConfig struct {
	Mode       string `yaml:"mode" json:"mode"`
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

// WasenderConfig describes the remote WhatsApp session gateway. ApiKey is the
// account-level bearer token used for session management calls; per-session
// status calls use the api key stored on the session row instead.
type WasenderConfig struct {
	BaseURL string `yaml:"base_url" json:"base_url"`
	ApiKey  string `yaml:"api_key" json:"api_key"`
}

// StorageConfig points at an S3-compatible bucket (R2, MinIO, S3) holding
// uploaded media objects.
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint" json:"endpoint"`
	AccessKey string `yaml:"access_key" json:"access_key"`
	SecretKey string `yaml:"secret_key" json:"secret_key"`
	Bucket    string `yaml:"bucket" json:"bucket"`
	UseSSL    bool   `yaml:"use_ssl" json:"use_ssl"`
	// PublicURL is the externally reachable base under which objects are
	// served, recorded into media metadata rows.
	PublicURL string `yaml:"public_url" json:"public_url"`
}

type AppConfig struct {
	System   SysConfig      `yaml:"system" json:"system"`
	Web      WebConfig      `yaml:"web" json:"web"`
	Database DBConfig       `yaml:"database" json:"database"`
	Logger   LogConfig      `yaml:"logger" json:"logger"`
	Wasender WasenderConfig `yaml:"wasender" json:"wasender"`
	Storage  StorageConfig  `yaml:"storage" json:"storage"`
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "textmint",
		Location: "Asia/Kolkata",
		Workdir:  "/var/textmint",
		Debug:    true,
	},
	Web: WebConfig{
		Host:           "0.0.0.0",
		Port:           1816,
		JwtSecret:      "9b6de5cc-textmint-0cc5-47fd",
		JwtExpireHours: 24,
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "textmint",
		User:     "postgres",
		Passwd:   "",
		MaxConn:  100,
		IdleConn: 10,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/textmint/textmint.log",
	},
	Wasender: WasenderConfig{
		BaseURL: "https://www.wasenderapi.com/api",
	},
	Storage: StorageConfig{
		Bucket: "textmint-media",
	},
}

func setEnvValue(name string, f func(v string)) {
	if v, ok := os.LookupEnv(name); ok {
		f(v)
	}
}

// LoadConfig reads the YAML configuration file and applies TEXTMINT_*
// environment overrides. A missing file yields the defaults.
func LoadConfig(cfile string) *AppConfig {
	cfg := new(AppConfig)
	*cfg = *DefaultAppConfig
	if cfile != "" {
		if data, err := os.ReadFile(cfile); err == nil {
			_ = yaml.Unmarshal(data, cfg)
		}
	}

	setEnvValue("TEXTMINT_SYSTEM_DEBUG", func(v string) { cfg.System.Debug = cast.ToBool(v) })
	setEnvValue("TEXTMINT_SYSTEM_WORKDIR", func(v string) { cfg.System.Workdir = v })
	setEnvValue("TEXTMINT_WEB_HOST", func(v string) { cfg.Web.Host = v })
	setEnvValue("TEXTMINT_WEB_PORT", func(v string) { cfg.Web.Port = cast.ToInt(v) })
	setEnvValue("TEXTMINT_WEB_JWT_SECRET", func(v string) { cfg.Web.JwtSecret = v })
	setEnvValue("TEXTMINT_DB_TYPE", func(v string) { cfg.Database.Type = v })
	setEnvValue("TEXTMINT_DB_HOST", func(v string) { cfg.Database.Host = v })
	setEnvValue("TEXTMINT_DB_PORT", func(v string) { cfg.Database.Port = cast.ToInt(v) })
	setEnvValue("TEXTMINT_DB_NAME", func(v string) { cfg.Database.Name = v })
	setEnvValue("TEXTMINT_DB_USER", func(v string) { cfg.Database.User = v })
	setEnvValue("TEXTMINT_DB_PWD", func(v string) { cfg.Database.Passwd = v })
	setEnvValue("TEXTMINT_WASENDER_URL", func(v string) { cfg.Wasender.BaseURL = v })
	setEnvValue("TEXTMINT_WASENDER_API_KEY", func(v string) { cfg.Wasender.ApiKey = v })
	setEnvValue("TEXTMINT_STORAGE_ENDPOINT", func(v string) { cfg.Storage.Endpoint = v })
	setEnvValue("TEXTMINT_STORAGE_ACCESS_KEY", func(v string) { cfg.Storage.AccessKey = v })
	setEnvValue("TEXTMINT_STORAGE_SECRET_KEY", func(v string) { cfg.Storage.SecretKey = v })
	setEnvValue("TEXTMINT_STORAGE_BUCKET", func(v string) { cfg.Storage.Bucket = v })
	setEnvValue("TEXTMINT_STORAGE_PUBLIC_URL", func(v string) { cfg.Storage.PublicURL = v })

	if cfg.Logger.Filename == "" {
		cfg.Logger.Filename = filepath.Join(cfg.System.Workdir, "textmint.log")
	}
	return cfg
}
