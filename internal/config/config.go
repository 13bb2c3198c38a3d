// internal/config/config.go
package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Database struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"database"`
	Server struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	CORS struct {
		AllowedOrigins   []string `mapstructure:"allowed_origins"`
		AllowedMethods   []string `mapstructure:"allowed_methods"`
		AllowedHeaders   []string `mapstructure:"allowed_headers"`
		ExposedHeaders   []string `mapstructure:"exposed_headers"`
		AllowCredentials bool     `mapstructure:"allow_credentials"`
		MaxAge           int      `mapstructure:"max_age"`
	} `mapstructure:"cors"`
	OpenAI struct {
		APIKey         string `mapstructure:"api_key"`
		APIURL         string `mapstructure:"api_url"`
		Model          string `mapstructure:"model"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	} `mapstructure:"openai"`
	App struct {
		AggregateMonths   int `mapstructure:"aggregate_months"`   // 月別集計のデフォルト期間
		DefaultTotalSongs int `mapstructure:"default_total_songs"` // 未知の教材に提案する曲数
	} `mapstructure:"app"`
}

var Cfg Config

func LoadConfig(path string) error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(path)
	viper.AddConfigPath(".")

	// 環境変数での上書き (例: APP_OPENAI_API_KEY)
	viper.SetEnvPrefix("APP")
	viper.AutomaticEnv()
	viper.BindEnv("openai.api_key", "OPENAI_API_KEY")
	viper.BindEnv("database.url", "DATABASE_URL")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Warning: Config file not found. Using default settings or environment variables if available.")
		} else {
			log.Printf("Error reading config file: %s\n", err)
			return err
		}
	}

	err := viper.Unmarshal(&Cfg)
	if err != nil {
		log.Printf("Error unmarshalling config: %s\n", err)
		return err
	}

	// --- デフォルト値の設定 ---
	if Cfg.Server.Port == "" {
		log.Println("Server port not set, using default ':8080'")
		Cfg.Server.Port = ":8080"
	}
	if Cfg.Log.Level == "" {
		Cfg.Log.Level = "info"
	}
	if Cfg.OpenAI.APIURL == "" {
		Cfg.OpenAI.APIURL = "https://api.openai.com/v1/chat/completions"
	}
	if Cfg.OpenAI.Model == "" {
		Cfg.OpenAI.Model = "gpt-4o-mini"
	}
	if Cfg.OpenAI.TimeoutSeconds <= 0 {
		Cfg.OpenAI.TimeoutSeconds = 30
	}
	if Cfg.App.AggregateMonths <= 0 {
		log.Println("App aggregate months not set or invalid, using default '6'")
		Cfg.App.AggregateMonths = 6
	}
	if Cfg.App.DefaultTotalSongs <= 0 {
		log.Println("App default total songs not set or invalid, using default '30'")
		Cfg.App.DefaultTotalSongs = 30
	}
	if Cfg.Database.URL == "" {
		log.Println("Warning: Database URL is not set in config.")
	}
	if len(Cfg.CORS.AllowedOrigins) == 0 {
		Cfg.CORS.AllowedOrigins = []string{"*"}
	}
	if len(Cfg.CORS.AllowedMethods) == 0 {
		Cfg.CORS.AllowedMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	if len(Cfg.CORS.AllowedHeaders) == 0 {
		Cfg.CORS.AllowedHeaders = []string{"Accept", "Authorization", "Content-Type", "X-Tenant-ID"}
	}

	log.Println("Config loaded successfully")
	log.Printf("Server Port: %s", Cfg.Server.Port)
	log.Printf("Aggregate Months: %d", Cfg.App.AggregateMonths)

	return nil
}
