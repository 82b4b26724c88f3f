package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppName  string
	Env      string // DEV (default), TEST, QA, PROD
	Debug    bool
	TestMode bool
	Build    string

	Server struct {
		Addr            string
		ShutdownTimeout time.Duration
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
		DraftTTL time.Duration
	}

	Airtable struct {
		APIKey   string
		BaseID   string
		Table    string
		View     string
		PageSize int
	}

	Stripe struct {
		SecretKey  string
		SuccessURL string
		CancelURL  string
	}

	SendgridAPIKey       string
	DefaultFromEmailAddr string
	SchoolContactEmail   string
	SchoolContactPhone   string

	AdminPassword string
	RollbarToken  string
}

// NewConfig loads the application configuration: code defaults, then an
// optional config/.env.<env> file, then environment variables.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Kairos Enrollment")
	v.SetDefault("build", "dev")
	v.SetDefault("serverAddr", ":8000")
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
	v.SetDefault("redisAddr", "localhost:6379")
	v.SetDefault("redisPassword", "")
	v.SetDefault("redisDB", 0)
	v.SetDefault("draftTTL", 30*24*time.Hour)
	v.SetDefault("airtableTable", "Applications")
	v.SetDefault("airtableView", "Grid view")
	v.SetDefault("airtablePageSize", 100)
	v.SetDefault("stripeSuccessURL", "http://localhost:3000/apply/payment-success")
	v.SetDefault("stripeCancelURL", "http://localhost:3000/apply/payment-cancelled")
	v.SetDefault("defaultFromEmail", "noreply@kairosacademy.org")
	v.SetDefault("schoolContactEmail", "pastor@dcclute.org")
	v.SetDefault("schoolContactPhone", "(979) 265-3590")

	env := os.Getenv("ENV")
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		AppName:  v.GetString("appName"),
		Env:      env,
		Debug:    v.GetBool("debug"),
		TestMode: v.GetBool("testMode"),
		Build:    v.GetString("build"),

		SendgridAPIKey:       v.GetString("sendgridApiKey"),
		DefaultFromEmailAddr: v.GetString("defaultFromEmail"),
		SchoolContactEmail:   v.GetString("schoolContactEmail"),
		SchoolContactPhone:   v.GetString("schoolContactPhone"),
		AdminPassword:        v.GetString("adminPassword"),
		RollbarToken:         v.GetString("rollbarToken"),
	}
	conf.Server.Addr = v.GetString("serverAddr")
	conf.Server.ShutdownTimeout = v.GetDuration("serverShutdownTimeout")
	conf.Redis.Addr = v.GetString("redisAddr")
	conf.Redis.Password = v.GetString("redisPassword")
	conf.Redis.DB = v.GetInt("redisDB")
	conf.Redis.DraftTTL = v.GetDuration("draftTTL")
	conf.Airtable.APIKey = v.GetString("airtableApiKey")
	conf.Airtable.BaseID = v.GetString("airtableBaseId")
	conf.Airtable.Table = v.GetString("airtableTable")
	conf.Airtable.View = v.GetString("airtableView")
	conf.Airtable.PageSize = v.GetInt("airtablePageSize")
	conf.Stripe.SecretKey = v.GetString("stripeSecretKey")
	conf.Stripe.SuccessURL = v.GetString("stripeSuccessURL")
	conf.Stripe.CancelURL = v.GetString("stripeCancelURL")
	return conf
}

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.DefaultFromEmailAddr}
}
