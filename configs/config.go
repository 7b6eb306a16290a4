package configs

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Twilio   TwilioConfig
	Server   ServerConfig
	Db       DbConfig
	LogLevel string
}
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}
type ServerConfig struct {
	Port string
}
type DbConfig struct {
	User     string
	Password string
	Name     string
	Port     string
	Host     string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		// In containerized deployments everything comes from the environment
		logrus.WithError(err).Debug("No .env file loaded")
	}
	twilioConfig := TwilioConfig{
		AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		FromNumber: os.Getenv("TWILIO_WHATSAPP_NUMBER"),
	}
	serverConfig := ServerConfig{
		Port: getEnv("PORT", "5000"),
	}
	dbConfig := DbConfig{
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		Name:     os.Getenv("DB_NAME"),
		Port:     getEnv("DB_PORT", "5432"),
		Host:     getEnv("DB_HOST", "localhost"),
	}
	return &Config{
		Twilio:   twilioConfig,
		Server:   serverConfig,
		Db:       dbConfig,
		LogLevel: os.Getenv("LOG_LEVEL"),
	}, nil
}

// getEnv returns the value of the variable or defaultValue when it is unset
func getEnv(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}
