package config

import (
	"github.com/spf13/viper"
)

// The gateway runs next to the terminal's network, so the device address is
// plain environment configuration. Per-request ip/port query parameters can
// still override it for multi-terminal setups.

type Config struct {
	ServerPort       string `mapstructure:"SERVER_PORT"`
	DeviceIP         string `mapstructure:"ZK_DEVICE_IP"`
	DevicePort       int    `mapstructure:"ZK_DEVICE_PORT"`
	DeviceTimeoutMs  int    `mapstructure:"ZK_TIMEOUT_MS"`
	DeviceInPort     int    `mapstructure:"ZK_INPORT"`
	AWSRegion        string `mapstructure:"AWS_REGION"`
	AWSEndpoint      string `mapstructure:"AWS_ENDPOINT"`
	PunchSQSQueueURL string `mapstructure:"PUNCH_SQS_QUEUE_URL"`
	WebhookURL       string `mapstructure:"WEBHOOK_URL"`
	AlertSender      string `mapstructure:"ALERT_SENDER"`
	AlertRecipient   string `mapstructure:"ALERT_RECIPIENT"`
	IsLocalDev       bool   `mapstructure:"IS_LOCAL_DEV"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (config Config, err error) {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("ZK_DEVICE_IP", "192.168.1.201")
	viper.SetDefault("ZK_DEVICE_PORT", 4370)
	viper.SetDefault("ZK_TIMEOUT_MS", 5000)
	viper.SetDefault("ZK_INPORT", 5200)
	viper.SetDefault("AWS_REGION", "us-east-1")
	viper.SetDefault("AWS_ENDPOINT", "")
	viper.SetDefault("PUNCH_SQS_QUEUE_URL", "http://localstack:4566/000000000000/punch-events")
	viper.SetDefault("WEBHOOK_URL", "")
	viper.SetDefault("ALERT_SENDER", "alerts@zkbridge.service")
	viper.SetDefault("ALERT_RECIPIENT", "")
	viper.SetDefault("IS_LOCAL_DEV", false)

	// Read in environment variables that match the keys.
	viper.AutomaticEnv()

	err = viper.Unmarshal(&config)
	return
}
