package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Storage   Storage   `yaml:"storage" json:"storage"`
	Reminders Reminders `yaml:"reminders" json:"reminders"`
}

type Storage struct {
	// Backend: "json" | "memory" | "sqlite" | "postgres"
	Backend     string `yaml:"backend" json:"backend"`
	DataDir     string `yaml:"data_dir" json:"data_dir"`
	DatabaseURL string `yaml:"database_url" json:"database_url"`
}

type Reminders struct {
	// Timezone is the single reference timezone all day-of-month and
	// notification-hour decisions are made in.
	Timezone    string `yaml:"timezone" json:"timezone"`
	TickMinutes int    `yaml:"tick_minutes" json:"tick_minutes"`
	// Notifications go out when the local hour is in [FromHour, UntilHour).
	FromHour  int `yaml:"from_hour" json:"from_hour"`
	UntilHour int `yaml:"until_hour" json:"until_hour"`
}

func (c *Config) ApplyDefaults() {
	if c.Storage.Backend == "" {
		c.Storage.Backend = "json"
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data"
	}
	if c.Reminders.Timezone == "" {
		c.Reminders.Timezone = "Europe/Moscow"
	}
	if c.Reminders.TickMinutes <= 0 {
		c.Reminders.TickMinutes = 15
	}
	if c.Reminders.FromHour <= 0 {
		c.Reminders.FromHour = 19
	}
	if c.Reminders.UntilHour <= 0 {
		c.Reminders.UntilHour = 22
	}
}

func Default() *Config {
	var c Config
	c.ApplyDefaults()
	return &c
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Config
	if err := yaml.Unmarshal(b, &r); err != nil {
		return nil, err
	}
	r.ApplyDefaults()
	return &r, nil
}
