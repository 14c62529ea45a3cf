package main

import (
	"strings"

	"github.com/spf13/viper"
)

// Config carries every operational knob. Values come from the environment
// (SOCCER_ prefix) or an optional config file, with defaults in code.
type Config struct {
	Addr          string
	DBPath        string
	JWTSecret     string
	LogLevel      string
	NetworkTickMs int
	GameDurationS float64
	OvertimeS     float64
	CollisionFile string
	GoalFile      string
}

// LoadConfig reads configuration. A missing config file is not an error;
// env vars alone are enough.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetDefault("addr", ":8080")
	v.SetDefault("db", "soccer.db")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("network_tick_ms", 25)
	v.SetDefault("game_duration_s", 300.0)
	v.SetDefault("overtime_s", 60.0)
	v.SetDefault("collision_file", "data/collisions.json")
	v.SetDefault("goal_file", "data/goals.json")

	v.SetEnvPrefix("SOCCER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("soccer")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	return &Config{
		Addr:          v.GetString("addr"),
		DBPath:        v.GetString("db"),
		JWTSecret:     v.GetString("jwt_secret"),
		LogLevel:      v.GetString("log_level"),
		NetworkTickMs: v.GetInt("network_tick_ms"),
		GameDurationS: v.GetFloat64("game_duration_s"),
		OvertimeS:     v.GetFloat64("overtime_s"),
		CollisionFile: v.GetString("collision_file"),
		GoalFile:      v.GetString("goal_file"),
	}, nil
}
