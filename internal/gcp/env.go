package gcp

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// GetEnvBool reads a boolean variable ("true", "1", "yes", ...). An unset or empty
// variable yields fallback.
func GetEnvBool(key string, fallback bool) (bool, error) {
	value := GetEnv(key, "")
	if value == "" {
		return fallback, nil
	}
	switch value {
	case "yes", "YES", "Yes", "on", "ON", "On":
		return true, nil
	case "no", "NO", "No", "off", "OFF", "Off":
		return false, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback, fmt.Errorf("%s must be a boolean, got %q", key, value)
	}
	return b, nil
}

// GetEnvInt reads an integer variable.
func GetEnvInt(key string, fallback int) (int, error) {
	value := GetEnv(key, "")
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback, fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	return n, nil
}

// GetEnvDuration reads a duration such as "90m". A bare number is taken as seconds.
func GetEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := GetEnv(key, "")
	if value == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback, fmt.Errorf("%s must be a duration, got %q", key, value)
	}
	return d, nil
}
