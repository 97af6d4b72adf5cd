package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// The env* helpers return d when key is unset or cannot be parsed.

func envStr(key, d string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return d
}

func envBool(key string, d bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(key string, d int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return d
}

func envDur(key string, d time.Duration) time.Duration {
	if dur, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return dur
	}
	return d
}
