package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// LoadEnvFile finds a .env file in the working directory or one of its
// parents and exports its entries. Variables already present in the
// environment win; cron typically runs the cleanup binary with a sourced env
// file, in which case this is a no-op.
func LoadEnvFile(logger zerolog.Logger) {
	path, err := findEnvFile()
	if err != nil {
		logger.Warn().Err(err).Msg("failed to locate .env")
		return
	}
	if path == "" {
		return
	}

	file, err := os.Open(path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("failed to open .env")
		return
	}
	defer file.Close()

	if err := parseEnvFile(logger, file); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("failed to load .env")
		return
	}
	logger.Info().Str("path", path).Msg("loaded env file")
}

func findEnvFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for i := 0; i < 6; i++ {
		path := filepath.Join(dir, ".env")
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", nil
}

func parseEnvFile(logger zerolog.Logger, file *os.File) error {
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = trimQuotes(strings.TrimSpace(value))
		if key == "" {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			logger.Warn().Str("key", key).Msg("failed to set variable from env file")
		}
	}
	return scanner.Err()
}

func trimQuotes(value string) string {
	if len(value) < 2 {
		return value
	}
	if (value[0] == '"' && value[len(value)-1] == '"') ||
		(value[0] == '\'' && value[len(value)-1] == '\'') {
		return value[1 : len(value)-1]
	}
	return value
}
