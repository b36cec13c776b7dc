package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read by ApplyEnv. The upper-case spelling is accepted
// as well.
const (
	EnvTicketsURL = "freshservice_tickets"
	EnvToken      = "freshservice_token"
	EnvViewID     = "freshservice_view_id"
)

// ApplyEnv overrides the Freshservice settings with any values lookup finds.
func ApplyEnv(c *Config, lookup func(string) (string, bool)) {
	get := func(name string) (string, bool) {
		if v, ok := lookup(name); ok && v != "" {
			return v, true
		}
		if v, ok := lookup(strings.ToUpper(name)); ok && v != "" {
			return v, true
		}
		return "", false
	}
	if v, ok := get(EnvTicketsURL); ok {
		c.Freshservice.TicketsURL = v
	}
	if v, ok := get(EnvToken); ok {
		c.Freshservice.Token = v
	}
	if v, ok := get(EnvViewID); ok {
		c.Freshservice.ViewID = v
	}
}

// ReadDotEnv reads the values of a dotenv file.
func ReadDotEnv(filePath string) (map[string]string, error) {
	return godotenv.Read(filePath)
}

// LoadDotEnv exports the values of a dotenv file into the process
// environment. Variables that are already set keep their value, and a missing
// file is ignored.
func LoadDotEnv(filePath string) error {
	if _, err := os.Stat(filePath); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(filePath); err != nil {
		return fmt.Errorf("load %s: %w", filePath, err)
	}
	return nil
}
