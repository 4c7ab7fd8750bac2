package conf

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/acousticvault/internal/errors"
	"github.com/tphakala/acousticvault/internal/logger"
)

// GetDefaultConfigPaths returns the directories searched for config.yaml, in order.
func GetDefaultConfigPaths() []string {
	paths := []string{"."}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", "acousticvault"))
	}

	return append(paths, "/etc/acousticvault")
}

// FindConfigFile returns the first config.yaml found in the default paths.
func FindConfigFile() (string, error) {
	for _, path := range GetDefaultConfigPaths() {
		configFilePath := filepath.Join(path, "config.yaml")
		if _, err := os.Stat(configFilePath); err == nil {
			return configFilePath, nil
		}
	}

	return "", errors.Newf("config file not found").
		Component("configuration").
		Category(errors.CategoryConfiguration).
		Context("operation", "find-config-file").
		Build()
}

// EffectiveConfigYAML renders the merged configuration (defaults, file and
// environment) as YAML. Secrets are redacted unless showSecrets is set.
func EffectiveConfigYAML(showSecrets bool) ([]byte, error) {
	all := viper.AllSettings()
	if !showSecrets {
		redactSecrets(all, "")
	}

	data, err := yaml.Marshal(all)
	if err != nil {
		return nil, errors.New(err).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Context("operation", "marshal-config").
			Build()
	}
	return data, nil
}

// redactSecrets replaces non-empty string values of sensitive keys in place
func redactSecrets(m map[string]any, prefix string) {
	for k := range m {
		fullKey := k
		if prefix != "" {
			fullKey = prefix + "." + k
		}
		switch v := m[k].(type) {
		case map[string]any:
			redactSecrets(v, fullKey)
		case string:
			if v == "" {
				continue
			}
			if logger.IsSensitiveKey(fullKey) {
				m[k] = "[REDACTED]"
			} else if strings.Contains(v, "@") && strings.Contains(v, "://") {
				m[k] = logger.RedactURL(v)
			}
		}
	}
}
