// Package store loads and saves the operator-editable YAML configuration of
// the ledger: the classification rule table and the tenant keyword roster.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"fjacquet/sci-ledger/internal/logging"
	"fjacquet/sci-ledger/internal/models"

	"gopkg.in/yaml.v3"
)

// Default file names
const (
	DefaultRulesFile   = "rules.yaml"
	DefaultTenantsFile = "tenants.yaml"
)

// ConfigStore manages loading and saving of rule and tenant roster files.
type ConfigStore struct {
	RulesFile   string
	TenantsFile string
	logger      logging.Logger
}

// NewConfigStore creates a new store for the YAML configuration files.
func NewConfigStore(rulesFile, tenantsFile string, logger logging.Logger) *ConfigStore {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &ConfigStore{
		RulesFile:   rulesFile,
		TenantsFile: tenantsFile,
		logger:      logger,
	}
}

// FindConfigFile looks for a configuration file in standard locations
func (s *ConfigStore) FindConfigFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	locations := []string{
		filename,
		filepath.Join("config", filename),
		filepath.Join(".sci-ledger", filename),
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		configPath := filepath.Join(homeDir, ".sci-ledger", filename)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}
	}

	return "", os.ErrNotExist
}

// readConfigFile returns the file content, or nil when the file does not exist.
func (s *ConfigStore) readConfigFile(filename string) ([]byte, string, error) {
	filePath, err := s.FindConfigFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.WithField(logging.FieldFile, filename).Warn("Configuration file not found")
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("error resolving %s: %w", filename, err)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, "", fmt.Errorf("error reading %s: %w", filePath, err)
	}
	return data, filePath, nil
}

// LoadRules loads the ordered classification rules. A missing file yields
// no rules and no error.
func (s *ConfigStore) LoadRules() ([]models.RuleConfig, error) {
	filename := s.RulesFile
	if filename == "" {
		filename = DefaultRulesFile
	}

	data, filePath, err := s.readConfigFile(filename)
	if err != nil || data == nil {
		return []models.RuleConfig{}, err
	}

	var cfg models.RulesConfig
	if err := yaml.Unmarshal(data, &cfg); err == nil && len(cfg.Rules) > 0 {
		s.logger.WithFields(
			logging.Field{Key: logging.FieldFile, Value: filePath},
			logging.Field{Key: logging.FieldCount, Value: len(cfg.Rules)},
		).Debug("Loaded classification rules")
		return cfg.Rules, nil
	}

	// A bare list without the top-level key is accepted too
	var rules []models.RuleConfig
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("error parsing rules file %s: %w", filePath, err)
	}
	s.logger.WithFields(
		logging.Field{Key: logging.FieldFile, Value: filePath},
		logging.Field{Key: logging.FieldCount, Value: len(rules)},
	).Debug("Loaded classification rules")
	return rules, nil
}

// LoadTenantKeywords loads the ordered surname keyword roster.
func (s *ConfigStore) LoadTenantKeywords() ([]models.TenantKeyword, error) {
	filename := s.TenantsFile
	if filename == "" {
		filename = DefaultTenantsFile
	}

	data, filePath, err := s.readConfigFile(filename)
	if err != nil || data == nil {
		return []models.TenantKeyword{}, err
	}

	var cfg models.TenantsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing tenants file %s: %w", filePath, err)
	}

	s.logger.WithFields(
		logging.Field{Key: logging.FieldFile, Value: filePath},
		logging.Field{Key: logging.FieldCount, Value: len(cfg.Tenants)},
	).Debug("Loaded tenant keywords")
	return cfg.Tenants, nil
}

// SaveTenantKeywords writes the roster back, creating the file next to the
// existing one or in .sci-ledger/ when none exists yet.
func (s *ConfigStore) SaveTenantKeywords(keywords []models.TenantKeyword) error {
	filename := s.TenantsFile
	if filename == "" {
		filename = DefaultTenantsFile
	}

	filePath, err := s.FindConfigFile(filename)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("error resolving tenants file: %w", err)
		}
		filePath = filename
		if !filepath.IsAbs(filename) {
			filePath = filepath.Join(".sci-ledger", filename)
		}
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	data, err := yaml.Marshal(models.TenantsConfig{Tenants: keywords})
	if err != nil {
		return fmt.Errorf("error marshaling tenants: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("error writing tenants: %w", err)
	}

	s.logger.WithFields(
		logging.Field{Key: logging.FieldFile, Value: filePath},
		logging.Field{Key: logging.FieldCount, Value: len(keywords)},
	).Debug("Saved tenant keywords")
	return nil
}
