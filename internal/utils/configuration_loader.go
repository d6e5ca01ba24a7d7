package utils

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	environmentKeySeparatorOldConstant              = "."
	environmentKeySeparatorNewConstant              = "_"
	configurationReadErrorTemplateConstant          = "failed to read configuration: %w"
	configurationUnmarshalErrorTemplateConstant     = "failed to parse configuration: %w"
	embeddedConfigurationMergeErrorTemplateConstant = "failed to merge embedded configuration: %w"
	environmentFileLoadErrorTemplateConstant        = "failed to load environment file %s: %w"
)

// ConfigurationLoader wraps Viper to load structured configuration files, dotenv files, and environment overrides.
type ConfigurationLoader struct {
	configurationName         string
	configurationType         string
	environmentPrefix         string
	searchPaths               []string
	environmentFiles          []string
	environmentKeyReplacer    *strings.Replacer
	embeddedConfiguration     []byte
	embeddedConfigurationType string
}

// LoadedConfiguration surfaces metadata about the resolved configuration.
type LoadedConfiguration struct {
	ConfigFileUsed       string
	EnvironmentFilesUsed []string
}

// NewConfigurationLoader creates a loader that searches known paths and respects an environment prefix.
func NewConfigurationLoader(configurationName string, configurationType string, environmentPrefix string, searchPaths []string) *ConfigurationLoader {
	duplicatedSearchPaths := make([]string, len(searchPaths))
	copy(duplicatedSearchPaths, searchPaths)

	return &ConfigurationLoader{
		configurationName:      configurationName,
		configurationType:      configurationType,
		environmentPrefix:      environmentPrefix,
		searchPaths:            duplicatedSearchPaths,
		environmentKeyReplacer: strings.NewReplacer(environmentKeySeparatorOldConstant, environmentKeySeparatorNewConstant),
	}
}

// SetEmbeddedConfiguration stores embedded configuration data merged before user-provided configuration files.
func (loader *ConfigurationLoader) SetEmbeddedConfiguration(configurationData []byte, configurationType string) {
	if loader == nil {
		return
	}

	loader.embeddedConfiguration = nil
	loader.embeddedConfigurationType = strings.TrimSpace(configurationType)

	if len(configurationData) == 0 {
		return
	}

	duplicatedData := make([]byte, len(configurationData))
	copy(duplicatedData, configurationData)
	loader.embeddedConfiguration = duplicatedData
}

// SetEnvironmentFiles lists dotenv files loaded into the process environment before configuration is resolved.
// Missing files are skipped and variables already present in the environment are never overwritten.
func (loader *ConfigurationLoader) SetEnvironmentFiles(environmentFiles []string) {
	if loader == nil {
		return
	}
	loader.environmentFiles = append([]string{}, environmentFiles...)
}

// LoadConfiguration populates targetConfiguration using dotenv files, configuration files, defaults, and environment variables.
func (loader *ConfigurationLoader) LoadConfiguration(configurationFilePath string, defaultValues map[string]any, targetConfiguration any) (LoadedConfiguration, error) {
	environmentFilesUsed, environmentError := loader.loadEnvironmentFiles()
	if environmentError != nil {
		return LoadedConfiguration{}, environmentError
	}

	viperInstance := viper.New()
	viperInstance.SetConfigName(loader.configurationName)
	viperInstance.SetConfigType(loader.configurationType)

	if len(loader.embeddedConfiguration) > 0 {
		configurationType := loader.configurationType
		if len(loader.embeddedConfigurationType) > 0 {
			configurationType = loader.embeddedConfigurationType
		}

		viperInstance.SetConfigType(configurationType)
		mergeError := viperInstance.MergeConfig(bytes.NewReader(loader.embeddedConfiguration))
		if mergeError != nil {
			return LoadedConfiguration{}, fmt.Errorf(embeddedConfigurationMergeErrorTemplateConstant, mergeError)
		}

		viperInstance.SetConfigType(loader.configurationType)
	}

	for _, searchPath := range loader.searchPaths {
		viperInstance.AddConfigPath(searchPath)
	}

	viperInstance.SetEnvPrefix(loader.environmentPrefix)
	if loader.environmentKeyReplacer != nil {
		viperInstance.SetEnvKeyReplacer(loader.environmentKeyReplacer)
	}
	viperInstance.AutomaticEnv()

	for defaultKey, defaultValue := range defaultValues {
		viperInstance.SetDefault(defaultKey, defaultValue)
	}

	if len(configurationFilePath) > 0 {
		viperInstance.SetConfigFile(configurationFilePath)
	}

	readError := viperInstance.MergeInConfig()
	if readError != nil {
		var notFoundError viper.ConfigFileNotFoundError
		if !errors.As(readError, &notFoundError) {
			return LoadedConfiguration{}, fmt.Errorf(configurationReadErrorTemplateConstant, readError)
		}
	}

	unmarshalError := viperInstance.Unmarshal(targetConfiguration)
	if unmarshalError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationUnmarshalErrorTemplateConstant, unmarshalError)
	}

	loadedConfiguration := LoadedConfiguration{
		ConfigFileUsed:       viperInstance.ConfigFileUsed(),
		EnvironmentFilesUsed: environmentFilesUsed,
	}

	return loadedConfiguration, nil
}

func (loader *ConfigurationLoader) loadEnvironmentFiles() ([]string, error) {
	loadedFiles := make([]string, 0, len(loader.environmentFiles))
	for _, environmentFile := range loader.environmentFiles {
		trimmedPath := strings.TrimSpace(environmentFile)
		if len(trimmedPath) == 0 {
			continue
		}
		if _, statError := os.Stat(trimmedPath); statError != nil {
			if errors.Is(statError, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf(environmentFileLoadErrorTemplateConstant, trimmedPath, statError)
		}
		if loadError := godotenv.Load(trimmedPath); loadError != nil {
			return nil, fmt.Errorf(environmentFileLoadErrorTemplateConstant, trimmedPath, loadError)
		}
		loadedFiles = append(loadedFiles, trimmedPath)
	}
	return loadedFiles, nil
}
