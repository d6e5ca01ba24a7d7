package utils_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/sigaudit/internal/utils"
)

const (
	testEnvironmentPrefixConstant                  = "TESTSIGAUDIT"
	testServiceURLKeyConstant                      = "tools.scan.service_url"
	testServiceURLEnvironmentNameConstant          = "TESTSIGAUDIT_TOOLS_SCAN_SERVICE_URL"
	testDefaultServiceURLConstant                  = "http://127.0.0.1:8000"
	testEmbeddedServiceURLConstant                 = "http://embedded.example:8000"
	testFileServiceURLConstant                     = "http://file.example:8000"
	testEnvironmentServiceURLConstant              = "http://environment.example:8000"
	testDotenvServiceURLConstant                   = "http://dotenv.example:8000"
	testConfigFileNameConstant                     = "config.yaml"
	testDotenvFileNameConstant                     = ".env"
	testConfigContentTemplateConstant              = "tools:\n  scan:\n    service_url: %s\n"
	testDotenvContentTemplateConstant              = "%s=%s\n"
	testConfigurationNameConstant                  = "config"
	testConfigurationTypeConstant                  = "yaml"
	configurationLoaderSubtestNameTemplateConstant = "%d_%s"
)

type configurationFixture struct {
	Tools configurationToolsFixture `mapstructure:"tools"`
}

type configurationToolsFixture struct {
	Scan configurationScanFixture `mapstructure:"scan"`
}

type configurationScanFixture struct {
	ServiceURL string `mapstructure:"service_url"`
}

func TestConfigurationLoaderLoadConfiguration(testInstance *testing.T) {
	testCases := []struct {
		name                  string
		embeddedServiceURL    string
		fileServiceURL        string
		environmentServiceURL string
		expectedServiceURL    string
	}{
		{
			name:               "defaults_are_applied",
			expectedServiceURL: testDefaultServiceURLConstant,
		},
		{
			name:               "embedded_configuration_overrides_defaults",
			embeddedServiceURL: testEmbeddedServiceURLConstant,
			expectedServiceURL: testEmbeddedServiceURLConstant,
		},
		{
			name:               "config_file_overrides_embedded",
			embeddedServiceURL: testEmbeddedServiceURLConstant,
			fileServiceURL:     testFileServiceURLConstant,
			expectedServiceURL: testFileServiceURLConstant,
		},
		{
			name:                  "environment_overrides_file",
			embeddedServiceURL:    testEmbeddedServiceURLConstant,
			fileServiceURL:        testFileServiceURLConstant,
			environmentServiceURL: testEnvironmentServiceURLConstant,
			expectedServiceURL:    testEnvironmentServiceURLConstant,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(configurationLoaderSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			temporaryDirectory := testInstance.TempDir()
			configurationFilePath := ""
			if len(testCase.fileServiceURL) > 0 {
				configurationFilePath = filepath.Join(temporaryDirectory, testConfigFileNameConstant)
				configurationContent := fmt.Sprintf(testConfigContentTemplateConstant, testCase.fileServiceURL)
				require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte(configurationContent), 0o600))
			}

			if len(testCase.environmentServiceURL) > 0 {
				testInstance.Setenv(testServiceURLEnvironmentNameConstant, testCase.environmentServiceURL)
			}

			configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, []string{temporaryDirectory})
			if len(testCase.embeddedServiceURL) > 0 {
				configurationLoader.SetEmbeddedConfiguration([]byte(fmt.Sprintf(testConfigContentTemplateConstant, testCase.embeddedServiceURL)), testConfigurationTypeConstant)
			}

			defaultValues := map[string]any{
				testServiceURLKeyConstant: testDefaultServiceURLConstant,
			}

			loadedConfiguration := configurationFixture{}
			metadata, loadError := configurationLoader.LoadConfiguration(configurationFilePath, defaultValues, &loadedConfiguration)
			require.NoError(testInstance, loadError)
			require.Equal(testInstance, testCase.expectedServiceURL, loadedConfiguration.Tools.Scan.ServiceURL)

			if len(configurationFilePath) > 0 {
				require.Equal(testInstance, configurationFilePath, metadata.ConfigFileUsed)
			} else {
				require.Empty(testInstance, metadata.ConfigFileUsed)
			}
		})
	}
}

func TestConfigurationLoaderAppliesEnvironmentFiles(testInstance *testing.T) {
	temporaryDirectory := testInstance.TempDir()
	dotenvPath := filepath.Join(temporaryDirectory, testDotenvFileNameConstant)
	dotenvContent := fmt.Sprintf(testDotenvContentTemplateConstant, testServiceURLEnvironmentNameConstant, testDotenvServiceURLConstant)
	require.NoError(testInstance, os.WriteFile(dotenvPath, []byte(dotenvContent), 0o600))

	testInstance.Setenv(testServiceURLEnvironmentNameConstant, "")
	require.NoError(testInstance, os.Unsetenv(testServiceURLEnvironmentNameConstant))

	configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, []string{temporaryDirectory})
	configurationLoader.SetEnvironmentFiles([]string{filepath.Join(temporaryDirectory, "missing.env"), dotenvPath})

	loadedConfiguration := configurationFixture{}
	metadata, loadError := configurationLoader.LoadConfiguration("", map[string]any{testServiceURLKeyConstant: testDefaultServiceURLConstant}, &loadedConfiguration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, testDotenvServiceURLConstant, loadedConfiguration.Tools.Scan.ServiceURL)
	require.Equal(testInstance, []string{dotenvPath}, metadata.EnvironmentFilesUsed)
}
