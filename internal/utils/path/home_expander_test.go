package pathutils_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	pathutils "github.com/temirov/sigaudit/internal/utils/path"
)

const testHomeDirectoryConstant = "/home/auditor"

func TestHomeExpanderExpand(testInstance *testing.T) {
	expander := pathutils.NewHomeExpanderWithProvider(func() (string, error) {
		return testHomeDirectoryConstant, nil
	})

	testCases := []struct {
		name         string
		input        string
		expectedPath string
	}{
		{name: "tilde_only", input: "~", expectedPath: testHomeDirectoryConstant},
		{name: "tilde_prefix", input: "~/results", expectedPath: filepath.Join(testHomeDirectoryConstant, "results")},
		{name: "absolute_path", input: "/var/results", expectedPath: "/var/results"},
		{name: "relative_path", input: "results", expectedPath: "results"},
		{name: "other_user", input: "~someone/results", expectedPath: "~someone/results"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedPath, expander.Expand(testCase.input))
		})
	}
}

func TestHomeExpanderKeepsPathWhenHomeUnavailable(testInstance *testing.T) {
	expander := pathutils.NewHomeExpanderWithProvider(func() (string, error) {
		return "", errors.New("no home")
	})
	require.Equal(testInstance, "~/results", expander.Expand("~/results"))
}
