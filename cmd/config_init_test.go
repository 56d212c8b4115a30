package cmd

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigInitCmd_Success(t *testing.T) {
	mockProvider := new(MockConfigProvider)
	var out bytes.Buffer

	dir := filepath.Join("home", "alice", ".jirapro")
	mockProvider.On("CreateDefaultConfigFiles").Return(nil)
	mockProvider.On("EnsureConfigDir").Return(dir, nil)

	err := configInitRunE(mockProvider, &out)

	assert.NoError(t, err)
	assert.Contains(t, out.String(), "Configuration directory and default files ensured.")
	assert.Contains(t, out.String(), "OIDC clients to "+filepath.Join(dir, "config.yaml"))
	assert.Contains(t, out.String(), "OAuth records per instance to "+filepath.Join(dir, "oauth.yaml"))
	mockProvider.AssertExpectations(t)
}

func TestConfigInitCmd_ProviderError(t *testing.T) {
	mockProvider := new(MockConfigProvider)
	var out bytes.Buffer

	expectedErr := errors.New("failed to create config dir")
	mockProvider.On("CreateDefaultConfigFiles").Return(expectedErr)

	err := configInitRunE(mockProvider, &out)

	assert.Error(t, err)
	assert.ErrorIs(t, err, expectedErr)
	assert.Contains(t, err.Error(), "failed to initialize configuration")
	assert.Empty(t, out.String())
	mockProvider.AssertExpectations(t)
	mockProvider.AssertNotCalled(t, "EnsureConfigDir")
}
