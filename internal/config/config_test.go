// ABOUTME: Tests for configuration loading
// ABOUTME: Validates YAML parsing, env expansion, durations, and required fields

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig writes a temp config file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const validConfig = `
matrix:
  homeserver: https://matrix.example.org
  user_id: "@seance:example.org"
  access_token: secret-token
openai:
  api_key: sk-test
  assistant_id: asst_123
  vector_store_id: vs_456
database:
  path: /tmp/seance.db
bridge:
  poll_interval: 1s
  chunk_size: 1999
  chunk_delay: 2s
logging:
  level: debug
  format: text
`

func TestLoad_Valid(t *testing.T) {
	path := writeConfig(t, validConfig)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://matrix.example.org", cfg.Matrix.Homeserver)
	assert.Equal(t, "@seance:example.org", cfg.Matrix.UserID)
	assert.Equal(t, "asst_123", cfg.OpenAI.AssistantID)
	assert.Equal(t, "vs_456", cfg.OpenAI.VectorStoreID)
	assert.Equal(t, time.Second, cfg.Bridge.PollInterval)
	assert.Equal(t, 2*time.Second, cfg.Bridge.ChunkDelay)
	assert.Equal(t, 1999, cfg.Bridge.ChunkSize)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("SEANCE_TEST_TOKEN", "expanded-token")

	path := writeConfig(t, `
matrix:
  homeserver: https://matrix.example.org
  user_id: "@seance:example.org"
  access_token: ${SEANCE_TEST_TOKEN}
openai:
  api_key: sk-test
  assistant_id: asst_123
database:
  path: /tmp/seance.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "expanded-token", cfg.Matrix.AccessToken)
}

func TestLoad_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing homeserver",
			content: `
matrix:
  user_id: "@seance:example.org"
  access_token: tok
openai:
  api_key: sk-test
  assistant_id: asst_123
database:
  path: /tmp/seance.db
`,
			wantErr: "matrix.homeserver",
		},
		{
			name: "missing api key",
			content: `
matrix:
  homeserver: https://matrix.example.org
  user_id: "@seance:example.org"
  access_token: tok
openai:
  assistant_id: asst_123
database:
  path: /tmp/seance.db
`,
			wantErr: "openai.api_key",
		},
		{
			name: "missing database path",
			content: `
matrix:
  homeserver: https://matrix.example.org
  user_id: "@seance:example.org"
  access_token: tok
openai:
  api_key: sk-test
  assistant_id: asst_123
`,
			wantErr: "database.path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeConfig(t, `
matrix:
  homeserver: https://matrix.example.org
  user_id: "@seance:example.org"
  access_token: tok
openai:
  api_key: sk-test
  assistant_id: asst_123
database:
  path: /tmp/seance.db
bridge:
  poll_interval: not-a-duration
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poll_interval")
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}
