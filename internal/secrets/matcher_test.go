package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsConfigFilename(t *testing.T) {
	assert.True(t, IsConfigFilename(".env"))
	assert.True(t, IsConfigFilename(".env.production"))
	assert.True(t, IsConfigFilename("config.json"))
	assert.True(t, IsConfigFilename("application.properties"))
	assert.True(t, IsConfigFilename("docker-compose.yml"))
	assert.True(t, IsConfigFilename("settings.py"))
	assert.False(t, IsConfigFilename("main.go"))
	assert.False(t, IsConfigFilename("README.md"))
}

func TestIsSecretFilename(t *testing.T) {
	assert.True(t, IsSecretFilename("secrets.json"))
	assert.True(t, IsSecretFilename("credentials.json"))
	assert.True(t, IsSecretFilename(".env.local"))
	assert.True(t, IsSecretFilename("id_rsa"))
	assert.False(t, IsSecretFilename("config.toml"))
	assert.False(t, IsSecretFilename("main.py"))
}

func TestScanKeywords(t *testing.T) {
	t.Run("finds distinct keywords", func(t *testing.T) {
		found := ScanKeywords("DB_PASSWORD=x\nAPI_KEY=y\npassword again")
		assert.Contains(t, found, "password")
		assert.Contains(t, found, "api_key")
		assert.Equal(t, 1, count(found, "password"))
	})

	t.Run("empty text", func(t *testing.T) {
		assert.Nil(t, ScanKeywords(""))
	})

	t.Run("no matches", func(t *testing.T) {
		assert.Empty(t, ScanKeywords("hello world"))
	})
}

func count(values []string, want string) int {
	n := 0
	for _, v := range values {
		if v == want {
			n++
		}
	}
	return n
}
