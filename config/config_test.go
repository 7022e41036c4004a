package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yqwork/payroll-engine/payroll"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "payroll.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "workstudy.db", cfg.Storage.Path)

	c := cfg.Constants()
	assert.True(t, c.CapHours.Equal(payroll.NewHours(40)))
	assert.Equal(t, "15", c.HourlyWage.String())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 9000

[payroll]
hourly_wage = 18.5
cap_hours = 36
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	// Unset sections keep defaults.
	assert.Equal(t, "workstudy.db", cfg.Storage.Path)

	c := cfg.Constants()
	assert.Equal(t, "18.5", c.HourlyWage.String())
	assert.True(t, c.CapHours.Equal(payroll.NewHours(36)))
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"bad port":  "[server]\nport = -1\n",
		"zero wage": "[payroll]\nhourly_wage = 0\ncap_hours = 40\n",
		"zero cap":  "[payroll]\nhourly_wage = 15\ncap_hours = 0\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/payroll.toml")
	assert.Error(t, err)
}
