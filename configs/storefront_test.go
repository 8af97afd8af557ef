package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadStorefront_MissingFileUsesDefaults(t *testing.T) {
	sf, err := LoadStorefront(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 199.0, sf.ReportPrice)
	assert.Equal(t, "INR", sf.Currency)
	assert.False(t, sf.CollectGender)
}

func TestLoadStorefront_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storefront.yaml")
	require.NoError(t, os.WriteFile(path, []byte("report_price: 1\ncurrency: usd\ncollect_gender: true\n"), 0o600))

	sf, err := LoadStorefront(path)
	require.NoError(t, err)
	assert.Equal(t, 1.0, sf.ReportPrice)
	assert.Equal(t, "USD", sf.Currency)
	assert.True(t, sf.CollectGender)
	assert.Equal(t, "Vedic Numerology", sf.DisplayName)
}

func TestLoadStorefront_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero price", "report_price: 0\n"},
		{"bad currency", "currency: rupees\n"},
		{"not yaml", "report_price: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "storefront.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o600))
			_, err := LoadStorefront(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadStorefront_ShippedFile(t *testing.T) {
	sf, err := LoadStorefront("storefront.yaml")
	require.NoError(t, err)
	assert.Equal(t, 199.0, sf.ReportPrice)
	require.Len(t, sf.Plans, 1)
	assert.True(t, sf.Plans[0].Popular)
}

func TestConfigHelpers(t *testing.T) {
	t.Setenv("VN_TEST_INT", "42")
	t.Setenv("VN_TEST_BOOL", "false")
	t.Setenv("VN_TEST_BAD_INT", "x")

	assert.Equal(t, 42, ConfigInt("VN_TEST_INT", 7))
	assert.Equal(t, 7, ConfigInt("VN_TEST_BAD_INT", 7))
	assert.False(t, ConfigBool("VN_TEST_BOOL", true))
	assert.True(t, ConfigBool("VN_TEST_MISSING", true))
	assert.Equal(t, "fallback", ConfigDefault("VN_TEST_MISSING", "fallback"))
}
