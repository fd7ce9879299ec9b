package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"BASE_URL", "ALLOW_TYPES", "MAX_SIZE_MB", "NESTED", "URL_PREFIX", "URL_SUFFIX", "UPLOAD_FOLDER", "ROUTE_ENDPOINT", "DISABLED_ROUTES", "PURGE_INTERVAL_HOURS"} {
		t.Setenv(k, "")
	}

	c := Load()

	assert.Equal(t, "http://localhost:8080", c.BaseURL)
	assert.Equal(t, "uploads", c.UploadFolder)
	assert.Empty(t, c.AllowTypes)
	assert.Zero(t, c.MaxSizeMB)
	assert.False(t, c.Nested)
	assert.Equal(t, 10, c.MaxBatchFiles)
	assert.Equal(t, 30*24*time.Hour, c.TrashRetention)
	assert.Equal(t, time.Hour, c.PurgeInterval)
	assert.Equal(t, "file", c.Endpoint())
	assert.Empty(t, c.DisabledRoutes)
	assert.Equal(t, "http://localhost:8080/d/abc", c.URL.Build("abc"))
	assert.Equal(t, "http://localhost:8080/d/abc?download=1", c.DownloadURL("abc"))
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("BASE_URL", "https://files.example.com/")
	t.Setenv("ALLOW_TYPES", "image/png, text/plain,,")
	t.Setenv("MAX_SIZE_MB", "2.5")
	t.Setenv("NESTED", "true")
	t.Setenv("URL_PREFIX", "https://cdn.example.com/")
	t.Setenv("URL_SUFFIX", "?v=1")
	t.Setenv("TRASH_RETENTION_HOURS", "1.5")

	c := Load()

	assert.Equal(t, "https://files.example.com", c.BaseURL)
	assert.Equal(t, []string{"image/png", "text/plain"}, c.AllowTypes)
	assert.Equal(t, 2.5, c.MaxSizeMB)
	assert.True(t, c.Nested)
	assert.Equal(t, "https://cdn.example.com/x?v=1", c.URL.Build("x"))
	assert.Equal(t, 90*time.Minute, c.TrashRetention)
}

func TestURLBuilder_FuncWins(t *testing.T) {
	b := URLBuilder{Prefix: "p/", Suffix: "/s", Func: func(id string) string { return "custom:" + id }}
	assert.Equal(t, "custom:1", b.Build("1"))
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("MAX_BATCH_FILES", "lots")
	t.Setenv("NESTED", "maybe")

	c := Load()

	assert.Equal(t, 10, c.MaxBatchFiles)
	assert.False(t, c.Nested)
}

func TestLoad_NonPositiveDurationsFallBack(t *testing.T) {
	for _, val := range []string{"0", "-1", "-0.5"} {
		t.Run(val, func(t *testing.T) {
			t.Setenv("PURGE_INTERVAL_HOURS", val)
			t.Setenv("TRASH_RETENTION_HOURS", val)

			c := Load()

			assert.Equal(t, time.Hour, c.PurgeInterval)
			assert.Equal(t, 30*24*time.Hour, c.TrashRetention)
		})
	}
}

func TestRouteEnabled(t *testing.T) {
	t.Setenv("ROUTE_ENDPOINT", "/media/")
	t.Setenv("DISABLED_ROUTES", "PUT:media, delete:media,get:file")

	c := Load()

	assert.Equal(t, "media", c.Endpoint())
	assert.True(t, c.RouteEnabled("GET"))
	assert.True(t, c.RouteEnabled("POST"))
	assert.False(t, c.RouteEnabled("PUT"))
	assert.False(t, c.RouteEnabled("DELETE"))
}
