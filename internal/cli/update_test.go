package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeVersion(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"v1.0.0", "1.0.0"},
		{"1.0.0", "1.0.0"},
		{"v2.1.3", "2.1.3"},
		{"dev", "dev"},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, normalizeVersion(test.input))
	}
}

func TestIsOutdated(t *testing.T) {
	assert.True(t, isOutdated("v1.0.0", "v1.2.0"))
	assert.True(t, isOutdated("1.0.0", "v1.0.1"))
	assert.False(t, isOutdated("v1.2.0", "v1.2.0"))
	assert.False(t, isOutdated("v2.0.0", "v1.9.9"))
	assert.False(t, isOutdated("dev", "v9.9.9"))
	assert.True(t, isOutdated("nightly", "v1.0.0"))
}

func TestUpdateCacheOperations(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)

	updateInfo := &UpdateInfo{
		LastChecked:   time.Now(),
		LatestVersion: "v1.2.3",
		CurrentIsOld:  true,
		DownloadURL:   "https://example.com/download",
	}

	saveUpdateCache(updateInfo)

	cacheFile := filepath.Join(tempDir, cacheDirName, updateCacheFile)
	assert.FileExists(t, cacheFile)

	loadedInfo := loadUpdateCache()
	require.NotNil(t, loadedInfo)
	assert.Equal(t, updateInfo.LatestVersion, loadedInfo.LatestVersion)
	assert.Equal(t, updateInfo.CurrentIsOld, loadedInfo.CurrentIsOld)
	assert.Equal(t, updateInfo.DownloadURL, loadedInfo.DownloadURL)
	assert.WithinDuration(t, updateInfo.LastChecked, loadedInfo.LastChecked, time.Second)

	data, err := os.ReadFile(cacheFile)
	require.NoError(t, err)
	var savedInfo UpdateInfo
	require.NoError(t, json.Unmarshal(data, &savedInfo))
	assert.Equal(t, "v1.2.3", savedInfo.LatestVersion)
}

func TestUpdateCacheExpiry(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	saveUpdateCache(&UpdateInfo{
		LastChecked:   time.Now().Add(-3 * time.Hour),
		LatestVersion: "v1.0.0",
		CurrentIsOld:  true,
	})
	assert.Nil(t, ShouldShowUpdateNotification(), "expired cache shouldn't notify")

	saveUpdateCache(&UpdateInfo{
		LastChecked:   time.Now().Add(-30 * time.Minute),
		LatestVersion: "v1.2.0",
		CurrentIsOld:  true,
	})
	notification := ShouldShowUpdateNotification()
	require.NotNil(t, notification)
	assert.Equal(t, "v1.2.0", notification.LatestVersion)

	saveUpdateCache(&UpdateInfo{
		LastChecked:   time.Now(),
		LatestVersion: "v1.2.0",
		CurrentIsOld:  false,
	})
	assert.Nil(t, ShouldShowUpdateNotification(), "up to date shouldn't notify")
}

func TestLoadUpdateCache_Invalid(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)

	assert.Nil(t, loadUpdateCache(), "missing cache file")

	require.NoError(t, os.MkdirAll(filepath.Join(tempDir, cacheDirName), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, cacheDirName, updateCacheFile), []byte("invalid json"), 0644))
	assert.Nil(t, loadUpdateCache(), "invalid JSON")
}

func TestReleaseChecker_Check(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprintf(w, `{"tag_name": "v1.4.0", "assets": [
			{"name": "excellent_%s_%s", "browser_download_url": "https://example.com/excellent"}
		]}`, runtime.GOOS, runtime.GOARCH)
	}))
	defer srv.Close()

	checker := &releaseChecker{apiURL: srv.URL, client: srv.Client(), current: "v1.3.2"}

	info, err := checker.check(false)
	require.NoError(t, err)
	assert.Equal(t, "v1.4.0", info.LatestVersion)
	assert.Equal(t, "https://example.com/excellent", info.DownloadURL)
	assert.True(t, info.CurrentIsOld)

	// served from the cache the second time
	_, err = checker.check(false)
	require.NoError(t, err)
	assert.Equal(t, 1, requests)

	_, err = checker.check(true)
	require.NoError(t, err)
	assert.Equal(t, 2, requests)
}

func TestReleaseChecker_Errors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing-asset":
			fmt.Fprint(w, `{"tag_name": "v1.4.0", "assets": [{"name": "excellent_plan9_mips"}]}`)
		default:
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	defer srv.Close()

	checker := &releaseChecker{apiURL: srv.URL + "/forbidden", client: srv.Client(), current: "v1.0.0"}
	_, err := checker.check(true)
	assert.EqualError(t, err, "GitHub API returned status 403")

	checker.apiURL = srv.URL + "/missing-asset"
	_, err = checker.check(true)
	assert.ErrorContains(t, err, "no binary found for platform")
}
