package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/lacquerai/excellent/internal/style"
)

const (
	cacheDirName    = ".excellent"
	updateCacheFile = "update_cache.json"
	cacheExpiry     = 2 * time.Hour
	githubAPIURL    = "https://api.github.com/repos/lacquerai/excellent/releases/latest"
)

// UpdateInfo is the cached result of the last release check
type UpdateInfo struct {
	LastChecked   time.Time `json:"last_checked"`
	LatestVersion string    `json:"latest_version"`
	CurrentIsOld  bool      `json:"current_is_old"`
	DownloadURL   string    `json:"download_url"`
}

// Fresh reports whether the info is recent enough to be trusted without
// asking GitHub again
func (u *UpdateInfo) Fresh() bool {
	return time.Since(u.LastChecked) < cacheExpiry
}

// GitHubRelease is the subset of the GitHub releases API response we read
type GitHubRelease struct {
	TagName string `json:"tag_name"`
	Assets  []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

// releaseChecker looks up the latest release and caches the answer under
// the user's home directory
type releaseChecker struct {
	apiURL  string
	client  *http.Client
	current string
}

func newReleaseChecker() *releaseChecker {
	return &releaseChecker{
		apiURL:  githubAPIURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		current: Version,
	}
}

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update excellent to the latest version",
	Long: `Update excellent to the latest version available on GitHub.

This command:
- Checks for the latest release on GitHub
- Downloads the appropriate binary for your platform
- Replaces the current binary with the new version
`,
	Example: `
  excellent update              # Update to latest version
  excellent update --check      # Only check for updates without updating
  excellent update --force      # Force update even if already on latest version`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		checkOnly, _ := cmd.Flags().GetBool("check")
		force, _ := cmd.Flags().GetBool("force")

		checker := newReleaseChecker()
		if checkOnly {
			info, err := checker.check(true)
			if err != nil {
				return fmt.Errorf("failed to check for updates: %w", err)
			}
			printUpdateStatus(cmd.OutOrStdout(), info)
			return nil
		}

		return checker.update(cmd, force)
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)

	updateCmd.Flags().Bool("check", false, "only check for updates without updating")
	updateCmd.Flags().Bool("force", false, "force update even if already on latest version")
}

// checkForUpdate refreshes the cached update info if it has expired
func checkForUpdate() {
	if _, err := newReleaseChecker().check(false); err != nil {
		log.Debug().Err(err).Msg("update check failed")
	}
}

func printUpdateStatus(w io.Writer, info *UpdateInfo) {
	if info.CurrentIsOld {
		fmt.Fprintf(w, "%s A newer version (%s) is available!\n", style.InfoIcon(), info.LatestVersion)
		fmt.Fprintf(w, "Run 'excellent update' to upgrade.\n")
		return
	}
	fmt.Fprintf(w, "%s You are running the latest version (%s)\n", style.SuccessIcon(), Version)
}

// check returns the latest release info, from the cache when it is fresh
// unless force is set
func (rc *releaseChecker) check(force bool) (*UpdateInfo, error) {
	if cached := loadUpdateCache(); cached != nil && cached.Fresh() && !force {
		return cached, nil
	}

	latest, downloadURL, err := rc.fetchLatestVersion()
	if err != nil {
		return nil, err
	}

	info := &UpdateInfo{
		LastChecked:   time.Now(),
		LatestVersion: latest,
		CurrentIsOld:  isOutdated(rc.current, latest),
		DownloadURL:   downloadURL,
	}
	saveUpdateCache(info)

	return info, nil
}

// update downloads and installs the latest version
func (rc *releaseChecker) update(cmd *cobra.Command, force bool) error {
	info, err := rc.check(true)
	if err != nil {
		return fmt.Errorf("failed to check for updates: %w", err)
	}

	if !info.CurrentIsOld && !force {
		fmt.Fprintf(cmd.OutOrStdout(), "%s You are already running the latest version (%s)\n", style.SuccessIcon(), Version)
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Downloading excellent %s...\n", style.InfoIcon(), info.LatestVersion)

	tempFile, err := rc.downloadBinary(info.DownloadURL)
	if err != nil {
		return fmt.Errorf("failed to download update: %w", err)
	}
	defer os.Remove(tempFile)

	currentExe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get current executable path: %w", err)
	}

	if err := os.Chmod(tempFile, 0755); err != nil {
		return fmt.Errorf("failed to make binary executable: %w", err)
	}

	if err := replaceBinary(currentExe, tempFile); err != nil {
		return fmt.Errorf("failed to replace binary: %w", err)
	}

	style.Success(cmd.OutOrStdout(), fmt.Sprintf("Successfully updated to excellent %s!", info.LatestVersion))
	return nil
}

// fetchLatestVersion gets the latest version from GitHub API
func (rc *releaseChecker) fetchLatestVersion() (version, downloadURL string, err error) {
	resp, err := rc.client.Get(rc.apiURL)
	if err != nil {
		return "", "", fmt.Errorf("failed to fetch release info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var release GitHubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", "", fmt.Errorf("failed to decode release info: %w", err)
	}

	assetName := fmt.Sprintf("excellent_%s_%s", runtime.GOOS, runtime.GOARCH)
	for _, asset := range release.Assets {
		if strings.Contains(asset.Name, assetName) {
			return release.TagName, asset.BrowserDownloadURL, nil
		}
	}

	return "", "", fmt.Errorf("no binary found for platform %s/%s", runtime.GOOS, runtime.GOARCH)
}

// downloadBinary downloads the binary to a temporary file
func (rc *releaseChecker) downloadBinary(url string) (string, error) {
	resp, err := rc.client.Get(url)
	if err != nil {
		return "", fmt.Errorf("failed to download binary: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	tempFile, err := os.CreateTemp("", "excellent_update_*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer tempFile.Close()

	if _, err := io.Copy(tempFile, resp.Body); err != nil {
		return "", fmt.Errorf("failed to write binary: %w", err)
	}

	return tempFile.Name(), nil
}

// replaceBinary replaces the current binary with the new one
func replaceBinary(currentPath, newPath string) error {
	// A running executable can't be overwritten on Windows, only renamed
	if runtime.GOOS == "windows" {
		backupPath := currentPath + ".bak"
		if err := os.Rename(currentPath, backupPath); err != nil {
			return fmt.Errorf("failed to backup current binary: %w", err)
		}
		if err := os.Rename(newPath, currentPath); err != nil {
			_ = os.Rename(backupPath, currentPath)
			return fmt.Errorf("failed to move new binary: %w", err)
		}
		_ = os.Remove(backupPath)
		return nil
	}

	return os.Rename(newPath, currentPath)
}

// isOutdated compares versions as semver, falling back to string
// inequality when either isn't valid semver. Development builds are never
// outdated.
func isOutdated(current, latest string) bool {
	if current == "dev" {
		return false
	}

	currentSemver, err1 := semver.NewVersion(normalizeVersion(current))
	latestSemver, err2 := semver.NewVersion(normalizeVersion(latest))
	if err1 == nil && err2 == nil {
		return currentSemver.LessThan(latestSemver)
	}
	return normalizeVersion(current) != normalizeVersion(latest)
}

// normalizeVersion removes 'v' prefix from version strings
func normalizeVersion(version string) string {
	return strings.TrimPrefix(version, "v")
}

func updateCachePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, cacheDirName, updateCacheFile), nil
}

// loadUpdateCache loads cached update information
func loadUpdateCache() *UpdateInfo {
	path, err := updateCachePath()
	if err != nil {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var updateInfo UpdateInfo
	if err := json.Unmarshal(data, &updateInfo); err != nil {
		return nil
	}

	return &updateInfo
}

// saveUpdateCache saves update information to cache
func saveUpdateCache(updateInfo *UpdateInfo) {
	path, err := updateCachePath()
	if err != nil {
		return
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return
	}

	data, err := json.MarshalIndent(updateInfo, "", "  ")
	if err != nil {
		return
	}

	_ = os.WriteFile(path, data, 0644)
}

// ShouldShowUpdateNotification returns the cached update info when it is
// fresh and names a newer version. It never touches the network.
func ShouldShowUpdateNotification() *UpdateInfo {
	updateInfo := loadUpdateCache()
	if updateInfo == nil || !updateInfo.Fresh() {
		return nil
	}

	if updateInfo.CurrentIsOld {
		return updateInfo
	}

	return nil
}
