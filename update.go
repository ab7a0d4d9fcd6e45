package main

import (
	"github.com/blang/semver"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
	"github.com/rs/zerolog/log"
)

// UpdateInfo 版本检查结果
type UpdateInfo struct {
	HasUpdate  bool   `json:"has_update"`
	LatestVer  string `json:"latest_ver"`
	CurrentVer string `json:"current_ver"`
	URL        string `json:"url"`
	Error      string `json:"error,omitempty"`
}

// latestRelease 查询 GitHub 上的最新版本，测试时可替换
var latestRelease = func(repo string) (semver.Version, string, bool, error) {
	release, found, err := selfupdate.DetectLatest(repo)
	if err != nil || !found {
		return semver.Version{}, "", found, err
	}
	return release.Version, release.URL, true, nil
}

// CheckUpdate 检查更新
func CheckUpdate() UpdateInfo {
	// 1. 解析当前版本
	vCurrent, err := semver.ParseTolerant(AppVersion)
	if err != nil {
		return UpdateInfo{Error: "invalid current version: " + err.Error()}
	}

	// 2. 查询最新版本
	vLatest, url, found, err := latestRelease(GithubRepo)
	if err != nil {
		return UpdateInfo{CurrentVer: AppVersion, Error: err.Error()}
	}
	if !found {
		return UpdateInfo{CurrentVer: AppVersion, Error: "no release found"}
	}

	// 3. 比较版本
	return UpdateInfo{
		HasUpdate:  vLatest.GT(vCurrent),
		LatestVer:  vLatest.String(),
		CurrentVer: AppVersion,
		URL:        url,
	}
}

// notifyUpdate 有新版本时提示，检查失败只在调试日志中出现
func notifyUpdate(info UpdateInfo) {
	if info.Error != "" {
		log.Debug().Str("error", info.Error).Msg("version check failed")
		return
	}
	if !info.HasUpdate {
		log.Debug().Str("version", info.CurrentVer).Msg("up to date")
		return
	}
	log.Warn().
		Str("current", info.CurrentVer).
		Str("latest", info.LatestVer).
		Msgf("a new version is available: %s", info.URL)
}
