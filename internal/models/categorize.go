// Focalis - Personal Productivity Analytics and Forecasting
// Copyright 2026 Focal Labs (focalhq)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/focalhq/focalis

package models

import (
	"strings"
)

// productiveApps are substring markers for work tooling. Matching is
// case-insensitive substring containment against the app or window name,
// so "Visual Studio Code - main.go" matches "code".
var productiveApps = []string{
	"visual studio code", "vscode", "code", "pycharm", "intellij", "webstorm",
	"sublime", "atom", "vim", "nvim", "terminal", "cmd", "powershell", "git",
	"notion", "obsidian", "evernote", "onenote", "slack", "teams", "zoom",
	"figma", "photoshop", "illustrator", "blender", "unity", "unreal",
	"excel", "word", "powerpoint", "docs", "sheets", "slides",
	"postman", "insomnia", "mongodb", "mysql", "postgres", "dbeaver",
}

// distractingApps are substring markers for entertainment, social media,
// messaging, and shopping.
var distractingApps = []string{
	"youtube", "netflix", "prime video", "disney", "disney+", "hotstar", "hulu", "hbo",
	"twitch", "tiktok", "crunchyroll",
	"twitter", "x.com", "facebook", "instagram", "reddit", "snapchat", "pinterest", "tumblr",
	"whatsapp", "telegram", "discord", "messenger",
	"games", "steam", "epic games", "spotify", "vlc", "media player", "soundcloud",
	"amazon", "ebay", "shopping", "flipkart", "myntra",
}

// CategorizeApp infers the productivity category of an application from its
// name. Productive markers win over distracting ones; anything unmatched is
// neutral.
func CategorizeApp(appName string) Category {
	appLower := strings.ToLower(appName)

	for _, marker := range productiveApps {
		if strings.Contains(appLower, marker) {
			return CategoryProductive
		}
	}
	for _, marker := range distractingApps {
		if strings.Contains(appLower, marker) {
			return CategoryDistracting
		}
	}
	return CategoryNeutral
}
