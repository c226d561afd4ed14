package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

const appDirName = "repeater"

func GetDefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// If we can't resolve a home directory, fall back to a local directory
		return "." + appDirName
	}
	return filepath.Join(home, ".local", "share", appDirName)
}

func Pluralize(word string, count int) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, word)
	}
	return fmt.Sprintf("%d %ss", count, word)
}
