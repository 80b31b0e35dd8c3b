//go:build windows

// Package install adds the executable's directory to the user's environment
// PATH so the tool can be invoked from any terminal.
package install

import (
	"fmt"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"

	"github.com/paulschiretz/pgl-sync/pkg/plog"
)

// AddToPath appends exeDir to the user PATH in the registry and broadcasts
// the environment change. It is a no-op when the directory is already on the
// PATH.
func AddToPath(exeDir string) error {
	key, err := registry.OpenKey(registry.CURRENT_USER, "Environment", registry.QUERY_VALUE|registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("failed to open Environment registry key: %w", err)
	}
	defer key.Close()

	currentPath, _, err := key.GetStringValue("Path")
	if err != nil && err != registry.ErrNotExist {
		return fmt.Errorf("failed to read user PATH: %w", err)
	}

	for _, entry := range strings.Split(currentPath, ";") {
		if strings.EqualFold(strings.TrimSpace(entry), exeDir) {
			plog.Info("Path already present", "dir", exeDir)
			return nil
		}
	}

	newPath := currentPath
	if newPath != "" && !strings.HasSuffix(newPath, ";") {
		newPath += ";"
	}
	newPath += exeDir

	if err := key.SetExpandStringValue("Path", newPath); err != nil {
		return fmt.Errorf("failed to write user PATH: %w", err)
	}

	broadcastEnvironmentChange()
	plog.Info("Tool directory added to user PATH", "dir", exeDir)
	plog.Info("Open a NEW terminal for the changes to take effect")
	return nil
}

// broadcastEnvironmentChange notifies running applications that the user
// environment changed, so new terminals pick up the PATH without a re-login.
func broadcastEnvironmentChange() {
	const (
		hwndBroadcast   = 0xffff
		wmSettingChange = 0x001A
		smtoAbortIfHung = 0x0002
	)
	user32 := windows.NewLazySystemDLL("user32.dll")
	proc := user32.NewProc("SendMessageTimeoutW")
	env, _ := windows.UTF16PtrFromString("Environment")
	proc.Call(hwndBroadcast, wmSettingChange, 0, uintptr(unsafe.Pointer(env)), smtoAbortIfHung, 5000, 0)
}
