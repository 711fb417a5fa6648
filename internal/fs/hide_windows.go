//go:build windows

package fs

import (
	"fmt"

	"golang.org/x/sys/windows"
)

func hide(path string) error {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return fmt.Errorf("encoding path: %w", err)
	}
	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		return fmt.Errorf("reading attributes: %w", err)
	}
	if err := windows.SetFileAttributes(p, attrs|windows.FILE_ATTRIBUTE_HIDDEN); err != nil {
		return fmt.Errorf("setting hidden attribute: %w", err)
	}
	return nil
}
