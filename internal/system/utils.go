package system

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// readSysFile читает атрибут sysfs; отсутствующий файл даёт пустую строку
func readSysFile(parts ...string) string {
	data, err := os.ReadFile(filepath.Join(parts...))
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(data))
}

func readSysUint(parts ...string) uint64 {
	v, err := strconv.ParseUint(readSysFile(parts...), 10, 64)
	if err != nil {
		return 0
	}

	return v
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}

	return false
}
