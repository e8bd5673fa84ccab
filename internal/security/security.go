package security

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	glob "github.com/ryanuber/go-glob"
	"github.com/shirou/gopsutil/v3/disk"

	"netnuke/internal/config"
	"netnuke/internal/system"
)

// ErrNotRoot запуск на реальных устройствах без прав root
var ErrNotRoot = errors.New("требуются права root")

// geteuid подменяется в тестах
var geteuid = os.Geteuid

// SecurityChecks проверяет окружение до построения каталога.
// В тестовом режиме устройства не открываются на запись, root не нужен.
func SecurityChecks(cfg *config.Config, testMode bool) error {
	if cfg == nil {
		cfg = config.Default()
	}

	if cfg.Security.RequireRoot && !testMode && !IsRoot() {
		return fmt.Errorf("%w: затирание устройств запрещено для uid %d", ErrNotRoot, geteuid())
	}

	return nil
}

// IsRoot проверка эффективного uid
func IsRoot() bool {
	return geteuid() == 0
}

// ShouldSkipDisk возвращает причину, по которой устройство нельзя затирать
func ShouldSkipDisk(cfg *config.Config, d system.DiskInfo, mounts map[string]string) (string, bool) {
	if cfg != nil {
		for _, pattern := range cfg.Security.ExcludedDevices {
			if glob.Glob(pattern, d.Path) || glob.Glob(pattern, d.Name) {
				return fmt.Sprintf("исключено шаблоном %q", pattern), true
			}
		}
	}

	// в тестовом режиме пишется scratch-файл, состояние устройства не важно
	if cfg != nil && cfg.Wipe.TestMode {
		return "", false
	}

	if !d.Usable {
		reason := d.Reason
		if reason == "" {
			reason = "непригодно"
		}
		return "устройство непригодно: " + reason, true
	}

	if d.ReadOnly {
		return "устройство только для чтения", true
	}

	if mountpoint, ok := mountpointOf(mounts, d.Path); ok && (cfg == nil || !cfg.Security.AllowMounted) {
		return fmt.Sprintf("устройство смонтировано в %s", mountpoint), true
	}

	return "", false
}

// mountpointOf ищет устройство по пути и по цели символической ссылки
func mountpointOf(mounts map[string]string, path string) (string, bool) {
	if mountpoint, ok := mounts[path]; ok {
		return mountpoint, true
	}

	resolved, err := filepath.EvalSymlinks(path)
	if err != nil || resolved == path {
		return "", false
	}

	mountpoint, ok := mounts[resolved]
	return mountpoint, ok
}

// MountedDevices возвращает смонтированные устройства и их диски
func MountedDevices(ctx context.Context) (map[string]string, error) {
	partitions, err := disk.PartitionsWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list mounted partitions: %w", err)
	}

	return MountsFromPartitions(partitions), nil
}

var (
	partitionP      = regexp.MustCompile(`^(.*\d)p\d+$`)
	partitionDigits = regexp.MustCompile(`^(.*\D)\d+$`)
)

// У этих дисков имя само кончается цифрой, разделы идут через "p"
var digitNamedDisks = []string{"nvme", "mmcblk", "loop", "nbd"}

// MountsFromPartitions отображает раздел и его родительский диск на точку монтирования
func MountsFromPartitions(partitions []disk.PartitionStat) map[string]string {
	mounts := map[string]string{}

	for _, p := range partitions {
		if !filepath.IsAbs(p.Device) {
			continue // tmpfs, proc и подобные
		}

		dev := p.Device
		if resolved, err := filepath.EvalSymlinks(dev); err == nil {
			dev = resolved
		}

		if _, ok := mounts[dev]; !ok {
			mounts[dev] = p.Mountpoint
		}

		if parent := ParentDisk(dev); parent != dev {
			if _, ok := mounts[parent]; !ok {
				mounts[parent] = p.Mountpoint
			}
		}
	}

	return mounts
}

// ParentDisk /dev/sda1 -> /dev/sda, /dev/nvme0n1p2 -> /dev/nvme0n1
func ParentDisk(dev string) string {
	if m := partitionP.FindStringSubmatch(dev); m != nil {
		return m[1]
	}

	base := filepath.Base(dev)
	for _, prefix := range digitNamedDisks {
		if strings.HasPrefix(base, prefix) {
			return dev
		}
	}

	if m := partitionDigits.FindStringSubmatch(dev); m != nil {
		return m[1]
	}

	return dev
}
