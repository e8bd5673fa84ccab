package system

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"netnuke/internal/wipe"
)

// Префиксы /sys/block, которые не являются затираемыми дисками
var skipPrefixes = []string{"loop", "ram", "zram", "sr", "md", "dm-", "sg", "nbd"}

// sysfs считает размер в 512-байтных секторах независимо от размера сектора устройства
const sysfsSectorSize = 512

// Catalog перечисляет носители системы
type Catalog struct {
	SysRoot string
	DevRoot string
	Prober  Prober
	Logger  wipe.Logger
}

// NewCatalog создаёт каталог поверх /sys и /dev
func NewCatalog(sysRoot, devRoot string, prober Prober, logger wipe.Logger) *Catalog {
	if sysRoot == "" {
		sysRoot = "/sys"
	}

	if devRoot == "" {
		devRoot = "/dev"
	}

	return &Catalog{SysRoot: sysRoot, DevRoot: devRoot, Prober: prober, Logger: logger}
}

// List читает /sys/block и проверяет каждое устройство
func (c *Catalog) List(ctx context.Context) ([]DiskInfo, error) {
	sysblock := filepath.Join(c.SysRoot, "block")

	entries, err := os.ReadDir(sysblock)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s directory: %w", sysblock, err)
	}

	var disks []DiskInfo

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return disks, err
		}

		name := entry.Name()
		if hasAnyPrefix(name, skipPrefixes) {
			continue
		}

		disk := c.fromSysfs(name)
		c.probe(&disk)

		disks = append(disks, disk)
	}

	sort.Slice(disks, func(i, j int) bool { return disks[i].Path < disks[j].Path })

	c.log("INFO", "Каталог устройств построен", "source", "sysfs", "count", len(disks))

	return disks, nil
}

// Resolve строит записи для явно указанных устройств
func (c *Catalog) Resolve(ctx context.Context, paths []string) ([]DiskInfo, error) {
	disks := make([]DiskInfo, 0, len(paths))

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return disks, err
		}

		path := p
		if !strings.Contains(path, "/") {
			path = filepath.Join(c.DevRoot, path)
		}
		path = filepath.Clean(path)

		// /dev/disk/by-id и подобные ссылки сводятся к узлу устройства
		if resolved, err := filepath.EvalSymlinks(path); err == nil {
			path = resolved
		}

		name := filepath.Base(path)

		disk := DiskInfo{Path: path, Name: name, Type: DiskUnknown}
		if _, err := os.Stat(filepath.Join(c.SysRoot, "block", name)); err == nil {
			disk = c.fromSysfs(name)
			disk.Path = path
		}

		c.probe(&disk)
		disks = append(disks, disk)
	}

	return disks, nil
}

// fromSysfs gathers disk information from sys block
func (c *Catalog) fromSysfs(name string) DiskInfo {
	sysblock := filepath.Join(c.SysRoot, "block")

	disk := DiskInfo{
		Path:       filepath.Join(c.DevRoot, name),
		Name:       name,
		Size:       readSysUint(sysblock, name, "size") * sysfsSectorSize,
		SectorSize: uint(readSysUint(sysblock, name, "queue", "logical_block_size")),
		Model:      readSysFile(sysblock, name, "device", "model"),
		Serial:     readSysFile(sysblock, name, "device", "serial"),
		Rotational: readSysFile(sysblock, name, "queue", "rotational") == "1",
		Removable:  readSysFile(sysblock, name, "removable") == "1",
		ReadOnly:   readSysFile(sysblock, name, "ro") == "1",
	}

	if disk.Serial == "" {
		disk.Serial = readSysFile(sysblock, name, "serial")
	}

	if disk.SectorSize == 0 {
		disk.SectorSize = sysfsSectorSize
	}

	switch {
	case strings.HasPrefix(name, "nvme"):
		disk.Type = DiskNVMe
	case strings.HasPrefix(name, "mmcblk"):
		disk.Type = DiskSD
	case readSysFile(sysblock, name, "queue", "rotational") == "1":
		disk.Type = DiskHDD
	case readSysFile(sysblock, name, "queue", "rotational") == "0":
		disk.Type = DiskSSD
	default:
		disk.Type = DiskUnknown
	}

	return disk
}

// probe открывает устройство на чтение. Устройство пригодно, если открылось и имеет ненулевой размер.
func (c *Catalog) probe(disk *DiskInfo) {
	if c.Prober == nil {
		disk.Usable = disk.Size > 0
		if !disk.Usable {
			disk.Reason = "нулевой размер"
		}
		return
	}

	res, err := c.Prober.Probe(disk.Path)
	if err != nil {
		disk.Usable = false
		disk.Reason = err.Error()
		c.log("DEBUG", "Устройство недоступно", "device", disk.Path, "error", err.Error())
		return
	}

	if res.Size > 0 {
		disk.Size = res.Size
	}

	if res.SectorSize > 0 {
		disk.SectorSize = res.SectorSize
	}

	disk.ReadOnly = disk.ReadOnly || res.ReadOnly

	switch {
	case res.CD:
		disk.Reason = "CD-ROM"
	case disk.Size == 0:
		disk.Reason = "нулевой размер"
	default:
		disk.Usable = true
	}
}

// ProbeSignatures дополняет записи найденными сигнатурами ФС и таблиц разделов
func (c *Catalog) ProbeSignatures(disks []DiskInfo) {
	if c.Prober == nil {
		return
	}

	for i := range disks {
		if !disks[i].Usable {
			continue
		}

		sig, err := c.Prober.Signature(disks[i].Path)
		if err != nil {
			c.log("WARN", "Не удалось определить сигнатуру", "device", disks[i].Path, "error", err.Error())
			continue
		}

		disks[i].Signature = sig
	}
}

// Usable оставляет только пригодные устройства
func Usable(disks []DiskInfo) []DiskInfo {
	var out []DiskInfo
	for _, d := range disks {
		if d.Usable {
			out = append(out, d)
		}
	}

	return out
}

func (c *Catalog) log(level, message string, fields ...interface{}) {
	if c.Logger != nil {
		c.Logger.Log(level, message, fields...)
	}
}
