package system

import (
	"context"
	"path/filepath"

	"netnuke/internal/wipe"
)

// DiskType тип носителя
type DiskType string

const (
	DiskHDD     DiskType = "HDD"
	DiskSSD     DiskType = "SSD"
	DiskNVMe    DiskType = "NVMe"
	DiskSD      DiskType = "SD"
	DiskUnknown DiskType = "Unknown"
)

// DiskInfo contains information about a block device
type DiskInfo struct {
	Path       string   `json:"path"`
	Name       string   `json:"name"`
	Type       DiskType `json:"type"`
	Size       uint64   `json:"size"`
	SectorSize uint     `json:"sector_size"`
	Model      string   `json:"model,omitempty"`
	Serial     string   `json:"serial,omitempty"`
	Rotational bool     `json:"rotational"`
	Removable  bool     `json:"removable"`
	ReadOnly   bool     `json:"read_only"`
	Usable     bool     `json:"usable"`
	Reason     string   `json:"reason,omitempty"` // почему устройство непригодно
	Signature  string   `json:"signature,omitempty"`
}

// Device переводит запись каталога в устройство движка
func (d DiskInfo) Device() wipe.Device {
	name := d.Name
	if name == "" {
		name = filepath.Base(d.Path)
	}

	return wipe.Device{
		Path:   d.Path,
		Name:   name,
		Size:   d.Size,
		Usable: d.Usable,
	}
}

// Stats статистика сканирования в стиле исходного NetNuke
type Stats struct {
	IDE   int `json:"ide"`
	SCSI  int `json:"scsi"`
	Total int `json:"total"`
}

// ProbeResult то, что удалось узнать, открыв устройство
type ProbeResult struct {
	Size       uint64
	SectorSize uint
	ReadOnly   bool
	CD         bool
}

// Prober открывает устройство только на чтение и снимает его параметры
type Prober interface {
	Probe(path string) (ProbeResult, error)
	Signature(path string) (string, error)
}

// DiskLister строит каталог устройств
type DiskLister interface {
	List(ctx context.Context) ([]DiskInfo, error)
}
