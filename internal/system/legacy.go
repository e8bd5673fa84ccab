package system

import (
	"context"
	"fmt"
	"path/filepath"
)

// Префиксы исходного сканера NetNuke для Linux
var legacyPrefixes = []string{"hd", "sd", "sg", "st"}

// ScanLegacy перебирает /dev/{hd,sd,sg,st}{a..z}.
// Перебор префикса прекращается на первом непригодном устройстве.
func (c *Catalog) ScanLegacy(ctx context.Context) ([]DiskInfo, Stats, error) {
	var (
		disks []DiskInfo
		stats Stats
	)

	for _, prefix := range legacyPrefixes {
		for letter := 'a'; letter <= 'z'; letter++ {
			if err := ctx.Err(); err != nil {
				return disks, stats, err
			}

			name := fmt.Sprintf("%s%c", prefix, letter)
			disk := DiskInfo{
				Path: filepath.Join(c.DevRoot, name),
				Name: name,
				Type: DiskUnknown,
			}

			c.probe(&disk)
			if !disk.Usable {
				break
			}

			if prefix == "hd" {
				stats.IDE++
			} else {
				stats.SCSI++
			}

			disks = append(disks, disk)
		}
	}

	stats.Total = stats.IDE + stats.SCSI

	c.log("INFO", "Сканирование устройств завершено", "source", "legacy",
		"ide", stats.IDE, "scsi", stats.SCSI, "total", stats.Total)

	return disks, stats, nil
}
