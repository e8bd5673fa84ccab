package system

import (
	"fmt"
	"strings"

	"github.com/siderolabs/gen/xslices"
	"github.com/siderolabs/go-blockdevice/v2/blkid"
	"github.com/siderolabs/go-blockdevice/v2/block"
	"go.uber.org/zap"
)

// BlockProber снимает параметры через ioctl блочного устройства
type BlockProber struct {
	Logger *zap.Logger
}

// Probe открывает устройство только на чтение
func (p BlockProber) Probe(path string) (ProbeResult, error) {
	dev, err := block.NewFromPath(path)
	if err != nil {
		return ProbeResult{}, err
	}
	defer dev.Close() //nolint:errcheck

	size, err := dev.GetSize()
	if err != nil {
		return ProbeResult{}, fmt.Errorf("failed to get size of %s: %w", path, err)
	}

	res := ProbeResult{
		Size:       size,
		SectorSize: dev.GetSectorSize(),
		CD:         dev.IsCD(),
	}

	if ro, err := dev.IsReadOnly(); err == nil {
		res.ReadOnly = ro
	}

	return res, nil
}

// Signature ищет файловую систему или таблицу разделов. Пустая строка: сигнатур нет.
func (p BlockProber) Signature(path string) (string, error) {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	info, err := blkid.ProbePath(path, blkid.WithProbeLogger(logger))
	if err != nil {
		return "", err
	}

	if info.Name == "" {
		return "", nil
	}

	sig := info.Name
	if info.Label != nil && *info.Label != "" {
		sig += fmt.Sprintf(" %q", *info.Label)
	}

	if info.UUID != nil {
		sig += " " + info.UUID.String()
	}

	if len(info.Parts) > 0 {
		names := xslices.Map(info.Parts, func(part blkid.NestedProbeResult) string {
			if part.Name == "" {
				return "?"
			}

			return part.Name
		})

		sig += fmt.Sprintf(" (%d разделов: %s)", len(info.Parts), strings.Join(names, ", "))
	}

	return sig, nil
}
