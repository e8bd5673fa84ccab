package wipe

import "netnuke/internal/units"

// Snapshot состояние прогресса на момент обновления
type Snapshot struct {
	BytesWritten    uint64
	TotalBytes      uint64
	Percent         float64
	Throughput      float64 // байт/с, имеет смысл только при ThroughputKnown
	ThroughputKnown bool
	HumanWritten    string
	HumanThroughput string
}

// ProgressTracker считает процент и скорость прохода
type ProgressTracker struct{}

// Update строит снимок. Не делит на ноль ни при totalBytes == 0, ни при elapsedSeconds == 0.
func (ProgressTracker) Update(bytesWritten, totalBytes uint64, elapsedSeconds float64) Snapshot {
	snap := Snapshot{
		BytesWritten:    bytesWritten,
		TotalBytes:      totalBytes,
		HumanWritten:    units.HumanBytes(bytesWritten),
		HumanThroughput: "-",
	}

	if totalBytes > 0 {
		snap.Percent = min(max(float64(bytesWritten)/float64(totalBytes)*100, 0), 100)
	}

	if elapsedSeconds > 0 {
		snap.Throughput = float64(bytesWritten) / elapsedSeconds
		snap.ThroughputKnown = true
		snap.HumanThroughput = units.HumanRate(snap.Throughput)
	}

	return snap
}

// Retainer ограничивает частоту вывода прогресса: раз в Every блоков и всегда на последнем
type Retainer struct {
	Every uint64
}

// ShouldEmit решает, отдавать ли прогресс для блока blockIndex
func (r Retainer) ShouldEmit(blockIndex uint64, final bool) bool {
	if final || r.Every <= 1 {
		return true
	}

	return blockIndex%r.Every == 0
}
