package store

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/servais1983/autoforensic-collector/pkg/evidence"
)

// The convenience wrappers mirror the collector families: each stamps the
// family's provenance keys into the metadata before registering. Caller
// metadata wins on key collisions.

// AddMemoryDump registers a RAM capture. Metadata gains source_system,
// capture_time, and memory_format (the file extension without the dot).
func (s *Store) AddMemoryDump(ctx context.Context, sourceSystem, description, sourceFilePath string, md evidence.Metadata) (string, error) {
	base := evidence.Metadata{
		"source_system": sourceSystem,
		"capture_time":  captureTime(),
		"memory_format": formatFromPath(sourceFilePath),
	}
	return s.Add(ctx, evidence.KindMemory, sourceSystem, description, sourceFilePath, base.Merge(md))
}

// AddDiskImage registers a disk or partition image. Metadata gains
// source_disk, capture_time, and image_format.
func (s *Store) AddDiskImage(ctx context.Context, sourceDisk, description, sourceFilePath string, md evidence.Metadata) (string, error) {
	base := evidence.Metadata{
		"source_disk":  sourceDisk,
		"capture_time": captureTime(),
		"image_format": formatFromPath(sourceFilePath),
	}
	return s.Add(ctx, evidence.KindDisk, sourceDisk, description, sourceFilePath, base.Merge(md))
}

// AddNetworkCapture registers a packet capture. Metadata gains interface,
// capture_time, and capture_format.
func (s *Store) AddNetworkCapture(ctx context.Context, iface, description, sourceFilePath string, md evidence.Metadata) (string, error) {
	base := evidence.Metadata{
		"interface":      iface,
		"capture_time":   captureTime(),
		"capture_format": formatFromPath(sourceFilePath),
	}
	return s.Add(ctx, evidence.KindNetwork, iface, description, sourceFilePath, base.Merge(md))
}

// AddArtifact registers evidence of any kind with capture_time stamped.
func (s *Store) AddArtifact(ctx context.Context, kind evidence.Kind, source, description, sourceFilePath string, md evidence.Metadata) (string, error) {
	base := evidence.Metadata{
		"capture_time": captureTime(),
	}
	return s.Add(ctx, kind, source, description, sourceFilePath, base.Merge(md))
}

func captureTime() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// formatFromPath reports the file extension without the leading dot, the
// wrappers' notion of a capture format ("raw", "dd", "pcap").
func formatFromPath(path string) string {
	return strings.TrimPrefix(filepath.Ext(path), ".")
}
