package archive

import (
	"fmt"

	"github.com/spaghettifunk/anima/engine/containers"
	"github.com/spaghettifunk/anima/engine/core"
)

// deviceSpecificData reads the payload a header stores for the archive's device.
// The absolute position is the device's base offset plus the header's offset.
func (a *Archive) deviceSpecificData(header *DataHeader, arena *containers.Arena, resTypeName string) ([]byte, error) {
	base := a.baseOffsets[a.device]
	if base > a.reader.size {
		return nil, fmt.Errorf("%s: %s block does not exist in the archive: %w", resTypeName, a.device, core.ErrOutOfBounds)
	}

	block := header.Blocks[a.device]
	if block.Size == 0 {
		return nil, fmt.Errorf("%s: %w for %s", resTypeName, core.ErrNoDeviceData, a.device)
	}
	if base+block.End() > a.reader.size {
		return nil, fmt.Errorf("%s: invalid offset %d+%d in the %s block: %w", resTypeName, block.Offset, block.Size, a.device, core.ErrOutOfBounds)
	}

	data, err := a.reader.read(base+uint64(block.Offset), block.Size, arena)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read device specific data: %w", resTypeName, err)
	}
	return data, nil
}

// loadResourceData reads the record of a named resource.
func (a *Archive) loadResourceData(index *NamedResourceIndex, name string, arena *containers.Arena, resTypeName string) (string, []byte, error) {
	storedName, loc, ok := index.Lookup(name)
	if !ok {
		return "", nil, fmt.Errorf("%s with name '%s': %w", resTypeName, name, core.ErrResourceNotFound)
	}
	data, err := a.reader.read(uint64(loc.Offset), loc.Size, arena)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read %s with name '%s': %w", resTypeName, name, err)
	}
	return storedName, data, nil
}
