package arrays

import (
	"fmt"

	"github.com/shirou/gopsutil/v4/mem"

	"github.com/sarchlab/streambw/config"
)

// MemoryProbe reports how many bytes of memory can be allocated without
// swapping.
type MemoryProbe func() (uint64, error)

// SystemMemory returns the memory the operating system reports as
// available.
func SystemMemory() (uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, fmt.Errorf("failed to read system memory: %w", err)
	}
	return vm.Available, nil
}

// checkMemory rejects a footprint larger than the probed available memory.
// If the probe itself fails the check is skipped and the allocation decides.
func checkMemory(cfg *config.Config, o options) error {
	if o.probe == nil {
		return nil
	}

	available, err := o.probe()
	if err != nil {
		o.logger.Error(err, "memory probe failed, allocating without a footprint check")
		return nil
	}

	if footprint := cfg.Footprint(); footprint > available {
		return &config.ConfigurationError{
			Field: "array_length",
			Value: cfg.ArrayLength,
			Reason: fmt.Sprintf("needs %d bytes for three arrays but only %d bytes are available",
				footprint, available),
		}
	}
	return nil
}
