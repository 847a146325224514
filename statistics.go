package tlsf

import "math"

// Statistics holds the cheap totals of one or more controls
type Statistics struct {
	PoolCount       int
	AllocationCount int
	PoolBytes       int
	AllocationBytes int
}

func (s *Statistics) Clear() {
	s.PoolCount = 0
	s.AllocationCount = 0
	s.PoolBytes = 0
	s.AllocationBytes = 0
}

func (s *Statistics) AddStatistics(other *Statistics) {
	s.PoolCount += other.PoolCount
	s.AllocationCount += other.AllocationCount
	s.PoolBytes += other.PoolBytes
	s.AllocationBytes += other.AllocationBytes
}

// DetailedStatistics adds the free ranges and allocation size extremes that can only be found
// by walking every block. Call Clear before accumulating into a new value so the minimums
// start out correct.
type DetailedStatistics struct {
	Statistics
	UnusedRangeCount   int
	AllocationSizeMin  int
	AllocationSizeMax  int
	UnusedRangeSizeMin int
	UnusedRangeSizeMax int
}

func (s *DetailedStatistics) Clear() {
	s.Statistics.Clear()
	s.UnusedRangeCount = 0
	s.AllocationSizeMin = math.MaxInt
	s.AllocationSizeMax = 0
	s.UnusedRangeSizeMin = math.MaxInt
	s.UnusedRangeSizeMax = 0
}

func (s *DetailedStatistics) AddUnusedRange(size int) {
	s.UnusedRangeCount++

	if size < s.UnusedRangeSizeMin {
		s.UnusedRangeSizeMin = size
	}

	if size > s.UnusedRangeSizeMax {
		s.UnusedRangeSizeMax = size
	}
}

func (s *DetailedStatistics) AddAllocation(size int) {
	s.AllocationCount++
	s.AllocationBytes += size

	if size < s.AllocationSizeMin {
		s.AllocationSizeMin = size
	}

	if size > s.AllocationSizeMax {
		s.AllocationSizeMax = size
	}
}

func (s *DetailedStatistics) AddDetailedStatistics(other *DetailedStatistics) {
	s.Statistics.AddStatistics(&other.Statistics)
	s.UnusedRangeCount += other.UnusedRangeCount

	if other.UnusedRangeSizeMin < s.UnusedRangeSizeMin {
		s.UnusedRangeSizeMin = other.UnusedRangeSizeMin
	}

	if other.UnusedRangeSizeMax > s.UnusedRangeSizeMax {
		s.UnusedRangeSizeMax = other.UnusedRangeSizeMax
	}

	if other.AllocationSizeMin < s.AllocationSizeMin {
		s.AllocationSizeMin = other.AllocationSizeMin
	}

	if other.AllocationSizeMax > s.AllocationSizeMax {
		s.AllocationSizeMax = other.AllocationSizeMax
	}
}

// AddStatistics adds the control's totals to stats
func (c *Control) AddStatistics(stats *Statistics) {
	stats.PoolCount += c.poolCount
	stats.AllocationCount += c.allocCount
	stats.PoolBytes += c.size
	stats.AllocationBytes += c.allocSize
}

// AddDetailedStatistics walks every block of the control and adds it to stats
func (c *Control) AddDetailedStatistics(stats *DetailedStatistics) {
	stats.PoolCount += c.poolCount
	stats.PoolBytes += c.size

	for _, p := range c.pools {
		if p == nil {
			continue
		}

		for b := (block{pool: p, off: 0}); !b.isLast(); b = b.next() {
			if b.isFree() {
				stats.AddUnusedRange(b.size())
			} else {
				stats.AddAllocation(b.size())
			}
		}
	}
}
