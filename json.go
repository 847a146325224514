package tlsf

import (
	"strconv"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// PrintDetailedMap writes a JSON object keyed by pool slot, listing every block of every pool
func (c *Control) PrintDetailedMap(writer *jwriter.Writer) {
	objState := writer.Object()
	defer objState.End()

	for _, p := range c.pools {
		if p == nil {
			continue
		}

		poolObj := objState.Name(strconv.Itoa(p.slot)).Object()
		c.printDetailedMapPool(p, &poolObj)
		poolObj.End()
	}
}

func (c *Control) printDetailedMapPool(p *pool, json *jwriter.ObjectState) {
	var allocationCount, unusedRangeCount, unusedBytes int
	for b := (block{pool: p, off: 0}); !b.isLast(); b = b.next() {
		if b.isFree() {
			unusedRangeCount++
			unusedBytes += b.size()
		} else {
			allocationCount++
		}
	}

	json.Name("TotalBytes").Int(p.length)
	json.Name("UnusedBytes").Int(unusedBytes)
	json.Name("Allocations").Int(allocationCount)
	json.Name("UnusedRanges").Int(unusedRangeCount)

	arrayState := json.Name("Blocks").Array()
	defer arrayState.End()

	for b := (block{pool: p, off: 0}); !b.isLast(); b = b.next() {
		obj := arrayState.Object()
		obj.Name("Offset").Int(b.off + headerSize)
		obj.Name("Size").Int(b.size())
		obj.Name("Free").Bool(b.isFree())
		obj.End()
	}
}

// BuildStatsString returns a JSON document with the control's statistics and, if detailedMap
// is true, the layout of every pool
func (c *Control) BuildStatsString(detailedMap bool) string {
	writer := jwriter.NewWriter()

	objState := writer.Object()

	var stats DetailedStatistics
	stats.Clear()
	c.AddDetailedStatistics(&stats)

	totalObj := objState.Name("Total").Object()
	printDetailedStatistics(&totalObj, &stats)
	totalObj.End()

	if detailedMap {
		c.PrintDetailedMap(objState.Name("DetailedMap"))
	}

	objState.End()

	return string(writer.Bytes())
}

func printDetailedStatistics(json *jwriter.ObjectState, stats *DetailedStatistics) {
	json.Name("PoolCount").Int(stats.PoolCount)
	json.Name("PoolBytes").Int(stats.PoolBytes)
	json.Name("AllocationCount").Int(stats.AllocationCount)
	json.Name("AllocationBytes").Int(stats.AllocationBytes)
	json.Name("UnusedRangeCount").Int(stats.UnusedRangeCount)

	if stats.AllocationCount > 0 {
		json.Name("AllocationSizeMin").Int(stats.AllocationSizeMin)
		json.Name("AllocationSizeMax").Int(stats.AllocationSizeMax)
	}

	if stats.UnusedRangeCount > 0 {
		json.Name("UnusedRangeSizeMin").Int(stats.UnusedRangeSizeMin)
		json.Name("UnusedRangeSizeMax").Int(stats.UnusedRangeSizeMax)
	}
}
