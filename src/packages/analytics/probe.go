package analytics

import (
	"log"

	"analytics-go/src/packages/event"
)

// Probe turns frames with line crossings into event records
type Probe struct {
	manager  event.Manager
	sensorID string
}

func NewProbe(manager event.Manager, sensorID string) Probe {
	return Probe{
		manager:  manager,
		sensorID: sensorID,
	}
}

func (p *Probe) counters(f *FrameMeta) event.Counters {
	c := event.Counters{}

	for d, n := range f.LCCurrCnt {
		if n > 0 {
			c[event.CurrentCounter(d)] = n
		}
	}
	for d, n := range f.LCCumCnt {
		if n > 0 {
			c[event.CumulativeCounter(d)] = n
		}
	}

	return c
}

// Process attaches at most one record to f and reports whether it did.
//
// A record that cannot be created is skipped, the frame still passes.
func (p *Probe) Process(f *FrameMeta) bool {
	for _, d := range f.Directions() {
		log.Println(
			"analytics linecrossing", f.SourceID, d,
			"current frame", f.LCCurrCnt[d],
			"cumulative", f.LCCumCnt[d],
		)
	}

	if f.CurrentSum() == 0 {
		return false
	}

	rec, err := p.manager.Create(p.sensorID, p.counters(f))
	if err != nil {
		log.Println("analytics create event error", f.FrameNum, err)
		return false
	}
	rec.SourceID = f.SourceID
	rec.FrameID = f.FrameNum

	f.Attach(rec)

	return true
}
