package analytics

import (
	"fmt"
	"sort"
	"time"

	"analytics-go/src/libs/socket"
	"analytics-go/src/packages/event"

	"github.com/tidwall/gjson"
)

// FrameMeta is the analytics metadata of one frame
type FrameMeta struct {
	SourceID  uint32
	FrameNum  uint64
	Timestamp time.Time
	NumObjs   uint32

	// line crossing counts per direction, current frame and cumulative
	LCCurrCnt map[string]uint64
	LCCumCnt  map[string]uint64

	records []*event.Record
}

// CurrentSum is the total number of line crossings in this frame
func (f *FrameMeta) CurrentSum() uint64 {
	var sum uint64
	for _, n := range f.LCCurrCnt {
		sum += n
	}
	return sum
}

// Directions returns every direction label, sorted
func (f *FrameMeta) Directions() []string {
	seen := make(map[string]struct{}, len(f.LCCurrCnt)+len(f.LCCumCnt))
	for d := range f.LCCurrCnt {
		seen[d] = struct{}{}
	}
	for d := range f.LCCumCnt {
		seen[d] = struct{}{}
	}

	dirs := make([]string, 0, len(seen))
	for d := range seen {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)

	return dirs
}

func (f *FrameMeta) Attach(rec *event.Record) {
	f.records = append(f.records, rec)
}

func (f *FrameMeta) Records() []*event.Record {
	return f.records
}

// Detach hands the attached records over to the caller
func (f *FrameMeta) Detach() []*event.Record {
	r := f.records
	f.records = nil
	return r
}

// ParseFrameMeta decodes one analytics socket message.
//
// body is json, {"lc_curr":{"<direction>":n},"lc_cum":{"<direction>":n}},
// other fields are ignored.
func ParseFrameMeta(header socket.SocketHeader, body []byte) (*FrameMeta, error) {
	f := &FrameMeta{
		SourceID:  header.Reserved[0],
		NumObjs:   header.Reserved[1],
		FrameNum:  uint64(header.ID),
		Timestamp: time.UnixMicro(int64(header.Timestamp)),
		LCCurrCnt: map[string]uint64{},
		LCCumCnt:  map[string]uint64{},
	}

	if len(body) == 0 {
		return f, nil
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("analytics invalid frame body %d", header.ID)
	}

	r := gjson.ParseBytes(body)
	readCounts(r.Get("lc_curr"), f.LCCurrCnt)
	readCounts(r.Get("lc_cum"), f.LCCumCnt)

	return f, nil
}

func readCounts(r gjson.Result, into map[string]uint64) {
	if !r.IsObject() {
		return
	}

	r.ForEach(func(key, value gjson.Result) bool {
		if value.Type == gjson.Number && value.Num >= 0 {
			into[key.String()] = value.Uint()
		}
		return true
	})
}
