package candle

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrMalformedBar rejects a history batch containing an invalid bar.
	ErrMalformedBar = errors.New("malformed history bar")
	// ErrMalformedUpdate rejects a streamed update with invalid values.
	ErrMalformedUpdate = errors.New("malformed update")
	// ErrUnexpectedBucket is returned under RejectNewBucket when a forming
	// update opens a bucket the window has not seen yet.
	ErrUnexpectedBucket = errors.New("forming update for unseen bucket")
	// ErrHistoryLoadFailed wraps fetch or parse failures of the bulk history.
	ErrHistoryLoadFailed = errors.New("history load failed")
)

// Candle is one OHLCV bucket.
type Candle struct {
	OpenTime time.Time `json:"open_time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// Update is a streamed kline event. Final marks the last event of a bucket.
type Update struct {
	OpenTime time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
	Final    bool
}

// Candle returns the OHLCV part of the update.
func (u Update) Candle() Candle {
	return Candle{
		OpenTime: u.OpenTime,
		Open:     u.Open,
		High:     u.High,
		Low:      u.Low,
		Close:    u.Close,
		Volume:   u.Volume,
	}
}

// Validate checks that all values are finite, volume is non-negative and
// high/low bracket open and close.
func (c Candle) Validate() error {
	fields := [5]struct {
		name string
		v    float64
	}{
		{"open", c.Open}, {"high", c.High}, {"low", c.Low}, {"close", c.Close}, {"volume", c.Volume},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%s is not finite", f.name)
		}
	}
	if c.OpenTime.IsZero() {
		return errors.New("missing open time")
	}
	if c.Volume < 0 {
		return fmt.Errorf("negative volume %v", c.Volume)
	}
	if c.High < math.Max(c.Open, c.Close) {
		return fmt.Errorf("high %v below body", c.High)
	}
	if c.Low > math.Min(c.Open, c.Close) {
		return fmt.Errorf("low %v above body", c.Low)
	}
	return nil
}

// NewBucketPolicy decides what happens to a forming update whose open time
// is newer than the last candle in the window.
type NewBucketPolicy int

const (
	// AppendNewBucket starts a new forming candle.
	AppendNewBucket NewBucketPolicy = iota
	// DropNewBucket ignores the update until a final one arrives.
	DropNewBucket
	// RejectNewBucket treats the update as an error.
	RejectNewBucket
)

// ParseNewBucketPolicy maps "append", "drop" or "reject" to a policy.
// An empty string selects AppendNewBucket.
func ParseNewBucketPolicy(s string) (NewBucketPolicy, error) {
	switch s {
	case "", "append":
		return AppendNewBucket, nil
	case "drop":
		return DropNewBucket, nil
	case "reject":
		return RejectNewBucket, nil
	default:
		return 0, fmt.Errorf("invalid new bucket policy: %s", s)
	}
}

func (p NewBucketPolicy) String() string {
	switch p {
	case AppendNewBucket:
		return "append"
	case DropNewBucket:
		return "drop"
	case RejectNewBucket:
		return "reject"
	default:
		return fmt.Sprintf("NewBucketPolicy(%d)", int(p))
	}
}

// Result reports what Apply did with an update.
type Result int

const (
	Ignored  Result = iota // window empty, nothing to extend
	Replaced               // forming candle overwritten in place
	Appended               // new candle added
	Closed                 // forming candle finalized in place
	Dropped                // forming update for a new bucket dropped by policy
	Stale                  // update older than the window head
)

func (r Result) String() string {
	switch r {
	case Ignored:
		return "ignored"
	case Replaced:
		return "replaced"
	case Appended:
		return "appended"
	case Closed:
		return "closed"
	case Dropped:
		return "dropped"
	case Stale:
		return "stale"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}
