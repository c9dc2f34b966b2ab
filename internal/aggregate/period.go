package aggregate

// Period is a fixed candle bucket width.
type Period int64

const (
	PeriodS10 Period = 10
	PeriodM5  Period = 300
	PeriodM30 Period = 1800
	PeriodH2  Period = 7200
	PeriodD1  Period = 86400
)

// Seconds returns the bucket width in seconds.
func (p Period) Seconds() int64 {
	return int64(p)
}

// OpenTs floors ts to the start of its bucket.
func (p Period) OpenTs(ts int64) int64 {
	return ts - ts%int64(p)
}

// CloseTs returns the inclusive end of the bucket opening at openTs.
func (p Period) CloseTs(openTs int64) int64 {
	return openTs + int64(p) - 1
}
