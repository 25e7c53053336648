package rfctime

import "time"

// Offsets between the Unix epoch and the (modified) julian day epochs,
// expressed in days.
const (
	unixEpochJD  float64 = 2440587.5
	unixEpochMJD float64 = 40587.0

	secondsPerDay float64 = 86400.0
)

// TimeToMJD converts a timestamp to a modified julian day number.
func TimeToMJD(t time.Time) float64 {
	return unixEpochMJD + float64(t.UnixMilli())/1000.0/secondsPerDay
}

// MJDToTime converts a modified julian day number to a timestamp (UTC).
func MJDToTime(mjd float64) time.Time {
	millis := (mjd - unixEpochMJD) * secondsPerDay * 1000.0
	return time.UnixMilli(int64(millis)).UTC()
}

// JDToMJD converts a julian day number to a modified one.
func JDToMJD(jd float64) float64 {
	return jd - (unixEpochJD - unixEpochMJD)
}

// JDToTime converts a julian day number to a timestamp (UTC).
func JDToTime(jd float64) time.Time {
	return MJDToTime(JDToMJD(jd))
}
