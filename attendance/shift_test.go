package attendance_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/warp/leave-engine/attendance"
	"github.com/warp/leave-engine/calendar"
)

func dayShift() *attendance.Shift {
	days := make(map[time.Weekday]attendance.ScheduleEntry)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		days[wd] = attendance.ScheduleEntry{
			MinimumHour:  "08:00",
			StartSeconds: 9 * 3600,  // 09:00
			EndSeconds:   17 * 3600, // 17:00
		}
	}
	return &attendance.Shift{ID: "day", Name: "Day Shift", Days: days}
}

func nightShift() *attendance.Shift {
	days := make(map[time.Weekday]attendance.ScheduleEntry)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		days[wd] = attendance.ScheduleEntry{
			MinimumHour:  "08:00",
			StartSeconds: 22 * 3600, // 22:00
			EndSeconds:   6 * 3600,  // 06:00 next day
		}
	}
	return &attendance.Shift{ID: "night", Name: "Night Shift", Days: days}
}

func at(y int, m time.Month, d, hour, min int) time.Time {
	return time.Date(y, m, d, hour, min, 0, 0, time.UTC)
}

func TestScheduleEntry_IsNightShift(t *testing.T) {
	assert.False(t, attendance.ScheduleEntry{StartSeconds: 9 * 3600, EndSeconds: 17 * 3600}.IsNightShift())
	assert.True(t, attendance.ScheduleEntry{StartSeconds: 22 * 3600, EndSeconds: 6 * 3600}.IsNightShift())
	assert.False(t, attendance.ScheduleEntry{}.IsNightShift())
}

func TestResolve_DayShift_SameDay(t *testing.T) {
	res := attendance.Resolve(dayShift(), at(2024, time.March, 10, 9, 30))

	assert.True(t, res.AttendanceDate.Equal(calendar.NewDate(2024, time.March, 10)))
	assert.Equal(t, time.Sunday, res.Day)
}

func TestResolve_NightShift_EveningPunchStaysToday(t *testing.T) {
	// Clock-in at 23:00 on day D belongs to D.
	res := attendance.Resolve(nightShift(), at(2024, time.March, 10, 23, 0))

	assert.True(t, res.AttendanceDate.Equal(calendar.NewDate(2024, time.March, 10)))
}

func TestResolve_NightShift_BeforeNoonRollsBack(t *testing.T) {
	// Clock-out at 02:00 on D+1 belongs to D's shift day.
	res := attendance.Resolve(nightShift(), at(2024, time.March, 11, 2, 0))

	assert.True(t, res.AttendanceDate.Equal(calendar.NewDate(2024, time.March, 10)))
	assert.Equal(t, time.Sunday, res.Day, "yesterday's schedule entry applies")
}

func TestResolve_NightShift_NoonBoundary(t *testing.T) {
	// 11:59:59 still rolls back; 12:00:00 does not.
	res := attendance.Resolve(nightShift(), time.Date(2024, time.March, 11, 11, 59, 59, 0, time.UTC))
	assert.True(t, res.AttendanceDate.Equal(calendar.NewDate(2024, time.March, 10)))

	res = attendance.Resolve(nightShift(), at(2024, time.March, 11, 12, 0))
	assert.True(t, res.AttendanceDate.Equal(calendar.NewDate(2024, time.March, 11)))
}

func TestResolve_DayShift_EarlyMorningStaysToday(t *testing.T) {
	// A day shift never rolls back, even before noon.
	res := attendance.Resolve(dayShift(), at(2024, time.March, 11, 2, 0))
	assert.True(t, res.AttendanceDate.Equal(calendar.NewDate(2024, time.March, 11)))
}

func TestResolve_MixedWeek_UsesYesterdaysEntry(t *testing.T) {
	// Friday is a night shift, Thursday a day shift. A Saturday 02:00
	// punch resolves to Friday and picks up Friday's entry; a Friday
	// 02:00 punch must NOT roll back because Friday itself is resolved
	// by today's entry being a night shift - Thursday's day entry only
	// matters once the rollback happened.
	days := map[time.Weekday]attendance.ScheduleEntry{
		time.Thursday: {MinimumHour: "08:00", StartSeconds: 9 * 3600, EndSeconds: 17 * 3600},
		time.Friday:   {MinimumHour: "07:00", StartSeconds: 22 * 3600, EndSeconds: 6 * 3600},
	}
	shift := &attendance.Shift{ID: "mixed", Days: days}

	// Saturday 02:00 -> Friday's night entry.
	res := attendance.Resolve(shift, at(2024, time.March, 16, 2, 0))
	assert.True(t, res.AttendanceDate.Equal(calendar.NewDate(2024, time.March, 15)))
	assert.Equal(t, "07:00", res.Entry.MinimumHour)

	// Friday 02:00: today's entry is a night shift, so it rolls back to
	// Thursday's (day) entry.
	res = attendance.Resolve(shift, at(2024, time.March, 15, 2, 0))
	assert.True(t, res.AttendanceDate.Equal(calendar.NewDate(2024, time.March, 14)))
	assert.Equal(t, "08:00", res.Entry.MinimumHour)
}

func TestResolve_MissingEntry(t *testing.T) {
	shift := &attendance.Shift{ID: "sparse", Days: map[time.Weekday]attendance.ScheduleEntry{}}

	res := attendance.Resolve(shift, at(2024, time.March, 10, 9, 0))
	assert.True(t, res.AttendanceDate.Equal(calendar.NewDate(2024, time.March, 10)))
	assert.Equal(t, 0, res.Entry.MinimumSeconds())
}
