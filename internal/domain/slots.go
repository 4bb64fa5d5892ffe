package domain

import (
	"fmt"
	"time"
)

// SlotsPerDay is the number of canonical hourly slots in a booking day.
const SlotsPerDay = 24

// SlotLabel formats the canonical label for the hourly slot starting at the
// given hour, e.g. "09:00 - 10:00".
func SlotLabel(hour int) string {
	return fmt.Sprintf("%02d:00 - %02d:00", hour, hour+1)
}

// NewSlotGrid builds the full 24-entry availability grid with every slot set
// to the resource's total quantity. Zero-quantity slots stay present so a
// caller can tell "fully booked" apart from "no data".
func NewSlotGrid(quantity int) map[string]int {
	grid := make(map[string]int, SlotsPerDay)
	for hour := 0; hour < SlotsPerDay; hour++ {
		grid[SlotLabel(hour)] = quantity
	}
	return grid
}

// DayWindow returns the half-open [start, end) instants of the calendar day
// containing date in the given location.
func DayWindow(date time.Time, loc *time.Location) (time.Time, time.Time) {
	local := date.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.Add(24 * time.Hour)
}

// CoveredHours returns the hour indices on the day starting at dayStart that
// the booking interval [start, end) touches. A booking touches slot [H, H+1)
// iff startHour <= H and (H < endHour, or H == endHour with the booking
// ending partway into the hour). Ending exactly on the hour boundary does
// not claim the following slot. Intervals crossing midnight are clamped to
// the requested day first.
func CoveredHours(start, end time.Time, dayStart time.Time, loc *time.Location) []int {
	dayEnd := dayStart.Add(24 * time.Hour)
	if !end.After(dayStart) || !start.Before(dayEnd) {
		return nil
	}
	if start.Before(dayStart) {
		start = dayStart
	}
	if end.After(dayEnd) {
		end = dayEnd
	}

	startHour := start.In(loc).Hour()
	endHour := SlotsPerDay
	endMinute := 0
	if end.Before(dayEnd) {
		local := end.In(loc)
		endHour = local.Hour()
		endMinute = local.Minute()
		if local.Second() > 0 || local.Nanosecond() > 0 {
			endMinute = local.Minute() + 1
		}
	}

	var hours []int
	for hour := startHour; hour < SlotsPerDay; hour++ {
		if hour < endHour || (hour == endHour && endMinute > 0) {
			hours = append(hours, hour)
			continue
		}
		break
	}
	return hours
}

// SlotWindow returns day-aligned bounds covering every slot the interval
// [start, end) touches. Two bookings can share an hourly slot without
// overlapping as intervals, so capacity checks must load approved tickets
// over this widened window rather than the raw interval.
func SlotWindow(start, end time.Time, loc *time.Location) (time.Time, time.Time) {
	windowStart, windowEnd := DayWindow(start, loc)
	for windowEnd.Before(end) {
		windowEnd = windowEnd.Add(24 * time.Hour)
	}
	return windowStart, windowEnd
}

// ApplyBooking subtracts a ticket's requested quantity from every slot its
// interval covers on the day starting at dayStart, flooring at zero so
// over-committed data never yields a negative availability signal.
func ApplyBooking(grid map[string]int, ticket Ticket, dayStart time.Time, loc *time.Location) {
	for _, hour := range CoveredHours(ticket.StartTime, ticket.EndTime, dayStart, loc) {
		label := SlotLabel(hour)
		remaining := grid[label] - ticket.RequestedQuantity
		if remaining < 0 {
			remaining = 0
		}
		grid[label] = remaining
	}
}

// BuildAvailability computes the per-slot remaining quantity for one day from
// the resource's total quantity and the day's approved tickets. It is a pure
// function and safe to recompute on every read.
func BuildAvailability(quantity int, approved []Ticket, dayStart time.Time, loc *time.Location) map[string]int {
	grid := NewSlotGrid(quantity)
	for _, ticket := range approved {
		ApplyBooking(grid, ticket, dayStart, loc)
	}
	return grid
}
