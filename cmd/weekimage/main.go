package main

import (
	"fmt"
	"os"
	"time"

	"github.com/bavirtual/session-booking/internal/model"
	"github.com/bavirtual/session-booking/internal/render"
	"github.com/bavirtual/session-booking/internal/service"
)

// Renders a sample availability week to week.png for eyeballing layout
// changes without a database.
func main() {
	now := time.Now()
	weekStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for weekStart.Weekday() != time.Monday {
		weekStart = weekStart.AddDate(0, 0, -1)
	}
	year, week := weekStart.ISOWeek()

	slots := []*model.Slot{
		mustSlot(101, weekStart.Add(9*time.Hour), weekStart.Add(12*time.Hour), year, week, false),
		mustSlot(101, weekStart.Add(14*time.Hour), weekStart.Add(17*time.Hour), year, week, false),
		mustSlot(102, weekStart.Add(10*time.Hour), weekStart.Add(13*time.Hour), year, week, true),
		mustSlot(102, weekStart.AddDate(0, 0, 1).Add(9*time.Hour), weekStart.AddDate(0, 0, 1).Add(15*time.Hour), year, week, false),
		mustSlot(103, weekStart.AddDate(0, 0, 2).Add(8*time.Hour), weekStart.AddDate(0, 0, 2).Add(11*time.Hour), year, week, false),
		mustSlot(101, weekStart.AddDate(0, 0, 2).Add(9*time.Hour), weekStart.AddDate(0, 0, 2).Add(12*time.Hour), year, week, false),
		mustSlot(103, weekStart.AddDate(0, 0, 4).Add(13*time.Hour), weekStart.AddDate(0, 0, 4).Add(18*time.Hour), year, week, true),
		mustSlot(104, weekStart.AddDate(0, 0, 5).Add(10*time.Hour), weekStart.AddDate(0, 0, 5).Add(16*time.Hour), year, week, false),
	}

	byDay := make(map[time.Weekday][]*model.Slot)
	for _, slot := range slots {
		day := slot.Window.Start.Weekday()
		byDay[day] = append(byDay[day], slot)
	}

	packer := service.NewLanePacker()
	imageData, err := render.WeekImage(weekStart, packer.PackWeek(byDay))
	if err != nil {
		fmt.Printf("Failed to render week image: %v\n", err)
		os.Exit(1)
	}

	filename := "week.png"
	if err := os.WriteFile(filename, imageData, 0644); err != nil {
		fmt.Printf("Failed to write %s: %v\n", filename, err)
		os.Exit(1)
	}

	fmt.Printf("Saved %s (%s - %s, %d slots)\n",
		filename,
		weekStart.Format("02.01.2006"),
		weekStart.AddDate(0, 0, 6).Format("02.01.2006"),
		len(slots),
	)
}

func mustSlot(studentID int64, start, end time.Time, year, week int, booked bool) *model.Slot {
	slot, err := model.NewSlot(studentID, 1, start, end, year, week)
	if err != nil {
		panic(err)
	}
	slot.Booked = booked
	return slot
}
