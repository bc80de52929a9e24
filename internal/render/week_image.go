package render

import (
	"bytes"
	"image/color"
	"strconv"
	"time"

	"github.com/bavirtual/session-booking/internal/service"
	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

const (
	imageWidth      = 1400
	imageHeight     = 900
	headerHeight    = 100
	leftLabelsWidth = 80
	legendWidth     = 120
	dayPaddingX     = 4
	lanePaddingX    = 2
	minSlotHeight   = 8.0
	slotRadius      = 4.0
	totalDays       = 7
	hourPaddingTop  = 2
	hourPaddingBot  = 2
	defaultMinHour  = 0
	defaultMaxHour  = 23
)

var (
	bgColor        = color.RGBA{245, 246, 248, 255}
	textColor      = color.RGBA{80, 85, 90, 220}
	hourLabelColor = color.RGBA{110, 115, 120, 200}
	hourLineColor  = color.NRGBA{150, 150, 150, 255}
	evenDayColor   = color.NRGBA{240, 240, 240, 255}
	oddDayColor    = color.NRGBA{220, 220, 220, 255}

	slotPostedColor = color.RGBA{133, 193, 85, 220}
	slotBookedColor = color.RGBA{255, 182, 193, 255}
	slotBorderDim   = 0.8

	legendItemColor = color.RGBA{70, 74, 78, 220}
)

type hourRange struct {
	start int
	end   int
	total int
}

// WeekImage renders the packed availability grid for one week: seven day
// columns, each subdivided into the week's lanes, posted slots green and
// booked slots pink. weekStart must be the Monday of the week in the course
// timezone.
func WeekImage(weekStart time.Time, week *service.WeekLanes) ([]byte, error) {
	hours := calculateHourRange(week)

	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(bgColor)
	dc.Clear()

	dayWidth := (imageWidth - leftLabelsWidth - legendWidth) / totalDays
	dayHeight := imageHeight - headerHeight
	cellHeight := float64(dayHeight) / float64(hours.total)

	drawHeader(dc, weekStart)
	drawHourLabels(dc, hours, cellHeight)

	for dayIndex := 0; dayIndex < totalDays; dayIndex++ {
		date := weekStart.AddDate(0, 0, dayIndex)
		x := float64(leftLabelsWidth + dayIndex*dayWidth)
		y := float64(headerHeight)

		drawDayBackground(dc, x, y, dayWidth, dayHeight, dayIndex)
		drawDayHeader(dc, date, x, y, dayWidth)
		drawHourLines(dc, x, y, dayWidth, hours, cellHeight)
		drawDayLanes(dc, week, date, x, y, dayWidth, hours, cellHeight)
	}

	drawLegend(dc, dayWidth)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// calculateHourRange finds the hour band covering every slot of the week,
// with padding, falling back to the full day when the week is empty.
func calculateHourRange(week *service.WeekLanes) hourRange {
	minHour := 24
	maxHour := 0

	for _, lanes := range week.Days {
		for _, lane := range lanes {
			for _, slot := range lane {
				startH := slot.Window.Start.Hour()
				endH := slot.Window.End.Hour()
				if slot.Window.End.Minute() > 0 {
					endH++
				}
				if startH < minHour {
					minHour = startH
				}
				if endH > maxHour {
					maxHour = endH
				}
			}
		}
	}

	if minHour == 24 {
		minHour = defaultMinHour
		maxHour = defaultMaxHour
	}

	startHour := minHour - hourPaddingTop
	endHour := maxHour + hourPaddingBot
	if startHour < 0 {
		startHour = 0
	}
	if endHour > 23 {
		endHour = 23
	}

	return hourRange{start: startHour, end: endHour, total: endHour - startHour + 1}
}

func drawHeader(dc *gg.Context, weekStart time.Time) {
	weekEnd := weekStart.AddDate(0, 0, 6)
	title := weekStart.Format("02 Jan") + " - " + weekEnd.Format("02 Jan 2006")

	dc.SetColor(textColor)
	w, h := dc.MeasureString(title)
	dc.DrawStringAnchored(title, float64(imageWidth)/2-w/2, float64(headerHeight)/8+h/2, 0, 0)
}

func drawHourLabels(dc *gg.Context, hours hourRange, cellHeight float64) {
	dc.SetColor(hourLabelColor)
	for hIdx := 0; hIdx < hours.total; hIdx++ {
		y := float64(headerHeight) + float64(hIdx)*cellHeight
		label := formatHourLabel(hours.start + hIdx)
		dc.DrawStringAnchored(label, float64(leftLabelsWidth)-10, y, 1, 0.5)
	}
}

func drawDayBackground(dc *gg.Context, x, y float64, dayWidth, dayHeight, dayIndex int) {
	if dayIndex%2 == 0 {
		dc.SetColor(evenDayColor)
	} else {
		dc.SetColor(oddDayColor)
	}
	dc.DrawRectangle(x, y, float64(dayWidth), float64(dayHeight))
	dc.Fill()
}

func drawDayHeader(dc *gg.Context, date time.Time, x, y float64, dayWidth int) {
	dc.SetColor(textColor)
	dc.DrawStringAnchored(date.Format("02.01"), x+float64(dayWidth)/2, y, 0.5, -1.6)
	dc.DrawStringAnchored(date.Weekday().String()[:3], x+float64(dayWidth)/2, y, 0.5, -0.4)
}

func drawHourLines(dc *gg.Context, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	dc.SetLineWidth(0.3)
	dc.SetColor(hourLineColor)
	for hIdx := 0; hIdx <= hours.total; hIdx++ {
		hy := y + float64(hIdx)*cellHeight
		dc.DrawLine(x, hy, x+float64(dayWidth), hy)
		dc.Stroke()
	}
}

// drawDayLanes splits the day column evenly among the week's lane count so
// lane positions align across days, then draws each lane's slots.
func drawDayLanes(dc *gg.Context, week *service.WeekLanes, date time.Time, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	lanes := week.Days[date.Weekday()]
	if len(lanes) == 0 || week.MaxLanes == 0 {
		return
	}

	laneWidth := (float64(dayWidth) - float64(dayPaddingX*2)) / float64(week.MaxLanes)
	for laneIndex, lane := range lanes {
		laneX := x + float64(dayPaddingX) + float64(laneIndex)*laneWidth
		for _, slot := range lane {
			drawSlot(dc, slot.Window.Start, slot.Window.End, slot.Booked, laneX, y, laneWidth, hours, cellHeight)
		}
	}
}

func drawSlot(dc *gg.Context, start, end time.Time, booked bool, x, y, laneWidth float64, hours hourRange, cellHeight float64) {
	startHour := float64(start.Hour()) + float64(start.Minute())/60.0
	endHour := float64(end.Hour()) + float64(end.Minute())/60.0
	if end.Day() != start.Day() {
		endHour = float64(hours.end) + 1
	}

	slotY := y + (startHour-float64(hours.start))*cellHeight
	slotHeight := (endHour - startHour) * cellHeight
	if slotHeight < minSlotHeight {
		slotHeight = minSlotHeight
	}

	fillColor := slotPostedColor
	if booked {
		fillColor = slotBookedColor
	}
	slotWidth := laneWidth - float64(lanePaddingX*2)

	dc.SetColor(fillColor)
	dc.DrawRoundedRectangle(x+lanePaddingX, slotY+1, slotWidth, slotHeight-2, slotRadius)
	dc.Fill()

	dc.SetColor(darkenColor(fillColor, slotBorderDim))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x+lanePaddingX, slotY+1, slotWidth, slotHeight-2, slotRadius)
	dc.Stroke()
}

func darkenColor(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

func drawLegend(dc *gg.Context, dayWidth int) {
	legendX := float64(leftLabelsWidth + totalDays*dayWidth + 10)
	legendY := float64(imageHeight) - 100.0

	legendItems := []struct {
		Label string
		Clr   color.Color
	}{
		{"Posted", slotPostedColor},
		{"Booked", slotBookedColor},
	}

	boxW := 20.0
	boxH := 14.0
	liY := legendY + 22

	for _, item := range legendItems {
		dc.SetColor(item.Clr)
		dc.DrawRoundedRectangle(legendX, liY, boxW, boxH, 3)
		dc.Fill()

		dc.SetColor(legendItemColor)
		dc.DrawStringAnchored(item.Label, legendX+boxW+8, liY+boxH/2+1, 0, 0.2)
		liY += boxH + 14
	}
}

func formatHourLabel(h int) string {
	if h < 10 {
		return "0" + strconv.Itoa(h) + ":00"
	}
	return strconv.Itoa(h) + ":00"
}
