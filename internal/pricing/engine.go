package pricing

import (
	"math"
	"time"
)

const (
	// DefaultBasePrice задаёт цену за ночь для 2 взрослых в 1 номере, если вызывающий не передал свою.
	DefaultBasePrice = 199.0

	includedAdults = 2
	day            = 24 * time.Hour
)

// Tariffs описывает множители и сборы, из которых складывается цена проживания.
type Tariffs struct {
	WeekendMultiplier     float64
	PeakSeasonMultiplier  float64
	HolidayMultiplier     float64
	ChildFeePerNight      float64
	ExtraAdultFeePerNight float64
	ExtraRoomRate         float64
	SingleGuestDiscount   float64
	TaxRate               float64
}

// DefaultTariffs возвращает стандартные тарифы.
func DefaultTariffs() Tariffs {
	return Tariffs{
		WeekendMultiplier:     1.30,
		PeakSeasonMultiplier:  1.50,
		HolidayMultiplier:     1.80,
		ChildFeePerNight:      30.0,
		ExtraAdultFeePerNight: 80.0,
		ExtraRoomRate:         0.90,
		SingleGuestDiscount:   0.20,
		TaxRate:               0.15,
	}
}

// Request содержит параметры проживания, для которых считается цена.
type Request struct {
	CheckIn   time.Time `json:"check_in"`
	CheckOut  time.Time `json:"check_out"`
	Adults    int       `json:"adults"`
	Children  int       `json:"children"`
	Rooms     int       `json:"rooms"`
	BasePrice float64   `json:"base_price"`
}

// Breakdown объясняет, из чего сложился subtotal.
type Breakdown struct {
	BasePrice       float64 `json:"base_price"`
	WeekendDays     int     `json:"weekend_days"`
	PeakSeasonDays  int     `json:"peak_season_days"`
	HolidayDays     int     `json:"holiday_days"`
	GuestAdjustment float64 `json:"guest_adjustment"`
	RoomAdjustment  float64 `json:"room_adjustment"`
}

// Result содержит рассчитанную цену проживания. Все денежные поля округлены до 2 знаков.
type Result struct {
	PricePerNight float64   `json:"price_per_night"`
	TotalNights   int       `json:"total_nights"`
	Subtotal      float64   `json:"subtotal"`
	Taxes         float64   `json:"taxes"`
	Total         float64   `json:"total"`
	Breakdown     Breakdown `json:"breakdown"`
}

// Engine считает динамическую цену по набору тарифов. Не хранит состояния между вызовами.
type Engine struct {
	tariffs Tariffs
}

// New создаёт движок с заданными тарифами.
func New(t Tariffs) *Engine {
	return &Engine{tariffs: t}
}

var defaultEngine = New(DefaultTariffs())

// Calculate считает цену по стандартным тарифам.
func Calculate(req Request) Result {
	return defaultEngine.Calculate(req)
}

// Tariffs возвращает тарифы движка.
func (e *Engine) Tariffs() Tariffs {
	return e.tariffs
}

// Calculate считает цену проживания.
//
// Множители дат применяются к каждой ночи отдельно, доплаты за гостей и
// дополнительные номера начисляются один раз за всё проживание.
// Пустой или перевёрнутый диапазон считается как одна ночь с даты заезда.
func (e *Engine) Calculate(req Request) Result {
	t := e.tariffs

	basePrice := req.BasePrice
	if basePrice == 0 {
		basePrice = DefaultBasePrice
	}

	start := calendarDay(req.CheckIn)
	nights := Nights(req.CheckIn, req.CheckOut)
	if nights < 1 {
		nights = 1
	}

	var (
		totalPrice float64
		breakdown  Breakdown
	)
	for i := 0; i < nights; i++ {
		date := start.AddDate(0, 0, i)
		dayPrice := basePrice

		if IsWeekend(date) {
			dayPrice *= t.WeekendMultiplier
			breakdown.WeekendDays++
		}
		if IsPeakSeason(date) {
			dayPrice *= t.PeakSeasonMultiplier
			breakdown.PeakSeasonDays++
		}
		if IsHoliday(date) {
			dayPrice *= t.HolidayMultiplier
			breakdown.HolidayDays++
		}

		totalPrice += dayPrice
	}

	n := float64(nights)
	averagePerNight := totalPrice / n

	var guestAdjustment float64
	if req.Adults == 1 {
		guestAdjustment -= totalPrice * t.SingleGuestDiscount
	}
	if req.Children > 0 {
		guestAdjustment += float64(req.Children) * t.ChildFeePerNight * n
	}
	if req.Adults > includedAdults {
		guestAdjustment += float64(req.Adults-includedAdults) * t.ExtraAdultFeePerNight * n
	}

	var roomAdjustment float64
	if req.Rooms > 1 {
		roomAdjustment = float64(req.Rooms-1) * basePrice * t.ExtraRoomRate * n
	}

	subtotal := math.Max(0, totalPrice+guestAdjustment+roomAdjustment)
	taxes := Round2(subtotal * t.TaxRate)
	total := Round2(subtotal + taxes)

	breakdown.BasePrice = Round2(basePrice)
	breakdown.GuestAdjustment = Round2(guestAdjustment)
	breakdown.RoomAdjustment = Round2(roomAdjustment)

	return Result{
		PricePerNight: math.Max(1, Round2(averagePerNight)),
		TotalNights:   nights,
		Subtotal:      Round2(subtotal),
		Taxes:         taxes,
		Total:         total,
		Breakdown:     breakdown,
	}
}

// Nights возвращает количество ночей между календарными датами заезда и выезда.
// Результат не ограничивается снизу: для перевёрнутого диапазона он отрицательный.
func Nights(checkIn, checkOut time.Time) int {
	diff := calendarDay(checkOut).Sub(calendarDay(checkIn))
	return int(math.Ceil(float64(diff) / float64(day)))
}

// calendarDay отбрасывает время суток, сохраняя календарную дату в исходной зоне.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
