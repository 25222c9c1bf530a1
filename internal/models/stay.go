package models

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"hotel-booking/internal/apperror"
	"hotel-booking/internal/pricing"
)

// Ограничения параметров проживания, принимаемых API.
const (
	DefaultAdults = 2
	DefaultRooms  = 1

	MaxAdults   = 16
	MaxChildren = 10
	MaxRooms    = 8
	MaxNights   = 90
)

// StayRequest содержит даты и состав гостей, пришедшие от клиента.
type StayRequest struct {
	CheckIn  Date `json:"check_in"`
	CheckOut Date `json:"check_out"`
	Adults   int  `json:"adults"`
	Children int  `json:"children"`
	Rooms    int  `json:"rooms"`
}

// ParseStayQuery разбирает параметры проживания из query string.
// Отсутствующие числовые параметры получают значения по умолчанию.
func ParseStayQuery(q url.Values) (StayRequest, error) {
	var stay StayRequest

	checkIn, err := ParseDate(q.Get("check_in"))
	if err != nil {
		return stay, apperror.Validation("check_in: "+err.Error(), err)
	}
	checkOut, err := ParseDate(q.Get("check_out"))
	if err != nil {
		return stay, apperror.Validation("check_out: "+err.Error(), err)
	}
	stay.CheckIn, stay.CheckOut = checkIn, checkOut

	if stay.Adults, err = queryInt(q, "adults"); err != nil {
		return stay, err
	}
	if stay.Children, err = queryInt(q, "children"); err != nil {
		return stay, err
	}
	if stay.Rooms, err = queryInt(q, "rooms"); err != nil {
		return stay, err
	}

	if err := stay.Normalize(); err != nil {
		return stay, err
	}
	return stay, nil
}

func queryInt(q url.Values, key string) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.Validation(fmt.Sprintf("%s must be an integer", key), err)
	}
	if v < 0 {
		return 0, apperror.Validation(fmt.Sprintf("%s must not be negative", key), nil)
	}
	return v, nil
}

// Normalize подставляет значения по умолчанию и проверяет ограничения.
func (s *StayRequest) Normalize() error {
	if s.Adults == 0 {
		s.Adults = DefaultAdults
	}
	if s.Rooms == 0 {
		s.Rooms = DefaultRooms
	}

	switch {
	case s.CheckIn.IsZero() || s.CheckOut.IsZero():
		return apperror.Validation("check_in and check_out are required", nil)
	case !s.CheckOut.After(s.CheckIn.Time):
		return apperror.Validation("check_out must be after check_in", nil)
	case s.Nights() > MaxNights:
		return apperror.Validation(fmt.Sprintf("stay must not exceed %d nights", MaxNights), nil)
	case s.Adults < 1 || s.Adults > MaxAdults:
		return apperror.Validation(fmt.Sprintf("adults must be between 1 and %d", MaxAdults), nil)
	case s.Children < 0 || s.Children > MaxChildren:
		return apperror.Validation(fmt.Sprintf("children must be between 0 and %d", MaxChildren), nil)
	case s.Rooms < 1 || s.Rooms > MaxRooms:
		return apperror.Validation(fmt.Sprintf("rooms must be between 1 and %d", MaxRooms), nil)
	}
	return nil
}

// Nights возвращает количество ночей проживания.
func (s StayRequest) Nights() int {
	return pricing.Nights(s.CheckIn.Time, s.CheckOut.Time)
}

// Guests возвращает общее число гостей.
func (s StayRequest) Guests() int {
	return s.Adults + s.Children
}

// PricingRequest собирает запрос к движку цен.
func (s StayRequest) PricingRequest(basePrice float64) pricing.Request {
	return pricing.Request{
		CheckIn:   s.CheckIn.Time,
		CheckOut:  s.CheckOut.Time,
		Adults:    s.Adults,
		Children:  s.Children,
		Rooms:     s.Rooms,
		BasePrice: basePrice,
	}
}
