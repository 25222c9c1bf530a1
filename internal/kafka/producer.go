package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"hotel-booking/internal/config"
	"hotel-booking/internal/logger"
	"hotel-booking/internal/models"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// Producer публикует доменные события в Kafka
type Producer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
	topics   *config.Topics
}

// NewProducer создает синхронного продюсера
func NewProducer(cfg *config.KafkaConfig, log *logger.Logger) (*Producer, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Retry.Max = 3
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Net.DialTimeout = 3 * time.Second
	saramaCfg.Metadata.Retry.Max = 1

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	log.WithField("brokers", cfg.Brokers).Info("Kafka producer created")

	topics := cfg.Topics
	return &Producer{
		producer: producer,
		log:      log,
		topics:   &topics,
	}, nil
}

// Close закрывает продюсера
func (p *Producer) Close() error {
	if p == nil || p.producer == nil {
		return nil
	}
	return p.producer.Close()
}

// PublishReservationCreated публикует событие о новом бронировании
func (p *Producer) PublishReservationCreated(reservation *models.Reservation) error {
	event := newEvent(models.EventTypeReservationCreated, map[string]interface{}{
		"reservation_id": reservation.ID,
		"hotel_id":       reservation.HotelID,
		"user_id":        reservation.UserID,
		"check_in":       models.NewDate(reservation.CheckIn).String(),
		"check_out":      models.NewDate(reservation.CheckOut).String(),
		"total_nights":   reservation.TotalNights,
		"total_amount":   reservation.TotalAmount,
		"status":         reservation.Status,
	})
	return p.publishEvent(p.topics.Reservations, reservation.ID.String(), event)
}

// PublishReservationStatusChanged публикует событие о смене статуса бронирования
func (p *Producer) PublishReservationStatusChanged(reservationID, hotelID uuid.UUID, oldStatus, newStatus models.ReservationStatus) error {
	event := newEvent(models.EventTypeReservationStatusChanged, map[string]interface{}{
		"reservation_id": reservationID,
		"hotel_id":       hotelID,
		"old_status":     oldStatus,
		"new_status":     newStatus,
	})
	return p.publishEvent(p.topics.Reservations, reservationID.String(), event)
}

// PublishHotelUpdated публикует событие об изменении отеля
func (p *Producer) PublishHotelUpdated(hotel *models.Hotel) error {
	event := newEvent(models.EventTypeHotelUpdated, map[string]interface{}{
		"hotel_id":   hotel.ID,
		"base_price": hotel.BasePrice,
		"active":     hotel.Active,
	})
	return p.publishEvent(p.topics.Hotels, hotel.ID.String(), event)
}

// PublishHotelDeleted публикует событие об удалении отеля
func (p *Producer) PublishHotelDeleted(hotelID uuid.UUID) error {
	event := newEvent(models.EventTypeHotelDeleted, map[string]interface{}{
		"hotel_id": hotelID,
	})
	return p.publishEvent(p.topics.Hotels, hotelID.String(), event)
}

func newEvent(eventType models.EventType, data map[string]interface{}) models.Event {
	return models.Event{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// publishEvent отправляет событие; key задаёт партицию, чтобы события одной сущности шли по порядку
func (p *Producer) publishEvent(topic, key string, event models.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(payload),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send event %s: %w", event.Type, err)
	}

	p.log.WithFields(map[string]interface{}{
		"event_id":   event.ID,
		"event_type": event.Type,
		"topic":      topic,
		"partition":  partition,
		"offset":     offset,
	}).Debug("Event published")

	return nil
}
