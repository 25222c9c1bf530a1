package database

var schema = []string{
	`CREATE TABLE IF NOT EXISTS hotels (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL,
		country TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		star_rating SMALLINT NOT NULL DEFAULT 0,
		base_price NUMERIC(10,2) NOT NULL,
		max_guests_per_room SMALLINT NOT NULL DEFAULT 2,
		amenities TEXT[] NOT NULL DEFAULT '{}',
		image_url TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_hotels_city ON hotels (lower(city))`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL,
		hotel_id UUID NOT NULL REFERENCES hotels (id),
		hotel_name TEXT NOT NULL,
		check_in DATE NOT NULL,
		check_out DATE NOT NULL,
		guests_adults SMALLINT NOT NULL,
		guests_children SMALLINT NOT NULL DEFAULT 0,
		rooms SMALLINT NOT NULL DEFAULT 1,
		total_nights SMALLINT NOT NULL,
		price_per_night NUMERIC(10,2) NOT NULL,
		subtotal NUMERIC(12,2) NOT NULL,
		taxes NUMERIC(12,2) NOT NULL,
		total_amount NUMERIC(12,2) NOT NULL,
		price_breakdown JSONB,
		status TEXT NOT NULL,
		guest_name TEXT NOT NULL,
		guest_email TEXT NOT NULL,
		guest_phone TEXT NOT NULL DEFAULT '',
		special_requests TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		cancelled_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_user ON reservations (user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_created ON reservations (created_at)`,
}
