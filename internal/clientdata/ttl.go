package clientdata

import "time"

// TTL constants for cached client data.
// These are added to the repository clock when storing to calculate expires_at.
const (
	TTLExchangeRate = 30 * time.Minute // Currency exchange rates
	TTLLocation     = 24 * time.Hour   // Detected visitor location
)
