package storage

import "cosmos/internal/ports"

// Provider is the storage contract used across API and Worker.
type Provider = ports.StorageProvider
