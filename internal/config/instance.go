package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// InstanceID returns this install's stable identifier, generating and saving
// a new one on first use. The id is what peers key this device by.
func InstanceID(ctx context.Context, store Store) (string, error) {
	id, found, err := store.Load(ctx, KeyInstanceID)
	if err != nil {
		return "", fmt.Errorf("failed to load instance id: %w", err)
	}
	if id = strings.TrimSpace(id); found && id != "" {
		return id, nil
	}

	id = uuid.NewString()
	if err := store.Save(ctx, KeyInstanceID, id); err != nil {
		return "", fmt.Errorf("failed to save instance id: %w", err)
	}
	return id, nil
}
