// Package interfaces defines common interface types used across the application.
package interfaces

import (
	"context"
)

// AppReloader interface for triggering application configuration reloads and dynamic management
type AppReloader interface {
	ReloadConfiguration(ctx context.Context) error
	AddWeatherStation(deviceName string) error
	RemoveWeatherStation(deviceName string) error
}
