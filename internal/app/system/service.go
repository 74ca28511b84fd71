// Package system manages the lifecycle of background components such as the
// load scheduler.
package system

import "context"

// Service is started by Manager in registration order and stopped in
// reverse. Name must be unique within a Manager.
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
