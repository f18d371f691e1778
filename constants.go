package sortx

import "github.com/kh4i-dev/sortx/internal/constants"

// Re-export constants for public API
const (
	NGLaneID = constants.NGLaneID

	DefaultCycleDelay        = constants.DefaultCycleDelay
	DefaultSettleDelay       = constants.DefaultSettleDelay
	DefaultSensorDebounce    = constants.DefaultSensorDebounce
	DefaultStabilityDelay    = constants.DefaultStabilityDelay
	DefaultQueueHeadTimeout  = constants.DefaultQueueHeadTimeout
	MinQRDebounceTime        = constants.MinQRDebounceTime
	DefaultQRDebounceTime    = constants.DefaultQRDebounceTime
	DefaultConveyorStopDelay = constants.DefaultConveyorStopDelay
	DefaultMinConfidence     = constants.DefaultMinConfidence
)
