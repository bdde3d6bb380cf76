package models

// WorkflowEventType identifies the kind of domain occurrence a trigger binds to.
type WorkflowEventType string

const (
	EventVehicleLocationUpdated WorkflowEventType = "vehicle_location_updated"
	EventVehicleIgnitionOn      WorkflowEventType = "vehicle_ignition_on"
	EventVehicleIgnitionOff     WorkflowEventType = "vehicle_ignition_off"
	EventVehicleEnteredGeofence WorkflowEventType = "vehicle_entered_geofence"
	EventVehicleExitedGeofence  WorkflowEventType = "vehicle_exited_geofence"
	EventVehicleSpeeding        WorkflowEventType = "vehicle_speeding"
	EventVehicleStatusChanged   WorkflowEventType = "vehicle_status_changed"
	EventDeviceOffline          WorkflowEventType = "device_offline"
	EventDeviceOnline           WorkflowEventType = "device_online"
	EventDriverAssigned         WorkflowEventType = "driver_assigned"
	EventDriverUnassigned       WorkflowEventType = "driver_unassigned"
	EventAlertCreated           WorkflowEventType = "alert_created"
)

// Source entity types events originate from.
const (
	EntityVehicle = "vehicle"
	EntityDevice  = "device"
	EntityDriver  = "driver"
	EntityAlert   = "alert"
)

var eventTypeSources = map[WorkflowEventType]string{
	EventVehicleLocationUpdated: EntityVehicle,
	EventVehicleIgnitionOn:      EntityVehicle,
	EventVehicleIgnitionOff:     EntityVehicle,
	EventVehicleEnteredGeofence: EntityVehicle,
	EventVehicleExitedGeofence:  EntityVehicle,
	EventVehicleSpeeding:        EntityVehicle,
	EventVehicleStatusChanged:   EntityVehicle,
	EventDeviceOffline:          EntityDevice,
	EventDeviceOnline:           EntityDevice,
	EventDriverAssigned:         EntityDriver,
	EventDriverUnassigned:       EntityDriver,
	EventAlertCreated:           EntityAlert,
}

// EventTypes returns every known event type in declaration order.
func EventTypes() []WorkflowEventType {
	return []WorkflowEventType{
		EventVehicleLocationUpdated,
		EventVehicleIgnitionOn,
		EventVehicleIgnitionOff,
		EventVehicleEnteredGeofence,
		EventVehicleExitedGeofence,
		EventVehicleSpeeding,
		EventVehicleStatusChanged,
		EventDeviceOffline,
		EventDeviceOnline,
		EventDriverAssigned,
		EventDriverUnassigned,
		EventAlertCreated,
	}
}

// Valid reports whether t is a known event type.
func (t WorkflowEventType) Valid() bool {
	_, ok := eventTypeSources[t]

	return ok
}

// SourceEntity returns the entity type the event originates from, or "" for
// unknown event types.
func (t WorkflowEventType) SourceEntity() string {
	return eventTypeSources[t]
}
