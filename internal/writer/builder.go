// internal/writer/builder.go
package writer

import (
	"errors"
	"time"

	"github.com/tamzrod/dmm-bridge/internal/config"
	wmodbus "github.com/tamzrod/dmm-bridge/internal/writer/modbus"
)

// BuildPlan converts the modbus section into a Plan.
// Assumes config has already passed validation.
func BuildPlan(c config.ModbusConfig) (Plan, error) {
	if c.Endpoint == "" {
		return Plan{}, errors.New("writer: modbus.endpoint required")
	}
	return Plan{
		Endpoint:    c.Endpoint,
		UnitID:      c.UnitID,
		BaseAddress: c.BaseAddress,
	}, nil
}

// BuildClient creates the TCP client for the plan's endpoint.
func BuildClient(plan Plan, c config.ModbusConfig) (*wmodbus.EndpointClient, error) {
	return wmodbus.NewEndpointClient(wmodbus.Config{
		Endpoint: plan.Endpoint,
		UnitID:   plan.UnitID,
		Timeout:  time.Duration(c.TimeoutMs) * time.Millisecond,
	})
}
