// Package device adapts SmartWeb device pages to host-side devices.
//
// Each device is a detail page on the SmartWeb server. Its state is read from
// status icons and input values in the rendered markup, and it is driven by
// posting image-button clicks back to the same page.
//
// All devices that share one hub go through one Controller, which serializes
// page fetches and postbacks so that the form tokens read for a command are
// the ones submitted with it.
//
// Supported devices:
//   - Light: on/off circuit (icon_b_light_on)
//   - Heater: boiler zone with heat/off mode, home/away preset and a setpoint
//   - TemperatureSensor: read-only view of a heater's current or target temperature
//
// Usage:
//
//	hub, _ := smartweb.New(host, user, password)
//	ctrl := device.NewController(hub)
//	heater := device.NewHeater(ctrl, "1", "Living room")
//	if err := heater.Refresh(ctx); err != nil {
//	    return err
//	}
//	if err := heater.SetTemperature(ctx, 22); err != nil {
//	    return err
//	}
package device
