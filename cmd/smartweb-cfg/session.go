package main

import (
	"errors"
	"fmt"

	"github.com/muurk/smartweb/internal/config"
	"github.com/muurk/smartweb/internal/device"
	"github.com/muurk/smartweb/internal/smartweb"
)

var errNoAccount = errors.New("no SmartWeb account configured: run smartweb-cfg to set one up, or set " +
	config.HostEnvVar + " and " + config.UsernameEnvVar)

// registryPath returns the --config path or the default location
func registryPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.GetConfigPath()
}

// loadRegistry reads the configuration file and applies environment overrides
func loadRegistry() (*config.Registry, string, error) {
	path, err := registryPath()
	if err != nil {
		return nil, "", err
	}

	reg, err := config.LoadFrom(path)
	if err != nil {
		return nil, "", err
	}
	reg.ApplyEnv()
	return reg, path, nil
}

// openHub creates a hub for the configured account, resolving the password
// from the environment or the terminal
func openHub(reg *config.Registry) (*smartweb.Hub, error) {
	if !reg.HasAccount() {
		return nil, errNoAccount
	}

	password, err := config.ResolvePassword(fmt.Sprintf("Password for %s@%s: ", reg.Username, reg.Host))
	if err != nil {
		return nil, err
	}

	hub, err := smartweb.New(reg.Host, reg.Username, password)
	if err != nil {
		return nil, err
	}
	hub.SetTimeout(reg.Timeout())
	return hub, nil
}

// openDevices builds the configured devices over one hub
func openDevices(reg *config.Registry) (*device.Set, error) {
	hub, err := openHub(reg)
	if err != nil {
		return nil, err
	}
	return device.NewSet(device.NewController(hub), reg.DeviceSpecs())
}

// lookupDevice returns the named device, checking its type when want is set
func lookupDevice(set *device.Set, name string, want device.Type) (device.Device, error) {
	d, ok := set.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q (see 'smartweb-cfg devices list')", config.ErrDeviceNotFound, name)
	}
	if want != "" && d.Type() != want {
		return nil, fmt.Errorf("%q is a %s, not a %s", d.Name(), d.Type(), want)
	}
	return d, nil
}
