//go:build darwin

package main

const (
	exampleDeviceAddress = "01234567-89AB-CDEF-0123-456789ABCDEF"
	deviceAddressNote    = "On macOS devices are identified by a 128-bit UUID assigned by CoreBluetooth, not by\n  their hardware address. Use 'blepoll scan' to find the identifier of your device."
)
