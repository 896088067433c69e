//go:build linux

package main

const (
	exampleDeviceAddress = "7C:DF:A1:E8:7B:CE"
	deviceAddressNote    = "Device address format: six hex octets separated by colons, case-insensitive.\n  Use 'blepoll scan' to discover devices"
)
