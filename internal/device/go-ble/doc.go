// Package goble implements the device interfaces on top of github.com/go-ble/ble.
//
// A single platform device (HCI socket on linux, CoreBluetooth on darwin) is created lazily
// through DeviceFactory and shared by scanning and dialing until Close.
package goble
