// Package device defines the library-neutral view of Bluetooth Low Energy peripherals used by
// the poller: discovered advertisements, scoped client connections and the GATT service
// hierarchy obtained from them.
//
// Concrete implementations live in sub-packages (see go-ble); everything above this package
// talks to the interfaces declared here so that scanning and connecting can be replaced by
// fakes in tests.
package device
