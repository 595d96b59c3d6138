// Package emulator exposes a device to hosts over TCP, HTTP and WebSocket.
//
// Every transport and every button press funnels into one Bus. The device
// loop is the Bus's only consumer, so commands are handled strictly one at a
// time no matter how many hosts are connected.
package emulator
