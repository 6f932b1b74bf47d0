// Package display defines the driver interface that receives finished frames
// on a push signal, plus in-tree drivers: a discarding Null driver and a
// Snapshot driver that retains the latest frame and fans it out to
// subscribers for the HTTP grid view.
package display
