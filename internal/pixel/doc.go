// Package pixel provides color model handling and wire-to-native pixel
// conversion. It maps payload bytes in the declared DDP color model onto the
// 8-bit channel layout a physical strip driver expects, including channel
// reordering, bit-depth reduction, HSL decoding, and brightness scaling.
package pixel
