// Package region provides memory for tlsf controls: 8-byte aligned Go memory for pools, and
// Resizer implementations that hand the control more memory when its pools run out.
package region
