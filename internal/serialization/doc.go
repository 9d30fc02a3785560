// Package serialization stores model parameters in the SafeTensors format.
//
// A file is laid out as
//
//	[8 bytes: header_size (uint64 LE)]
//	[header_size bytes: JSON header]
//	[tensor data: raw little-endian bytes]
//
// Only F32 and I64 tensors are supported.
package serialization
