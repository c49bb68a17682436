// Package serialization reads and writes the .born v2 archive format.
//
// A .born file stores named tensors together with a JSON header:
//
//	0x00  "BORN"                 magic
//	0x04  uint32 version         always 2
//	0x08  uint32 flags
//	0x0C  uint32 reserved
//	0x10  uint64 header size     length of the JSON header
//	0x18  uint64 data size       length of the tensor data section
//	0x20  [32]byte SHA-256       checksum of the tensor data section
//	0x40  JSON header, zero padded to a 64-byte boundary
//	....  tensor data, every tensor starting on a 64-byte boundary
//
// All integers are little-endian. Trained models and saved explanations
// both use this format; Header.ModelType tells them apart.
package serialization
