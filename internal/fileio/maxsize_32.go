//go:build 386 || arm || mips || mipsle || wasm

package fileio

// MaxSize is the largest file ReadFunc will map.
const MaxSize = 0x7FFFFFFF // 2GB
