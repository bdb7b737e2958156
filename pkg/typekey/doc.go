// Package typekey derives stable map keys from Go types and provides a registry
// that refuses to store two values under the same type.
package typekey
