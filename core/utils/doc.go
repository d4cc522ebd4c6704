// Package utils provides common utility functions for unisync.
// It includes loose type conversion for untyped upstream JSON (ToInt, ToFloat,
// ToStrings) and whitespace normalization for scraped HTML text.
package utils
