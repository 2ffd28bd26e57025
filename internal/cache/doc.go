// Package cache keeps synthesized speech payloads so that repeated replies
// are not synthesized twice. It has an in-memory LRU (L1) in front of a
// zstd-compressed disk cache (L2).
package cache
